package notify

import (
	"fmt"
	"net/http"
	"net/url"

	"github.com/drivecast/drivecast/utils/restclient"
)

const (
	default_telegram_api = "https://api.telegram.org"
)

// Telegram sends messages to a chat through the Bot API.
type Telegram struct {
	botToken string
	chatId   string
	baseURL  string
}

func NewTelegram(botToken, chatId string) *Telegram {
	return &Telegram{
		botToken: botToken,
		chatId:   chatId,
		baseURL:  default_telegram_api,
	}
}

func (t *Telegram) Send(subject, message string) error {
	if t.botToken == "" || t.chatId == "" {
		return nil
	}
	text := message
	if subject != "" {
		text = subject + "\n" + message
	}
	form := url.Values{
		"chat_id": {t.chatId},
		"text":    {text},
	}
	headers := http.Header{"Content-Type": {"application/x-www-form-urlencoded"}}
	res, err := restclient.Post(fmt.Sprintf("%s/bot%s/sendMessage", t.baseURL, t.botToken), []byte(form.Encode()), headers)
	if err != nil {
		return fmt.Errorf("telegram: %w", err)
	}
	defer res.Body.Close()
	if res.StatusCode != 200 {
		return fmt.Errorf("telegram: sendMessage returned status %d", res.StatusCode)
	}
	return nil
}
