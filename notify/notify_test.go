package notify

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/aws/aws-sdk-go/service/sns"
	"github.com/aws/aws-sdk-go/service/sns/snsiface"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTelegramSendsFormEncodedMessage(t *testing.T) {
	var path, chatId, text string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		path = r.URL.Path
		chatId = r.FormValue("chat_id")
		text = r.FormValue("text")
		w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	tg := NewTelegram("bot-token", "chat-1")
	tg.baseURL = srv.URL

	err := tg.Send("Upload complete", "https://www.youtube.com/watch?v=x")
	require.NoError(t, err)
	assert.Equal(t, "/botbot-token/sendMessage", path)
	assert.Equal(t, "chat-1", chatId)
	assert.Equal(t, "Upload complete\nhttps://www.youtube.com/watch?v=x", text)
}

func TestTelegramErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad request", http.StatusBadRequest)
	}))
	defer srv.Close()

	tg := NewTelegram("bot-token", "chat-1")
	tg.baseURL = srv.URL
	assert.Error(t, tg.Send("", "hi"))
}

func TestTelegramWithoutCredentialsIsNoop(t *testing.T) {
	tg := NewTelegram("", "")
	assert.NoError(t, tg.Send("s", "m"))
}

type fakeSNS struct {
	snsiface.SNSAPI
	published []*sns.PublishInput
	err       error
}

func (f *fakeSNS) Publish(in *sns.PublishInput) (*sns.PublishOutput, error) {
	f.published = append(f.published, in)
	return &sns.PublishOutput{}, f.err
}

func TestSNSPublishesToTopic(t *testing.T) {
	fake := &fakeSNS{}
	s := &SNS{topicArn: "arn:aws:sns:us-west-2:1:uploads", svc: fake}

	require.NoError(t, s.Send("subject", "message"))
	require.Len(t, fake.published, 1)
	assert.Equal(t, "subject", *fake.published[0].Subject)
	assert.Equal(t, "message", *fake.published[0].Message)
	assert.Equal(t, "arn:aws:sns:us-west-2:1:uploads", *fake.published[0].TopicArn)
}

func TestSNSWithoutTopicIsNoop(t *testing.T) {
	fake := &fakeSNS{}
	s := &SNS{svc: fake}
	require.NoError(t, s.Send("s", "m"))
	assert.Empty(t, fake.published)
}

type stubNotifier struct {
	sent []string
	err  error
}

func (s *stubNotifier) Send(subject, message string) error {
	s.sent = append(s.sent, subject+"|"+message)
	return s.err
}

func TestMultiNeverFails(t *testing.T) {
	good := &stubNotifier{}
	bad := &stubNotifier{err: errors.New("down")}
	m := Multi{bad, good}

	assert.NoError(t, m.Send("s", "m"))
	assert.Equal(t, []string{"s|m"}, good.sent)
	assert.Equal(t, []string{"s|m"}, bad.sent)
}
