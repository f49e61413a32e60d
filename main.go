package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"sort"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/drivecast/drivecast/drive"
	"github.com/drivecast/drivecast/ledger"
	"github.com/drivecast/drivecast/notify"
	"github.com/drivecast/drivecast/pipeline"
	"github.com/drivecast/drivecast/videouploader"
)

const (
	default_config_file = "config.toml"
)

type config struct {
	Drive struct {
		Credentials_file string
	}
	Ledger struct {
		Backend          string
		Spreadsheet_id   string
		Credentials_file string
	}
	Upload struct {
		Chunk_size_mb  int64
		Pacing_seconds int
		Privacy        string
		Category_id    string
	}
	Thumbnail struct {
		Font_file string
	}
	Channels map[string]channelConfig
	Notify   struct {
		Telegram struct {
			Bot_token string
			Chat_id   string
		}
		Sns struct {
			Topic_arn string
		}
	}
}

type channelConfig struct {
	Client_secret string
	Token_file    string
}

func main() {
	configFile := flag.String("config", default_config_file, "path to the TOML configuration file")
	folder := flag.String("folder", "", "only process this top-level Drive folder")
	testMode := flag.Bool("test", false, "test mode: upload one video per channel, then stop")
	maxDepth := flag.Int("max-depth", drive.DefaultMaxDepth, "maximum folder traversal depth")
	flag.Parse()

	var conf config
	if _, err := toml.DecodeFile(*configFile, &conf); err != nil {
		log.Fatalln(err)
	}

	ctx := context.Background()

	driveClient, err := drive.NewClient(ctx, conf.Drive.Credentials_file)
	if err != nil {
		log.Fatalln(err)
	}

	led, err := buildLedger(ctx, conf)
	if err != nil {
		log.Fatalln(err)
	}

	channels, err := buildChannels(ctx, conf)
	if err != nil {
		log.Fatalln(err)
	}
	if len(channels) == 0 {
		log.Fatalln("no channels configured")
	}

	notifier := buildNotifier(conf)

	uploader := videouploader.New()
	if conf.Upload.Chunk_size_mb > 0 {
		uploader.ChunkSize = conf.Upload.Chunk_size_mb * 1024 * 1024
	}

	p := pipeline.New(driveClient, uploader, led, notifier, channels)
	p.TestMode = *testMode
	p.FontFile = conf.Thumbnail.Font_file
	if conf.Upload.Pacing_seconds > 0 {
		p.Pacing = time.Duration(conf.Upload.Pacing_seconds) * time.Second
	}
	if conf.Upload.Privacy != "" {
		p.Privacy = conf.Upload.Privacy
	}
	if conf.Upload.Category_id != "" {
		p.CategoryId = conf.Upload.Category_id
	}

	summary, err := p.Run(ctx, *folder, *maxDepth)
	if err != nil {
		notifier.Send("❌ Upload automation aborted", err.Error())
		log.Fatalln(err)
	}
	log.Printf("done: %d uploaded, %d skipped, %d failed", summary.Uploaded, summary.Skipped, summary.Failed)
}

func buildLedger(ctx context.Context, conf config) (ledger.Ledger, error) {
	switch conf.Ledger.Backend {
	case "", "sheets":
		if conf.Ledger.Spreadsheet_id == "" {
			return nil, fmt.Errorf("ledger: spreadsheet_id is required")
		}
		credentials := conf.Ledger.Credentials_file
		if credentials == "" {
			credentials = conf.Drive.Credentials_file
		}
		return ledger.NewSheetsLedger(ctx, conf.Ledger.Spreadsheet_id, credentials)
	case "memory":
		// Explicit opt-in only: nothing persists across runs.
		log.Println("using in-memory ledger, deliveries will not be recorded durably")
		return ledger.NewMemory(), nil
	default:
		return nil, fmt.Errorf("ledger: unknown backend %q", conf.Ledger.Backend)
	}
}

func buildChannels(ctx context.Context, conf config) ([]videouploader.Destination, error) {
	names := make([]string, 0, len(conf.Channels))
	for name := range conf.Channels {
		names = append(names, name)
	}
	sort.Strings(names)

	var channels []videouploader.Destination
	for _, name := range names {
		cc := conf.Channels[name]
		channel, err := videouploader.NewChannel(ctx, name, cc.Client_secret, cc.Token_file)
		if err != nil {
			return nil, err
		}
		channels = append(channels, channel)
	}
	return channels, nil
}

func buildNotifier(conf config) notify.Notifier {
	var notifiers notify.Multi
	if conf.Notify.Telegram.Bot_token != "" && conf.Notify.Telegram.Chat_id != "" {
		notifiers = append(notifiers, notify.NewTelegram(conf.Notify.Telegram.Bot_token, conf.Notify.Telegram.Chat_id))
	}
	if conf.Notify.Sns.Topic_arn != "" {
		notifiers = append(notifiers, notify.NewSNS(conf.Notify.Sns.Topic_arn))
	}
	if len(notifiers) == 0 {
		return notify.Discard{}
	}
	return notifiers
}
