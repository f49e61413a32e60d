// Package pipeline walks discovered videos across channels: ledger check,
// upload, record, notify, with fixed pacing between uploads.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/drivecast/drivecast/drive"
	"github.com/drivecast/drivecast/ledger"
	"github.com/drivecast/drivecast/notify"
	"github.com/drivecast/drivecast/thumbnail"
	"github.com/drivecast/drivecast/videouploader"
)

const (
	// DefaultPacing is the cooperative delay between successive channel
	// uploads, to stay under upstream rate limits.
	DefaultPacing = 5 * time.Second
)

// Library supplies discovered videos, their sidecar metadata and their bytes.
type Library interface {
	Videos(ctx context.Context, folderFilter string, maxDepth int) ([]drive.Video, error)
	Sidecar(ctx context.Context, v drive.Video) (videouploader.Metadata, error)
	Fetch(ctx context.Context, v drive.Video) (videouploader.Artifact, func(), error)
}

// Uploader performs one transfer to one destination.
type Uploader interface {
	Upload(ctx context.Context, artifact videouploader.Artifact, dest videouploader.Destination, meta videouploader.Metadata) (*videouploader.DeliveryRecord, error)
}

// Summary counts terminal outcomes of one run.
type Summary struct {
	Uploaded int
	Skipped  int
	Failed   int
}

// Pipeline owns the sequential (video, channel) loop. One pair fully
// resolves before the next begins.
type Pipeline struct {
	Library  Library
	Uploader Uploader
	Ledger   ledger.Ledger
	Notifier notify.Notifier
	Channels []videouploader.Destination

	Pacing     time.Duration
	TestMode   bool
	FontFile   string
	Privacy    string
	CategoryId string

	Sleep       func(time.Duration)
	Now         func() time.Time
	RenderThumb func(title, fontFile, dir string) (string, error)
}

func New(library Library, uploader Uploader, l ledger.Ledger, notifier notify.Notifier, channels []videouploader.Destination) *Pipeline {
	return &Pipeline{
		Library:     library,
		Uploader:    uploader,
		Ledger:      l,
		Notifier:    notifier,
		Channels:    channels,
		Pacing:      DefaultPacing,
		Privacy:     "public",
		CategoryId:  "22",
		Sleep:       time.Sleep,
		Now:         time.Now,
		RenderThumb: thumbnail.Render,
	}
}

// Run processes every discovered video against every channel. In test mode
// only the first video is processed, one upload per channel.
func (p *Pipeline) Run(ctx context.Context, folderFilter string, maxDepth int) (Summary, error) {
	runId := uuid.NewString()[:8]
	var summary Summary

	videos, err := p.Library.Videos(ctx, folderFilter, maxDepth)
	if err != nil {
		return summary, fmt.Errorf("run %s: discovery: %w", runId, err)
	}
	log.Printf("run %s: found %d videos across %d channels", runId, len(videos), len(p.Channels))
	p.Notifier.Send("🚀 Upload automation started",
		fmt.Sprintf("Run %s: %d videos, %d channels", runId, len(videos), len(p.Channels)))

	for _, video := range videos {
		if err := p.processVideo(ctx, video, &summary); err != nil {
			return summary, err
		}
		if p.TestMode {
			log.Printf("run %s: test mode, stopping after one video", runId)
			break
		}
	}

	p.Notifier.Send("✅ Upload automation completed",
		fmt.Sprintf("Run %s: %d uploaded, %d skipped, %d failed", runId, summary.Uploaded, summary.Skipped, summary.Failed))
	return summary, nil
}

func (p *Pipeline) processVideo(ctx context.Context, video drive.Video, summary *Summary) error {
	// A ledger read failure must not skip uploads: an unconfirmed delivery
	// is treated as not yet delivered.
	delivered, err := p.Ledger.DeliveredChannels(ctx, video.Id)
	if err != nil {
		log.Printf("ledger read failed for %s, assuming nothing delivered: %v", video.Name, err)
		delivered = nil
	}

	meta := p.resolveMetadata(ctx, video)

	for _, channel := range p.Channels {
		if err := ctx.Err(); err != nil {
			return err
		}
		if delivered[channel.Id()] {
			log.Printf("video %s already uploaded to %s, skipping", video.Name, channel.Id())
			p.Notifier.Send("⏭ Already delivered",
				fmt.Sprintf("%s was already uploaded to %s", video.Name, channel.Id()))
			summary.Skipped++
			continue
		}

		p.uploadOne(ctx, video, channel, meta, summary)

		if p.Pacing > 0 {
			p.Sleep(p.Pacing)
		}
	}
	return nil
}

func (p *Pipeline) uploadOne(ctx context.Context, video drive.Video, channel videouploader.Destination, meta videouploader.Metadata, summary *Summary) {
	artifact, cleanup, err := p.Library.Fetch(ctx, video)
	if err != nil {
		log.Printf("fetching %s failed: %v", video.Name, err)
		p.Notifier.Send("❌ Upload failed",
			fmt.Sprintf("%s to %s: source fetch error", video.Name, channel.Id()))
		summary.Failed++
		return
	}
	defer cleanup()

	record, err := p.Uploader.Upload(ctx, artifact, channel, meta)
	if err != nil {
		log.Printf("uploading %s to %s failed: %v", video.Name, channel.Id(), err)
		p.Notifier.Send("❌ Upload failed",
			fmt.Sprintf("%s to %s: %s", video.Name, channel.Id(), errorCategory(err)))
		summary.Failed++
		return
	}

	entry := ledger.Entry{
		VideoId:    video.Id,
		VideoName:  video.Name,
		FolderPath: video.Path,
		URL:        record.URL,
		UploadedAt: p.Now(),
		Channel:    channel.Id(),
		Status:     ledger.StatusDelivered,
	}
	if err := p.Ledger.RecordDelivery(ctx, entry); err != nil {
		// The upload itself succeeded. Surface the ledger gap loudly so an
		// operator can reconcile; the next run may re-upload this pair.
		log.Printf("ledger write failed for %s on %s: %v", video.Name, channel.Id(), err)
		p.Notifier.Send("⚠️ Ledger write failed",
			fmt.Sprintf("%s uploaded to %s (%s) but was not logged", video.Name, channel.Id(), record.URL))
	}

	log.Printf("uploaded %s to %s: %s", video.Name, channel.Id(), record.URL)
	p.Notifier.Send("✅ New video uploaded",
		fmt.Sprintf("%s\n🎬 Channel: %s\n🔗 %s", meta.Title, channel.Id(), record.URL))
	summary.Uploaded++
}

func (p *Pipeline) resolveMetadata(ctx context.Context, video drive.Video) videouploader.Metadata {
	meta, err := p.Library.Sidecar(ctx, video)
	if err != nil {
		log.Printf("sidecar lookup failed for %s, using defaults: %v", video.Name, err)
		meta = videouploader.Metadata{Title: video.Name}
	}
	if meta.Title == "" {
		meta.Title = video.Name
	}
	if meta.Privacy == "" {
		meta.Privacy = p.Privacy
	}
	if meta.CategoryId == "" {
		meta.CategoryId = p.CategoryId
	}
	if meta.ThumbnailPath == "" && p.FontFile != "" && p.RenderThumb != nil {
		if path, err := p.RenderThumb(meta.Title, p.FontFile, os.TempDir()); err != nil {
			log.Printf("thumbnail fallback for %s failed: %v", video.Name, err)
		} else {
			meta.ThumbnailPath = path
		}
	}
	return meta
}

func errorCategory(err error) string {
	var authErr *videouploader.AuthError
	var fatalErr *videouploader.FatalRequestError
	var exhaustedErr *videouploader.ExhaustedRetriesError
	switch {
	case errors.As(err, &authErr):
		return "authorization error"
	case errors.As(err, &exhaustedErr):
		return "retries exhausted"
	case errors.As(err, &fatalErr):
		return "request rejected"
	default:
		return "upload error"
	}
}
