// Package videouploader drives chunked resumable uploads of one video to one
// channel, owning the retry, backoff and error classification rules.
package videouploader

import (
	"errors"
	"fmt"
	"io"
	"log"
	"time"

	"golang.org/x/net/context"
	"google.golang.org/api/googleapi"

	"github.com/drivecast/drivecast/retry"
)

const (
	// DefaultChunkSize matches the upstream recommendation for reliable
	// connections; lower it for better recovery on flaky links.
	DefaultChunkSize = 10 * 1024 * 1024
)

// Metadata describes the upload request body and optional thumbnail.
type Metadata struct {
	Title         string
	Description   string
	Tags          []string
	CategoryId    string
	Privacy       string
	ThumbnailPath string
}

// Artifact is one video to transfer: a byte source of known total length.
type Artifact struct {
	Id     string
	Name   string
	Size   int64
	Source io.Reader
}

// DeliveryRecord is the terminal-success result of one upload.
type DeliveryRecord struct {
	VideoId string
	URL     string
	Channel string
	Retries int
}

// ChunkResult reports the outcome of one chunk transfer: either more chunks
// remain, or the transfer completed with a remote video id.
type ChunkResult struct {
	Done    bool
	VideoId string
}

// Session is one in-progress resumable transfer. A retried chunk is re-sent
// at the same offset; the session must accept that without duplicating bytes.
type Session interface {
	Begin(ctx context.Context, meta Metadata, size int64) error
	SendChunk(ctx context.Context, offset int64, chunk []byte, total int64) (ChunkResult, error)
}

// Destination is one upload target account.
type Destination interface {
	Id() string
	NewSession(ctx context.Context) (Session, error)
	SetThumbnail(ctx context.Context, videoId string, thumb io.Reader) error
	WatchURL(videoId string) string
}

// ThumbnailOpener supplies thumbnail bytes by path. Injectable for tests;
// the default reads the local filesystem.
type ThumbnailOpener func(path string) (io.ReadCloser, error)

// Uploader transfers artifacts in fixed-size chunks with resumability across
// transient failures. The retry count spans the whole transfer, not one chunk.
type Uploader struct {
	ChunkSize int64
	Policy    retry.Policy
	Sleep     func(time.Duration)
	OpenThumb ThumbnailOpener
}

// New returns an Uploader with the default chunk size and retry policy.
func New() *Uploader {
	return &Uploader{
		ChunkSize: DefaultChunkSize,
		Policy:    retry.Default(),
	}
}

// transferAttempt is the state of one upload invocation. Discarded on any
// terminal outcome, never persisted.
type transferAttempt struct {
	sent    int64
	chunk   int
	retries int
	lastErr error
}

// Upload sends the artifact to the destination. It returns a DeliveryRecord
// on terminal success, or one of AuthError, FatalRequestError,
// ExhaustedRetriesError on terminal failure. It never loops forever.
func (u *Uploader) Upload(ctx context.Context, artifact Artifact, dest Destination, meta Metadata) (*DeliveryRecord, error) {
	sess, err := dest.NewSession(ctx)
	if err != nil {
		return nil, err
	}

	attempt := &transferAttempt{}
	if err := u.withRetry(ctx, attempt, func() error {
		return sess.Begin(ctx, meta, artifact.Size)
	}); err != nil {
		return nil, err
	}

	chunkSize := u.ChunkSize
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	buf := make([]byte, chunkSize)

	var videoId string
	for videoId == "" {
		n, readErr := io.ReadFull(artifact.Source, buf)
		if readErr != nil && readErr != io.ErrUnexpectedEOF {
			if readErr == io.EOF {
				return nil, &FatalRequestError{Err: fmt.Errorf("source ended at %d of %d bytes", attempt.sent, artifact.Size)}
			}
			return nil, &FatalRequestError{Err: readErr}
		}
		last := attempt.sent+int64(n) >= artifact.Size

		var res ChunkResult
		if err := u.withRetry(ctx, attempt, func() error {
			r, err := sess.SendChunk(ctx, attempt.sent, buf[:n], artifact.Size)
			if err != nil {
				return err
			}
			res = r
			return nil
		}); err != nil {
			return nil, err
		}

		attempt.sent += int64(n)
		attempt.chunk++
		if res.Done {
			videoId = res.VideoId
		} else if last {
			return nil, &FatalRequestError{Err: errors.New("server did not finalize the upload after the last chunk")}
		}
	}

	log.Printf("uploaded %s to channel %s, video id %s (%d chunks, %d retries)",
		artifact.Name, dest.Id(), videoId, attempt.chunk, attempt.retries)

	// Thumbnail failures never fail the upload; the video is already live.
	if meta.ThumbnailPath != "" {
		if err := u.setThumbnail(ctx, dest, videoId, meta.ThumbnailPath); err != nil {
			log.Printf("setting thumbnail for %s on channel %s failed: %v", videoId, dest.Id(), err)
		}
	}

	return &DeliveryRecord{
		VideoId: videoId,
		URL:     dest.WatchURL(videoId),
		Channel: dest.Id(),
		Retries: attempt.retries,
	}, nil
}

func (u *Uploader) setThumbnail(ctx context.Context, dest Destination, videoId, path string) error {
	open := u.OpenThumb
	if open == nil {
		open = openFile
	}
	thumb, err := open(path)
	if err != nil {
		return err
	}
	defer thumb.Close()
	return dest.SetThumbnail(ctx, videoId, thumb)
}

// withRetry runs fn until success, a fatal classification, the retry ceiling,
// or context cancellation. Backoff sleeps rand()*2^n seconds for retry n.
func (u *Uploader) withRetry(ctx context.Context, attempt *transferAttempt, fn func() error) error {
	for {
		err := fn()
		if err == nil {
			return nil
		}
		attempt.lastErr = err

		if !u.Policy.Retriable(err) {
			return terminal(err)
		}
		attempt.retries++
		if u.Policy.Exhausted(attempt.retries) {
			return &ExhaustedRetriesError{Retries: u.Policy.MaxRetries, Err: err}
		}

		backoff := u.Policy.Backoff(attempt.retries)
		log.Printf("retriable upload error (retry %d, sleeping %v): %v", attempt.retries, backoff, err)
		if err := u.sleep(ctx, backoff); err != nil {
			return err
		}
	}
}

func (u *Uploader) sleep(ctx context.Context, d time.Duration) error {
	if u.Sleep != nil {
		u.Sleep(d)
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// terminal maps a non-retriable transport error to the error surfaced to the
// caller: 401 means the token is no longer usable, everything else is fatal.
func terminal(err error) error {
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		if apiErr.Code == 401 {
			return &AuthError{Err: err}
		}
		return &FatalRequestError{StatusCode: apiErr.Code, Err: err}
	}
	return &FatalRequestError{Err: err}
}
