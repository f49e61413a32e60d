// Package ledger keeps the durable record of which video went to which
// channel. It is the idempotency check that stops duplicate uploads.
package ledger

import (
	"context"
	"time"
)

const (
	// StatusDelivered is the only status the idempotency check honors.
	StatusDelivered = "delivered"

	timeLayout = "2006-01-02 15:04:05"
)

// Entry is one append-only delivery record. Entries are never edited in
// place; corrections are appended.
type Entry struct {
	VideoId    string
	VideoName  string
	FolderPath string
	URL        string
	UploadedAt time.Time
	Channel    string
	Status     string
}

// Ledger answers "was this video already delivered to this channel" and
// records new deliveries.
//
// Read-path errors must be treated by callers as "not yet delivered": a
// duplicate upload is preferred over a silently skipped one. Write-path
// errors must be surfaced so the operator can see that a successful upload
// was not durably logged.
type Ledger interface {
	// WasDelivered is true iff at least one delivered-status entry exists
	// for the pair. Duplicate entries are tolerated.
	WasDelivered(ctx context.Context, videoId, channel string) (bool, error)

	// DeliveredChannels returns the set of channels the video has reached.
	DeliveredChannels(ctx context.Context, videoId string) (map[string]bool, error)

	// RecordDelivery appends a delivered entry. Prior entries are never
	// overwritten or deleted.
	RecordDelivery(ctx context.Context, entry Entry) error
}
