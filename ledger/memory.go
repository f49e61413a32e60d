package ledger

import (
	"context"
	"sync"
)

// Memory is an in-process, non-persistent ledger for tests and dry runs.
// It has to be selected explicitly by configuration; the pipeline never
// falls back to it when the spreadsheet is unreachable.
type Memory struct {
	mu      sync.RWMutex
	entries []Entry
}

func NewMemory() *Memory {
	return &Memory{}
}

func (m *Memory) WasDelivered(ctx context.Context, videoId, channel string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, e := range m.entries {
		if e.VideoId == videoId && e.Channel == channel && e.Status == StatusDelivered {
			return true, nil
		}
	}
	return false, nil
}

func (m *Memory) DeliveredChannels(ctx context.Context, videoId string) (map[string]bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	channels := make(map[string]bool)
	for _, e := range m.entries {
		if e.VideoId == videoId && e.Status == StatusDelivered {
			channels[e.Channel] = true
		}
	}
	return channels, nil
}

func (m *Memory) RecordDelivery(ctx context.Context, entry Entry) error {
	if entry.Status == "" {
		entry.Status = StatusDelivered
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = append(m.entries, entry)
	return nil
}

// Entries returns a copy of the append-only log, oldest first.
func (m *Memory) Entries() []Entry {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]Entry, len(m.entries))
	copy(out, m.entries)
	return out
}
