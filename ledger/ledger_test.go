package ledger

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"
)

func TestMemoryWasDelivered(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	delivered, err := m.WasDelivered(ctx, "v1", "A")
	require.NoError(t, err)
	assert.False(t, delivered)

	require.NoError(t, m.RecordDelivery(ctx, Entry{VideoId: "v1", Channel: "A", URL: "u"}))

	delivered, err = m.WasDelivered(ctx, "v1", "A")
	require.NoError(t, err)
	assert.True(t, delivered)

	delivered, err = m.WasDelivered(ctx, "v1", "B")
	require.NoError(t, err)
	assert.False(t, delivered)
}

func TestMemoryToleratesDuplicateEntries(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()
	require.NoError(t, m.RecordDelivery(ctx, Entry{VideoId: "v1", Channel: "A"}))
	require.NoError(t, m.RecordDelivery(ctx, Entry{VideoId: "v1", Channel: "A"}))

	delivered, err := m.WasDelivered(ctx, "v1", "A")
	require.NoError(t, err)
	assert.True(t, delivered)
	assert.Len(t, m.Entries(), 2, "append-only: duplicates stay")
}

func TestMemoryDeliveredChannels(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()
	require.NoError(t, m.RecordDelivery(ctx, Entry{VideoId: "v1", Channel: "A"}))
	require.NoError(t, m.RecordDelivery(ctx, Entry{VideoId: "v1", Channel: "B"}))
	require.NoError(t, m.RecordDelivery(ctx, Entry{VideoId: "v2", Channel: "C"}))

	channels, err := m.DeliveredChannels(ctx, "v1")
	require.NoError(t, err)
	assert.Equal(t, map[string]bool{"A": true, "B": true}, channels)
}

func sheetsTestService(t *testing.T, handler http.HandlerFunc) *sheets.Service {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	service, err := sheets.NewService(context.Background(),
		option.WithEndpoint(srv.URL),
		option.WithoutAuthentication())
	require.NoError(t, err)
	return service
}

func TestSheetsWasDeliveredScansRows(t *testing.T) {
	service := sheetsTestService(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Contains(t, r.URL.Path, "/v4/spreadsheets/sheet-1/values/")
		json.NewEncoder(w).Encode(&sheets.ValueRange{
			Values: [][]interface{}{
				{"v1", "clip.mp4", "Folder/Sub", "https://youtu", "2026-08-01 10:00:00", "A", "delivered"},
				{"v1", "clip.mp4", "Folder/Sub", "https://youtu", "2026-08-01 10:05:00", "B", "failed"},
				{"v2", "other.mp4", "Folder/Sub", "https://youtu", "2026-08-01 11:00:00", "A", "delivered"},
			},
		})
	})
	l := NewSheetsLedgerWithService(service, "sheet-1")
	ctx := context.Background()

	delivered, err := l.WasDelivered(ctx, "v1", "A")
	require.NoError(t, err)
	assert.True(t, delivered)

	// A failed row never satisfies the idempotency check.
	delivered, err = l.WasDelivered(ctx, "v1", "B")
	require.NoError(t, err)
	assert.False(t, delivered)

	channels, err := l.DeliveredChannels(ctx, "v1")
	require.NoError(t, err)
	assert.Equal(t, map[string]bool{"A": true}, channels)
}

func TestSheetsLegacyRowsWithoutStatusCountAsDelivered(t *testing.T) {
	service := sheetsTestService(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(&sheets.ValueRange{
			Values: [][]interface{}{
				{"v1", "clip.mp4", "Folder/Sub", "https://youtu", "2026-08-01 10:00:00", "A"},
			},
		})
	})
	l := NewSheetsLedgerWithService(service, "sheet-1")

	delivered, err := l.WasDelivered(context.Background(), "v1", "A")
	require.NoError(t, err)
	assert.True(t, delivered)
}

func TestSheetsUnreachableStoreReturnsError(t *testing.T) {
	service := sheetsTestService(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "backend down", http.StatusInternalServerError)
	})
	l := NewSheetsLedgerWithService(service, "sheet-1")

	delivered, err := l.WasDelivered(context.Background(), "v1", "A")
	assert.Error(t, err)
	assert.False(t, delivered, "callers treat the error as not yet delivered")
}

func TestSheetsRecordDeliveryAppendsRow(t *testing.T) {
	var appended [][]interface{}
	service := sheetsTestService(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost && strings.Contains(r.URL.Path, ":append") {
			body, _ := io.ReadAll(r.Body)
			var vr sheets.ValueRange
			require.NoError(t, json.Unmarshal(body, &vr))
			appended = vr.Values
			json.NewEncoder(w).Encode(&sheets.AppendValuesResponse{})
			return
		}
		json.NewEncoder(w).Encode(&sheets.ValueRange{})
	})
	l := NewSheetsLedgerWithService(service, "sheet-1")

	err := l.RecordDelivery(context.Background(), Entry{
		VideoId:    "v1",
		VideoName:  "clip.mp4",
		FolderPath: "Folder/Sub",
		URL:        "https://www.youtube.com/watch?v=x",
		UploadedAt: time.Date(2026, 8, 29, 12, 0, 0, 0, time.UTC),
		Channel:    "A",
	})
	require.NoError(t, err)
	require.Len(t, appended, 1)
	assert.Equal(t, []interface{}{
		"v1", "clip.mp4", "Folder/Sub", "https://www.youtube.com/watch?v=x",
		"2026-08-29 12:00:00", "A", "delivered",
	}, appended[0])
}
