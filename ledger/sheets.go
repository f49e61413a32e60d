package ledger

import (
	"context"
	"fmt"

	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"
)

const (
	default_sheet_name = "Sheet1"
	scan_range         = "A2:G"
)

// Headers of the backing spreadsheet, in column order. Creating the header
// row is a setup concern; the ledger only appends and scans.
var Columns = []string{"Video ID", "Video Name", "Folder Path", "YouTube URL", "Upload Time", "Channel", "Status"}

// SheetsLedger stores entries as rows of a Google Sheet, one row per
// delivery, keyed by the video id column.
type SheetsLedger struct {
	service       *sheets.Service
	spreadsheetId string
	sheet         string
}

// NewSheetsLedger opens the spreadsheet with service account credentials.
func NewSheetsLedger(ctx context.Context, spreadsheetId, credentialsFile string) (*SheetsLedger, error) {
	service, err := sheets.NewService(ctx,
		option.WithCredentialsFile(credentialsFile),
		option.WithScopes(sheets.SpreadsheetsScope))
	if err != nil {
		return nil, fmt.Errorf("sheets ledger: %w", err)
	}
	return &SheetsLedger{service: service, spreadsheetId: spreadsheetId, sheet: default_sheet_name}, nil
}

// NewSheetsLedgerWithService wires an already-built service, for tests.
func NewSheetsLedgerWithService(service *sheets.Service, spreadsheetId string) *SheetsLedger {
	return &SheetsLedger{service: service, spreadsheetId: spreadsheetId, sheet: default_sheet_name}
}

func (l *SheetsLedger) scan(ctx context.Context) ([][]interface{}, error) {
	readRange := fmt.Sprintf("%s!%s", l.sheet, scan_range)
	res, err := l.service.Spreadsheets.Values.Get(l.spreadsheetId, readRange).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("sheets ledger: scan: %w", err)
	}
	return res.Values, nil
}

func rowMatches(row []interface{}, videoId string) (channel string, delivered bool) {
	if len(row) < 1 || fmt.Sprint(row[0]) != videoId {
		return "", false
	}
	if len(row) < 6 {
		return "", false
	}
	channel = fmt.Sprint(row[5])
	// Rows written before the status column existed count as delivered.
	if len(row) < 7 {
		return channel, true
	}
	return channel, fmt.Sprint(row[6]) == StatusDelivered
}

func (l *SheetsLedger) WasDelivered(ctx context.Context, videoId, channel string) (bool, error) {
	rows, err := l.scan(ctx)
	if err != nil {
		return false, err
	}
	for _, row := range rows {
		ch, delivered := rowMatches(row, videoId)
		if delivered && ch == channel {
			return true, nil
		}
	}
	return false, nil
}

func (l *SheetsLedger) DeliveredChannels(ctx context.Context, videoId string) (map[string]bool, error) {
	rows, err := l.scan(ctx)
	if err != nil {
		return nil, err
	}
	channels := make(map[string]bool)
	for _, row := range rows {
		if ch, delivered := rowMatches(row, videoId); delivered {
			channels[ch] = true
		}
	}
	return channels, nil
}

func (l *SheetsLedger) RecordDelivery(ctx context.Context, entry Entry) error {
	status := entry.Status
	if status == "" {
		status = StatusDelivered
	}
	row := []interface{}{
		entry.VideoId,
		entry.VideoName,
		entry.FolderPath,
		entry.URL,
		entry.UploadedAt.Format(timeLayout),
		entry.Channel,
		status,
	}
	writeRange := fmt.Sprintf("%s!A1", l.sheet)
	_, err := l.service.Spreadsheets.Values.
		Append(l.spreadsheetId, writeRange, &sheets.ValueRange{Values: [][]interface{}{row}}).
		ValueInputOption("RAW").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).
		Do()
	if err != nil {
		return fmt.Errorf("sheets ledger: append: %w", err)
	}
	return nil
}
