// Package google stores subscriptions in a Google Sheets worksheet, one row
// per subscription below a header row.
package google

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"sync"
	"time"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"

	"subtrack/internal/core"
	ports "subtrack/internal/sheets"
)

// Ensure interface conformance
var (
	_ ports.SubscriptionRepository = (*Store)(nil)
	_ ports.SubscriptionMirror     = (*Store)(nil)
)

const (
	DefaultSheetName = "Subscriptions"
	valueInput       = "USER_ENTERED"
)

// Config selects the spreadsheet and the credentials used to reach it.
type Config struct {
	SpreadsheetID   string
	SheetName       string
	CredentialsJSON string
	CredentialsFile string
}

type Store struct {
	svc           *gsheet.Service
	spreadsheetID string
	sheet         string
	now           func() time.Time

	// mu serializes writes so id allocation and row lookups stay consistent
	// within this process.
	mu      sync.Mutex
	sheetID *int64
}

// New creates a store. Without explicit client options, service account
// credentials are resolved from cfg and GOOGLE_APPLICATION_CREDENTIALS.
func New(ctx context.Context, cfg Config, opts ...goption.ClientOption) (*Store, error) {
	if strings.TrimSpace(cfg.SpreadsheetID) == "" {
		return nil, errors.New("missing GOOGLE_SPREADSHEET_ID")
	}
	sheet := strings.TrimSpace(cfg.SheetName)
	if sheet == "" {
		sheet = DefaultSheetName
	}
	if len(opts) == 0 {
		creds, err := credentials(ctx, cfg)
		if err != nil {
			return nil, err
		}
		opts = []goption.ClientOption{
			goption.WithCredentialsJSON(creds),
			goption.WithScopes(gsheet.SpreadsheetsScope),
		}
	}
	svc, err := gsheet.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	slog.InfoContext(ctx, "Google Sheets store ready", "sheet", sheet)
	return &Store{svc: svc, spreadsheetID: cfg.SpreadsheetID, sheet: sheet, now: time.Now}, nil
}

// credentials returns the service account key from inline JSON, a key file,
// or GOOGLE_APPLICATION_CREDENTIALS, in that order.
func credentials(ctx context.Context, cfg Config) ([]byte, error) {
	inline := strings.TrimSpace(cfg.CredentialsJSON)
	file := strings.TrimSpace(cfg.CredentialsFile)
	if inline == "" && file == "" {
		file = strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"))
	}
	switch {
	case inline != "":
		slog.DebugContext(ctx, "Using inline service account credentials")
		return []byte(inline), nil
	case file != "":
		data, err := os.ReadFile(file)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
		slog.DebugContext(ctx, "Read service account credentials", "path", file, "size", len(data))
		return data, nil
	default:
		return nil, errors.New("missing service account credentials (set GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, or GOOGLE_APPLICATION_CREDENTIALS)")
	}
}

func (s *Store) rangeOf(cells string) string {
	return fmt.Sprintf("%s!%s", s.sheet, cells)
}

// EnsureHeader writes the header row when A1 is empty.
func (s *Store) EnsureHeader(ctx context.Context) error {
	resp, err := s.svc.Spreadsheets.Values.Get(s.spreadsheetID, s.rangeOf("A1:A1")).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("read header: %w", err)
	}
	if len(resp.Values) > 0 && len(resp.Values[0]) > 0 {
		return nil
	}
	vr := &gsheet.ValueRange{Values: [][]any{header}}
	_, err = s.svc.Spreadsheets.Values.Update(s.spreadsheetID, s.rangeOf("A1:"+lastColumn+"1"), vr).
		ValueInputOption("RAW").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	return nil
}

// sheetRow is a parsed subscription and its 1-based row number.
type sheetRow struct {
	number int
	sub    core.Subscription
}

func (s *Store) readRows(ctx context.Context) ([]sheetRow, error) {
	rng := s.rangeOf("A2:" + lastColumn)
	resp, err := s.svc.Spreadsheets.Values.Get(s.spreadsheetID, rng).
		ValueRenderOption("UNFORMATTED_VALUE").
		DateTimeRenderOption("FORMATTED_STRING").
		Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", rng, err)
	}
	rows := make([]sheetRow, 0, len(resp.Values))
	for i, cells := range resp.Values {
		if len(cells) == 0 {
			continue
		}
		sub, err := parseRow(cells)
		if err != nil {
			slog.WarnContext(ctx, "Skipping malformed subscription row", "row", i+2, "error", err)
			continue
		}
		rows = append(rows, sheetRow{number: i + 2, sub: sub})
	}
	return rows, nil
}

func findRow(rows []sheetRow, id int64) (sheetRow, bool) {
	for _, r := range rows {
		if r.sub.ID == id {
			return r, true
		}
	}
	return sheetRow{}, false
}

func (s *Store) ListSubscriptions(ctx context.Context) ([]core.Subscription, error) {
	rows, err := s.readRows(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]core.Subscription, len(rows))
	for i, r := range rows {
		out[i] = r.sub
	}
	ports.SortByDisplayOrder(out)
	return out, nil
}

func (s *Store) GetSubscription(ctx context.Context, id int64) (core.Subscription, error) {
	rows, err := s.readRows(ctx)
	if err != nil {
		return core.Subscription{}, err
	}
	r, ok := findRow(rows, id)
	if !ok {
		return core.Subscription{}, fmt.Errorf("subscription %d: %w", id, core.ErrNotFound)
	}
	return r.sub, nil
}

func (s *Store) CreateSubscription(ctx context.Context, sub core.Subscription) (core.Subscription, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.readRows(ctx)
	if err != nil {
		return core.Subscription{}, err
	}
	var maxID int64
	order := 0
	for _, r := range rows {
		if r.sub.ID > maxID {
			maxID = r.sub.ID
		}
		if r.sub.DisplayOrder >= order {
			order = r.sub.DisplayOrder + 1
		}
	}
	now := s.now()
	sub.ID = maxID + 1
	sub.DisplayOrder = order
	sub.CreatedAt, sub.UpdatedAt = now, now
	if err := s.appendRow(ctx, sub); err != nil {
		return core.Subscription{}, err
	}
	return sub, nil
}

func (s *Store) UpdateSubscription(ctx context.Context, sub core.Subscription) (core.Subscription, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.readRows(ctx)
	if err != nil {
		return core.Subscription{}, err
	}
	r, ok := findRow(rows, sub.ID)
	if !ok {
		return core.Subscription{}, fmt.Errorf("subscription %d: %w", sub.ID, core.ErrNotFound)
	}
	sub.CreatedAt = r.sub.CreatedAt
	sub.UpdatedAt = s.now()
	if err := s.writeRow(ctx, r.number, sub); err != nil {
		return core.Subscription{}, err
	}
	return sub, nil
}

// UpsertSubscription writes sub as-is, keeping its id and timestamps.
func (s *Store) UpsertSubscription(ctx context.Context, sub core.Subscription) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.readRows(ctx)
	if err != nil {
		return err
	}
	if r, ok := findRow(rows, sub.ID); ok {
		return s.writeRow(ctx, r.number, sub)
	}
	return s.appendRow(ctx, sub)
}

func (s *Store) DeleteSubscription(ctx context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.readRows(ctx)
	if err != nil {
		return err
	}
	r, ok := findRow(rows, id)
	if !ok {
		return fmt.Errorf("subscription %d: %w", id, core.ErrNotFound)
	}
	sheetID, err := s.worksheetID(ctx)
	if err != nil {
		return err
	}
	req := &gsheet.BatchUpdateSpreadsheetRequest{
		Requests: []*gsheet.Request{{
			DeleteDimension: &gsheet.DeleteDimensionRequest{
				Range: &gsheet.DimensionRange{
					SheetId:    sheetID,
					Dimension:  "ROWS",
					StartIndex: int64(r.number - 1),
					EndIndex:   int64(r.number),
				},
			},
		}},
	}
	if _, err := s.svc.Spreadsheets.BatchUpdate(s.spreadsheetID, req).Context(ctx).Do(); err != nil {
		return fmt.Errorf("delete row %d: %w", r.number, err)
	}
	return nil
}

func (s *Store) SetDisplayOrder(ctx context.Context, ids []int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.readRows(ctx)
	if err != nil {
		return err
	}
	data := make([]*gsheet.ValueRange, 0, len(ids))
	for i, id := range ids {
		r, ok := findRow(rows, id)
		if !ok {
			return fmt.Errorf("subscription %d: %w", id, core.ErrNotFound)
		}
		cell := fmt.Sprintf("N%d", r.number)
		data = append(data, &gsheet.ValueRange{Range: s.rangeOf(cell), Values: [][]any{{i}}})
	}
	if len(data) == 0 {
		return nil
	}
	req := &gsheet.BatchUpdateValuesRequest{ValueInputOption: valueInput, Data: data}
	if _, err := s.svc.Spreadsheets.Values.BatchUpdate(s.spreadsheetID, req).Context(ctx).Do(); err != nil {
		return fmt.Errorf("update display order: %w", err)
	}
	return nil
}

func (s *Store) appendRow(ctx context.Context, sub core.Subscription) error {
	vr := &gsheet.ValueRange{Values: [][]any{encodeRow(sub)}}
	_, err := s.svc.Spreadsheets.Values.Append(s.spreadsheetID, s.rangeOf("A:"+lastColumn), vr).
		ValueInputOption(valueInput).InsertDataOption("INSERT_ROWS").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("append subscription %d: %w", sub.ID, err)
	}
	return nil
}

func (s *Store) writeRow(ctx context.Context, number int, sub core.Subscription) error {
	rng := s.rangeOf(fmt.Sprintf("A%d:%s%d", number, lastColumn, number))
	vr := &gsheet.ValueRange{Values: [][]any{encodeRow(sub)}}
	_, err := s.svc.Spreadsheets.Values.Update(s.spreadsheetID, rng, vr).
		ValueInputOption(valueInput).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("update %s: %w", rng, err)
	}
	return nil
}

// worksheetID resolves and caches the numeric id of the worksheet, needed
// by structural requests such as row deletion.
func (s *Store) worksheetID(ctx context.Context) (int64, error) {
	if s.sheetID != nil {
		return *s.sheetID, nil
	}
	ss, err := s.svc.Spreadsheets.Get(s.spreadsheetID).Fields("sheets.properties").Context(ctx).Do()
	if err != nil {
		return 0, fmt.Errorf("read spreadsheet metadata: %w", err)
	}
	for _, sh := range ss.Sheets {
		if sh.Properties != nil && sh.Properties.Title == s.sheet {
			id := sh.Properties.SheetId
			s.sheetID = &id
			return id, nil
		}
	}
	return 0, fmt.Errorf("worksheet %q not found", s.sheet)
}
