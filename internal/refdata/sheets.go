package refdata

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"cockpit/internal/logger"
)

// RangeReader reads a block of cells in A1 notation.
type RangeReader interface {
	ReadRange(ctx context.Context, rangeSpec string) ([][]interface{}, error)
}

// Tabs names the worksheets of the reference workbook.
type Tabs struct {
	Critical3B5  string
	CriticalV436 string
	VendorMatrix string
	FIVendors    string
	Calendar     string
}

// DefaultTabs returns the tab names used by the reference workbook.
func DefaultTabs() Tabs {
	return Tabs{
		Critical3B5:  "AM France 3b5",
		CriticalV436: "AMMED v436",
		VendorMatrix: "vendor matrix",
		FIVendors:    "UPDATE FOS FI",
		Calendar:     "Calendar",
	}
}

// headerSearchRows bounds how far down a tab the header row is looked for.
// The critical supplier tabs carry three title rows above theirs.
const headerSearchRows = 10

// SheetsLoader builds a Memory store from the reference workbook.
type SheetsLoader struct {
	reader RangeReader
	tabs   Tabs
	log    zerolog.Logger
}

// NewSheetsLoader creates a loader reading the given tabs.
func NewSheetsLoader(reader RangeReader, tabs Tabs) *SheetsLoader {
	return &SheetsLoader{
		reader: reader,
		tabs:   tabs,
		log:    logger.WithComponent("refdata-loader"),
	}
}

// Load reads every tab. A tab that cannot be read fails the load, single
// rows that cannot be parsed are skipped.
func (l *SheetsLoader) Load(ctx context.Context) (*Memory, error) {
	const op = "Load"

	store := NewMemory()
	steps := []struct {
		sheet string
		load  func(context.Context, *Memory) error
	}{
		{l.tabs.Critical3B5, l.loadCritical3B5},
		{l.tabs.CriticalV436, l.loadCriticalV436},
		{l.tabs.VendorMatrix, l.loadVendorMatrix},
		{l.tabs.FIVendors, l.loadFIVendors},
		{l.tabs.Calendar, l.loadCalendar},
	}
	for _, step := range steps {
		if err := step.load(ctx, store); err != nil {
			return nil, fmt.Errorf("%s: %w", op, WrapLoadError(step.sheet, err))
		}
	}

	stats := store.Stats()
	l.log.Info().
		Interface("critical_vendors", stats.CriticalVendors).
		Interface("transport_vendors", stats.TransportVendors).
		Int("fi_vendors", stats.FIVendors).
		Int("calendar_entries", stats.CalendarEntries).
		Msg("Reference data loaded")

	return store, nil
}

func (l *SheetsLoader) loadCritical3B5(ctx context.Context, store *Memory) error {
	rows, err := l.readTable(ctx, l.tabs.Critical3B5, "Vendor ACE")
	if err != nil {
		return err
	}
	for _, r := range rows {
		store.AddCriticalVendor("3B5", r.get("Vendor ACE"))
	}
	return nil
}

func (l *SheetsLoader) loadCriticalV436(ctx context.Context, store *Memory) error {
	rows, err := l.readTable(ctx, l.tabs.CriticalV436, "Vendor number ACE")
	if err != nil {
		return err
	}
	for _, r := range rows {
		store.AddCriticalVendor("V436", r.get("Vendor number ACE"))
	}
	return nil
}

func (l *SheetsLoader) loadVendorMatrix(ctx context.Context, store *Memory) error {
	rows, err := l.readTable(ctx, l.tabs.VendorMatrix, "Company code", "Vendor Id", "Type")
	if err != nil {
		return err
	}
	for _, r := range rows {
		if !strings.EqualFold(r.get("Type"), "transport") {
			continue
		}
		store.AddTransportVendor(r.get("Company code"), r.get("Vendor Id"))
	}
	return nil
}

func (l *SheetsLoader) loadFIVendors(ctx context.Context, store *Memory) error {
	rows, err := l.readTable(ctx, l.tabs.FIVendors, "Vendor", "Cir.code")
	if err != nil {
		return err
	}
	for _, r := range rows {
		if code := r.get("Cir.code"); code != "" {
			store.AddFICirCode(r.get("Vendor"), code)
		}
	}
	return nil
}

func (l *SheetsLoader) loadCalendar(ctx context.Context, store *Memory) error {
	rows, err := l.readTable(ctx, l.tabs.Calendar, "Entity", "Date", "Date to be taken for posting")
	if err != nil {
		return err
	}
	for _, r := range rows {
		day, err := ParseDate(r.get("Date"))
		if err != nil {
			l.log.Warn().Err(err).Int("row", r.num).Str("sheet", l.tabs.Calendar).
				Msg("Skipping calendar row with invalid date")
			continue
		}
		posting, err := ParseDate(r.get("Date to be taken for posting"))
		if err != nil {
			l.log.Warn().Err(err).Int("row", r.num).Str("sheet", l.tabs.Calendar).
				Msg("Skipping calendar row with invalid posting date")
			continue
		}
		store.AddPostingDateOverride(r.get("Entity"), day, posting)
	}
	return nil
}

type tableRow struct {
	num    int
	values map[string]string
}

func (r tableRow) get(column string) string {
	return r.values[headerKey(column)]
}

// readTable reads a whole tab, locates the header row holding every
// required column and returns the rows below it keyed by header.
func (l *SheetsLoader) readTable(ctx context.Context, sheet string, required ...string) ([]tableRow, error) {
	values, err := l.reader.ReadRange(ctx, quoteSheet(sheet)+"!A:Z")
	if err != nil {
		return nil, NewLoadError(sheet, 0, err)
	}
	if len(values) == 0 {
		return nil, NewLoadError(sheet, 0, ErrEmptySheet)
	}

	headerRow, columns := findHeader(values, required)
	if headerRow < 0 {
		return nil, NewLoadError(sheet, 0, fmt.Errorf("%w: %s", ErrHeaderNotFound, strings.Join(required, ", ")))
	}

	var rows []tableRow
	for i, row := range values[headerRow+1:] {
		rowNum := headerRow + i + 2
		r := tableRow{num: rowNum, values: make(map[string]string, len(columns))}
		empty := true
		for key, idx := range columns {
			v := getString(row, idx)
			if v != "" {
				empty = false
			}
			r.values[key] = v
		}
		if empty {
			continue
		}
		rows = append(rows, r)
	}

	l.log.Debug().
		Str("sheet", sheet).
		Int("header_row", headerRow+1).
		Int("rows", len(rows)).
		Msg("Reference tab read")

	return rows, nil
}

func findHeader(values [][]interface{}, required []string) (int, map[string]int) {
	limit := min(len(values), headerSearchRows)
	for i := 0; i < limit; i++ {
		columns := make(map[string]int)
		for idx := range values[i] {
			columns[headerKey(getString(values[i], idx))] = idx
		}
		found := make(map[string]int, len(required))
		for _, name := range required {
			idx, ok := columns[headerKey(name)]
			if !ok {
				break
			}
			found[headerKey(name)] = idx
		}
		if len(found) == len(required) {
			return i, found
		}
	}
	return -1, nil
}

// headerKey collapses whitespace and case; the critical supplier tab spells
// its header "Vendor  ACE".
func headerKey(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}

func quoteSheet(sheet string) string {
	return "'" + strings.ReplaceAll(sheet, "'", "''") + "'"
}

// ParseDate reads a calendar date in German or ISO notation.
func ParseDate(s string) (time.Time, error) {
	cleaned := strings.TrimSpace(s)
	if cleaned == "" {
		return time.Time{}, fmt.Errorf("%w: empty", ErrInvalidDate)
	}

	formats := []string{
		"02.01.2006",
		"2.1.2006",
		"02.01.06",
		"2.1.06",
		"2006-01-02",
		"2006-01-02 15:04:05",
	}
	for _, format := range formats {
		if date, err := time.Parse(format, cleaned); err == nil {
			return date, nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDate, s)
}

// getString safely extracts a string value from a row slice
func getString(row []interface{}, index int) string {
	if index >= len(row) || row[index] == nil {
		return ""
	}
	return strings.TrimSpace(fmt.Sprintf("%v", row[index]))
}
