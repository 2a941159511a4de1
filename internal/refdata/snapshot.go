package refdata

import (
	"fmt"
)

// Snapshot is a serialisable copy of the reference lists.
type Snapshot struct {
	Critical  map[string][]string `json:"critical"`  // company code -> vendors
	Transport map[string][]string `json:"transport"` // company code -> vendors
	FIVendors map[string]string   `json:"fi_vendors"` // vendor -> cir code
	Calendar  []CalendarEntry     `json:"calendar"`
}

// CalendarEntry moves the posting date of documents processed on Date.
type CalendarEntry struct {
	Entity  string `json:"entity"`
	Date    string `json:"date"`
	Posting string `json:"posting"`
}

// FromSnapshot builds a store from a snapshot.
func FromSnapshot(s Snapshot) (*Memory, error) {
	const op = "FromSnapshot"

	store := NewMemory()
	for company, vendors := range s.Critical {
		for _, v := range vendors {
			store.AddCriticalVendor(company, v)
		}
	}
	for company, vendors := range s.Transport {
		for _, v := range vendors {
			store.AddTransportVendor(company, v)
		}
	}
	for vendor, code := range s.FIVendors {
		store.AddFICirCode(vendor, code)
	}
	for i, e := range s.Calendar {
		day, err := ParseDate(e.Date)
		if err != nil {
			return nil, fmt.Errorf("%s: calendar entry %d: %w", op, i, err)
		}
		posting, err := ParseDate(e.Posting)
		if err != nil {
			return nil, fmt.Errorf("%s: calendar entry %d: %w", op, i, err)
		}
		store.AddPostingDateOverride(e.Entity, day, posting)
	}
	return store, nil
}
