// Package refdata serves the reference lists the pipeline consults: critical
// suppliers, the vendor matrix, FI vendors with their cir codes and the
// posting calendar. The lists are loaded once and then answered from memory.
package refdata

import (
	"strings"
	"sync"
	"time"
)

// Store is the query contract of the reference data.
type Store interface {
	IsCriticalVendor(vendorID, companyCode string) bool
	IsTransportVendor(companyCode, vendorID string) bool
	LookupFICirCode(vendorID string) (string, bool)
	LookupPostingDateOverride(companyCode string, date time.Time) (time.Time, bool)
}

// Stats summarises what a store holds.
type Stats struct {
	CriticalVendors  map[string]int
	TransportVendors map[string]int
	FIVendors        int
	CalendarEntries  int
}

// Memory is an in-memory Store. It is safe for concurrent use.
type Memory struct {
	mu        sync.RWMutex
	critical  map[string]map[string]struct{}
	transport map[string]map[string]struct{}
	cirCodes  map[string]string
	calendar  map[string]time.Time
}

// NewMemory returns an empty store.
func NewMemory() *Memory {
	return &Memory{
		critical:  make(map[string]map[string]struct{}),
		transport: make(map[string]map[string]struct{}),
		cirCodes:  make(map[string]string),
		calendar:  make(map[string]time.Time),
	}
}

func (m *Memory) AddCriticalVendor(companyCode, vendorID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	addMember(m.critical, companyKey(companyCode), VendorKey(vendorID))
}

func (m *Memory) AddTransportVendor(companyCode, vendorID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	addMember(m.transport, companyKey(companyCode), VendorKey(vendorID))
}

func (m *Memory) AddFICirCode(vendorID, cirCode string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cirCodes[VendorKey(vendorID)] = strings.TrimSpace(cirCode)
}

// AddPostingDateOverride records that documents of the company processed on
// day are posted with the given date.
func (m *Memory) AddPostingDateOverride(companyCode string, day, posting time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calendar[calendarKey(companyCode, day)] = posting
}

func (m *Memory) IsCriticalVendor(vendorID, companyCode string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return isMember(m.critical, companyKey(companyCode), VendorKey(vendorID))
}

func (m *Memory) IsTransportVendor(companyCode, vendorID string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return isMember(m.transport, companyKey(companyCode), VendorKey(vendorID))
}

func (m *Memory) LookupFICirCode(vendorID string) (string, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	code, ok := m.cirCodes[VendorKey(vendorID)]
	if !ok || code == "" {
		return "", false
	}
	return code, true
}

func (m *Memory) LookupPostingDateOverride(companyCode string, date time.Time) (time.Time, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	posting, ok := m.calendar[calendarKey(companyCode, date)]
	return posting, ok
}

// Stats reports the number of entries per list.
func (m *Memory) Stats() Stats {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s := Stats{
		CriticalVendors:  make(map[string]int, len(m.critical)),
		TransportVendors: make(map[string]int, len(m.transport)),
		FIVendors:        len(m.cirCodes),
		CalendarEntries:  len(m.calendar),
	}
	for company, vendors := range m.critical {
		s.CriticalVendors[company] = len(vendors)
	}
	for company, vendors := range m.transport {
		s.TransportVendors[company] = len(vendors)
	}
	return s
}

// VendorKey normalises a vendor account for comparison. The cockpit shows
// accounts zero padded, the reference sheets usually do not.
func VendorKey(vendorID string) string {
	v := strings.TrimSpace(vendorID)
	if v == "" {
		return ""
	}
	trimmed := strings.TrimLeft(v, "0")
	if trimmed == "" {
		return "0"
	}
	return trimmed
}

func companyKey(companyCode string) string {
	return strings.ToUpper(strings.TrimSpace(companyCode))
}

func calendarKey(companyCode string, day time.Time) string {
	return companyKey(companyCode) + "|" + day.Format("2006-01-02")
}

func addMember(set map[string]map[string]struct{}, company, vendor string) {
	if vendor == "" {
		return
	}
	if set[company] == nil {
		set[company] = make(map[string]struct{})
	}
	set[company][vendor] = struct{}{}
}

func isMember(set map[string]map[string]struct{}, company, vendor string) bool {
	if vendor == "" {
		return false
	}
	_, ok := set[company][vendor]
	return ok
}
