package classify

// VendorLists is the part of the reference data the vendor rules query.
type VendorLists interface {
	IsCriticalVendor(vendorID, companyCode string) bool
	IsTransportVendor(companyCode, vendorID string) bool
}

// VendorClassifier answers vendor membership questions for one company.
type VendorClassifier struct {
	lists VendorLists
}

// NewVendorClassifier wraps a reference data store.
func NewVendorClassifier(lists VendorLists) *VendorClassifier {
	return &VendorClassifier{lists: lists}
}

// IsCritical reports whether the vendor needs manual review in the company.
// An empty vendor is never critical.
func (c *VendorClassifier) IsCritical(vendorID, companyCode string) bool {
	if c == nil || c.lists == nil || vendorID == "" {
		return false
	}
	return c.lists.IsCriticalVendor(vendorID, companyCode)
}

// IsTransport reports whether the vendor is registered as a transport
// vendor in the company.
func (c *VendorClassifier) IsTransport(companyCode, vendorID string) bool {
	if c == nil || c.lists == nil || vendorID == "" {
		return false
	}
	return c.lists.IsTransportVendor(companyCode, vendorID)
}
