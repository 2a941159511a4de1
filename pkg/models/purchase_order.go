package models

import "github.com/shopspring/decimal"

// PurchaseOrder is the snapshot of PO facts fetched once per invoice.
type PurchaseOrder struct {
	Number      string
	Type        string // Classified type, see classify.POType
	GRBased     bool   // Goods-receipt based invoice verification
	TwoWayMatch bool   // Always !GRBased once GRBased has been read
	TaxCode     string
	Vendor      string
	Creator     string // "Missing" when it could not be determined
	Totals      POTotals
	Items       []POLineItem
}

// ManyLines reports whether the PO has more than one item.
func (po *PurchaseOrder) ManyLines() bool {
	return len(po.Items) > 1
}

// FullyBooked reports whether the PO has been invoiced completely.
func (po *PurchaseOrder) FullyBooked() bool {
	return po.Totals.FullyBooked()
}

// POTotals are the ordered, delivered, to-deliver and invoiced totals of a PO.
type POTotals struct {
	ValueOrdered   decimal.Decimal
	ValueDelivered decimal.Decimal
	ValueToDeliver decimal.Decimal
	ValueInvoiced  decimal.Decimal
	QtyOrdered     decimal.Decimal
	QtyDelivered   decimal.Decimal
	QtyToDeliver   decimal.Decimal
	QtyInvoiced    decimal.Decimal
}

// FullyBooked is true when something was ordered, nothing is left to
// deliver and at least the delivered quantity has been invoiced.
func (t POTotals) FullyBooked() bool {
	return t.QtyOrdered.IsPositive() &&
		t.QtyDelivered.LessThanOrEqual(t.QtyInvoiced) &&
		t.QtyToDeliver.IsZero()
}

// POLineItem is one item of a purchase order, as displayed.
type POLineItem struct {
	ItemID    string `json:"item"`
	Quantity  string `json:"qty"`
	NetPrice  string `json:"net_price"`
	OrderUnit string `json:"order_unit"`
	PriceUnit string `json:"price_unit"`
}

// Partner is a row of the PO partner tab.
type Partner struct {
	Role   string `json:"role"`
	Number string `json:"number"`
}
