package models

// BankID is a vendor bank account: the bank type code and its IBAN.
type BankID struct {
	Code string `json:"code"`
	IBAN string `json:"iban"`
}

// VendorMasterRecord is the part of the vendor master data the checks use.
type VendorMasterRecord struct {
	VATNumbers []string `json:"vat_numbers"`
	BankIDs    []BankID `json:"bank_ids"`
	Interco    bool     `json:"interco"`
}

// IndexedBank is a bank row of the document's bank tab.
type IndexedBank struct {
	Name string `json:"name"`
	IBAN string `json:"iban"`
}

// IndexingDetails are the vendor facts captured at indexing level.
type IndexingDetails struct {
	VAT   string        `json:"vat"`
	Banks []IndexedBank `json:"banks"`
}
