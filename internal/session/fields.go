package session

// Field names a value on one of the cockpit screens.
type Field string

// Cockpit list.
const (
	FieldWorkflowDescription Field = "workflow_description"
	FieldWorkflowStatus      Field = "workflow_status"
	FieldDocumentKind        Field = "document_kind"
	FieldFollowUp            Field = "follow_up"
	FieldListCompanyCode     Field = "list_company_code"
	FieldPostingNumber       Field = "posting_number"
)

// Document header.
const (
	FieldSaldo        Field = "saldo"
	FieldPONumber     Field = "po_number"
	FieldDocumentType Field = "document_type"
	FieldHeaderText   Field = "header_text"
	FieldReference    Field = "reference"
	FieldDocumentDate Field = "document_date"
	FieldPostingDate  Field = "posting_date"
	FieldGrossAmount  Field = "gross_amount"
	FieldNetAmount    Field = "net_amount"
	FieldVendor       Field = "vendor"
	FieldCurrency     Field = "currency"
	FieldCompanyCode  Field = "company_code"
	FieldBankType     Field = "bank_type"
	FieldBarcode      Field = "barcode"
	FieldUserID       Field = "user_id"
	FieldCirCode      Field = "cir_code"
)

// Purchase order display.
const (
	FieldPOType           Field = "po_type"
	FieldPOGRBased        Field = "po_gr_based"
	FieldPOTaxCode        Field = "po_tax_code"
	FieldPOVendor         Field = "po_vendor"
	FieldPOCurrency       Field = "po_currency"
	FieldPOCompanyCode    Field = "po_company_code"
	FieldPOCreator        Field = "po_creator"
	FieldPOValueOrdered   Field = "po_value_ordered"
	FieldPOValueDelivered Field = "po_value_delivered"
	FieldPOValueToDeliver Field = "po_value_to_deliver"
	FieldPOValueInvoiced  Field = "po_value_invoiced"
	FieldPOQtyOrdered     Field = "po_qty_ordered"
	FieldPOQtyDelivered   Field = "po_qty_delivered"
	FieldPOQtyToDeliver   Field = "po_qty_to_deliver"
	FieldPOQtyInvoiced    Field = "po_qty_invoiced"
)

// Action names a button or key.
type Action string

const (
	ActionEnter              Action = "enter"
	ActionBack               Action = "back"
	ActionTakeOver           Action = "take_over"
	ActionDisplayPO          Action = "display_po"
	ActionTransferToMM       Action = "transfer_to_mm"
	ActionTransferToFI       Action = "transfer_to_fi"
	ActionRegenerateProposal Action = "regenerate_proposal"
	ActionCheck              Action = "check"
	ActionPost               Action = "post"
	ActionBackToCockpit      Action = "back_to_cockpit"
	ActionVendorMasterData   Action = "vendor_master_data"
	ActionClosePopup         Action = "close_popup"

	// ActionInsertLine inserts an empty invoice line above the first
	// visible row.
	ActionInsertLine Action = "insert_line"
	// ActionSortByPOItem sorts the invoice lines by purchase order item.
	ActionSortByPOItem Action = "sort_by_po_item"
)

// Column names a column of the invoice line grid.
type Column string

const (
	ColumnInvoiceItem Column = "invoice_item"
	ColumnPONumber    Column = "po_number"
	ColumnPOItem      Column = "po_item"
	ColumnAmount      Column = "amount"
	ColumnQuantity    Column = "quantity"
	ColumnUnit        Column = "unit"
	ColumnTaxCode     Column = "tax_code"
)
