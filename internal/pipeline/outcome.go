package pipeline

import "fmt"

// Stage names one step of the decision pipeline. Stages run in the order
// they are declared.
type Stage int

const (
	StageLocate Stage = iota
	StageMetadata
	StageOpen
	StageResolvePO
	StagePriceDifferenceWorkflow
	StageClassifySource
	StageAribaBranch
	StagePurchaseOrder
	StageTakeOver
	StageDocType
	StageProcessData
	StagePOType
	StageVMD
	StagePermittedPayee
	StageRequiredFields
	StagePOConsistency
	StageDates
	StageBankIDs
	StageSaldo
	StageTaxCode
	StageBeforeBook
	StageBook
)

var stageNames = [...]string{
	StageLocate:                  "Locate",
	StageMetadata:                "Metadata",
	StageOpen:                    "Open",
	StageResolvePO:               "ResolvePO",
	StagePriceDifferenceWorkflow: "PriceDifferenceWorkflow",
	StageClassifySource:          "ClassifySource",
	StageAribaBranch:             "AribaBranch",
	StagePurchaseOrder:           "PurchaseOrder",
	StageTakeOver:                "TakeOver",
	StageDocType:                 "DocType",
	StageProcessData:             "ProcessData",
	StagePOType:                  "POType",
	StageVMD:                     "VMD",
	StagePermittedPayee:          "PermittedPayee",
	StageRequiredFields:          "RequiredFields",
	StagePOConsistency:           "POConsistency",
	StageDates:                   "Dates",
	StageBankIDs:                 "BankIDs",
	StageSaldo:                   "Saldo",
	StageTaxCode:                 "TaxCode",
	StageBeforeBook:              "BeforeBook",
	StageBook:                    "Book",
}

func (s Stage) String() string {
	if s >= 0 && int(s) < len(stageNames) {
		return stageNames[s]
	}
	return fmt.Sprintf("Stage(%d)", int(s))
}

// OutcomeKind tells the pipeline what to do after a stage.
type OutcomeKind int

const (
	OutcomeContinue OutcomeKind = iota
	OutcomeJump
	OutcomeReject
	OutcomeFatal
)

// Outcome is the result of one stage.
type Outcome struct {
	Kind   OutcomeKind
	Target Stage  // set for OutcomeJump
	Reason string // set for OutcomeReject
	Err    error  // set for OutcomeFatal
}

// Continue moves on to the next stage.
func Continue() Outcome { return Outcome{Kind: OutcomeContinue} }

// JumpTo skips ahead to stage s.
func JumpTo(s Stage) Outcome { return Outcome{Kind: OutcomeJump, Target: s} }

// Reject ends the run with a business reason.
func Reject(reason string) Outcome { return Outcome{Kind: OutcomeReject, Reason: reason} }

// Fatal ends the run with a fault.
func Fatal(err error) Outcome { return Outcome{Kind: OutcomeFatal, Err: err} }

// Rejectf formats a rejection of document doc with the usual prefix.
func Rejectf(doc, format string, args ...any) Outcome {
	return Reject(fmt.Sprintf("Document %s cannot be processed. ", doc) + fmt.Sprintf(format, args...))
}

func (o Outcome) String() string {
	switch o.Kind {
	case OutcomeContinue:
		return "continue"
	case OutcomeJump:
		return "jump to " + o.Target.String()
	case OutcomeReject:
		return "reject: " + o.Reason
	case OutcomeFatal:
		return fmt.Sprintf("fatal: %v", o.Err)
	}
	return "unknown"
}
