// Package classify holds the small classification rules the pipeline
// branches on: document source, purchase order type and vendor lists.
package classify

import (
	"strings"

	"cockpit/pkg/models"
)

// Source classifies a document by its barcode and scanning user. Ariba
// documents carry neither, PDF collector documents carry both; anything
// else is unknown.
func Source(barcode, userID string) models.DocumentSource {
	switch {
	case barcode == "" && userID == "":
		return models.SourceAriba
	case barcode != "" && userID != "":
		return models.SourcePDFCollector
	default:
		return models.SourceUnknown
	}
}

// POType is the canonical purchase order type.
type POType string

const (
	POTypeEPO          POType = "EPO"
	POTypeTransport    POType = "Transport"
	POTypeIntercompany POType = "interco"
	POTypeStandard     POType = "Standard"
	POTypeUnrecognized POType = "Unrecognized"
)

// poTypeLabels is ordered; labels from index 3 on are all Standard.
var poTypeLabels = []string{
	"Purchase outside EPO",
	"Transport PO",
	"Intercompany PO",
	"Standard PO",
	"Ivalua order",
	"Emergency PO",
}

var canonicalPOTypes = []POType{POTypeEPO, POTypeTransport, POTypeIntercompany, POTypeStandard}

// ClassifyPOType maps a displayed PO type label to its canonical type.
func ClassifyPOType(label string) POType {
	label = strings.TrimSpace(label)
	for i, l := range poTypeLabels {
		if l != label {
			continue
		}
		if i >= len(canonicalPOTypes) {
			return POTypeStandard
		}
		return canonicalPOTypes[i]
	}
	return POTypeUnrecognized
}

// Recognized reports whether t is one of the canonical types.
func (t POType) Recognized() bool {
	return t != POTypeUnrecognized && t != ""
}
