package classify

import (
	"strings"
	"unicode"
)

// NoteResult tells what a workflow note line revealed.
type NoteResult int

const (
	NoteNoPO NoteResult = iota
	NotePO
	NoteZRM // the note references an unsupported ZRM order
)

const poNumberLength = 10

var poPrefixes = []string{"43", "45", "47", "40"}

// PONumberFromNote looks for a purchase order number in a free-text note.
// A candidate starts at any of the known PO prefixes and spans ten
// characters. When the candidate is not all digits, it is cut after its
// last digit and each dash is widened with zeros so that "4500-12" may be
// read as "4500000012"; the result must still be ten digits.
func PONumberFromNote(note string) (string, NoteResult) {
	runes := []rune(note)
	for i := 0; i+1 < len(runes); i++ {
		if hasPOPrefix(string(runes[i : i+2])) {
			end := min(i+poNumberLength, len(runes))
			if po, ok := repairPONumber(string(runes[i:end])); ok {
				return po, NotePO
			}
		}
		if i+5 <= len(runes) && string(runes[i:i+5]) == "ZRM00" {
			return "", NoteZRM
		}
	}
	return "", NoteNoPO
}

func hasPOPrefix(s string) bool {
	for _, p := range poPrefixes {
		if s == p {
			return true
		}
	}
	return false
}

func repairPONumber(candidate string) (string, bool) {
	if len(candidate) == poNumberLength && allDigits(candidate) {
		return candidate, true
	}
	last := strings.LastIndexFunc(candidate, unicode.IsDigit)
	if last < 0 {
		return "", false
	}
	head := candidate[:last+1]
	fill := poNumberLength - (last + 1)
	if fill < 0 {
		fill = 0
	}
	repaired := strings.ReplaceAll(head, "-", strings.Repeat("0", fill+1))
	if len(repaired) == poNumberLength && allDigits(repaired) {
		return repaired, true
	}
	return "", false
}

func allDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
