package rf2

import (
	"fmt"
	"strconv"
	"time"

	"github.com/wardle/snomed-terminology/snomed"
)

// Config controls how rows are decoded and filtered. It is shared by every
// record-kind parser constructed from it.
type Config struct {
	// ActiveOnly drops any row whose "active" column is false.
	ActiveOnly bool
	// BatchSize is the number of records delivered to a batch sink at a time.
	// A non-positive value is treated as 1.
	BatchSize int
	// TolerateEmptySctID downgrades an empty identifier field from a decode
	// error (row dropped, counted in RecordsDroppedByDecodeError) to a row
	// dropped silently and counted in RecordsDroppedByFilter.
	// See spec Open Question 2.
	TolerateEmptySctID bool
	// LanguageCodes, when non-empty, restricts description/language-refset rows
	// to the given ISO-639-1 codes. Comparison is case-insensitive.
	LanguageCodes []string
	// TypeIDs, when non-empty, restricts description rows to the given typeId values.
	TypeIDs []snomed.Identifier
	// CharacteristicTypeIDs, when non-empty, restricts relationship rows to the given values.
	CharacteristicTypeIDs []snomed.Identifier
}

func (c Config) batchSize() int {
	if c.BatchSize <= 0 {
		return 1
	}
	return c.BatchSize
}

func (c Config) languageAllowed(code string) bool {
	if len(c.LanguageCodes) == 0 {
		return true
	}
	for _, l := range c.LanguageCodes {
		if equalFold(l, code) {
			return true
		}
	}
	return false
}

func (c Config) typeAllowed(id snomed.Identifier) bool {
	if len(c.TypeIDs) == 0 {
		return true
	}
	for _, t := range c.TypeIDs {
		if t == id {
			return true
		}
	}
	return false
}

func (c Config) characteristicTypeAllowed(id snomed.Identifier) bool {
	if len(c.CharacteristicTypeIDs) == 0 {
		return true
	}
	for _, t := range c.CharacteristicTypeIDs {
		if t == id {
			return true
		}
	}
	return false
}

func equalFold(a, b string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := 0; i < len(a); i++ {
		ca, cb := a[i], b[i]
		if 'A' <= ca && ca <= 'Z' {
			ca += 'a' - 'A'
		}
		if 'A' <= cb && cb <= 'Z' {
			cb += 'a' - 'A'
		}
		if ca != cb {
			return false
		}
	}
	return true
}

// decodeSCTID parses a tab-separated field as an unsigned 64-bit SCTID.
// An empty field is an error unless cfg.TolerateEmptySctID is set, in which case
// the zero identifier is returned with ok=false so the caller can drop the row
// without treating it as a hard decode failure.
func decodeSCTID(cfg Config, s string) (snomed.Identifier, bool, error) {
	if s == "" {
		if cfg.TolerateEmptySctID {
			return 0, false, nil
		}
		return 0, false, fmt.Errorf("empty SCTID")
	}
	id, err := snomed.ParseIdentifier(s)
	if err != nil {
		return 0, false, err
	}
	return id, true, nil
}

// decodeBool parses the RF2 "active" style boolean column: "1" -> true, "0" -> false.
func decodeBool(s string) (bool, error) {
	switch s {
	case "1":
		return true, nil
	case "0":
		return false, nil
	}
	return false, fmt.Errorf("invalid boolean %q", s)
}

// rf2DateLayout is the RF2 fixed-width YYYYMMDD date format.
const rf2DateLayout = "20060102"

// decodeDate parses an 8-digit effectiveTime field. Per spec Open Question 1, only the
// length is enforced by default; semantic validity (e.g. month <= 12) is reported via
// validSemantically for load-statistics purposes, but never rejects the row.
func decodeDate(s string) (t time.Time, validSemantically bool, err error) {
	if len(s) != 8 {
		return time.Time{}, false, fmt.Errorf("date %q is not 8 digits", s)
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return time.Time{}, false, fmt.Errorf("date %q is not numeric", s)
		}
	}
	t, perr := time.Parse(rf2DateLayout, s)
	if perr != nil {
		// length-only acceptance: fabricate a time from the raw digits so the row still loads.
		year, _ := strconv.Atoi(s[0:4])
		month, _ := strconv.Atoi(s[4:6])
		day, _ := strconv.Atoi(s[6:8])
		return time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC), false, nil
	}
	return t, true, nil
}

// decodeInt parses a plain signed integer column (e.g. relationshipGroup).
func decodeInt(s string) (int, error) {
	return strconv.Atoi(s)
}
