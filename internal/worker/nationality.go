package worker

import (
	"strings"

	"go-plantation/internal/deduction"
)

// NormalizeNationality maps a free-form nationality string to the class the
// deduction registry understands. Absent or unrecognized values default to
// local, so a sloppily entered worker still gets the full local deductions
// rather than silently skipping them.
func NormalizeNationality(raw string) string {
	s := strings.ToLower(strings.TrimSpace(raw))
	s = strings.ReplaceAll(s, " ", "_")
	s = strings.ReplaceAll(s, "-", "_")

	switch s {
	case deduction.AppliesForeignerNoPassport, "no_passport", "foreign_no_passport":
		return deduction.AppliesForeignerNoPassport
	case deduction.AppliesForeigner, "foreign", "asing", "warga_asing":
		return deduction.AppliesForeigner
	case "", deduction.AppliesLocal, "malaysia", "malaysian", "warganegara", "tempatan":
		return deduction.AppliesLocal
	default:
		return deduction.AppliesLocal
	}
}
