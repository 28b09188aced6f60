package tracker

import (
	"strings"
)

// Status represents an application status. The values must exactly match
// the dropdown options in the target spreadsheet.
type Status string

const (
	StatusSubmitted Status = "Submitted Application - Pending Response"
	StatusRejected  Status = "Rejected"
	StatusInterview Status = "Interview"
	StatusOAInvite  Status = "OA Invite"
	StatusNA        Status = "N/A"
)

// Application is a single extracted job application record.
type Application struct {
	Company       string
	Role          string
	Status        Status
	DateSubmitted string // YYYY-MM-DD
	EmailLink     string
}

// Key identifies an application for deduplication. Both fields are
// normalized; two emails about the same company and role map to the
// same key.
type Key struct {
	Company string
	Role    string
}

// KeyFor returns the dedup key for an application.
func KeyFor(app Application) Key {
	return Key{
		Company: NormalizeCompany(app.Company),
		Role:    NormalizeRole(app.Role),
	}
}

// statusVariants maps raw LLM status strings to Status values, in
// priority order: the substring fallback scans the list top to bottom,
// so an input matching variants from two groups resolves to the
// earlier group.
var statusVariants = []struct {
	variant string
	status  Status
}{
	// Submitted
	{"submitted", StatusSubmitted},
	{"application received", StatusSubmitted},
	{"application submitted", StatusSubmitted},
	{"pending", StatusSubmitted},
	{"under review", StatusSubmitted},
	{"received", StatusSubmitted},
	{"confirmed", StatusSubmitted},
	{"applied", StatusSubmitted},

	// Rejected
	{"rejected", StatusRejected},
	{"not selected", StatusRejected},
	{"unsuccessful", StatusRejected},
	{"declined", StatusRejected},
	{"not moving forward", StatusRejected},
	{"position filled", StatusRejected},
	{"closed", StatusRejected},

	// Interview
	{"interview", StatusInterview},
	{"interview scheduled", StatusInterview},
	{"phone screen", StatusInterview},
	{"technical interview", StatusInterview},
	{"onsite", StatusInterview},
	{"final round", StatusInterview},
	{"hiring manager", StatusInterview},

	// OA Invite
	{"oa", StatusOAInvite},
	{"oa invite", StatusOAInvite},
	{"oa_invite", StatusOAInvite},
	{"online assessment", StatusOAInvite},
	{"coding challenge", StatusOAInvite},
	{"assessment", StatusOAInvite},
	{"hackerrank", StatusOAInvite},
	{"codility", StatusOAInvite},
	{"codesignal", StatusOAInvite},
	{"take home", StatusOAInvite},
	{"technical assessment", StatusOAInvite},

	// N/A
	{"n/a", StatusNA},
	{"na", StatusNA},
	{"unknown", StatusNA},
	{"unclear", StatusNA},
	{"other", StatusNA},
}

// exactVariants indexes statusVariants for the exact-match fast path.
var exactVariants = func() map[string]Status {
	m := make(map[string]Status, len(statusVariants))
	for _, v := range statusVariants {
		m[v.variant] = v.status
	}
	return m
}()

// ParseStatus maps a raw LLM status string to a Status. Matching is
// case-insensitive, first exact then substring in either direction.
// Unrecognized values fall back to StatusNA.
func ParseStatus(raw string) Status {
	s := strings.ToLower(strings.TrimSpace(raw))
	if s == "" {
		return StatusNA
	}
	if st, ok := exactVariants[s]; ok {
		return st
	}
	for _, v := range statusVariants {
		if strings.Contains(s, v.variant) || strings.Contains(v.variant, s) {
			return v.status
		}
	}
	return StatusNA
}

// ParseSheetStatus maps a status cell value read back from the sheet.
// Cells hold exact dropdown values; anything else is treated as N/A.
func ParseSheetStatus(cell string) Status {
	switch Status(strings.TrimSpace(cell)) {
	case StatusSubmitted, StatusRejected, StatusInterview, StatusOAInvite, StatusNA:
		return Status(strings.TrimSpace(cell))
	}
	return StatusNA
}

// statusRank orders statuses by application progress. A sheet row is
// only updated when the incoming status outranks the stored one, so a
// late confirmation email never downgrades an Interview row. Rejected
// is terminal.
var statusRank = map[Status]int{
	StatusNA:        0,
	StatusSubmitted: 1,
	StatusOAInvite:  2,
	StatusInterview: 3,
	StatusRejected:  4,
}

// ShouldUpdateStatus reports whether next represents progress over current.
func ShouldUpdateStatus(current, next Status) bool {
	return statusRank[next] > statusRank[current]
}

// companySuffixes are trailing legal-entity tokens dropped during
// company normalization so "Acme, Inc." and "Acme" collide.
var companySuffixes = map[string]bool{
	"inc":          true,
	"incorporated": true,
	"llc":          true,
	"llp":          true,
	"ltd":          true,
	"limited":      true,
	"corp":         true,
	"corporation":  true,
	"co":           true,
	"company":      true,
	"gmbh":         true,
	"plc":          true,
	"sa":           true,
	"ag":           true,
}

// roleSynonyms expands common abbreviations so "Sr. SWE" and
// "Senior Software Engineer" produce the same dedup key.
var roleSynonyms = map[string]string{
	"swe":  "software engineer",
	"sde":  "software development engineer",
	"sre":  "site reliability engineer",
	"ml":   "machine learning",
	"qa":   "quality assurance",
	"sr":   "senior",
	"jr":   "junior",
	"eng":  "engineer",
	"engr": "engineer",
	"dev":  "developer",
	"mgr":  "manager",
}

// NormalizeCompany returns the canonical form of a company name for
// dedup keying: lowercased, punctuation stripped, trailing legal
// suffixes removed.
func NormalizeCompany(name string) string {
	tokens := tokenize(name)
	for len(tokens) > 1 && companySuffixes[tokens[len(tokens)-1]] {
		tokens = tokens[:len(tokens)-1]
	}
	return strings.Join(tokens, " ")
}

// NormalizeRole returns the canonical form of a role title for dedup
// keying: lowercased, punctuation stripped, abbreviations expanded.
func NormalizeRole(role string) string {
	tokens := tokenize(role)
	for i, tok := range tokens {
		if full, ok := roleSynonyms[tok]; ok {
			tokens[i] = full
		}
	}
	return strings.Join(tokens, " ")
}

// tokenize lowercases s, drops parenthesized segments (req IDs,
// "(Remote)" tags), strips punctuation, and splits on whitespace.
func tokenize(s string) []string {
	s = strings.ToLower(stripParens(s))

	var b strings.Builder
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
		default:
			b.WriteRune(' ')
		}
	}
	return strings.Fields(b.String())
}

func stripParens(s string) string {
	var b strings.Builder
	depth := 0
	for _, r := range s {
		switch r {
		case '(':
			depth++
		case ')':
			if depth > 0 {
				depth--
			}
		default:
			if depth == 0 {
				b.WriteRune(r)
			}
		}
	}
	return b.String()
}
