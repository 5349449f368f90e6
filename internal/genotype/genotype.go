// Package genotype analyses per-individual genotype calls at a single site.
package genotype

import "strings"

// Allele codes that take part in minor-allele classification.
const (
	Ref     = "0"
	Alt     = "1"
	Missing = "."
)

// Extract returns the genotype part of a sample field such as "0/1:35:99",
// i.e. everything before the first ':'. A field without ':' is returned whole.
func Extract(field string) string {
	if i := strings.IndexByte(field, ':'); i >= 0 {
		return field[:i]
	}
	return field
}

// ExtractAll applies Extract to every sample field.
func ExtractAll(fields []string) []string {
	gts := make([]string, len(fields))
	for i, f := range fields {
		gts[i] = Extract(f)
	}
	return gts
}

// Split returns the allele codes of a genotype, splitting on '/' or '|'.
func Split(gt string) []string {
	return strings.FieldsFunc(gt, isDelimiter)
}

func isDelimiter(r rune) bool {
	return r == '/' || r == '|'
}

// Counts tallies allele codes across all individuals at a site.
type Counts struct {
	Zero    int // code "0"
	One     int // code "1"
	Other   int // other numeric codes, normally "2".."4"
	Missing int // code "."
	Invalid int // anything that is not an allele code
}

// Count tallies the allele codes of all genotypes at a site.
func Count(gts []string) Counts {
	var c Counts
	for _, gt := range gts {
		for _, code := range Split(gt) {
			switch {
			case code == Ref:
				c.Zero++
			case code == Alt:
				c.One++
			case code == Missing:
				c.Missing++
			case isNumeric(code):
				c.Other++
			default:
				c.Invalid++
			}
		}
	}
	return c
}

func isNumeric(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return s != ""
}

// IsMultiAllelic reports whether any alternate code beyond 1 was seen.
func (c Counts) IsMultiAllelic() bool {
	return c.Other > 0
}

// IsTie reports whether codes 0 and 1 were observed equally often.
func (c Counts) IsTie() bool {
	return c.Zero == c.One
}
