package genotype

import "fmt"

// TieBreak decides the minor allele when codes 0 and 1 are equally frequent.
type TieBreak string

// Tie-break policies.
const (
	TieZero TieBreak = "zero" // treat "0" as minor
	TieOne  TieBreak = "one"  // treat "1" as minor
	TieSkip TieBreak = "skip" // leave the site unclassified
)

// ParseTieBreak validates a tie-break policy name.
func ParseTieBreak(s string) (TieBreak, error) {
	switch t := TieBreak(s); t {
	case TieZero, TieOne, TieSkip:
		return t, nil
	case "":
		return TieZero, nil
	default:
		return "", fmt.Errorf("unknown tie-break policy %q (use zero, one or skip)", s)
	}
}

// MinorAllele returns the less frequent of codes "0" and "1".
// When 0 is strictly more frequent the minor allele is "1", when 1 is
// strictly more frequent it is "0". Ties are resolved by tie; ok is false
// only for a tie under TieSkip.
func MinorAllele(c Counts, tie TieBreak) (minor string, ok bool) {
	switch {
	case c.Zero > c.One:
		return Alt, true
	case c.Zero < c.One:
		return Ref, true
	}

	switch tie {
	case TieOne:
		return Alt, true
	case TieSkip:
		return "", false
	default:
		return Ref, true
	}
}

// HomozygousCount counts genotypes that are exactly "m/m" or "m|m".
// Comparison is on the raw string, so "1/0" never matches.
func HomozygousCount(gts []string, m string) int {
	unphased := m + "/" + m
	phased := m + "|" + m

	n := 0
	for _, gt := range gts {
		if gt == unphased || gt == phased {
			n++
		}
	}
	return n
}

// AltIndividuals counts individuals carrying no reference allele, i.e.
// diploid calls whose two codes are both in "1".."4" ("1/1", "1/2", "2|2", ...).
func AltIndividuals(gts []string) int {
	n := 0
	for _, gt := range gts {
		codes := Split(gt)
		if len(codes) == 2 && isAltCode(codes[0]) && isAltCode(codes[1]) {
			n++
		}
	}
	return n
}

func isAltCode(code string) bool {
	return len(code) == 1 && code[0] >= '1' && code[0] <= '4'
}
