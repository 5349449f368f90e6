package sitefilter

import "github.com/inodb/parsimony-snps/internal/genotype"

// Reasons a site is dropped.
const (
	ReasonFewHomozygotes    = "few_homozygotes"
	ReasonTie               = "tie"
	ReasonMultiAllelic      = "multiallelic"
	ReasonFewAltIndividuals = "few_alt_individuals"
)

// Site is the outcome of classifying one row.
type Site struct {
	Counts         genotype.Counts
	Minor          string // "0" or "1"; empty when the tie policy skipped the site
	HomMinor       int    // individuals homozygous for Minor
	AltIndividuals int    // individuals with two alternate codes
	Tie            bool
	MultiAllelic   bool
	Keep           bool
	Reason         string // why the site was dropped; empty when kept
}

// Classify decides whether the site described by fields is kept.
// fields is a full row; the first cfg.MetaColumns entries are not interpreted.
func Classify(fields []string, cfg Config) Site {
	var samples []string
	if cfg.MetaColumns < len(fields) {
		samples = fields[cfg.MetaColumns:]
	}
	return ClassifyGenotypes(genotype.ExtractAll(samples), cfg)
}

// ClassifyGenotypes is Classify on already extracted genotype strings.
func ClassifyGenotypes(gts []string, cfg Config) Site {
	s := Site{
		Counts:         genotype.Count(gts),
		AltIndividuals: genotype.AltIndividuals(gts),
	}
	s.Tie = s.Counts.IsTie()
	s.MultiAllelic = s.Counts.IsMultiAllelic()

	minor, ok := genotype.MinorAllele(s.Counts, cfg.TieBreak)
	if !ok {
		s.Reason = ReasonTie
		return s
	}
	s.Minor = minor
	s.HomMinor = genotype.HomozygousCount(gts, minor)

	switch {
	case s.MultiAllelic && cfg.MultiAllelic == MultiAllelicDrop:
		s.Reason = ReasonMultiAllelic
	case s.HomMinor < cfg.MinHomozygotes:
		s.Reason = ReasonFewHomozygotes
	case cfg.MinAltIndividuals > 0 && s.AltIndividuals < cfg.MinAltIndividuals:
		s.Reason = ReasonFewAltIndividuals
	default:
		s.Keep = true
	}
	return s
}
