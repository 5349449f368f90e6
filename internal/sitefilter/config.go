// Package sitefilter keeps sites whose minor allele is homozygous in enough
// individuals to stay parsimony-informative after ambiguity coding.
package sitefilter

import (
	"fmt"

	"github.com/inodb/parsimony-snps/internal/genotype"
	"github.com/inodb/parsimony-snps/internal/table"
)

// DefaultMinHomozygotes is the smallest number of minor-allele homozygotes
// for which a site is kept.
const DefaultMinHomozygotes = 2

// MultiAllelicPolicy controls sites carrying allele codes beyond 0 and 1.
type MultiAllelicPolicy string

// Multi-allelic policies.
const (
	MultiAllelicFit  MultiAllelicPolicy = "fit"  // classify on codes 0/1 silently
	MultiAllelicFlag MultiAllelicPolicy = "flag" // classify on codes 0/1, log and mark the site
	MultiAllelicDrop MultiAllelicPolicy = "drop" // never keep the site
)

// ParseMultiAllelicPolicy validates a multi-allelic policy name.
func ParseMultiAllelicPolicy(s string) (MultiAllelicPolicy, error) {
	switch p := MultiAllelicPolicy(s); p {
	case MultiAllelicFit, MultiAllelicFlag, MultiAllelicDrop:
		return p, nil
	case "":
		return MultiAllelicFlag, nil
	default:
		return "", fmt.Errorf("unknown multi-allelic policy %q (use fit, flag or drop)", s)
	}
}

// Config holds the filter parameters.
type Config struct {
	MetaColumns       int                // columns before the first sample
	MinHomozygotes    int                // keep threshold for minor-allele homozygotes
	MinAltIndividuals int                // 0 disables the alternate-individual criterion
	TieBreak          genotype.TieBreak  // minor allele when 0 and 1 are equally frequent
	MultiAllelic      MultiAllelicPolicy // handling of codes 2..4
	Workers           int                // 0 means runtime.NumCPU()
}

// DefaultConfig returns the configuration of the classic filter.
func DefaultConfig() Config {
	return Config{
		MetaColumns:    table.DefaultMetaColumns,
		MinHomozygotes: DefaultMinHomozygotes,
		TieBreak:       genotype.TieZero,
		MultiAllelic:   MultiAllelicFlag,
	}
}

// Validate checks that the configuration is usable.
func (c Config) Validate() error {
	if c.MetaColumns < 0 {
		return fmt.Errorf("meta columns must be >= 0, got %d", c.MetaColumns)
	}
	if c.MinHomozygotes < 0 {
		return fmt.Errorf("min homozygotes must be >= 0, got %d", c.MinHomozygotes)
	}
	if c.MinAltIndividuals < 0 {
		return fmt.Errorf("min alt individuals must be >= 0, got %d", c.MinAltIndividuals)
	}
	if c.Workers < 0 {
		return fmt.Errorf("workers must be >= 0, got %d", c.Workers)
	}
	if _, err := genotype.ParseTieBreak(string(c.TieBreak)); err != nil {
		return err
	}
	if _, err := ParseMultiAllelicPolicy(string(c.MultiAllelic)); err != nil {
		return err
	}
	return nil
}
