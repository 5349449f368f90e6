package sitefilter

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inodb/parsimony-snps/internal/genotype"
)

// row builds a full row with nine metadata columns.
func row(samples ...string) []string {
	return append([]string{"1", "100", ".", "A", "G", "50", "PASS", ".", "GT:DP"}, samples...)
}

func TestClassify_KeptSite(t *testing.T) {
	site := Classify(row("0/0:3", "0/0:5", "0/0:6", "1/1:4", "1/1:7"), DefaultConfig())

	assert.Equal(t, genotype.Counts{Zero: 6, One: 4}, site.Counts)
	assert.Equal(t, "1", site.Minor)
	assert.Equal(t, 2, site.HomMinor)
	assert.False(t, site.Tie)
	assert.True(t, site.Keep)
	assert.Empty(t, site.Reason)
}

func TestClassify_BalancedSiteKeptOnRef(t *testing.T) {
	site := Classify(row("0/0:3", "0/0:5", "1/1:4", "1/1:7", "0/1:2"), DefaultConfig())

	assert.Equal(t, genotype.Counts{Zero: 5, One: 5}, site.Counts)
	assert.True(t, site.Tie)
	assert.Equal(t, "0", site.Minor)
	assert.Equal(t, 2, site.HomMinor)
	assert.True(t, site.Keep)
}

func TestClassify_DroppedSite(t *testing.T) {
	site := Classify(row("0/0", "0/0", "0/0", "1/1", "0/1"), DefaultConfig())

	assert.Equal(t, genotype.Counts{Zero: 7, One: 3}, site.Counts)
	assert.Equal(t, "1", site.Minor)
	assert.Equal(t, 1, site.HomMinor)
	assert.False(t, site.Keep)
	assert.Equal(t, ReasonFewHomozygotes, site.Reason)
}

func TestClassify_TieBreak(t *testing.T) {
	fields := row("0/0", "0|0", "1/1", "1/1", "0/1")

	tests := []struct {
		name      string
		tie       genotype.TieBreak
		wantMinor string
		wantKeep  bool
		reason    string
	}{
		{"zero", genotype.TieZero, "0", true, ""},
		{"one", genotype.TieOne, "1", true, ""},
		{"skip", genotype.TieSkip, "", false, ReasonTie},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			cfg.TieBreak = tt.tie

			site := Classify(fields, cfg)
			assert.True(t, site.Tie)
			assert.Equal(t, tt.wantMinor, site.Minor)
			assert.Equal(t, tt.wantKeep, site.Keep)
			assert.Equal(t, tt.reason, site.Reason)
		})
	}
}

func TestClassify_MultiAllelicPolicy(t *testing.T) {
	fields := row("1/1", "1|1", "0/0", "0/0", "0/2")

	for _, policy := range []MultiAllelicPolicy{MultiAllelicFit, MultiAllelicFlag} {
		cfg := DefaultConfig()
		cfg.MultiAllelic = policy
		site := Classify(fields, cfg)
		assert.True(t, site.MultiAllelic, policy)
		assert.True(t, site.Keep, policy)
	}

	cfg := DefaultConfig()
	cfg.MultiAllelic = MultiAllelicDrop
	site := Classify(fields, cfg)
	assert.True(t, site.MultiAllelic)
	assert.False(t, site.Keep)
	assert.Equal(t, ReasonMultiAllelic, site.Reason)
}

func TestClassify_AltIndividualsIsInformational(t *testing.T) {
	fields := row("0/0", "0/0", "1/1", "1/1", "0/1")

	site := Classify(fields, DefaultConfig())
	assert.Equal(t, 2, site.AltIndividuals)
	assert.True(t, site.Keep)

	cfg := DefaultConfig()
	cfg.MinAltIndividuals = 3
	site = Classify(fields, cfg)
	assert.False(t, site.Keep)
	assert.Equal(t, ReasonFewAltIndividuals, site.Reason)
}

func TestClassify_Threshold(t *testing.T) {
	fields := row("0/0", "0/0", "0/0", "1/1", "0/1")

	cfg := DefaultConfig()
	cfg.MinHomozygotes = 1
	assert.True(t, Classify(fields, cfg).Keep)

	cfg.MinHomozygotes = 0
	assert.True(t, Classify(row("0/0", "0/1"), cfg).Keep)
}

func TestClassify_MetaColumns(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MetaColumns = 2

	site := Classify([]string{"1", "100", "1/1", "1|1", "0/0", "0/0", "0/0"}, cfg)
	assert.Equal(t, 2, site.HomMinor)
	assert.True(t, site.Keep)
}

func TestClassify_ShortRow(t *testing.T) {
	site := Classify([]string{"1", "100"}, DefaultConfig())
	assert.Equal(t, genotype.Counts{}, site.Counts)
	assert.False(t, site.Keep)
}

func TestConfig_Validate(t *testing.T) {
	require.NoError(t, DefaultConfig().Validate())

	bad := []func(*Config){
		func(c *Config) { c.MetaColumns = -1 },
		func(c *Config) { c.MinHomozygotes = -1 },
		func(c *Config) { c.MinAltIndividuals = -2 },
		func(c *Config) { c.Workers = -1 },
		func(c *Config) { c.TieBreak = "coin" },
		func(c *Config) { c.MultiAllelic = "ignore" },
	}
	for i, mutate := range bad {
		cfg := DefaultConfig()
		mutate(&cfg)
		assert.Error(t, cfg.Validate(), "case %d", i)
	}
}

func TestParseMultiAllelicPolicy(t *testing.T) {
	p, err := ParseMultiAllelicPolicy("")
	require.NoError(t, err)
	assert.Equal(t, MultiAllelicFlag, p)

	p, err = ParseMultiAllelicPolicy("drop")
	require.NoError(t, err)
	assert.Equal(t, MultiAllelicDrop, p)

	_, err = ParseMultiAllelicPolicy("resolve")
	assert.Error(t, err)
}
