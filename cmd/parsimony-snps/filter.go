package main

import (
	"fmt"
	"time"

	"github.com/spf13/cast"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/inodb/parsimony-snps/internal/duckdb"
	"github.com/inodb/parsimony-snps/internal/genotype"
	"github.com/inodb/parsimony-snps/internal/sitefilter"
	"github.com/inodb/parsimony-snps/internal/table"
)

// DefaultOutput is the output file written when --output is not given.
const DefaultOutput = "parsimony_SNPs.csv"

// Config keys shared by flags, the config file and PARSIMONY_SNPS_* env vars.
const (
	keyOutput            = "filter.output"
	keyMinHomozygotes    = "filter.min_homozygotes"
	keyMetaColumns       = "filter.meta_columns"
	keyTieBreak          = "filter.tie_break"
	keyMultiAllelic      = "filter.multiallelic"
	keyMinAltIndividuals = "filter.min_alt_individuals"
	keyWorkers           = "filter.workers"
	keyReport            = "filter.report"
	keyInputEncoding     = "encoding.input"
	keyOutputEncoding    = "encoding.output"
)

// filterOptions holds the resolved settings of one filter run.
type filterOptions struct {
	input          string
	output         string
	report         string
	inputEncoding  string
	outputEncoding string
	config         sitefilter.Config
}

func newFilterCmd(logger func() (*zap.Logger, error)) *cobra.Command {
	var vcfFile string

	cmd := &cobra.Command{
		Use:   "filter [options] <table>",
		Short: "Keep sites with enough minor-allele homozygotes",
		Long: `Filter a tab-separated variant table, keeping only sites where the minor
allele (the rarer of allele codes 0 and 1) is homozygous in at least
--min-homozygotes individuals. Retained rows are written unchanged and in
input order. The output file only appears once the whole table was processed.

Arguments:
  <table>  Input table, optionally gzipped (use '-' for stdin)`,
		Example: `  parsimony-snps filter snps.txt
  parsimony-snps filter --vcf_file snps.txt
  parsimony-snps filter -o informative.tsv --tie-break skip snps.vcf.gz
  parsimony-snps filter --report decisions.duckdb snps.txt`,
		Args: func(cmd *cobra.Command, args []string) error {
			if err := cobra.MaximumNArgs(1)(cmd, args); err != nil {
				return usageError{err}
			}
			if (len(args) == 1) == (vcfFile != "") {
				return usageError{fmt.Errorf("exactly one input table is required (argument or --vcf_file)")}
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			input := vcfFile
			if len(args) == 1 {
				input = args[0]
			}

			opts, err := resolveFilterOptions(input)
			if err != nil {
				return usageError{err}
			}

			log, err := logger()
			if err != nil {
				return fmt.Errorf("create logger: %w", err)
			}
			defer log.Sync()

			return runFilter(opts, log)
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&vcfFile, "vcf_file", "", "Input table (alternative to the positional argument)")
	flags.StringP("output", "o", DefaultOutput, "Output file (use '-' for stdout)")
	flags.Int("min-homozygotes", sitefilter.DefaultMinHomozygotes, "Minimum number of minor-allele homozygotes to keep a site")
	flags.Int("meta-columns", table.DefaultMetaColumns, "Number of metadata columns before the first sample")
	flags.String("tie-break", string(genotype.TieZero), "Minor allele when 0 and 1 are equally frequent: zero, one, skip")
	flags.String("multiallelic", string(sitefilter.MultiAllelicFlag), "Sites with allele codes 2-4: fit, flag, drop")
	flags.Int("min-alt-individuals", 0, "Also require this many individuals without a reference allele (0 disables)")
	flags.Int("workers", 0, "Number of classification workers (0 = number of CPUs)")
	flags.String("report", "", "Record every site decision in this DuckDB file")
	flags.String("input-encoding", string(table.Latin1), "Input text encoding: latin1, utf-8")
	flags.String("output-encoding", string(table.UTF8), "Output text encoding: latin1, utf-8")

	for key, name := range map[string]string{
		keyOutput:            "output",
		keyMinHomozygotes:    "min-homozygotes",
		keyMetaColumns:       "meta-columns",
		keyTieBreak:          "tie-break",
		keyMultiAllelic:      "multiallelic",
		keyMinAltIndividuals: "min-alt-individuals",
		keyWorkers:           "workers",
		keyReport:            "report",
		keyInputEncoding:     "input-encoding",
		keyOutputEncoding:    "output-encoding",
	} {
		if err := viper.BindPFlag(key, flags.Lookup(name)); err != nil {
			panic(err)
		}
	}

	return cmd
}

// resolveFilterOptions merges flags, config file and environment into filterOptions.
func resolveFilterOptions(input string) (filterOptions, error) {
	tie, err := genotype.ParseTieBreak(viper.GetString(keyTieBreak))
	if err != nil {
		return filterOptions{}, err
	}
	multi, err := sitefilter.ParseMultiAllelicPolicy(viper.GetString(keyMultiAllelic))
	if err != nil {
		return filterOptions{}, err
	}

	cfg := sitefilter.Config{
		TieBreak:     tie,
		MultiAllelic: multi,
	}
	for key, dst := range map[string]*int{
		keyMetaColumns:       &cfg.MetaColumns,
		keyMinHomozygotes:    &cfg.MinHomozygotes,
		keyMinAltIndividuals: &cfg.MinAltIndividuals,
		keyWorkers:           &cfg.Workers,
	} {
		if *dst, err = intSetting(key); err != nil {
			return filterOptions{}, err
		}
	}
	if err := cfg.Validate(); err != nil {
		return filterOptions{}, err
	}

	return filterOptions{
		input:          input,
		output:         viper.GetString(keyOutput),
		report:         viper.GetString(keyReport),
		inputEncoding:  viper.GetString(keyInputEncoding),
		outputEncoding: viper.GetString(keyOutputEncoding),
		config:         cfg,
	}, nil
}

// intSetting reads an integer setting. Unlike viper.GetInt it rejects
// values that do not parse instead of turning them into 0.
func intSetting(key string) (int, error) {
	n, err := cast.ToIntE(viper.Get(key))
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return n, nil
}

// runFilter reads opts.input, writes retained sites to opts.output and
// optionally records every decision in a DuckDB report.
// On any error nothing is left at the output path.
func runFilter(opts filterOptions, log *zap.Logger) error {
	inEnc, err := table.ParseEncoding(opts.inputEncoding)
	if err != nil {
		return usageError{err}
	}
	outEnc, err := table.ParseEncoding(opts.outputEncoding)
	if err != nil {
		return usageError{err}
	}

	f, err := sitefilter.New(opts.config)
	if err != nil {
		return usageError{err}
	}
	f.SetLogger(log)

	start := time.Now()

	r, err := table.Open(opts.input, table.Options{MetaColumns: opts.config.MetaColumns, Encoding: inEnc})
	if err != nil {
		return err
	}
	defer r.Close()

	log.Info("reading table",
		zap.String("input", opts.input),
		zap.Int("samples", len(r.SampleNames())),
		zap.Int("min_homozygotes", opts.config.MinHomozygotes))

	var rec *duckdb.Recorder
	if opts.report != "" {
		store, err := duckdb.Open(opts.report)
		if err != nil {
			return err
		}
		defer store.Close()

		fp, err := duckdb.StatFile(opts.input)
		if err != nil {
			return fmt.Errorf("stat input: %w", err)
		}
		runID, err := store.NewRun(fp, opts.config)
		if err != nil {
			return err
		}
		rec, err = store.NewRecorder(runID)
		if err != nil {
			return err
		}
		f.SetSink(rec)
		log.Debug("recording site decisions", zap.String("report", opts.report), zap.Int64("run_id", runID))
	}

	w, err := table.Create(opts.output, outEnc)
	if err != nil {
		if rec != nil {
			rec.Close()
		}
		return err
	}

	sum, err := f.FilterTable(r, w)
	if rec != nil {
		if cerr := rec.Close(); err == nil {
			err = cerr
		}
	}
	if err != nil {
		w.Abort()
		return err
	}
	if err := w.Commit(); err != nil {
		return err
	}

	log.Info("filter complete",
		zap.Int("sites", sum.Sites),
		zap.Int("kept", sum.Kept),
		zap.Int("dropped", sum.Dropped),
		zap.Int("ties", sum.Ties),
		zap.Int("multiallelic", sum.MultiAllelic),
		zap.String("output", opts.output),
		zap.Duration("elapsed", time.Since(start)))

	return nil
}
