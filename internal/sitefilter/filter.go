package sitefilter

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/inodb/parsimony-snps/internal/table"
)

// RowSource supplies site rows in input order.
// Next returns nil, nil when there are no more rows.
type RowSource interface {
	Next() (*table.Row, error)
}

// RowWriter receives retained rows.
type RowWriter interface {
	WriteRow(fields []string) error
}

// SiteSink receives every classified site, kept or not, in input order.
type SiteSink interface {
	Record(row *table.Row, site Site) error
}

// Summary counts the outcome of a run.
type Summary struct {
	Sites        int
	Kept         int
	Dropped      int
	Ties         int
	MultiAllelic int
	Reasons      map[string]int // dropped sites per reason
}

// Filter streams rows through site classification.
type Filter struct {
	cfg    Config
	logger *zap.Logger
	sink   SiteSink
}

// New creates a filter for cfg.
func New(cfg Config) (*Filter, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid filter config: %w", err)
	}
	return &Filter{
		cfg:    cfg,
		logger: zap.NewNop(),
	}, nil
}

// SetLogger sets the logger for warning and info messages.
func (f *Filter) SetLogger(l *zap.Logger) {
	f.logger = l
}

// SetSink registers a sink that sees every classified site.
func (f *Filter) SetSink(s SiteSink) {
	f.sink = s
}

// Config returns the filter configuration.
func (f *Filter) Config() Config {
	return f.cfg
}

// FilterTable copies the meta lines and header of r to w, then the retained rows.
// The caller commits or aborts w.
func (f *Filter) FilterTable(r *table.Reader, w *table.Writer) (Summary, error) {
	if r.MetaColumns() != f.cfg.MetaColumns {
		return Summary{}, fmt.Errorf("reader uses %d metadata columns, filter expects %d", r.MetaColumns(), f.cfg.MetaColumns)
	}
	if err := w.WriteMeta(r.Meta()); err != nil {
		return Summary{}, fmt.Errorf("write meta lines: %w", err)
	}
	if err := w.WriteHeader(r.Header()); err != nil {
		return Summary{}, fmt.Errorf("write header: %w", err)
	}
	f.logger.Debug("read header",
		zap.Int("columns", len(r.Header())),
		zap.Int("samples", len(r.SampleNames())))
	return f.Run(r, w)
}

// Run classifies every row of src and writes retained rows to dst in input order.
// Any read, write or sink error stops the run and is returned.
func (f *Filter) Run(src RowSource, dst RowWriter) (Summary, error) {
	items := make(chan WorkItem, 2*max(f.cfg.Workers, 1))
	done := make(chan struct{})
	var readErr error

	go func() {
		defer close(items)
		for seq := 0; ; seq++ {
			row, err := src.Next()
			if err != nil {
				readErr = fmt.Errorf("read row: %w", err)
				return
			}
			if row == nil {
				return
			}
			select {
			case items <- WorkItem{Seq: seq, Row: row}:
			case <-done:
				return
			}
		}
	}()

	results := ParallelClassify(items, f.cfg, f.cfg.Workers)

	sum := Summary{Reasons: make(map[string]int)}
	err := OrderedCollect(results, func(r WorkResult) error {
		if err := f.collect(&sum, r, dst); err != nil {
			close(done)
			return err
		}
		return nil
	})
	if err != nil {
		return sum, err
	}
	if readErr != nil {
		return sum, readErr
	}

	if sum.Sites == 0 {
		f.logger.Info("0 sites processed")
	}
	return sum, nil
}

func (f *Filter) collect(sum *Summary, r WorkResult, dst RowWriter) error {
	site := r.Site
	sum.Sites++
	if site.Tie {
		sum.Ties++
	}
	if site.MultiAllelic {
		sum.MultiAllelic++
		if f.cfg.MultiAllelic == MultiAllelicFlag || f.cfg.MultiAllelic == "" {
			f.logger.Warn("multi-allelic site classified on alleles 0 and 1",
				zap.Int("line", r.Row.Line),
				zap.Int("other_alleles", site.Counts.Other))
		}
	}

	if f.sink != nil {
		if err := f.sink.Record(r.Row, site); err != nil {
			return fmt.Errorf("record site at line %d: %w", r.Row.Line, err)
		}
	}

	if !site.Keep {
		sum.Dropped++
		sum.Reasons[site.Reason]++
		return nil
	}

	sum.Kept++
	if err := dst.WriteRow(r.Row.Fields); err != nil {
		return fmt.Errorf("write row: %w", err)
	}
	return nil
}
