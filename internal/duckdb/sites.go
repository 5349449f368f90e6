package duckdb

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"fmt"
	"time"

	goduckdb "github.com/marcboeker/go-duckdb"

	"github.com/inodb/parsimony-snps/internal/sitefilter"
	"github.com/inodb/parsimony-snps/internal/table"
)

// RunSummary holds per-run decision counts read back from the report.
type RunSummary struct {
	Sites   int64
	Kept    int64
	Dropped int64
}

// SiteDecision is one row of the site_decisions table.
type SiteDecision struct {
	Line           int64
	Chrom          string
	Pos            string
	ID             string
	MinorAllele    string
	HomMinor       int64
	AltIndividuals int64
	Keep           bool
	Reason         string
}

// NewRun registers a filter run and returns its id.
func (s *Store) NewRun(input FileFingerprint, cfg sitefilter.Config) (int64, error) {
	var modTime any
	if !input.ModTime.IsZero() {
		modTime = input.ModTime
	}

	var runID int64
	err := s.db.QueryRow(`INSERT INTO runs (
		input_path, input_size, input_mod_time,
		meta_columns, min_homozygotes, min_alt_individuals,
		tie_break, multiallelic, started_at
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?) RETURNING run_id`,
		input.Path, input.Size, modTime,
		int64(cfg.MetaColumns), int64(cfg.MinHomozygotes), int64(cfg.MinAltIndividuals),
		string(cfg.TieBreak), string(cfg.MultiAllelic), time.Now(),
	).Scan(&runID)
	if err != nil {
		return 0, fmt.Errorf("insert run: %w", err)
	}
	return runID, nil
}

// Recorder appends site decisions of one run through the DuckDB Appender API.
// It implements sitefilter.SiteSink.
type Recorder struct {
	conn     *sql.Conn
	appender *goduckdb.Appender
	runID    int64
	count    int
}

// NewRecorder opens an appender on site_decisions for runID.
// Close must be called to flush the appended rows.
func (s *Store) NewRecorder(runID int64) (*Recorder, error) {
	conn, err := s.db.Conn(context.Background())
	if err != nil {
		return nil, fmt.Errorf("get connection: %w", err)
	}

	var appender *goduckdb.Appender
	if err := conn.Raw(func(driverConn any) error {
		var err error
		appender, err = goduckdb.NewAppenderFromConn(driverConn.(driver.Conn), "", "site_decisions")
		return err
	}); err != nil {
		conn.Close()
		return nil, fmt.Errorf("create appender: %w", err)
	}

	return &Recorder{conn: conn, appender: appender, runID: runID}, nil
}

// Record appends one classified site.
func (r *Recorder) Record(row *table.Row, site sitefilter.Site) error {
	c := site.Counts
	if err := r.appender.AppendRow(
		r.runID, int64(row.Line),
		field(row.Fields, 0), field(row.Fields, 1), field(row.Fields, 2),
		int64(c.Zero), int64(c.One), int64(c.Other), int64(c.Missing),
		site.Minor, int64(site.HomMinor), int64(site.AltIndividuals),
		site.Tie, site.MultiAllelic, site.Keep, site.Reason,
	); err != nil {
		return fmt.Errorf("append site decision: %w", err)
	}
	r.count++
	return nil
}

// Count returns the number of recorded sites.
func (r *Recorder) Count() int {
	return r.count
}

// Close flushes pending rows and releases the connection.
func (r *Recorder) Close() error {
	err := r.appender.Close()
	if cerr := r.conn.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return fmt.Errorf("close recorder: %w", err)
	}
	return nil
}

// field returns fields[i], or "" for rows with fewer metadata columns.
func field(fields []string, i int) string {
	if i < len(fields) {
		return fields[i]
	}
	return ""
}

// Summary returns decision counts for a run.
func (s *Store) Summary(runID int64) (RunSummary, error) {
	var sum RunSummary
	err := s.db.QueryRow(`SELECT
		count(*),
		count(CASE WHEN keep THEN 1 END),
		count(CASE WHEN NOT keep THEN 1 END)
		FROM site_decisions WHERE run_id=?`, runID).Scan(&sum.Sites, &sum.Kept, &sum.Dropped)
	if err != nil {
		return RunSummary{}, fmt.Errorf("query run summary: %w", err)
	}
	return sum, nil
}

// DroppedByReason returns the number of dropped sites per reason for a run.
func (s *Store) DroppedByReason(runID int64) (map[string]int64, error) {
	rows, err := s.db.Query(`SELECT reason, count(*)
		FROM site_decisions
		WHERE run_id=? AND NOT keep
		GROUP BY reason`, runID)
	if err != nil {
		return nil, fmt.Errorf("query dropped sites: %w", err)
	}
	defer rows.Close()

	out := make(map[string]int64)
	for rows.Next() {
		var reason string
		var n int64
		if err := rows.Scan(&reason, &n); err != nil {
			return nil, fmt.Errorf("scan dropped sites: %w", err)
		}
		out[reason] = n
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate dropped sites: %w", err)
	}
	return out, nil
}

// Decisions returns all site decisions of a run in input order.
func (s *Store) Decisions(runID int64) ([]SiteDecision, error) {
	rows, err := s.db.Query(`SELECT
		line, chrom, pos, id, minor_allele, hom_minor, alt_individuals, keep, reason
		FROM site_decisions
		WHERE run_id=?
		ORDER BY line`, runID)
	if err != nil {
		return nil, fmt.Errorf("query site decisions: %w", err)
	}
	defer rows.Close()

	var out []SiteDecision
	for rows.Next() {
		var d SiteDecision
		if err := rows.Scan(
			&d.Line, &d.Chrom, &d.Pos, &d.ID, &d.MinorAllele,
			&d.HomMinor, &d.AltIndividuals, &d.Keep, &d.Reason,
		); err != nil {
			return nil, fmt.Errorf("scan site decision: %w", err)
		}
		out = append(out, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate site decisions: %w", err)
	}
	return out, nil
}

var _ sitefilter.SiteSink = (*Recorder)(nil)
