package main

import (
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"cloud.google.com/go/storage"
	"github.com/carbocation/pavs"
	"github.com/carbocation/pavs/absent"
	"github.com/carbocation/pavs/clade"
	"github.com/carbocation/pavs/exprtable"
	"github.com/carbocation/pavs/matcher"
	"github.com/carbocation/pavs/report"
	"github.com/carbocation/pfx"
)

type config struct {
	Counts   string
	MetaData string
	Suffix   string
	OutDir   string
	BaseDir  string
	Summary  string

	Prefix         string
	StripSuffix    string
	Policy         matcher.Policy
	KeepDuplicates bool
	KeepExtension  bool
	Delimiter      rune

	Client *storage.Client
}

func (c *config) resolvePaths() {
	c.Counts = pavs.ResolvePath(c.BaseDir, c.Counts)
	c.MetaData = pavs.ResolvePath(c.BaseDir, c.MetaData)
	c.OutDir = pavs.ResolvePath(c.BaseDir, c.OutDir)
	c.Summary = pavs.ResolvePath(c.BaseDir, c.Summary)
}

func (c config) needsGoogleStorage() bool {
	return pavs.IsGoogleStoragePath(c.Counts) || pavs.IsGoogleStoragePath(c.MetaData)
}

// outputPath is where the transcript list for group is written.
func (c config) outputPath(group string) string {
	return filepath.Join(c.OutDir, group+c.Suffix)
}

func run(cfg config) error {
	membership, err := clade.Load(cfg.MetaData, cfg.Client, clade.Options{KeepExtension: cfg.KeepExtension})
	if err != nil {
		return err
	}
	log.Printf("Found %d clades in %s: %v\n", len(membership), cfg.MetaData, membership.Names())

	if err := checkOutputPaths(cfg, membership); err != nil {
		return err
	}

	table, err := exprtable.Load(cfg.Counts, cfg.Client, exprtable.Options{
		Prefix:    cfg.Prefix,
		Delimiter: cfg.Delimiter,
	})
	if err != nil {
		return err
	}
	log.Printf("Loaded %d transcripts across %d samples from %s\n", table.NRows(), table.NCols(), cfg.Counts)

	m := matcher.New(cfg.Policy, matcher.Options{
		StripSuffix:    cfg.StripSuffix,
		KeepDuplicates: cfg.KeepDuplicates,
	})
	log.Printf("Matching clade samples to columns with the %s policy\n", m.Policy)

	summaries := make([]report.CladeSummary, 0, len(membership)+1)
	for _, c := range membership {
		summary, err := processClade(cfg, table, m, c)
		if err != nil {
			return err
		}
		summaries = append(summaries, summary)
	}

	log.Println("Searching across all clades")
	summary, err := processGroup(cfg, table, report.AllCladesName, table.NCols(), absent.AllColumns(table))
	if err != nil {
		return err
	}
	summaries = append(summaries, summary)

	if cfg.Summary != "" {
		if err := report.WriteSummary(cfg.Summary, summaries); err != nil {
			return err
		}
		log.Println("Wrote summary to", cfg.Summary)
	}

	return nil
}

func processClade(cfg config, table *exprtable.Table, m *matcher.Matcher, c clade.Clade) (report.CladeSummary, error) {
	log.Printf("Searching within clade: %s\n", c.Name)

	cols := m.Match(c.Samples, table.Columns)
	log.Printf("Within clade %s found matches: %v\n", c.Name, matcher.Names(cols, table.Columns))

	if m.Policy == matcher.Exact {
		unmatched := 0
		for _, sample := range m.CleanSamples(c.Samples) {
			if sample != "" && table.ColumnIndex(sample) < 0 {
				unmatched++
			}
		}
		if unmatched > 0 {
			log.Printf("%d of %d samples listed for clade %s have no column in the counts table\n", unmatched, len(c.Samples), c.Name)
		}
	}

	return processGroup(cfg, table, c.Name, len(c.Samples), cols)
}

// processGroup finds and writes the absent transcripts for one group of
// columns. A group without columns is written as an empty file.
func processGroup(cfg config, table *exprtable.Table, group string, listed int, cols []int) (report.CladeSummary, error) {
	out := cfg.outputPath(group)
	summary := report.CladeSummary{
		Clade:          group,
		ListedSamples:  listed,
		MatchedColumns: len(cols),
		Transcripts:    table.NRows(),
		Output:         out,
	}

	means, err := absent.Means(table, cols)
	if errors.Is(err, absent.ErrNoColumns) {
		log.Printf("Warning: %s matched no columns in the counts table; writing an empty result\n", group)
		summary.MedianMean = report.MedianMean(nil)
		return summary, report.WriteIDs(out, nil)
	} else if err != nil {
		return summary, pfx.Err(fmt.Errorf("%s: %w", group, err))
	}

	absentIDs := absent.Select(table, means, absent.IsZero)
	for _, id := range absentIDs {
		if !table.HasRow(id) {
			return summary, fmt.Errorf("%s: transcript %s is not in the counts table", group, id)
		}
	}
	log.Printf("Found %d interesting transcripts within %s\n", len(absentIDs), group)

	summary.Absent = len(absentIDs)
	summary.MedianMean = report.MedianMean(means)

	if err := report.WriteIDs(out, absentIDs); err != nil {
		return summary, err
	}
	log.Println("Wrote output to", out)

	return summary, nil
}

// checkOutputPaths refuses to run when an output would land on another
// output, on an input, or inside the metadata directory, where a later run
// would read it back as a clade.
func checkOutputPaths(cfg config, membership clade.Membership) error {
	if !pavs.IsGoogleStoragePath(cfg.MetaData) && samePath(cfg.OutDir, cfg.MetaData) {
		return fmt.Errorf("--outdir %s is the metadata directory; output files would be read as clades on the next run", cfg.OutDir)
	}

	inputs := map[string]string{cleanPath(cfg.Counts): "the counts file"}
	for _, c := range membership {
		inputs[cleanPath(c.Path)] = fmt.Sprintf("the membership file of clade %q", c.Name)
	}

	outputs := map[string]string{}
	claim := func(group, out string) error {
		out = cleanPath(out)
		if what, exists := inputs[out]; exists {
			return fmt.Errorf("%s would overwrite %s (%s); choose a different --out or --outdir", group, what, out)
		}
		if other, exists := outputs[out]; exists {
			return fmt.Errorf("%s and %s would both be written to %s", other, group, out)
		}
		outputs[out] = group
		return nil
	}

	for _, c := range membership {
		if err := claim(fmt.Sprintf("clade %q", c.Name), cfg.outputPath(c.Name)); err != nil {
			return err
		}
	}
	if err := claim(report.AllCladesName, cfg.outputPath(report.AllCladesName)); err != nil {
		return err
	}
	if cfg.Summary != "" {
		if err := claim("the summary", cfg.Summary); err != nil {
			return err
		}
	}

	return nil
}

func cleanPath(p string) string {
	if pavs.IsGoogleStoragePath(p) {
		return p
	}
	if abs, err := filepath.Abs(p); err == nil {
		return abs
	}

	return filepath.Clean(p)
}

func samePath(a, b string) bool {
	if cleanPath(a) == cleanPath(b) {
		return true
	}

	ai, err := os.Stat(a)
	if err != nil {
		return false
	}
	bi, err := os.Stat(b)
	if err != nil {
		return false
	}

	return os.SameFile(ai, bi)
}
