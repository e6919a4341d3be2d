package main

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/carbocation/pavs/clade"
	"github.com/carbocation/pavs/exprtable"
	"github.com/carbocation/pavs/matcher"
	"github.com/carbocation/pavs/report"
)

const counts = `transcript,FPKM.A,FPKM.B,FPKM.C,FPKM.S1,FPKM.S10
T1,1,0,0,0,0
T2,0,0,5,0,3
T3,0,2,0,0,0
T4,0,0,0,0,0
`

type fixture struct {
	base string
	cfg  config
}

func newFixture(t *testing.T, clades map[string]string) fixture {
	t.Helper()

	base := t.TempDir()
	if err := os.WriteFile(filepath.Join(base, "counts.csv"), []byte(counts), 0644); err != nil {
		t.Fatal(err)
	}
	if err := os.Mkdir(filepath.Join(base, "meta"), 0755); err != nil {
		t.Fatal(err)
	}
	for name, content := range clades {
		if err := os.WriteFile(filepath.Join(base, "meta", name), []byte(content), 0644); err != nil {
			t.Fatal(err)
		}
	}
	if err := os.Mkdir(filepath.Join(base, "out"), 0755); err != nil {
		t.Fatal(err)
	}

	cfg := config{
		Counts:      "counts.csv",
		MetaData:    "meta",
		Suffix:      "_absent.txt",
		OutDir:      "out",
		BaseDir:     base,
		Prefix:      exprtable.DefaultPrefix,
		StripSuffix: matcher.DefaultStripSuffix,
		Policy:      matcher.Exact,
		Delimiter:   ',',
	}
	cfg.resolvePaths()

	return fixture{base: base, cfg: cfg}
}

func (f fixture) read(t *testing.T, group string) string {
	t.Helper()
	b, err := os.ReadFile(filepath.Join(f.base, "out", group+"_absent.txt"))
	if err != nil {
		t.Fatal(err)
	}
	return string(b)
}

func TestRunScenario(t *testing.T) {
	f := newFixture(t, map[string]string{"cladeAB.txt": "A\nB\n"})

	if err := run(f.cfg); err != nil {
		t.Fatal(err)
	}

	if got, want := f.read(t, "cladeAB"), "T2\nT4\n"; got != want {
		t.Errorf("cladeAB: expected %q, got %q", want, got)
	}
	if got, want := f.read(t, report.AllCladesName), "T4\n"; got != want {
		t.Errorf("all_clades: expected %q, got %q", want, got)
	}
}

func TestRunIsIdempotent(t *testing.T) {
	f := newFixture(t, map[string]string{
		"c1.txt": "A\nS1.filter-RNA\n",
		"c2.txt": "C\n",
	})

	read := func() map[string]string {
		out := map[string]string{}
		for _, g := range []string{"c1", "c2", report.AllCladesName} {
			out[g] = f.read(t, g)
		}
		return out
	}

	if err := run(f.cfg); err != nil {
		t.Fatal(err)
	}
	first := read()

	if err := run(f.cfg); err != nil {
		t.Fatal(err)
	}
	second := read()

	for g := range first {
		if first[g] != second[g] {
			t.Errorf("%s differs between runs: %q vs %q", g, first[g], second[g])
		}
	}
	if first["c1"] != "T2\nT3\nT4\n" {
		t.Errorf("c1: unexpected %q", first["c1"])
	}
}

func TestRunMatchPolicy(t *testing.T) {
	clades := map[string]string{"s1.txt": "S1\n"}

	exact := newFixture(t, clades)
	if err := run(exact.cfg); err != nil {
		t.Fatal(err)
	}
	// Only S1: every transcript is zero there
	if got, want := exact.read(t, "s1"), "T1\nT2\nT3\nT4\n"; got != want {
		t.Errorf("exact: expected %q, got %q", want, got)
	}

	substring := newFixture(t, clades)
	substring.cfg.Policy = matcher.Substring
	if err := run(substring.cfg); err != nil {
		t.Fatal(err)
	}
	// S1 and S10: T2 is expressed in S10
	if got, want := substring.read(t, "s1"), "T1\nT3\nT4\n"; got != want {
		t.Errorf("substring: expected %q, got %q", want, got)
	}
}

func TestRunEmptyMatch(t *testing.T) {
	f := newFixture(t, map[string]string{"ghost.txt": "Z9\nZ10\n"})
	f.cfg.Summary = filepath.Join(f.base, "summary.tsv")

	if err := run(f.cfg); err != nil {
		t.Fatal(err)
	}
	if got := f.read(t, "ghost"); got != "" {
		t.Errorf("Expected an empty file, got %q", got)
	}

	summaries, err := report.ReadSummary(f.cfg.Summary)
	if err != nil {
		t.Fatal(err)
	}
	if len(summaries) != 2 {
		t.Fatalf("Expected 2 summary rows, got %d", len(summaries))
	}
	if s := summaries[0]; s.Clade != "ghost" || s.ListedSamples != 2 || s.MatchedColumns != 0 || s.Absent != 0 {
		t.Errorf("Unexpected summary %+v", s)
	}
	if s := summaries[1]; s.Clade != report.AllCladesName || s.MatchedColumns != 5 || s.Absent != 1 {
		t.Errorf("Unexpected summary %+v", s)
	}
}

func TestRunAllCladesMatchesAllColumns(t *testing.T) {
	f := newFixture(t, map[string]string{"a.txt": "A\n", "b.txt": "B\n"})
	if err := run(f.cfg); err != nil {
		t.Fatal(err)
	}

	tab, err := exprtable.Load(f.cfg.Counts, nil, exprtable.Options{Prefix: exprtable.DefaultPrefix, Delimiter: ','})
	if err != nil {
		t.Fatal(err)
	}

	want := []string{}
	for i, id := range tab.RowIDs {
		zero := true
		for _, v := range tab.Row(nil, i) {
			if v != 0 {
				zero = false
			}
		}
		if zero {
			want = append(want, id)
		}
	}

	got := strings.Fields(f.read(t, report.AllCladesName))
	if strings.Join(got, ",") != strings.Join(want, ",") {
		t.Errorf("Expected %v, got %v", want, got)
	}
}

func TestRunMissingMetadata(t *testing.T) {
	f := newFixture(t, nil)
	f.cfg.MetaData = filepath.Join(f.base, "does-not-exist")

	err := run(f.cfg)
	var dirErr *clade.DirectoryError
	if !errors.As(err, &dirErr) {
		t.Fatalf("Expected a *clade.DirectoryError, got %v", err)
	}

	if _, statErr := os.Stat(filepath.Join(f.base, "out", report.AllCladesName+"_absent.txt")); statErr == nil {
		t.Error("No output should be written when the metadata directory is unreadable")
	}
}

func TestRunMalformedCounts(t *testing.T) {
	f := newFixture(t, map[string]string{"a.txt": "A\n"})
	if err := os.WriteFile(f.cfg.Counts, []byte("id,A\nT1,x\n"), 0644); err != nil {
		t.Fatal(err)
	}

	var malformed *exprtable.MalformedTableError
	if err := run(f.cfg); !errors.As(err, &malformed) {
		t.Fatalf("Expected a *exprtable.MalformedTableError, got %v", err)
	}
}

func TestRunRejectsCollidingOutputs(t *testing.T) {
	f := newFixture(t, map[string]string{"all_clades.txt": "A\n"})

	if err := run(f.cfg); err == nil {
		t.Error("Expected an error when a clade is named all_clades")
	}
}

func TestRunRefusesToOverwriteMembership(t *testing.T) {
	f := newFixture(t, map[string]string{"a.txt": "A\n"})
	f.cfg.KeepExtension = true
	f.cfg.Suffix = ""
	f.cfg.OutDir = f.cfg.MetaData

	if err := run(f.cfg); err == nil {
		t.Error("Expected an error when an output would replace a membership file")
	}
	b, err := os.ReadFile(filepath.Join(f.cfg.MetaData, "a.txt"))
	if err != nil || string(b) != "A\n" {
		t.Errorf("Membership file was modified: %q, %v", b, err)
	}
}

func TestRunRefusesToOverwriteSiblingMembership(t *testing.T) {
	f := newFixture(t, map[string]string{"x.txt": "A\n", "x_absent.txt": "B\nC\n"})
	f.cfg.OutDir = f.cfg.MetaData

	if err := run(f.cfg); err == nil {
		t.Error("Expected an error when writing into the metadata directory")
	}
	b, err := os.ReadFile(filepath.Join(f.cfg.MetaData, "x_absent.txt"))
	if err != nil || string(b) != "B\nC\n" {
		t.Errorf("Membership file was modified: %q, %v", b, err)
	}
}

func TestRunRefusesMetadataDirectoryThroughSymlink(t *testing.T) {
	f := newFixture(t, map[string]string{"a.txt": "A\n"})
	link := filepath.Join(f.base, "meta-link")
	if err := os.Symlink(f.cfg.MetaData, link); err != nil {
		t.Skip("symlinks unsupported:", err)
	}
	f.cfg.OutDir = link

	if err := run(f.cfg); err == nil {
		t.Error("Expected an error when --outdir resolves to the metadata directory")
	}
	if _, err := os.Stat(filepath.Join(f.cfg.MetaData, "a_absent.txt")); err == nil {
		t.Error("No output should be written into the metadata directory")
	}
}

func TestRunRefusesToOverwriteCounts(t *testing.T) {
	f := newFixture(t, map[string]string{"counts.csv": "A\n"})
	f.cfg.KeepExtension = true
	f.cfg.Suffix = ""
	f.cfg.OutDir = f.base

	if err := run(f.cfg); err == nil {
		t.Error("Expected an error when an output would replace the counts file")
	}
	b, err := os.ReadFile(f.cfg.Counts)
	if err != nil || string(b) != counts {
		t.Errorf("Counts file was modified: %q, %v", b, err)
	}
}

func TestRunRefusesSummaryOnOutput(t *testing.T) {
	f := newFixture(t, map[string]string{"a.txt": "A\n"})
	f.cfg.Summary = f.cfg.outputPath("a")

	if err := run(f.cfg); err == nil {
		t.Error("Expected an error when the summary would replace a clade output")
	}

	f.cfg.Summary = f.cfg.Counts
	if err := run(f.cfg); err == nil {
		t.Error("Expected an error when the summary would replace the counts file")
	}
}

func TestRunSummaryBesideOutputs(t *testing.T) {
	f := newFixture(t, map[string]string{"a.txt": "A\n"})
	f.cfg.Summary = filepath.Join(f.cfg.OutDir, "summary.tsv")

	if err := run(f.cfg); err != nil {
		t.Fatal(err)
	}
}
