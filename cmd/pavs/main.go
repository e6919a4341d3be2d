// pavs reports, for each clade and across all clades, the transcripts that are
// absent (mean expression exactly zero) from a transcript-by-sample counts
// table. Clades are defined by a directory holding one sample list per clade.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"

	"cloud.google.com/go/storage"
	"github.com/carbocation/pavs"
	"github.com/carbocation/pavs/clade"
	_ "github.com/carbocation/pavs/compileinfoprint"
	"github.com/carbocation/pavs/exprtable"
	"github.com/carbocation/pavs/matcher"
)

func main() {
	var (
		cfg       config
		matchMode string
		delim     string
	)

	flag.StringVar(&cfg.Counts, "counts", "", "CSV file of the transcript counts for all samples. First column is the transcript id. Optionally, may be a google storage URL (gs://) and may be compressed.")
	flag.StringVar(&cfg.MetaData, "metadata", "", "Path to the metadata directory, holding one file per clade (e.g., clade1.txt) that lists the clade's sample names separated by newlines. Optionally, may be a google storage URL (gs://).")
	flag.StringVar(&cfg.Suffix, "out", "_absent.txt", "String to append to all the output file names")
	flag.StringVar(&cfg.OutDir, "outdir", ".", "Directory in which the output files are written")
	flag.StringVar(&cfg.BaseDir, "basedir", ".", "Directory against which relative --counts, --metadata, --outdir and --summary paths are resolved")
	flag.StringVar(&cfg.Prefix, "prefix", exprtable.DefaultPrefix, "Token removed from the start of each sample column header")
	flag.StringVar(&cfg.StripSuffix, "suffix", matcher.DefaultStripSuffix, "Token removed from the end of each clade sample name before matching")
	flag.StringVar(&matchMode, "match", matcher.Exact.String(), "How clade sample names are matched to columns. Options: exact, substring")
	flag.BoolVar(&cfg.KeepDuplicates, "keepdups", false, "With --match=substring, count a column once per sample name it contains (legacy weighting)")
	flag.BoolVar(&cfg.KeepExtension, "keepext", false, "Name each clade after its full file name, extension included")
	flag.StringVar(&delim, "delim", ",", "Delimiter of the counts file. Use 'tab' for tab, or 'auto' to detect it")
	flag.StringVar(&cfg.Summary, "summary", "", "Optional path to a tab-delimited summary of every clade")
	flag.Parse()

	if cfg.Counts == "" || cfg.MetaData == "" {
		flag.PrintDefaults()
		fmt.Fprintln(os.Stderr, "Both --counts and --metadata are required")
		os.Exit(1)
	}

	var err error
	if cfg.Policy, err = matcher.ParsePolicy(matchMode); err != nil {
		log.Fatalln(err)
	}
	if cfg.Delimiter, err = pavs.ParseDelimiter(delim); err != nil {
		log.Fatalln(err)
	}

	cfg.resolvePaths()

	if cfg.needsGoogleStorage() {
		cfg.Client, err = storage.NewClient(context.Background())
		if err != nil {
			log.Fatalln(err)
		}
		defer cfg.Client.Close()
	}

	if err := run(cfg); err != nil {
		var dirErr *clade.DirectoryError
		if errors.As(err, &dirErr) {
			log.Println("Error:", dirErr)
			log.Fatalln("Make sure --metadata points to a directory of clade files")
		}
		log.Fatalln(err)
	}
}
