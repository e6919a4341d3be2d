package report

import (
	"encoding/csv"
	"math"
	"os"

	"github.com/carbocation/pfx"
	"github.com/gocarina/gocsv"
	"github.com/montanaflynn/stats"
)

// AllCladesName labels the pass over every column, both in the summary and
// in the output file name.
const AllCladesName = "all_clades"

// CladeSummary is one line of the run summary.
type CladeSummary struct {
	Clade          string  `csv:"clade"`
	ListedSamples  int     `csv:"listed_samples"`
	MatchedColumns int     `csv:"matched_columns"`
	Transcripts    int     `csv:"transcripts"`
	Absent         int     `csv:"absent"`
	MedianMean     float64 `csv:"median_group_mean"`
	Output         string  `csv:"output"`
}

// MedianMean is the median of the per-transcript group means, ignoring
// transcripts with no measured value. It is NaN when nothing was measured.
func MedianMean(means []float64) float64 {
	data := make(stats.Float64Data, 0, len(means))
	for _, m := range means {
		if math.IsNaN(m) {
			continue
		}
		data = append(data, m)
	}

	median, err := stats.Median(data)
	if err != nil {
		return math.NaN()
	}

	return median
}

// WriteSummary writes summaries as a tab-delimited file with a header.
func WriteSummary(path string, summaries []CladeSummary) (err error) {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0644)
	if err != nil {
		return pfx.Err(err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = pfx.Err(cerr)
		}
	}()

	cw := csv.NewWriter(f)
	cw.Comma = '\t'

	if err := gocsv.MarshalCSV(&summaries, gocsv.NewSafeCSVWriter(cw)); err != nil {
		return pfx.Err(err)
	}
	cw.Flush()

	return pfx.Err(cw.Error())
}

// ReadSummary parses a file written by WriteSummary.
func ReadSummary(path string) ([]CladeSummary, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, pfx.Err(err)
	}
	defer f.Close()

	cr := csv.NewReader(f)
	cr.Comma = '\t'

	out := []CladeSummary{}
	if err := gocsv.UnmarshalCSV(cr, &out); err != nil {
		return nil, pfx.Err(err)
	}

	return out, nil
}
