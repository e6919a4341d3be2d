// Package matcher decides which expression table columns belong to a clade.
package matcher

import (
	"fmt"
	"strings"
)

// DefaultStripSuffix is removed from the end of clade sample names before
// they are compared with column names.
const DefaultStripSuffix = ".filter-RNA"

// Policy selects how a sample name is compared with a column name.
type Policy int

const (
	// Exact matches a column whose trimmed name equals a sample name.
	Exact Policy = iota

	// Substring matches a column whose name contains a sample name. It can
	// over-match: sample "S1" claims column "S10".
	Substring
)

func (p Policy) String() string {
	switch p {
	case Exact:
		return "exact"
	case Substring:
		return "substring"
	}

	return fmt.Sprintf("Policy(%d)", int(p))
}

// ParsePolicy accepts "exact" or "substring", case-insensitively.
func ParsePolicy(s string) (Policy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "exact":
		return Exact, nil
	case "substring":
		return Substring, nil
	}

	return Exact, fmt.Errorf("unknown match policy %q: valid options are exact, substring", s)
}

type Options struct {
	// StripSuffix is removed once from the end of each sample name.
	StripSuffix string

	// KeepDuplicates makes the substring policy emit a column once per
	// sample name it contains, weighting that column accordingly in the
	// group mean. Ignored by the exact policy.
	KeepDuplicates bool
}

type Matcher struct {
	Policy Policy
	Options
}

func New(policy Policy, opts Options) *Matcher {
	return &Matcher{Policy: policy, Options: opts}
}

// CleanSamples trims each sample name and strips the configured suffix.
func (m *Matcher) CleanSamples(samples []string) []string {
	out := make([]string, 0, len(samples))
	for _, sample := range samples {
		sample = strings.TrimSpace(sample)
		if m.StripSuffix != "" {
			sample = strings.TrimSuffix(sample, m.StripSuffix)
		}
		out = append(out, sample)
	}

	return out
}

// Match returns the indices of columns that belong to the clade described by
// samples, in column order.
func (m *Matcher) Match(samples, columns []string) []int {
	cleaned := m.CleanSamples(samples)

	out := make([]int, 0)
	for j, col := range columns {
		hits := 0
		for _, sample := range cleaned {
			if sample == "" {
				continue
			}
			if m.matches(sample, col) {
				hits++
			}
		}

		if hits == 0 {
			continue
		}

		if m.Policy != Substring || !m.KeepDuplicates {
			hits = 1
		}
		for k := 0; k < hits; k++ {
			out = append(out, j)
		}
	}

	return out
}

func (m *Matcher) matches(sample, column string) bool {
	if m.Policy == Substring {
		return strings.Contains(column, sample)
	}

	return strings.TrimSpace(column) == sample
}

// Names maps column indices back to column names.
func Names(indices []int, columns []string) []string {
	out := make([]string, 0, len(indices))
	for _, j := range indices {
		out = append(out, columns[j])
	}

	return out
}
