// Package clade loads clade membership lists: a directory holding one text
// file per clade, each listing the member sample names one per line.
package clade

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"cloud.google.com/go/storage"
	"github.com/carbocation/pavs"
	"github.com/carbocation/pfx"
)

// Clade is a named group of samples, defined by one membership file.
type Clade struct {
	Name    string
	Path    string
	Samples []string
}

// Membership holds every clade found in a metadata directory, ordered by
// file name.
type Membership []Clade

// Names returns the clade names in order.
func (m Membership) Names() []string {
	out := make([]string, 0, len(m))
	for _, c := range m {
		out = append(out, c.Name)
	}

	return out
}

type Options struct {
	// KeepExtension uses the full file name (e.g., clade1.txt) as the clade
	// name instead of stripping the extension.
	KeepExtension bool
}

// DirectoryError reports a metadata directory that is missing, is not a
// directory, or whose files cannot be read.
type DirectoryError struct {
	Path string
	Err  error
}

func (e *DirectoryError) Error() string {
	return fmt.Sprintf("metadata directory %s: %v (make sure it is a readable directory of one file per clade)", e.Path, e.Err)
}

func (e *DirectoryError) Unwrap() error { return e.Err }

// Load reads every clade file in dir. dir may be a local directory or a
// gs://bucket/prefix/ URL, in which case client must be non-nil.
func Load(dir string, client *storage.Client, opts Options) (Membership, error) {
	if pavs.IsGoogleStoragePath(dir) {
		return loadGoogleStorage(dir, client, opts)
	}

	return loadLocal(dir, opts)
}

func loadLocal(dir string, opts Options) (Membership, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, &DirectoryError{Path: dir, Err: err}
	}
	if !info.IsDir() {
		return nil, &DirectoryError{Path: dir, Err: fmt.Errorf("not a directory")}
	}

	// ReadDir returns entries sorted by filename
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, &DirectoryError{Path: dir, Err: err}
	}

	out := make(Membership, 0, len(entries))
	for _, entry := range entries {
		if !isCladeFile(entry.Name()) {
			continue
		}

		// Stat follows symlinks, so a link to a directory is skipped too
		path := filepath.Join(dir, entry.Name())
		fi, err := os.Stat(path)
		if err != nil {
			return nil, &DirectoryError{Path: dir, Err: err}
		}
		if !fi.Mode().IsRegular() {
			continue
		}

		f, err := os.Open(path)
		if err != nil {
			return nil, &DirectoryError{Path: dir, Err: err}
		}
		samples, err := ParseSamples(f)
		f.Close()
		if err != nil {
			return nil, &DirectoryError{Path: dir, Err: pfx.Err(fmt.Errorf("%s: %w", path, err))}
		}

		out = append(out, Clade{
			Name:    CladeName(entry.Name(), opts.KeepExtension),
			Path:    path,
			Samples: samples,
		})
	}

	return out, nil
}

// ParseSamples reads newline-separated sample names. Names are trimmed of
// surrounding whitespace and blank lines are dropped.
func ParseSamples(r io.Reader) ([]string, error) {
	out := make([]string, 0)

	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		sample := strings.TrimSpace(scanner.Text())
		if sample == "" {
			continue
		}
		out = append(out, sample)
	}

	return out, scanner.Err()
}

// CladeName derives a clade name from its membership file name.
func CladeName(fileName string, keepExtension bool) string {
	base := filepath.Base(fileName)
	if keepExtension {
		return base
	}

	return strings.TrimSuffix(base, filepath.Ext(base))
}

// Hidden files (.DS_Store and friends) are not clades.
func isCladeFile(name string) bool {
	return name != "" && !strings.HasPrefix(name, ".")
}

func sortByName(m Membership) {
	sort.SliceStable(m, func(i, j int) bool {
		return filepath.Base(m[i].Path) < filepath.Base(m[j].Path)
	})
}
