// Package report writes the absent-transcript lists and the optional run
// summary.
package report

import (
	"bufio"
	"fmt"
	"os"

	"github.com/carbocation/pfx"
)

// WriteIDs creates or truncates path and writes one transcript id per line,
// each newline-terminated, with no header.
func WriteIDs(path string, ids []string) (err error) {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0644)
	if err != nil {
		return pfx.Err(err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = pfx.Err(cerr)
		}
	}()

	bw := bufio.NewWriter(f)
	for _, id := range ids {
		if _, err := fmt.Fprintf(bw, "%s\n", id); err != nil {
			return pfx.Err(err)
		}
	}

	return pfx.Err(bw.Flush())
}
