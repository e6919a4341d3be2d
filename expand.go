package pavs

import (
	"log"
	"os/user"
	"path/filepath"
	"strings"

	"github.com/carbocation/pfx"
)

// ExpandHome expands ~ to its proper path, where appropriate.
func ExpandHome(path string) string {
	if strings.HasPrefix(path, "~/") {
		usr, err := user.Current()
		if err != nil {
			log.Fatalln(pfx.Err(err))
		}
		path = filepath.Join(usr.HomeDir, (path)[2:])
	}

	return path
}

// ResolvePath places path under baseDir unless it is already absolute, starts
// with ~/ or is a gs:// URL. A gs:// baseDir is joined with forward slashes.
// An empty baseDir leaves relative paths relative to the process working
// directory.
func ResolvePath(baseDir, path string) string {
	if path == "" || IsGoogleStoragePath(path) {
		return path
	}

	path = ExpandHome(path)
	if filepath.IsAbs(path) || baseDir == "" {
		return path
	}

	if IsGoogleStoragePath(baseDir) {
		return strings.TrimSuffix(baseDir, "/") + "/" + filepath.ToSlash(filepath.Clean(path))
	}

	return filepath.Join(ExpandHome(baseDir), path)
}
