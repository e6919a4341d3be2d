// compileinfoprint is imported by binaries for the side effect of logging how
// they were built to os.Stderr before anything else runs.
package compileinfoprint

import (
	"os"

	"github.com/carbocation/pavs/compileinfo"
)

func init() {
	compileinfo.Fprint(os.Stderr)
}
