//go:build !statsview

package statsview

import (
	"fmt"
	"io"
)

// DefaultAddress is the listen address used when none is given
const DefaultAddress = "localhost:12600"

// Launch reports that the stats server was not compiled in
func Launch(output io.Writer, _ string) {
	fmt.Fprintln(output, "stats server not available, rebuild with -tags statsview")
}

// Available returns true if a statsview is available to launch.
func Available() bool {
	return false
}
