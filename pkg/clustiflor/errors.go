package clustiflor

import "errors"

// ErrConfiguration is returned for invalid algorithm parameters. It is
// reported before any work on the graph starts.
var ErrConfiguration = errors.New("clustiflor: invalid configuration")
