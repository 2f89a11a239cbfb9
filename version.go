package cerberus

import _ "embed"

// Version is the release of this module, from the VERSION file.
//
//go:embed VERSION
var Version string
