package chatflow

import (
	_ "embed"
	"strings"
)

//go:embed VERSION
var rawVersion string

// Version is the released version of chatflow.
var Version = strings.TrimSpace(rawVersion)
