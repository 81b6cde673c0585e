// Package web holds the dashboard templates and static assets compiled
// into the binary.
package web

import "embed"

//go:embed all:templates
var Templates embed.FS

//go:embed all:static
var Static embed.FS
