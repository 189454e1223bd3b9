package templates

import "embed"

// Templates contains the embedded dashboard page and fragment templates.
//
//go:embed *.html
var Templates embed.FS
