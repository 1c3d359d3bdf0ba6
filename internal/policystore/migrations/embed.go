// Package migrations embeds and runs the policy store's SQL schema.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
