// Package migrations embeds the versioned SQL schema files applied at startup.
// Files follow the golang-migrate naming scheme: <version>_<name>.up.sql and .down.sql.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
