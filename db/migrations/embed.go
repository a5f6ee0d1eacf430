// Package migrations embeds the goose SQL migrations, one directory per
// database dialect.
package migrations

import "embed"

// FS holds every dialect directory (sqlite, postgres, mysql).
//
//go:embed sqlite/*.sql postgres/*.sql mysql/*.sql
var FS embed.FS
