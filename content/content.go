// Package content embeds the SQL guide and the company_db seed script.
package content

import (
	"embed"
	"io/fs"
)

// SeedScript contains the company_db schema and sample data.
//
//go:embed sql/company_db.sql
var SeedScript string

//go:embed guide/*.md
var guide embed.FS

// Guide returns the curriculum documents rooted at the guide directory,
// so README.md and the part files are addressed by their bare names.
func Guide() fs.FS {
	sub, err := fs.Sub(guide, "guide")
	if err != nil {
		// guide/ is embedded at compile time
		panic(err)
	}
	return sub
}
