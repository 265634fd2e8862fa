// Package db embeds the SQL migrations applied at startup.
package db

import (
	"embed"
	"sort"

	"github.com/go-faster/errors"
)

//go:embed migrations/*.sql
var migrationFS embed.FS

// Migration is one embedded DDL file.
type Migration struct {
	Name string
	SQL  string
}

// Migrations returns the embedded migrations in lexical filename order.
// Files are named NNN_description.sql, so lexical order is apply order.
func Migrations() ([]Migration, error) {
	entries, err := migrationFS.ReadDir("migrations")
	if err != nil {
		return nil, errors.Wrap(err, "read migrations dir")
	}

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	sort.Strings(names)

	out := make([]Migration, 0, len(names))
	for _, name := range names {
		sql, err := migrationFS.ReadFile("migrations/" + name)
		if err != nil {
			return nil, errors.Wrapf(err, "read migration %s", name)
		}
		out = append(out, Migration{Name: name, SQL: string(sql)})
	}
	return out, nil
}
