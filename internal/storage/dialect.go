package storage

import (
	"fmt"
	"strconv"
	"strings"
)

// Driver names a supported database/sql driver.
type Driver string

const (
	DriverSQLite   Driver = "sqlite"
	DriverPostgres Driver = "postgres"
)

// Validate rejects unknown drivers.
func (d Driver) Validate() error {
	switch d {
	case DriverSQLite, DriverPostgres:
		return nil
	}
	return fmt.Errorf("unsupported database driver %q", string(d))
}

// rebind rewrites ? placeholders into the driver's positional form.
func (d Driver) rebind(query string) string {
	if d != DriverPostgres {
		return query
	}
	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// containsExpr is a case-sensitive substring test on col.
func (d Driver) containsExpr(col string) string {
	if d == DriverPostgres {
		return "strpos(" + col + ", ?) > 0"
	}
	return "instr(" + col + ", ?) > 0"
}

// likeExpr is a case-insensitive LIKE on col with backslash escaping.
func (d Driver) likeExpr(col string) string {
	op := "LIKE"
	if d == DriverPostgres {
		op = "ILIKE"
	}
	return col + " " + op + ` ? ESCAPE '\'`
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func likePattern(s string) string {
	return "%" + likeEscaper.Replace(s) + "%"
}
