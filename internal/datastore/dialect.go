package datastore

import (
	"fmt"
	"strconv"
	"strings"
)

// Dialect captures the SQL differences between the supported drivers.
type Dialect struct {
	// Driver is the database/sql driver name.
	Driver string

	numbered  bool // $1, $2 placeholders instead of ?
	returning bool // INSERT ... RETURNING support
}

var (
	SQLite   = Dialect{Driver: "sqlite", returning: true}
	Postgres = Dialect{Driver: "postgres", numbered: true, returning: true}
	MySQL    = Dialect{Driver: "mysql"}
)

// DialectFor returns the dialect registered for a driver name.
func DialectFor(driver string) (Dialect, error) {
	switch strings.ToLower(driver) {
	case "sqlite", "sqlite3":
		return SQLite, nil
	case "postgres", "postgresql", "pq":
		return Postgres, nil
	case "mysql":
		return MySQL, nil
	}
	return Dialect{}, fmt.Errorf("unsupported database driver %q", driver)
}

// Rebind rewrites ? placeholders into the dialect's placeholder style.
func (d Dialect) Rebind(query string) string {
	if !d.numbered {
		return query
	}

	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for i := 0; i < len(query); i++ {
		if query[i] != '?' {
			b.WriteByte(query[i])
			continue
		}
		n++
		b.WriteByte('$')
		b.WriteString(strconv.Itoa(n))
	}
	return b.String()
}

// SupportsReturning reports whether INSERT ... RETURNING can be used to read
// back generated keys. When false callers fall back to LastInsertId.
func (d Dialect) SupportsReturning() bool {
	return d.returning
}

// AutoIncrementKey is the column definition of an integer surrogate key.
func (d Dialect) AutoIncrementKey() string {
	switch d.Driver {
	case Postgres.Driver:
		return "BIGSERIAL PRIMARY KEY"
	case MySQL.Driver:
		return "BIGINT AUTO_INCREMENT PRIMARY KEY"
	default:
		return "INTEGER PRIMARY KEY AUTOINCREMENT"
	}
}

// Insert builds an insert of cols into table. When the dialect supports it the
// statement returns the generated key column.
func (d Dialect) Insert(table, key string, cols ...string) string {
	query := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		table, strings.Join(cols, ", "), placeholders(len(cols)))
	if d.returning {
		query += " RETURNING " + key
	}
	return d.Rebind(query)
}

// Upsert builds an insert-or-update keyed on key. The key is the first bound
// parameter, followed by cols in order.
func (d Dialect) Upsert(table, key string, cols ...string) string {
	all := append([]string{key}, cols...)
	query := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		table, strings.Join(all, ", "), placeholders(len(all)))

	sets := make([]string, len(cols))
	for i, c := range cols {
		if d.Driver == MySQL.Driver {
			sets[i] = fmt.Sprintf("%s = VALUES(%s)", c, c)
		} else {
			sets[i] = fmt.Sprintf("%s = excluded.%s", c, c)
		}
	}

	if d.Driver == MySQL.Driver {
		query += " ON DUPLICATE KEY UPDATE " + strings.Join(sets, ", ")
	} else {
		query += fmt.Sprintf(" ON CONFLICT (%s) DO UPDATE SET %s", key, strings.Join(sets, ", "))
	}
	return d.Rebind(query)
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}
