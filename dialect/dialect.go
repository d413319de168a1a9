package dialect

import (
	"regexp"
	"strconv"
	"strings"
)

// Dialect names for external usage.
const (
	MySQL    = "mysql"
	SQLite   = "sqlite"
	Postgres = "postgres"
)

// validIdentifierRe validates SQL identifiers (alphanumeric, underscores, dots for schema.name)
var validIdentifierRe = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_.]*$`)

// IsValidIdentifier checks if the string is a plain SQL identifier.
func IsValidIdentifier(s string) bool {
	return s != "" && len(s) <= 128 && validIdentifierRe.MatchString(s) &&
		!strings.HasSuffix(s, ".") && !strings.Contains(s, "..")
}

// Supported reports whether name is one of the supported dialects.
func Supported(name string) bool {
	switch name {
	case MySQL, SQLite, Postgres:
		return true
	}
	return false
}

// Quote quotes an identifier for the given dialect. Dotted names are quoted
// part by part and "*" parts are kept bare. Strings that are not plain
// identifiers are returned unchanged.
func Quote(name, ident string) string {
	if ident == "*" {
		return ident
	}
	if strings.HasSuffix(ident, ".*") {
		return Quote(name, strings.TrimSuffix(ident, ".*")) + ".*"
	}
	if !IsValidIdentifier(ident) {
		return ident
	}
	q := `"`
	if name == MySQL {
		q = "`"
	}
	parts := strings.Split(ident, ".")
	for i, p := range parts {
		parts[i] = q + p + q
	}
	return strings.Join(parts, ".")
}

// Rebind rewrites "?" placeholders into the form expected by the dialect.
// Only Postgres needs rewriting; placeholders inside quoted literals are kept.
func Rebind(name, query string) string {
	if name != Postgres || !strings.Contains(query, "?") {
		return query
	}
	var (
		b     strings.Builder
		n     int
		quote byte
	)
	b.Grow(len(query) + 8)
	for i := 0; i < len(query); i++ {
		c := query[i]
		switch {
		case quote != 0:
			if c == quote {
				quote = 0
			}
		case c == '\'' || c == '"':
			quote = c
		case c == '?':
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteByte(c)
	}
	return b.String()
}

// Placeholders returns the number of "?" placeholders in query. Question
// marks inside quoted literals and identifiers are not counted.
func Placeholders(query string) int {
	var (
		n     int
		quote byte
	)
	for i := 0; i < len(query); i++ {
		switch c := query[i]; {
		case quote != 0:
			if c == quote {
				quote = 0
			}
		case c == '\'' || c == '"' || c == '`':
			quote = c
		case c == '?':
			n++
		}
	}
	return n
}
