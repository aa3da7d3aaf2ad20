package store

import "strings"

// EscapeLikePattern escapes SQLite LIKE metacharacters (%, _) and the escape
// character itself (\) in s, so that a user-supplied filter term can be
// embedded in a LIKE pattern as a literal substring match. Callers must
// pair this with `ESCAPE '\'` in the query.
func EscapeLikePattern(s string) string {
	r := strings.NewReplacer(
		`\`, `\\`,
		`%`, `\%`,
		`_`, `\_`,
	)
	return r.Replace(s)
}
