package entity

import "strings"

// Singular returns the singular form of a snake_case table name using the
// common english plural endings. Only the last word is changed:
// "blog_posts" -> "blog_post", "categories" -> "category",
// "boxes" -> "box", "statuses" -> "status", "news" -> "news".
func Singular(table string) string {
	prefix, word := "", table
	if i := strings.LastIndex(table, "_"); i >= 0 {
		prefix, word = table[:i+1], table[i+1:]
	}

	lower := strings.ToLower(word)
	switch {
	case len(word) <= 2:
		// "us", "is"
	case strings.HasSuffix(lower, "ies") && len(word) > 3:
		word = word[:len(word)-3] + "y"
	case strings.HasSuffix(lower, "sses"),
		strings.HasSuffix(lower, "xes"),
		strings.HasSuffix(lower, "zes"),
		strings.HasSuffix(lower, "ches"),
		strings.HasSuffix(lower, "shes"):
		word = word[:len(word)-2]
	case len(lower) > 4 && strings.HasSuffix(lower, "uses") && !isVowel(lower[len(lower)-5]),
		strings.HasSuffix(lower, "sises"):
		// "statuses", "buses", "analysises"; "houses" keeps its e
		word = word[:len(word)-2]
	case strings.HasSuffix(lower, "ss"),
		strings.HasSuffix(lower, "us"),
		strings.HasSuffix(lower, "is"),
		strings.HasSuffix(lower, "news"):
		// "address", "status", "analysis", "news"
	case strings.HasSuffix(lower, "s"):
		word = word[:len(word)-1]
	}
	return prefix + word
}

func isVowel(c byte) bool {
	return strings.IndexByte("aeiou", c) >= 0
}

// ForeignKeyFor returns the conventional foreign key column that points at
// table: its singular form followed by "_id".
func ForeignKeyFor(table string) string {
	return Singular(table) + "_id"
}

// JoinTableFor returns the conventional join table between two tables: both
// names in alphabetical order joined by an underscore.
func JoinTableFor(a, b string) string {
	if b < a {
		a, b = b, a
	}
	return a + "_" + b
}
