package database

import "strings"

// BuildDatabaseURL appends a database name to a base connection URL.
// An empty name leaves the base URL untouched. The result always
// carries an sslmode; local and test setups rely on the disable
// default.
func BuildDatabaseURL(baseURL, databaseName string) string {
	if databaseName == "" {
		return baseURL
	}

	base, query, hasQuery := strings.Cut(strings.TrimRight(baseURL, "/"), "?")

	url := base + "/" + databaseName
	if hasQuery {
		url += "?" + query
	}

	if !strings.Contains(url, "sslmode=") {
		if hasQuery {
			url += "&sslmode=disable"
		} else {
			url += "?sslmode=disable"
		}
	}

	return url
}
