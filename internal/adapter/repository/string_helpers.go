package repository

import "strings"

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// likePrefix turns a literal prefix into a LIKE pattern using '\' as escape.
func likePrefix(prefix string) string {
	return likeEscaper.Replace(prefix) + "%"
}

func normalizeGame(game string) string {
	return strings.ToLower(strings.TrimSpace(game))
}
