// Package keyfmt implements the TYPE#id key convention used by callers
// of the engine to co-locate entity types in one table.
package keyfmt

import "strings"

// Separator joins the entity type and identifier in a key value.
const Separator = "#"

// Compose builds a key value from an entity type and identifier,
// e.g. Compose("USER", "123") -> "USER#123".
func Compose(entityType, id string) string {
	return entityType + Separator + id
}

// Prefix returns the query prefix matching every key of the given
// entity type, e.g. Prefix("MESSAGE") -> "MESSAGE#".
func Prefix(entityType string) string {
	return entityType + Separator
}

// Split breaks a key value into its entity type and remainder. A value
// without a separator is treated as a bare entity type with no id.
func Split(key string) (entityType, rest string) {
	entityType, rest, _ = strings.Cut(key, Separator)
	return entityType, rest
}
