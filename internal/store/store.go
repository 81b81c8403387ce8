// Package store persists the named string lists booster works with.
package store

import "errors"

// Document keys.
const (
	KeyWhitelist = "user_defined_whitelist"
	KeyBlacklist = "user_defined_blacklist"
	KeyCritical  = "critical_processes"
	KeySelected  = "selected_processes"
)

// ErrUnknownKey is returned by backends that map keys to fixed locations.
var ErrUnknownKey = errors.New("unknown document key")

// Store gets and sets named string lists. An absent list loads as empty.
// Save overwrites the whole list; a concurrent Load sees either the old list
// or the new one.
type Store interface {
	Load(key string) ([]string, error)
	Save(key string, values []string) error
}
