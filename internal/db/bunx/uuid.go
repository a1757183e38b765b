package bunx

import "github.com/google/uuid"

// NewUUIDv7 generates a time-ordered UUIDv7 string for database primary keys.
// UUIDv7 sorts by creation time, which keeps b-tree indexes dense, and works
// on both PostgreSQL and SQLite (no gen_random_uuid() dependency).
//
// Panics only on entropy source exhaustion, in which case nothing else in
// the process could generate IDs either.
func NewUUIDv7() string {
	return uuid.Must(uuid.NewV7()).String()
}
