package domain

import "time"

// UsernameRecord maps a normalized handle to its owning account. At most one
// record exists per handle and the mapping is immutable once created.
type UsernameRecord struct {
	AccountID AccountID
	CreatedAt time.Time
}

// ProfileRecord is the per-account profile document. Its Username field always
// names the handle of exactly one UsernameRecord; the two are written in the
// same transaction.
type ProfileRecord struct {
	Username  string
	Email     string
	Fields    map[string]any
	CreatedAt time.Time
}
