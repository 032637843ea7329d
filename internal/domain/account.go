package domain

// AccountID is the identity platform's opaque account identifier.
type AccountID string

// String returns the canonical string form.
func (id AccountID) String() string { return string(id) }

// Account is the slice of the platform's account record this service consumes.
// It is created by the platform on registration and mutated only through
// platform calls (display name, email, phone link).
type Account struct {
	ID            AccountID
	Email         string
	DisplayName   string
	EmailVerified bool
	PhoneNumber   string
}
