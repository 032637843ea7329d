package errors

import (
	"errors"
	"fmt"
	"strings"
)

// Kind is the closed enumeration of error variants this service raises.
type Kind int

const (
	// KindPlatform wraps an identity-platform error with its category code.
	KindPlatform Kind = iota
	// KindInvalidHandle means the normalized handle failed validation.
	KindInvalidHandle
	// KindHandleTaken means another account already owns the handle.
	KindHandleTaken
	// KindNotSignedIn means the operation requires an authenticated account.
	KindNotSignedIn
	// KindNoChallengePending means a code was submitted with no challenge
	// started.
	KindNoChallengePending
	// KindChallengeAlreadyPending means a challenge was started while a
	// confirmation is still outstanding.
	KindChallengeAlreadyPending
)

// Category is the machine-readable class of a platform error.
type Category string

const (
	CategoryInvalidEmail    Category = "invalid-email"
	CategoryEmailInUse      Category = "email-already-in-use"
	CategoryWeakPassword    Category = "weak-password"
	CategoryWrongPassword   Category = "wrong-password"
	CategoryUserNotFound    Category = "user-not-found"
	CategoryTooManyRequests Category = "too-many-requests"
	CategoryReauthRequired  Category = "requires-recent-login"
	CategoryInvalidSMSCode  Category = "invalid-verification-code"
	CategoryMissingSMSCode  Category = "missing-verification-code"
	CategoryUnknown         Category = "unknown"
)

// Error is a tagged-variant error. The populated fields depend on Kind:
// Handle for KindHandleTaken, MinLength for KindInvalidHandle, Category and
// Message for KindPlatform.
type Error struct {
	Kind      Kind
	Handle    string
	MinLength int
	Category  Category
	Message   string
}

func (e *Error) Error() string {
	switch e.Kind {
	case KindInvalidHandle:
		return fmt.Sprintf("username must be at least %d characters", e.MinLength)
	case KindHandleTaken:
		return fmt.Sprintf("username %q is taken", e.Handle)
	case KindNotSignedIn:
		return "not signed in"
	case KindNoChallengePending:
		return "no phone challenge pending"
	case KindChallengeAlreadyPending:
		return "phone challenge already pending"
	default:
		if e.Message != "" {
			return fmt.Sprintf("platform: %s: %s", e.Category, e.Message)
		}
		return fmt.Sprintf("platform: %s", e.Category)
	}
}

// InvalidHandle reports a handle that failed validation.
func InvalidHandle(minLength int) *Error {
	return &Error{Kind: KindInvalidHandle, MinLength: minLength}
}

// HandleTaken reports a handle already owned by another account.
func HandleTaken(handle string) *Error {
	return &Error{Kind: KindHandleTaken, Handle: handle}
}

// NotSignedIn reports an operation that requires an authenticated account.
func NotSignedIn() *Error {
	return &Error{Kind: KindNotSignedIn}
}

// NoChallengePending reports a code confirmation with no challenge started.
func NoChallengePending() *Error {
	return &Error{Kind: KindNoChallengePending}
}

// ChallengeAlreadyPending reports a second challenge start while one is
// outstanding.
func ChallengeAlreadyPending() *Error {
	return &Error{Kind: KindChallengeAlreadyPending}
}

// Platform wraps an identity-platform error with its category code.
func Platform(category Category, message string) *Error {
	return &Error{Kind: KindPlatform, Category: category, Message: message}
}

// KindOf returns the variant of err when it is (or wraps) an *Error.
func KindOf(err error) (Kind, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind, true
	}
	return 0, false
}

// HasCategory reports whether err is a platform error with the given category.
func HasCategory(err error, category Category) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind == KindPlatform && e.Category == category
	}
	return false
}

// internalPrefixes are provider prefixes stripped from fallback messages so
// raw SDK noise never reaches the user.
var internalPrefixes = []string{"platform: ", "identitytoolkit: ", "identity: "}

// Presentation converts any error into a user-facing string. It is pure and
// total: it never returns an empty string and never panics, including on nil.
func Presentation(err error) string {
	if err == nil {
		return "Something went wrong."
	}
	var e *Error
	if !errors.As(err, &e) {
		return stripInternalPrefix(err.Error())
	}
	switch e.Kind {
	case KindInvalidHandle:
		return fmt.Sprintf("Username must be at least %d characters.", e.MinLength)
	case KindHandleTaken:
		return "That username is taken."
	case KindNotSignedIn:
		return "Not signed in."
	case KindNoChallengePending:
		return "Start SMS verification first."
	case KindChallengeAlreadyPending:
		return "An SMS verification is already in progress."
	}
	switch e.Category {
	case CategoryInvalidEmail:
		return "That email looks wrong."
	case CategoryEmailInUse:
		return "That email is already used."
	case CategoryWeakPassword:
		return "Password is too weak (use 6+ characters)."
	case CategoryWrongPassword:
		return "Wrong password."
	case CategoryUserNotFound:
		return "Account not found."
	case CategoryTooManyRequests:
		return "Too many attempts. Try again later."
	case CategoryReauthRequired:
		return "Please re-enter your password to do that."
	case CategoryInvalidSMSCode:
		return "That SMS code is wrong."
	case CategoryMissingSMSCode:
		return "Enter the SMS code."
	}
	if e.Message != "" {
		return stripInternalPrefix(e.Message)
	}
	return "Something went wrong."
}

func stripInternalPrefix(msg string) string {
	for _, p := range internalPrefixes {
		if rest, ok := strings.CutPrefix(msg, p); ok {
			msg = rest
			break
		}
	}
	if msg == "" {
		return "Something went wrong."
	}
	return msg
}
