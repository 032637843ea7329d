package identity

import (
	"strings"

	domerrors "github.com/SiameseJames22/2DWORLD/internal/domain/errors"
)

// platformCategories maps the platform's machine-readable error codes to the
// stable categories the rest of the service works with.
var platformCategories = map[string]domerrors.Category{
	"INVALID_EMAIL":                 domerrors.CategoryInvalidEmail,
	"MISSING_EMAIL":                 domerrors.CategoryInvalidEmail,
	"EMAIL_EXISTS":                  domerrors.CategoryEmailInUse,
	"WEAK_PASSWORD":                 domerrors.CategoryWeakPassword,
	"INVALID_PASSWORD":              domerrors.CategoryWrongPassword,
	"INVALID_LOGIN_CREDENTIALS":     domerrors.CategoryWrongPassword,
	"EMAIL_NOT_FOUND":               domerrors.CategoryUserNotFound,
	"USER_NOT_FOUND":                domerrors.CategoryUserNotFound,
	"USER_DISABLED":                 domerrors.CategoryUserNotFound,
	"TOO_MANY_ATTEMPTS_TRY_LATER":   domerrors.CategoryTooManyRequests,
	"QUOTA_EXCEEDED":                domerrors.CategoryTooManyRequests,
	"CREDENTIAL_TOO_OLD_LOGIN_AGAIN": domerrors.CategoryReauthRequired,
	"INVALID_CODE":                  domerrors.CategoryInvalidSMSCode,
	"SESSION_EXPIRED":               domerrors.CategoryInvalidSMSCode,
	"MISSING_CODE":                  domerrors.CategoryMissingSMSCode,
}

func categoryFor(code string) domerrors.Category {
	if cat, ok := platformCategories[code]; ok {
		return cat
	}
	return domerrors.CategoryUnknown
}

// errorCode extracts the leading machine code from a platform error message
// such as "WEAK_PASSWORD : Password should be at least 6 characters".
func errorCode(message string) string {
	message = strings.TrimSpace(message)
	if message == "" {
		return ""
	}
	if i := strings.IndexAny(message, " :"); i >= 0 {
		return message[:i]
	}
	return message
}
