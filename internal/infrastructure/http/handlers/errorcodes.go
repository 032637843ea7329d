package handlers

import (
	"net/http"

	domerrors "github.com/SiameseJames22/2DWORLD/internal/domain/errors"
)

// API error codes returned in JSON { "error": "...", "code": "..." } for
// stable client handling.
const (
	ErrCodeInvalidRequest     = "invalid_request"
	ErrCodeInvalidHandle      = "invalid_username"
	ErrCodeHandleTaken        = "username_taken"
	ErrCodeNotSignedIn        = "not_signed_in"
	ErrCodeNoChallenge        = "no_challenge_pending"
	ErrCodeChallengePending   = "challenge_pending"
	ErrCodeInvalidEmail       = "invalid_email"
	ErrCodeEmailInUse         = "email_in_use"
	ErrCodeWeakPassword       = "weak_password"
	ErrCodeWrongPassword      = "wrong_password"
	ErrCodeAccountNotFound    = "account_not_found"
	ErrCodeTooManyRequests    = "too_many_requests"
	ErrCodeReauthRequired     = "reauth_required"
	ErrCodeInvalidSMSCode     = "invalid_sms_code"
	ErrCodeMissingSMSCode     = "missing_sms_code"
	ErrCodeUpstream           = "identity_platform_error"
	ErrCodeInternal           = "internal_error"
)

// statusFor maps a domain error to its HTTP status and stable code.
func statusFor(err error) (int, string) {
	kind, ok := domerrors.KindOf(err)
	if !ok {
		return http.StatusInternalServerError, ErrCodeInternal
	}
	switch kind {
	case domerrors.KindInvalidHandle:
		return http.StatusBadRequest, ErrCodeInvalidHandle
	case domerrors.KindHandleTaken:
		return http.StatusConflict, ErrCodeHandleTaken
	case domerrors.KindNotSignedIn:
		return http.StatusUnauthorized, ErrCodeNotSignedIn
	case domerrors.KindNoChallengePending:
		return http.StatusConflict, ErrCodeNoChallenge
	case domerrors.KindChallengeAlreadyPending:
		return http.StatusConflict, ErrCodeChallengePending
	}
	switch {
	case domerrors.HasCategory(err, domerrors.CategoryInvalidEmail):
		return http.StatusBadRequest, ErrCodeInvalidEmail
	case domerrors.HasCategory(err, domerrors.CategoryEmailInUse):
		return http.StatusConflict, ErrCodeEmailInUse
	case domerrors.HasCategory(err, domerrors.CategoryWeakPassword):
		return http.StatusBadRequest, ErrCodeWeakPassword
	case domerrors.HasCategory(err, domerrors.CategoryWrongPassword):
		return http.StatusUnauthorized, ErrCodeWrongPassword
	case domerrors.HasCategory(err, domerrors.CategoryUserNotFound):
		return http.StatusNotFound, ErrCodeAccountNotFound
	case domerrors.HasCategory(err, domerrors.CategoryTooManyRequests):
		return http.StatusTooManyRequests, ErrCodeTooManyRequests
	case domerrors.HasCategory(err, domerrors.CategoryReauthRequired):
		return http.StatusUnauthorized, ErrCodeReauthRequired
	case domerrors.HasCategory(err, domerrors.CategoryInvalidSMSCode):
		return http.StatusBadRequest, ErrCodeInvalidSMSCode
	case domerrors.HasCategory(err, domerrors.CategoryMissingSMSCode):
		return http.StatusBadRequest, ErrCodeMissingSMSCode
	}
	return http.StatusBadGateway, ErrCodeUpstream
}
