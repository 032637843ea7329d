package ports

import (
	"context"

	"github.com/SiameseJames22/2DWORLD/internal/domain"
)

// Credentials is a live platform session: the account snapshot plus the
// tokens needed for follow-up calls.
type Credentials struct {
	Account      domain.Account
	IDToken      string
	RefreshToken string
}

// EmailCredential is an email+password pair used for re-authentication.
type EmailCredential struct {
	Email    string
	Password string
}

// Provider is the external identity platform. Every method may fail with a
// platform error carrying a machine-readable category (domain/errors).
type Provider interface {
	// SignUp creates an account and signs it in.
	SignUp(ctx context.Context, email, password string) (*Credentials, error)
	// SignIn authenticates an existing account.
	SignIn(ctx context.Context, email, password string) (*Credentials, error)
	// SignOut revokes the refresh token. Safe to call repeatedly.
	SignOut(ctx context.Context, refreshToken string) error
	// SendVerification requests an email-verification challenge for the
	// signed-in account.
	SendVerification(ctx context.Context, idToken string) error
	// SendPasswordReset requests a password-reset email. The platform decides
	// whether to reveal account existence.
	SendPasswordReset(ctx context.Context, email string) error
	// UpdateDisplayName sets the display name and returns the fresh snapshot.
	UpdateDisplayName(ctx context.Context, idToken, displayName string) (*domain.Account, error)
	// UpdateEmail changes the account email. The platform may require recent
	// authentication (CategoryReauthRequired). Returns refreshed credentials.
	UpdateEmail(ctx context.Context, idToken, newEmail string) (*Credentials, error)
	// Reauthenticate signs in again with the account's credential to refresh
	// the session's authentication recency.
	Reauthenticate(ctx context.Context, cred EmailCredential) (*Credentials, error)
	// DeleteAccount removes the signed-in account.
	DeleteAccount(ctx context.Context, idToken string) error
	// StartPhoneChallenge begins a phone-link challenge and returns an opaque
	// confirmation handle.
	StartPhoneChallenge(ctx context.Context, idToken, phoneNumber, widgetToken string) (string, error)
	// ConfirmPhoneChallenge submits the SMS code for a pending confirmation
	// handle and returns refreshed credentials with the phone linked.
	ConfirmPhoneChallenge(ctx context.Context, idToken, confirmation, code string) (*Credentials, error)
}

// ChallengeWidget is the platform's invisible verification widget. One widget
// exists per session, keyed by its container id, created lazily and reused.
type ChallengeWidget interface {
	ContainerID() string
	// Token produces a fresh proof-of-humanity token for a challenge start.
	Token(ctx context.Context) (string, error)
}

// WidgetFactory creates challenge widgets.
type WidgetFactory interface {
	Widget(ctx context.Context, containerID string) (ChallengeWidget, error)
}
