package identity

import (
	"context"

	"github.com/SiameseJames22/2DWORLD/internal/application/ports"
	domerrors "github.com/SiameseJames22/2DWORLD/internal/domain/errors"
)

// ResendVerification requests a fresh email-verification challenge for the
// signed-in account.
func (s *Session) ResendVerification(ctx context.Context) error {
	creds := s.currentCreds()
	if creds == nil {
		return domerrors.NotSignedIn()
	}
	return s.provider.SendVerification(ctx, creds.IDToken)
}

// ResetPassword requests a password-reset email. No local account-existence
// check: the platform decides what to reveal.
func (s *Session) ResetPassword(ctx context.Context, email string) error {
	return s.provider.SendPasswordReset(ctx, email)
}

// ChangeEmail updates the signed-in account's email and requests
// verification for the new address. When the platform demands recent
// authentication and currentPassword was supplied, the session
// re-authenticates with the existing email and retries once; with no
// password the original error propagates.
func (s *Session) ChangeEmail(ctx context.Context, newEmail, currentPassword string) error {
	creds := s.currentCreds()
	if creds == nil {
		return domerrors.NotSignedIn()
	}

	updated, err := s.provider.UpdateEmail(ctx, creds.IDToken, newEmail)
	if err != nil {
		if !domerrors.HasCategory(err, domerrors.CategoryReauthRequired) || currentPassword == "" {
			return err
		}
		reauthed, rerr := s.provider.Reauthenticate(ctx, ports.EmailCredential{
			Email:    creds.Account.Email,
			Password: currentPassword,
		})
		if rerr != nil {
			return rerr
		}
		s.setCredentials(reauthed)
		updated, err = s.provider.UpdateEmail(ctx, reauthed.IDToken, newEmail)
		if err != nil {
			return err
		}
	}
	s.setCredentials(updated)
	return s.provider.SendVerification(ctx, updated.IDToken)
}
