package identity

import (
	"context"

	"github.com/SiameseJames22/2DWORLD/internal/domain"
)

// RegisterInput is the registration form. Profile carries optional
// demographic fields stored verbatim on the profile record.
type RegisterInput struct {
	Handle   string
	Email    string
	Password string
	Profile  map[string]any
}

// Register creates the platform account, claims the handle, sets the display
// name to the normalized handle, and requests an email-verification
// challenge. When the claim (or the display-name write) fails, the
// just-created account is deleted best-effort and the original error is
// re-raised; a deletion failure is logged, never surfaced.
func (s *Session) Register(ctx context.Context, input RegisterInput) (*domain.Account, error) {
	creds, err := s.provider.SignUp(ctx, input.Email, input.Password)
	if err != nil {
		return nil, err
	}
	s.setCredentials(creds)

	handle, err := s.claims.Claim(ctx, creds.Account.ID, input.Handle, input.Email, input.Profile)
	if err == nil {
		var account *domain.Account
		account, err = s.provider.UpdateDisplayName(ctx, creds.IDToken, handle)
		if err == nil {
			creds.Account = *account
		}
	}
	if err != nil {
		if delErr := s.provider.DeleteAccount(ctx, creds.IDToken); delErr != nil {
			s.log.Warn().Err(delErr).
				Str("account_id", creds.Account.ID.String()).
				Msg("rollback delete after failed claim")
		}
		s.clearCredentials()
		return nil, err
	}
	s.setCredentials(creds)

	if err := s.provider.SendVerification(ctx, creds.IDToken); err != nil {
		return nil, err
	}
	account := creds.Account
	return &account, nil
}

// LoginWithEmail authenticates against the platform and installs the
// session. Platform errors propagate unchanged in kind.
func (s *Session) LoginWithEmail(ctx context.Context, email, password string) (*domain.Account, error) {
	creds, err := s.provider.SignIn(ctx, email, password)
	if err != nil {
		return nil, err
	}
	s.setCredentials(creds)
	account := creds.Account
	return &account, nil
}
