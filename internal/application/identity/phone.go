package identity

import (
	"context"

	"github.com/SiameseJames22/2DWORLD/internal/application/ports"
	"github.com/SiameseJames22/2DWORLD/internal/domain"
	domerrors "github.com/SiameseJames22/2DWORLD/internal/domain/errors"
)

// defaultWidgetContainer keys the session's single invisible verification
// widget.
const defaultWidgetContainer = "phone-verifier"

// LinkPhoneNumber starts the two-phase phone-link challenge. The session's
// verification widget is created lazily on first use and reused afterwards.
// A second call while a confirmation is still outstanding is rejected with
// ChallengeAlreadyPending instead of overwriting the pending handle.
func (s *Session) LinkPhoneNumber(ctx context.Context, phoneNumber string) error {
	s.mu.Lock()
	if s.creds == nil {
		s.mu.Unlock()
		return domerrors.NotSignedIn()
	}
	if s.challenge == challengeConfirmationPending {
		s.mu.Unlock()
		return domerrors.ChallengeAlreadyPending()
	}
	idToken := s.creds.IDToken
	widget := s.widget
	s.mu.Unlock()

	if widget == nil {
		created, err := s.widgets.Widget(ctx, defaultWidgetContainer)
		if err != nil {
			return err
		}
		s.mu.Lock()
		if s.widget == nil {
			s.widget = created
			if s.challenge == challengeIdle {
				s.challenge = challengeWidgetReady
			}
		}
		widget = s.widget
		s.mu.Unlock()
	}

	token, err := widget.Token(ctx)
	if err != nil {
		return err
	}
	confirmation, err := s.provider.StartPhoneChallenge(ctx, idToken, phoneNumber, token)
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.confirmation = confirmation
	s.challenge = challengeConfirmationPending
	s.mu.Unlock()
	return nil
}

// ConfirmPhoneCode submits the SMS code for the pending confirmation and
// returns the account with the phone linked. The pending handle is consumed
// up front, so it is cleared whether the platform accepts the code or not;
// a failed code requires a fresh LinkPhoneNumber.
func (s *Session) ConfirmPhoneCode(ctx context.Context, code string) (*domain.Account, error) {
	s.mu.Lock()
	if s.challenge != challengeConfirmationPending {
		s.mu.Unlock()
		return nil, domerrors.NoChallengePending()
	}
	confirmation := s.confirmation
	s.confirmation = ""
	s.challenge = s.idleState()
	var creds *ports.Credentials
	if s.creds != nil {
		c := *s.creds
		creds = &c
	}
	s.mu.Unlock()

	if creds == nil {
		return nil, domerrors.NotSignedIn()
	}
	refreshed, err := s.provider.ConfirmPhoneChallenge(ctx, creds.IDToken, confirmation, code)
	if err != nil {
		return nil, err
	}
	s.setCredentials(refreshed)
	account := refreshed.Account
	return &account, nil
}
