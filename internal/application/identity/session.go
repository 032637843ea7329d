package identity

import (
	"context"
	"sync"

	"github.com/rs/zerolog"

	"github.com/SiameseJames22/2DWORLD/internal/application/ports"
	"github.com/SiameseJames22/2DWORLD/internal/application/username"
	"github.com/SiameseJames22/2DWORLD/internal/domain"
)

type challengeState int

const (
	challengeIdle challengeState = iota
	challengeWidgetReady
	challengeConfirmationPending
)

// Session is the identity facade for one user session. It sequences
// multi-step platform operations, owns the session's phone-challenge state
// machine, and publishes authentication-state changes to subscribers.
//
// All mutable state lives behind one mutex; callbacks run outside it.
type Session struct {
	provider ports.Provider
	claims   *username.Service
	widgets  ports.WidgetFactory
	log      zerolog.Logger

	mu          sync.Mutex
	creds       *ports.Credentials
	watchers    map[int]func(*domain.Account)
	nextWatcher int

	widget       ports.ChallengeWidget
	challenge    challengeState
	confirmation string
}

// NewSession builds a facade session. All dependencies are required except
// widgets, which is only exercised by the phone-link flow.
func NewSession(provider ports.Provider, claims *username.Service, widgets ports.WidgetFactory, log zerolog.Logger) *Session {
	return &Session{
		provider: provider,
		claims:   claims,
		widgets:  widgets,
		log:      log,
		watchers: make(map[int]func(*domain.Account)),
	}
}

// CurrentAccount returns a snapshot of the signed-in account, or nil.
func (s *Session) CurrentAccount() *domain.Account {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.creds == nil {
		return nil
	}
	a := s.creds.Account
	return &a
}

// Logout signs out of the platform and clears the session. Idempotent: a
// second call with no signed-in account is a no-op. Token revocation is
// best effort; the local session is cleared regardless.
func (s *Session) Logout(ctx context.Context) error {
	s.mu.Lock()
	creds := s.creds
	s.mu.Unlock()
	if creds == nil {
		return nil
	}
	if err := s.provider.SignOut(ctx, creds.RefreshToken); err != nil {
		s.log.Warn().Err(err).Msg("sign-out token revoke failed")
	}
	s.clearCredentials()
	return nil
}

func (s *Session) currentCreds() *ports.Credentials {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.creds == nil {
		return nil
	}
	c := *s.creds
	return &c
}

// setCredentials installs a new platform session and notifies watchers.
func (s *Session) setCredentials(creds *ports.Credentials) {
	s.mu.Lock()
	s.creds = creds
	s.mu.Unlock()
	s.notify()
}

// clearCredentials drops the platform session. A pending phone confirmation
// is invalidated with it; the widget survives for the next sign-in.
func (s *Session) clearCredentials() {
	s.mu.Lock()
	s.creds = nil
	s.confirmation = ""
	if s.challenge == challengeConfirmationPending {
		s.challenge = s.idleState()
	}
	s.mu.Unlock()
	s.notify()
}

// idleState is the resting challenge state given widget presence.
// Callers must hold mu.
func (s *Session) idleState() challengeState {
	if s.widget != nil {
		return challengeWidgetReady
	}
	return challengeIdle
}
