package memory

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/SiameseJames22/2DWORLD/internal/application/ports"
	"github.com/SiameseJames22/2DWORLD/internal/domain"
	domerrors "github.com/SiameseJames22/2DWORLD/internal/domain/errors"
	"github.com/SiameseJames22/2DWORLD/internal/infrastructure/security"
)

// recentWindow is how long after sign-in a session counts as recently
// authenticated for sensitive operations.
const recentWindow = 5 * time.Minute

type account struct {
	id           string
	email        string
	passwordHash string
	displayName  string
	phone        string
	verified     bool
}

// Provider is an in-process stand-in for the identity platform, used when
// IDENTITY_BASE_URL is not configured. Passwords are argon2id-hashed; email
// and SMS deliveries are log-only. Single-instance development use.
type Provider struct {
	mu         sync.Mutex
	hasher     *security.Argon2Hasher
	byEmail    map[string]*account
	tokens     map[string]*account
	mintedAt   map[string]time.Time
	challenges map[string]challenge
	log        zerolog.Logger
}

type challenge struct {
	phone string
	code  string
}

// NewProvider returns an empty dev provider.
func NewProvider(log zerolog.Logger) *Provider {
	return &Provider{
		hasher:     security.NewArgon2Hasher(security.DefaultArgon2Params()),
		byEmail:    make(map[string]*account),
		tokens:     make(map[string]*account),
		mintedAt:   make(map[string]time.Time),
		challenges: make(map[string]challenge),
		log:        log,
	}
}

func (p *Provider) snapshot(a *account) domain.Account {
	return domain.Account{
		ID:            domain.AccountID(a.id),
		Email:         a.email,
		DisplayName:   a.displayName,
		EmailVerified: a.verified,
		PhoneNumber:   a.phone,
	}
}

// mint issues a fresh token pair. Callers must hold mu.
func (p *Provider) mint(a *account) *ports.Credentials {
	tok := uuid.NewString()
	p.tokens[tok] = a
	p.mintedAt[tok] = time.Now()
	return &ports.Credentials{
		Account:      p.snapshot(a),
		IDToken:      tok,
		RefreshToken: "refresh-" + tok,
	}
}

func (p *Provider) resolve(idToken string) (*account, error) {
	a, ok := p.tokens[idToken]
	if !ok {
		return nil, domerrors.Platform(domerrors.CategoryUnknown, "INVALID_ID_TOKEN")
	}
	return a, nil
}

// SignUp implements ports.Provider.
func (p *Provider) SignUp(ctx context.Context, email, password string) (*ports.Credentials, error) {
	if len(password) < 6 {
		return nil, domerrors.Platform(domerrors.CategoryWeakPassword, "WEAK_PASSWORD : Password should be at least 6 characters")
	}
	hash, err := p.hasher.Hash(password)
	if err != nil {
		return nil, err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if _, ok := p.byEmail[email]; ok {
		return nil, domerrors.Platform(domerrors.CategoryEmailInUse, "EMAIL_EXISTS")
	}
	a := &account{id: uuid.NewString(), email: email, passwordHash: hash}
	p.byEmail[email] = a
	return p.mint(a), nil
}

// SignIn implements ports.Provider.
func (p *Provider) SignIn(ctx context.Context, email, password string) (*ports.Credentials, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	a, ok := p.byEmail[email]
	if !ok {
		return nil, domerrors.Platform(domerrors.CategoryUserNotFound, "EMAIL_NOT_FOUND")
	}
	if !p.hasher.Verify(password, a.passwordHash) {
		return nil, domerrors.Platform(domerrors.CategoryWrongPassword, "INVALID_PASSWORD")
	}
	return p.mint(a), nil
}

// SignOut implements ports.Provider.
func (p *Provider) SignOut(ctx context.Context, refreshToken string) error {
	return nil
}

// SendVerification implements ports.Provider. Dev: log only.
func (p *Provider) SendVerification(ctx context.Context, idToken string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	a, err := p.resolve(idToken)
	if err != nil {
		return err
	}
	p.log.Info().Str("email", a.email).Msg("verification email (log only)")
	return nil
}

// SendPasswordReset implements ports.Provider. Dev: log only; existence is
// never revealed to the caller.
func (p *Provider) SendPasswordReset(ctx context.Context, email string) error {
	p.log.Info().Str("email", email).Msg("password reset email (log only)")
	return nil
}

// UpdateDisplayName implements ports.Provider.
func (p *Provider) UpdateDisplayName(ctx context.Context, idToken, displayName string) (*domain.Account, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	a, err := p.resolve(idToken)
	if err != nil {
		return nil, err
	}
	a.displayName = displayName
	snap := p.snapshot(a)
	return &snap, nil
}

// UpdateEmail implements ports.Provider. Requires a recently minted token.
func (p *Provider) UpdateEmail(ctx context.Context, idToken, newEmail string) (*ports.Credentials, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	a, err := p.resolve(idToken)
	if err != nil {
		return nil, err
	}
	if time.Since(p.mintedAt[idToken]) > recentWindow {
		return nil, domerrors.Platform(domerrors.CategoryReauthRequired, "CREDENTIAL_TOO_OLD_LOGIN_AGAIN")
	}
	if _, taken := p.byEmail[newEmail]; taken {
		return nil, domerrors.Platform(domerrors.CategoryEmailInUse, "EMAIL_EXISTS")
	}
	delete(p.byEmail, a.email)
	a.email = newEmail
	a.verified = false
	p.byEmail[newEmail] = a
	return p.mint(a), nil
}

// Reauthenticate implements ports.Provider.
func (p *Provider) Reauthenticate(ctx context.Context, cred ports.EmailCredential) (*ports.Credentials, error) {
	return p.SignIn(ctx, cred.Email, cred.Password)
}

// DeleteAccount implements ports.Provider.
func (p *Provider) DeleteAccount(ctx context.Context, idToken string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	a, err := p.resolve(idToken)
	if err != nil {
		return err
	}
	delete(p.byEmail, a.email)
	return nil
}

// StartPhoneChallenge implements ports.Provider. The SMS code is logged
// instead of sent.
func (p *Provider) StartPhoneChallenge(ctx context.Context, idToken, phoneNumber, widgetToken string) (string, error) {
	if widgetToken == "" {
		return "", domerrors.Platform(domerrors.CategoryUnknown, "CAPTCHA_CHECK_FAILED")
	}
	code, err := smsCode()
	if err != nil {
		return "", err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if _, err := p.resolve(idToken); err != nil {
		return "", err
	}
	conf := uuid.NewString()
	p.challenges[conf] = challenge{phone: phoneNumber, code: code}
	p.log.Info().Str("phone", phoneNumber).Str("code", code).Msg("SMS code (log only)")
	return conf, nil
}

// ConfirmPhoneChallenge implements ports.Provider. The confirmation handle
// is consumed on first use, right or wrong.
func (p *Provider) ConfirmPhoneChallenge(ctx context.Context, idToken, confirmation, code string) (*ports.Credentials, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	a, err := p.resolve(idToken)
	if err != nil {
		return nil, err
	}
	ch, ok := p.challenges[confirmation]
	if !ok {
		return nil, domerrors.Platform(domerrors.CategoryInvalidSMSCode, "SESSION_EXPIRED")
	}
	delete(p.challenges, confirmation)
	if code == "" {
		return nil, domerrors.Platform(domerrors.CategoryMissingSMSCode, "MISSING_CODE")
	}
	if code != ch.code {
		return nil, domerrors.Platform(domerrors.CategoryInvalidSMSCode, "INVALID_CODE")
	}
	a.phone = ch.phone
	return p.mint(a), nil
}

// Widget implements ports.WidgetFactory with a static dev token.
func (p *Provider) Widget(ctx context.Context, containerID string) (ports.ChallengeWidget, error) {
	return devWidget{container: containerID}, nil
}

type devWidget struct{ container string }

func (w devWidget) ContainerID() string { return w.container }

func (w devWidget) Token(ctx context.Context) (string, error) { return "dev-widget-token", nil }

func smsCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1000000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}

var (
	_ ports.Provider      = (*Provider)(nil)
	_ ports.WidgetFactory = (*Provider)(nil)
)
