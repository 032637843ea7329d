package identity

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/SiameseJames22/2DWORLD/internal/application/ports"
	"github.com/SiameseJames22/2DWORLD/internal/domain"
	domerrors "github.com/SiameseJames22/2DWORLD/internal/domain/errors"
)

// Client talks to the identity platform's REST API (identity-toolkit style:
// POST /v1/<endpoint>?key=<apiKey> with JSON bodies). It implements both
// ports.Provider and ports.WidgetFactory.
type Client struct {
	http    *http.Client
	baseURL string
	apiKey  string
	log     zerolog.Logger
}

// NewClient builds a platform client. timeout <= 0 defaults to 10s.
func NewClient(baseURL, apiKey string, timeout time.Duration, log zerolog.Logger) *Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		http:    &http.Client{Timeout: timeout},
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		log:     log,
	}
}

type accountPayload struct {
	LocalID       string `json:"localId"`
	Email         string `json:"email"`
	DisplayName   string `json:"displayName"`
	EmailVerified bool   `json:"emailVerified"`
	PhoneNumber   string `json:"phoneNumber"`
}

type tokenResponse struct {
	accountPayload
	IDToken      string `json:"idToken"`
	RefreshToken string `json:"refreshToken"`
}

type lookupResponse struct {
	Users []accountPayload `json:"users"`
}

func accountFrom(p accountPayload) domain.Account {
	return domain.Account{
		ID:            domain.AccountID(p.LocalID),
		Email:         p.Email,
		DisplayName:   p.DisplayName,
		EmailVerified: p.EmailVerified,
		PhoneNumber:   p.PhoneNumber,
	}
}

// SignUp implements ports.Provider.
func (c *Client) SignUp(ctx context.Context, email, password string) (*ports.Credentials, error) {
	var tok tokenResponse
	err := c.post(ctx, "accounts:signUp", map[string]any{
		"email":             email,
		"password":          password,
		"returnSecureToken": true,
	}, &tok)
	if err != nil {
		return nil, err
	}
	return c.credentials(ctx, tok.IDToken, tok.RefreshToken)
}

// SignIn implements ports.Provider.
func (c *Client) SignIn(ctx context.Context, email, password string) (*ports.Credentials, error) {
	var tok tokenResponse
	err := c.post(ctx, "accounts:signInWithPassword", map[string]any{
		"email":             email,
		"password":          password,
		"returnSecureToken": true,
	}, &tok)
	if err != nil {
		return nil, err
	}
	return c.credentials(ctx, tok.IDToken, tok.RefreshToken)
}

// SignOut revokes the refresh token.
func (c *Client) SignOut(ctx context.Context, refreshToken string) error {
	return c.post(ctx, "token:revoke", map[string]any{"refreshToken": refreshToken}, nil)
}

// SendVerification implements ports.Provider.
func (c *Client) SendVerification(ctx context.Context, idToken string) error {
	return c.post(ctx, "accounts:sendOobCode", map[string]any{
		"requestType": "VERIFY_EMAIL",
		"idToken":     idToken,
	}, nil)
}

// SendPasswordReset implements ports.Provider.
func (c *Client) SendPasswordReset(ctx context.Context, email string) error {
	return c.post(ctx, "accounts:sendOobCode", map[string]any{
		"requestType": "PASSWORD_RESET",
		"email":       email,
	}, nil)
}

// UpdateDisplayName implements ports.Provider.
func (c *Client) UpdateDisplayName(ctx context.Context, idToken, displayName string) (*domain.Account, error) {
	err := c.post(ctx, "accounts:update", map[string]any{
		"idToken":     idToken,
		"displayName": displayName,
	}, nil)
	if err != nil {
		return nil, err
	}
	return c.lookup(ctx, idToken)
}

// UpdateEmail implements ports.Provider. The platform rejects the change
// with CREDENTIAL_TOO_OLD_LOGIN_AGAIN when the session's sign-in is stale.
func (c *Client) UpdateEmail(ctx context.Context, idToken, newEmail string) (*ports.Credentials, error) {
	var tok tokenResponse
	err := c.post(ctx, "accounts:update", map[string]any{
		"idToken":           idToken,
		"email":             newEmail,
		"returnSecureToken": true,
	}, &tok)
	if err != nil {
		return nil, err
	}
	if tok.IDToken == "" {
		tok.IDToken = idToken
	}
	return c.credentials(ctx, tok.IDToken, tok.RefreshToken)
}

// Reauthenticate implements ports.Provider.
func (c *Client) Reauthenticate(ctx context.Context, cred ports.EmailCredential) (*ports.Credentials, error) {
	return c.SignIn(ctx, cred.Email, cred.Password)
}

// DeleteAccount implements ports.Provider.
func (c *Client) DeleteAccount(ctx context.Context, idToken string) error {
	return c.post(ctx, "accounts:delete", map[string]any{"idToken": idToken}, nil)
}

// StartPhoneChallenge implements ports.Provider.
func (c *Client) StartPhoneChallenge(ctx context.Context, idToken, phoneNumber, widgetToken string) (string, error) {
	var out struct {
		SessionInfo string `json:"sessionInfo"`
	}
	err := c.post(ctx, "accounts:sendVerificationCode", map[string]any{
		"idToken":        idToken,
		"phoneNumber":    phoneNumber,
		"recaptchaToken": widgetToken,
	}, &out)
	if err != nil {
		return "", err
	}
	return out.SessionInfo, nil
}

// ConfirmPhoneChallenge implements ports.Provider.
func (c *Client) ConfirmPhoneChallenge(ctx context.Context, idToken, confirmation, code string) (*ports.Credentials, error) {
	var tok tokenResponse
	err := c.post(ctx, "accounts:signInWithPhoneNumber", map[string]any{
		"idToken":     idToken,
		"sessionInfo": confirmation,
		"code":        code,
	}, &tok)
	if err != nil {
		return nil, err
	}
	if tok.IDToken == "" {
		tok.IDToken = idToken
	}
	return c.credentials(ctx, tok.IDToken, tok.RefreshToken)
}

func (c *Client) credentials(ctx context.Context, idToken, refreshToken string) (*ports.Credentials, error) {
	account, err := c.lookup(ctx, idToken)
	if err != nil {
		return nil, err
	}
	return &ports.Credentials{
		Account:      *account,
		IDToken:      idToken,
		RefreshToken: refreshToken,
	}, nil
}

func (c *Client) lookup(ctx context.Context, idToken string) (*domain.Account, error) {
	var out lookupResponse
	if err := c.post(ctx, "accounts:lookup", map[string]any{"idToken": idToken}, &out); err != nil {
		return nil, err
	}
	if len(out.Users) == 0 {
		return nil, domerrors.Platform(domerrors.CategoryUserNotFound, "USER_NOT_FOUND")
	}
	account := accountFrom(out.Users[0])
	return &account, nil
}

func (c *Client) post(ctx context.Context, endpoint string, body, out any) error {
	raw, err := json.Marshal(body)
	if err != nil {
		return err
	}
	reqURL := fmt.Sprintf("%s/v1/%s?key=%s", c.baseURL, endpoint, url.QueryEscape(c.apiKey))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, reqURL, bytes.NewReader(raw))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 400 {
		return c.platformError(endpoint, resp)
	}
	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

// platformError decodes {"error":{"message":"CODE : detail"}} into a
// category-tagged error.
func (c *Client) platformError(endpoint string, resp *http.Response) error {
	var payload struct {
		Error struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	_ = json.NewDecoder(resp.Body).Decode(&payload)
	code := errorCode(payload.Error.Message)
	if code == "" {
		c.log.Warn().Str("endpoint", endpoint).Int("status", resp.StatusCode).
			Msg("platform error without message")
		return domerrors.Platform(domerrors.CategoryUnknown, resp.Status)
	}
	return domerrors.Platform(categoryFor(code), payload.Error.Message)
}

var (
	_ ports.Provider      = (*Client)(nil)
	_ ports.WidgetFactory = (*Client)(nil)
)
