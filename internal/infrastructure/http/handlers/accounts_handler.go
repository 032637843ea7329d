package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/SiameseJames22/2DWORLD/internal/application/identity"
	"github.com/SiameseJames22/2DWORLD/internal/application/ports"
	"github.com/SiameseJames22/2DWORLD/internal/infrastructure/http/middleware"
)

// AccountsHandler exposes the identity facade over HTTP. Every route runs
// behind the session middleware, which resolves the browser's facade session
// from the signed cookie.
type AccountsHandler struct {
	enqueuer ports.TaskEnqueuer
	validate *validator.Validate
	log      zerolog.Logger
}

func NewAccountsHandler(enqueuer ports.TaskEnqueuer, log zerolog.Logger) *AccountsHandler {
	return &AccountsHandler{
		enqueuer: enqueuer,
		validate: validator.New(),
		log:      log,
	}
}

// session pulls the facade session injected by the middleware. A nil result
// means the route was mounted without it, which is a wiring bug.
func (h *AccountsHandler) session(w http.ResponseWriter, r *http.Request) *middleware.SessionInfo {
	info := middleware.SessionFromContext(r.Context())
	if info == nil {
		h.log.Error().Str("path", r.URL.Path).Msg("session middleware missing")
		writeErr(w, http.StatusInternalServerError, ErrCodeInternal, "internal error")
		return nil
	}
	return info
}

func (h *AccountsHandler) decode(w http.ResponseWriter, r *http.Request, body any) bool {
	if err := json.NewDecoder(r.Body).Decode(body); err != nil {
		writeErr(w, http.StatusBadRequest, ErrCodeInvalidRequest, "invalid body")
		return false
	}
	if err := h.validate.Struct(body); err != nil {
		writeErr(w, http.StatusBadRequest, ErrCodeInvalidRequest, err.Error())
		return false
	}
	return true
}

// audit reports the event outcome to the log, the async webhook pipeline,
// and the metrics counter.
func (h *AccountsHandler) audit(r *http.Request, info *middleware.SessionInfo, event string, success bool, errMsg string) {
	accountID := ""
	if a := info.Session.CurrentAccount(); a != nil {
		accountID = a.ID.String()
	}
	AuditEmit(h.log, r, h.enqueuer, event, info.ID, accountID, success, errMsg)
	middleware.RecordAccountEvent(event, success)
}

func (h *AccountsHandler) Register(w http.ResponseWriter, r *http.Request) {
	info := h.session(w, r)
	if info == nil {
		return
	}
	var body struct {
		Username string         `json:"username" validate:"required,max=64"`
		Email    string         `json:"email" validate:"required,email,max=254"`
		Password string         `json:"password" validate:"required,min=6,max=128"`
		Profile  map[string]any `json:"profile"`
	}
	if !h.decode(w, r, &body) {
		return
	}
	email := SanitizeEmail(body.Email)
	password := SanitizePassword(body.Password)
	if email == "" || password == "" {
		writeErr(w, http.StatusBadRequest, ErrCodeInvalidRequest, "invalid email or password length")
		return
	}
	account, err := info.Session.Register(r.Context(), identity.RegisterInput{
		Handle:   body.Username,
		Email:    email,
		Password: password,
		Profile:  body.Profile,
	})
	if err != nil {
		h.audit(r, info, "account.register", false, err.Error())
		writeDomainErr(w, err)
		return
	}
	h.audit(r, info, "account.register", true, "")
	writeJSON(w, http.StatusCreated, accountPayload(account))
}

func (h *AccountsHandler) Login(w http.ResponseWriter, r *http.Request) {
	info := h.session(w, r)
	if info == nil {
		return
	}
	var body struct {
		Email    string `json:"email" validate:"required,email,max=254"`
		Password string `json:"password" validate:"required,max=128"`
	}
	if !h.decode(w, r, &body) {
		return
	}
	account, err := info.Session.LoginWithEmail(r.Context(), SanitizeEmail(body.Email), body.Password)
	if err != nil {
		h.audit(r, info, "account.login", false, err.Error())
		writeDomainErr(w, err)
		return
	}
	h.audit(r, info, "account.login", true, "")
	writeJSON(w, http.StatusOK, accountPayload(account))
}

func (h *AccountsHandler) Logout(w http.ResponseWriter, r *http.Request) {
	info := h.session(w, r)
	if info == nil {
		return
	}
	if err := info.Session.Logout(r.Context()); err != nil {
		h.audit(r, info, "account.logout", false, err.Error())
		writeDomainErr(w, err)
		return
	}
	h.audit(r, info, "account.logout", true, "")
	w.WriteHeader(http.StatusNoContent)
}

// Session reports the browser session's authentication state.
func (h *AccountsHandler) Session(w http.ResponseWriter, r *http.Request) {
	info := h.session(w, r)
	if info == nil {
		return
	}
	account := info.Session.CurrentAccount()
	if account == nil {
		writeJSON(w, http.StatusOK, map[string]any{"signed_in": false})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"signed_in": true,
		"account":   accountPayload(account),
	})
}

// ResetPassword always answers 202: account existence is the platform's
// secret to keep.
func (h *AccountsHandler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	info := h.session(w, r)
	if info == nil {
		return
	}
	var body struct {
		Email string `json:"email" validate:"required,email,max=254"`
	}
	if !h.decode(w, r, &body) {
		return
	}
	if err := info.Session.ResetPassword(r.Context(), SanitizeEmail(body.Email)); err != nil {
		h.audit(r, info, "account.reset_password", false, err.Error())
		writeDomainErr(w, err)
		return
	}
	h.audit(r, info, "account.reset_password", true, "")
	writeJSON(w, http.StatusAccepted, map[string]string{"status": "sent"})
}

func (h *AccountsHandler) ResendVerification(w http.ResponseWriter, r *http.Request) {
	info := h.session(w, r)
	if info == nil {
		return
	}
	if err := info.Session.ResendVerification(r.Context()); err != nil {
		h.audit(r, info, "account.resend_verification", false, err.Error())
		writeDomainErr(w, err)
		return
	}
	h.audit(r, info, "account.resend_verification", true, "")
	writeJSON(w, http.StatusAccepted, map[string]string{"status": "sent"})
}

func (h *AccountsHandler) ChangeEmail(w http.ResponseWriter, r *http.Request) {
	info := h.session(w, r)
	if info == nil {
		return
	}
	var body struct {
		NewEmail        string `json:"new_email" validate:"required,email,max=254"`
		CurrentPassword string `json:"current_password" validate:"max=128"`
	}
	if !h.decode(w, r, &body) {
		return
	}
	err := info.Session.ChangeEmail(r.Context(), SanitizeEmail(body.NewEmail), body.CurrentPassword)
	if err != nil {
		h.audit(r, info, "account.change_email", false, err.Error())
		writeDomainErr(w, err)
		return
	}
	h.audit(r, info, "account.change_email", true, "")
	writeJSON(w, http.StatusOK, accountPayload(info.Session.CurrentAccount()))
}

func (h *AccountsHandler) LinkPhone(w http.ResponseWriter, r *http.Request) {
	info := h.session(w, r)
	if info == nil {
		return
	}
	var body struct {
		PhoneNumber string `json:"phone_number" validate:"required,max=32"`
	}
	if !h.decode(w, r, &body) {
		return
	}
	phone := SanitizePhone(body.PhoneNumber)
	if phone == "" {
		writeErr(w, http.StatusBadRequest, ErrCodeInvalidRequest, "invalid phone number")
		return
	}
	if err := info.Session.LinkPhoneNumber(r.Context(), phone); err != nil {
		h.audit(r, info, "account.phone_link", false, err.Error())
		writeDomainErr(w, err)
		return
	}
	h.audit(r, info, "account.phone_link", true, "")
	writeJSON(w, http.StatusAccepted, map[string]string{"status": "code_sent"})
}

func (h *AccountsHandler) ConfirmPhone(w http.ResponseWriter, r *http.Request) {
	info := h.session(w, r)
	if info == nil {
		return
	}
	var body struct {
		Code string `json:"code" validate:"required,max=16"`
	}
	if !h.decode(w, r, &body) {
		return
	}
	account, err := info.Session.ConfirmPhoneCode(r.Context(), body.Code)
	if err != nil {
		h.audit(r, info, "account.phone_confirm", false, err.Error())
		writeDomainErr(w, err)
		return
	}
	h.audit(r, info, "account.phone_confirm", true, "")
	writeJSON(w, http.StatusOK, accountPayload(account))
}
