package handlers

import (
	"encoding/json"
	"net/http"

	domerrors "github.com/SiameseJames22/2DWORLD/internal/domain/errors"

	"github.com/SiameseJames22/2DWORLD/internal/domain"
)

// writeErr sends JSON { "error": message, "code": errCode }.
func writeErr(w http.ResponseWriter, status int, errCode, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": message, "code": errCode})
}

// writeDomainErr maps a domain error to its status/code pair and sends the
// user-facing message for it.
func writeDomainErr(w http.ResponseWriter, err error) {
	status, code := statusFor(err)
	writeErr(w, status, code, domerrors.Presentation(err))
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// accountJSON is the wire shape of an account snapshot.
type accountJSON struct {
	ID            string `json:"id"`
	Email         string `json:"email"`
	DisplayName   string `json:"display_name"`
	EmailVerified bool   `json:"email_verified"`
	PhoneNumber   string `json:"phone_number,omitempty"`
}

func accountPayload(a *domain.Account) accountJSON {
	return accountJSON{
		ID:            a.ID.String(),
		Email:         a.Email,
		DisplayName:   a.DisplayName,
		EmailVerified: a.EmailVerified,
		PhoneNumber:   a.PhoneNumber,
	}
}
