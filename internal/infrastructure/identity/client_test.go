package identity

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domerrors "github.com/SiameseJames22/2DWORLD/internal/domain/errors"
)

func platformStub(t *testing.T, handlers map[string]http.HandlerFunc) *Client {
	t.Helper()
	mux := http.NewServeMux()
	for endpoint, h := range handlers {
		mux.HandleFunc("/v1/"+endpoint, h)
	}
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return NewClient(srv.URL, "test-key", time.Second, zerolog.Nop())
}

func writeError(w http.ResponseWriter, message string) {
	w.WriteHeader(http.StatusBadRequest)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"error": map[string]any{"message": message},
	})
}

func TestSignUpFetchesAccountSnapshot(t *testing.T) {
	client := platformStub(t, map[string]http.HandlerFunc{
		"accounts:signUp": func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "test-key", r.URL.Query().Get("key"))
			var body map[string]any
			require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			assert.Equal(t, "a@x.com", body["email"])
			_ = json.NewEncoder(w).Encode(map[string]any{
				"localId":      "u1",
				"idToken":      "tok-1",
				"refreshToken": "refresh-1",
			})
		},
		"accounts:lookup": func(w http.ResponseWriter, r *http.Request) {
			_ = json.NewEncoder(w).Encode(map[string]any{
				"users": []map[string]any{{
					"localId":       "u1",
					"email":         "a@x.com",
					"emailVerified": false,
				}},
			})
		},
	})

	creds, err := client.SignUp(context.Background(), "a@x.com", "hunter22")
	require.NoError(t, err)
	assert.Equal(t, "u1", creds.Account.ID.String())
	assert.Equal(t, "a@x.com", creds.Account.Email)
	assert.Equal(t, "tok-1", creds.IDToken)
	assert.Equal(t, "refresh-1", creds.RefreshToken)
}

func TestSignInErrorCategories(t *testing.T) {
	cases := []struct {
		code string
		want domerrors.Category
	}{
		{"INVALID_EMAIL", domerrors.CategoryInvalidEmail},
		{"EMAIL_EXISTS", domerrors.CategoryEmailInUse},
		{"WEAK_PASSWORD : Password should be at least 6 characters", domerrors.CategoryWeakPassword},
		{"INVALID_PASSWORD", domerrors.CategoryWrongPassword},
		{"INVALID_LOGIN_CREDENTIALS", domerrors.CategoryWrongPassword},
		{"EMAIL_NOT_FOUND", domerrors.CategoryUserNotFound},
		{"TOO_MANY_ATTEMPTS_TRY_LATER : Try again later.", domerrors.CategoryTooManyRequests},
		{"CREDENTIAL_TOO_OLD_LOGIN_AGAIN", domerrors.CategoryReauthRequired},
		{"INVALID_CODE", domerrors.CategoryInvalidSMSCode},
		{"MISSING_CODE", domerrors.CategoryMissingSMSCode},
		{"SOMETHING_NEW", domerrors.CategoryUnknown},
	}
	for _, tc := range cases {
		t.Run(tc.code, func(t *testing.T) {
			client := platformStub(t, map[string]http.HandlerFunc{
				"accounts:signInWithPassword": func(w http.ResponseWriter, r *http.Request) {
					writeError(w, tc.code)
				},
			})
			_, err := client.SignIn(context.Background(), "a@x.com", "pw")
			assert.True(t, domerrors.HasCategory(err, tc.want), "code %q", tc.code)
		})
	}
}

func TestSendOobCodeRequestTypes(t *testing.T) {
	var seen []string
	client := platformStub(t, map[string]http.HandlerFunc{
		"accounts:sendOobCode": func(w http.ResponseWriter, r *http.Request) {
			var body map[string]any
			require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			seen = append(seen, body["requestType"].(string))
			_ = json.NewEncoder(w).Encode(map[string]any{})
		},
	})

	require.NoError(t, client.SendVerification(context.Background(), "tok-1"))
	require.NoError(t, client.SendPasswordReset(context.Background(), "a@x.com"))
	assert.Equal(t, []string{"VERIFY_EMAIL", "PASSWORD_RESET"}, seen)
}

func TestPhoneChallengeRoundTrip(t *testing.T) {
	client := platformStub(t, map[string]http.HandlerFunc{
		"accounts:sendVerificationCode": func(w http.ResponseWriter, r *http.Request) {
			var body map[string]any
			require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			assert.Equal(t, "+15551234567", body["phoneNumber"])
			assert.Equal(t, "widget-tok", body["recaptchaToken"])
			_ = json.NewEncoder(w).Encode(map[string]any{"sessionInfo": "conf-1"})
		},
		"accounts:signInWithPhoneNumber": func(w http.ResponseWriter, r *http.Request) {
			var body map[string]any
			require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			assert.Equal(t, "conf-1", body["sessionInfo"])
			assert.Equal(t, "123456", body["code"])
			_ = json.NewEncoder(w).Encode(map[string]any{
				"localId": "u1", "idToken": "tok-2", "refreshToken": "refresh-2",
			})
		},
		"accounts:lookup": func(w http.ResponseWriter, r *http.Request) {
			_ = json.NewEncoder(w).Encode(map[string]any{
				"users": []map[string]any{{
					"localId":     "u1",
					"email":       "a@x.com",
					"phoneNumber": "+15551234567",
				}},
			})
		},
	})

	conf, err := client.StartPhoneChallenge(context.Background(), "tok-1", "+15551234567", "widget-tok")
	require.NoError(t, err)
	assert.Equal(t, "conf-1", conf)

	creds, err := client.ConfirmPhoneChallenge(context.Background(), "tok-1", conf, "123456")
	require.NoError(t, err)
	assert.Equal(t, "+15551234567", creds.Account.PhoneNumber)
	assert.Equal(t, "tok-2", creds.IDToken)
}

func TestErrorCode(t *testing.T) {
	assert.Equal(t, "EMAIL_EXISTS", errorCode("EMAIL_EXISTS"))
	assert.Equal(t, "WEAK_PASSWORD", errorCode("WEAK_PASSWORD : too short"))
	assert.Equal(t, "INVALID_CODE", errorCode("INVALID_CODE: bad"))
	assert.Equal(t, "", errorCode("  "))
}
