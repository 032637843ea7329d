package username

import (
	"context"
	"regexp"
	"strings"

	"github.com/rs/zerolog"

	"github.com/SiameseJames22/2DWORLD/internal/application/ports"
	"github.com/SiameseJames22/2DWORLD/internal/domain"
	domerrors "github.com/SiameseJames22/2DWORLD/internal/domain/errors"
)

// MinHandleLength is the shortest normalized handle accepted.
const MinHandleLength = 3

const (
	collectionUsernames = "usernames"
	collectionProfiles  = "profiles"
)

var (
	whitespaceRun = regexp.MustCompile(`\s+`)
	disallowed    = regexp.MustCompile(`[^a-z0-9_.]`)
)

// NormalizeHandle canonicalizes a human-chosen handle: trim, lowercase,
// collapse whitespace runs to a single underscore, strip everything outside
// [a-z0-9_.]. Idempotent.
func NormalizeHandle(raw string) string {
	h := strings.ToLower(strings.TrimSpace(raw))
	h = whitespaceRun.ReplaceAllString(h, "_")
	return disallowed.ReplaceAllString(h, "")
}

// Service atomically reserves a handle and writes the owning account's
// profile in the same commit.
type Service struct {
	store ports.DocStore
	log   zerolog.Logger
}

// NewService builds the claim service.
func NewService(store ports.DocStore, log zerolog.Logger) *Service {
	return &Service{store: store, log: log}
}

// Claim normalizes and validates rawHandle, then creates exactly one
// username record and upserts the account's profile record in one
// transaction. Racing claims on the same handle resolve to one winner; the
// loser gets HandleTaken. Validation failures happen before any store I/O.
func (s *Service) Claim(ctx context.Context, accountID domain.AccountID, rawHandle, email string, profile map[string]any) (string, error) {
	handle := NormalizeHandle(rawHandle)
	if len(handle) < MinHandleLength {
		return "", domerrors.InvalidHandle(MinHandleLength)
	}

	nameRef := ports.Ref{Collection: collectionUsernames, Key: handle}
	profileRef := ports.Ref{Collection: collectionProfiles, Key: accountID.String()}

	err := s.store.RunTransaction(ctx, func(tx ports.Tx) error {
		_, exists, err := tx.Get(nameRef)
		if err != nil {
			return err
		}
		if exists {
			return domerrors.HandleTaken(handle)
		}
		if err := tx.Set(nameRef, ports.Document{
			"account_id": accountID.String(),
			"created_at": ports.ServerTimestamp,
		}); err != nil {
			return err
		}
		doc := ports.Document{
			"username": handle,
			"email":    email,
		}
		for k, v := range profile {
			doc[k] = v
		}
		doc["created_at"] = ports.ServerTimestamp
		return tx.Merge(profileRef, doc)
	})
	if err != nil {
		return "", err
	}
	s.log.Debug().Str("handle", handle).Str("account_id", accountID.String()).Msg("username claimed")
	return handle, nil
}
