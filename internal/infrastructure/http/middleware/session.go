package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/sessions"
	"github.com/rs/zerolog"

	"github.com/SiameseJames22/2DWORLD/internal/application/identity"
)

const sessionIDField = "sid"

// SessionRegistry maps browser-session IDs (carried in a signed cookie) to
// their identity facade. Sessions hold in-memory state only, so an entry
// that goes quiet past the TTL is evicted; the next request gets a fresh,
// signed-out facade.
type SessionRegistry struct {
	store      sessions.Store
	cookieName string
	newSession func() *identity.Session
	ttl        time.Duration
	log        zerolog.Logger

	mu      sync.Mutex
	entries map[string]*registryEntry
}

type registryEntry struct {
	session  *identity.Session
	lastSeen time.Time
}

// NewSessionRegistry builds a registry backed by a cookie store signed with
// secret. newSession constructs the facade for a first-seen browser.
func NewSessionRegistry(secret []byte, cookieName string, ttl time.Duration, secureCookies bool, newSession func() *identity.Session, log zerolog.Logger) *SessionRegistry {
	store := sessions.NewCookieStore(secret)
	store.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   int(ttl / time.Second),
		HttpOnly: true,
		Secure:   secureCookies,
		SameSite: http.SameSiteLaxMode,
	}
	return &SessionRegistry{
		store:      store,
		cookieName: cookieName,
		newSession: newSession,
		ttl:        ttl,
		log:        log,
		entries:    make(map[string]*registryEntry),
	}
}

// Handler resolves (or creates) the browser session and injects it into the
// request context.
func (r *SessionRegistry) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		cookie, _ := r.store.Get(req, r.cookieName) // tampered cookie yields a fresh session
		id, _ := cookie.Values[sessionIDField].(string)
		if id == "" {
			id = uuid.NewString()
			cookie.Values[sessionIDField] = id
			if err := r.store.Save(req, w, cookie); err != nil {
				r.log.Error().Err(err).Msg("save session cookie")
				http.Error(w, `{"error":"internal error","code":"internal_error"}`, http.StatusInternalServerError)
				return
			}
		}
		info := &SessionInfo{ID: id, Session: r.lookup(id)}
		next.ServeHTTP(w, req.WithContext(WithSession(req.Context(), info)))
	})
}

func (r *SessionRegistry) lookup(id string) *identity.Session {
	now := time.Now()
	r.mu.Lock()
	defer r.mu.Unlock()
	if e, ok := r.entries[id]; ok && now.Sub(e.lastSeen) <= r.ttl {
		e.lastSeen = now
		return e.session
	}
	s := r.newSession()
	r.entries[id] = &registryEntry{session: s, lastSeen: now}
	return s
}

// Sweep evicts sessions idle past the TTL. Run it periodically.
func (r *SessionRegistry) Sweep() {
	cutoff := time.Now().Add(-r.ttl)
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, e := range r.entries {
		if e.lastSeen.Before(cutoff) {
			delete(r.entries, id)
		}
	}
}

// Len reports the number of live sessions.
func (r *SessionRegistry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}
