package http

import (
	"crypto/rand"
	"encoding/hex"
	"net/http"
	"sync"
	"time"

	"betledger/internal/auth"
)

const sessionCookieName = "betledger_session"

// sessionStore keeps opaque login tokens in memory. Tokens survive only
// for the lifetime of the process; restarting the server logs everyone out.
type sessionStore struct {
	mu       sync.Mutex
	sessions map[string]session
	ttl      time.Duration
}

type session struct {
	user      auth.Identity
	expiresAt time.Time
}

func newSessionStore(ttl time.Duration) *sessionStore {
	return &sessionStore{
		sessions: make(map[string]session),
		ttl:      ttl,
	}
}

// create issues a fresh token for the user.
func (ss *sessionStore) create(user auth.Identity) string {
	token := newSessionToken()
	ss.mu.Lock()
	defer ss.mu.Unlock()
	ss.sessions[token] = session{
		user:      user,
		expiresAt: time.Now().Add(ss.ttl),
	}
	return token
}

// lookup resolves a token to its user. Expired tokens are removed on access.
func (ss *sessionStore) lookup(token string) (auth.Identity, bool) {
	ss.mu.Lock()
	defer ss.mu.Unlock()

	sess, ok := ss.sessions[token]
	if !ok {
		return "", false
	}
	if time.Now().After(sess.expiresAt) {
		delete(ss.sessions, token)
		return "", false
	}
	return sess.user, true
}

// destroy invalidates a token. Unknown tokens are a no-op.
func (ss *sessionStore) destroy(token string) {
	ss.mu.Lock()
	defer ss.mu.Unlock()
	delete(ss.sessions, token)
}

// cleanExpired removes all expired sessions and reports how many were dropped.
func (ss *sessionStore) cleanExpired() int {
	ss.mu.Lock()
	defer ss.mu.Unlock()

	now := time.Now()
	removed := 0
	for token, sess := range ss.sessions {
		if now.After(sess.expiresAt) {
			delete(ss.sessions, token)
			removed++
		}
	}
	return removed
}

func newSessionToken() string {
	bytes := make([]byte, 32)
	if _, err := rand.Read(bytes); err != nil {
		// crypto/rand failing means the process is in serious trouble
		panic("session token generation failed: " + err.Error())
	}
	return hex.EncodeToString(bytes)
}

func setSessionCookie(w http.ResponseWriter, token string, ttl time.Duration) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(ttl.Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

func clearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}
