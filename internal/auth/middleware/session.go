package auth

import (
	"net/http"

	"github.com/gorilla/sessions"
)

const (
	sessKeyUserID = "user_id"
	sessKeyRole   = "role"
)

// SessionStore keeps the logged-in user in a signed cookie.
type SessionStore struct {
	store *sessions.CookieStore
	name  string
}

func NewSessionStore(secret, name string, secure bool) *SessionStore {
	cs := sessions.NewCookieStore([]byte(secret))
	cs.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   int(DefaultTokenTTL.Seconds()),
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	}
	if name == "" {
		name = "webmath-session"
	}
	return &SessionStore{store: cs, name: name}
}

func (s *SessionStore) Login(w http.ResponseWriter, r *http.Request, userID, role string) error {
	sess, _ := s.store.Get(r, s.name) // a decode error yields a fresh session
	sess.Values[sessKeyUserID] = userID
	sess.Values[sessKeyRole] = role
	return sess.Save(r, w)
}

func (s *SessionStore) Logout(w http.ResponseWriter, r *http.Request) error {
	sess, _ := s.store.Get(r, s.name)
	sess.Values = map[interface{}]interface{}{}
	sess.Options.MaxAge = -1
	return sess.Save(r, w)
}

// Current returns the user id and role stored in the session cookie.
func (s *SessionStore) Current(r *http.Request) (userID, role string, ok bool) {
	sess, err := s.store.Get(r, s.name)
	if err != nil {
		return "", "", false
	}
	userID, _ = sess.Values[sessKeyUserID].(string)
	role, _ = sess.Values[sessKeyRole].(string)
	return userID, role, userID != ""
}
