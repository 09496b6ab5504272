package auth

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/NesmitC/project-webmath/internal/rbac"
)

type roles map[string]string

func (m roles) Role(_ context.Context, id string) (string, error) {
	r, ok := m[id]
	if !ok {
		return "", errors.New("not found")
	}
	return r, nil
}

func echoIdentity() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(SubjectFromContext(r.Context()) + "/" + rbac.RoleFromContext(r.Context())))
	})
}

func TestIssueAndParse(t *testing.T) {
	a := NewAuthService("s3cret")
	tok, err := a.IssueJWT("u1", "teacher")
	require.NoError(t, err)

	c, err := a.Parse(tok)
	require.NoError(t, err)
	assert.Equal(t, "u1", c.Sub)
	assert.Equal(t, "teacher", c.Role)

	_, err = NewAuthService("other").Parse(tok)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestConfirmToken(t *testing.T) {
	a := NewAuthService("s3cret")

	tok, err := a.MakeConfirmToken("u42", time.Hour)
	require.NoError(t, err)
	id, err := a.VerifyConfirmToken(tok)
	require.NoError(t, err)
	assert.Equal(t, "u42", id)

	expired, err := a.MakeConfirmToken("u42", -time.Minute)
	require.NoError(t, err)
	_, err = a.VerifyConfirmToken(expired)
	assert.ErrorIs(t, err, ErrTokenExpired)

	access, err := a.IssueJWT("u42", "student")
	require.NoError(t, err)
	_, err = a.VerifyConfirmToken(access)
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = a.VerifyConfirmToken("garbage")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestRequiredUsesStoredRole(t *testing.T) {
	a := NewAuthService("s3cret")
	authn := &Authenticator{Tokens: a, Roles: roles{"u1": "admin"}}
	h := authn.Required(echoIdentity())

	tok, _ := a.IssueJWT("u1", "student")
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+tok)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "u1/admin", rec.Body.String())

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	gone, _ := a.IssueJWT("deleted", "admin")
	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+gone)
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestConfirmTokenIsNotAccessToken(t *testing.T) {
	a := NewAuthService("s3cret")
	authn := &Authenticator{Tokens: a}
	tok, _ := a.MakeConfirmToken("u1", time.Hour)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+tok)
	rec := httptest.NewRecorder()
	authn.Required(echoIdentity()).ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestSessionLoginLogout(t *testing.T) {
	a := NewAuthService("s3cret")
	sessions := NewSessionStore("0123456789abcdef0123456789abcdef", "test-session", false)
	authn := &Authenticator{Tokens: a, Sessions: sessions, Roles: roles{"u7": "student"}}

	rec := httptest.NewRecorder()
	require.NoError(t, sessions.Login(rec, httptest.NewRequest(http.MethodPost, "/auth/login", nil), "u7", "student"))
	cookies := rec.Result().Cookies()
	require.NotEmpty(t, cookies)

	req := httptest.NewRequest(http.MethodGet, "/auth/me", nil)
	for _, c := range cookies {
		req.AddCookie(c)
	}
	rec = httptest.NewRecorder()
	authn.Required(echoIdentity()).ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "u7/student", rec.Body.String())

	rec = httptest.NewRecorder()
	require.NoError(t, sessions.Logout(rec, req))
	var cleared bool
	for _, c := range rec.Result().Cookies() {
		if c.Name == "test-session" && c.MaxAge < 0 {
			cleared = true
		}
	}
	assert.True(t, cleared)
}

func TestOptionalPassesAnonymous(t *testing.T) {
	authn := &Authenticator{Tokens: NewAuthService("x")}
	rec := httptest.NewRecorder()
	authn.Optional(echoIdentity()).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "/", rec.Body.String())
}
