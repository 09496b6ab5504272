package http

import (
	"errors"
	"net/http"
	"net/mail"

	"go.uber.org/zap"

	auth "github.com/NesmitC/project-webmath/internal/auth/middleware"
	"github.com/NesmitC/project-webmath/internal/eventlog"
	webmail "github.com/NesmitC/project-webmath/internal/mail"
	"github.com/NesmitC/project-webmath/internal/rbac"
	"github.com/NesmitC/project-webmath/internal/user"
)

type registerReq struct {
	Username        string `json:"username" validate:"required,min=3,max=50"`
	Email           string `json:"email" validate:"required,email,max=120"`
	Password        string `json:"password" validate:"required,min=6,max=128"`
	PasswordConfirm string `json:"password_confirm" validate:"omitempty,eqfield=Password"`
}

type registerResp struct {
	User             user.User `json:"user"`
	ConfirmationSent bool      `json:"confirmation_sent"`
}

func RegisterHandler(d Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req registerReq
		if err := decode(r, &req); err != nil {
			fail(w, r, d.Log, err)
			return
		}
		u, err := d.Users.Create(r.Context(), user.NewUser{
			Username:  req.Username,
			Email:     req.Email,
			Password:  req.Password,
			Confirmed: !d.Config.RequireConfirmation,
		})
		if err != nil {
			fail(w, r, d.Log, err)
			return
		}

		resp := registerResp{User: u}
		if !u.Confirmed && d.Mailer != nil {
			tok, err := d.Tokens.MakeConfirmToken(u.ID, d.Config.ConfirmTokenTTL)
			if err != nil {
				fail(w, r, d.Log, err)
				return
			}
			msg := webmail.Confirmation(d.Config.PublicURL, mail.Address{Name: u.Username, Address: u.Email}, tok)
			if err := d.Mailer.Send(r.Context(), msg); err != nil {
				// the account exists; the user can ask for a new link later
				d.Log.Error("send confirmation", zap.String("user_id", u.ID), zap.Error(err))
			} else {
				resp.ConfirmationSent = true
			}
		}
		if d.Events != nil {
			if e, err := eventlog.New(eventlog.TypeUserRegistered, u.ID, map[string]string{"username": u.Username}); err == nil {
				if err := d.Events.Append(r.Context(), e); err != nil {
					d.Log.Warn("append event", zap.Error(err))
				}
			}
		}
		writeJSON(w, http.StatusCreated, resp)
	}
}

func ConfirmHandler(users *user.Store, tokens *auth.AuthService, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tok := r.URL.Query().Get("token")
		if tok == "" {
			writeError(w, http.StatusBadRequest, "token required")
			return
		}
		id, err := tokens.VerifyConfirmToken(tok)
		if errors.Is(err, auth.ErrTokenExpired) {
			writeError(w, http.StatusBadRequest, "confirmation link expired")
			return
		}
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid confirmation link")
			return
		}
		if err := users.Confirm(r.Context(), id); err != nil {
			fail(w, r, log, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]bool{"confirmed": true})
	}
}

type loginReq struct {
	Login    string `json:"login" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type loginResp struct {
	Token string    `json:"access_token"`
	User  user.User `json:"user"`
}

// LoginHandler accepts a username or email. It returns a bearer token and
// also starts a cookie session.
func LoginHandler(users *user.Store, tokens *auth.AuthService, sessions *auth.SessionStore, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req loginReq
		if err := decode(r, &req); err != nil {
			fail(w, r, log, err)
			return
		}
		u, err := users.Authenticate(r.Context(), req.Login, req.Password)
		if err != nil {
			fail(w, r, log, err)
			return
		}
		tok, err := tokens.IssueJWT(u.ID, u.Role)
		if err != nil {
			fail(w, r, log, err)
			return
		}
		if sessions != nil {
			if err := sessions.Login(w, r, u.ID, u.Role); err != nil {
				log.Warn("save session", zap.Error(err))
			}
		}
		writeJSON(w, http.StatusOK, loginResp{Token: tok, User: u})
	}
}

func LogoutHandler(sessions *auth.SessionStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if sessions != nil {
			_ = sessions.Logout(w, r)
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func MeHandler(users *user.Store, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		u, err := users.Get(r.Context(), auth.SubjectFromContext(r.Context()))
		if err != nil {
			fail(w, r, log, err)
			return
		}
		writeJSON(w, http.StatusOK, struct {
			user.User
			Permissions []string `json:"permissions"`
		}{u, rbac.Default.Permissions(u.Role)})
	}
}
