// Package http exposes the JSON API.
package http

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/NesmitC/project-webmath/internal/assistant"
	auth "github.com/NesmitC/project-webmath/internal/auth/middleware"
	"github.com/NesmitC/project-webmath/internal/config"
	"github.com/NesmitC/project-webmath/internal/eventlog"
	"github.com/NesmitC/project-webmath/internal/exam"
	"github.com/NesmitC/project-webmath/internal/logging"
	"github.com/NesmitC/project-webmath/internal/mail"
	"github.com/NesmitC/project-webmath/internal/rbac"
	"github.com/NesmitC/project-webmath/internal/storage"
	"github.com/NesmitC/project-webmath/internal/user"
)

// Asker answers assistant questions.
type Asker interface {
	Ask(ctx context.Context, userID, question string) assistant.Answer
}

// Reindexer rebuilds a named retrieval index.
type Reindexer interface {
	Reindex(ctx context.Context, corpus string, progress func(done, total int)) (int, error)
}

type Deps struct {
	Config    config.Config
	Log       *zap.Logger
	Users     *user.Store
	Exams     *exam.Service
	Tokens    *auth.AuthService
	Sessions  *auth.SessionStore
	Mailer    mail.Mailer
	Assistant Asker
	Knowledge Reindexer
	Blobs     storage.BlobStore
	Events    *eventlog.Repo
	Chats     *assistant.ChatLog
	// Ready reports whether dependencies are reachable. Nil means always ready.
	Ready func(ctx context.Context) error
}

func NewRouter(d Deps) http.Handler {
	if d.Log == nil {
		d.Log = zap.NewNop()
	}
	store := d.Exams.Store()
	authn := &auth.Authenticator{Tokens: d.Tokens, Sessions: d.Sessions, Roles: d.Users, Log: d.Log}

	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, logging.Middleware(d.Log), middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   d.Config.CORSOrigins(),
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })
	r.Get("/readyz", ReadyHandler(d.Ready))

	// websocket connections outlive the request timeout
	r.With(authn.Required, rbac.Require(rbac.PermAssistantAsk)).
		Get("/ws/ask", AskWSHandler(d.Assistant, d.Config.CORSOrigins(), d.Log))

	r.Group(func(r chi.Router) {
		r.Use(middleware.Timeout(60 * time.Second))

		r.Route("/auth", func(ar chi.Router) {
			ar.Post("/register", RegisterHandler(d))
			ar.Get("/confirm", ConfirmHandler(d.Users, d.Tokens, d.Log))
			ar.Post("/login", LoginHandler(d.Users, d.Tokens, d.Sessions, d.Log))
			ar.Post("/logout", LogoutHandler(d.Sessions))
			ar.With(authn.Required).Get("/me", MeHandler(d.Users, d.Log))
		})

		r.Group(func(pr chi.Router) {
			pr.Use(authn.Required)

			pr.With(rbac.Require(rbac.PermChangePassword)).
				Post("/users/change-password", ChangePasswordHandler(d.Users, d.Log))

			pr.With(rbac.Require(rbac.PermDiagnosticView)).
				Get("/diagnostics", ListDiagnosticsHandler(store, d.Log))
			pr.With(rbac.Require(rbac.PermDiagnosticView)).
				Get("/diagnostics/{kind}", GetDiagnosticHandler(store, d.Log))
			pr.With(rbac.Require(rbac.PermResultSubmit)).
				Post("/diagnostics/{kind}/submit", SubmitDiagnosticHandler(d.Exams, d.Log))

			pr.With(rbac.RequireAny(rbac.PermResultViewOwn, rbac.PermResultViewAll)).
				Get("/results", ListResultsHandler(store, d.Log))
			pr.With(rbac.RequireAny(rbac.PermResultViewOwn, rbac.PermAnalysisViewAll)).
				Get("/results/analysis", AnalysisHandler(store, d.Log))

			pr.With(rbac.Require(rbac.PermAssistantAsk)).
				Post("/ask", AskHandler(d.Assistant))

			pr.Route("/admin", func(ad chi.Router) {
				ad.Group(func(tr chi.Router) {
					tr.Use(rbac.Require(rbac.PermTestEdit))
					tr.Get("/types", ListTypesHandler(store, d.Log))
					tr.Post("/types", PutTypeHandler(store, d.Log))
					tr.Get("/tests/{type}", AdminGetTestHandler(store, d.Log))
					tr.Post("/tests/{type}", CreateTestHandler(store, d.Log))
					tr.Put("/tests/{type}", UpdateTestHandler(store, d.Log))
					tr.Post("/tests/{type}/questions", AddQuestionHandler(store, d.Log))
					tr.Put("/questions/{id}", UpdateQuestionHandler(store, d.Log))
					tr.Delete("/questions/{id}", DeleteQuestionHandler(store, d.Log))
				})
				ad.With(rbac.Require(rbac.PermResultGrade)).
					Put("/results/{id}/essay", GradeEssayHandler(d.Exams, d.Log))

				ad.With(rbac.Require(rbac.PermUsersManage)).
					Get("/users", ListUsersHandler(d.Users, d.Log))
				ad.With(rbac.Require(rbac.PermUsersManage)).
					Put("/users/{userID}/role", AdminUpdateUserRoleHandler(d.Users, d.Log))

				ad.With(rbac.Require(rbac.PermKnowledgeManage)).
					Post("/knowledge/methodist", UploadMethodistDocHandler(d.Blobs, d.Log))
				ad.With(rbac.Require(rbac.PermKnowledgeManage)).
					Post("/knowledge/{corpus}/reindex", ReindexHandler(d.Knowledge, d.Events, d.Log))
				ad.With(rbac.Require(rbac.PermKnowledgeManage)).
					Get("/chats", ListChatsHandler(d.Chats, d.Log))
				ad.With(rbac.Require(rbac.PermKnowledgeManage)).
					Get("/events", ListEventsHandler(d.Events, d.Log))

				ad.With(rbac.Require(rbac.PermResultsDeleteAll)).
					Delete("/results", DeleteAllResultsHandler(store, d.Log))
			})
		})
	})
	return r
}

func ReadyHandler(ready func(context.Context) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if ready != nil {
			if err := ready(r.Context()); err != nil {
				writeError(w, http.StatusServiceUnavailable, err.Error())
				return
			}
		}
		w.WriteHeader(http.StatusOK)
	}
}
