package http

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/NesmitC/project-webmath/internal/user"
)

func ListUsersHandler(users *user.Store, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		role := r.URL.Query().Get("role")
		if role != "" && !user.ValidRole(role) {
			writeError(w, http.StatusBadRequest, "invalid role")
			return
		}
		list, err := users.List(r.Context(), role)
		if err != nil {
			fail(w, r, log, err)
			return
		}
		writeJSON(w, http.StatusOK, list)
	}
}

type updateUserRoleReq struct {
	Role string `json:"role" validate:"required"`
}

// AdminUpdateUserRoleHandler accepts an id or a username in the path.
func AdminUpdateUserRoleHandler(users *user.Store, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		target := chi.URLParam(r, "userID")
		var req updateUserRoleReq
		if err := decode(r, &req); err != nil {
			fail(w, r, log, err)
			return
		}
		role := strings.ToLower(strings.TrimSpace(req.Role))
		if err := users.SetRole(r.Context(), target, role); err != nil {
			fail(w, r, log, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}
