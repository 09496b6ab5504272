package http

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	auth "github.com/NesmitC/project-webmath/internal/auth/middleware"
	"github.com/NesmitC/project-webmath/internal/exam"
)

// resolveKind maps a diagnostic kind (incoming, current, final) or a plain
// type name to its test type.
func resolveKind(ctx context.Context, store exam.Store, kind string) (exam.TestType, error) {
	tt, err := store.TypeByDiagnostic(ctx, kind)
	if errors.Is(err, exam.ErrNotFound) {
		return store.GetTypeByName(ctx, kind)
	}
	return tt, err
}

func ListDiagnosticsHandler(store exam.Store, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		types, err := store.ListTypes(r.Context())
		if err != nil {
			fail(w, r, log, err)
			return
		}
		writeJSON(w, http.StatusOK, types)
	}
}

// GetDiagnosticHandler returns the test without answer keys.
func GetDiagnosticHandler(store exam.Store, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tt, err := resolveKind(r.Context(), store, chi.URLParam(r, "kind"))
		if err != nil {
			fail(w, r, log, err)
			return
		}
		t, err := store.GetTestByType(r.Context(), tt.Name, false)
		if err != nil {
			fail(w, r, log, err)
			return
		}
		writeJSON(w, http.StatusOK, t)
	}
}

type submitReq struct {
	Answers map[int]string `json:"answers" validate:"required"`
}

func SubmitDiagnosticHandler(svc *exam.Service, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req submitReq
		if err := decode(r, &req); err != nil {
			fail(w, r, log, err)
			return
		}
		tt, err := resolveKind(r.Context(), svc.Store(), chi.URLParam(r, "kind"))
		if err != nil {
			fail(w, r, log, err)
			return
		}
		res, err := svc.Submit(r.Context(), auth.SubjectFromContext(r.Context()), tt.Name, req.Answers)
		if err != nil {
			fail(w, r, log, err)
			return
		}
		writeJSON(w, http.StatusCreated, res)
	}
}
