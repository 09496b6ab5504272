package http

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/NesmitC/project-webmath/internal/exam"
)

type essayGradeReq struct {
	// Criteria maps rubric criteria (K1..K12) to awarded points.
	Criteria map[string]float64 `json:"criteria" validate:"required,min=1"`
}

// PUT /admin/results/{id}/essay
func GradeEssayHandler(svc *exam.Service, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := strings.TrimSpace(chi.URLParam(r, "id"))
		var req essayGradeReq
		if err := decode(r, &req); err != nil {
			fail(w, r, log, err)
			return
		}
		res, err := svc.GradeEssay(r.Context(), id, req.Criteria)
		if err != nil {
			fail(w, r, log, err)
			return
		}
		writeJSON(w, http.StatusOK, res)
	}
}
