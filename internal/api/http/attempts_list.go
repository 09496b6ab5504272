package http

import (
	"net/http"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/NesmitC/project-webmath/internal/analysis"
	auth "github.com/NesmitC/project-webmath/internal/auth/middleware"
	"github.com/NesmitC/project-webmath/internal/exam"
	"github.com/NesmitC/project-webmath/internal/rbac"
)

func parseIntDefault(s string, def int) int {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n < 0 {
		return def
	}
	return n
}

// scopedUserID returns the user whose data the caller may read. Without perm
// the caller is limited to their own data.
func scopedUserID(r *http.Request, perm string) string {
	if rbac.Can(r, perm) {
		return strings.TrimSpace(r.URL.Query().Get("user_id"))
	}
	return auth.SubjectFromContext(r.Context())
}

// GET /results?user_id=&test_type=&limit=50&offset=0
// Callers with result:view-all may filter by any user or list everyone;
// others only see their own results.
func ListResultsHandler(store exam.Store, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		list, err := store.ListResults(r.Context(), exam.ResultListOpts{
			UserID:   scopedUserID(r, rbac.PermResultViewAll),
			TestType: strings.TrimSpace(q.Get("test_type")),
			Newest:   true,
			Limit:    parseIntDefault(q.Get("limit"), 50),
			Offset:   parseIntDefault(q.Get("offset"), 0),
		})
		if err != nil {
			fail(w, r, log, err)
			return
		}
		writeJSON(w, http.StatusOK, list)
	}
}

// GET /results/analysis?user_id=
func AnalysisHandler(store exam.Store, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := scopedUserID(r, rbac.PermAnalysisViewAll)
		if userID == "" {
			userID = auth.SubjectFromContext(r.Context())
		}
		results, err := store.ListResults(r.Context(), exam.ResultListOpts{UserID: userID})
		if err != nil {
			fail(w, r, log, err)
			return
		}
		rep, err := analysis.Analyze(userID, results)
		if err != nil {
			fail(w, r, log, err)
			return
		}
		writeJSON(w, http.StatusOK, rep)
	}
}
