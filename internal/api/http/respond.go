package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/NesmitC/project-webmath/internal/analysis"
	auth "github.com/NesmitC/project-webmath/internal/auth/middleware"
	"github.com/NesmitC/project-webmath/internal/exam"
	"github.com/NesmitC/project-webmath/internal/knowledge"
	"github.com/NesmitC/project-webmath/internal/storage"
	"github.com/NesmitC/project-webmath/internal/user"
)

const maxBodyBytes = 1 << 20

var validate = validator.New(validator.WithRequiredStructEnabled())

// requestError is a 400 with an optional per-field breakdown.
type requestError struct {
	msg    string
	fields map[string]string
}

func (e *requestError) Error() string { return e.msg }

func badRequest(format string, args ...any) error {
	return &requestError{msg: fmt.Sprintf(format, args...)}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// decode reads a JSON body into dst and validates it.
func decode(r *http.Request, dst any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	if err := dec.Decode(dst); err != nil {
		return badRequest("bad json")
	}
	if err := validate.Struct(dst); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			fields := make(map[string]string, len(verrs))
			for _, fe := range verrs {
				fields[jsonField(fe)] = fe.Tag()
			}
			return &requestError{msg: "validation failed", fields: fields}
		}
		return badRequest("%v", err)
	}
	return nil
}

func jsonField(fe validator.FieldError) string {
	ns := fe.Namespace()
	if i := strings.Index(ns, "."); i >= 0 {
		ns = ns[i+1:]
	}
	return strings.ToLower(ns)
}

func statusFor(err error) int {
	var re *requestError
	switch {
	case errors.As(err, &re):
		return http.StatusBadRequest
	case errors.Is(err, exam.ErrNotFound), errors.Is(err, user.ErrNotFound),
		errors.Is(err, storage.ErrNotFound), errors.Is(err, knowledge.ErrUnknownCorpus),
		errors.Is(err, analysis.ErrNoResults):
		return http.StatusNotFound
	case errors.Is(err, user.ErrUsernameTaken), errors.Is(err, user.ErrEmailTaken),
		errors.Is(err, exam.ErrTestExists), errors.Is(err, exam.ErrTypeExists),
		errors.Is(err, exam.ErrBadNumber):
		return http.StatusConflict
	case errors.Is(err, user.ErrBadCredentials), errors.Is(err, auth.ErrInvalidToken),
		errors.Is(err, auth.ErrTokenExpired):
		return http.StatusUnauthorized
	case errors.Is(err, user.ErrNotConfirmed), errors.Is(err, user.ErrWrongPassword):
		return http.StatusForbidden
	case errors.Is(err, exam.ErrInvalidInput), errors.Is(err, user.ErrInvalidRole),
		errors.Is(err, user.ErrLastAdmin), errors.Is(err, user.ErrPasswordTooWeak),
		errors.Is(err, storage.ErrInvalidKey):
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

// fail writes err as a JSON error. Unmapped errors are logged and hidden.
func fail(w http.ResponseWriter, r *http.Request, log *zap.Logger, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		log.Error("request failed", zap.String("method", r.Method), zap.String("path", r.URL.Path), zap.Error(err))
		writeError(w, status, "internal error")
		return
	}
	var re *requestError
	if errors.As(err, &re) && len(re.fields) > 0 {
		writeJSON(w, status, map[string]any{"error": re.msg, "fields": re.fields})
		return
	}
	writeError(w, status, err.Error())
}
