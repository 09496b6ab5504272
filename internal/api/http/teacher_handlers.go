package http

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/NesmitC/project-webmath/internal/exam"
)

func ListTypesHandler(store exam.Store, log *zap.Logger) http.HandlerFunc {
	return ListDiagnosticsHandler(store, log)
}

func PutTypeHandler(store exam.Store, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var t exam.TestType
		if err := decode(r, &t); err != nil {
			fail(w, r, log, err)
			return
		}
		out, err := store.PutType(r.Context(), t)
		if err != nil {
			fail(w, r, log, err)
			return
		}
		writeJSON(w, http.StatusOK, out)
	}
}

type questionReq struct {
	Number        int      `json:"question_number" validate:"required,min=1"`
	Type          string   `json:"question_type" validate:"required,oneof=input short-answer task7 checkbox match textarea numeric"`
	TaskText      string   `json:"task_text"`
	Text          string   `json:"question_text" validate:"required"`
	Options       []string `json:"options"`
	CorrectAnswer string   `json:"correct_answer"`
	Info          string   `json:"info"`
	Points        float64  `json:"points" validate:"gte=0"`
}

func (q questionReq) toQuestion() exam.Question {
	return exam.Question{
		Number:        q.Number,
		Type:          q.Type,
		TaskText:      q.TaskText,
		Text:          q.Text,
		Options:       q.Options,
		CorrectAnswer: q.CorrectAnswer,
		Info:          q.Info,
		Points:        q.Points,
	}
}

type testReq struct {
	Title     string        `json:"title" validate:"required,max=100"`
	Text      string        `json:"test_text" validate:"required"`
	Questions []questionReq `json:"questions" validate:"dive"`
}

func AdminGetTestHandler(store exam.Store, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		t, err := store.GetTestByType(r.Context(), chi.URLParam(r, "type"), true)
		if err != nil {
			fail(w, r, log, err)
			return
		}
		writeJSON(w, http.StatusOK, t)
	}
}

func CreateTestHandler(store exam.Store, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req testReq
		if err := decode(r, &req); err != nil {
			fail(w, r, log, err)
			return
		}
		t := exam.Test{Title: req.Title, Text: req.Text}
		for _, q := range req.Questions {
			t.Questions = append(t.Questions, q.toQuestion())
		}
		out, err := store.CreateTest(r.Context(), chi.URLParam(r, "type"), t)
		if err != nil {
			fail(w, r, log, err)
			return
		}
		writeJSON(w, http.StatusCreated, out)
	}
}

type updateTestReq struct {
	Title string `json:"title" validate:"required,max=100"`
	Text  string `json:"test_text" validate:"required"`
}

func UpdateTestHandler(store exam.Store, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req updateTestReq
		if err := decode(r, &req); err != nil {
			fail(w, r, log, err)
			return
		}
		out, err := store.UpdateTest(r.Context(), chi.URLParam(r, "type"), req.Title, req.Text)
		if err != nil {
			fail(w, r, log, err)
			return
		}
		writeJSON(w, http.StatusOK, out)
	}
}

func AddQuestionHandler(store exam.Store, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req questionReq
		if err := decode(r, &req); err != nil {
			fail(w, r, log, err)
			return
		}
		t, err := store.GetTestByType(r.Context(), chi.URLParam(r, "type"), false)
		if err != nil {
			fail(w, r, log, err)
			return
		}
		q, err := store.AddQuestion(r.Context(), t.ID, req.toQuestion())
		if err != nil {
			fail(w, r, log, err)
			return
		}
		writeJSON(w, http.StatusCreated, q)
	}
}

func questionID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, badRequest("bad question id")
	}
	return id, nil
}

func UpdateQuestionHandler(store exam.Store, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := questionID(r)
		if err != nil {
			fail(w, r, log, err)
			return
		}
		var req questionReq
		if err := decode(r, &req); err != nil {
			fail(w, r, log, err)
			return
		}
		q := req.toQuestion()
		q.ID = id
		out, err := store.UpdateQuestion(r.Context(), q)
		if err != nil {
			fail(w, r, log, err)
			return
		}
		writeJSON(w, http.StatusOK, out)
	}
}

func DeleteQuestionHandler(store exam.Store, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := questionID(r)
		if err != nil {
			fail(w, r, log, err)
			return
		}
		if err := store.DeleteQuestion(r.Context(), id); err != nil {
			fail(w, r, log, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func DeleteAllResultsHandler(store exam.Store, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		n, err := store.DeleteAllResults(r.Context())
		if err != nil {
			fail(w, r, log, err)
			return
		}
		log.Info("results cleared", zap.Int64("deleted", n))
		writeJSON(w, http.StatusOK, map[string]int64{"deleted": n})
	}
}
