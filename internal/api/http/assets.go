package http

import (
	"errors"
	"net/http"
	"path"
	"path/filepath"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/NesmitC/project-webmath/internal/assistant"
	"github.com/NesmitC/project-webmath/internal/eventlog"
	"github.com/NesmitC/project-webmath/internal/storage"
)

const maxUploadBytes = 32 << 20

var allowedDocExt = map[string]bool{".pdf": true, ".txt": true, ".md": true}

// POST /admin/knowledge/methodist (multipart, field "file")
func UploadMethodistDocHandler(bs storage.BlobStore, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
		f, hdr, err := r.FormFile("file")
		if err != nil {
			writeError(w, http.StatusBadRequest, "file required")
			return
		}
		defer f.Close()

		name := path.Base(strings.ReplaceAll(hdr.Filename, `\`, "/"))
		if !allowedDocExt[strings.ToLower(filepath.Ext(name))] {
			writeError(w, http.StatusBadRequest, "only .pdf, .txt and .md documents are accepted")
			return
		}
		key, err := bs.Put("methodist/"+name, f)
		if err != nil {
			fail(w, r, log, err)
			return
		}
		log.Info("methodist document uploaded", zap.String("key", key))
		writeJSON(w, http.StatusCreated, map[string]string{"key": key})
	}
}

// POST /admin/knowledge/{corpus}/reindex
func ReindexHandler(ix Reindexer, events *eventlog.Repo, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if ix == nil {
			fail(w, r, log, errors.New("knowledge indexes are not configured"))
			return
		}
		corpus := chi.URLParam(r, "corpus")
		n, err := ix.Reindex(r.Context(), corpus, nil)
		if err != nil {
			fail(w, r, log, err)
			return
		}
		if events != nil {
			if e, err := eventlog.New(eventlog.TypeIndexRebuilt, corpus, map[string]int{"chunks": n}); err == nil {
				if err := events.Append(r.Context(), e); err != nil {
					log.Warn("append event", zap.Error(err))
				}
			}
		}
		writeJSON(w, http.StatusOK, map[string]any{"corpus": corpus, "chunks": n})
	}
}

// GET /admin/chats?user_id=&limit=
func ListChatsHandler(chats *assistant.ChatLog, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if chats == nil {
			writeJSON(w, http.StatusOK, []assistant.ChatEntry{})
			return
		}
		q := r.URL.Query()
		list, err := chats.List(r.Context(), q.Get("user_id"), parseIntDefault(q.Get("limit"), 100))
		if err != nil {
			fail(w, r, log, err)
			return
		}
		writeJSON(w, http.StatusOK, list)
	}
}

// GET /admin/events?type=&limit=
func ListEventsHandler(events *eventlog.Repo, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if events == nil {
			writeJSON(w, http.StatusOK, []eventlog.Event{})
			return
		}
		q := r.URL.Query()
		list, err := events.List(r.Context(), q.Get("type"), parseIntDefault(q.Get("limit"), 100))
		if err != nil {
			fail(w, r, log, err)
			return
		}
		writeJSON(w, http.StatusOK, list)
	}
}
