package main

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/NesmitC/project-webmath/internal/assistant"
	"github.com/NesmitC/project-webmath/internal/config"
	"github.com/NesmitC/project-webmath/internal/db"
	"github.com/NesmitC/project-webmath/internal/embeddings"
	"github.com/NesmitC/project-webmath/internal/eventlog"
	"github.com/NesmitC/project-webmath/internal/exam"
	"github.com/NesmitC/project-webmath/internal/hardcases"
	"github.com/NesmitC/project-webmath/internal/knowledge"
	"github.com/NesmitC/project-webmath/internal/llm"
	"github.com/NesmitC/project-webmath/internal/logging"
	"github.com/NesmitC/project-webmath/internal/storage"
	"github.com/NesmitC/project-webmath/internal/user"
)

const (
	corpusTeacher   = "teacher"
	corpusMethodist = "methodist"
)

// conjugationPreamble is always part of the teacher corpus.
const conjugationPreamble = `## Что такое спряжение?
Спряжение — это изменение глаголов по лицам и числам в изъявительном наклонении. В русском языке два спряжения: первое и второе.`

const methodistFallback = "Документы по расписанию, ФГОС, кодификаторам и допуску к экзаменам временно недоступны."

// app holds what every subcommand needs: configuration, logger and the
// database with its stores.
type app struct {
	cfg    config.Config
	log    *zap.Logger
	db     *sql.DB
	users  *user.Store
	exams  exam.Store
	events *eventlog.Repo
}

func openApp(ctx context.Context) (*app, error) {
	cfg, err := config.Load(cfgFile, envFile)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	if verbose {
		cfg.Log.Level = "debug"
	}
	log, err := logging.New(cfg.Log.Level, cfg.Log.JSON)
	if err != nil {
		return nil, err
	}

	octx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	h, err := db.Open(octx, db.Driver(cfg.DBDriver), cfg.DBDSN)
	if err != nil {
		return nil, fmt.Errorf("open %s database: %w", cfg.DBDriver, err)
	}

	users := user.NewStore(h)
	users.RequireConfirmation = cfg.RequireConfirmation
	return &app{
		cfg:    cfg,
		log:    log,
		db:     h,
		users:  users,
		exams:  exam.NewSQLStore(h, cfg.DBDriver),
		events: eventlog.NewRepo(h),
	}, nil
}

func (a *app) Close() {
	_ = a.db.Close()
	_ = a.log.Sync()
}

func (a *app) blobs() (*storage.FSStore, error) {
	return storage.NewFSStore(a.cfg.BlobBasePath)
}

// knowledge registers the teacher and methodist corpora with their indexes.
// The methodist corpus defaults to the uploaded documents directory.
func (a *app) knowledge(blobs *storage.FSStore) (*knowledge.Set, error) {
	emb, err := embeddings.New(a.cfg.Embeddings)
	if err != nil {
		return nil, err
	}
	a.log.Info("embedder ready", zap.String("name", emb.Name()), zap.Int("dims", emb.Dimensions()))

	methodistSrc := a.cfg.Methodist.Source
	if methodistSrc == "" {
		if methodistSrc, err = blobs.Dir("methodist"); err != nil {
			return nil, err
		}
	}

	set := knowledge.NewSet()
	for _, c := range []*knowledge.Corpus{
		{
			Name:         corpusTeacher,
			Source:       a.cfg.Teacher.Source,
			ChunkSize:    a.cfg.Teacher.ChunkSize,
			ChunkOverlap: a.cfg.Teacher.ChunkOverlap,
			Preamble:     conjugationPreamble,
			Log:          a.log.Named("knowledge"),
		},
		{
			Name:         corpusMethodist,
			Source:       methodistSrc,
			ChunkSize:    a.cfg.Methodist.ChunkSize,
			ChunkOverlap: a.cfg.Methodist.ChunkOverlap,
			Fallback:     methodistFallback,
			Log:          a.log.Named("knowledge"),
		},
	} {
		ix, err := knowledge.NewIndex(c.Name, a.cfg.IndexDir, emb)
		if err != nil {
			return nil, err
		}
		set.Add(c, ix)
	}
	return set, nil
}

// assistant wires both assistants over the knowledge set.
func (a *app) assistant(ctx context.Context, set *knowledge.Set, chats assistant.ChatRecorder) (*assistant.Router, error) {
	provider, err := llm.NewProvider(a.cfg.LLM, a.cfg.Mode)
	if err != nil {
		return nil, err
	}
	provider = llm.NewRateLimitedProvider(provider, a.cfg.LLM.RequestsPerMinute)
	a.log.Info("llm provider ready", zap.String("provider", provider.Name()), zap.String("model", a.cfg.LLM.Model))

	teacherIx, _ := set.Index(corpusTeacher)
	teacherCorpus, _ := set.Corpus(corpusTeacher)
	methodistIx, _ := set.Index(corpusMethodist)

	log := a.log.Named("assistant")
	teacher := &assistant.Teacher{
		LLM:         provider,
		Model:       a.cfg.LLM.Model,
		Cases:       hardcases.LoadOrEmpty(ctx, a.cfg.HardCasesSource, log),
		Retriever:   knowledge.NewRetriever(teacherIx, a.cfg.Teacher.TopK),
		Paragraphs:  teacherCorpus.Paragraphs,
		Temperature: a.cfg.LLM.Temperature,
		MaxTokens:   a.cfg.LLM.MaxTokens,
		Log:         log,
	}
	methodist := &assistant.Methodist{
		LLM:         provider,
		Model:       a.cfg.LLM.Model,
		Index:       methodistIx,
		K:           a.cfg.Methodist.TopK,
		Temperature: a.cfg.LLM.Temperature,
		MaxTokens:   a.cfg.LLM.MaxTokens,
		Log:         log,
	}
	return assistant.NewRouter(methodist, teacher, chats, log), nil
}
