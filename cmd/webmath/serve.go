package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	api "github.com/NesmitC/project-webmath/internal/api/http"
	"github.com/NesmitC/project-webmath/internal/assistant"
	auth "github.com/NesmitC/project-webmath/internal/auth/middleware"
	"github.com/NesmitC/project-webmath/internal/config"
	"github.com/NesmitC/project-webmath/internal/exam"
	"github.com/NesmitC/project-webmath/internal/mail"
)

const shutdownTimeout = 10 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API",
	Long: `Starts the JSON API. Retrieval indexes are loaded from the index
directory or built in the background; until they are ready the teacher
answers from keyword search and the model alone.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		a, err := openApp(ctx)
		if err != nil {
			return err
		}
		defer a.Close()

		blobs, err := a.blobs()
		if err != nil {
			return err
		}
		set, err := a.knowledge(blobs)
		if err != nil {
			return err
		}
		mailer, err := mail.New(a.cfg.Mail, a.log.Named("mail"))
		if err != nil {
			return err
		}
		chats := assistant.NewChatLog(a.db)
		router, err := a.assistant(ctx, set, chats)
		if err != nil {
			return err
		}

		handler := api.NewRouter(api.Deps{
			Config:    a.cfg,
			Log:       a.log,
			Users:     a.users,
			Exams:     exam.NewService(a.exams, nil, a.events, a.log.Named("exam")),
			Tokens:    auth.NewAuthService(a.cfg.SecretKey),
			Sessions:  auth.NewSessionStore(a.cfg.SecretKey, a.cfg.SessionName, a.cfg.Mode == config.ModeOnline),
			Mailer:    mailer,
			Assistant: router,
			Knowledge: set,
			Blobs:     blobs,
			Events:    a.events,
			Chats:     chats,
			Ready:     a.db.PingContext,
		})
		srv := &http.Server{
			Addr:              a.cfg.HTTPAddr,
			Handler:           handler,
			ReadHeaderTimeout: 10 * time.Second,
		}

		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() error {
			start := time.Now()
			if err := set.EnsureBuilt(gctx); err != nil {
				// the server keeps running on the keyword and no-context fallbacks
				a.log.Error("knowledge indexes", zap.Error(err))
				return nil
			}
			a.log.Info("knowledge indexes ready", zap.Strings("corpora", set.Names()), zap.Duration("took", time.Since(start)))
			return nil
		})
		g.Go(func() error {
			a.log.Info("listening", zap.String("addr", a.cfg.HTTPAddr),
				zap.String("mode", string(a.cfg.Mode)), zap.String("db", a.cfg.DBDriver))
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		})
		g.Go(func() error {
			<-gctx.Done()
			sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			a.log.Info("shutting down")
			return srv.Shutdown(sctx)
		})
		return g.Wait()
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}
