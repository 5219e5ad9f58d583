// Package server hosts the local HTTP API the desktop frontend talks to.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/inkdesk/inkdesk/api/v1"
	"github.com/inkdesk/inkdesk/client"
	"github.com/inkdesk/inkdesk/config"
	"github.com/inkdesk/inkdesk/http/response"
	"github.com/inkdesk/inkdesk/importer"
	"github.com/inkdesk/inkdesk/log"
	"github.com/inkdesk/inkdesk/store"
	"github.com/inkdesk/inkdesk/sync"
	"github.com/inkdesk/inkdesk/version"
	"go.uber.org/zap"
)

type Server struct {
	Store      *store.Store
	httpServer *http.Server
}

func NewServer(ctx context.Context, store *store.Store) (*Server, error) {
	apiClient, err := client.NewClient(config.Opts.APIBaseURL)
	if err != nil {
		return nil, err
	}

	syncer := sync.NewSynchronizer(
		store,
		apiClient,
		config.Opts.Data,
		time.Duration(config.Opts.DownloadTimeout)*time.Second,
		log.Logger,
	)
	pusher := sync.NewPusher(store, apiClient, syncer, log.Logger)
	imp := importer.NewImporter(store, syncer.Genres(), log.Logger)

	router := mux.NewRouter()
	router.Use(middleware)

	router.HandleFunc("/healthcheck", func(w http.ResponseWriter, r *http.Request) {
		response.OK(w, r, map[string]string{"status": "ok"})
	}).Methods(http.MethodGet)
	router.HandleFunc("/version", func(w http.ResponseWriter, r *http.Request) {
		response.OK(w, r, map[string]string{"version": version.GetCurrentVersion()})
	}).Methods(http.MethodGet)

	v1.Register(router, store, apiClient, syncer, pusher, imp)

	s := &Server{
		Store: store,
		httpServer: &http.Server{
			Addr:    fmt.Sprintf("%s:%d", config.Opts.Host, config.Opts.Port),
			Handler: router,
		},
	}
	return s, nil
}

func (s *Server) Start() error {
	log.Info("Server listening", zap.String("addr", s.httpServer.Addr))
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if err := s.httpServer.Shutdown(ctx); err != nil {
		log.Error("Failed to shutdown server", zap.Error(err))
	}
	if err := s.Store.Close(); err != nil {
		log.Error("Failed to close database", zap.Error(err))
	}
	log.Info("Server stopped")
}
