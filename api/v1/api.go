package v1

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/inkdesk/inkdesk/client"
	"github.com/inkdesk/inkdesk/importer"
	"github.com/inkdesk/inkdesk/store"
	"github.com/inkdesk/inkdesk/sync"
)

type Handler struct {
	store    *store.Store
	client   *client.Client
	syncer   *sync.Synchronizer
	pusher   *sync.Pusher
	importer *importer.Importer
	router   *mux.Router
}

func Register(router *mux.Router, store *store.Store, client *client.Client, syncer *sync.Synchronizer, pusher *sync.Pusher, importer *importer.Importer) {
	handler := &Handler{
		store:    store,
		client:   client,
		syncer:   syncer,
		pusher:   pusher,
		importer: importer,
		router:   router,
	}

	sr := router.PathPrefix("/api/v1").Subrouter()
	sr.Use(handleCORS)
	sr.Methods(http.MethodOptions)

	sr.HandleFunc("/auth/login", handler.login).Methods(http.MethodPost)
	sr.HandleFunc("/auth/session", handler.sessionStatus).Methods(http.MethodGet)

	sr.HandleFunc("/authors", handler.listAuthors).Methods(http.MethodGet)
	sr.HandleFunc("/authors/{id}", handler.getAuthor).Methods(http.MethodGet)
	sr.HandleFunc("/books", handler.listBooks).Methods(http.MethodGet)
	sr.HandleFunc("/books", handler.addBook).Methods(http.MethodPost)
	sr.HandleFunc("/books/{id}", handler.getBook).Methods(http.MethodGet)
	sr.HandleFunc("/books/{id}", handler.deleteBook).Methods(http.MethodDelete)
	sr.HandleFunc("/books/{id}/taxonomies", handler.getBookTaxonomies).Methods(http.MethodGet)
	sr.HandleFunc("/books/{id}/taxonomies", handler.saveBookTaxonomies).Methods(http.MethodPut)
	sr.HandleFunc("/genres", handler.listGenres).Methods(http.MethodGet)
	sr.HandleFunc("/images", handler.listImages).Methods(http.MethodGet)
	sr.HandleFunc("/jobs", handler.listJobs).Methods(http.MethodGet)
	sr.HandleFunc("/snapshot", handler.getSnapshot).Methods(http.MethodGet)

	sr.HandleFunc("/sync/pull", handler.pull).Methods(http.MethodPost)
	sr.HandleFunc("/sync/push", handler.push).Methods(http.MethodPost)
	sr.HandleFunc("/sync/status", handler.syncStatus).Methods(http.MethodGet)
	sr.HandleFunc("/import", handler.importFile).Methods(http.MethodPost)
}

func handleCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "X-Auth-Token, Authorization, Content-Type, Accept")
		if r.Method == http.MethodOptions {
			w.Header().Set("Access-Control-Max-Age", "7200")
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}
