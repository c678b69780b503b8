// Package server exposes the backend over HTTP/JSON.
package server

import (
	"context"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/jask/finmgr/internal/api"
	"github.com/jask/finmgr/internal/backend"
)

type ctxKey int

const (
	userKey ctxKey = iota
	tokenKey
)

// maxUploadMemory is the multipart buffer kept in memory before spilling to disk.
const maxUploadMemory = 8 << 20

// Server routes HTTP requests to a Backend.
type Server struct {
	b   *backend.Backend
	log *slog.Logger
	mux *chi.Mux
}

func New(b *backend.Backend, log *slog.Logger) *Server {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	s := &Server{b: b, log: log, mux: chi.NewRouter()}
	s.routes()
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) { s.mux.ServeHTTP(w, r) }

func (s *Server) routes() {
	r := s.mux
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.logRequests)

	r.Route("/api", func(r chi.Router) {
		r.Post("/login", s.login)

		r.Group(func(r chi.Router) {
			r.Use(s.authenticated)
			r.Post("/logout", s.logout)
			r.Get("/me", s.me)

			r.Route("/contacts", func(r chi.Router) {
				r.Get("/", s.listContacts)
				r.Post("/", s.createContact)
				r.Get("/{id}", s.getContact)
				r.Put("/{id}", s.updateContact)
				r.Delete("/{id}", s.deleteContact)
			})
			r.Route("/accounts", func(r chi.Router) {
				r.Get("/", s.listAccounts)
				r.Post("/", s.createAccount)
				r.Get("/{id}", s.getAccount)
				r.Put("/{id}", s.updateAccount)
				r.Delete("/{id}", s.deleteAccount)
				r.Post("/{id}/import", s.importPostings)
			})
			r.Route("/savings-plans", func(r chi.Router) {
				r.Get("/", s.listSavingsPlans)
				r.Post("/", s.createSavingsPlan)
				r.Get("/{id}", s.getSavingsPlan)
				r.Put("/{id}", s.updateSavingsPlan)
				r.Delete("/{id}", s.deleteSavingsPlan)
			})
			r.Route("/securities", func(r chi.Router) {
				r.Get("/", s.listSecurities)
				r.Post("/", s.createSecurity)
				r.Get("/{id}", s.getSecurity)
				r.Put("/{id}", s.updateSecurity)
				r.Delete("/{id}", s.deleteSecurity)
			})
			r.Get("/postings", s.listPostings)
			r.Route("/attachments", func(r chi.Router) {
				r.Get("/{kind}/{id}", s.listAttachments)
				r.Post("/{kind}/{id}", s.uploadAttachment)
			})
			r.Get("/files/{id}", s.downloadAttachment)

			r.Group(func(r chi.Router) {
				r.Use(s.adminOnly)
				r.Route("/users", func(r chi.Router) {
					r.Get("/", s.listUsers)
					r.Post("/", s.createUser)
					r.Get("/{id}", s.getUser)
					r.Put("/{id}", s.updateUser)
					r.Delete("/{id}", s.deleteUser)
				})
				r.Get("/backups", s.listBackups)
				r.Post("/backups", s.createBackup)
			})
		})
	})
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.log.Debug("http request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration", time.Since(start),
			"request_id", middleware.GetReqID(r.Context()))
	})
}

func (s *Server) authenticated(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := bearerToken(r)
		u, err := s.b.Authenticate(r.Context(), token)
		if err != nil {
			fail(w, err)
			return
		}
		ctx := context.WithValue(r.Context(), userKey, u)
		ctx = context.WithValue(ctx, tokenKey, token)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (s *Server) adminOnly(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if u := currentUser(r); u == nil || !u.IsAdmin {
			fail(w, api.ErrForbidden)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func currentUser(r *http.Request) *api.User {
	u, _ := r.Context().Value(userKey).(*api.User)
	return u
}

// ListenAndServe serves on addr until ctx is cancelled. When ready is not nil it
// receives the bound address once the listener is open.
func (s *Server) ListenAndServe(ctx context.Context, addr string, ready chan<- string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	srv := &http.Server{
		Handler:           s,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      30 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}
	if ready != nil {
		ready <- ln.Addr().String()
	}
	s.log.Info("api listening", "addr", ln.Addr().String())

	errc := make(chan error, 1)
	go func() { errc <- srv.Serve(ln) }()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		return nil
	}
}
