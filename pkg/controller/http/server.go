package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/Nathan-c-cloud/agentGCP-veille/pkg/usecase"
	"github.com/Nathan-c-cloud/agentGCP-veille/pkg/utils/logging"
)

type Server struct {
	router   *chi.Mux
	askUC    *usecase.AskUseCase
	answerUC *usecase.AnswerUseCase
	veilleUC *usecase.VeilleUseCase
}

type Options func(*Server)

// WithAnswer exposes the local retrieval-grounded responder on POST /query
func WithAnswer(uc *usecase.AnswerUseCase) Options {
	return func(s *Server) {
		s.answerUC = uc
	}
}

// WithVeille exposes the watch run on POST /api/veille/run
func WithVeille(uc *usecase.VeilleUseCase) Options {
	return func(s *Server) {
		s.veilleUC = uc
	}
}

func New(askUC *usecase.AskUseCase, opts ...Options) *Server {
	r := chi.NewRouter()

	s := &Server{
		router: r,
		askUC:  askUC,
	}
	for _, opt := range opts {
		opt(s)
	}

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(accessLogger)
	r.Use(middleware.Recoverer)
	r.Use(corsHandler)

	r.Get("/health", healthHandler)

	r.Route("/api", func(r chi.Router) {
		r.Post("/ask", askHandler(s.askUC))

		if s.veilleUC != nil {
			r.Post("/veille/run", veilleRunHandler(s.veilleUC))
		}
	})

	// Cloud Run responder contract: agents of the cloudrun family receive
	// {"user_query": ...} on /query. Exposing the same surface makes this
	// process addressable as an agent by another orchestrator.
	if s.answerUC != nil {
		r.Post("/query", queryHandler(s.answerUC))
	}

	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// accessLogger is a middleware that logs HTTP requests
func accessLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		defer func() {
			logging.Default().Info("access",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"bytes", ww.BytesWritten(),
				"duration", time.Since(start),
				"remote", r.RemoteAddr,
				"user_agent", r.UserAgent(),
			)
		}()

		next.ServeHTTP(ww, r)
	})
}

// corsHandler allows browser clients to call the JSON endpoints directly
func corsHandler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")

		if r.Method == http.MethodOptions {
			w.Header().Set("Access-Control-Allow-Methods", "POST")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
			w.WriteHeader(http.StatusNoContent)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"ok"}`)) //nolint:errcheck // header already committed
}
