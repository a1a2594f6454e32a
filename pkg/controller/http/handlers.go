package http

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/m-mizutani/goerr/v2"

	"github.com/Nathan-c-cloud/agentGCP-veille/pkg/usecase"
	"github.com/Nathan-c-cloud/agentGCP-veille/pkg/utils/errutil"
	"github.com/Nathan-c-cloud/agentGCP-veille/pkg/utils/logging"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(data) //nolint:errcheck // header already committed
}

// askHandler answers POST /api/ask with the orchestrated agent response
func askHandler(uc *usecase.AskUseCase) http.HandlerFunc {
	type request struct {
		Question string `json:"question"`
		Context  string `json:"context,omitempty"`
	}

	return func(w http.ResponseWriter, r *http.Request) {
		var req request
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			errutil.HandleHTTP(r.Context(), w, goerr.Wrap(err, "invalid request body"), http.StatusBadRequest)
			return
		}
		if strings.TrimSpace(req.Question) == "" {
			errutil.HandleHTTP(r.Context(), w, goerr.New("question is required"), http.StatusBadRequest)
			return
		}

		answer, err := uc.AskWithContext(r.Context(), req.Question, req.Context)
		if err != nil {
			// The user sees a friendly envelope, operators see the details.
			errutil.Handle(r.Context(), err, "ask failed")
			writeJSON(w, http.StatusBadGateway, usecase.EnvelopeFromError(err))
			return
		}

		writeJSON(w, http.StatusOK, answer)
	}
}

// queryHandler serves the Cloud Run responder contract on POST /query
func queryHandler(uc *usecase.AnswerUseCase) http.HandlerFunc {
	type request struct {
		UserQuery string `json:"user_query"`
	}

	return func(w http.ResponseWriter, r *http.Request) {
		var req request
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			errutil.HandleHTTP(r.Context(), w, goerr.Wrap(err, "invalid request body"), http.StatusBadRequest)
			return
		}
		if strings.TrimSpace(req.UserQuery) == "" {
			errutil.HandleHTTP(r.Context(), w, goerr.New("user_query is required"), http.StatusBadRequest)
			return
		}

		answer, err := uc.Answer(r.Context(), req.UserQuery)
		if err != nil {
			errutil.Handle(r.Context(), err, "local answer failed")
			writeJSON(w, http.StatusInternalServerError, usecase.EnvelopeFromError(err))
			return
		}

		writeJSON(w, http.StatusOK, answer)
	}
}

// veilleRunHandler triggers a watch run on POST /api/veille/run
func veilleRunHandler(uc *usecase.VeilleUseCase) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		logging.From(r.Context()).Info("veille run requested", "remote", r.RemoteAddr)

		summary, err := uc.Run(r.Context())
		if err != nil {
			errutil.Handle(r.Context(), err, "veille run failed")
			writeJSON(w, http.StatusInternalServerError, usecase.EnvelopeFromError(err))
			return
		}

		writeJSON(w, http.StatusOK, summary)
	}
}
