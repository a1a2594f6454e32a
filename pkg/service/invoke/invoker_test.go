package invoke_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/m-mizutani/gt"

	"github.com/Nathan-c-cloud/agentGCP-veille/pkg/domain/model"
	"github.com/Nathan-c-cloud/agentGCP-veille/pkg/service/invoke"
)

func testAgent(url string) *model.AgentDescriptor {
	return &model.AgentDescriptor{
		ID:          "fiscalite",
		EndpointURL: url,
		Family:      model.AgentFamilyFunctions,
		Enabled:     true,
	}
}

func TestInvokeSuccess(t *testing.T) {
	var received map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(body, &received)
		gt.Equal(t, r.Header.Get("Content-Type"), "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"reponse":"Le taux normal est 20%."}`))
	}))
	defer srv.Close()

	inv := invoke.New(invoke.WithBackoffBase(0))
	agent := testAgent(srv.URL)
	payload := invoke.BuildPayload(agent, "C'est quoi la TVA ?", "")

	body := gt.R1(inv.Invoke(context.Background(), agent, payload)).NoError(t)
	gt.True(t, len(body) > 0)
	gt.Equal(t, received["question"], "C'est quoi la TVA ?")
}

func TestInvokeRetriesTransportFailuresThenUnreachable(t *testing.T) {
	// A server that accepts the connection and hangs past the client timeout.
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer srv.Close()

	calls := 0
	counting := &http.Client{
		Transport: roundTripFunc(func(r *http.Request) (*http.Response, error) {
			calls++
			return http.DefaultTransport.RoundTrip(r)
		}),
	}

	inv := invoke.New(
		invoke.WithHTTPClient(counting),
		invoke.WithTimeout(20*time.Millisecond),
		invoke.WithBackoffBase(time.Millisecond),
	)

	agent := testAgent(srv.URL)
	_, err := inv.Invoke(context.Background(), agent, invoke.BuildPayload(agent, "q", ""))

	gt.Error(t, err)
	gt.True(t, errors.Is(err, invoke.ErrUnreachable))
	gt.Equal(t, calls, invoke.DefaultMaxRetries)
}

func TestInvokeNeverRetriesForbidden(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	inv := invoke.New(invoke.WithBackoffBase(0))
	agent := testAgent(srv.URL)
	_, err := inv.Invoke(context.Background(), agent, invoke.BuildPayload(agent, "q", ""))

	gt.Error(t, err)
	gt.True(t, errors.Is(err, invoke.ErrAuth))
	gt.True(t, !errors.Is(err, invoke.ErrUnreachable))
	gt.Equal(t, calls, 1)
}

func TestInvokeServerErrorIsTerminal(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	inv := invoke.New(invoke.WithBackoffBase(0))
	agent := testAgent(srv.URL)
	_, err := inv.Invoke(context.Background(), agent, invoke.BuildPayload(agent, "q", ""))

	gt.Error(t, err)
	gt.True(t, errors.Is(err, invoke.ErrAgentFailed))
	gt.Equal(t, calls, 1)
}

func TestInvokeAuthenticatedAgentUsesSignedClient(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gt.Equal(t, r.Header.Get("Authorization"), "Bearer test-token")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	signed := &http.Client{
		Transport: roundTripFunc(func(r *http.Request) (*http.Response, error) {
			r.Header.Set("Authorization", "Bearer test-token")
			return http.DefaultTransport.RoundTrip(r)
		}),
	}

	var audience string
	inv := invoke.New(
		invoke.WithBackoffBase(0),
		invoke.WithAuthClientFactory(func(ctx context.Context, aud string) (*http.Client, error) {
			audience = aud
			return signed, nil
		}),
	)

	agent := testAgent(srv.URL)
	agent.RequiresAuth = true

	gt.R1(inv.Invoke(context.Background(), agent, invoke.BuildPayload(agent, "q", ""))).NoError(t)
	gt.Equal(t, audience, srv.URL)
}

func TestInvokeDisabledAgent(t *testing.T) {
	inv := invoke.New()
	agent := testAgent("https://example.com")
	agent.Enabled = false

	_, err := inv.Invoke(context.Background(), agent, map[string]any{})
	gt.Error(t, err)
	gt.True(t, errors.Is(err, invoke.ErrUnreachable))
}

func TestBuildPayloadFamilies(t *testing.T) {
	functions := &model.AgentDescriptor{Family: model.AgentFamilyFunctions}
	cloudrun := &model.AgentDescriptor{Family: model.AgentFamilyCloudRun}

	p := invoke.BuildPayload(functions, "ma question", "")
	gt.Equal(t, p["question"], "ma question")

	p = invoke.BuildPayload(cloudrun, "ma question", "")
	gt.Equal(t, p["user_query"], "ma question")

	withCtx := &model.AgentDescriptor{Family: model.AgentFamilyCloudRun, NeedsExtraContext: true}
	p = invoke.BuildPayload(withCtx, "ma question", "profil: boulangerie")
	gt.Equal(t, p["context"], "profil: boulangerie")
}

type roundTripFunc func(r *http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(r *http.Request) (*http.Response, error) {
	return f(r)
}
