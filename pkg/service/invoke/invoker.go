package invoke

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"google.golang.org/api/idtoken"

	"github.com/Nathan-c-cloud/agentGCP-veille/pkg/domain/model"
	"github.com/Nathan-c-cloud/agentGCP-veille/pkg/utils/logging"
	"github.com/Nathan-c-cloud/agentGCP-veille/pkg/utils/safe"
)

var (
	// ErrUnreachable is returned after the retry budget is exhausted on
	// transport-level failures
	ErrUnreachable = goerr.New("agent unreachable")

	// ErrAuth is returned on 401/403 so operators can tell IAM
	// misconfiguration from network issues. Never retried.
	ErrAuth = goerr.New("agent authorization failed")

	// ErrAgentFailed is returned on other non-2xx responses. The failure is
	// owned by the target agent; retrying here would not help.
	ErrAgentFailed = goerr.New("agent returned an error response")
)

const (
	// DefaultTimeout bounds one outbound call
	DefaultTimeout = 60 * time.Second

	// DefaultMaxRetries is the number of attempts on transport failures
	DefaultMaxRetries = 3

	// DefaultBackoffBase seeds the exponential backoff:
	// delay = base * 2^(attempt-1)
	DefaultBackoffBase = 750 * time.Millisecond
)

// Invoker calls downstream agent endpoints with timeout and retry handling.
// Only transport-level failures are retried; HTTP application responses are
// terminal for the call.
type Invoker struct {
	httpClient  *http.Client
	authClient  func(ctx context.Context, audience string) (*http.Client, error)
	timeout     time.Duration
	maxRetries  int
	backoffBase time.Duration
}

// Option is a functional option for Invoker configuration
type Option func(*Invoker)

// WithHTTPClient overrides the client used for unauthenticated calls
func WithHTTPClient(client *http.Client) Option {
	return func(i *Invoker) {
		i.httpClient = client
	}
}

// WithAuthClientFactory overrides how signed clients are built for agents
// that require authentication
func WithAuthClientFactory(f func(ctx context.Context, audience string) (*http.Client, error)) Option {
	return func(i *Invoker) {
		i.authClient = f
	}
}

// WithTimeout overrides the per-call timeout
func WithTimeout(d time.Duration) Option {
	return func(i *Invoker) {
		if d > 0 {
			i.timeout = d
		}
	}
}

// WithMaxRetries overrides the transport retry budget
func WithMaxRetries(n int) Option {
	return func(i *Invoker) {
		if n > 0 {
			i.maxRetries = n
		}
	}
}

// WithBackoffBase overrides the backoff seed. Tests shrink it.
func WithBackoffBase(d time.Duration) Option {
	return func(i *Invoker) {
		if d >= 0 {
			i.backoffBase = d
		}
	}
}

// New creates an Invoker
func New(opts ...Option) *Invoker {
	i := &Invoker{
		httpClient:  http.DefaultClient,
		authClient:  newIDTokenClient,
		timeout:     DefaultTimeout,
		maxRetries:  DefaultMaxRetries,
		backoffBase: DefaultBackoffBase,
	}

	for _, opt := range opts {
		opt(i)
	}

	return i
}

// newIDTokenClient builds a client whose requests carry an identity token
// for the target audience, for service-to-service calls on Cloud Run.
func newIDTokenClient(ctx context.Context, audience string) (*http.Client, error) {
	client, err := idtoken.NewClient(ctx, audience)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create idtoken client", goerr.V("audience", audience))
	}
	return client, nil
}

// BuildPayload shapes the request body for an agent family. Agents needing
// extra context receive it alongside the query.
func BuildPayload(agent *model.AgentDescriptor, query, extraContext string) map[string]any {
	payload := map[string]any{
		agent.Family.QueryKey(): query,
	}
	if agent.NeedsExtraContext && extraContext != "" {
		payload["context"] = extraContext
	}
	return payload
}

// Invoke POSTs the payload to the agent endpoint and returns the response
// body. Transport failures are retried up to the budget with exponential
// backoff; 401/403 map to ErrAuth and other non-2xx to ErrAgentFailed,
// neither retried.
func (i *Invoker) Invoke(ctx context.Context, agent *model.AgentDescriptor, payload map[string]any) ([]byte, error) {
	logger := logging.From(ctx)

	if !agent.Invokable() {
		return nil, goerr.Wrap(ErrUnreachable, "agent is not invokable",
			goerr.V("agent", agent.ID), goerr.V("enabled", agent.Enabled))
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to marshal payload", goerr.V("agent", agent.ID))
	}

	client := i.httpClient
	if agent.RequiresAuth {
		client, err = i.authClient(ctx, agent.EndpointURL)
		if err != nil {
			return nil, goerr.Wrap(ErrAuth, "failed to build signed client",
				goerr.V("agent", agent.ID), goerr.V("cause", err.Error()))
		}
	}

	var lastErr error
	for attempt := 1; attempt <= i.maxRetries; attempt++ {
		if attempt > 1 {
			delay := i.backoffBase * time.Duration(1<<(attempt-2))
			logger.Warn("retrying agent call",
				"agent", agent.ID, "attempt", attempt, "delay", delay.String())
			select {
			case <-ctx.Done():
				return nil, goerr.Wrap(ctx.Err(), "request cancelled during backoff")
			case <-time.After(delay):
			}
		}

		respBody, status, err := i.post(ctx, client, agent.EndpointURL, body)
		if err != nil {
			// Transport-level failure: the only retryable case.
			lastErr = err
			continue
		}

		switch {
		case status == http.StatusUnauthorized || status == http.StatusForbidden:
			return nil, goerr.Wrap(ErrAuth, "agent rejected the call",
				goerr.V("agent", agent.ID), goerr.V("status", status))
		case status < 200 || status >= 300:
			return nil, goerr.Wrap(ErrAgentFailed, "agent call failed",
				goerr.V("agent", agent.ID), goerr.V("status", status))
		default:
			return respBody, nil
		}
	}

	return nil, goerr.Wrap(ErrUnreachable, "retry budget exhausted",
		goerr.V("agent", agent.ID),
		goerr.V("attempts", i.maxRetries),
		goerr.V("cause", lastErr.Error()))
}

func (i *Invoker) post(ctx context.Context, client *http.Client, url string, body []byte) ([]byte, int, error) {
	callCtx, cancel := context.WithTimeout(ctx, i.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(callCtx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, 0, goerr.Wrap(err, "failed to build request", goerr.V("url", url))
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return nil, 0, goerr.Wrap(err, "request failed", goerr.V("url", url))
	}
	defer safe.Close(ctx, resp.Body)

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, 0, goerr.Wrap(err, "failed to read response body", goerr.V("url", url))
	}

	return respBody, resp.StatusCode, nil
}
