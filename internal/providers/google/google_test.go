package google

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"mentichat/internal/models"
	"mentichat/internal/providers"
)

// --- resolveModel ---

func TestResolveModel_NonEmpty(t *testing.T) {
	p := NewClient("", "", 0)
	if got := p.resolveModel("gemini-pro"); got != "gemini-pro" {
		t.Errorf("expected gemini-pro, got %q", got)
	}
}

func TestResolveModel_UsesRuntimeDefault(t *testing.T) {
	p := NewClient("", "my-runtime-model", 0)
	if got := p.resolveModel(""); got != "my-runtime-model" {
		t.Errorf("expected my-runtime-model, got %q", got)
	}
}

func TestResolveModel_FallsBackToConst(t *testing.T) {
	p := NewClient("", "", 0)
	if got := p.resolveModel(""); got != DefaultModel {
		t.Errorf("expected %q, got %q", DefaultModel, got)
	}
}

func TestKind(t *testing.T) {
	if k := NewClient("", "", 0).Kind(); k != models.ProviderManaged {
		t.Errorf("expected managed, got %q", k)
	}
}

// --- Send via mock HTTP server ---

type recorded struct {
	calls int
	path  string
	key   string
	query string
	body  string
}

func newGeminiServer(t *testing.T, status int, body string, rec *recorded) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec.calls++
		rec.path = r.URL.Path
		rec.key = r.Header.Get("x-goog-api-key")
		rec.query = r.URL.RawQuery
		b, _ := io.ReadAll(r.Body)
		rec.body = string(b)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		io.WriteString(w, body)
	}))
	t.Cleanup(srv.Close)
	return srv
}

const okBody = `{"candidates":[{"content":{"parts":[{"text":"hello "},{"text":"there"}]},"finishReason":"STOP"}]}`

func TestSend_Success(t *testing.T) {
	rec := &recorded{}
	srv := newGeminiServer(t, http.StatusOK, okBody, rec)

	p := NewClient(srv.URL+"/", "", 0)
	sel := models.ProviderSelection{Provider: models.ProviderManaged, Model: "gemini-pro", Credential: "k1"}
	payload, err := p.Send(context.Background(), "hi", sel)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if payload.Kind != providers.PayloadString || payload.String != "hello there" {
		t.Errorf("unexpected payload: %+v", payload)
	}
	if rec.calls != 1 {
		t.Errorf("expected 1 call, got %d", rec.calls)
	}
	if rec.path != "/gemini-pro:generateContent" {
		t.Errorf("unexpected path %q", rec.path)
	}
	if rec.key != "k1" {
		t.Errorf("expected x-goog-api-key k1, got %q", rec.key)
	}
	if rec.query != "" {
		t.Errorf("expected no query string, got %q", rec.query)
	}
	if !strings.Contains(rec.body, `"text":"hi"`) {
		t.Errorf("request body missing user text: %s", rec.body)
	}
}

func TestSend_UsesDefaultWhenNoModel(t *testing.T) {
	rec := &recorded{}
	srv := newGeminiServer(t, http.StatusOK, okBody, rec)

	p := NewClient(srv.URL, "my-default", 0)
	_, err := p.Send(context.Background(), "hi", models.ProviderSelection{Provider: models.ProviderManaged, Credential: "k"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.path != "/my-default:generateContent" {
		t.Errorf("expected default model in path, got %q", rec.path)
	}
}

func TestSend_MissingCredential_NoNetworkCall(t *testing.T) {
	rec := &recorded{}
	srv := newGeminiServer(t, http.StatusOK, okBody, rec)

	p := NewClient(srv.URL, "m", 0)
	_, err := p.Send(context.Background(), "hi", models.ProviderSelection{Provider: models.ProviderManaged, Model: "m", Credential: "  "})
	if !errors.Is(err, providers.ErrMissingCredential) {
		t.Fatalf("expected missing credential, got %v", err)
	}
	if rec.calls != 0 {
		t.Errorf("expected no calls, got %d", rec.calls)
	}
}

func TestSend_ServerErrorIsProviderFailure(t *testing.T) {
	rec := &recorded{}
	srv := newGeminiServer(t, http.StatusInternalServerError, `{"error":"boom"}`, rec)

	p := NewClient(srv.URL, "m", 0)
	_, err := p.Send(context.Background(), "hi", models.ProviderSelection{Provider: models.ProviderManaged, Model: "m", Credential: "k"})
	if !errors.Is(err, providers.ErrProviderFailure) {
		t.Fatalf("expected provider failure, got %v", err)
	}
	if !strings.Contains(err.Error(), "500") {
		t.Errorf("expected status in detail, got %v", err)
	}
}

func TestSend_NoCandidates(t *testing.T) {
	rec := &recorded{}
	srv := newGeminiServer(t, http.StatusOK, `{"promptFeedback":{"blockReason":"SAFETY"}}`, rec)

	p := NewClient(srv.URL, "m", 0)
	_, err := p.Send(context.Background(), "hi", models.ProviderSelection{Provider: models.ProviderManaged, Model: "m", Credential: "k"})
	if !errors.Is(err, providers.ErrProviderFailure) {
		t.Fatalf("expected provider failure, got %v", err)
	}
	if !strings.Contains(err.Error(), "SAFETY") {
		t.Errorf("expected block reason in detail, got %v", err)
	}
}

func TestSend_TransportErrorRedactsKey(t *testing.T) {
	p := NewClient("http://127.0.0.1:1/", "m", 0)
	_, err := p.Send(context.Background(), "hi", models.ProviderSelection{Provider: models.ProviderManaged, Model: "m", Credential: "supersecret"})
	if err == nil {
		t.Fatal("expected error for unreachable host")
	}
	var ce *providers.ClientError
	if !errors.As(err, &ce) {
		t.Fatalf("expected *ClientError, got %T", err)
	}
	if strings.Contains(ce.Detail, "supersecret") {
		t.Errorf("credential leaked into detail: %q", ce.Detail)
	}
}

func TestSend_ConcurrentKeysStayWithTheirRequest(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := r.Header.Get("x-goog-api-key")
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintf(w, `{"candidates":[{"content":{"parts":[{"text":%q}]}}]}`, key)
	}))
	defer srv.Close()

	p := NewClient(srv.URL, "m", 0)
	var wg sync.WaitGroup
	errs := make(chan string, 100)
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func(key string) {
			defer wg.Done()
			payload, err := p.Send(context.Background(), "hi", models.ProviderSelection{Provider: models.ProviderManaged, Model: "m", Credential: key})
			if err != nil {
				errs <- err.Error()
				return
			}
			if payload.String != key {
				errs <- fmt.Sprintf("sent %q, upstream saw %q", key, payload.String)
			}
		}(fmt.Sprintf("key-%d", i))
	}
	wg.Wait()
	close(errs)
	for e := range errs {
		t.Error(e)
	}
}

func TestSend_EchoedKeyIsRedacted(t *testing.T) {
	rec := &recorded{}
	srv := newGeminiServer(t, http.StatusBadRequest, `{"error":"API key supersecret not valid"}`, rec)

	p := NewClient(srv.URL, "m", 0)
	_, err := p.Send(context.Background(), "hi", models.ProviderSelection{Provider: models.ProviderManaged, Model: "m", Credential: "supersecret"})
	if err == nil {
		t.Fatal("expected error for 400 response")
	}
	if strings.Contains(err.Error(), "supersecret") {
		t.Errorf("credential leaked into error: %v", err)
	}
}

// --- redactKey ---

func TestRedactKey(t *testing.T) {
	if got := redactKey("error: secret123 not found", "secret123"); got != "error: *** not found" {
		t.Errorf("expected key to be redacted, got %q", got)
	}
}

func TestRedactKey_EmptyKey(t *testing.T) {
	s := "no key here"
	if got := redactKey(s, ""); got != s {
		t.Errorf("expected unchanged string, got %q", got)
	}
}
