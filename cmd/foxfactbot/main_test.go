package main

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"gitlab.com/meutraa/foxfactbot/pkg/openai"
	"gitlab.com/meutraa/foxfactbot/pkg/poster"
)

const completionFixture = `{"id":"x","object":"chat.completion","created":0,"choices":[{"index":0,"message":{"role":"assistant","content":"Foxes can hear rodents burrowing underground."},"finishReason":"stop"}],"usage":{"promptTokens":10,"completionTokens":8,"totalTokens":18}}`

type fakeMastodon struct {
	*httptest.Server
	mu       sync.Mutex
	statuses []string
	posted   chan struct{}
}

func newFakeMastodon() *fakeMastodon {
	f := &fakeMastodon{posted: make(chan struct{}, 16)}
	mux := http.NewServeMux()
	mux.HandleFunc("/api/v1/accounts/verify_credentials", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer good" {
			w.WriteHeader(http.StatusUnauthorized)
			w.Write([]byte(`{"error":"The access token is invalid"}`))
			return
		}
		w.Write([]byte(`{"id":"42","username":"foxfacts","acct":"foxfacts"}`))
	})
	mux.HandleFunc("/api/v1/statuses", func(w http.ResponseWriter, r *http.Request) {
		r.ParseForm()
		f.mu.Lock()
		f.statuses = append(f.statuses, r.PostForm.Get("status"))
		f.mu.Unlock()
		w.Write([]byte(`{"id":"108","url":"https://mastodon.social/@foxfacts/108"}`))
		f.posted <- struct{}{}
	})
	f.Server = httptest.NewServer(mux)
	return f
}

func (f *fakeMastodon) Statuses() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.statuses...)
}

type fakeCompletion struct {
	*httptest.Server
	hits     atomic.Int32
	mu       sync.Mutex
	requests []openai.CompletionRequest
}

func newFakeCompletion(t *testing.T) *fakeCompletion {
	f := &fakeCompletion{}
	f.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		f.hits.Add(1)
		var req openai.CompletionRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("unable to decode completion request: %v", err)
		}
		f.mu.Lock()
		f.requests = append(f.requests, req)
		f.mu.Unlock()
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(completionFixture))
	}))
	return f
}

func setEnv(t *testing.T, accessToken, mastodonURL, completionURL string) {
	t.Setenv("MASTODON_ACCESS_TOKEN", accessToken)
	t.Setenv("GPT_TOKEN", "sk-test")
	t.Setenv("MASTODON_SERVER", mastodonURL)
	t.Setenv("OPENAI_ENDPOINT", completionURL)
	t.Setenv("OPENAI_MODEL", "")
	t.Setenv("FACT_PROMPT", "")
	t.Setenv("POSTGRES_CONNECTION_STRING", "")
	t.Setenv("LISTEN_ADDRESS", "")
}

func TestRunPublishesCompletionOnce(t *testing.T) {
	masto := newFakeMastodon()
	defer masto.Close()
	completion := newFakeCompletion(t)
	defer completion.Close()
	setEnv(t, "good", masto.URL, completion.URL)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan error, 1)
	go func() {
		done <- run(ctx)
	}()

	select {
	case <-masto.posted:
	case err := <-done:
		t.Fatalf("run returned before posting: %v", err)
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for a status")
	}
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("expected clean shutdown, got %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for shutdown")
	}

	statuses := masto.Statuses()
	if len(statuses) != 1 || statuses[0] != "Foxes can hear rodents burrowing underground." {
		t.Errorf("expected fixture text published once, got %q", statuses)
	}
	if completion.hits.Load() != 1 {
		t.Fatalf("expected 1 completion request, got %d", completion.hits.Load())
	}
	completion.mu.Lock()
	req := completion.requests[0]
	completion.mu.Unlock()
	if req.Model != "gpt-3.5-turbo" || len(req.Messages) != 1 ||
		req.Messages[0].Role != "user" || req.Messages[0].Content != poster.DefaultPrompt {
		t.Errorf("unexpected completion request %+v", req)
	}
}

func TestRunStopsWhenVerificationFails(t *testing.T) {
	masto := newFakeMastodon()
	defer masto.Close()
	completion := newFakeCompletion(t)
	defer completion.Close()
	setEnv(t, "bad", masto.URL, completion.URL)

	err := run(context.Background())
	if err == nil {
		t.Fatal("expected verification error, got nil")
	}
	if !strings.Contains(err.Error(), "unable to verify account credentials") {
		t.Errorf("unexpected error %v", err)
	}
	if completion.hits.Load() != 0 {
		t.Errorf("expected loop not to start, got %d completion requests", completion.hits.Load())
	}
	if len(masto.Statuses()) != 0 {
		t.Errorf("expected no statuses, got %q", masto.Statuses())
	}
}

func TestRunRequiresTokens(t *testing.T) {
	tests := []struct {
		name        string
		accessToken string
		gptToken    string
	}{
		{"no access token", "", "sk-test"},
		{"no gpt token", "good", ""},
		{"neither", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setEnv(t, tt.accessToken, "http://127.0.0.1:0", "http://127.0.0.1:0")
			t.Setenv("GPT_TOKEN", tt.gptToken)

			err := run(context.Background())
			if err == nil || err.Error() != "missing environment variable" {
				t.Fatalf("expected missing environment variable, got %v", err)
			}
		})
	}
}

func TestRunStopsWhenListenAddressIsTaken(t *testing.T) {
	masto := newFakeMastodon()
	defer masto.Close()
	completion := newFakeCompletion(t)
	defer completion.Close()
	setEnv(t, "good", masto.URL, completion.URL)

	taken, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	defer taken.Close()
	t.Setenv("LISTEN_ADDRESS", taken.Addr().String())

	err = run(context.Background())
	if err == nil {
		t.Fatal("expected listen error, got nil")
	}
	if !strings.Contains(err.Error(), "unable to listen on "+taken.Addr().String()) {
		t.Errorf("unexpected error %v", err)
	}
	if completion.hits.Load() != 0 {
		t.Errorf("expected loop not to start, got %d completion requests", completion.hits.Load())
	}
	if len(masto.Statuses()) != 0 {
		t.Errorf("expected no statuses, got %q", masto.Statuses())
	}
}

func TestRunServesStatusAPI(t *testing.T) {
	masto := newFakeMastodon()
	defer masto.Close()
	completion := newFakeCompletion(t)
	defer completion.Close()
	setEnv(t, "good", masto.URL, completion.URL)

	free, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	addr := free.Addr().String()
	free.Close()
	t.Setenv("LISTEN_ADDRESS", addr)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan error, 1)
	go func() {
		done <- run(ctx)
	}()

	select {
	case <-masto.posted:
	case err := <-done:
		t.Fatalf("run returned before posting: %v", err)
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for a status")
	}

	res, err := http.Get("http://" + addr + "/healthz")
	if err != nil {
		t.Fatalf("unable to reach status api: %v", err)
	}
	res.Body.Close()
	if res.StatusCode != http.StatusOK {
		t.Errorf("expected 200, got %d", res.StatusCode)
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("expected clean shutdown, got %v", err)
		}
	case <-time.After(10 * time.Second):
		t.Fatal("timed out waiting for shutdown")
	}
}
