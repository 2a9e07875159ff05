package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/google/uuid"

	"github.com/nao1215/crawlctl/internal/model"
)

// runCLI executes the root command with args and returns what it printed.
func runCLI(t *testing.T, args ...string) (stdout, stderr string, err error) {
	t.Helper()

	root := NewRootCmd()
	var out, errOut bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&errOut)
	root.SetArgs(args)

	err = root.Execute()
	return out.String(), errOut.String(), err
}

// writeTestConfig writes a config file so tests never pick up a real one.
func writeTestConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "crawlctl.yaml")
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}
	return path
}

// requestIDFor derives a stable request id from the seed URL.
func requestIDFor(url string) string {
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte(url)).String()
}

// fakeCrawlAPI is an in-memory crawl API.
type fakeCrawlAPI struct {
	*httptest.Server

	mu        sync.Mutex
	requests  map[string]model.CrawlRequest
	created   []model.CrawlRequest
	cancelled []string
	authSeen  []string
}

func newFakeCrawlAPI(t *testing.T) *fakeCrawlAPI {
	t.Helper()

	f := &fakeCrawlAPI{requests: make(map[string]model.CrawlRequest)}
	mux := http.NewServeMux()
	const prefix = "/api/v1/core"

	mux.HandleFunc("POST "+prefix+"/crawl-requests/{$}", func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			URL     string             `json:"url"`
			Options model.CrawlOptions `json:"options"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		req := model.CrawlRequest{
			UUID:    requestIDFor(body.URL),
			URL:     body.URL,
			Status:  model.StatusNew,
			Options: body.Options,
		}

		f.mu.Lock()
		f.requests[req.UUID] = req
		f.created = append(f.created, req)
		f.authSeen = append(f.authSeen, r.Header.Get("Authorization"))
		f.mu.Unlock()

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(req)
	})

	mux.HandleFunc("GET "+prefix+"/crawl-requests/{id}/{$}", func(w http.ResponseWriter, r *http.Request) {
		req, ok := f.lookup(r.PathValue("id"))
		if !ok {
			http.NotFound(w, r)
			return
		}
		_ = json.NewEncoder(w).Encode(req)
	})

	mux.HandleFunc("DELETE "+prefix+"/crawl-requests/{id}/{$}", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		f.cancelled = append(f.cancelled, r.PathValue("id"))
		f.mu.Unlock()
		w.WriteHeader(http.StatusNoContent)
	})

	mux.HandleFunc("GET "+prefix+"/crawl-requests/{id}/status/{$}", func(w http.ResponseWriter, r *http.Request) {
		req, ok := f.lookup(r.PathValue("id"))
		if !ok {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "text/event-stream")

		running := req
		running.Status = model.StatusRunning
		finished := req
		finished.Status = model.StatusFinished
		finished.NumberOfDocuments = 2

		writeFrame(w, model.NewStateEvent(running))
		writeFrame(w, model.NewResultEvent(model.CrawlResult{UUID: "r1", Title: "Home", URL: req.URL, Result: f.URL + "/docs/r1.json"}))
		writeFrame(w, model.NewResultEvent(model.CrawlResult{UUID: "r1", Title: "Home", URL: req.URL, Result: f.URL + "/docs/r1.json"}))
		fmt.Fprintln(w, "data: {broken")
		writeFrame(w, model.NewResultEvent(model.CrawlResult{UUID: "r2", Title: "About", URL: req.URL + "/about", Result: f.URL + "/docs/r2.json"}))
		writeFrame(w, model.NewStateEvent(finished))
	})

	mux.HandleFunc("GET "+prefix+"/crawl-requests/{id}/results/{$}", func(w http.ResponseWriter, r *http.Request) {
		page := r.URL.Query().Get("page")
		out := model.Paginated[model.CrawlResult]{Count: 2}
		if page == "" || page == "1" {
			out.Results = []model.CrawlResult{{UUID: "r1", Title: "Home"}}
			out.Next = f.URL + r.URL.Path + "?page=2"
		} else {
			out.Results = []model.CrawlResult{{UUID: "r2", Title: "About"}}
		}
		_ = json.NewEncoder(w).Encode(out)
	})

	mux.HandleFunc("GET "+prefix+"/crawl-requests/{id}/download/{$}", func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `[{"uuid":"r1"},{"uuid":"r2"}]`)
	})

	mux.HandleFunc("GET "+prefix+"/crawl-requests/{$}", func(w http.ResponseWriter, _ *http.Request) {
		f.mu.Lock()
		out := model.Paginated[model.CrawlRequest]{Count: len(f.requests), Results: make([]model.CrawlRequest, 0)}
		for _, req := range f.requests {
			out.Results = append(out.Results, req)
		}
		f.mu.Unlock()
		_ = json.NewEncoder(w).Encode(out)
	})

	mux.HandleFunc("GET "+prefix+"/usage/{$}", func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `{"total_crawls":3,"finished_crawls":2,"failed_crawls":1,"remaining_page_credits":97,"beta_counter":5}`)
	})

	mux.HandleFunc("GET "+prefix+"/plugins/schema", func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `{"type":"object","properties":{"openai":{"type":"object","title":"OpenAI","properties":{"max_tokens":{"type":"integer","default":256}}}}}`)
	})

	mux.HandleFunc("GET /docs/{name}", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, `{"markdown":"# Hello\n\nWorld","links":["https://example.com/a"],"metadata":{"title":"Doc %s","url":"https://example.com/"}}`, r.PathValue("name"))
	})

	f.Server = httptest.NewServer(mux)
	t.Cleanup(f.Close)
	return f
}

func (f *fakeCrawlAPI) lookup(id string) (model.CrawlRequest, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	req, ok := f.requests[id]
	return req, ok
}

// seed stores a request as if it had been created earlier.
func (f *fakeCrawlAPI) seed(url string) string {
	req := model.CrawlRequest{UUID: requestIDFor(url), URL: url, Status: model.StatusRunning}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests[req.UUID] = req
	return req.UUID
}

func writeFrame(w http.ResponseWriter, ev model.CrawlEvent) {
	data, err := json.Marshal(ev)
	if err != nil {
		panic(err)
	}
	fmt.Fprintf(w, "data: %s\n", data)
	if fl, ok := w.(http.Flusher); ok {
		fl.Flush()
	}
}

// apiArgs returns the flags pointing a command at the fake API with an
// isolated config file and history directory.
func apiArgs(t *testing.T, f *fakeCrawlAPI, dataDir string) []string {
	t.Helper()
	return []string{
		"--config", writeTestConfig(t, "defaults:\n  timeout: 5s\n"),
		"--api-url", f.URL,
		"--api-key", "test-key",
		"--data-dir", dataDir,
	}
}
