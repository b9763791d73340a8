package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"testing"

	"easel/internal/job"
)

// fakeBackend is an in-memory stand-in for the generation backend's REST
// surface, serving just enough of it for CLI tests.
type fakeBackend struct {
	mu      sync.Mutex
	nextID  int
	jobs    []job.Job
	files   map[string][]byte
	creates []createRecord
}

type createRecord struct {
	Operation string
	Model     string
	Prompt    string
	HasImage  bool
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{files: map[string][]byte{}}
}

func (b *fakeBackend) addJob(j job.Job) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.jobs = append(b.jobs, j)
}

func (b *fakeBackend) createCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.creates)
}

func (b *fakeBackend) handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /api/queue/cancel-all", func(w http.ResponseWriter, r *http.Request) {
		b.mu.Lock()
		cancelled := 0
		for i := range b.jobs {
			if job.IsActive(b.jobs[i].Status) {
				b.jobs[i].Status = job.StatusCancelled
				cancelled++
			}
		}
		b.mu.Unlock()
		writeJSON(w, map[string]int{"cancelled": cancelled})
	})

	mux.HandleFunc("POST /api/queue/{op}", func(w http.ResponseWriter, r *http.Request) {
		record := createRecord{Operation: r.PathValue("op")}
		if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
			if err := r.ParseMultipartForm(16 << 20); err != nil {
				http.Error(w, err.Error(), http.StatusBadRequest)
				return
			}
			record.Model = r.FormValue("model")
			record.Prompt = r.FormValue("prompt")
			_, _, err := r.FormFile("image")
			record.HasImage = err == nil
		} else {
			var body struct {
				Model  string `json:"model"`
				Prompt string `json:"prompt"`
			}
			if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
				http.Error(w, err.Error(), http.StatusBadRequest)
				return
			}
			record.Model = body.Model
			record.Prompt = body.Prompt
		}

		b.mu.Lock()
		b.nextID++
		id := fmt.Sprintf("job-%d", b.nextID)
		b.creates = append(b.creates, record)
		b.jobs = append(b.jobs, job.Job{
			ID:     id,
			Status: job.StatusPending,
			Mode:   job.Mode(record.Operation),
			Model:  record.Model,
			Prompt: record.Prompt,
		})
		b.mu.Unlock()
		writeJSON(w, map[string]string{"id": id, "status": "pending"})
	})

	mux.HandleFunc("DELETE /api/queue/{id}", func(w http.ResponseWriter, r *http.Request) {
		id := r.PathValue("id")
		b.mu.Lock()
		defer b.mu.Unlock()
		for i := range b.jobs {
			if b.jobs[i].ID == id {
				b.jobs[i].Status = job.StatusCancelled
				w.WriteHeader(http.StatusOK)
				return
			}
		}
		http.NotFound(w, r)
	})

	mux.HandleFunc("GET /api/generations", func(w http.ResponseWriter, r *http.Request) {
		pageSize, _ := strconv.Atoi(r.URL.Query().Get("pageSize"))
		if pageSize <= 0 {
			pageSize = 10
		}
		b.mu.Lock()
		jobs := append([]job.Job(nil), b.jobs...)
		b.mu.Unlock()
		totalPages := (len(jobs) + pageSize - 1) / pageSize
		writeJSON(w, map[string]any{
			"jobs":        jobs,
			"page":        1,
			"page_size":   pageSize,
			"total":       len(jobs),
			"total_pages": totalPages,
		})
	})

	mux.HandleFunc("DELETE /api/generations", func(w http.ResponseWriter, r *http.Request) {
		b.mu.Lock()
		deleted := len(b.jobs)
		b.jobs = nil
		b.mu.Unlock()
		writeJSON(w, map[string]int{"deleted": deleted})
	})

	mux.HandleFunc("GET /api/generations/{id}", func(w http.ResponseWriter, r *http.Request) {
		id := r.PathValue("id")
		b.mu.Lock()
		defer b.mu.Unlock()
		for _, j := range b.jobs {
			if j.ID == id {
				writeJSON(w, j)
				return
			}
		}
		http.NotFound(w, r)
	})

	mux.HandleFunc("DELETE /api/generations/{id}", func(w http.ResponseWriter, r *http.Request) {
		id := r.PathValue("id")
		b.mu.Lock()
		defer b.mu.Unlock()
		for i := range b.jobs {
			if b.jobs[i].ID == id {
				b.jobs = append(b.jobs[:i], b.jobs[i+1:]...)
				w.WriteHeader(http.StatusOK)
				return
			}
		}
		http.NotFound(w, r)
	})

	mux.HandleFunc("GET /files/", func(w http.ResponseWriter, r *http.Request) {
		b.mu.Lock()
		data, ok := b.files[r.URL.Path]
		b.mu.Unlock()
		if !ok {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write(data)
	})

	return mux
}

func writeJSON(w http.ResponseWriter, value any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(value)
}

type cliTestEnv struct {
	backend    *fakeBackend
	server     *httptest.Server
	configPath string
	baseDir    string
}

func setupCLITestEnv(t *testing.T) *cliTestEnv {
	t.Helper()

	base := t.TempDir()
	homeDir := filepath.Join(base, "home")
	if err := os.MkdirAll(homeDir, 0o755); err != nil {
		t.Fatalf("mkdir home: %v", err)
	}
	t.Setenv("HOME", homeDir)
	t.Setenv("EASEL_SERVER_URL", "")
	t.Setenv("EASEL_API_TOKEN", "")
	os.Unsetenv("EASEL_SERVER_URL")
	os.Unsetenv("EASEL_API_TOKEN")

	backend := newFakeBackend()
	server := httptest.NewServer(backend.handler())
	t.Cleanup(server.Close)

	configPath := filepath.Join(homeDir, ".config", "easel", "config.toml")
	if err := os.MkdirAll(filepath.Dir(configPath), 0o755); err != nil {
		t.Fatalf("mkdir config dir: %v", err)
	}
	content := fmt.Sprintf(`[server]
base_url = %q

[history]
enabled = true
path = %q

[logging]
dir = %q
`,
		server.URL,
		filepath.Join(base, "history.db"),
		filepath.Join(base, "logs"),
	)
	if err := os.WriteFile(configPath, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	return &cliTestEnv{
		backend:    backend,
		server:     server,
		configPath: configPath,
		baseDir:    base,
	}
}

func runCLI(t *testing.T, args []string, configPath string) (string, string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	var flags []string
	if configPath != "" {
		flags = []string{"--config", configPath}
	}
	cmd.SetArgs(append(flags, args...))
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func requireContains(t *testing.T, output, substr string) {
	t.Helper()
	if !strings.Contains(output, substr) {
		t.Fatalf("expected %q to contain %q", output, substr)
	}
}
