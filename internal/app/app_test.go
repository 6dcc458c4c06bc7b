package app

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/0xcro3dile/ragprompt/internal/domain/entities"
	"github.com/0xcro3dile/ragprompt/internal/infrastructure/config"
)

// fakeOllama answers /api/generate and remembers the last prompt.
type fakeOllama struct {
	mu     sync.Mutex
	prompt string
	calls  int
}

func (f *fakeOllama) handler(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Prompt string `json:"prompt"`
	}
	_ = json.NewDecoder(r.Body).Decode(&req)

	f.mu.Lock()
	f.prompt = req.Prompt
	f.calls++
	f.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write([]byte(`{"response":"Use the import wizard (SOURCE: http://x/001)","done":true}`))
}

func (f *fakeOllama) snapshot() (string, int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.prompt, f.calls
}

func newConfig(t *testing.T, endpoint string, overrides map[string]any) *config.Config {
	t.Helper()
	v := viper.New()
	v.Set("ollama.endpoint", endpoint)
	for k, val := range overrides {
		v.Set(k, val)
	}
	cfg, err := config.Load(v, "")
	require.NoError(t, err)
	return cfg
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestApp_ManifestEndToEnd(t *testing.T) {
	fake := &fakeOllama{}
	srv := httptest.NewServer(http.HandlerFunc(fake.handler))
	defer srv.Close()

	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "data", "a.txt"), `<doc ref="http://x/001">Import steps...`)
	writeFile(t, filepath.Join(dir, "data", "manifest.json"), `{
		"a": {"src_copy": "data/a.txt"},
		"b": {"src_copy": "data/b.txt"}
	}`)

	cfg := newConfig(t, srv.URL, map[string]any{
		"data.folder":   filepath.Join(dir, "data"),
		"data.base_dir": dir,
		"history.path":  filepath.Join(dir, "history.db"),
	})

	a, err := New(cfg, nil)
	require.NoError(t, err)
	defer a.Close()

	res, err := a.Ask.Ask(context.Background(), "Wie importiere ich Datenart 001?")
	require.NoError(t, err)

	assert.Equal(t, "Use the import wizard (SOURCE: http://x/001)", res.Answer)
	assert.Equal(t, 1, res.Report.Loaded())
	require.Len(t, res.Report.Skipped(), 1)
	assert.Equal(t, "b", res.Report.Skipped()[0].Key)

	prompt, _ := fake.snapshot()
	assert.Contains(t, prompt, "[DOCUMENT 1]\nSOURCE: http://x/001\nCONTENT:\nImport steps...")
	assert.Contains(t, prompt, "Wie importiere ich Datenart 001?")

	runs, err := a.Recent(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, res.RunID, runs[0].ID)
	assert.Equal(t, "llama3", runs[0].Model)
}

func TestApp_EndpointFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"model 'llama3' not found"}`, http.StatusNotFound)
	}))
	defer srv.Close()

	dir := t.TempDir()
	cfg := newConfig(t, srv.URL, map[string]any{
		"data.mode":   "directory",
		"data.folder": dir,
	})

	a, err := New(cfg, nil)
	require.NoError(t, err)

	_, err = a.Ask.Ask(context.Background(), "q")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}

func TestApp_HistoryDisabled(t *testing.T) {
	cfg := newConfig(t, "http://127.0.0.1:1/api/generate", nil)

	a, err := New(cfg, nil)
	require.NoError(t, err)
	assert.Nil(t, a.History)

	_, err = a.Recent(context.Background(), 5)
	assert.ErrorIs(t, err, ErrHistoryDisabled)
	assert.NoError(t, a.Close())
}

func TestApp_MemoryHistory(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc((&fakeOllama{}).handler))
	defer srv.Close()

	cfg := newConfig(t, srv.URL, map[string]any{"data.mode": "directory", "data.folder": t.TempDir()})
	a, err := New(cfg, nil, WithMemoryHistory())
	require.NoError(t, err)
	require.NotNil(t, a.History)

	_, err = a.Ask.Ask(context.Background(), "first")
	require.NoError(t, err)
	_, err = a.Ask.Ask(context.Background(), "second")
	require.NoError(t, err)

	runs, err := a.Recent(context.Background(), 0)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, "second", runs[0].Question)
}

func TestApp_UnknownStrategy(t *testing.T) {
	cfg := newConfig(t, "http://127.0.0.1:1/api/generate", map[string]any{"retrieval.strategy": "bm25"})

	_, err := New(cfg, nil)
	assert.Error(t, err)
}

func TestApp_WatchDirs(t *testing.T) {
	dir := t.TempDir()
	data := filepath.Join(dir, "data")
	require.NoError(t, os.MkdirAll(data, 0o755))

	manifestMode := newConfig(t, "http://x", map[string]any{"data.folder": data})
	a, err := New(manifestMode, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{data}, a.WatchDirs())

	missing := newConfig(t, "http://x", map[string]any{
		"data.mode":   "directory",
		"data.folder": filepath.Join(dir, "absent"),
	})
	a, err = New(missing, nil)
	require.NoError(t, err)
	assert.Empty(t, a.WatchDirs())
}

func TestApp_WatchRerunsOnChange(t *testing.T) {
	fake := &fakeOllama{}
	srv := httptest.NewServer(http.HandlerFunc(fake.handler))
	defer srv.Close()

	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "one.txt"), `<doc ref="S1">first`)

	cfg := newConfig(t, srv.URL, map[string]any{
		"data.mode":      "directory",
		"data.folder":    dir,
		"watch.debounce": "20ms",
	})
	a, err := New(cfg, nil)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	runs := make(chan *entities.AskResult, 10)
	done := make(chan error, 1)
	go func() {
		done <- a.Watch(ctx, "q", func(res *entities.AskResult, err error) {
			if err == nil {
				runs <- res
			}
		})
	}()

	select {
	case res := <-runs:
		assert.Equal(t, 1, res.Report.Loaded())
	case <-time.After(5 * time.Second):
		t.Fatal("initial run did not happen")
	}

	writeFile(t, filepath.Join(dir, "two.txt"), `<doc ref="S2">second`)

	select {
	case res := <-runs:
		assert.Equal(t, 2, res.Report.Loaded())
	case <-time.After(5 * time.Second):
		t.Fatal("change did not trigger a run")
	}

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("watch did not stop")
	}
}
