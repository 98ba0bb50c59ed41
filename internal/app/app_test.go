package app

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"quranvideo/internal/config"
	"quranvideo/internal/jobstore"
)

func testRegistries() (map[string]string, map[string]string, map[string]string) {
	return map[string]string{"husary": "6"},
		map[string]string{"en.sahih": "en.sahih"},
		map[string]string{"nature": "/assets/nature.mp4"}
}

func TestRequest_Validate(t *testing.T) {
	reciters, translations, backgrounds := testRegistries()
	valid := Request{Surah: 1, StartAyah: 1, EndAyah: 7, Reciter: "husary", Translation: "en.sahih", Background: "nature"}
	assert.NoError(t, valid.Validate(reciters, translations, backgrounds))

	tests := []struct {
		name   string
		mutate func(*Request)
	}{
		{"surah out of range", func(r *Request) { r.Surah = 115 }},
		{"start ayah zero", func(r *Request) { r.StartAyah = 0 }},
		{"start ayah beyond surah", func(r *Request) { r.StartAyah = 8 }},
		{"end before start", func(r *Request) { r.StartAyah = 5; r.EndAyah = 3 }},
		{"end beyond surah", func(r *Request) { r.EndAyah = 8 }},
		{"unknown reciter", func(r *Request) { r.Reciter = "nobody" }},
		{"unknown translation", func(r *Request) { r.Translation = "xx.none" }},
		{"unknown background", func(r *Request) { r.Background = "void" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := valid
			tt.mutate(&req)
			assert.Error(t, req.Validate(reciters, translations, backgrounds))
		})
	}
}

// newTestApplication wires an application against a stub verse API and a
// nonexistent ffmpeg binary
func newTestApplication(t *testing.T) *Application {
	t.Helper()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"verse": {"verse_key": "1:1", "text_uthmani": "بسم الله", "words": [
			{"text_uthmani": "بسم", "char_type_name": "word"},
			{"text_uthmani": "الله", "char_type_name": "word"}
		]}}`))
	}))
	t.Cleanup(server.Close)

	dir := t.TempDir()
	configYAML := fmt.Sprintf(`
api:
  quran_base_url: %q
  translation_base_url: %q
  audio_base_url: %q
video:
  ffmpeg_path: /nonexistent/ffmpeg
jobs:
  db_path: %q
  max_concurrent: 1
dirs:
  temp: %q
  output: %q
`, server.URL, server.URL, server.URL,
		filepath.Join(dir, "jobs.db"), filepath.Join(dir, "temp"), filepath.Join(dir, "output"))

	configPath := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(configPath, []byte(configYAML), 0o644))

	cfg, err := config.NewConfigurationFromFile(configPath)
	require.NoError(t, err)

	application, err := NewApplication(cfg, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		application.Shutdown(ctx)
	})
	return application
}

func TestApplication_Submit_InvalidRequestRejected(t *testing.T) {
	application := newTestApplication(t)

	_, err := application.Submit(context.Background(), Request{Surah: 0})

	assert.Error(t, err)
}

func TestApplication_Submit_JobReachesTerminalState(t *testing.T) {
	// The stub API serves records without audio URLs, so every unit loses
	// its audio and the job must end up failed, not stuck
	application := newTestApplication(t)

	job, err := application.Submit(context.Background(), Request{
		Surah: 1, StartAyah: 1, EndAyah: 2,
		Reciter: "husary", Translation: "en.sahih", Background: "nature1",
	})
	require.NoError(t, err)
	assert.Equal(t, jobstore.StatusQueued, job.Status)

	require.Eventually(t, func() bool {
		current, err := application.Store().Get(context.Background(), job.ID)
		if err != nil {
			return false
		}
		return current.Status == jobstore.StatusFailed
	}, 10*time.Second, 50*time.Millisecond)

	final, err := application.Store().Get(context.Background(), job.ID)
	require.NoError(t, err)
	assert.NotEmpty(t, final.Error)
}
