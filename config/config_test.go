package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaultsWritesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "conf", "config.yaml")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "tongyi", cfg.LLM.Provider)
	assert.Equal(t, time.Hour, cfg.Cache.TTL)
	assert.Equal(t, 30*time.Second, cfg.Queue.RetryDelay)
	assert.Equal(t, 2*time.Minute, cfg.Summary.CallTimeout)
	assert.Equal(t, "en-US", cfg.Extraction.LanguageCode)
	assert.False(t, cfg.AWS.Enabled())
	assert.Equal(t, LevelConfig{FinalMaxWords: 250, ChunkMaxWords: 150}, cfg.Summary.Levels["medium"])

	_, err = os.Stat(path)
	assert.NoError(t, err, "default config should be written")
}

func TestLoadFileAndEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
server:
  port: 9090
llm:
  provider: gemini
  api_key: ${TEST_GEMINI_KEY}
summary:
  degrade_on_chunk_failure: true
  call_timeout: 45s
  levels:
    short:
      final_max_words: 80
aws:
  region: us-east-1
  bucket: media
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	t.Setenv("TEST_GEMINI_KEY", "secret-key")
	t.Setenv("QUEUE_CONCURRENCY", "8")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "gemini", cfg.LLM.Provider)
	assert.Equal(t, "secret-key", cfg.LLM.APIKey)
	assert.True(t, cfg.Summary.DegradeOnChunkFailure)
	assert.Equal(t, 45*time.Second, cfg.Summary.CallTimeout)
	assert.Equal(t, 80, cfg.Summary.Levels["short"].FinalMaxWords)
	assert.Equal(t, 50, cfg.Summary.Levels["short"].ChunkMaxWords)
	assert.Equal(t, 500, cfg.Summary.Levels["detailed"].FinalMaxWords)
	assert.Equal(t, 8, cfg.Queue.Concurrency)
	assert.True(t, cfg.AWS.Enabled())
}

func TestLoadInvalidFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server: [unclosed"), 0644))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestExpandEnv(t *testing.T) {
	t.Setenv("SOME_SECRET", "s3cr3t")
	assert.Equal(t, "s3cr3t", expandEnv("${SOME_SECRET}"))
	assert.Equal(t, "${UNSET_SECRET_VAR}", expandEnv("${UNSET_SECRET_VAR}"))
	assert.Equal(t, "plain", expandEnv("plain"))
}
