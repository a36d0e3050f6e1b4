package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/markdave123-py/docsync/internal/core"
)

func TestLoadConfig(t *testing.T) {
	t.Run("Should apply defaults when env is empty", func(t *testing.T) {
		t.Setenv("CHUNK_WORDS", "")
		t.Setenv("ALLOWED_EXTENSIONS", "")
		cfg := LoadConfig()
		assert.Equal(t, 1000, cfg.ChunkWords)
		assert.Equal(t, 200, cfg.ChunkOverlapWords)
		assert.Equal(t, DefaultAllowedExtensions, cfg.AllowedExtensions)
	})

	t.Run("Should parse typed values", func(t *testing.T) {
		t.Setenv("CHUNK_WORDS", "500")
		t.Setenv("MAX_FETCH_BYTES", "2048")
		t.Setenv("CHUNK_DELAY", "250ms")
		t.Setenv("LOG_JSON", "true")
		t.Setenv("SEED_FILES", " a.pdf, ,b.txt ")
		cfg := LoadConfig()
		assert.Equal(t, 500, cfg.ChunkWords)
		assert.Equal(t, int64(2048), cfg.MaxFetchBytes)
		assert.Equal(t, 250*time.Millisecond, cfg.ChunkDelay)
		assert.True(t, cfg.LogJSON)
		assert.Equal(t, []string{"a.pdf", "b.txt"}, cfg.SeedFiles)
	})

	t.Run("Should keep default on malformed value", func(t *testing.T) {
		t.Setenv("CHUNK_OVERLAP_WORDS", "lots")
		cfg := LoadConfig()
		assert.Equal(t, 200, cfg.ChunkOverlapWords)
	})
}

func TestConfig_Validate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			DatabaseURL:       "postgres://localhost/db",
			AIAPIKey:          "key",
			SharePageURL:      "https://example.org/share",
			ChunkWords:        1000,
			ChunkOverlapWords: 200,
		}
	}

	t.Run("Should accept a complete config", func(t *testing.T) {
		require.NoError(t, valid().Validate())
	})

	t.Run("Should report every missing credential", func(t *testing.T) {
		cfg := &Config{ChunkWords: 10, ChunkOverlapWords: 2}
		err := cfg.Validate()
		require.Error(t, err)
		assert.ErrorIs(t, err, core.ErrConfiguration)
		assert.Contains(t, err.Error(), "DATABASE_URL")
		assert.Contains(t, err.Error(), "GEMINI_API_KEY")
		assert.Contains(t, err.Error(), "FOLDER_API_CODE")
	})

	t.Run("Should reject overlap not smaller than window", func(t *testing.T) {
		cfg := valid()
		cfg.ChunkOverlapWords = 1000
		assert.ErrorIs(t, cfg.Validate(), core.ErrConfiguration)
	})

	t.Run("Should need all bucket settings for the object store", func(t *testing.T) {
		cfg := &Config{BucketName: "docs"}
		assert.False(t, cfg.HasBucket())
		cfg.AwsAccessKey, cfg.AwsSecretKey = "a", "b"
		assert.True(t, cfg.HasBucket())
	})
}
