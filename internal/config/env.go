package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	charmlog "github.com/charmbracelet/log"
	"github.com/joho/godotenv"

	"github.com/markdave123-py/docsync/internal/core"
)

type Config struct {
	DatabaseURL string
	Port        string
	LogLevel    string
	LogJSON     bool

	AIAPIKey   string
	EmbedModel string
	EmbedDim   int

	CronSecret   string
	SyncSchedule string

	AwsAccessKey string
	AwsSecretKey string
	AwsRegion    string
	BucketName   string
	BucketPrefix string

	FolderAPIURL  string
	FolderAPICode string

	WebDAVURL      string
	WebDAVUser     string
	WebDAVPassword string
	WebDAVRoot     string

	SharePageURL string
	SeedFiles    []string

	AllowedExtensions []string

	ChunkWords        int
	ChunkOverlapWords int
	MinChunkChars     int
	MinSectionChars   int
	MinExtractedChars int
	CharsPerPage      int
	MaxEmbedChars     int
	MaxFetchBytes     int64
	ChunkDelay        time.Duration
	DocumentDelay     time.Duration
	HTTPTimeout       time.Duration
	QueueSize         int
}

// DefaultAllowedExtensions is the declared set of ingestible formats.
var DefaultAllowedExtensions = []string{".pdf", ".doc", ".docx", ".txt", ".md", ".html", ".htm", ".csv"}

// LoadConfig loads the environment variables and return config
func LoadConfig() *Config {

	_ = godotenv.Load()

	cfg := &Config{
		DatabaseURL: getEnv("DATABASE_URL", ""),
		Port:        getEnv("PORT", "8080"),
		LogLevel:    getEnv("LOG_LEVEL", "info"),
		LogJSON:     getEnvBool("LOG_JSON", false),

		AIAPIKey:   getEnv("GEMINI_API_KEY", ""),
		EmbedModel: getEnv("EMBED_MODEL", "text-embedding-004"),
		EmbedDim:   getEnvInt("EMBED_DIM", 768),

		CronSecret:   getEnv("CRON_SECRET", ""),
		SyncSchedule: getEnv("SYNC_SCHEDULE", ""),

		AwsAccessKey: getEnv("AWS_ACCESS_KEY", ""),
		AwsSecretKey: getEnv("AWS_SECRET_KEY", ""),
		AwsRegion:    getEnv("AWS_REGION", "us-east-2"),
		BucketName:   getEnv("BUCKET_NAME", ""),
		BucketPrefix: getEnv("BUCKET_PREFIX", ""),

		FolderAPIURL:  getEnv("FOLDER_API_URL", "https://api.pcloud.com"),
		FolderAPICode: getEnv("FOLDER_API_CODE", ""),

		WebDAVURL:      getEnv("WEBDAV_URL", ""),
		WebDAVUser:     getEnv("WEBDAV_USER", ""),
		WebDAVPassword: getEnv("WEBDAV_PASSWORD", ""),
		WebDAVRoot:     getEnv("WEBDAV_ROOT", "/"),

		SharePageURL: getEnv("SHARE_PAGE_URL", ""),
		SeedFiles:    getEnvList("SEED_FILES", nil),

		AllowedExtensions: getEnvList("ALLOWED_EXTENSIONS", DefaultAllowedExtensions),

		ChunkWords:        getEnvInt("CHUNK_WORDS", 1000),
		ChunkOverlapWords: getEnvInt("CHUNK_OVERLAP_WORDS", 200),
		MinChunkChars:     getEnvInt("MIN_CHUNK_CHARS", 100),
		MinSectionChars:   getEnvInt("MIN_SECTION_CHARS", 100),
		MinExtractedChars: getEnvInt("MIN_EXTRACTED_CHARS", 100),
		CharsPerPage:      getEnvInt("CHARS_PER_PAGE", 2000),
		MaxEmbedChars:     getEnvInt("MAX_EMBED_CHARS", 8000),
		MaxFetchBytes:     getEnvInt64("MAX_FETCH_BYTES", 10<<20),
		ChunkDelay:        getEnvDuration("CHUNK_DELAY", 100*time.Millisecond),
		DocumentDelay:     getEnvDuration("DOCUMENT_DELAY", time.Second),
		HTTPTimeout:       getEnvDuration("HTTP_TIMEOUT", 30*time.Second),
		QueueSize:         getEnvInt("QUEUE_SIZE", 16),
	}

	return cfg
}

// Validate reports missing credentials needed before any run can start.
func (c *Config) Validate() error {
	var missing []string
	if c.DatabaseURL == "" {
		missing = append(missing, "DATABASE_URL")
	}
	if c.AIAPIKey == "" {
		missing = append(missing, "GEMINI_API_KEY")
	}
	if !c.HasAnyProvider() {
		missing = append(missing, "one of FOLDER_API_CODE, WEBDAV_URL, SHARE_PAGE_URL, BUCKET_NAME")
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: missing %s", core.ErrConfiguration, strings.Join(missing, ", "))
	}
	if c.ChunkOverlapWords >= c.ChunkWords {
		return fmt.Errorf("%w: CHUNK_OVERLAP_WORDS (%d) must be smaller than CHUNK_WORDS (%d)",
			core.ErrConfiguration, c.ChunkOverlapWords, c.ChunkWords)
	}
	return nil
}

// HasAnyProvider reports whether at least one storage source is configured.
func (c *Config) HasAnyProvider() bool {
	return c.FolderAPICode != "" || c.WebDAVURL != "" || c.SharePageURL != "" || c.HasBucket()
}

// HasBucket reports whether S3 credentials and bucket are all present.
func (c *Config) HasBucket() bool {
	return c.BucketName != "" && c.AwsAccessKey != "" && c.AwsSecretKey != ""
}

// Helper to read environment variables with a default fallback
func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvInt(key string, def int) int {
	v := getEnv(key, "")
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		charmlog.Warn("env value not an int, using default", "key", key, "value", v, "default", def)
		return def
	}
	return n
}

func getEnvInt64(key string, def int64) int64 {
	v := getEnv(key, "")
	if v == "" {
		return def
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		charmlog.Warn("env value not an int, using default", "key", key, "value", v, "default", def)
		return def
	}
	return n
}

func getEnvBool(key string, def bool) bool {
	v := getEnv(key, "")
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		charmlog.Warn("env value not a bool, using default", "key", key, "value", v, "default", def)
		return def
	}
	return b
}

func getEnvDuration(key string, def time.Duration) time.Duration {
	v := getEnv(key, "")
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		charmlog.Warn("env value not a duration, using default", "key", key, "value", v, "default", def)
		return def
	}
	return d
}

// getEnvList splits a comma-separated value, dropping blanks.
func getEnvList(key string, def []string) []string {
	v := getEnv(key, "")
	if v == "" {
		return def
	}
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	if len(out) == 0 {
		return def
	}
	return out
}
