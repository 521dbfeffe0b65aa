package config

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

const (
	AppName    = "Polyglot"
	AppVersion = "1.0.0"
)

// DefaultLanguages is the column set used when POLYGLOT_LANGUAGES is unset.
var DefaultLanguages = []string{"french", "english", "polish"}

// languageNames maps column identifiers to the names used in prompts.
var languageNames = map[string]string{
	"english":    "English",
	"french":     "French",
	"polish":     "Polish",
	"german":     "German",
	"spanish":    "Spanish",
	"italian":    "Italian",
	"portuguese": "Portuguese",
	"dutch":      "Dutch",
	"ukrainian":  "Ukrainian",
	"russian":    "Russian",
	"japanese":   "Japanese",
	"chinese":    "Chinese",
}

// LanguageName returns the display name for a column identifier.
// Unknown identifiers are returned with the first letter upper-cased.
func LanguageName(id string) string {
	if name, ok := languageNames[id]; ok {
		return name
	}
	if id == "" {
		return id
	}
	return strings.ToUpper(id[:1]) + id[1:]
}

// Config is the server configuration.
type Config struct {
	Addr      string
	DBPath    string
	DataDir   string
	LogLevel  string
	Languages []string
	Retention time.Duration
	// ProviderTimeout bounds one call to the translation provider.
	ProviderTimeout time.Duration
	AI              AIDefaults
}

// AIDefaults seed the provider configuration when nothing is stored in settings.
type AIDefaults struct {
	Provider  string
	APIKey    string
	BaseURL   string
	Model     string
	RateLimit int
}

func Load() Config {
	dataDir := getEnv("POLYGLOT_DATA_DIR", "./data")
	path := getEnv("POLYGLOT_DB_PATH", filepath.Join(dataDir, "polyglot.db"))

	return Config{
		Addr:      getEnv("POLYGLOT_ADDR", ":8080"),
		DBPath:    filepath.Clean(path),
		DataDir:   filepath.Clean(dataDir),
		LogLevel:  getEnv("POLYGLOT_LOG_LEVEL", "info"),
		Languages: ParseLanguages(os.Getenv("POLYGLOT_LANGUAGES")),
		Retention: getDuration("POLYGLOT_RETENTION", 7*24*time.Hour),

		ProviderTimeout: getDuration("POLYGLOT_AI_TIMEOUT", 60*time.Second),
		AI: AIDefaults{
			Provider:  getEnv("POLYGLOT_AI_PROVIDER", "gemini"),
			APIKey:    firstNonEmpty(os.Getenv("POLYGLOT_AI_API_KEY"), os.Getenv("GEMINI_API_KEY")),
			BaseURL:   os.Getenv("POLYGLOT_AI_BASE_URL"),
			Model:     getEnv("POLYGLOT_AI_MODEL", "gemini-2.5-flash"),
			RateLimit: getInt("POLYGLOT_AI_RATE_LIMIT", 10),
		},
	}
}

// ClientConfig configures a collaborating device.
type ClientConfig struct {
	ServerURL        string
	SyncKey          string
	SyncMode         string // events, poll, off
	Languages        []string
	LanguagesSet     bool // Languages came from the environment or a flag
	LogLevel         string
	LogFile          string
	Debounce         time.Duration
	SyncGrace        time.Duration
	PollInterval     time.Duration
	RequestTimeout   time.Duration
	MinAppendedChars int
	TailChars        int
}

// Sync modes.
const (
	SyncModeEvents = "events"
	SyncModePoll   = "poll"
	SyncModeOff    = "off"
)

func LoadClient() ClientConfig {
	return ClientConfig{
		ServerURL:        strings.TrimRight(getEnv("POLYGLOT_SERVER_URL", "http://localhost:8080"), "/"),
		SyncKey:          getEnv("POLYGLOT_SYNC_KEY", "default"),
		SyncMode:         getEnv("POLYGLOT_SYNC_MODE", SyncModeEvents),
		Languages:        ParseLanguages(os.Getenv("POLYGLOT_LANGUAGES")),
		LanguagesSet:     os.Getenv("POLYGLOT_LANGUAGES") != "",
		LogLevel:         getEnv("POLYGLOT_LOG_LEVEL", "info"),
		LogFile:          os.Getenv("POLYGLOT_LOG_FILE"),
		Debounce:         getDuration("POLYGLOT_DEBOUNCE", 750*time.Millisecond),
		SyncGrace:        getDuration("POLYGLOT_SYNC_GRACE", 500*time.Millisecond),
		PollInterval:     getDuration("POLYGLOT_POLL_INTERVAL", 2*time.Second),
		RequestTimeout:   getDuration("POLYGLOT_REQUEST_TIMEOUT", 20*time.Second),
		MinAppendedChars: getInt("POLYGLOT_MIN_APPENDED", 10),
		TailChars:        getInt("POLYGLOT_TAIL_CHARS", 40),
	}
}

// ParseLanguages splits a comma-separated language list, dropping blanks
// and duplicates. An empty result falls back to DefaultLanguages.
func ParseLanguages(raw string) []string {
	seen := make(map[string]bool)
	var out []string
	for _, part := range strings.Split(raw, ",") {
		lang := strings.ToLower(strings.TrimSpace(part))
		if lang == "" || seen[lang] {
			continue
		}
		seen[lang] = true
		out = append(out, lang)
	}
	if len(out) == 0 {
		return append([]string(nil), DefaultLanguages...)
	}
	return out
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getInt(key string, fallback int) int {
	v, err := strconv.Atoi(os.Getenv(key))
	if err != nil {
		return fallback
	}
	return v
}

// getDuration accepts Go duration strings ("750ms") or plain milliseconds.
func getDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	if d, err := time.ParseDuration(v); err == nil {
		return d
	}
	if ms, err := strconv.Atoi(v); err == nil {
		return time.Duration(ms) * time.Millisecond
	}
	return fallback
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
