package profile

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
)

// ModelRef is one configured inference backend, rank-ordered by its
// position in the configuration list.
type ModelRef struct {
	// Provider is "gemini" or "openrouter".
	Provider string
	// Name is the provider-side model identifier.
	Name string
}

// Profile is the configuration to start the main server.
type Profile struct {
	// Mode can be "prod" or "dev" or "demo"
	Mode string
	// Addr is the binding address for server
	Addr string
	// Port is the binding port for server
	Port int
	// Data is the data directory
	Data string
	// DSN points to where tulip stores its own data
	DSN string
	// Driver is the database driver (sqlite or postgres)
	Driver string
	// Version is the current version of server
	Version string

	// Webhook transport configuration.
	VerifyToken   string // TULIP_VERIFY_TOKEN
	AppSecret     string // TULIP_APP_SECRET (optional, enables signature checks)
	MessagingKey  string // TULIP_MESSAGING_API_KEY
	MessagingURL  string // TULIP_MESSAGING_BASE_URL
	PhoneNumberID string // TULIP_PHONE_NUMBER_ID

	// AI provider credentials.
	GeminiAPIKey     string // TULIP_GEMINI_API_KEY
	OpenRouterAPIKey string // TULIP_OPENROUTER_API_KEY
	OpenRouterURL    string // TULIP_OPENROUTER_BASE_URL

	// Models is the ranked failover list, first entry preferred.
	// TULIP_MODELS format: "provider:name,provider:name,..."
	Models []ModelRef

	// Whitelist holds phone numbers seeded into the whitelist at startup.
	// TULIP_WHITELIST format: comma-separated numbers.
	Whitelist []string

	// HistoryCapacity bounds per-session conversation history.
	HistoryCapacity int // TULIP_HISTORY_CAPACITY (default 20)

	// SuspendDuration is how long a failing backend is excluded from selection.
	SuspendDuration time.Duration // TULIP_SUSPEND_DURATION (default 24h)
}

const (
	DefaultHistoryCapacity = 20
	DefaultSuspendDuration = 24 * time.Hour

	defaultMessagingURL  = "https://api.kapso.ai/meta/whatsapp"
	defaultOpenRouterURL = "https://openrouter.ai/api/v1"
)

func (p *Profile) IsDev() bool {
	return p.Mode != "prod"
}

// getEnvOrDefault returns the environment variable value or the default value.
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// FromEnv loads configuration from TULIP_* environment variables.
func (p *Profile) FromEnv() {
	p.VerifyToken = getEnvOrDefault("TULIP_VERIFY_TOKEN", p.VerifyToken)
	p.AppSecret = getEnvOrDefault("TULIP_APP_SECRET", p.AppSecret)
	p.MessagingKey = getEnvOrDefault("TULIP_MESSAGING_API_KEY", p.MessagingKey)
	p.MessagingURL = getEnvOrDefault("TULIP_MESSAGING_BASE_URL", defaultMessagingURL)
	p.PhoneNumberID = getEnvOrDefault("TULIP_PHONE_NUMBER_ID", p.PhoneNumberID)

	p.GeminiAPIKey = getEnvOrDefault("TULIP_GEMINI_API_KEY", p.GeminiAPIKey)
	p.OpenRouterAPIKey = getEnvOrDefault("TULIP_OPENROUTER_API_KEY", p.OpenRouterAPIKey)
	p.OpenRouterURL = getEnvOrDefault("TULIP_OPENROUTER_BASE_URL", defaultOpenRouterURL)

	if v := os.Getenv("TULIP_MODELS"); v != "" {
		p.Models = ParseModelList(v)
	}
	if v := os.Getenv("TULIP_WHITELIST"); v != "" {
		p.Whitelist = splitAndTrim(v)
	}
	if v := os.Getenv("TULIP_HISTORY_CAPACITY"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			p.HistoryCapacity = n
		}
	}
	if v := os.Getenv("TULIP_SUSPEND_DURATION"); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			p.SuspendDuration = d
		}
	}
}

// ParseModelList parses the ranked model list from its "provider:name,..."
// wire format. Entries without an explicit provider default to gemini.
func ParseModelList(raw string) []ModelRef {
	var refs []ModelRef
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		provider, name, found := strings.Cut(part, ":")
		if !found {
			refs = append(refs, ModelRef{Provider: "gemini", Name: part})
			continue
		}
		refs = append(refs, ModelRef{
			Provider: strings.ToLower(strings.TrimSpace(provider)),
			Name:     strings.TrimSpace(name),
		})
	}
	return refs
}

func splitAndTrim(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func checkDataDir(dataDir string) (string, error) {
	// Convert to absolute path if relative path is supplied.
	if !filepath.IsAbs(dataDir) {
		relativeDir := filepath.Join(filepath.Dir(os.Args[0]), dataDir)
		absDir, err := filepath.Abs(relativeDir)
		if err != nil {
			return "", err
		}
		dataDir = absDir
	}

	// Trim trailing \ or / in case user supplies
	dataDir = strings.TrimRight(dataDir, "\\/")
	if _, err := os.Stat(dataDir); err != nil {
		return "", errors.Wrapf(err, "unable to access data folder %s", dataDir)
	}
	return dataDir, nil
}

func (p *Profile) Validate() error {
	if p.Mode != "demo" && p.Mode != "dev" && p.Mode != "prod" {
		p.Mode = "demo"
	}

	if p.HistoryCapacity <= 0 {
		p.HistoryCapacity = DefaultHistoryCapacity
	}
	if p.SuspendDuration <= 0 {
		p.SuspendDuration = DefaultSuspendDuration
	}
	if p.MessagingURL == "" {
		p.MessagingURL = defaultMessagingURL
	}
	if p.OpenRouterURL == "" {
		p.OpenRouterURL = defaultOpenRouterURL
	}

	for _, ref := range p.Models {
		if ref.Provider != "gemini" && ref.Provider != "openrouter" {
			return errors.Errorf("unknown model provider %q", ref.Provider)
		}
	}

	dataDir, err := checkDataDir(p.Data)
	if err != nil {
		return err
	}
	p.Data = dataDir

	if p.Driver == "sqlite" && p.DSN == "" {
		dbFile := fmt.Sprintf("tulip_%s.db", p.Mode)
		p.DSN = filepath.Join(dataDir, dbFile)
	}

	return nil
}
