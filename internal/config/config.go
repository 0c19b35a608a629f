// Package config loads run settings from defaults, an optional config file,
// a .env file, LINKEDSCRAP_* environment variables and command-line flags,
// in increasing order of precedence.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/FranksOps/linkedscrap/internal/fingerprint"
	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment override, e.g. LINKEDSCRAP_SEARCH_LOCATION.
const EnvPrefix = "LINKEDSCRAP"

type Config struct {
	TermsFile   string `mapstructure:"terms_file"`
	WorkDir     string `mapstructure:"work_dir"`
	ListingFile string `mapstructure:"listing_file"`
	DetailFile  string `mapstructure:"detail_file"`
	Downloader  string `mapstructure:"downloader"`
	WgetPath    string `mapstructure:"wget_path"`
	MergeTerms  bool   `mapstructure:"merge_terms"`
	LogLevel    string `mapstructure:"log_level"`
	Progress    bool   `mapstructure:"progress"`
	Report      string `mapstructure:"report"`
	MetricsAddr string `mapstructure:"metrics_addr"`
	ReportRun   string `mapstructure:"report_run"`

	Search    Search    `mapstructure:"search"`
	Selectors Selectors `mapstructure:"selectors"`
	HTTP      HTTP      `mapstructure:"http"`
	Audit     Audit     `mapstructure:"audit"`
}

type Search struct {
	BaseURL    string `mapstructure:"base_url"`
	Location   string `mapstructure:"location"`
	PageSize   int    `mapstructure:"page_size"`
	MaxResults int    `mapstructure:"max_results"`
}

type Selectors struct {
	Title       string `mapstructure:"title"`
	Subtitle    string `mapstructure:"subtitle"`
	Location    string `mapstructure:"location"`
	Snippet     string `mapstructure:"snippet"`
	Link        string `mapstructure:"link"`
	Description string `mapstructure:"description"`
}

// HTTP only applies to the native downloader.
type HTTP struct {
	Timeout           time.Duration `mapstructure:"timeout"`
	MaxRedirects      int           `mapstructure:"max_redirects"`
	CookieJar         bool          `mapstructure:"cookie_jar"`
	Fingerprint       string        `mapstructure:"fingerprint"`
	UserAgents        []string      `mapstructure:"user_agents"`
	RandomUserAgent   bool          `mapstructure:"random_user_agent"`
	ProxiesFile       string        `mapstructure:"proxies_file"`
	RequestsPerSecond float64       `mapstructure:"requests_per_second"`
	Jitter            float64       `mapstructure:"jitter"`
	RespectRobots     bool          `mapstructure:"respect_robots"`
}

type Audit struct {
	Backend string `mapstructure:"backend"`
	DSN     string `mapstructure:"dsn"`
}

var defaults = map[string]any{
	"terms_file":   "search-terms.txt",
	"work_dir":     ".",
	"listing_file": "result.html",
	"detail_file":  "indresult.html",
	"downloader":   "wget",
	"wget_path":    "wget",
	"merge_terms":  false,
	"log_level":    "info",
	"progress":     true,
	"report":       "text",
	"metrics_addr": "",
	"report_run":   "",

	"search.base_url":    "https://br.linkedin.com/jobs/search",
	"search.location":    "Brasília, Federal District, Brazil",
	"search.page_size":   25,
	"search.max_results": 100,

	"selectors.title":       ".result-card__title",
	"selectors.subtitle":    ".result-card__subtitle",
	"selectors.location":    ".job-result-card__location",
	"selectors.snippet":     ".job-result-card__snippet",
	"selectors.link":        ".result-card__full-card-link",
	"selectors.description": ".description__text",

	"http.timeout":             30 * time.Second,
	"http.max_redirects":       20,
	"http.cookie_jar":          true,
	"http.fingerprint":         "go",
	"http.user_agents":         []string{},
	"http.random_user_agent":   false,
	"http.proxies_file":        "",
	"http.requests_per_second": 0.0,
	"http.jitter":              0.0,
	"http.respect_robots":      false,

	"audit.backend": "none",
	"audit.dsn":     "",
}

// Options says where Load looks besides defaults and the environment.
type Options struct {
	// ConfigFile is read when set; yaml, toml and json are detected by
	// extension.
	ConfigFile string
	// EnvFile is loaded into the environment when it exists. Variables
	// already set win.
	EnvFile string
	// Flags are bound by name with "-" read as "_", so --terms-file sets
	// terms_file and --search.location sets search.location.
	Flags *pflag.FlagSet
}

// Load resolves the configuration and validates it.
func Load(opts Options) (*Config, error) {
	if opts.EnvFile != "" {
		if err := godotenv.Load(opts.EnvFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("load %s: %w", opts.EnvFile, err)
		}
	}

	v := viper.New()
	for k, val := range defaults {
		v.SetDefault(k, val)
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if opts.ConfigFile != "" {
		v.SetConfigFile(opts.ConfigFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", opts.ConfigFile, err)
		}
	}

	if opts.Flags != nil {
		var bindErr error
		opts.Flags.VisitAll(func(f *pflag.Flag) {
			key := strings.ReplaceAll(f.Name, "-", "_")
			if _, known := defaults[key]; !known {
				return
			}
			if err := v.BindPFlag(key, f); err != nil {
				bindErr = errors.Join(bindErr, fmt.Errorf("bind flag %s: %w", f.Name, err))
			}
		})
		if bindErr != nil {
			return nil, bindErr
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate reports every invalid setting at once.
func (c *Config) Validate() error {
	var errs []error
	oneOf := func(key, val string, allowed ...string) {
		if !slices.Contains(allowed, val) {
			errs = append(errs, fmt.Errorf("%s: %q is not one of %s", key, val, strings.Join(allowed, ", ")))
		}
	}

	oneOf("downloader", c.Downloader, "wget", "http")
	oneOf("report", c.Report, "text", "json", "none")
	oneOf("log_level", strings.ToLower(c.LogLevel), "debug", "info", "warn", "warning", "error")
	oneOf("audit.backend", c.Audit.Backend, "none", "csv", "json", "sqlite", "postgres")

	if strings.TrimSpace(c.TermsFile) == "" {
		errs = append(errs, errors.New("terms_file: must not be empty"))
	}
	if c.Downloader == "wget" && strings.TrimSpace(c.WgetPath) == "" {
		errs = append(errs, errors.New("wget_path: must not be empty"))
	}
	if c.Search.PageSize <= 0 {
		errs = append(errs, fmt.Errorf("search.page_size: must be positive, got %d", c.Search.PageSize))
	}
	if c.Search.MaxResults <= 0 {
		errs = append(errs, fmt.Errorf("search.max_results: must be positive, got %d", c.Search.MaxResults))
	}
	if c.HTTP.RequestsPerSecond < 0 {
		errs = append(errs, fmt.Errorf("http.requests_per_second: must not be negative, got %v", c.HTTP.RequestsPerSecond))
	}
	if c.HTTP.Jitter < 0 || c.HTTP.Jitter > 1 {
		errs = append(errs, fmt.Errorf("http.jitter: must be within [0, 1], got %v", c.HTTP.Jitter))
	}
	if _, err := fingerprint.ParseProfile(c.HTTP.Fingerprint); err != nil {
		errs = append(errs, fmt.Errorf("http.fingerprint: %w", err))
	}
	if c.ReportRun != "" && c.Audit.Backend == "none" {
		errs = append(errs, errors.New("report_run: needs an audit backend to read from"))
	}
	if c.Audit.Backend != "none" && c.Audit.DSN == "" {
		errs = append(errs, fmt.Errorf("audit.dsn: required for backend %q", c.Audit.Backend))
	}

	if len(errs) > 0 {
		return fmt.Errorf("invalid config: %w", errors.Join(errs...))
	}
	return nil
}

// ListingPath is where result pages are saved.
func (c *Config) ListingPath() string {
	return c.inWorkDir(c.ListingFile)
}

// DetailPath is where detail pages are saved.
func (c *Config) DetailPath() string {
	return c.inWorkDir(c.DetailFile)
}

func (c *Config) inWorkDir(name string) string {
	if filepath.IsAbs(name) || c.WorkDir == "" {
		return name
	}
	return filepath.Join(c.WorkDir, name)
}
