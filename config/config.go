package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultPhaseRegex picks the official test phase out of a competition's
// phase list.
const DefaultPhaseRegex = `(?i)official\s*test|official`

// Config holds the full updater configuration.
type Config struct {
	CacheDir   string        `yaml:"cache_dir"`
	Output     string        `yaml:"output"`
	OutputJS   string        `yaml:"output_js"`
	IndexHTML  string        `yaml:"index_html"`
	PhaseRegex string        `yaml:"phase_regex"`
	HTTP       HTTPConfig    `yaml:"http"`
	Fetch      FetchConfig   `yaml:"fetch"`
	Sources    SourcesConfig `yaml:"sources"`
	JWT        JWTConfig     `yaml:"jwt"`
}

// HTTPConfig holds the serve-mode listener settings.
type HTTPConfig struct {
	Addr string `yaml:"addr"`
}

// FetchConfig holds outbound HTTP settings.
type FetchConfig struct {
	Timeout   time.Duration `yaml:"timeout"`
	Insecure  bool          `yaml:"insecure"`
	RateLimit float64       `yaml:"rate_limit"`
	RateBurst int           `yaml:"rate_burst"`
}

// CodaLabConfig identifies one CodaLab competition and its frozen results
// export.
type CodaLabConfig struct {
	BaseURL       string `yaml:"base_url"`
	CompetitionID int    `yaml:"competition_id"`
	ResultsID     int    `yaml:"results_id"`
	ResultsURL    string `yaml:"results_url"`
}

// CodaBenchConfig identifies the CodaBench competition plus optional export
// credentials.
type CodaBenchConfig struct {
	BaseURL       string `yaml:"base_url"`
	CompetitionID int    `yaml:"competition_id"`
	PhaseID       int    `yaml:"phase_id"`
	ResultsURL    string `yaml:"results_url"`
	BearerToken   string `yaml:"bearer_token"`
	Token         string `yaml:"token"`
	Cookie        string `yaml:"cookie"`
}

// SourcesConfig holds all upstream sources.
type SourcesConfig struct {
	CodaLabOld CodaLabConfig   `yaml:"codalab_old"`
	CodaLabNew CodaLabConfig   `yaml:"codalab_new"`
	CodaBench  CodaBenchConfig `yaml:"codabench"`
}

// JWTConfig holds the admin-endpoint auth settings.
type JWTConfig struct {
	Secret     string        `yaml:"secret"`
	DefaultTTL time.Duration `yaml:"default_ttl"`
}

// LoadConfig loads the configuration from a YAML file, falling back to
// defaults plus environment variables when the file is absent. Environment
// variables override file values either way.
func LoadConfig(filename string) (*Config, error) {
	cfg := defaults()

	if data, err := os.ReadFile(filename); err == nil {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to unmarshal config: %w", err)
		}
	}

	applyEnv(cfg)

	if cfg.JWT.DefaultTTL == 0 {
		cfg.JWT.DefaultTTL = 24 * time.Hour
	}
	if cfg.Fetch.Timeout == 0 {
		cfg.Fetch.Timeout = 45 * time.Second
	}
	if cfg.Fetch.RateLimit == 0 {
		cfg.Fetch.RateLimit = 2
	}
	if cfg.Fetch.RateBurst == 0 {
		cfg.Fetch.RateBurst = 2
	}

	return cfg, nil
}

func defaults() *Config {
	return &Config{
		CacheDir:   "assets/data/leaderboard_sources",
		Output:     "assets/data/leaderboard.json",
		PhaseRegex: DefaultPhaseRegex,
		HTTP:       HTTPConfig{Addr: ":8080"},
		Sources: SourcesConfig{
			CodaLabOld: CodaLabConfig{
				BaseURL:       "https://competitions.codalab.org",
				CompetitionID: 24122,
				ResultsID:     40019,
				ResultsURL:    "https://competitions.codalab.org/competitions/24122#results",
			},
			CodaLabNew: CodaLabConfig{
				BaseURL:       "https://codalab.lisn.upsaclay.fr",
				CompetitionID: 420,
				ResultsID:     563,
				ResultsURL:    "https://codalab.lisn.upsaclay.fr/competitions/420#results",
			},
			CodaBench: CodaBenchConfig{
				BaseURL:       "https://www.codabench.org",
				CompetitionID: 13955,
				PhaseID:       23177,
				ResultsURL:    "https://www.codabench.org/competitions/13955/#/results-tab",
			},
		},
	}
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("CACHE_DIR"); v != "" {
		cfg.CacheDir = v
	}
	if v := os.Getenv("LEADERBOARD_OUTPUT"); v != "" {
		cfg.Output = v
	}
	if v := os.Getenv("LEADERBOARD_OUTPUT_JS"); v != "" {
		cfg.OutputJS = v
	}
	if v := os.Getenv("LEADERBOARD_INDEX_HTML"); v != "" {
		cfg.IndexHTML = v
	}
	if v := os.Getenv("HTTP_ADDR"); v != "" {
		cfg.HTTP.Addr = v
	}
	if v := os.Getenv("FETCH_INSECURE"); v != "" {
		cfg.Fetch.Insecure = v == "true"
	}
	if v := os.Getenv("FETCH_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Fetch.Timeout = d
		}
	}
	if v := os.Getenv("CODABENCH_BEARER_TOKEN"); v != "" {
		cfg.Sources.CodaBench.BearerToken = v
	}
	if v := os.Getenv("CODABENCH_TOKEN"); v != "" {
		cfg.Sources.CodaBench.Token = v
	}
	if v := os.Getenv("CODABENCH_COOKIE"); v != "" {
		cfg.Sources.CodaBench.Cookie = v
	}
	if v := os.Getenv("JWT_SECRET"); v != "" {
		cfg.JWT.Secret = v
	}
	if v := os.Getenv("JWT_DEFAULT_TTL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.JWT.DefaultTTL = d
		}
	}
}
