package config

import (
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server struct {
		Port           string `yaml:"port"`
		RequestTimeout string `yaml:"request_timeout"`
		FileRoute      string `yaml:"file_route"`
	} `yaml:"server"`
	Redis struct {
		Addr     string `yaml:"addr"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
		TTL      string `yaml:"ttl"`
		LockTTL  string `yaml:"lock_ttl"`
	} `yaml:"redis"`
	Postgres struct {
		URL string `yaml:"url"`
	} `yaml:"postgres"`
	QuestionBank struct {
		// URL of the database holding the question bank; defaults to postgres.url.
		URL      string `yaml:"url"`
		CacheTTL string `yaml:"cache_ttl"`
	} `yaml:"question_bank"`
	Auth struct {
		Secret string `yaml:"secret"`
		Issuer string `yaml:"issuer"`
	} `yaml:"auth"`
	Storage struct {
		Endpoint  string `yaml:"endpoint"`
		AccessKey string `yaml:"access_key"`
		SecretKey string `yaml:"secret_key"`
		Bucket    string `yaml:"bucket"`
		UseSSL    bool   `yaml:"use_ssl"`
	} `yaml:"storage"`
	Events struct {
		URL   string `yaml:"url"`
		Queue string `yaml:"queue"`
	} `yaml:"events"`
	Capabilities Capabilities `yaml:"capabilities"`
}

// Capabilities is the static permission registry used when no platform is attached.
type Capabilities struct {
	// ViewersAll lets every authenticated user play; nil means true.
	ViewersAll *bool             `yaml:"viewers_all"`
	Managers   map[int64][]int64 `yaml:"managers"`
	Viewers    map[int64][]int64 `yaml:"viewers"`
	Users      map[int64]string  `yaml:"users"`
}

// AllViewers reports whether every authenticated user may view games.
func (c Capabilities) AllViewers() bool {
	return c.ViewersAll == nil || *c.ViewersAll
}

// Load reads YAML config from path.
func Load(path string) (Config, error) {
	cfg := Config{}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// QuestionBankURL returns the question bank database, falling back to the main one.
func (c Config) QuestionBankURL() string {
	if c.QuestionBank.URL != "" {
		return c.QuestionBank.URL
	}
	return c.Postgres.URL
}

// TTLDuration parses a duration string or returns the fallback if empty.
func TTLDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}
	if d, err := time.ParseDuration(raw); err == nil {
		return d
	}
	return fallback
}
