package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

// DefaultFallbackVersion is installed when the latest release cannot be resolved.
const DefaultFallbackVersion = "v2.7.0"

// EnvPrefix is the prefix of environment variables that override settings.
const EnvPrefix = "REALM_CTL_"

// Settings holds realm-ctl's own settings from realm-ctl.toml
type Settings struct {
	FallbackVersion string   `toml:"fallback_version"`
	Mirror          string   `toml:"mirror"`  // release download prefix
	APIURL          string   `toml:"api_url"` // latest-release endpoint
	Arch            string   `toml:"arch"`    // release arch triple prefix, e.g. x86_64
	ServiceName     string   `toml:"service_name"`
	SkipDeps        bool     `toml:"skip_deps"`
	Packages        []string `toml:"packages"`
	Timeout         string   `toml:"timeout"` // download timeout, Go duration syntax
}

// DefaultSettings returns the built-in settings
func DefaultSettings() *Settings {
	return &Settings{
		FallbackVersion: DefaultFallbackVersion,
		Mirror:          "https://github.com/zhboner/realm/releases/download",
		APIURL:          "https://api.github.com/repos/zhboner/realm/releases/latest",
		ServiceName:     DefaultServiceName,
		Packages:        []string{"curl", "tar"},
		Timeout:         "60s",
	}
}

// Validate checks that the Settings are usable.
func (s *Settings) Validate() error {
	if s.FallbackVersion == "" {
		return fmt.Errorf("fallback_version is required")
	}
	if !strings.HasPrefix(s.Mirror, "http://") && !strings.HasPrefix(s.Mirror, "https://") {
		return fmt.Errorf("mirror must be an http(s) URL (got %q)", s.Mirror)
	}
	if s.ServiceName == "" {
		return fmt.Errorf("service_name is required")
	}
	if strings.ContainsAny(s.ServiceName, "/ \t") {
		return fmt.Errorf("invalid service_name %q", s.ServiceName)
	}
	if _, err := s.DownloadTimeout(); err != nil {
		return err
	}
	return nil
}

// DownloadTimeout parses Timeout
func (s *Settings) DownloadTimeout() (time.Duration, error) {
	if s.Timeout == "" {
		return 60 * time.Second, nil
	}
	d, err := time.ParseDuration(s.Timeout)
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("invalid timeout %q", s.Timeout)
	}
	return d, nil
}

// LoadSettings loads settings from the manager TOML file and applies
// overrides from envFile and then from REALM_CTL_* environment variables.
// Missing files are not an error.
func LoadSettings(managerFile, envFile string) (*Settings, error) {
	s := DefaultSettings()

	if managerFile != "" {
		if _, err := os.Stat(managerFile); err == nil {
			md, err := toml.DecodeFile(managerFile, s)
			if err != nil {
				return nil, fmt.Errorf("failed to parse %s: %w", managerFile, err)
			}
			if undecoded := md.Undecoded(); len(undecoded) > 0 {
				return nil, fmt.Errorf("unknown keys in %s: %v", managerFile, undecoded)
			}
		} else if !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to stat %s: %w", managerFile, err)
		}
	}

	overrides := map[string]string{}
	if envFile != "" {
		if _, err := os.Stat(envFile); err == nil {
			values, err := godotenv.Read(envFile)
			if err != nil {
				return nil, fmt.Errorf("failed to read %s: %w", envFile, err)
			}
			for k, v := range values {
				overrides[strings.TrimPrefix(k, EnvPrefix)] = v
			}
		}
	}
	for _, kv := range os.Environ() {
		if k, v, ok := strings.Cut(kv, "="); ok && strings.HasPrefix(k, EnvPrefix) {
			overrides[strings.TrimPrefix(k, EnvPrefix)] = v
		}
	}

	if err := s.applyOverrides(overrides); err != nil {
		return nil, err
	}

	if err := s.Validate(); err != nil {
		return nil, fmt.Errorf("invalid settings: %w", err)
	}

	return s, nil
}

func (s *Settings) applyOverrides(env map[string]string) error {
	for k, v := range env {
		switch k {
		case "FALLBACK_VERSION":
			s.FallbackVersion = v
		case "MIRROR":
			s.Mirror = strings.TrimRight(v, "/")
		case "API_URL":
			s.APIURL = v
		case "ARCH":
			s.Arch = v
		case "SERVICE_NAME":
			s.ServiceName = v
		case "SKIP_DEPS":
			b, err := strconv.ParseBool(v)
			if err != nil {
				return fmt.Errorf("invalid %s%s: %q", EnvPrefix, k, v)
			}
			s.SkipDeps = b
		case "PACKAGES":
			s.Packages = strings.Fields(strings.ReplaceAll(v, ",", " "))
		case "TIMEOUT":
			s.Timeout = v
		}
	}
	return nil
}

// Save writes the settings as TOML
func (s *Settings) Save(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer f.Close()

	if err := toml.NewEncoder(f).Encode(s); err != nil {
		return fmt.Errorf("failed to encode settings: %w", err)
	}
	return nil
}
