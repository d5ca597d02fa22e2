package config

import (
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

const DefaultRefreshInterval = 30 * time.Minute

// Agent configures the foreground reminder agent.
type Agent struct {
	APIURL          string   `toml:"api_url"`
	Email           string   `toml:"email"`
	StateDir        string   `toml:"state_dir"`
	RefreshInterval Duration `toml:"refresh_interval"`
	PushoverToken   string   `toml:"pushover_token"`
	PushoverUser    string   `toml:"pushover_user"`
}

// Duration decodes TOML strings such as "30m".
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalText(text []byte) error {
	parsed, err := time.ParseDuration(strings.TrimSpace(string(text)))
	if err != nil {
		return err
	}
	d.Duration = parsed
	return nil
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// PushoverEnabled reports whether both pushover credentials are set.
func (agent Agent) PushoverEnabled() bool {
	return agent.PushoverToken != "" && agent.PushoverUser != ""
}

// DefaultAgent returns the agent defaults rooted at baseDir.
func DefaultAgent(baseDir string) *Agent {
	return &Agent{
		APIURL:          "http://localhost:8080",
		StateDir:        filepath.Join(baseDir, "state"),
		RefreshInterval: Duration{DefaultRefreshInterval},
	}
}

// ReadAgent decodes an agent config and applies defaults for missing keys.
func ReadAgent(r io.Reader, baseDir string) (*Agent, error) {
	cfg := DefaultAgent(baseDir)
	if _, err := toml.NewDecoder(r).Decode(cfg); err != nil {
		return nil, fmt.Errorf("decode agent config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ReadAgentFile reads path. A missing file yields the defaults.
func ReadAgentFile(path string) (*Agent, error) {
	baseDir := filepath.Dir(path)
	file, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		return DefaultAgent(baseDir), nil
	}
	if err != nil {
		return nil, fmt.Errorf("open agent config: %w", err)
	}
	defer file.Close()

	cfg, err := ReadAgent(file, baseDir)
	if err != nil {
		return nil, fmt.Errorf("reading agent config from %s: %w", path, err)
	}
	return cfg, nil
}

// WriteAgent encodes cfg as TOML.
func WriteAgent(w io.Writer, cfg *Agent) error {
	if err := toml.NewEncoder(w).Encode(cfg); err != nil {
		return fmt.Errorf("encode agent config: %w", err)
	}
	return nil
}

func (agent *Agent) Validate() error {
	agent.APIURL = strings.TrimRight(strings.TrimSpace(agent.APIURL), "/")
	parsed, err := url.Parse(agent.APIURL)
	if err != nil || (parsed.Scheme != "http" && parsed.Scheme != "https") || parsed.Host == "" {
		return fmt.Errorf("api_url must be an http(s) URL, got %q", agent.APIURL)
	}
	if agent.RefreshInterval.Duration <= 0 {
		agent.RefreshInterval = Duration{DefaultRefreshInterval}
	}
	if agent.RefreshInterval.Duration < time.Minute {
		return fmt.Errorf("refresh_interval must be at least 1m, got %s", agent.RefreshInterval)
	}
	if strings.TrimSpace(agent.StateDir) == "" {
		return errors.New("state_dir is required")
	}
	if (agent.PushoverToken == "") != (agent.PushoverUser == "") {
		return errors.New("pushover_token and pushover_user must be set together")
	}
	return nil
}
