package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unicode"

	"acejump/internal/eventbus"
	"acejump/internal/modes"

	"github.com/pelletier/go-toml/v2"
)

// FileName is the name of the configuration file inside the config directory
const FileName = "acejump.toml"

// ErrInvalidConfig is wrapped by every validation failure
var ErrInvalidConfig = errors.New("invalid config")

// Config represents the application configuration
type Config struct {
	Version int            `toml:"version"`
	Search  SearchSettings `toml:"search"`
	Tags    TagSettings    `toml:"tags"`
	Modes   ModeSettings   `toml:"modes"`
	Colors  ColorSettings  `toml:"colors"`
}

// SearchSettings controls how queries are matched
type SearchSettings struct {
	WholeFile      bool `toml:"whole_file"`
	MapToASCII     bool `toml:"map_to_ascii"`
	CaseSensitive  bool `toml:"case_sensitive"`
	MinQueryLength int  `toml:"min_query_length"`
}

// TagSettings controls label generation
type TagSettings struct {
	Alphabet  string `toml:"alphabet"`
	MaxLength int    `toml:"max_length"`
}

// ModeSettings lists the modes visited when cycling
type ModeSettings struct {
	Cycle []string `toml:"cycle"`
}

// ColorSettings holds hex colors used by the terminal host
type ColorSettings struct {
	Jump          string `toml:"jump"`
	JumpEnd       string `toml:"jump_end"`
	Target        string `toml:"target"`
	Definition    string `toml:"definition"`
	TextHighlight string `toml:"text_highlight"`
	TagForeground string `toml:"tag_foreground"`
	TagBackground string `toml:"tag_background"`
}

// CycleModes returns the parsed cycle list
func (c *Config) CycleModes() ([]modes.JumpMode, error) {
	return modes.ParseList(c.Modes.Cycle)
}

// ModeColor returns the caret color configured for mode
func (c *Config) ModeColor(mode modes.JumpMode) string {
	switch mode {
	case modes.JumpEnd, modes.JumpStart:
		return c.Colors.JumpEnd
	case modes.Target, modes.Chunk:
		return c.Colors.Target
	case modes.Declaration:
		return c.Colors.Definition
	default:
		return c.Colors.Jump
	}
}

// Validate reports every problem in the configuration at once
func (c *Config) Validate() error {
	var errs []error

	if c.Tags.Alphabet == "" {
		errs = append(errs, fmt.Errorf("%w: tags.alphabet is empty", ErrInvalidConfig))
	}
	seen := make(map[rune]bool)
	for _, r := range c.Tags.Alphabet {
		if unicode.IsUpper(r) {
			errs = append(errs, fmt.Errorf("%w: tags.alphabet contains upper case %q", ErrInvalidConfig, r))
		}
		if unicode.IsSpace(r) {
			errs = append(errs, fmt.Errorf("%w: tags.alphabet contains whitespace", ErrInvalidConfig))
		}
		if seen[r] {
			errs = append(errs, fmt.Errorf("%w: tags.alphabet repeats %q", ErrInvalidConfig, r))
		}
		seen[r] = true
	}
	if c.Tags.MaxLength < 1 {
		errs = append(errs, fmt.Errorf("%w: tags.max_length must be at least 1", ErrInvalidConfig))
	}
	if c.Search.MinQueryLength < 1 {
		errs = append(errs, fmt.Errorf("%w: search.min_query_length must be at least 1", ErrInvalidConfig))
	}
	if _, err := c.CycleModes(); err != nil {
		errs = append(errs, fmt.Errorf("%w: modes.cycle: %w", ErrInvalidConfig, err))
	}

	return errors.Join(errs...)
}

// ConfigService handles configuration management
type ConfigService interface {
	Load() (*Config, error)
	Save(config *Config) error
	LoadFromPath(path string) (*Config, error)
	SaveToPath(config *Config, path string) error
	Path() string
}

// configService is the concrete implementation
type configService struct {
	bus      eventbus.EventBus
	filePath string
}

// NewConfigService creates a config service for the file in the user config dir
func NewConfigService(bus eventbus.EventBus) ConfigService {
	return NewConfigServiceAt(bus, DefaultPath())
}

// NewConfigServiceAt creates a config service bound to path
func NewConfigServiceAt(bus eventbus.EventBus, path string) ConfigService {
	if bus == nil {
		bus = eventbus.NullBus{}
	}
	return &configService{bus: bus, filePath: path}
}

// DefaultPath returns the location of the configuration file
func DefaultPath() string {
	configDir, err := os.UserConfigDir()
	if err != nil {
		// Fallback to home directory
		configDir, err = os.UserHomeDir()
		if err != nil {
			configDir = "."
		}
		configDir = filepath.Join(configDir, ".config")
	}
	return filepath.Join(configDir, "acejump", FileName)
}

// Path returns the file the service reads and writes
func (cs *configService) Path() string {
	return cs.filePath
}

// Load loads the configuration, falling back to defaults when the file is missing
func (cs *configService) Load() (*Config, error) {
	if _, err := os.Stat(cs.filePath); os.IsNotExist(err) {
		cfg := DefaultConfig()
		cs.bus.Publish(eventbus.ConfigLoadedEvent{})
		return cfg, nil
	}

	cfg, err := cs.LoadFromPath(cs.filePath)
	if err != nil {
		return nil, err
	}
	cs.bus.Publish(eventbus.ConfigLoadedEvent{Path: cs.filePath})
	return cfg, nil
}

// Save saves the configuration to file
func (cs *configService) Save(config *Config) error {
	if err := cs.SaveToPath(config, cs.filePath); err != nil {
		return err
	}
	cs.bus.Publish(eventbus.ConfigSavedEvent{Path: cs.filePath})
	return nil
}

// LoadFromPath loads configuration from a specific path. Keys missing from
// the file keep their default values.
func (cs *configService) LoadFromPath(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("config file not found: %s", path)
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// SaveToPath saves configuration to a specific path
func (cs *configService) SaveToPath(config *Config, path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := toml.Marshal(config)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// Parse decodes TOML on top of the defaults and validates the result
func Parse(data []byte) (*Config, error) {
	cfg := DefaultConfig()
	if err := toml.Unmarshal(data, cfg); err != nil {
		var decodeErr *toml.DecodeError
		if errors.As(err, &decodeErr) {
			row, col := decodeErr.Position()
			return nil, fmt.Errorf("failed to parse config at line %d column %d: %w", row, col, err)
		}
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.Tags.Alphabet = strings.ToLower(cfg.Tags.Alphabet)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// DefaultAlphabet is the default set of tag characters, home row first
const DefaultAlphabet = "asdfghjklqwertyuiopzxcvbnm"

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	cycle := make([]string, 0, len(modes.DefaultCycle))
	for _, m := range modes.DefaultCycle {
		cycle = append(cycle, m.Key())
	}

	return &Config{
		Version: 1,
		Search: SearchSettings{
			WholeFile:      true,
			MinQueryLength: 1,
		},
		Tags: TagSettings{
			Alphabet:  DefaultAlphabet,
			MaxLength: 2,
		},
		Modes: ModeSettings{
			Cycle: cycle,
		},
		Colors: ColorSettings{
			Jump:          "#FFFFFF",
			JumpEnd:       "#33E78A",
			Target:        "#FFB700",
			Definition:    "#6FC5FF",
			TextHighlight: "#394B58",
			TagForeground: "#FFFFFF",
			TagBackground: "#008299",
		},
	}
}
