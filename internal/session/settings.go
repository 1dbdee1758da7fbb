package session

import (
	"log"

	"acejump/internal/buffers"
	"acejump/internal/config"
	"acejump/internal/modes"
	"acejump/internal/search"
)

// Settings is the read-only configuration a session is started with
type Settings struct {
	Boundary       buffers.Boundary
	Normalizer     search.Normalizer
	Alphabet       []rune
	MaxKeyLength   int
	MinQueryLength int
	Cycle          []modes.JumpMode
}

// NewSettings derives session settings from a validated config
func NewSettings(cfg *config.Config) Settings {
	boundary := buffers.VisibleRegion
	if cfg.Search.WholeFile {
		boundary = buffers.WholeBuffer
	}

	cycle, err := cfg.CycleModes()
	if err != nil {
		log.Printf("Session: ignoring invalid cycle modes: %v", err)
	}

	return Settings{
		Boundary: boundary,
		Normalizer: search.Normalizer{
			CaseSensitive: cfg.Search.CaseSensitive,
			MapToASCII:    cfg.Search.MapToASCII,
		},
		Alphabet:       []rune(cfg.Tags.Alphabet),
		MaxKeyLength:   cfg.Tags.MaxLength,
		MinQueryLength: cfg.Search.MinQueryLength,
		Cycle:          cycle,
	}
}

// DefaultSettings returns the settings of the default config
func DefaultSettings() Settings {
	return NewSettings(config.DefaultConfig())
}
