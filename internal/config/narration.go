package config

import (
	"fmt"
	"os"
	"time"

	"github.com/pelletier/go-toml/v2"
)

// Duration lets TOML files spell timeouts as "25s".
type Duration time.Duration

func (d *Duration) UnmarshalText(b []byte) error {
	parsed, err := time.ParseDuration(string(b))
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", string(b), err)
	}
	*d = Duration(parsed)
	return nil
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}

func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

// NarrationConfig tunes blog text-to-speech generation.
type NarrationConfig struct {
	TargetChunkSize int      `toml:"target_chunk_size"`
	MaxSegments     int      `toml:"max_segments"`
	MinTextLength   int      `toml:"min_text_length"`
	CallTimeout     Duration `toml:"call_timeout"`
	Budget          Duration `toml:"budget"`
	Voice           string   `toml:"voice"`
	Model           string   `toml:"model"`
	Persona         string   `toml:"persona"`
}

const defaultPersona = `You are Alexis Rose from Schitt's Creek:
- A fabulously over-the-top Canadian socialite turned town insider
- Warm, melodramatic with that signature Canadian lilt
- Drawn-out vowels on fun words ("fuuun", "fabuuulous")
- Boutique-babble ("vintage vibe", "artisan aesthetic")
- Occasional French-flavored "oui, oui"
- Every moment is a VIP event: dramatic encouragement, self-awareness, endlessly charming`

func DefaultNarration() NarrationConfig {
	return NarrationConfig{
		TargetChunkSize: 1200,
		MaxSegments:     10,
		MinTextLength:   10,
		CallTimeout:     Duration(25 * time.Second),
		Budget:          Duration(25 * time.Second),
		Voice:           "nova",
		Model:           "gpt-4o-mini-tts",
		Persona:         defaultPersona,
	}
}

// LoadNarrationFile overlays the values present in a TOML file onto cfg.
func LoadNarrationFile(path string, cfg *NarrationConfig) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read narration config %s: %w", path, err)
	}

	var file struct {
		Narration NarrationConfig `toml:"narration"`
	}
	file.Narration = *cfg

	if err := toml.Unmarshal(data, &file); err != nil {
		return fmt.Errorf("failed to parse narration config %s: %w", path, err)
	}

	if file.Narration.TargetChunkSize <= 0 || file.Narration.MaxSegments <= 0 {
		return fmt.Errorf("narration config %s: target_chunk_size and max_segments must be positive", path)
	}

	*cfg = file.Narration
	return nil
}
