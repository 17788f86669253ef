// Package preset maps upload preset names to target dimensions and quality.
package preset

import (
	"fmt"
	"os"
	"strings"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/dontpanicw/ClinicMedia/internal/domain"
	"github.com/dontpanicw/ClinicMedia/internal/port"
)

var _ port.PresetResolver = (*Table)(nil)

// Defaults is the built-in table.
func Defaults() map[string]domain.PresetConfig {
	return map[string]domain.PresetConfig{
		domain.PresetHero:    {Width: 800, Height: 1000, Quality: 85},
		domain.PresetService: {Width: 1280, Height: 720, Quality: 85},
		domain.PresetGallery: {Width: 800, Height: 800, Quality: 85},
		domain.PresetDefault: {Width: 1200, Height: 1200, Quality: 85},
	}
}

// Table is immutable after construction and safe for concurrent reads.
type Table struct {
	presets map[string]domain.PresetConfig
}

func NewTable(presets map[string]domain.PresetConfig) (*Table, error) {
	v := validator.New()
	copied := make(map[string]domain.PresetConfig, len(presets))
	for name, cfg := range presets {
		if err := v.Struct(cfg); err != nil {
			return nil, fmt.Errorf("preset %q: %w", name, err)
		}
		copied[strings.ToLower(name)] = cfg
	}
	if _, ok := copied[domain.PresetDefault]; !ok {
		return nil, fmt.Errorf("preset table must define %q", domain.PresetDefault)
	}
	return &Table{presets: copied}, nil
}

// NewDefaultTable never fails.
func NewDefaultTable() *Table {
	return &Table{presets: Defaults()}
}

// LoadFile merges overrides from a YAML file of the form
//
//	hero: {width: 800, height: 1000, quality: 85}
//
// over the built-in table. An empty path returns the defaults.
func LoadFile(path string) (*Table, error) {
	if path == "" {
		return NewDefaultTable(), nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read presets file: %w", err)
	}
	var overrides map[string]domain.PresetConfig
	if err := yaml.Unmarshal(raw, &overrides); err != nil {
		return nil, fmt.Errorf("failed to parse presets file %s: %w", path, err)
	}
	merged := Defaults()
	for name, cfg := range overrides {
		merged[strings.ToLower(name)] = cfg
	}
	return NewTable(merged)
}

// Resolve returns the effective preset name and its config. Unknown names
// fall back to the default entry instead of failing.
func (t *Table) Resolve(name string) (string, domain.PresetConfig) {
	key := strings.ToLower(strings.TrimSpace(name))
	if cfg, ok := t.presets[key]; ok {
		return key, cfg
	}
	return domain.PresetDefault, t.presets[domain.PresetDefault]
}
