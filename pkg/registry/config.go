package registry

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/pelletier/go-toml/v2"
)

// ConstantEntry is one [constants.<name>] table in the project config.
// Value carries no required tag: zero is a legitimate constant value and
// validator treats a zero float as missing.
type ConstantEntry struct {
	Value float64 `toml:"value"`
	Doc   string  `toml:"doc"`
}

// HelperConfig controls emission of the shared helper module.
type HelperConfig struct {
	Path   string `toml:"path"`
	Module string `toml:"module"`
}

// DocumentationConfig carries documentation-wide rendering switches.
type DocumentationConfig struct {
	Module            string `toml:"module"`
	DoxygenIDFromName bool   `toml:"doxygen_id_from_name"`
	AddTOCStatement   bool   `toml:"add_toc_statement"`
}

// FileEntry routes one schema to its optional output targets. Paths are
// relative to the config file's directory.
type FileEntry struct {
	Schema   string `toml:"schema" validate:"required"`
	ModPath  string `toml:"mod_path"`
	DocPath  string `toml:"doc_path"`
	TempPath string `toml:"temp_path"`
}

// TemplateEntry describes one combined template output: which schemas it
// includes, the rendering modes, and per-block value overrides.
type TemplateEntry struct {
	Output    string                       `toml:"output" validate:"required"`
	Schemas   []string                     `toml:"schemas"`
	DocMode   string                       `toml:"doc_mode" validate:"omitempty,oneof=plain doc"`
	ValueMode string                       `toml:"value_mode" validate:"omitempty,oneof=empty filled minimal-empty minimal-filled"`
	Values    map[string]map[string]string `toml:"values"`
}

// BatchConfig selects the batch failure policy. The default is to keep
// processing sibling schemas and report every failure at the end.
type BatchConfig struct {
	FailFast bool `toml:"fail_fast"`
}

// Config is the parsed project configuration (nml-config.toml).
type Config struct {
	Kinds         Kinds                    `toml:"kinds" validate:"required"`
	Constants     map[string]ConstantEntry `toml:"constants" validate:"dive"`
	Helper        HelperConfig             `toml:"helper"`
	Documentation DocumentationConfig      `toml:"documentation"`
	NMLFiles      []FileEntry              `toml:"nml-files" validate:"dive"`
	Templates     []TemplateEntry          `toml:"templates" validate:"dive"`
	Batch         BatchConfig              `toml:"batch"`

	// BaseDir is the directory the config was loaded from; every relative
	// path in the config resolves against it.
	BaseDir string `toml:"-"`
}

// DefaultHelperModule is used when [helper] does not name one.
const DefaultHelperModule = "nml_helper"

// HelperModule returns the configured helper module name or the default.
func (c *Config) HelperModule() string {
	module := strings.TrimSpace(c.Helper.Module)
	if module == "" {
		return DefaultHelperModule
	}
	return module
}

// ResolvePath joins a config-relative path against the config directory.
// Empty paths stay empty so optional targets remain optional.
func (c *Config) ResolvePath(path string) string {
	if strings.TrimSpace(path) == "" {
		return ""
	}
	if filepath.IsAbs(path) || c.BaseDir == "" {
		return filepath.Clean(path)
	}
	return filepath.Join(c.BaseDir, path)
}

// LoadConfig reads, decodes, and validates a project configuration file.
func LoadConfig(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("registry: read config: %w", err)
	}
	cfg, err := ParseConfig(raw)
	if err != nil {
		return nil, fmt.Errorf("registry: config %s: %w", path, err)
	}
	cfg.BaseDir = filepath.Dir(path)
	return cfg, nil
}

// ParseConfig decodes and validates raw TOML config bytes.
func ParseConfig(raw []byte) (*Config, error) {
	var cfg Config
	decoder := toml.NewDecoder(strings.NewReader(string(raw)))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&cfg); err != nil {
		return nil, err
	}
	if err := validateConfig(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func validateConfig(cfg *Config) error {
	validate := validator.New(validator.WithRequiredStructEnabled())
	if err := validate.Struct(cfg); err != nil {
		var invalid *validator.InvalidValidationError
		if errors.As(err, &invalid) {
			return invalid
		}
		return fmt.Errorf("invalid config: %w", err)
	}
	if strings.TrimSpace(cfg.Kinds.Module) == "" {
		return fmt.Errorf("kinds.module must be a non-empty string")
	}
	return nil
}

// NewFromConfig builds the constant/kind registry from a parsed config plus
// ad hoc overrides.
func NewFromConfig(cfg *Config, overrides map[string]float64) (*Registry, error) {
	return New(cfg.Kinds, cfg.Constants, overrides)
}
