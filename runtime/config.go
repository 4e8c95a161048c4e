package runtime

import (
	"os"
	goruntime "runtime"

	"gopkg.in/yaml.v3"
)

// Config holds the module's runtime-tunable options: CodeFusion toggles
// Fusioner phases 1-2, Prediction toggles the fixing/forwarding pass,
// NumWorkers sizes the scheduler's worker pool, MaxIOBlock bounds a
// worker's per-reduction page size.
type Config struct {
	CodeFusion bool `yaml:"code_fusion"`
	Prediction bool `yaml:"prediction"`
	NumWorkers int  `yaml:"num_workers"`
	MaxIOBlock int  `yaml:"max_io_block"`
}

// DefaultConfig mirrors the implicit defaults of a build with fusion
// always on and no config file: fusion and prediction both on, one
// worker per CPU, a 64-entry max IO block.
func DefaultConfig() Config {
	return Config{
		CodeFusion: true,
		Prediction: true,
		NumWorkers: goruntime.NumCPU(),
		MaxIOBlock: 64,
	}
}

// LoadConfig reads a YAML config file, applying DefaultConfig first so an
// absent key keeps its implicit default rather than zeroing out.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}
