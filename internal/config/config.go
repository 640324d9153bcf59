package config

import (
	_ "embed"
	"errors"
	"fmt"
	"math"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

//go:embed defaults.yaml
var defaultsYAML []byte

type Config struct {
	Embedding  EmbeddingConfig
	OpenAI     OpenAIConfig
	Gemini     GeminiConfig
	Thresholds ThresholdsConfig
	Output     OutputConfig
}

type EmbeddingConfig struct {
	URL string // defaults to http://localhost:8000
}

type OpenAIConfig struct {
	Token string
}

type GeminiConfig struct {
	APIKey string
}

// ThresholdsConfig holds the two cut points of the face distance axis.
type ThresholdsConfig struct {
	Accept float64 `yaml:"accept"`
	Reject float64 `yaml:"reject"`
}

// Validate checks that the thresholds describe a usable accept/ambiguous/reject split.
func (t ThresholdsConfig) Validate() error {
	if math.IsNaN(t.Accept) || math.IsNaN(t.Reject) {
		return errors.New("thresholds must be numbers")
	}
	if t.Accept < 0 || t.Reject < 0 {
		return fmt.Errorf("thresholds must not be negative (accept=%g, reject=%g)", t.Accept, t.Reject)
	}
	if t.Accept > t.Reject {
		return fmt.Errorf("accept threshold %g is above reject threshold %g", t.Accept, t.Reject)
	}
	return nil
}

type OutputConfig struct {
	Dir         string `yaml:"dir"`          // created inside the input directory
	FailureDir  string `yaml:"failure_dir"`  // created inside Dir
	GroupPrefix string `yaml:"group_prefix"` // followed by the 1-based group number
}

type defaultsFile struct {
	Thresholds ThresholdsConfig `yaml:"thresholds"`
	Output     OutputConfig     `yaml:"output"`
}

// envFloat reads an environment variable and parses it as a non-negative float.
// Returns the default value if the env var is unset, empty, or invalid.
func envFloat(key string, defaultVal float64) float64 {
	s := os.Getenv(key)
	if s == "" {
		return defaultVal
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil && f >= 0 && !math.IsNaN(f) {
		return f
	}
	return defaultVal
}

// envString reads an environment variable, falling back to defaultVal when unset.
func envString(key, defaultVal string) string {
	if s := os.Getenv(key); s != "" {
		return s
	}
	return defaultVal
}

func Load() *Config {
	var defaults defaultsFile
	if err := yaml.Unmarshal(defaultsYAML, &defaults); err != nil {
		// This is an embedded file so this error should never happen in practice
		panic("failed to unmarshal embedded defaults.yaml: " + err.Error())
	}

	return &Config{
		Embedding: EmbeddingConfig{
			URL: os.Getenv("EMBEDDING_URL"),
		},
		OpenAI: OpenAIConfig{
			Token: os.Getenv("OPENAI_TOKEN"),
		},
		Gemini: GeminiConfig{
			APIKey: os.Getenv("GEMINI_API_KEY"),
		},
		Thresholds: ThresholdsConfig{
			Accept: envFloat("GROUPER_ACCEPT_THRESHOLD", defaults.Thresholds.Accept),
			Reject: envFloat("GROUPER_REJECT_THRESHOLD", defaults.Thresholds.Reject),
		},
		Output: OutputConfig{
			Dir:         envString("GROUPER_OUTPUT_DIR", defaults.Output.Dir),
			FailureDir:  envString("GROUPER_FAILURE_DIR", defaults.Output.FailureDir),
			GroupPrefix: envString("GROUPER_GROUP_PREFIX", defaults.Output.GroupPrefix),
		},
	}
}
