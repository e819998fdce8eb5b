// Package config handles shapebake configuration loading and management.
package config

// Config holds all settings.
type Config struct {
	Bake    BakeConfig    `yaml:"bake"`
	IO      IOConfig      `yaml:"io"`
	Logging LoggingConfig `yaml:"logging"`
}

// BakeConfig holds modifier baking policy.
type BakeConfig struct {
	SkipKinds          []string `yaml:"skip_kinds"`          // Modifier kinds kept live instead of baked
	Parallelism        int      `yaml:"parallelism"`         // Concurrent shape-key evaluations
	Suffix             string   `yaml:"suffix"`              // Appended to collapsed object names
	HideSource         bool     `yaml:"hide_source"`         // Hide source objects after baking
	Merge              bool     `yaml:"merge"`               // Join collapsed objects into the active one
	DisableUnsupported bool     `yaml:"disable_unsupported"` // Disable bevel-by-angle and non-collapse decimate
}

// IOConfig holds scene document settings.
type IOConfig struct {
	Compress bool   `yaml:"compress"` // Write zstd-compressed scene documents
	Output   string `yaml:"output"`   // Default output path
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level   string `yaml:"level"`
	LogFile string `yaml:"log_file"`
}

// Default returns configuration with sensible defaults.
func Default() *Config {
	return &Config{
		Bake: BakeConfig{
			SkipKinds:          []string{"armature"},
			Parallelism:        1,
			Suffix:             "_collapsed",
			HideSource:         true,
			Merge:              true,
			DisableUnsupported: true,
		},
		IO: IOConfig{
			Compress: false,
			Output:   "",
		},
		Logging: LoggingConfig{
			Level:   "info",
			LogFile: "",
		},
	}
}
