package config

import (
	"flag"
	"strings"
)

// Flags holds command-line overrides registered on a FlagSet.
type Flags struct {
	Config   string
	debug    bool
	logFile  string
	parallel int
	skip     string
	suffix   string
	keep     bool
	noMerge  bool
	zstd     bool
	output   string
}

// RegisterFlags binds the override flags to fs.
func RegisterFlags(fs *flag.FlagSet) *Flags {
	f := &Flags{}
	fs.StringVar(&f.Config, "config", "", "Path to config file")
	fs.BoolVar(&f.debug, "debug", false, "Enable debug logging")
	fs.StringVar(&f.logFile, "log", "", "Also write logs to this file")
	fs.IntVar(&f.parallel, "parallel", 0, "Concurrent shape-key evaluations")
	fs.StringVar(&f.skip, "skip", "", "Comma-separated modifier kinds kept live (e.g. armature,weld)")
	fs.StringVar(&f.suffix, "suffix", "", "Suffix for collapsed object names")
	fs.BoolVar(&f.keep, "keep-source", false, "Leave source objects visible")
	fs.BoolVar(&f.noMerge, "no-merge", false, "Do not join collapsed objects into the active one")
	fs.BoolVar(&f.zstd, "zstd", false, "Write zstd-compressed output")
	fs.StringVar(&f.output, "o", "", "Output path")
	return f
}

// apply applies flag overrides to the config.
func (f *Flags) apply(cfg *Config) {
	if f.debug {
		cfg.Logging.Level = "debug"
	}
	if f.logFile != "" {
		cfg.Logging.LogFile = f.logFile
	}
	if f.parallel > 0 {
		cfg.Bake.Parallelism = f.parallel
	}
	if f.skip != "" {
		var kinds []string
		for _, k := range strings.Split(f.skip, ",") {
			if k = strings.TrimSpace(k); k != "" {
				kinds = append(kinds, k)
			}
		}
		cfg.Bake.SkipKinds = kinds
	}
	if f.suffix != "" {
		cfg.Bake.Suffix = f.suffix
	}
	if f.keep {
		cfg.Bake.HideSource = false
	}
	if f.noMerge {
		cfg.Bake.Merge = false
	}
	if f.zstd {
		cfg.IO.Compress = true
	}
	if f.output != "" {
		cfg.IO.Output = f.output
	}
}
