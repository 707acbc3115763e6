// Package config holds Forge's runtime constants and the environment-driven
// tuning knobs (JIT threshold, color output, VM limits), loaded the way
// funvibe-funxy's internal/config does for its own constants, but sourced
// from the environment via github.com/caarlos0/env rather than hardcoded.
package config

import "github.com/caarlos0/env/v6"

// Version is the current Forge version, set at build time by -ldflags the
// same way funvibe-funxy's release script stamps its own Version var.
var Version = "0.1.0"

const SourceFileExt = ".fg"

// SourceFileExtensions are all recognized Forge source file extensions.
var SourceFileExtensions = []string{".fg", ".forge"}

// HasSourceExt returns true if path ends with a recognized Forge extension.
func HasSourceExt(path string) bool {
	for _, ext := range SourceFileExtensions {
		if len(path) >= len(ext) && path[len(path)-len(ext):] == ext {
			return true
		}
	}
	return false
}

// Runtime holds the environment-tunable knobs read once at process start.
// Struct tags follow caarlos0/env's convention, the same library
// funvibe-funxy's sibling example repos use for 12-factor config loading.
type Runtime struct {
	// JITThreshold is the call count after which compileFunctionDefinition's
	// output is considered hot and eligible for internal/jit promotion
	// (spec §4.5's HOT_THRESHOLD).
	JITThreshold int `env:"FORGE_JIT_THRESHOLD" envDefault:"100"`
	// DisableJIT forces every call through the bytecode interpreter, useful
	// for isolating a JIT-codegen bug from an interpreter bug.
	DisableJIT bool `env:"FORGE_NO_JIT" envDefault:"false"`
	// Backend selects the execution backend: "vm" (default) or "tree" for
	// internal/treewalk, mirroring funvibe-funxy's BackendType build flag
	// but switchable at runtime.
	Backend string `env:"FORGE_BACKEND" envDefault:"vm"`
	// Color forces ANSI diagnostics on/off; unset defers to internal/diagnostics'
	// go-isatty terminal probe.
	Color *bool `env:"FORGE_COLOR"`
	// GCInitialThreshold overrides internal/vm's default allocation count
	// before the first mark-sweep collection.
	GCInitialThreshold int `env:"FORGE_GC_THRESHOLD" envDefault:"8192"`
}

// Load reads Runtime from the process environment, falling back to the
// struct tags' envDefault values for anything unset.
func Load() (Runtime, error) {
	var rt Runtime
	if err := env.Parse(&rt); err != nil {
		return Runtime{}, err
	}
	return rt, nil
}
