package simply

import (
	"os"

	"github.com/magiconair/properties"
)

// Config controls the ambient behaviour of a compilation run (§3.5):
// nothing here changes the value a Simply program computes.
type Config struct {
	Target       string
	Verbose      bool
	MinSeverity  Severity
	MallocSymbol string
	DumpAST      bool
	DumpIR       bool
	DumpLLVM     bool
}

// DefaultConfig is the compiled-in baseline that LoadConfig starts from.
func DefaultConfig() *Config {
	return &Config{
		Target:       "",
		Verbose:      false,
		MinSeverity:  Warn,
		MallocSymbol: "malloc",
		DumpAST:      false,
		DumpIR:       false,
		DumpLLVM:     false,
	}
}

// Option overrides one field of a Config, applied after the properties
// file per §3.5's resolution order (defaults, then file, then flags).
type Option func(*Config)

func WithTarget(target string) Option       { return func(c *Config) { c.Target = target } }
func WithVerbose(verbose bool) Option       { return func(c *Config) { c.Verbose = verbose } }
func WithMallocSymbol(name string) Option   { return func(c *Config) { c.MallocSymbol = name } }
func WithDumpAST(dump bool) Option          { return func(c *Config) { c.DumpAST = dump } }
func WithDumpIR(dump bool) Option           { return func(c *Config) { c.DumpIR = dump } }
func WithDumpLLVM(dump bool) Option         { return func(c *Config) { c.DumpLLVM = dump } }

// LoadConfig resolves a Config from compiled-in defaults, an optional
// Java-style .properties file at path (a missing file is not an error —
// it just means "use the defaults"), then the given overrides in order.
func LoadConfig(path string, overrides ...Option) (*Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		if _, err := os.Stat(path); err == nil {
			props, err := properties.LoadFile(path, properties.UTF8)
			if err != nil {
				return nil, err
			}
			cfg.Target = props.GetString("target", cfg.Target)
			cfg.Verbose = props.GetBool("verbose", cfg.Verbose)
			cfg.MallocSymbol = props.GetString("malloc_symbol", cfg.MallocSymbol)
			cfg.DumpAST = props.GetBool("dump_ast", cfg.DumpAST)
			cfg.DumpIR = props.GetBool("dump_ir", cfg.DumpIR)
			cfg.DumpLLVM = props.GetBool("dump_llvm", cfg.DumpLLVM)
			if cfg.Verbose {
				cfg.MinSeverity = Info
			}
		}
	}

	for _, opt := range overrides {
		opt(cfg)
	}
	if cfg.Verbose {
		cfg.MinSeverity = Info
	}
	return cfg, nil
}
