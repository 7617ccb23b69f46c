package config

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/load"
)

//go:embed schema.cue
var schemaSrc string

//go:embed default.cue
var defaultSrc string

// Load reads a definition from a .cue file, or from every .cue file in a
// directory (one CUE package).
func Load(path string) (*Config, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if !info.IsDir() {
		src, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("load config: %w", err)
		}
		return Parse(src, path)
	}

	ctx := cuecontext.New()
	instances := load.Instances([]string{"."}, &load.Config{Dir: path})
	if len(instances) == 0 {
		return nil, &Error{Field: "cue", Message: fmt.Sprintf("no CUE instances in %s", path)}
	}
	inst := instances[0]
	if inst.Err != nil {
		return nil, formatCUEError(inst.Err)
	}
	v := ctx.BuildInstance(inst)
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}
	return decode(ctx, v)
}

// Parse reads a definition from CUE source. filename is used in error
// positions.
func Parse(src []byte, filename string) (*Config, error) {
	ctx := cuecontext.New()
	v := ctx.CompileBytes(src, cue.Filename(filepath.Base(filename)))
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}
	return decode(ctx, v)
}

// Default returns the built-in er-status dashboard.
func Default() *Config {
	cfg, err := Parse([]byte(defaultSrc), "default.cue")
	if err != nil {
		panic(fmt.Sprintf("config: built-in default is invalid: %v", err))
	}
	return cfg
}

// decode unifies v with the schema, requires a concrete result, and
// decodes and validates it.
func decode(ctx *cue.Context, v cue.Value) (*Config, error) {
	schema := ctx.CompileString(schemaSrc, cue.Filename("schema.cue"))
	if err := schema.Err(); err != nil {
		return nil, formatCUEError(err)
	}

	v = schema.Unify(v)
	if err := v.Validate(cue.Concrete(true)); err != nil {
		return nil, formatCUEError(err)
	}

	var cfg Config
	if err := v.LookupPath(cue.ParsePath("dashboard")).Decode(&cfg.Dashboard); err != nil {
		return nil, formatCUEError(err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}
