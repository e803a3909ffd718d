package config

import (
	_ "embed"
	"fmt"
	"os"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/load"

	"github.com/bowphp/framework-sub003/internal/errs"
)

//go:embed schema.cue
var schemaCUE string

// LoadCUEDir evaluates the CUE package in dir as configuration.
func LoadCUEDir(dir string) (*Config, error) {
	ctx := cuecontext.New()
	instances := load.Instances([]string{"."}, &load.Config{Dir: dir})
	if len(instances) == 0 {
		return nil, errs.Configf("config.load", "no CUE instances loaded from %s", dir)
	}

	inst := instances[0]
	if inst.Err != nil {
		return nil, errs.Configf("config.load", "loading CUE files: %s", describe(inst.Err))
	}

	value := ctx.BuildInstance(inst)
	if err := value.Err(); err != nil {
		return nil, errs.Configf("config.load", "building CUE value: %s", describe(err))
	}
	return decodeCUE(ctx, value)
}

// LoadCUEFile evaluates a single CUE file as configuration.
func LoadCUEFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errs.Configf("config.load", "read %s: %w", path, err)
	}
	return parseCUE(data, path)
}

// ParseCUE evaluates CUE source as configuration.
func ParseCUE(data []byte) (*Config, error) {
	return parseCUE(data, "config.cue")
}

func parseCUE(data []byte, filename string) (*Config, error) {
	ctx := cuecontext.New()
	value := ctx.CompileBytes(data, cue.Filename(filename))
	if err := value.Err(); err != nil {
		return nil, errs.Configf("config.parse", "compiling CUE: %s", describe(err))
	}
	return decodeCUE(ctx, value)
}

// decodeCUE checks value against #Config and decodes it.
func decodeCUE(ctx *cue.Context, value cue.Value) (*Config, error) {
	schema := ctx.CompileString(schemaCUE, cue.Filename("schema.cue"))
	if err := schema.Err(); err != nil {
		return nil, fmt.Errorf("compile embedded schema: %w", err)
	}

	unified := schema.LookupPath(cue.ParsePath("#Config")).Unify(value)
	if err := unified.Validate(cue.Concrete(true)); err != nil {
		return nil, errs.Configf("config.parse", "schema: %s", describe(err))
	}

	cfg := &Config{}
	if err := unified.Decode(cfg); err != nil {
		return nil, errs.Configf("config.parse", "decode: %s", describe(err))
	}
	return finish(cfg)
}

// describe flattens a CUE error list, positions included.
func describe(err error) string {
	return strings.TrimSpace(cueerrors.Details(err, nil))
}
