// Package config resolves command line flags from a YAML file.
package config

import (
	"fmt"
	"io"
	"strings"

	"github.com/alecthomas/kong"
	"gopkg.in/yaml.v2"
)

// DefaultPaths are searched in order; missing files are skipped.
var DefaultPaths = []string{"pixasm.yaml", "~/.config/pixasm.yaml"}

// YAML is a kong.ConfigurationLoader. Keys are flag names, written either
// with dashes or underscores:
//
//	defs: include/Parameters.h
//	range_policy: clamp
//	width-marker: "#define WIDTH"
func YAML(r io.Reader) (kong.Resolver, error) {
	values := map[string]any{}
	if err := yaml.NewDecoder(r).Decode(&values); err != nil && err != io.EOF {
		return nil, fmt.Errorf("could not parse YAML configuration: %w", err)
	}

	var f kong.ResolverFunc = func(kctx *kong.Context, parent *kong.Path, flag *kong.Flag) (any, error) {
		for _, key := range []string{flag.Name, strings.ReplaceAll(flag.Name, "-", "_")} {
			if raw, ok := values[key]; ok {
				return raw, nil
			}
		}
		return nil, nil
	}
	return f, nil
}
