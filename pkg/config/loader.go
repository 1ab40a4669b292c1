// Package config provides configuration loading for srle.
// It supports YAML, JSON, and CUE file formats using CUE as the underlying parser.
package config

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/load"
	"cuelang.org/go/encoding/yaml"
)

// LoadValueFromReader loads configuration from an io.Reader and returns a CUE value.
// The content is parsed as YAML (a superset of JSON); if that fails it is
// compiled as CUE source. For .cue files with imports, use LoadValue instead.
func LoadValueFromReader(r io.Reader) (cue.Value, error) {
	ctx := cuecontext.New()

	data, err := io.ReadAll(r)
	if err != nil {
		return cue.Value{}, fmt.Errorf("failed to read config: %w", err)
	}

	return buildData(ctx, "", data)
}

// buildData parses data as YAML, falling back to CUE syntax.
func buildData(ctx *cue.Context, filename string, data []byte) (cue.Value, error) {
	file, yamlErr := yaml.Extract(filename, data)
	if yamlErr == nil {
		val := ctx.BuildFile(file)
		if err := val.Err(); err != nil {
			return cue.Value{}, fmt.Errorf("failed to build CUE value: %w", err)
		}
		return val, nil
	}

	val := ctx.CompileBytes(data, cue.Filename(filename))
	if err := val.Err(); err != nil {
		return cue.Value{}, fmt.Errorf("failed to parse config: %w", yamlErr)
	}
	return val, nil
}

// LoadValue loads configuration from a file and returns a CUE value.
//
// For .cue files: Uses CUE's load.Instances to support CUE packages with imports and modules.
// For .yaml/.yml/.json files: Uses direct parsing for standalone data files.
// For directories: Loads all .cue files as a package (supports imports between files).
func LoadValue(path string) (cue.Value, error) {
	return loadValue(cuecontext.New(), path)
}

func loadValue(ctx *cue.Context, path string) (cue.Value, error) {
	fileInfo, err := os.Stat(path)
	if err != nil {
		return cue.Value{}, fmt.Errorf("failed to stat path: %w", err)
	}

	if !fileInfo.IsDir() && !strings.HasSuffix(strings.ToLower(path), ".cue") {
		data, err := os.ReadFile(path)
		if err != nil {
			return cue.Value{}, fmt.Errorf("failed to read file: %w", err)
		}

		if strings.ToLower(filepath.Ext(path)) == ".json" {
			val := ctx.CompileBytes(data, cue.Filename(path))
			if err := val.Err(); err != nil {
				return cue.Value{}, fmt.Errorf("failed to parse JSON: %w", err)
			}
			return val, nil
		}
		return buildData(ctx, path, data)
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		return cue.Value{}, fmt.Errorf("failed to resolve path: %w", err)
	}

	cfg := &load.Config{
		Dir:       filepath.Dir(absPath),
		DataFiles: true,
	}

	args := []string{absPath}
	if fileInfo.IsDir() {
		cfg.Dir = absPath
		args = []string{"."}
	}

	instances := load.Instances(args, cfg)
	if len(instances) == 0 {
		return cue.Value{}, fmt.Errorf("no instances loaded from %s", path)
	}

	inst := instances[0]
	if inst.Err != nil {
		return cue.Value{}, fmt.Errorf("failed to load config: %w", inst.Err)
	}

	val := ctx.BuildInstance(inst)
	if err := val.Err(); err != nil {
		return cue.Value{}, fmt.Errorf("failed to build CUE value: %w", err)
	}

	return val, nil
}

// LoadFromFile loads configuration from a file or directory into the specified type.
//
// Examples:
//
//	cfg, err := LoadFromFile[ServerConfig]("srle.yaml")
//	cfg, err := LoadFromFile[ServerConfig]("./config")  // loads .cue directory
func LoadFromFile[T any](path string) (*T, error) {
	val, err := LoadValue(path)
	if err != nil {
		return nil, err
	}

	var config T
	if err := val.Decode(&config); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}

	return &config, nil
}

// LoadAndUnifyPaths loads every file matching the given glob patterns and
// unifies them into one CUE value. Patterns may start with "~/". Patterns
// that match nothing are skipped, so a list of optional locations can be
// passed. Conflicting values across files are an error. With no files at
// all the result is an empty struct.
func LoadAndUnifyPaths(patterns []string) (cue.Value, error) {
	ctx := cuecontext.New()
	result := ctx.CompileString("{}")

	for _, pattern := range patterns {
		expanded, err := expandHome(pattern)
		if err != nil {
			return cue.Value{}, err
		}

		matches, err := filepath.Glob(expanded)
		if err != nil {
			return cue.Value{}, fmt.Errorf("invalid config pattern %q: %w", pattern, err)
		}
		sort.Strings(matches)

		for _, path := range matches {
			val, err := loadValue(ctx, path)
			if err != nil {
				return cue.Value{}, fmt.Errorf("%s: %w", path, err)
			}
			result = result.Unify(val)
			if err := result.Validate(); err != nil {
				return cue.Value{}, fmt.Errorf("config conflict in %s: %w", path, err)
			}
		}
	}

	return result, nil
}

func expandHome(path string) (string, error) {
	rest, ok := strings.CutPrefix(path, "~/")
	if !ok {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to expand %q: %w", path, err)
	}
	return filepath.Join(home, rest), nil
}
