package config

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"cuelang.org/go/cue"
	"github.com/alecthomas/kong"
)

// Resolver supplies kong flag values from a CUE value.
//
// A flag is looked up under the name of the command it belongs to first,
// then at the top level:
//
//	escape: "0xFA"      # every command
//	decode:
//	  escape: 27        # only "srle decode"
//
// Flag names are tried as written and with "-" replaced by "_", so
// --buffer-size can be set as buffer-size or buffer_size.
type Resolver struct {
	val cue.Value
}

var _ kong.Resolver = (*Resolver)(nil)

// NewResolver creates a resolver over val.
func NewResolver(val cue.Value) *Resolver {
	return &Resolver{val: val}
}

// Loader is a kong.ConfigurationLoader for YAML, JSON and CUE content.
//
//	kong.Parse(&cli, kong.Configuration(config.Loader, "~/.config/srle/srle.yaml"))
func Loader(r io.Reader) (kong.Resolver, error) {
	val, err := LoadValueFromReader(r)
	if err != nil {
		return nil, err
	}
	return NewResolver(val), nil
}

// Validate implements kong.Resolver.
func (r *Resolver) Validate(app *kong.Application) error {
	return nil
}

// Resolve implements kong.Resolver.
func (r *Resolver) Resolve(kctx *kong.Context, parent *kong.Path, flag *kong.Flag) (any, error) {
	var scopes [][]string
	if parent != nil && parent.Command != nil {
		scopes = append(scopes, commandPath(parent.Command))
	}
	scopes = append(scopes, nil)

	for _, scope := range scopes {
		for _, name := range flagNames(flag.Name) {
			v, ok := r.lookup(append(scope, name))
			if !ok {
				continue
			}
			s, err := scalar(v)
			if err != nil {
				return nil, fmt.Errorf("config %s: %w", strings.Join(append(scope, name), "."), err)
			}
			return s, nil
		}
	}
	return nil, nil
}

func (r *Resolver) lookup(path []string) (cue.Value, bool) {
	selectors := make([]cue.Selector, len(path))
	for i, p := range path {
		selectors[i] = cue.Str(p)
	}
	v := r.val.LookupPath(cue.MakePath(selectors...))
	if !v.Exists() {
		return cue.Value{}, false
	}
	return v, true
}

// commandPath returns the names of cmd and its parent commands, outermost first.
func commandPath(cmd *kong.Command) []string {
	var names []string
	for n := cmd; n != nil && n.Type == kong.CommandNode; n = n.Parent {
		names = append([]string{n.Name}, names...)
	}
	return names
}

func flagNames(name string) []string {
	snake := strings.ReplaceAll(name, "-", "_")
	if snake == name {
		return []string{name}
	}
	return []string{name, snake}
}

// scalar renders a concrete CUE scalar as the string kong would have
// received on the command line.
func scalar(v cue.Value) (string, error) {
	switch v.IncompleteKind() {
	case cue.StringKind:
		return v.String()
	case cue.BoolKind:
		b, err := v.Bool()
		if err != nil {
			return "", err
		}
		return strconv.FormatBool(b), nil
	case cue.IntKind:
		i, err := v.Int64()
		if err != nil {
			return "", err
		}
		return strconv.FormatInt(i, 10), nil
	case cue.FloatKind, cue.NumberKind:
		f, err := v.Float64()
		if err != nil {
			return "", err
		}
		return strconv.FormatFloat(f, 'f', -1, 64), nil
	default:
		return "", fmt.Errorf("unsupported value kind %s", v.IncompleteKind())
	}
}
