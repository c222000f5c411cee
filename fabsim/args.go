package fabsim

import (
	"strconv"
	"strings"
)

// equalPlaceholder replaces "=" in values the remote tool would otherwise
// read as a key/value delimiter.
const equalPlaceholder = "replace_equal"

// EscapeFilename rewrites every "=" in name to the placeholder token
// understood by the remote verification command.
func EscapeFilename(name string) string {
	return strings.ReplaceAll(name, "=", equalPlaceholder)
}

// UnescapeFilename reverses EscapeFilename.
func UnescapeFilename(name string) string {
	return strings.ReplaceAll(name, equalPlaceholder, "=")
}

// Args builds the argument string of a remote command:
//
//	<config>,key1=value1,key2=value2
//
// Keys are emitted in the order they were set.
type Args struct {
	config string
	keys   []string
	values map[string]string
}

// NewArgs returns an argument list starting with the given config ID.
func NewArgs(config string) *Args {
	return &Args{config: config, values: map[string]string{}}
}

// Set sets key to value. Setting an existing key replaces its value
// and keeps its position.
func (a *Args) Set(key, value string) *Args {
	if _, ok := a.values[key]; !ok {
		a.keys = append(a.keys, key)
	}
	a.values[key] = value
	return a
}

// SetInt sets key to the decimal representation of v.
func (a *Args) SetInt(key string, v int) *Args {
	return a.Set(key, strconv.Itoa(v))
}

// SetBool sets key to "True" or "False", the spelling the remote tool parses.
func (a *Args) SetBool(key string, v bool) *Args {
	if v {
		return a.Set(key, "True")
	}
	return a.Set(key, "False")
}

// String renders the argument list.
func (a *Args) String() string {
	parts := make([]string, 0, len(a.keys)+1)
	if a.config != "" {
		parts = append(parts, a.config)
	}
	for _, k := range a.keys {
		parts = append(parts, k+"="+a.values[k])
	}
	return strings.Join(parts, ",")
}
