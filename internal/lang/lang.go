// Package lang serves the translated strings of the game front end.
package lang

import (
	"embed"
	"fmt"
	"sort"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

// Fallback is used for unknown languages and missing keys.
const Fallback = "en"

//go:embed *.yaml
var bundles embed.FS

// String is one translated string as delivered to clients.
type String struct {
	Key    string `json:"key"`
	String string `json:"string"`
}

var (
	loadOnce sync.Once
	loadErr  error
	tables   map[string]map[string]string
)

func load() {
	tables = make(map[string]map[string]string)
	entries, err := bundles.ReadDir(".")
	if err != nil {
		loadErr = err
		return
	}
	for _, e := range entries {
		raw, err := bundles.ReadFile(e.Name())
		if err != nil {
			loadErr = err
			return
		}
		table := make(map[string]string)
		if err := yaml.Unmarshal(raw, &table); err != nil {
			loadErr = fmt.Errorf("parse %s: %w", e.Name(), err)
			return
		}
		tables[strings.TrimSuffix(e.Name(), ".yaml")] = table
	}
}

// Languages lists the embedded languages.
func Languages() []string {
	loadOnce.Do(load)
	out := make([]string, 0, len(tables))
	for l := range tables {
		out = append(out, l)
	}
	sort.Strings(out)
	return out
}

// Resolve maps a requested language such as "de_ch" or "DE-at" to an embedded one,
// falling back to the base language and then to Fallback.
func Resolve(requested string) string {
	loadOnce.Do(load)
	l := strings.ToLower(strings.ReplaceAll(strings.TrimSpace(requested), "-", "_"))
	if _, ok := tables[l]; ok {
		return l
	}
	if base, _, found := strings.Cut(l, "_"); found {
		if _, ok := tables[base]; ok {
			return base
		}
	}
	return Fallback
}

// Strings returns the full string table of a language sorted by key. Keys missing in
// the language are filled from Fallback.
func Strings(requested string) ([]String, error) {
	loadOnce.Do(load)
	if loadErr != nil {
		return nil, loadErr
	}
	table := tables[Resolve(requested)]
	merged := make(map[string]string, len(tables[Fallback]))
	for k, v := range tables[Fallback] {
		merged[k] = v
	}
	for k, v := range table {
		merged[k] = v
	}

	out := make([]String, 0, len(merged))
	for k, v := range merged {
		out = append(out, String{Key: k, String: v})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out, nil
}
