// Package registry loads the snapshot tool's repository registry.
//
// The registry is an external, read-only data source: a JSON array of
// {name, path} objects written by the snapview CLI. It is loaded once at
// startup and never mutated afterwards; picking up new repositories
// requires a process restart.
package registry

import (
	"encoding/json"
	"os"
	"sort"

	"snapview/internal/logging"
)

// Entry is one tracked repository: a display name and the absolute
// filesystem location snapview recorded for it.
type Entry struct {
	Name     string `json:"name"`
	Location string `json:"path"`
}

// Registry is the immutable name → location table.
type Registry struct {
	byName map[string]string
}

// Load reads the JSON registry at path. A missing or malformed file is
// not an error: snapview may simply not have tracked anything yet, so
// the result is an empty registry and the process keeps going.
func Load(path string) *Registry {
	r := &Registry{byName: map[string]string{}}

	data, err := os.ReadFile(path)
	if err != nil {
		logging.Debug("Registry source not readable, starting empty", "path", path, "error", err)
		return r
	}

	var entries []Entry
	if err := json.Unmarshal(data, &entries); err != nil {
		logging.Warn("Registry source malformed, starting empty", "path", path, "error", err)
		return r
	}

	// Single pass; duplicate names are last-write-wins.
	for _, e := range entries {
		if e.Name == "" {
			continue
		}
		r.byName[e.Name] = e.Location
	}

	logging.Info("Registry loaded", "path", path, "repos", len(r.byName))
	return r
}

// Lookup returns the registered location for an exact name match.
func (r *Registry) Lookup(name string) (string, bool) {
	loc, ok := r.byName[name]
	return loc, ok
}

// List returns every entry, sorted by name for stable display output.
func (r *Registry) List() []Entry {
	entries := make([]Entry, 0, len(r.byName))
	for name, loc := range r.byName {
		entries = append(entries, Entry{Name: name, Location: loc})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name < entries[j].Name })
	return entries
}

// Names returns just the repository names, sorted. Used for error text
// that must not leak filesystem layout.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.byName))
	for name := range r.byName {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Len reports how many repositories are tracked.
func (r *Registry) Len() int {
	return len(r.byName)
}
