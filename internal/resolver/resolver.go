// Package resolver turns a user-supplied repository identifier (a
// registry name or a literal filesystem path) into a validated absolute
// location, or rejects it.
package resolver

import (
	"errors"
	"os"
	"path/filepath"
	"strings"

	"snapview/internal/logging"
	"snapview/internal/registry"
)

// Rejection reasons. Callers render both the same way (known names plus
// a pointer at the listing operation); the distinction is for logs.
var (
	// ErrTraversal means the raw identifier contained a path-traversal
	// pattern and was rejected before any lookup or expansion.
	ErrTraversal = errors.New("identifier contains a path traversal pattern")

	// ErrNotFound means the identifier is neither a known repository
	// name nor an existing absolute path.
	ErrNotFound = errors.New("identifier matched no tracked repository or existing path")
)

// traversalPatterns are matched case-insensitively against the RAW
// identifier, before any `~` expansion or normalization could
// canonicalize an encoded variant into something that looks safe.
// Keep this a single auditable table.
var traversalPatterns = []string{
	"../",
	"..\\",
	"%2e%2e",
	"..%2f",
	"..%5c",
}

// Resolver validates repository identifiers against the registry and
// the filesystem.
type Resolver struct {
	reg *registry.Registry
}

// New returns a Resolver over the given registry.
func New(reg *registry.Registry) *Resolver {
	return &Resolver{reg: reg}
}

// Resolve maps an identifier to an absolute location.
//
// Order matters and each step short-circuits:
//  1. traversal screen on the raw string
//  2. exact registry lookup (the registry is trusted as-is; the
//     execution layer re-checks the snapshot-store marker)
//  3. literal-path acceptance: expand `~`, normalize, require absolute
//     and existing
//  4. otherwise reject
func (r *Resolver) Resolve(identifier string) (string, error) {
	identifier = strings.TrimSpace(identifier)
	if identifier == "" {
		return "", ErrNotFound
	}

	if containsTraversal(identifier) {
		logging.Warn("Rejected identifier with traversal pattern", "identifier", identifier)
		return "", ErrTraversal
	}

	if loc, ok := r.reg.Lookup(identifier); ok {
		logging.Debug("Resolved registry name", "name", identifier, "location", loc)
		return loc, nil
	}

	if looksLikePath(identifier) {
		expanded := filepath.Clean(ExpandPath(identifier))
		if !filepath.IsAbs(expanded) {
			return "", ErrNotFound
		}
		info, err := os.Stat(expanded)
		if err != nil || !info.IsDir() {
			return "", ErrNotFound
		}
		logging.Debug("Resolved literal path", "identifier", identifier, "location", expanded)
		return expanded, nil
	}

	return "", ErrNotFound
}

// containsTraversal screens the raw, unexpanded identifier.
func containsTraversal(identifier string) bool {
	lower := strings.ToLower(identifier)
	for _, pattern := range traversalPatterns {
		if strings.Contains(lower, pattern) {
			return true
		}
	}
	return false
}

// looksLikePath reports whether the identifier should be treated as a
// literal filesystem path rather than a repository name: absolute unix
// paths, `~` shortcuts, Windows drive-letter paths, and UNC prefixes.
func looksLikePath(identifier string) bool {
	if strings.HasPrefix(identifier, "/") || strings.HasPrefix(identifier, "~") {
		return true
	}
	if strings.HasPrefix(identifier, `\\`) {
		return true
	}
	if len(identifier) >= 2 && identifier[1] == ':' && isASCIILetter(identifier[0]) {
		return true
	}
	return false
}

func isASCIILetter(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

// ExpandPath expands a path that starts with "~" to the user's home
// directory. Anything else comes back unchanged.
func ExpandPath(path string) string {
	if path == "~" {
		if home, err := os.UserHomeDir(); err == nil {
			return home
		}
		return path
	}
	if strings.HasPrefix(path, "~/") || strings.HasPrefix(path, `~\`) {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, path[2:])
		}
	}
	return path
}
