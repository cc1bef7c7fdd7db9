// Package authorize decides whether a user-supplied git command string
// is safe to execute against a snapshot store.
//
// The gate is deliberately coarse: a fixed allow-list of read-only
// subcommands for the leading token, and a fixed deny-list scanned by
// substring containment over the whole command string. Containment (not
// token-boundary matching) catches mutating subcommands smuggled in via
// chaining or flag values, at the cost of the occasional false denial.
// Do not "upgrade" this to a tokenizer.
package authorize

import (
	"fmt"
	"sort"
	"strings"
)

// MaxCommandLength bounds the raw command string before any parsing.
const MaxCommandLength = 1024

// Verdict is the binary outcome of authorization. There is no partial
// allow: a denied command is never sanitized into an allowed one.
type Verdict struct {
	Allowed bool
	// Reason explains a denial in text meant for the calling assistant.
	Reason string
	// Sanitized is the control-stripped command string. Execution must
	// use this, never the raw input. Only meaningful when Allowed.
	Sanitized string
}

// allowedSubcommands is the full set of read-only git subcommands this
// server will run. Everything else is denied.
var allowedSubcommands = map[string]bool{
	"log":           true,
	"shortlog":      true,
	"reflog":        true,
	"diff":          true,
	"show":          true,
	"blame":         true,
	"annotate":      true,
	"grep":          true,
	"status":        true,
	"rev-parse":     true,
	"rev-list":      true,
	"ls-files":      true,
	"ls-tree":       true,
	"cat-file":      true,
	"describe":      true,
	"name-rev":      true,
	"count-objects": true,
	"var":           true,
}

// deniedTokens is scanned by substring containment over the whole
// (sanitized, lowercased) command string. A hit anywhere denies the
// command, even when the leading subcommand is allow-listed. Single
// auditable table; add new dangerous tokens here.
var deniedTokens = []string{
	// state-mutating subcommands, chained or not
	"checkout",
	"switch",
	"restore",
	"add",
	"commit",
	"push",
	"pull",
	"fetch",
	"merge",
	"rebase",
	"reset",
	"revert",
	"cherry-pick",
	"clean",
	"clone",
	"init",
	"stash",
	"remote",
	"submodule",
	"worktree",
	"tag -",
	"branch -",
	// history rewriting and object pruning
	"filter-branch",
	"fast-import",
	"update-ref",
	"symbolic-ref",
	"reflog expire",
	"reflog delete",
	"gc",
	"prune",
	// escalation flags: redirect the repo, run programs, inject config
	"--git-dir",
	"--work-tree",
	"--exec",
	"--upload-pack",
	"--receive-pack",
	"-c ", // the scan lowercases first, so this also catches -C (chdir override)
	"config",
	"daemon",
}

// Authorize runs the full gate over a raw command string. Checks are
// ordered and each one short-circuits:
//
//  1. length bound on the raw input
//  2. control-character strip (the result is what gets executed)
//  3. first whitespace-delimited token must be allow-listed
//  4. deny-list substring scan over the whole string
func Authorize(raw string) Verdict {
	if len(raw) > MaxCommandLength {
		return deny(fmt.Sprintf("command exceeds maximum length of %d characters", MaxCommandLength))
	}

	sanitized := StripControl(raw)

	fields := strings.Fields(sanitized)
	if len(fields) == 0 {
		return deny("empty command; expected a git subcommand such as 'log --oneline'")
	}
	sub := fields[0]

	if !allowedSubcommands[sub] {
		return deny(fmt.Sprintf(
			"subcommand %q is not allowed; this server only runs read-only git commands: %s",
			sub, strings.Join(AllowedSubcommands(), ", ")))
	}

	lower := strings.ToLower(sanitized)
	for _, token := range deniedTokens {
		if strings.Contains(lower, token) {
			return deny(fmt.Sprintf("command contains the blocked token %q", token))
		}
	}

	return Verdict{Allowed: true, Sanitized: sanitized}
}

func deny(reason string) Verdict {
	return Verdict{Allowed: false, Reason: reason}
}

// StripControl removes control bytes (0x00-0x08, 0x0B-0x0C, 0x0E-0x1F,
// 0x7F) from s. Tab, newline and carriage return survive as ordinary
// whitespace.
func StripControl(s string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r <= 0x08:
			return -1
		case r == 0x0B || r == 0x0C:
			return -1
		case r >= 0x0E && r <= 0x1F:
			return -1
		case r == 0x7F:
			return -1
		}
		return r
	}, s)
}

// Subcommand returns the first whitespace-delimited token of a command
// string, or "" for a blank string.
func Subcommand(s string) string {
	fields := strings.Fields(s)
	if len(fields) == 0 {
		return ""
	}
	return fields[0]
}

// AllowedSubcommands returns the allow-list, sorted, for denial messages
// and tool descriptions.
func AllowedSubcommands() []string {
	subs := make([]string, 0, len(allowedSubcommands))
	for sub := range allowedSubcommands {
		subs = append(subs, sub)
	}
	sort.Strings(subs)
	return subs
}
