package authorize

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAuthorize_AllowedReadCommands(t *testing.T) {
	tests := []string{
		"log",
		"log --oneline -n 10",
		"log --graph --decorate",
		"shortlog -sn",
		"diff",
		"diff HEAD~1 HEAD",
		"diff --stat",
		"show HEAD",
		"show --name-only HEAD",
		"blame README.md",
		"annotate main.go",
		"grep TODO",
		"status --short",
		"rev-parse HEAD",
		"rev-list --count HEAD",
		"ls-files",
		"ls-tree -r HEAD",
		"cat-file -p 4b825dc",
		"describe",
		"name-rev HEAD",
		"count-objects -v",
		"reflog",
	}

	for _, cmd := range tests {
		t.Run(cmd, func(t *testing.T) {
			v := Authorize(cmd)
			assert.True(t, v.Allowed, "expected allow, got denial: %s", v.Reason)
			assert.Equal(t, cmd, v.Sanitized)
		})
	}
}

func TestAuthorize_DisallowedSubcommands(t *testing.T) {
	tests := []string{
		"commit -m 'oops'",
		"push origin main",
		"checkout main",
		"pull",
		"fetch --all",
		"branch new-branch",
		"tag v1.0",
		"notarealsubcommand",
		"Log --oneline", // allow-list is exact; git subcommands are lowercase
	}

	for _, cmd := range tests {
		t.Run(cmd, func(t *testing.T) {
			v := Authorize(cmd)
			assert.False(t, v.Allowed)
			assert.NotEmpty(t, v.Reason)
		})
	}
}

// TestAuthorize_DenyListScansWholeString: a blocked token anywhere in
// the string denies the command even when the leading subcommand is
// allow-listed.
func TestAuthorize_DenyListScansWholeString(t *testing.T) {
	tests := []struct {
		name string
		cmd  string
	}{
		{"chained push", "diff push origin"},
		{"exec flag", "log --exec=rm -rf /"},
		{"semicolon chain", "log --oneline; git push origin main"},
		{"git-dir escape", "log --git-dir=/somewhere/else/.git"},
		{"work-tree escape", "status --work-tree=/etc"},
		{"config injection", "log -c core.pager=evil"},
		{"chdir override", "grep -C /tmp secret"},
		{"upload pack", "ls-files --upload-pack=/bin/sh"},
		{"reflog expire", "reflog expire --all"},
		{"uppercase smuggling", "log FETCH_HEAD && git PUSH"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := Authorize(tt.cmd)
			assert.False(t, v.Allowed, "expected denial for %q", tt.cmd)
		})
	}
}

func TestAuthorize_DenialEchoesAllowList(t *testing.T) {
	v := Authorize("frobnicate")

	assert.False(t, v.Allowed)
	for _, sub := range []string{"log", "diff", "show", "blame", "grep", "status"} {
		assert.Contains(t, v.Reason, sub)
	}
}

func TestAuthorize_ControlCharactersStripped(t *testing.T) {
	v := Authorize("log\x00\x01 --oneline")

	assert.True(t, v.Allowed, "denied: %s", v.Reason)
	assert.Equal(t, "log --oneline", v.Sanitized)
}

func TestAuthorize_LengthBoundBeforeParsing(t *testing.T) {
	// Even an otherwise-allowed subcommand is denied on pure length.
	cmd := "log " + strings.Repeat("a", MaxCommandLength)

	v := Authorize(cmd)

	assert.False(t, v.Allowed)
	assert.Contains(t, v.Reason, "maximum length")
	// The denial must come from the length check, not the allow-list.
	assert.NotContains(t, v.Reason, "not allowed")
}

func TestAuthorize_EmptyCommand(t *testing.T) {
	for _, cmd := range []string{"", "   ", "\x00\x01", "\x1f"} {
		v := Authorize(cmd)
		assert.False(t, v.Allowed, "expected denial for %q", cmd)
	}
}

func TestStripControl(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"nulls and low control codes", "log\x00\x01 --oneline", "log --oneline"},
		{"vertical tab and form feed", "diff\x0b\x0c HEAD", "diff HEAD"},
		{"delete byte", "show\x7f HEAD", "show HEAD"},
		{"tab and newline survive", "log\t--oneline\n", "log\t--oneline\n"},
		{"carriage return survives", "log\r", "log\r"},
		{"clean string untouched", "status --short", "status --short"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, StripControl(tt.input))
		})
	}
}

func TestSubcommand(t *testing.T) {
	assert.Equal(t, "log", Subcommand("log --oneline"))
	assert.Equal(t, "diff", Subcommand("  diff\tHEAD"))
	assert.Equal(t, "", Subcommand("   "))
}

func TestAllowedSubcommands_SortedAndReadOnly(t *testing.T) {
	subs := AllowedSubcommands()

	assert.True(t, sortedStrings(subs))
	for _, mutating := range []string{"commit", "push", "checkout", "merge", "rebase"} {
		assert.NotContains(t, subs, mutating)
	}
}

func sortedStrings(s []string) bool {
	for i := 1; i < len(s); i++ {
		if s[i-1] > s[i] {
			return false
		}
	}
	return true
}
