// Package gitexec runs authorized git commands against a repository's
// snapshot store.
//
// The git subprocess is pointed at snapview's private store via
// GIT_DIR/GIT_WORK_TREE so read-only queries operate on snapshot
// history without ever touching the user's own repository metadata.
package gitexec

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"snapview/internal/logging"

	"github.com/docker/go-units"
	"github.com/mattn/go-shellwords"
)

// MarkerDir is the private-store directory snapview maintains inside
// every tracked repository. Its absence means the location is not
// tracked, regardless of how it was resolved.
const MarkerDir = ".snapview"

// EmptyOutputPlaceholder is returned instead of an empty string so the
// caller can tell "ran, produced nothing" from a missing response.
const EmptyOutputPlaceholder = "(no output)"

// maxErrorMessage bounds the text of unclassified failures.
const maxErrorMessage = 512

// Kind classifies how an execution ended.
type Kind int

const (
	KindSuccess Kind = iota
	KindNotTracked
	KindBadCommand
	KindExecutableMissing
	KindTimeout
	KindOutputTooLarge
	KindToolError
	KindUnknown
)

// Outcome is the result of one execution. Output carries stdout on
// success; Message carries human-readable failure text otherwise.
type Outcome struct {
	Kind    Kind
	Output  string
	Message string
}

// Text returns whichever of Output/Message applies.
func (o Outcome) Text() string {
	if o.Kind == KindSuccess {
		return o.Output
	}
	return o.Message
}

// absPathPattern matches absolute-path-looking substrings (unix and
// drive-letter forms) for redaction in error text.
var absPathPattern = regexp.MustCompile(`(?:[A-Za-z]:)?[/\\][\w.+~@-]+(?:[/\\][\w.+~@-]+)*`)

// Runner executes git against snapshot stores with a wall-clock timeout
// and a captured-output cap.
type Runner struct {
	GitBinary string
	Timeout   time.Duration
	MaxOutput int64
}

// NewRunner returns a Runner with the given limits.
func NewRunner(gitBinary string, timeout time.Duration, maxOutput int64) *Runner {
	return &Runner{GitBinary: gitBinary, Timeout: timeout, MaxOutput: maxOutput}
}

// IsTracked reports whether location contains the snapshot store marker.
func IsTracked(location string) bool {
	info, err := os.Stat(filepath.Join(location, MarkerDir))
	return err == nil && info.IsDir()
}

// Run executes an already-authorized, already-sanitized command string
// in the snapshot store at location. It never returns an error: every
// failure mode is folded into the Outcome taxonomy.
func (r *Runner) Run(ctx context.Context, command, location string) Outcome {
	if !IsTracked(location) {
		return Outcome{
			Kind: KindNotTracked,
			Message: fmt.Sprintf(
				"this location is not tracked by snapview (no %s store found); run the snapview CLI there first",
				MarkerDir),
		}
	}

	// The verdict was decided on the string; splitting here only
	// shapes the argv and cannot turn a denied command into an
	// allowed one.
	args, err := shellwords.Parse(command)
	if err != nil {
		return Outcome{
			Kind:    KindBadCommand,
			Message: fmt.Sprintf("could not parse command into arguments (unbalanced quotes?): %v", err),
		}
	}
	if len(args) == 0 {
		return Outcome{Kind: KindBadCommand, Message: "empty command after parsing"}
	}

	ctx, cancel := context.WithTimeout(ctx, r.Timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, r.GitBinary, args...)
	cmd.Dir = location
	cmd.Env = constrainedEnv(location)
	cmd.WaitDelay = 2 * time.Second

	stdout := newCappedBuffer(r.MaxOutput, cancel)
	stderr := newCappedBuffer(r.MaxOutput, cancel)
	cmd.Stdout = stdout
	cmd.Stderr = stderr

	start := time.Now()
	runErr := cmd.Run()
	logging.Debug("git executed",
		"args", args,
		"location", location,
		"duration", time.Since(start),
		"error", runErr,
	)

	switch {
	case stdout.overflowed || stderr.overflowed:
		return Outcome{
			Kind: KindOutputTooLarge,
			Message: fmt.Sprintf("output exceeded the %s limit; narrow the query (e.g. add -n or a path filter)",
				units.BytesSize(float64(r.MaxOutput))),
		}

	case runErr != nil && ctx.Err() == context.DeadlineExceeded:
		return Outcome{
			Kind:    KindTimeout,
			Message: fmt.Sprintf("command timed out after %s", r.Timeout),
		}

	case runErr == nil:
		out := stdout.String()
		if strings.TrimSpace(out) == "" {
			out = EmptyOutputPlaceholder
		}
		return Outcome{Kind: KindSuccess, Output: out}
	}

	var execErr *exec.Error
	if errors.As(runErr, &execErr) && errors.Is(execErr.Err, exec.ErrNotFound) {
		return Outcome{
			Kind:    KindExecutableMissing,
			Message: fmt.Sprintf("%s executable not found on PATH", r.GitBinary),
		}
	}

	var exitErr *exec.ExitError
	if errors.As(runErr, &exitErr) {
		return Outcome{
			Kind: KindToolError,
			Message: fmt.Sprintf("git exited with status %d: %s",
				exitErr.ExitCode(), RedactPaths(strings.TrimSpace(stderr.String()))),
		}
	}

	msg := runErr.Error()
	if len(msg) > maxErrorMessage {
		msg = msg[:maxErrorMessage] + "..."
	}
	return Outcome{Kind: KindUnknown, Message: "unexpected execution failure: " + msg}
}

// constrainedEnv strips inherited GIT_* variables and redirects git's
// metadata directory and working tree into the snapshot store.
func constrainedEnv(location string) []string {
	env := make([]string, 0, len(os.Environ())+2)
	for _, kv := range os.Environ() {
		if strings.HasPrefix(kv, "GIT_") {
			continue
		}
		env = append(env, kv)
	}
	env = append(env,
		"GIT_DIR="+filepath.Join(location, MarkerDir),
		"GIT_WORK_TREE="+location,
	)
	return env
}

// RedactPaths replaces absolute-path-looking substrings so error text
// returned to the assistant does not leak filesystem layout.
func RedactPaths(s string) string {
	return absPathPattern.ReplaceAllString(s, "<path>")
}

// cappedBuffer accepts writes up to max bytes, then flags the overflow
// and cancels the subprocess; there is no point letting it stream on.
type cappedBuffer struct {
	buf        bytes.Buffer
	max        int64
	overflowed bool
	cancel     context.CancelFunc
}

func newCappedBuffer(max int64, cancel context.CancelFunc) *cappedBuffer {
	return &cappedBuffer{max: max, cancel: cancel}
}

func (b *cappedBuffer) Write(p []byte) (int, error) {
	if b.overflowed {
		return len(p), nil
	}
	room := b.max - int64(b.buf.Len())
	if int64(len(p)) > room {
		b.buf.Write(p[:room])
		b.overflowed = true
		b.cancel()
		return len(p), nil
	}
	return b.buf.Write(p)
}

func (b *cappedBuffer) String() string {
	return b.buf.String()
}
