package shell

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/chainguard-dev/clog"
	"github.com/kballard/go-shellquote"
)

// Command describes one external invocation.
type Command struct {
	Name string
	Args []string
	// Env is appended to the inherited environment.
	Env []string
	Dir string
	// Stdin, if set, is fed to the process.
	Stdin io.Reader
	// Privileged commands run through sudo when not already root.
	Privileged bool
	// Timeout bounds the command. Zero means DefaultTimeout.
	Timeout time.Duration
}

// DefaultTimeout bounds a single command.
const DefaultTimeout = 15 * time.Minute

// Runner executes commands.
type Runner interface {
	Run(ctx context.Context, cmd Command) (string, error)
}

// ExecRunner runs commands with os/exec.
type ExecRunner struct {
	// Geteuid is overridable for tests.
	Geteuid func() int
}

// NewExecRunner returns a Runner backed by os/exec.
func NewExecRunner() *ExecRunner {
	return &ExecRunner{Geteuid: os.Geteuid}
}

// Argv returns the full argument vector, including the sudo/env prefix for
// privileged commands run by a non-root user.
func (r *ExecRunner) Argv(cmd Command) []string {
	argv := append([]string{cmd.Name}, cmd.Args...)
	if !cmd.Privileged || r.Geteuid() == 0 {
		return argv
	}
	prefix := []string{"sudo", "-n"}
	if len(cmd.Env) > 0 {
		// sudo resets the environment, env(1) carries it across.
		prefix = append(prefix, "env")
		prefix = append(prefix, cmd.Env...)
	}
	return append(prefix, argv...)
}

// Run executes cmd and returns its combined output.
func (r *ExecRunner) Run(ctx context.Context, cmd Command) (string, error) {
	log := clog.FromContext(ctx)
	argv := r.Argv(cmd)
	display := Display(argv)

	timeout := cmd.Timeout
	if timeout == 0 {
		timeout = DefaultTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	// #nosec G204 - argv is built from fixed capability definitions
	c := exec.CommandContext(ctx, argv[0], argv[1:]...)
	c.Dir = cmd.Dir
	c.Env = append(os.Environ(), cmd.Env...)
	c.Stdin = cmd.Stdin

	var buf bytes.Buffer
	lw := newLineLogger(ctx, argv[0])
	c.Stdout = io.MultiWriter(&buf, lw)
	c.Stderr = io.MultiWriter(&buf, lw)

	log.Debug("running command", "command", display, "dir", cmd.Dir)
	start := time.Now()
	err := c.Run()
	lw.Flush()

	if err != nil {
		return buf.String(), fmt.Errorf("%s failed after %v: %w (%s)",
			display, time.Since(start).Round(time.Millisecond), err, Tail(buf.String(), 3))
	}
	log.Debug("command finished", "command", display, "duration", time.Since(start).Round(time.Millisecond))
	return buf.String(), nil
}

// Display renders argv for logs with secret values masked.
func Display(argv []string) string {
	masked := make([]string, len(argv))
	for i, a := range argv {
		masked[i] = maskSecret(a)
	}
	return shellquote.Join(masked...)
}

func maskSecret(arg string) string {
	k, _, ok := strings.Cut(arg, "=")
	if !ok {
		return arg
	}
	upper := strings.ToUpper(k)
	if strings.Contains(upper, "PASSWORD") || strings.Contains(upper, "SECRET") || strings.Contains(upper, "TOKEN") {
		return k + "=redacted"
	}
	return arg
}

// Tail returns the last n non-empty lines of out joined by " | ".
func Tail(out string, n int) string {
	var lines []string
	for _, l := range strings.Split(out, "\n") {
		if l = strings.TrimSpace(l); l != "" {
			lines = append(lines, l)
		}
	}
	if len(lines) > n {
		lines = lines[len(lines)-n:]
	}
	if len(lines) == 0 {
		return "no output"
	}
	return strings.Join(lines, " | ")
}

// lineLogger writes each complete output line to the run log at DEBUG.
type lineLogger struct {
	ctx    context.Context
	source string
	buf    bytes.Buffer
}

func newLineLogger(ctx context.Context, source string) *lineLogger {
	return &lineLogger{ctx: ctx, source: source}
}

func (l *lineLogger) Write(p []byte) (int, error) {
	l.buf.Write(p)
	for {
		line, err := l.buf.ReadString('\n')
		if err != nil {
			// incomplete line, keep it for the next write
			l.buf.Reset()
			l.buf.WriteString(line)
			return len(p), nil
		}
		l.emit(line)
	}
}

// Flush logs any trailing partial line.
func (l *lineLogger) Flush() {
	if l.buf.Len() > 0 {
		l.emit(l.buf.String())
		l.buf.Reset()
	}
}

func (l *lineLogger) emit(line string) {
	sc := bufio.NewScanner(strings.NewReader(line))
	for sc.Scan() {
		if t := strings.TrimRight(sc.Text(), "\r"); t != "" {
			clog.FromContext(l.ctx).Debug(t, "source", l.source)
		}
	}
}
