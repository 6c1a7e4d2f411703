// Package tools runs the external patch Builder and Installer executables and
// interprets their results.
package tools

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"sync"
	"time"

	"github.com/lyzr/dbpatcher/common/logger"
	"github.com/lyzr/dbpatcher/common/models"
)

var (
	ErrFailedToStart   = errors.New("tool failed to start")
	ErrNonZeroExit     = errors.New("tool exited with non-zero status")
	ErrWaitTimeout     = errors.New("tool did not finish in time")
	ErrMalformedOutput = errors.New("tool produced malformed output")
)

// Installer subcommands
const (
	installCommand = "install"
	checkCommand   = "check"
)

const (
	defaultTimeout   = 30 * time.Second
	defaultWaitDelay = 5 * time.Second
)

// ConnectionInfo is the database address passed to both tools
type ConnectionInfo struct {
	Host     string
	Port     int
	Database string
	User     string
	Password string
}

// String formats the connection as host:port:database:user:password
func (c ConnectionInfo) String() string {
	return fmt.Sprintf("%s:%d:%s:%s:%s", c.Host, c.Port, c.Database, c.User, c.Password)
}

// Options configures an Invoker
type Options struct {
	BuilderPath   string
	InstallerPath string
	TemplatesPath string

	// Timeout bounds each invocation from start to exit
	Timeout time.Duration
	// WaitDelay bounds how long output is drained after the process is killed
	WaitDelay time.Duration

	// Output receives live tool output; nil discards it
	Output io.Writer
	Logger *logger.Logger
}

// Invoker runs the Builder and Installer
type Invoker struct {
	opts Options

	mu            *sync.RWMutex
	templatesPath *string
}

// NewInvoker creates an invoker
func NewInvoker(opts Options) *Invoker {
	if opts.Timeout <= 0 {
		opts.Timeout = defaultTimeout
	}
	if opts.WaitDelay <= 0 {
		opts.WaitDelay = defaultWaitDelay
	}
	if opts.Output == nil {
		opts.Output = io.Discard
	}
	if opts.Logger == nil {
		opts.Logger = logger.NewWithWriter(io.Discard, "error", "text")
	}

	templates := opts.TemplatesPath
	return &Invoker{
		opts:          opts,
		mu:            &sync.RWMutex{},
		templatesPath: &templates,
	}
}

// WithOutput returns an invoker that shares configuration with i but streams
// output to w
func (i *Invoker) WithOutput(w io.Writer) *Invoker {
	clone := *i
	if w == nil {
		w = io.Discard
	}
	clone.opts.Output = w
	return &clone
}

// TemplatesPath returns the templates file handed to the builder
func (i *Invoker) TemplatesPath() string {
	i.mu.RLock()
	defer i.mu.RUnlock()
	return *i.templatesPath
}

// SetTemplatesPath changes the templates file for subsequent builds
func (i *Invoker) SetTemplatesPath(path string) {
	i.mu.Lock()
	defer i.mu.Unlock()
	*i.templatesPath = path
}

// Build runs the builder to produce a patch in patchDir from the list at patchListPath.
// Both stdout and stderr are streamed.
func (i *Invoker) Build(ctx context.Context, conn ConnectionInfo, patchDir, patchListPath string) error {
	args := []string{
		"-d", patchDir,
		"-p", patchListPath,
		"-c", conn.String(),
		"-t", i.TemplatesPath(),
	}

	return i.run(ctx, "build", i.opts.BuilderPath, args, i.opts.Output, i.opts.Output)
}

// Install runs the installer to apply the patch in patchDir. Only stderr is streamed.
func (i *Invoker) Install(ctx context.Context, conn ConnectionInfo, patchDir string) error {
	args := []string{conn.String(), installCommand, patchDir}

	return i.run(ctx, "install", i.opts.InstallerPath, args, nil, i.opts.Output)
}

// CheckDependencies runs the installer check for patchDir and maps its answer
// onto deps, which must be the dependency list written for this check.
func (i *Invoker) CheckDependencies(ctx context.Context, conn ConnectionInfo, patchDir string, deps *models.PatchList) (*models.CheckReport, error) {
	args := []string{conn.String(), checkCommand, patchDir}

	var stdout bytes.Buffer
	if err := i.run(ctx, "check", i.opts.InstallerPath, args, &stdout, i.opts.Output); err != nil {
		return nil, err
	}

	bits, err := DecodeCheckOutput(stdout.Bytes())
	if err != nil {
		return nil, err
	}

	report, err := models.NewCheckReport(deps, bits)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedOutput, err)
	}
	return report, nil
}

// DecodeCheckOutput turns installer check output into one bool per byte.
// Every byte must be '0' or '1'.
func DecodeCheckOutput(out []byte) ([]bool, error) {
	bits := make([]bool, len(out))
	for idx, b := range out {
		switch b {
		case '0':
			bits[idx] = false
		case '1':
			bits[idx] = true
		default:
			return nil, fmt.Errorf("%w: unexpected byte %q at position %d", ErrMalformedOutput, b, idx)
		}
	}
	return bits, nil
}

// run starts program and waits for it. exec.Cmd copies stdout and stderr in
// its own goroutines and Wait returns only after both copies finish, so all
// output has reached the writers when run returns. Cancelling ctx does not
// stop a started tool; only the configured timeout does.
func (i *Invoker) run(ctx context.Context, op, program string, args []string, stdout, stderr io.Writer) error {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), i.opts.Timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, program, args...)
	cmd.Stdout = stdout
	cmd.Stderr = stderr
	cmd.WaitDelay = i.opts.WaitDelay

	log := i.opts.Logger
	start := time.Now()

	if err := cmd.Start(); err != nil {
		log.Warn("tool failed to start", "operation", op, "program", program, "error", err)
		return fmt.Errorf("%w: %s: %v", ErrFailedToStart, program, err)
	}

	log.Info("tool started", "operation", op, "program", program, "pid", cmd.Process.Pid)

	err := cmd.Wait()
	elapsed := time.Since(start)

	if ctx.Err() == context.DeadlineExceeded {
		log.Warn("tool timed out", "operation", op, "program", program, "timeout", i.opts.Timeout)
		return fmt.Errorf("%w: %s after %s", ErrWaitTimeout, program, i.opts.Timeout)
	}

	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			log.Warn("tool failed", "operation", op, "program", program, "exit_code", exitErr.ExitCode())
			return fmt.Errorf("%w: %s exit code %d", ErrNonZeroExit, program, exitErr.ExitCode())
		}
		return fmt.Errorf("%w: %s: %v", ErrNonZeroExit, program, err)
	}

	log.Info("tool finished", "operation", op, "program", program, "duration_ms", elapsed.Milliseconds())
	return nil
}
