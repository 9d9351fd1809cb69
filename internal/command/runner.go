// Package command is the boundary to the underlying git binary. It knows how
// to spawn one named operation against a working directory and capture what
// came back; it has no knowledge of repository semantics.
package command

import (
	"bytes"
	"os/exec"
	"strings"

	"go.uber.org/zap"

	"keel/internal/errors"
)

// Result captures one invocation of the underlying tool. Immutable value.
type Result struct {
	ExitCode int
	Stdout   string
	Stderr   string
}

// Ok reports whether the invocation exited zero.
func (r Result) Ok() bool {
	return r.ExitCode == 0
}

// Output returns stdout, falling back to stderr when stdout is empty. Used
// for diagnostics on failed invocations.
func (r Result) Output() string {
	if s := strings.TrimSpace(r.Stdout); s != "" {
		return s
	}
	return strings.TrimSpace(r.Stderr)
}

// Runner executes a named git operation with an ordered argument list in the
// given working directory. A non-zero exit is reported through the Result,
// not the error; the error is reserved for failures to run the tool at all.
type Runner interface {
	Run(dir string, op string, args ...string) (Result, error)
}

// ExecRunner runs operations through the git command-line tool.
type ExecRunner struct {
	gitPath string
	logger  *zap.Logger
}

func NewExecRunner(logger *zap.Logger) *ExecRunner {
	return NewExecRunnerWithPath("git", logger)
}

func NewExecRunnerWithPath(gitPath string, logger *zap.Logger) *ExecRunner {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ExecRunner{
		gitPath: gitPath,
		logger:  logger,
	}
}

func (r *ExecRunner) Run(dir string, op string, args ...string) (Result, error) {
	cmd := exec.Command(r.gitPath, append([]string{op}, args...)...)
	if dir != "" {
		cmd.Dir = dir
	}

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	res := Result{
		Stdout: stdout.String(),
		Stderr: stderr.String(),
	}

	if err != nil {
		if exitErr, ok := err.(*exec.ExitError); ok {
			res.ExitCode = exitErr.ExitCode()
		} else {
			// The tool could not be started at all.
			return res, errors.Environment("running "+r.gitPath+" "+op, err)
		}
	}

	r.logger.Debug("ran git operation",
		zap.String("op", op),
		zap.Strings("args", args),
		zap.String("dir", dir),
		zap.Int("exit_code", res.ExitCode))

	return res, nil
}
