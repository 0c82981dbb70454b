package transcode

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"

	"github.com/mgpai22/comcut/internal/logging"
)

// outcome of one external process
type Result struct {
	Stdout   string
	Stderr   string
	ExitCode int
}

// Runner executes argv[0] with argv[1:]. A process that runs and exits
// nonzero is reported through Result.ExitCode with a nil error; the error is
// for processes that could not be started or were interrupted.
type Runner interface {
	Run(ctx context.Context, argv []string) (Result, error)
}

// runs commands with os/exec, optionally under nice
type ExecRunner struct {
	Nice string // nice executable; empty runs commands directly
	Log  *logging.Logger
}

func NewExecRunner(nice string, log *logging.Logger) *ExecRunner {
	if log == nil {
		log = logging.Nop()
	}
	return &ExecRunner{Nice: nice, Log: log.Named("tool")}
}

func (r *ExecRunner) Run(ctx context.Context, argv []string) (Result, error) {
	if len(argv) == 0 {
		return Result{ExitCode: -1}, errors.New("empty command")
	}
	if r.Nice != "" {
		argv = append([]string{r.Nice}, argv...)
	}

	r.Log.Debugw("Executing", "command", strings.Join(argv, " "))

	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	res := Result{Stdout: stdout.String(), Stderr: stderr.String(), ExitCode: 0}

	if res.Stdout != "" {
		r.Log.Debugw("stdout", "tool", argv[0], "output", res.Stdout)
	}
	if res.Stderr != "" {
		r.Log.Debugw("stderr", "tool", argv[0], "output", res.Stderr)
	}

	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) && ctx.Err() == nil {
			res.ExitCode = exitErr.ExitCode()
			return res, nil
		}
		res.ExitCode = -1
		if ctx.Err() != nil {
			return res, ctx.Err()
		}
		return res, fmt.Errorf("failed to run %s: %w", argv[0], err)
	}

	return res, nil
}

// Check runs argv and converts a failure into an *ExternalToolError tagged
// with stage.
func Check(ctx context.Context, r Runner, stage string, argv []string) error {
	if len(argv) == 0 {
		return &ExternalToolError{Stage: stage, ExitCode: -1, Err: errors.New("empty command")}
	}

	res, err := r.Run(ctx, argv)
	if err != nil {
		return &ExternalToolError{Tool: argv[0], Stage: stage, ExitCode: -1, Stderr: res.Stderr, Err: err}
	}
	if res.ExitCode != 0 {
		return &ExternalToolError{Tool: argv[0], Stage: stage, ExitCode: res.ExitCode, Stderr: res.Stderr}
	}
	return nil
}
