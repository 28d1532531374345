// Package runner hands control off to the downstream command. The original
// deployment replaced its own process image; spawning the child with
// inherited stdio and mirroring its exit code preserves the same observable
// contract on targets where process replacement is unavailable.
package runner

import (
	"context"
	"errors"
	"os"
	"os/exec"
)

// StartFailureCode is reported when the command cannot be started at all,
// matching the shell convention for a missing command.
const StartFailureCode = 127

// Run executes name with args, wiring the child to this process's
// stdin/stdout/stderr, and returns the child's exit code. A nonzero exit of
// the child is not an error here; the code is the result the caller should
// exit with.
func Run(ctx context.Context, name string, args ...string) (int, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	if err := cmd.Start(); err != nil {
		return StartFailureCode, err
	}

	err := cmd.Wait()
	if err == nil {
		return 0, nil
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.ExitCode(), nil
	}
	return 1, err
}
