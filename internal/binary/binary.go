package binary

import (
	"bytes"
	"context"
	"io"
	"os/exec"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

// waitDelay bounds how long Wait keeps copying output after the child was
// killed, in case a grandchild still holds the pipes open.
const waitDelay = 2 * time.Second

// Run runs binaryName with args until it exits or ctx is done. Stdout and
// stderr are captured; stderr is additionally copied to relay when it is not
// nil. The captured buffers are returned even when err is not nil.
//
// When ctx ends first the child's process group is killed and ctx.Err() is
// returned. A binary that cannot be found yields an error wrapping
// exec.ErrNotFound, a non-zero exit an *exec.ExitError.
func Run(ctx context.Context, binaryName string, args []string, relay io.Writer) (*bytes.Buffer, *bytes.Buffer, error) {

	var stdout bytes.Buffer
	var stderr bytes.Buffer

	binaryPath, err := exec.LookPath(binaryName)
	if err != nil {
		return &stdout, &stderr, err
	}

	cmd := exec.CommandContext(ctx, binaryPath, args...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if relay != nil {
		cmd.Stderr = io.MultiWriter(&stderr, relay)
	}
	cmd.WaitDelay = waitDelay
	setProcessGroup(cmd)

	log.Debug().Str("binary", binaryPath).Strs("args", args).Msg("starting child process")

	err = cmd.Start()
	if err != nil {
		return &stdout, &stderr, err
	}

	err = cmd.Wait()
	if ctxErr := ctx.Err(); ctxErr != nil {
		log.Debug().Str("binary", binaryPath).Err(ctxErr).Msg("child process stopped by context")
		return &stdout, &stderr, ctxErr
	}
	if err != nil {
		return &stdout, &stderr, err
	}
	return &stdout, &stderr, nil
}

// ExitCode returns the exit status carried by err, or -1 if err does not
// describe an exited process.
func ExitCode(err error) int {
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.ExitCode()
	}
	return -1
}
