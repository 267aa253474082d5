// Package reload tells the name-server daemon that a zone changed.
package reload

import (
	"context"
	"os/exec"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// commandExecutor allows mocking exec.Command for testing
type commandExecutor interface {
	Run(ctx context.Context, name string, arg ...string) ([]byte, error)
}

type realExecutor struct{}

func (e *realExecutor) Run(ctx context.Context, name string, arg ...string) ([]byte, error) {
	return exec.CommandContext(ctx, name, arg...).CombinedOutput()
}

// Exec implements ports.Reloader by running an external command with the
// zone name appended, e.g. "/entrypoint.sh reload_bind example.com".
type Exec struct {
	command  []string
	timeout  time.Duration
	executor commandExecutor
	logger   *zerolog.Logger
}

// NewExec initializes a reloader for command. A zero timeout means no timeout.
func NewExec(command []string, timeout time.Duration, logger *zerolog.Logger) *Exec {
	if logger == nil {
		logger = &log.Logger
	}
	return &Exec{
		command:  command,
		timeout:  timeout,
		executor: &realExecutor{},
		logger:   logger,
	}
}

// Reload runs the reload command for zone.
func (e *Exec) Reload(ctx context.Context, zone string) error {
	if len(e.command) == 0 {
		return errors.New("reload command is empty")
	}

	if e.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.timeout)
		defer cancel()
	}

	args := append(append([]string{}, e.command[1:]...), zone)
	start := time.Now()
	out, err := e.executor.Run(ctx, e.command[0], args...)
	if err != nil {
		return errors.Wrapf(err, "%s: %s", strings.Join(append([]string{e.command[0]}, args...), " "),
			strings.TrimSpace(string(out)))
	}

	e.logger.Debug().
		Str("zone", zone).
		Dur("took", time.Since(start)).
		Str("output", strings.TrimSpace(string(out))).
		Msg("reload command finished")
	return nil
}
