// Package lookup queries a name server for a zone on behalf of check_record.
package lookup

import (
	"bytes"
	"context"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"github.com/poyrazK/zonectl/internal/core/domain"
)

// commandExecutor allows mocking exec.Command for testing
type commandExecutor interface {
	Run(ctx context.Context, name string, arg ...string) (stdout, stderr []byte, err error)
}

type realExecutor struct{}

func (e *realExecutor) Run(ctx context.Context, name string, arg ...string) ([]byte, []byte, error) {
	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, name, arg...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	err := cmd.Run()
	return stdout.Bytes(), stderr.Bytes(), err
}

// Dig implements ports.Lookup with the dig utility: "dig @server -p port domain".
type Dig struct {
	path     string
	server   string
	port     int
	timeout  time.Duration
	executor commandExecutor
}

// NewDig creates a Dig lookup. An empty path runs "dig" from PATH.
func NewDig(path, server string, port int, timeout time.Duration) *Dig {
	if path == "" {
		path = "dig"
	}
	return &Dig{
		path:     path,
		server:   server,
		port:     port,
		timeout:  timeout,
		executor: &realExecutor{},
	}
}

// Query returns dig's standard output. A non-zero exit yields a
// *domain.LookupError carrying dig's standard error, or its standard output
// when stderr is empty.
func (d *Dig) Query(ctx context.Context, zone string) (string, error) {
	if d.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d.timeout)
		defer cancel()
	}

	args := []string{"@" + d.server}
	if d.port > 0 {
		args = append(args, "-p", strconv.Itoa(d.port))
	}
	args = append(args, zone)

	out, stderr, err := d.executor.Run(ctx, d.path, args...)
	if err != nil {
		details := strings.TrimSpace(string(stderr))
		if details == "" {
			details = strings.TrimSpace(string(out))
		}
		if details == "" {
			details = err.Error()
		}
		return "", &domain.LookupError{Domain: zone, Details: details}
	}
	return string(out), nil
}
