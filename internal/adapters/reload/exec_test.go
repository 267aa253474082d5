package reload

import (
	"context"
	"errors"
	"os/exec"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeExecutor struct {
	name string
	args []string
	out  []byte
	err  error
}

func (f *fakeExecutor) Run(ctx context.Context, name string, arg ...string) ([]byte, error) {
	f.name = name
	f.args = arg
	return f.out, f.err
}

func TestExec_Reload(t *testing.T) {
	fake := &fakeExecutor{out: []byte("zone reload up-to-date\n")}
	r := NewExec([]string{"/entrypoint.sh", "reload_bind"}, time.Second, nil)
	r.executor = fake

	require.NoError(t, r.Reload(context.Background(), "example.com"))
	assert.Equal(t, "/entrypoint.sh", fake.name)
	assert.Equal(t, []string{"reload_bind", "example.com"}, fake.args)

	require.NoError(t, r.Reload(context.Background(), "other.test"))
	assert.Equal(t, []string{"reload_bind", "other.test"}, fake.args, "command slice must not be mutated")
}

func TestExec_ReloadFailure(t *testing.T) {
	fake := &fakeExecutor{out: []byte("rndc: connect failed\n"), err: errors.New("exit status 1")}
	r := NewExec([]string{"rndc", "reload"}, 0, nil)
	r.executor = fake

	err := r.Reload(context.Background(), "example.com")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "rndc reload example.com")
	assert.Contains(t, err.Error(), "rndc: connect failed")
}

func TestExec_EmptyCommand(t *testing.T) {
	r := NewExec(nil, time.Second, nil)
	assert.Error(t, r.Reload(context.Background(), "example.com"))
}

func TestExec_RealCommand(t *testing.T) {
	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("sh not available")
	}

	ok := NewExec([]string{"sh", "-c", `test "$0" = example.com`}, 5*time.Second, nil)
	assert.NoError(t, ok.Reload(context.Background(), "example.com"))

	fail := NewExec([]string{"sh", "-c", "echo boom >&2; exit 3"}, 5*time.Second, nil)
	err := fail.Reload(context.Background(), "example.com")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "boom")
}

func TestMulti(t *testing.T) {
	okFake := &fakeExecutor{}
	ok := NewExec([]string{"ok"}, 0, nil)
	ok.executor = okFake

	bad := NewExec([]string{"bad"}, 0, nil)
	bad.executor = &fakeExecutor{err: errors.New("exit status 2")}

	err := Multi{ok, Nop{}, bad}.Reload(context.Background(), "example.com")
	require.Error(t, err)
	assert.Equal(t, []string{"example.com"}, okFake.args, "a failing reloader does not stop the others")

	assert.NoError(t, Multi{Nop{}}.Reload(context.Background(), "example.com"))
}
