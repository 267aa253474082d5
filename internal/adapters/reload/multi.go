package reload

import (
	"context"
	"errors"

	"github.com/poyrazK/zonectl/internal/core/ports"
)

// Multi fans a reload out to every reloader and joins their errors.
type Multi []ports.Reloader

func (m Multi) Reload(ctx context.Context, zone string) error {
	var errs []error
	for _, r := range m {
		if err := r.Reload(ctx, zone); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Nop never reloads anything.
type Nop struct{}

func (Nop) Reload(context.Context, string) error { return nil }
