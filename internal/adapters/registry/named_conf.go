// Package registry appends zone declarations to the name server's named.conf.
package registry

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"regexp"
	"sync"

	"github.com/pkg/errors"

	"github.com/poyrazK/zonectl/internal/core/domain"
)

var zoneDecl = regexp.MustCompile(`^\s*zone\s+"([^"]+)"`)

// NamedConf implements ports.Registry on a BIND named.conf style file.
// The file is append-only: zones are never updated or removed.
type NamedConf struct {
	path  string
	mu    sync.Mutex
	write func(f *os.File, s string) (int, error)
}

// NewNamedConf creates a registry backed by the file at path.
func NewNamedConf(path string) *NamedConf {
	return &NamedConf{path: path, write: (*os.File).WriteString}
}

// Register appends a master zone block for zone. It does not check for an
// existing declaration; callers register a zone only when they create its file.
// A failed write is truncated away so no partial block is left behind.
func (r *NamedConf) Register(ctx context.Context, zone string, file string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	block := fmt.Sprintf("\nzone \"%s\" {\n    type master;\n    file \"%s\";\n};\n", zone, file)

	r.mu.Lock()
	defer r.mu.Unlock()

	f, err := os.OpenFile(r.path, os.O_WRONLY|os.O_APPEND|os.O_CREATE, 0o644)
	if err != nil {
		return errors.Wrapf(domain.ErrIOFailure, "open %s: %v", r.path, err)
	}
	defer f.Close()

	unlock, err := lockFile(f)
	if err != nil {
		return errors.Wrapf(domain.ErrIOFailure, "lock %s: %v", r.path, err)
	}
	defer unlock()

	offset, err := f.Seek(0, io.SeekEnd)
	if err != nil {
		return errors.Wrapf(domain.ErrIOFailure, "seek %s: %v", r.path, err)
	}

	if _, err := r.write(f, block); err != nil {
		if terr := f.Truncate(offset); terr != nil {
			return errors.Wrapf(domain.ErrIOFailure, "write %s: %v (truncate: %v)", r.path, err, terr)
		}
		return errors.Wrapf(domain.ErrIOFailure, "write %s: %v", r.path, err)
	}
	return nil
}

// Zones lists the zone names declared in the file, in order of appearance.
func (r *NamedConf) Zones(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	f, err := os.Open(r.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, errors.Wrapf(domain.ErrIOFailure, "open %s: %v", r.path, err)
	}
	defer f.Close()

	var zones []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		if m := zoneDecl.FindStringSubmatch(sc.Text()); m != nil {
			zones = append(zones, m[1])
		}
	}
	if err := sc.Err(); err != nil {
		return nil, errors.Wrapf(domain.ErrIOFailure, "read %s: %v", r.path, err)
	}
	return zones, nil
}
