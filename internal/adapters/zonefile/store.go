// Package zonefile stores zones as BIND master files, one db.<zone> file per zone.
//
// The store does no locking of its own; callers serialize operations on the
// same zone. Every mutation reads the whole file, transforms it in memory and
// rewrites it in place (truncate + write), so a crash in the middle of a write
// can leave a truncated file behind.
package zonefile

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/poyrazK/zonectl/internal/config"
	"github.com/poyrazK/zonectl/internal/core/domain"
	"github.com/poyrazK/zonectl/internal/core/services"
	"github.com/poyrazK/zonectl/internal/dns/master"
)

var serialRegex = regexp.MustCompile(`\d{10}`)

// Store implements ports.ZoneStore on a directory of zone files.
type Store struct {
	cfg config.Zone
	now func() time.Time
}

// NewStore creates a Store for the zone directory in cfg.
func NewStore(cfg config.Zone) *Store {
	return &Store{cfg: cfg, now: time.Now}
}

// WithClock replaces the clock used for serial numbers.
func (s *Store) WithClock(now func() time.Time) *Store {
	s.now = now
	return s
}

// Path returns the zone file backing zone.
func (s *Store) Path(zone string) string {
	return filepath.Join(s.cfg.Dir, "db."+zone)
}

func (s *Store) Exists(ctx context.Context, zone string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	_, err := os.Stat(s.Path(zone))
	if err == nil {
		return true, nil
	}
	if os.IsNotExist(err) {
		return false, nil
	}
	return false, ioFailure("stat", s.Path(zone), err)
}

// Create writes the initial zone file. It fails with ErrAlreadyExists if the file is present.
func (s *Store) Create(ctx context.Context, zone string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	var buf bytes.Buffer
	err := zoneTemplate.Execute(&buf, templateData{
		Zone:       zone,
		TTL:        s.cfg.TTL,
		Hostmaster: s.cfg.Hostmaster,
		Serial:     placeholderSerial,
		Refresh:    s.cfg.Refresh,
		Retry:      s.cfg.Retry,
		Expire:     s.cfg.Expire,
		Minimum:    s.cfg.Minimum,
		NS1:        s.nameserver(0),
		NS2:        s.nameserver(1),
	})
	if err != nil {
		return errors.Wrap(err, "render zone template")
	}

	path := s.Path(zone)
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, s.mode())
	if err != nil {
		if os.IsExist(err) {
			return errors.Wrapf(domain.ErrAlreadyExists, "zone %s", zone)
		}
		return ioFailure("create", path, err)
	}

	if _, err := f.Write(buf.Bytes()); err != nil {
		_ = f.Close()
		_ = os.Remove(path)
		return ioFailure("write", path, err)
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(path)
		return ioFailure("close", path, err)
	}
	return nil
}

// Discard removes a zone file. It only undoes a Create whose registration failed.
func (s *Store) Discard(ctx context.Context, zone string) error {
	if err := os.Remove(s.Path(zone)); err != nil && !os.IsNotExist(err) {
		return ioFailure("remove", s.Path(zone), err)
	}
	return nil
}

// AppendRecord adds one "<name> IN <type> <value>" line at the end of the zone file.
func (s *Store) AppendRecord(ctx context.Context, zone string, record domain.Record) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	path := s.Path(zone)
	f, err := os.OpenFile(path, os.O_RDWR|os.O_APPEND, 0)
	if err != nil {
		if os.IsNotExist(err) {
			return errors.Wrapf(domain.ErrNotFound, "zone %s", zone)
		}
		return ioFailure("open", path, err)
	}
	defer f.Close()

	line := record.Line() + "\n"
	if missing, err := missingTrailingNewline(f); err != nil {
		return ioFailure("read", path, err)
	} else if missing {
		line = "\n" + line
	}

	if _, err := f.WriteString(line); err != nil {
		return ioFailure("write", path, err)
	}
	return nil
}

// RemoveRecord drops the lines matching name and returns how many were dropped.
// Zero dropped lines is not an error. In substring mode any line containing name
// goes, including lines where name only occurs in the value. The zone is left
// untouched if a matching line belongs to the SOA record.
func (s *Store) RemoveRecord(ctx context.Context, zone string, name string) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	lines, err := s.readLines(zone)
	if err != nil {
		return 0, err
	}
	first, last, err := soaBlock(lines)
	if err != nil {
		return 0, errors.Wrapf(err, "zone %s", zone)
	}

	kept := make([]string, 0, len(lines))
	for i, line := range lines {
		if !s.matches(line, name) {
			kept = append(kept, line)
			continue
		}
		if i >= first && i <= last {
			return 0, errors.Wrapf(domain.ErrInvalidInput,
				"deleting %q would remove part of the SOA record of zone %s", name, zone)
		}
	}

	removed := len(lines) - len(kept)
	if removed == 0 {
		return 0, nil
	}

	if err := s.writeLines(zone, kept); err != nil {
		return 0, err
	}
	return removed, nil
}

// BumpSerial rewrites the SOA serial with the next serial and returns it.
func (s *Store) BumpSerial(ctx context.Context, zone string) (uint64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	lines, err := s.readLines(zone)
	if err != nil {
		return 0, err
	}

	idx, loc, err := findSerial(lines)
	if err != nil {
		return 0, errors.Wrapf(err, "zone %s", zone)
	}

	line := lines[idx]
	current, err := strconv.ParseUint(line[loc[0]:loc[1]], 10, 64)
	if err != nil {
		return 0, errors.Wrapf(domain.ErrMalformedZone, "zone %s: serial %q", zone, line[loc[0]:loc[1]])
	}

	next := services.NextSerial(current, s.now())
	lines[idx] = line[:loc[0]] + strconv.FormatUint(next, 10) + line[loc[1]:]

	if err := s.writeLines(zone, lines); err != nil {
		return 0, err
	}
	return next, nil
}

// Records parses the zone file. Owner names are fully qualified.
func (s *Store) Records(ctx context.Context, zone string) ([]domain.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	path := s.Path(zone)
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Wrapf(domain.ErrNotFound, "zone %s", zone)
		}
		return nil, ioFailure("open", path, err)
	}
	defer f.Close()

	records, err := master.NewReader(zone).Read(f)
	if err != nil {
		return nil, ioFailure("read", path, err)
	}
	return records, nil
}

func (s *Store) matches(line, name string) bool {
	if s.cfg.DeleteMatch != config.MatchField {
		return strings.Contains(line, name)
	}

	fields := strings.Fields(line)
	if len(fields) == 0 || line[0] == ' ' || line[0] == '\t' {
		return false
	}
	return strings.EqualFold(fields[0], name)
}

func (s *Store) readLines(zone string) ([]string, error) {
	path := s.Path(zone)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Wrapf(domain.ErrNotFound, "zone %s", zone)
		}
		return nil, ioFailure("read", path, err)
	}
	if len(data) == 0 {
		return nil, nil
	}
	return strings.SplitAfter(string(data), "\n"), nil
}

// writeLines truncates the zone file and writes lines back. Lines keep their own endings.
func (s *Store) writeLines(zone string, lines []string) error {
	path := s.Path(zone)
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_TRUNC, 0)
	if err != nil {
		if os.IsNotExist(err) {
			return errors.Wrapf(domain.ErrNotFound, "zone %s", zone)
		}
		return ioFailure("open", path, err)
	}

	if _, err := io.WriteString(f, strings.Join(lines, "")); err != nil {
		_ = f.Close()
		return ioFailure("write", path, err)
	}
	if err := f.Close(); err != nil {
		return ioFailure("close", path, err)
	}
	return nil
}

func (s *Store) nameserver(i int) string {
	if i < len(s.cfg.Nameservers) {
		return s.cfg.Nameservers[i]
	}
	return ""
}

func (s *Store) mode() os.FileMode {
	if s.cfg.FileMode == 0 {
		return 0o644
	}
	return os.FileMode(s.cfg.FileMode)
}

// findSerial locates the serial: the first 10 digit number on the line after
// the first line carrying an SOA token. It returns the line index and the
// byte range of the digits.
func findSerial(lines []string) (int, []int, error) {
	for i, line := range lines {
		if !hasSOAToken(line) {
			continue
		}
		if i+1 >= len(lines) {
			return 0, nil, errors.Wrap(domain.ErrMalformedZone, "no serial line after SOA")
		}
		loc := serialRegex.FindStringIndex(lines[i+1])
		if loc == nil {
			return 0, nil, errors.Wrap(domain.ErrMalformedZone, "no serial number after SOA")
		}
		return i + 1, loc, nil
	}
	return 0, nil, errors.Wrap(domain.ErrMalformedZone, "no SOA record")
}

// soaBlock returns the index range of the SOA record, from the SOA line to the
// line closing its parenthesis (or the serial line when no parenthesis is used).
func soaBlock(lines []string) (int, int, error) {
	idx, _, err := findSerial(lines)
	if err != nil {
		return 0, 0, err
	}
	first := idx - 1
	if !strings.Contains(stripComment(lines[first]), "(") {
		return first, idx, nil
	}
	for i := first; i < len(lines); i++ {
		if strings.Contains(stripComment(lines[i]), ")") {
			return first, i, nil
		}
	}
	return 0, 0, errors.Wrap(domain.ErrMalformedZone, "unterminated SOA record")
}

func stripComment(line string) string {
	if i := strings.IndexByte(line, ';'); i >= 0 {
		return line[:i]
	}
	return line
}

func hasSOAToken(line string) bool {
	for _, f := range strings.Fields(stripComment(line)) {
		if strings.EqualFold(f, "SOA") {
			return true
		}
	}
	return false
}

func missingTrailingNewline(f *os.File) (bool, error) {
	info, err := f.Stat()
	if err != nil {
		return false, err
	}
	if info.Size() == 0 {
		return false, nil
	}
	last := make([]byte, 1)
	if _, err := f.ReadAt(last, info.Size()-1); err != nil {
		return false, err
	}
	return last[0] != '\n', nil
}

func ioFailure(op, path string, err error) error {
	return errors.Wrapf(domain.ErrIOFailure, "%s %s: %v", op, path, err)
}
