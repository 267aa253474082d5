// Package master reads the BIND master files written by zonectl (RFC 1035 syntax).
package master

import (
	"bufio"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/poyrazK/zonectl/internal/core/domain"
)

// Reader turns zone file text into records. It understands $ORIGIN, $TTL,
// parenthesised continuation lines, comments and blank owner names; nothing else.
type Reader struct {
	Origin     string
	DefaultTTL int
}

// NewReader creates a Reader for the zone rooted at origin.
func NewReader(origin string) *Reader {
	if origin != "" && !strings.HasSuffix(origin, ".") {
		origin += "."
	}
	return &Reader{
		Origin:     origin,
		DefaultTTL: 86400,
	}
}

// Read parses every record in r. Owner names are returned fully qualified.
func (p *Reader) Read(r io.Reader) ([]domain.Record, error) {
	scanner := bufio.NewScanner(r)
	buf := make([]byte, 64*1024)
	scanner.Buffer(buf, 1024*1024)

	var (
		records     []domain.Record
		lastName    string
		inParen     bool
		parenLines  []string
		continuesRR bool
	)

	for scanner.Scan() {
		line := stripComment(scanner.Text())

		if !inParen {
			if strings.TrimSpace(line) == "" {
				continue
			}
			continuesRR = line[0] == ' ' || line[0] == '\t'

			if strings.Contains(line, "(") {
				inParen = true
				parenLines = append(parenLines, strings.Replace(line, "(", " ", 1))
				if !strings.Contains(line, ")") {
					continue
				}
			}
		} else {
			parenLines = append(parenLines, line)
			if !strings.Contains(line, ")") {
				continue
			}
			inParen = false
		}

		full := line
		if len(parenLines) > 0 {
			full = strings.ReplaceAll(strings.Join(parenLines, " "), ")", " ")
			parenLines = nil
		}

		fields := strings.Fields(full)
		if len(fields) == 0 {
			continue
		}

		if strings.HasPrefix(fields[0], "$") {
			p.directive(fields)
			continue
		}

		name := lastName
		if !continuesRR {
			name = p.qualify(fields[0])
			fields = fields[1:]
			lastName = name
		}

		rec, ok := p.record(name, fields)
		if ok {
			records = append(records, rec)
		}
	}

	return records, scanner.Err()
}

func (p *Reader) directive(fields []string) {
	if len(fields) < 2 {
		return
	}
	switch strings.ToUpper(fields[0]) {
	case "$ORIGIN":
		p.Origin = fields[1]
		if !strings.HasSuffix(p.Origin, ".") {
			p.Origin += "."
		}
	case "$TTL":
		if ttl, err := strconv.Atoi(fields[1]); err == nil {
			p.DefaultTTL = ttl
		}
	}
}

func (p *Reader) record(name string, fields []string) (domain.Record, bool) {
	ttl := p.DefaultTTL
	for i, f := range fields {
		if val, err := strconv.Atoi(f); err == nil {
			ttl = val
			continue
		}
		switch strings.ToUpper(f) {
		case "IN", "CS", "CH", "HS":
			continue
		}
		if name == "" {
			return domain.Record{}, false
		}
		return domain.Record{
			Name:  name,
			Type:  domain.RecordType(strings.ToUpper(f)),
			Value: strings.Join(fields[i+1:], " "),
			TTL:   ttl,
		}, true
	}
	return domain.Record{}, false
}

func (p *Reader) qualify(name string) string {
	switch {
	case name == "@":
		return p.Origin
	case strings.HasSuffix(name, "."), p.Origin == "":
		return name
	default:
		return name + "." + p.Origin
	}
}

// stripComment drops a ';' comment that is not inside a quoted string.
func stripComment(line string) string {
	quoted := false
	for i := 0; i < len(line); i++ {
		switch line[i] {
		case '"':
			quoted = !quoted
		case ';':
			if !quoted {
				return line[:i]
			}
		}
	}
	return line
}

// CompareNamesCanonically orders names per RFC 4034 Section 6.1.
func CompareNamesCanonically(a, b string) int {
	a = strings.TrimSuffix(strings.ToLower(a), ".")
	b = strings.TrimSuffix(strings.ToLower(b), ".")

	if a == b {
		return 0
	}
	if a == "" {
		return -1
	}
	if b == "" {
		return 1
	}

	aLabels := strings.Split(a, ".")
	bLabels := strings.Split(b, ".")

	i := len(aLabels) - 1
	j := len(bLabels) - 1
	for i >= 0 && j >= 0 {
		if aLabels[i] < bLabels[j] {
			return -1
		}
		if aLabels[i] > bLabels[j] {
			return 1
		}
		i--
		j--
	}

	if len(aLabels) < len(bLabels) {
		return -1
	}
	if len(aLabels) > len(bLabels) {
		return 1
	}
	return 0
}

// SortRecordsCanonically sorts records by owner name, then type.
func SortRecordsCanonically(records []domain.Record) {
	sort.SliceStable(records, func(i, j int) bool {
		cmp := CompareNamesCanonically(records[i].Name, records[j].Name)
		if cmp == 0 {
			return records[i].Type < records[j].Type
		}
		return cmp < 0
	})
}
