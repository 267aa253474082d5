package domain

import (
	"regexp"
	"strings"

	"github.com/miekg/dns"
	"github.com/pkg/errors"
)

var validLabelRegex = regexp.MustCompile(`^[a-zA-Z0-9]([a-zA-Z0-9-]{0,61}[a-zA-Z0-9])?$`)

// NormalizeZoneName lower-cases name and strips a trailing dot.
func NormalizeZoneName(name string) string {
	return strings.TrimSuffix(strings.ToLower(strings.TrimSpace(name)), ".")
}

// ValidateZoneName checks that name (already normalized) is a usable zone name.
// The root zone is rejected since it cannot be backed by a db.<domain> file.
func ValidateZoneName(name string) error {
	if name == "" {
		return errors.Wrap(ErrInvalidInput, "zone name cannot be empty")
	}
	if len(name) > 253 {
		return errors.Wrap(ErrInvalidInput, "zone name exceeds 253 characters")
	}

	for _, label := range strings.Split(name, ".") {
		if label == "" {
			return errors.Wrap(ErrInvalidInput, "zone name contains empty label")
		}
		if len(label) > 63 {
			return errors.Wrapf(ErrInvalidInput, "label '%s' exceeds 63 characters", label)
		}
		if !validLabelRegex.MatchString(label) {
			return errors.Wrapf(ErrInvalidInput, "label '%s' contains invalid characters or format", label)
		}
	}
	return nil
}

// ValidateAddRecord checks an add-record request and returns the normalized zone name.
// The rendered record line must parse as a resource record under the zone origin,
// so that the name-server daemon keeps loading the zone after the append.
func ValidateAddRecord(req AddRecordRequest) (string, error) {
	if req.Domain == "" || req.Type == "" || req.Name == "" || req.Value == "" {
		return "", errors.Wrap(ErrInvalidInput, "domain, type, name and value are required")
	}
	if !req.Type.IsMutable() {
		return "", errors.Wrapf(ErrInvalidInput, "record type %q is not supported", req.Type)
	}

	zone := NormalizeZoneName(req.Domain)
	if err := ValidateZoneName(zone); err != nil {
		return "", err
	}
	if err := singleLine("name", req.Name); err != nil {
		return "", err
	}
	if err := singleLine("value", req.Value); err != nil {
		return "", err
	}
	if strings.ContainsAny(req.Name, " \t;") {
		return "", errors.Wrap(ErrInvalidInput, "name must be a single owner name")
	}

	rec := Record{Name: req.Name, Type: req.Type, Value: req.Value}
	zp := dns.NewZoneParser(strings.NewReader(rec.Line()), dns.Fqdn(zone), "")
	rr, ok := zp.Next()
	if err := zp.Err(); err != nil {
		return "", errors.Wrapf(ErrInvalidInput, "record does not parse: %v", err)
	}
	if !ok || rr == nil {
		return "", errors.Wrap(ErrInvalidInput, "record does not parse")
	}
	if dns.TypeToString[rr.Header().Rrtype] != string(req.Type) {
		return "", errors.Wrapf(ErrInvalidInput, "record parsed as %s, want %s",
			dns.TypeToString[rr.Header().Rrtype], req.Type)
	}
	return zone, nil
}

// ValidateDeleteRecord checks a delete-record request and returns the normalized zone name.
func ValidateDeleteRecord(req DeleteRecordRequest) (string, error) {
	if req.Domain == "" || req.Name == "" {
		return "", errors.Wrap(ErrInvalidInput, "domain and name are required")
	}
	zone := NormalizeZoneName(req.Domain)
	if err := ValidateZoneName(zone); err != nil {
		return "", err
	}
	if err := singleLine("name", req.Name); err != nil {
		return "", err
	}
	return zone, nil
}

func singleLine(field, v string) error {
	if strings.ContainsAny(v, "\r\n") {
		return errors.Wrapf(ErrInvalidInput, "%s must not contain line breaks", field)
	}
	return nil
}
