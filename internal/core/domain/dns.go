// Package domain contains the core entities and rules for zonectl.
package domain

import (
	"fmt"
	"time"
)

// RecordType represents the type of a DNS record (e.g., A, MX).
type RecordType string

const (
	// TypeA represents an IPv4 address record.
	TypeA RecordType = "A"
	// TypeCNAME represents a canonical name record.
	TypeCNAME RecordType = "CNAME"
	// TypeMX represents a mail exchange record.
	TypeMX RecordType = "MX"
	// TypeTXT represents a text record.
	TypeTXT RecordType = "TXT"
	// TypeNS represents a name server record.
	TypeNS RecordType = "NS"
	// TypeSOA represents a start of authority record.
	TypeSOA RecordType = "SOA"
)

// MutableTypes lists the record types clients may add through zonectl.
var MutableTypes = []RecordType{TypeA, TypeCNAME, TypeMX, TypeTXT}

// IsMutable reports whether clients may add records of type t.
func (t RecordType) IsMutable() bool {
	for _, m := range MutableTypes {
		if t == m {
			return true
		}
	}
	return false
}

// Zone is one authoritative zone backed by a zone file and a registry entry.
type Zone struct {
	Name string `json:"name"` // e.g., example.com
	File string `json:"file"` // e.g., /etc/bind/zones/db.example.com
}

// Record represents a DNS resource record within a zone.
type Record struct {
	Name  string     `json:"name"`
	Type  RecordType `json:"type"`
	Value string     `json:"value"`
	TTL   int        `json:"ttl,omitempty"`
}

// Line renders the record the way it is appended to a zone file.
func (r Record) Line() string {
	return fmt.Sprintf("%s IN %s %s", r.Name, r.Type, r.Value)
}

// Change actions recorded in the journal.
const (
	ActionAdd    = "ADD"
	ActionDelete = "DELETE"
)

// ZoneChange is a journal entry written after every successful mutation.
type ZoneChange struct {
	ID        string     `json:"id"`
	Zone      string     `json:"zone"`
	Serial    uint64     `json:"serial"`
	Action    string     `json:"action"` // "ADD" or "DELETE"
	Name      string     `json:"name"`
	Type      RecordType `json:"type,omitempty"`
	Value     string     `json:"value,omitempty"`
	Removed   int        `json:"removed"`
	CreatedAt time.Time  `json:"created_at"`
}

// AddRecordRequest carries the fields of an add-record operation.
type AddRecordRequest struct {
	Domain string     `json:"domain"`
	Type   RecordType `json:"type"`
	Name   string     `json:"name"`
	Value  string     `json:"value"`
}

// DeleteRecordRequest carries the fields of a delete-record operation.
type DeleteRecordRequest struct {
	Domain string `json:"domain"`
	Name   string `json:"name"`
}

// MutationResult describes the outcome of a successful add or delete.
type MutationResult struct {
	Zone    string `json:"zone"`
	Serial  uint64 `json:"serial"`
	Created bool   `json:"created,omitempty"`
	Removed int    `json:"removed"`
}
