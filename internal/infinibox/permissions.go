// Copyright 2016 Infinidat
// Licensed under the Apache License, Version 2.0, see LICENCE file for details.

package infinibox

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/juju/collections/set"
	"github.com/juju/errors"
)

// AccessMode is the access granted to an NFS export client.
type AccessMode string

const (
	AccessRO AccessMode = "RO"
	AccessRW AccessMode = "RW"
)

// ParseAccessMode interprets an access mode string, in any case.
func ParseAccessMode(s string) (AccessMode, error) {
	switch mode := AccessMode(strings.ToUpper(s)); mode {
	case AccessRO, AccessRW:
		return mode, nil
	}
	return "", errors.NotValidf("access mode %q", s)
}

// Permission grants one client of an NFS export access to it. Client is
// an IP address, an IP range ("10.0.0.1-10.0.0.20") or "*" for all
// hosts.
type Permission struct {
	Client       string     `json:"client" yaml:"client"`
	Access       AccessMode `json:"access" yaml:"access"`
	NoRootSquash bool       `json:"no_root_squash" yaml:"no_root_squash"`
}

func (p Permission) key() string {
	return fmt.Sprintf("%s|%s|%t", p.Client, p.Access, p.NoRootSquash)
}

// PermissionSet holds the client permissions of an export. Insertion
// order is preserved for the wire, but comparison treats the entries as
// an unordered set and collapses duplicates.
type PermissionSet struct {
	entries []Permission
}

// NewPermissionSet builds a PermissionSet from the given entries.
func NewPermissionSet(entries ...Permission) PermissionSet {
	s := PermissionSet{entries: make([]Permission, len(entries))}
	copy(s.entries, entries)
	return s
}

// Entries returns a copy of the entries in insertion order.
func (s PermissionSet) Entries() []Permission {
	entries := make([]Permission, len(s.entries))
	copy(entries, s.entries)
	return entries
}

// Len returns the number of entries, duplicates included.
func (s PermissionSet) Len() int {
	return len(s.entries)
}

func (s PermissionSet) keys() set.Strings {
	keys := set.NewStrings()
	for _, e := range s.entries {
		keys.Add(e.key())
	}
	return keys
}

// Equals reports whether both sets contain exactly the same entries,
// compared by full field tuple, regardless of order or duplication.
func (s PermissionSet) Equals(other PermissionSet) bool {
	a, b := s.keys(), other.keys()
	return a.Size() == b.Size() && a.Difference(b).IsEmpty()
}

// Upsert overwrites the access fields of every entry with the given
// client key, or appends a new entry when the key is absent. It reports
// whether anything changed.
func (s *PermissionSet) Upsert(client string, access AccessMode, noRootSquash bool) bool {
	found, changed := false, false
	for i := range s.entries {
		if s.entries[i].Client != client {
			continue
		}
		found = true
		if s.entries[i].Access != access {
			s.entries[i].Access = access
			changed = true
		}
		if s.entries[i].NoRootSquash != noRootSquash {
			s.entries[i].NoRootSquash = noRootSquash
			changed = true
		}
	}
	if !found {
		s.entries = append(s.entries, Permission{
			Client:       client,
			Access:       access,
			NoRootSquash: noRootSquash,
		})
		return true
	}
	return changed
}

// Remove drops every entry with the given client key and reports
// whether any were dropped.
func (s *PermissionSet) Remove(client string) bool {
	kept := s.entries[:0]
	for _, e := range s.entries {
		if e.Client != client {
			kept = append(kept, e)
		}
	}
	removed := len(kept) != len(s.entries)
	s.entries = kept
	return removed
}

// MarshalJSON implements json.Marshaler, rendering the set as the plain
// entry list the array expects.
func (s PermissionSet) MarshalJSON() ([]byte, error) {
	if s.entries == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(s.entries)
}

// UnmarshalJSON implements json.Unmarshaler.
func (s *PermissionSet) UnmarshalJSON(data []byte) error {
	var entries []Permission
	if err := json.Unmarshal(data, &entries); err != nil {
		return errors.Trace(err)
	}
	s.entries = entries
	return nil
}
