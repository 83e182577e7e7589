// Copyright 2016 Infinidat
// Licensed under the Apache License, Version 2.0, see LICENCE file for details.

// Package capacity represents storage capacities as byte counts, parsed
// from the human-readable strings the Infinibox tooling uses ("10TB",
// "512GiB"). Decimal units are powers of 1000 and binary units powers
// of 1024, matching the array's own accounting.
package capacity

import (
	"strings"
	"unicode"

	"github.com/dustin/go-humanize"
	"github.com/juju/errors"
)

// Value is a storage capacity in bytes.
type Value uint64

// Common alignment boundaries used by the Infinibox.
const (
	KiB Value = 1 << 10
	MiB Value = 1 << 20
	GiB Value = 1 << 30
	TiB Value = 1 << 40
)

// Parse interprets a capacity string of the form <number><unit>, where
// unit is one of B, KB/KiB, MB/MiB, GB/GiB, TB/TiB or PB/PiB, in any
// case. Fractional numbers are accepted ("1.5TiB"). A missing or
// unknown unit is an error.
func Parse(s string) (Value, error) {
	t := strings.TrimSpace(s)
	if t == "" || !unicode.IsLetter(rune(t[len(t)-1])) {
		return 0, errors.NotValidf("capacity %q", s)
	}
	n, err := humanize.ParseBytes(t)
	if err != nil {
		return 0, errors.NotValidf("capacity %q", s)
	}
	return Value(n), nil
}

// MustParse is like Parse but panics on invalid input. It is intended
// for constants and tests.
func MustParse(s string) Value {
	v, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return v
}

// RoundUp returns the smallest multiple of align that is not less than
// the value. The alignment must be positive.
func (v Value) RoundUp(align Value) Value {
	if align == 0 {
		panic("capacity: round up to zero alignment")
	}
	if rem := v % align; rem != 0 {
		return v + align - rem
	}
	return v
}

// Bytes returns the value as a plain byte count.
func (v Value) Bytes() uint64 {
	return uint64(v)
}

// String returns an approximate human-readable rendering, suitable for
// logs and command output.
func (v Value) String() string {
	return humanize.IBytes(uint64(v))
}
