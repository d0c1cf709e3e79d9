// Package notice defines the closed set of notification categories recorded
// in the notification history.
package notice

import (
	"fmt"
	"sort"
)

// Type is a notice category. The zero value is Unknown and is never
// recognized by any Set.
type Type int

const (
	Unknown Type = iota
	LowBattery
	HighUsage
	DataAvailable
	ExportComplete
	ExportFailed
	InsertFailed
	MissingReadings
)

// names holds the stored representation of each Type. These strings are
// persisted in NotificationHistory.notificationType and must not change.
var names = map[Type]string{
	LowBattery:      "LowBattery",
	HighUsage:       "HighUsage",
	DataAvailable:   "DataAvailable",
	ExportComplete:  "ExportComplete",
	ExportFailed:    "ExportFailed",
	InsertFailed:    "InsertFailed",
	MissingReadings: "MissingReadings",
}

var byName = func() map[string]Type {
	m := make(map[string]Type, len(names))
	for t, n := range names {
		m[n] = t
	}
	return m
}()

// String returns the stored name, or "" for Unknown and out-of-range values.
func (t Type) String() string {
	return names[t]
}

// Valid reports whether t is a member of the enumeration.
func (t Type) Valid() bool {
	_, ok := names[t]
	return ok
}

// Parse maps a stored name back to its Type.
func Parse(s string) (Type, error) {
	t, ok := byName[s]
	if !ok {
		return Unknown, fmt.Errorf("unrecognized notice type %q", s)
	}
	return t, nil
}

// Set is an immutable set of recognized notice types.
type Set struct {
	members map[Type]struct{}
}

// NewSet returns a Set holding the valid members of types.
func NewSet(types ...Type) Set {
	m := make(map[Type]struct{}, len(types))
	for _, t := range types {
		if t.Valid() {
			m[t] = struct{}{}
		}
	}
	return Set{members: m}
}

// All returns a Set containing every defined Type.
func All() Set {
	types := make([]Type, 0, len(names))
	for t := range names {
		types = append(types, t)
	}
	return NewSet(types...)
}

// Contains reports whether t belongs to s.
func (s Set) Contains(t Type) bool {
	_, ok := s.members[t]
	return ok
}

// Len returns the number of members.
func (s Set) Len() int { return len(s.members) }

// Types returns the members in declaration order.
func (s Set) Types() []Type {
	out := make([]Type, 0, len(s.members))
	for t := range s.members {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// MarshalText encodes t as its stored name.
func (t Type) MarshalText() ([]byte, error) {
	if !t.Valid() {
		return nil, fmt.Errorf("cannot encode notice type %d", int(t))
	}
	return []byte(t.String()), nil
}

// UnmarshalText decodes a stored name.
func (t *Type) UnmarshalText(b []byte) error {
	parsed, err := Parse(string(b))
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}
