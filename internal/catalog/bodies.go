// Package catalog holds the compiled-in body records and J2000 orbital elements.
//
// Both tables are fixed-size arrays indexed by BodyID. The length assertions
// below fail to compile if a body is added to the enumeration without a
// matching record in each table.
package catalog

import (
	"errors"
	"fmt"
	"strings"
)

// BodyID identifies a cataloged body.
type BodyID uint8

const (
	Sun BodyID = iota
	Mercury
	Venus
	Earth
	Mars
	Jupiter
	Saturn
	Uranus
	Neptune

	numBodies
)

// ErrUnknownBody is returned when text does not name a cataloged body.
var ErrUnknownBody = errors.New("unknown body")

var bodyNames = [...]string{
	Sun:     "sun",
	Mercury: "mercury",
	Venus:   "venus",
	Earth:   "earth",
	Mars:    "mars",
	Jupiter: "jupiter",
	Saturn:  "saturn",
	Uranus:  "uranus",
	Neptune: "neptune",
}

// Compile-time exhaustiveness: every table has exactly numBodies entries.
var (
	_ [int(numBodies) - len(bodyNames)]struct{}
	_ [len(bodyNames) - int(numBodies)]struct{}
	_ [int(numBodies) - len(bodyTable)]struct{}
	_ [len(bodyTable) - int(numBodies)]struct{}
	_ [int(numBodies) - len(elementTable)]struct{}
	_ [len(elementTable) - int(numBodies)]struct{}
)

// All returns every cataloged body in catalog order, central body first.
func All() []BodyID {
	ids := make([]BodyID, numBodies)
	for i := range ids {
		ids[i] = BodyID(i)
	}
	return ids
}

// Valid reports whether id names a cataloged body.
func (id BodyID) Valid() bool {
	return id < numBodies
}

// String returns the lowercase identifier, e.g. "earth".
func (id BodyID) String() string {
	if !id.Valid() {
		return fmt.Sprintf("BodyID(%d)", uint8(id))
	}
	return bodyNames[id]
}

// MarshalText encodes the identifier as its name.
func (id BodyID) MarshalText() ([]byte, error) {
	if !id.Valid() {
		return nil, fmt.Errorf("marshal body %d: %w", uint8(id), ErrUnknownBody)
	}
	return []byte(bodyNames[id]), nil
}

// UnmarshalText decodes a body name.
func (id *BodyID) UnmarshalText(text []byte) error {
	parsed, err := ParseBodyID(string(text))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}

// ParseBodyID resolves a case-insensitive body name from untrusted input.
func ParseBodyID(s string) (BodyID, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	for i, n := range bodyNames {
		if n == name {
			return BodyID(i), nil
		}
	}
	return 0, fmt.Errorf("%q: %w", s, ErrUnknownBody)
}

// Get returns the display record for id. It panics if id is not cataloged:
// an invalid identifier inside the core is a programming error.
func Get(id BodyID) Body {
	if !id.Valid() {
		panic(fmt.Sprintf("catalog: unknown body %d", uint8(id)))
	}
	return bodyTable[id]
}

// ElementsOf returns the orbital elements for id. It panics if id is not
// cataloged.
func ElementsOf(id BodyID) Elements {
	if !id.Valid() {
		panic(fmt.Sprintf("catalog: no elements for body %d", uint8(id)))
	}
	return elementTable[id]
}
