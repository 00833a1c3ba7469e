package model

import (
	"encoding/json"
	"fmt"
)

// Assembly owns the beams of a model and hands out stable integer keys.
// Joints hold beam keys, not owning references, and re-resolve them
// through the assembly after a serialization round-trip.
type Assembly struct {
	beams   []*Beam
	byKey   map[int]*Beam
	nextKey int
}

// NewAssembly creates an empty assembly.
func NewAssembly() *Assembly {
	return &Assembly{byKey: make(map[int]*Beam)}
}

// AddBeam registers a beam and assigns it the next free key.
func (a *Assembly) AddBeam(b *Beam) int {
	b.Key = a.nextKey
	a.nextKey++
	a.beams = append(a.beams, b)
	a.byKey[b.Key] = b
	return b.Key
}

// FindByKey returns the beam with the given key, or nil.
func (a *Assembly) FindByKey(key int) *Beam {
	return a.byKey[key]
}

// Beams returns the beams in insertion order.
func (a *Assembly) Beams() []*Beam {
	return a.beams
}

// Len returns the number of beams.
func (a *Assembly) Len() int { return len(a.beams) }

type assemblyJSON struct {
	Beams   []*Beam `json:"beams"`
	NextKey int     `json:"next_key"`
}

// MarshalJSON serializes the assembly with its beams in order.
func (a *Assembly) MarshalJSON() ([]byte, error) {
	return json.Marshal(assemblyJSON{Beams: a.beams, NextKey: a.nextKey})
}

// UnmarshalJSON restores an assembly serialized by MarshalJSON.
func (a *Assembly) UnmarshalJSON(data []byte) error {
	var aj assemblyJSON
	if err := json.Unmarshal(data, &aj); err != nil {
		return err
	}
	a.beams = aj.Beams
	a.nextKey = aj.NextKey
	a.byKey = make(map[int]*Beam, len(aj.Beams))
	for _, b := range aj.Beams {
		if _, dup := a.byKey[b.Key]; dup {
			return fmt.Errorf("duplicate beam key %d", b.Key)
		}
		a.byKey[b.Key] = b
	}
	return nil
}
