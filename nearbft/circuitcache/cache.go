// Package circuitcache caches compiled CircuitData keyed by shape dimensions
// (preimage length in bits, validator-set size, …): the cache supports
// concurrent readers, and writers ensure a single build per key.
//
// This generalizes a load-once-circuit pattern to a keyed cache using
// golang-lru/v2 for concurrent-safe storage and golang.org/x/sync/singleflight
// so concurrent misses for the same shape compile exactly once.
package circuitcache

import (
	"fmt"

	"github.com/consensys/gnark-crypto/ecc"
	"github.com/consensys/gnark/constraint"
	"github.com/consensys/gnark/frontend"
	"github.com/consensys/gnark/frontend/cs/r1cs"
	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/sync/singleflight"
)

// Shape identifies a unique compiled-circuit configuration. Circuit kinds in
// this repository vary along at most a handful of integer dimensions
// (message/preimage length, validator count, signer count, aggregation
// width), so Shape packs them into one comparable struct usable as a map
// key.
type Shape struct {
	Kind string
	A, B int
}

func (s Shape) String() string {
	return fmt.Sprintf("%s(%d,%d)", s.Kind, s.A, s.B)
}

// Entry bundles everything needed to prove/verify against a compiled shape.
type Entry struct {
	CCS   constraint.ConstraintSystem
	Curve ecc.ID
}

// Cache is a concurrent CircuitData cache keyed by Shape, single-flighted
// per key so a burst of concurrent requests for the same never-before-built
// shape triggers exactly one compile.
type Cache struct {
	lru     *lru.Cache[Shape, *Entry]
	flight  singleflight.Group
}

// New builds a Cache holding up to size distinct shapes.
func New(size int) (*Cache, error) {
	l, err := lru.New[Shape, *Entry](size)
	if err != nil {
		return nil, fmt.Errorf("circuitcache: %w", err)
	}
	return &Cache{lru: l}, nil
}

// GetOrBuild returns the cached Entry for shape, compiling it from circuit if
// absent. Concurrent calls for the same shape share one build.
func (c *Cache) GetOrBuild(shape Shape, curve ecc.ID, circuit frontend.Circuit) (*Entry, error) {
	if e, ok := c.lru.Get(shape); ok {
		return e, nil
	}

	v, err, _ := c.flight.Do(shape.String(), func() (any, error) {
		if e, ok := c.lru.Get(shape); ok {
			return e, nil
		}
		ccs, err := frontend.Compile(curve.ScalarField(), r1cs.NewBuilder, circuit)
		if err != nil {
			return nil, fmt.Errorf("circuitcache: compile %s: %w", shape, err)
		}
		e := &Entry{CCS: ccs, Curve: curve}
		c.lru.Add(shape, e)
		return e, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*Entry), nil
}

// Len reports the number of distinct shapes currently cached.
func (c *Cache) Len() int { return c.lru.Len() }
