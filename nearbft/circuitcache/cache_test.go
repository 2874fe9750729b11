package circuitcache

import (
	"sync"
	"testing"

	"github.com/consensys/gnark-crypto/ecc"
	"github.com/consensys/gnark/frontend"
	"github.com/stretchr/testify/require"
)

type dummyCircuit struct {
	A, B frontend.Variable
}

func (c *dummyCircuit) Define(api frontend.API) error {
	api.AssertIsEqual(c.A, c.B)
	return nil
}

func TestGetOrBuildCachesByShape(t *testing.T) {
	c, err := New(4)
	require.NoError(t, err)

	shape := Shape{Kind: "dummy", A: 1, B: 2}
	e1, err := c.GetOrBuild(shape, ecc.BLS12_377, &dummyCircuit{})
	require.NoError(t, err)
	require.Equal(t, 1, c.Len())

	e2, err := c.GetOrBuild(shape, ecc.BLS12_377, &dummyCircuit{})
	require.NoError(t, err)
	require.Same(t, e1, e2)
	require.Equal(t, 1, c.Len())
}

func TestGetOrBuildDistinctShapes(t *testing.T) {
	c, err := New(4)
	require.NoError(t, err)

	_, err = c.GetOrBuild(Shape{Kind: "a"}, ecc.BLS12_377, &dummyCircuit{})
	require.NoError(t, err)
	_, err = c.GetOrBuild(Shape{Kind: "b"}, ecc.BLS12_377, &dummyCircuit{})
	require.NoError(t, err)
	require.Equal(t, 2, c.Len())
}

func TestGetOrBuildConcurrentSingleFlight(t *testing.T) {
	c, err := New(4)
	require.NoError(t, err)

	shape := Shape{Kind: "concurrent"}
	var wg sync.WaitGroup
	entries := make([]*Entry, 16)
	for i := range entries {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			e, err := c.GetOrBuild(shape, ecc.BLS12_377, &dummyCircuit{})
			require.NoError(t, err)
			entries[i] = e
		}(i)
	}
	wg.Wait()

	for _, e := range entries {
		require.Same(t, entries[0], e)
	}
	require.Equal(t, 1, c.Len())
}
