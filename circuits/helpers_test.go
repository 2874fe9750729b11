package circuit

import (
	"testing"

	"github.com/consensys/gnark-crypto/ecc"
	"github.com/consensys/gnark/frontend"
	"github.com/consensys/gnark/test"
)

func leVars(v uint64) [8]frontend.Variable {
	var out [8]frontend.Variable
	for i := 0; i < 8; i++ {
		out[i] = (v >> (8 * uint(i))) & 0xff
	}
	return out
}

func TestEqualArrayCircuit(t *testing.T) {
	assert := test.NewAssert(t)

	left := make([]frontend.Variable, 4)
	right := make([]frontend.Variable, 4)
	for i := range left {
		left[i] = byte(i + 1)
		right[i] = byte(i + 1)
	}
	placeholder := &EqualArrayCircuit{Left: make([]frontend.Variable, 4), Right: make([]frontend.Variable, 4)}
	witness := &EqualArrayCircuit{Left: left, Right: right}
	assert.SolvingSucceeded(placeholder, witness, test.WithCurves(ecc.BLS12_377))

	bad := &EqualArrayCircuit{Left: left, Right: []frontend.Variable{byte(9), byte(9), byte(9), byte(9)}}
	assert.SolvingFailed(placeholder, bad, test.WithCurves(ecc.BLS12_377))
}

func TestConsecutiveHeightsCircuit(t *testing.T) {
	assert := test.NewAssert(t)
	placeholder := &ConsecutiveHeightsCircuit{}

	good := &ConsecutiveHeightsCircuit{H1: leVars(100), H2: leVars(101)}
	assert.SolvingSucceeded(placeholder, good, test.WithCurves(ecc.BLS12_377))

	bad := &ConsecutiveHeightsCircuit{H1: leVars(100), H2: leVars(102)}
	assert.SolvingFailed(placeholder, bad, test.WithCurves(ecc.BLS12_377))
}

func TestConsecutiveTripleCircuit(t *testing.T) {
	assert := test.NewAssert(t)
	placeholder := &ConsecutiveTripleCircuit{}

	good := &ConsecutiveTripleCircuit{H1: leVars(5), H2: leVars(6), H3: leVars(7)}
	assert.SolvingSucceeded(placeholder, good, test.WithCurves(ecc.BLS12_377))

	bad := &ConsecutiveTripleCircuit{H1: leVars(5), H2: leVars(6), H3: leVars(9)}
	assert.SolvingFailed(placeholder, bad, test.WithCurves(ecc.BLS12_377))
}

func TestConsecutiveQuadrupleCircuit(t *testing.T) {
	assert := test.NewAssert(t)
	placeholder := &ConsecutiveQuadrupleCircuit{}

	good := &ConsecutiveQuadrupleCircuit{H1: leVars(10), H2: leVars(11), H3: leVars(12), H4: leVars(13)}
	assert.SolvingSucceeded(placeholder, good, test.WithCurves(ecc.BLS12_377))

	bad := &ConsecutiveQuadrupleCircuit{H1: leVars(10), H2: leVars(11), H3: leVars(12), H4: leVars(20)}
	assert.SolvingFailed(placeholder, bad, test.WithCurves(ecc.BLS12_377))
}
