package starlark

import (
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/evaltable/pkg/core"
	"github.com/leapstack-labs/evaltable/pkg/operator"
)

type fixedRand float64

func (f fixedRand) Float64() float64 { return float64(f) }

func writeStar(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o600))
}

const logicOps = `
def _maj(a, b, c):
    return (a and b) or (a and c) or (b and c)

operator(name = "maj", args = ["bool", "bool", "bool"], result = "bool", fn = _maj, doc = "majority vote")
operator(name = "implies", args = ["bool", "bool"], result = "bool", fn = lambda a, b: (not a) or b)
`

const mathOps = `
def _clamp(x, lo, hi):
    return min(max(x, lo), hi)

def _sumsq(*xs):
    total = 0.0
    for x in xs:
        total += x * x
    return total

def _jitter(x):
    return x + rand()

operator(name = "clamp", args = ["contin", "contin", "contin"], result = "contin", fn = _clamp)
operator(name = "sumsq", args = ["contin"], variadic = True, result = "contin", fn = _sumsq)
operator(name = "hypot", args = ["contin", "contin"], result = "contin", fn = lambda a, b: math.sqrt(a * a + b * b))
operator(name = "jitter", args = ["contin"], result = "contin", fn = _jitter, stochastic = True)
operator(name = "count", args = ["bool"], result = "contin", fn = lambda b: 1 if b else 0)
`

func loadOps(t *testing.T, files map[string]string) map[string]*core.Operator {
	t.Helper()
	dir := t.TempDir()
	for name, content := range files {
		writeStar(t, dir, name, content)
	}

	ops, err := NewLoader(dir, nil).Load()
	require.NoError(t, err)

	byName := make(map[string]*core.Operator, len(ops))
	for _, op := range ops {
		byName[op.Name] = op
	}
	return byName
}

func TestLoaderDeclarations(t *testing.T) {
	ops := loadOps(t, map[string]string{"logic.star": logicOps, "math.star": mathOps})
	require.Len(t, ops, 7)

	maj := ops["maj"]
	assert.Equal(t, core.Fixed(3), maj.Arity)
	assert.Equal(t, []core.DataType{core.Boolean, core.Boolean, core.Boolean}, maj.Args)
	assert.Equal(t, core.Boolean, maj.Result)
	assert.Equal(t, "majority vote", maj.Doc)

	sumsq := ops["sumsq"]
	assert.True(t, sumsq.Arity.IsVariadic())
	assert.Equal(t, 1, sumsq.Arity.Min)

	assert.True(t, ops["jitter"].Stochastic)
	assert.False(t, ops["clamp"].Stochastic)
}

func TestLoaderSemantics(t *testing.T) {
	ops := loadOps(t, map[string]string{"logic.star": logicOps, "math.star": mathOps})
	b, f := core.Bool, core.Float

	tests := []struct {
		op   string
		args []core.Value
		rng  core.Rand
		want core.Value
	}{
		{"maj", []core.Value{b(true), b(false), b(true)}, nil, b(true)},
		{"maj", []core.Value{b(true), b(false), b(false)}, nil, b(false)},
		{"implies", []core.Value{b(false), b(false)}, nil, b(true)},
		{"clamp", []core.Value{f(5), f(0), f(1)}, nil, f(1)},
		{"sumsq", []core.Value{f(1), f(2), f(3)}, nil, f(14)},
		{"hypot", []core.Value{f(3), f(4)}, nil, f(5)},
		{"jitter", []core.Value{f(1)}, fixedRand(0.25), f(1.25)},
		{"count", []core.Value{b(true)}, nil, f(1)},
	}

	for _, tt := range tests {
		t.Run(tt.op, func(t *testing.T) {
			got, err := ops[tt.op].Apply(tt.args, tt.rng)
			require.NoError(t, err)
			assert.True(t, tt.want.Equal(got), "want %s, got %s", tt.want, got)
		})
	}
}

func TestLoaderRandRequiresStochastic(t *testing.T) {
	ops := loadOps(t, map[string]string{"bad.star": `
operator(name = "noisy", args = ["contin"], result = "contin", fn = lambda x: x + rand())
`})

	_, err := ops["noisy"].Apply([]core.Value{core.Float(1)}, fixedRand(0.5))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "stochastic=True")
}

func TestLoaderResultTypeChecked(t *testing.T) {
	ops := loadOps(t, map[string]string{"bad.star": `
operator(name = "liar", args = ["bool"], result = "bool", fn = lambda b: 1.5)
`})

	_, err := ops["liar"].Apply([]core.Value{core.Bool(true)}, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "declared boolean")
}

func TestLoaderConcurrentCalls(t *testing.T) {
	ops := loadOps(t, map[string]string{"math.star": mathOps})
	clamp := ops["clamp"]

	var wg sync.WaitGroup
	errs := make([]error, 50)
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			v, err := clamp.Apply([]core.Value{core.Float(float64(i)), core.Float(0), core.Float(10)}, nil)
			if err == nil && v.AsFloat() != min(float64(i), 10) {
				err = errors.New("wrong result")
			}
			errs[i] = err
		}()
	}
	wg.Wait()

	for _, err := range errs {
		assert.NoError(t, err)
	}
}

func TestLoaderErrors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantMsg string
	}{
		{"syntax error", "operator(", "Starlark execution error"},
		{"bad type", `operator(name = "x", args = ["enum"], result = "bool", fn = lambda a: a)`, "unsupported type"},
		{"bad result", `operator(name = "x", args = ["bool"], result = 3, fn = lambda a: a)`, "type must be a string"},
		{"empty variadic", `operator(name = "x", args = [], variadic = True, result = "bool", fn = lambda: True)`, "at least one argument type"},
		{"separator in name", `operator(name = "a b", args = ["bool"], result = "bool", fn = lambda a: a)`, "separator"},
		{"placeholder name", `operator(name = "#x", args = ["bool"], result = "bool", fn = lambda a: a)`, "cannot start with"},
		{"literal name", `operator(name = "true", args = [], result = "bool", fn = lambda: True)`, "reserved literal"},
		{"numeric name", `operator(name = "12", args = [], result = "contin", fn = lambda: 1.0)`, "reads as a number"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			writeStar(t, dir, "ops.star", tt.content)

			_, err := NewLoader(dir, nil).Load()
			require.Error(t, err)

			var loadErr *LoadError
			require.True(t, errors.As(err, &loadErr), "got %T: %v", err, err)
			assert.Contains(t, loadErr.Message, tt.wantMsg)
			assert.Contains(t, err.Error(), "operators/ops.star")
		})
	}
}

func TestLoaderMissingDir(t *testing.T) {
	ops, err := NewLoader(filepath.Join(t.TempDir(), "nope"), nil).Load()
	require.NoError(t, err)
	assert.Empty(t, ops)

	ops, err = NewLoader("", nil).Load()
	require.NoError(t, err)
	assert.Empty(t, ops)
}

func TestLoadIntoRegistry(t *testing.T) {
	dir := t.TempDir()
	writeStar(t, dir, "logic.star", logicOps)

	reg := operator.Default()
	ops, err := NewLoader(dir, nil).LoadInto(reg)
	require.NoError(t, err)
	assert.Len(t, ops, 2)

	_, ok := reg.Lookup("maj")
	assert.True(t, ok)

	// Redefining a builtin with another signature is rejected.
	writeStar(t, dir, "zz.star", `operator(name = "and", args = ["contin"], result = "contin", fn = lambda a: a)`)
	_, err = NewLoader(dir, nil).LoadInto(operator.Default())
	var conflict *operator.SignatureConflictError
	assert.True(t, errors.As(err, &conflict))
}
