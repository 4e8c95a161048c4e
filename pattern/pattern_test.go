package pattern

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAddIsCommutativeAndIdempotent(t *testing.T) {
	pairs := []Pattern{FREE, LOCAL, FOCAL, ZONAL, RADIAL, SPREAD, STATS, LOOP}
	for _, a := range pairs {
		for _, b := range pairs {
			assert.Equal(t, Add(a, b), Add(b, a), "Add must commute for %v,%v", a, b)
		}
		assert.Equal(t, a, Add(a, a), "Add must be idempotent for %v", a)
	}
}

func TestFreeIsIdentity(t *testing.T) {
	for _, p := range []Pattern{LOCAL, FOCAL, ZONAL, RADIAL, SPREAD, STATS, LOOP, HEAD, TAIL} {
		assert.Equal(t, p, Add(p, FREE))
	}
}

func TestIs(t *testing.T) {
	p := Add(LOCAL, FOCAL)
	assert.True(t, p.Is(LOCAL))
	assert.True(t, p.Is(FOCAL))
	assert.False(t, p.Is(ZONAL))
	assert.True(t, p.IsNot(ZONAL))
}

func TestCanPipeFuseDirectional(t *testing.T) {
	// FOCAL consumer over LOCAL producer is legal...
	assert.True(t, CanPipeFuse(FOCAL, LOCAL))
	// ...but the reverse framing (LOCAL consumer over FOCAL producer) is not,
	// since a LOCAL sink cannot safely widen to a FOCAL producer's reach.
	assert.False(t, CanPipeFuse(LOCAL, FOCAL))
}

func TestCanPipeFuseRejectsRadialAndSpread(t *testing.T) {
	assert.False(t, CanPipeFuse(RADIAL, LOCAL))
	assert.False(t, CanPipeFuse(LOCAL, RADIAL))
	assert.False(t, CanPipeFuse(SPREAD, LOCAL))
}

func TestCanFlatFuseSymmetric(t *testing.T) {
	cases := []struct{ a, b Pattern }{
		{LOCAL, LOCAL},
		{LOCAL, FOCAL},
		{FOCAL, ZONAL},
		{RADIAL, RADIAL},
	}
	for _, c := range cases {
		assert.Equal(t, CanFlatFuse(c.a, c.b), CanFlatFuse(c.b, c.a))
	}
}

func TestCanFlatFuseRejectsHeterogeneousRadialSpreadLoop(t *testing.T) {
	assert.False(t, CanFlatFuse(RADIAL, LOCAL))
	assert.False(t, CanFlatFuse(SPREAD, FOCAL))
	assert.False(t, CanFlatFuse(LOOP, LOCAL))
	assert.True(t, CanFlatFuse(RADIAL, RADIAL))
}

func TestResultPatternIsUnion(t *testing.T) {
	a, b := LOCAL, FOCAL
	assert.Equal(t, Add(a, b), a|b)
}
