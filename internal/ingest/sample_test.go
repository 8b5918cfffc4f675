package ingest

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSample(t *testing.T) {
	in := []int{1, 2, 3, 4, 5}

	got := Sample(in, 3, rand.New(rand.NewSource(1)))
	assert.Len(t, got, 3)
	assert.Subset(t, in, got)
	assert.Equal(t, []int{1, 2, 3, 4, 5}, in, "input must not be modified")
}

func TestSample_Bounds(t *testing.T) {
	in := []string{"a", "b"}

	assert.Len(t, Sample(in, 10, nil), 2, "oversized n returns everything")
	assert.Empty(t, Sample(in, 0, nil))
	assert.Empty(t, Sample(in, -1, nil))
	assert.Empty(t, Sample([]string(nil), 3, nil))
}

func TestSample_Deterministic(t *testing.T) {
	in := []int{1, 2, 3, 4, 5, 6, 7, 8}

	a := Sample(in, 4, rand.New(rand.NewSource(42)))
	b := Sample(in, 4, rand.New(rand.NewSource(42)))
	assert.Equal(t, a, b, "same seed draws the same sample")
}
