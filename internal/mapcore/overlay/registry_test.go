package overlay_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/samirrijal/voltfinder/internal/mapcore/overlay"
)

type handle struct {
	name     string
	attached bool
}

func TestRegistry_PutReplaces(t *testing.T) {
	r := overlay.NewRegistry(func(h *handle) { h.attached = false })
	first := &handle{name: "p1", attached: true}
	second := &handle{name: "p2", attached: true}

	r.Put("s1", first)
	r.Put("s1", second)

	assert.Equal(t, 1, r.Len())
	got, ok := r.Get("s1")
	assert.True(t, ok)
	assert.Same(t, second, got)
	assert.False(t, first.attached, "replaced handle must be destroyed")
	assert.True(t, second.attached)
}

func TestRegistry_RemoveUnknown(t *testing.T) {
	destroyed := 0
	r := overlay.NewRegistry(func(*handle) { destroyed++ })
	r.Put("a", &handle{})

	assert.False(t, r.Remove("missing"))
	assert.Equal(t, 1, r.Len())
	assert.Equal(t, 0, destroyed)
}

func TestRegistry_ClearDestroysAll(t *testing.T) {
	destroyed := 0
	r := overlay.NewRegistry(func(*handle) { destroyed++ })
	r.Put("b", &handle{})
	r.Put("a", &handle{})
	r.Put("c", &handle{})
	assert.Equal(t, []string{"a", "b", "c"}, r.IDs())

	r.Clear()
	assert.Equal(t, 0, r.Len())
	assert.Equal(t, 3, destroyed)
}
