package vars

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNew_CopiesSeed(t *testing.T) {
	seed := map[string]string{"a": "1"}
	ctx := New(seed)

	seed["a"] = "mutated"
	seed["b"] = "2"

	v, ok := ctx.Get("a")
	assert.True(t, ok)
	assert.Equal(t, "1", v)

	_, ok = ctx.Get("b")
	assert.False(t, ok)
}

func TestContext_SetAndGet(t *testing.T) {
	ctx := New(nil)

	_, ok := ctx.Get("token")
	assert.False(t, ok)

	ctx.Set("token", "abc")
	v, ok := ctx.Get("token")
	assert.True(t, ok)
	assert.Equal(t, "abc", v)

	ctx.SetAll(map[string]string{"token": "xyz", "userId": "42"})
	v, _ = ctx.Get("token")
	assert.Equal(t, "xyz", v)
	assert.Equal(t, 2, ctx.Len())
}

func TestSnapshot_Independent(t *testing.T) {
	ctx := New(map[string]string{"a": "1"})

	snap := ctx.Snapshot()
	snap["a"] = "changed"
	snap["b"] = "2"

	v, _ := ctx.Get("a")
	assert.Equal(t, "1", v)
	assert.Equal(t, 1, ctx.Len())
}

func TestClone_Isolation(t *testing.T) {
	base := New(map[string]string{"shared": "yes"})

	clone := base.Clone()
	clone.Set("branch", "only")
	base.Set("base", "only")

	v, ok := clone.Get("shared")
	assert.True(t, ok)
	assert.Equal(t, "yes", v)

	_, ok = base.Get("branch")
	assert.False(t, ok)
	_, ok = clone.Get("base")
	assert.False(t, ok)
}

func TestContext_ConcurrentAccess(t *testing.T) {
	ctx := New(nil)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			ctx.Set(fmt.Sprintf("key%d", n), "v")
			ctx.Snapshot()
			ctx.Clone()
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 50, ctx.Len())
}
