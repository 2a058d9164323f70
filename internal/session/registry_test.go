package session

import (
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry_CreateGetDelete(t *testing.T) {
	reg := NewRegistry(&stubRouter{}, 0)

	c, err := reg.Create()
	require.NoError(t, err)
	_, err = uuid.Parse(c.ID())
	require.NoError(t, err)

	got, ok := reg.Get(c.ID())
	require.True(t, ok)
	assert.Same(t, c, got)

	reg.Delete(c.ID())
	_, ok = reg.Get(c.ID())
	assert.False(t, ok)
	reg.Delete(c.ID())
}

func TestRegistry_GetRejectsMalformedID(t *testing.T) {
	reg := NewRegistry(&stubRouter{}, 0)
	_, ok := reg.Get("not-a-uuid")
	assert.False(t, ok)
}

func TestRegistry_Limit(t *testing.T) {
	reg := NewRegistry(&stubRouter{}, 1)
	_, err := reg.Create()
	require.NoError(t, err)
	_, err = reg.Create()
	assert.Error(t, err)
}

func TestRegistry_SessionsAreIndependent(t *testing.T) {
	reg := NewRegistry(&stubRouter{reply: "r"}, 0)
	a, _ := reg.Create()
	b, _ := reg.Create()

	a.Submit(t.Context(), "hi", hostedSelection())
	assert.Equal(t, 2, a.Len())
	assert.Equal(t, 0, b.Len())
}

func TestRegistry_ConcurrentCreate(t *testing.T) {
	reg := NewRegistry(&stubRouter{}, 0)
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = reg.Create()
		}()
	}
	wg.Wait()
	assert.Equal(t, 50, reg.Len())
}
