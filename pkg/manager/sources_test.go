package manager

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSourceRegistryReplace(t *testing.T) {
	r := NewSourceRegistry()
	assert.Equal(t, uint64(0), r.Generation())
	assert.Empty(t, r.Snapshot())

	gen := r.Replace([]ManagerSource{
		{Name: "winget", URL: "https://cdn.winget.microsoft.com/cache", Manager: "winget"},
		{Name: "msstore", URL: "https://storeedgefd.dsx.mp.microsoft.com/v9.0", Manager: "winget"},
		{Name: "winget", URL: "https://duplicate.example", Manager: "winget"},
		{Name: ""},
	})
	assert.Equal(t, uint64(1), gen)
	assert.Equal(t, []string{"winget", "msstore"}, r.Names())
	assert.Equal(t, 2, r.Len())

	src, ok := r.Lookup("winget")
	require.True(t, ok)
	assert.Equal(t, "https://cdn.winget.microsoft.com/cache", src.URL)

	_, ok = r.Lookup("contoso")
	assert.False(t, ok)
}

func TestSourceRegistrySnapshotIsolation(t *testing.T) {
	r := NewSourceRegistry()
	r.Replace([]ManagerSource{{Name: "winget"}})

	snap := r.Snapshot()
	snap[0].Name = "mutated"
	r.Replace([]ManagerSource{{Name: "contoso"}})

	assert.Equal(t, "mutated", snap[0].Name)
	assert.Equal(t, []string{"contoso"}, r.Names())
	assert.Equal(t, uint64(2), r.Generation())
}

func TestSourceRegistryConcurrentSwap(t *testing.T) {
	r := NewSourceRegistry()
	full := []ManagerSource{{Name: "a"}, {Name: "b"}, {Name: "c"}}

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				r.Replace(full)
			}
		}()
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				n := len(r.Snapshot())
				// Never a partially built set.
				assert.True(t, n == 0 || n == 3)
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, uint64(800), r.Generation())
}
