package anomaly

import (
	"sync"
	"testing"

	"github.com/daniel-st3/ai-cfo-agent/internal/domain"
)

func boundsFor(v float64) domain.ForecastBounds {
	return domain.ForecastBounds{
		Low:    []float64{v - 1},
		Median: []float64{v},
		High:   []float64{v + 1},
	}
}

func TestBoundsCache(t *testing.T) {
	t.Run("GetMiss", func(t *testing.T) {
		c := newBoundsCache(4)
		if _, ok := c.get(1); ok {
			t.Error("expected miss on empty cache")
		}
	})

	t.Run("PutGet", func(t *testing.T) {
		c := newBoundsCache(4)
		c.put(1, boundsFor(100))
		got, ok := c.get(1)
		if !ok {
			t.Fatal("expected hit")
		}
		if got.Median[0] != 100 {
			t.Errorf("median = %v, want 100", got.Median[0])
		}
	})

	t.Run("Overwrite", func(t *testing.T) {
		c := newBoundsCache(4)
		c.put(1, boundsFor(100))
		c.put(1, boundsFor(200))
		got, _ := c.get(1)
		if got.Median[0] != 200 {
			t.Errorf("median = %v, want 200 after overwrite", got.Median[0])
		}
		if c.len() != 1 {
			t.Errorf("len = %d, want 1", c.len())
		}
	})

	t.Run("EvictsOldest", func(t *testing.T) {
		c := newBoundsCache(2)
		c.put(1, boundsFor(1))
		c.put(2, boundsFor(2))
		c.put(3, boundsFor(3))
		if _, ok := c.get(1); ok {
			t.Error("key 1 should have been evicted")
		}
		if _, ok := c.get(2); !ok {
			t.Error("key 2 should survive")
		}
		if _, ok := c.get(3); !ok {
			t.Error("key 3 should survive")
		}
	})

	t.Run("GetRefreshesRecency", func(t *testing.T) {
		c := newBoundsCache(2)
		c.put(1, boundsFor(1))
		c.put(2, boundsFor(2))
		c.get(1)
		c.put(3, boundsFor(3))
		if _, ok := c.get(1); !ok {
			t.Error("recently read key 1 should survive")
		}
		if _, ok := c.get(2); ok {
			t.Error("key 2 should have been evicted")
		}
	})

	t.Run("DefaultSize", func(t *testing.T) {
		c := newBoundsCache(0)
		if c.maxSize != defaultCacheSize {
			t.Errorf("maxSize = %d, want %d", c.maxSize, defaultCacheSize)
		}
	})

	t.Run("Concurrent", func(t *testing.T) {
		c := newBoundsCache(16)
		var wg sync.WaitGroup
		for i := 0; i < 8; i++ {
			wg.Add(1)
			go func(n uint64) {
				defer wg.Done()
				for j := uint64(0); j < 100; j++ {
					c.put(n*1000+j, boundsFor(float64(j)))
					c.get(n*1000 + j)
				}
			}(uint64(i))
		}
		wg.Wait()
		if c.len() > 16 {
			t.Errorf("len = %d exceeds bound 16", c.len())
		}
	})
}
