package store_test

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/serroba/shortlink/internal/shortener"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMapping(t *testing.T, code shortener.Code, longURL string) shortener.Mapping {
	t.Helper()

	m, err := shortener.NewMapping(code, longURL, shortener.ShortURL("https://short.ly", code))
	require.NoError(t, err)

	return m
}

// runRepositoryContract exercises the behaviour every shortener.Repository must share.
// prefix keeps codes of different runs apart when the backend is persistent.
func runRepositoryContract(t *testing.T, repo shortener.Repository, prefix string) {
	ctx := context.Background()

	code := func(suffix string) shortener.Code {
		return shortener.Code(prefix + suffix)
	}

	t.Run("claims a free code", func(t *testing.T) {
		m := newMapping(t, code("aaaa"), "https://example.com/a")

		stored, claimed, err := repo.TryClaim(ctx, m)

		require.NoError(t, err)
		assert.True(t, claimed)
		assert.Equal(t, m.Code(), stored.Code())
		assert.Equal(t, m.ID(), stored.ID())
	})

	t.Run("refuses a taken code without overwriting", func(t *testing.T) {
		first := newMapping(t, code("bbbb"), "https://old.com")
		second := newMapping(t, code("bbbb"), "https://new.com")

		_, claimed, err := repo.TryClaim(ctx, first)
		require.NoError(t, err)
		require.True(t, claimed)

		_, claimed, err = repo.TryClaim(ctx, second)

		require.NoError(t, err)
		assert.False(t, claimed)

		got, err := repo.Lookup(ctx, code("bbbb"))
		require.NoError(t, err)
		assert.Equal(t, "https://old.com", got.LongURL())
		assert.Equal(t, first.ID(), got.ID())
	})

	t.Run("lookup returns the stored fields", func(t *testing.T) {
		m := newMapping(t, code("cccc"), "https://example.com/very/long/path?q=1#frag")

		_, claimed, err := repo.TryClaim(ctx, m)
		require.NoError(t, err)
		require.True(t, claimed)

		got, err := repo.Lookup(ctx, m.Code())

		require.NoError(t, err)
		assert.Equal(t, m.ID(), got.ID())
		assert.Equal(t, m.Code(), got.Code())
		assert.Equal(t, m.LongURL(), got.LongURL())
		assert.Equal(t, m.ShortURL(), got.ShortURL())
		assert.WithinDuration(t, m.CreatedAt(), got.CreatedAt(), timeTolerance)
	})

	t.Run("lookup of unknown code returns ErrNotFound", func(t *testing.T) {
		got, err := repo.Lookup(ctx, code("zzzz"))

		assert.True(t, got.IsZero())
		assert.ErrorIs(t, err, shortener.ErrNotFound)
	})

	t.Run("concurrent claims on one code have a single winner", func(t *testing.T) {
		const contenders = 20

		var (
			wg   sync.WaitGroup
			mu   sync.Mutex
			wins int
		)

		for i := range contenders {
			wg.Add(1)

			go func() {
				defer wg.Done()

				m, err := shortener.NewMapping(code("dddd"), fmt.Sprintf("https://example.com/%d", i), "")
				if err != nil {
					return
				}

				_, claimed, err := repo.TryClaim(ctx, m)
				if err == nil && claimed {
					mu.Lock()
					wins++
					mu.Unlock()
				}
			}()
		}

		wg.Wait()

		assert.Equal(t, 1, wins)
	})
}
