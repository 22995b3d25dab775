package handlers_test

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"testing"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/humatest"
	"github.com/serroba/shortlink/internal/audit"
	"github.com/serroba/shortlink/internal/handlers"
	"github.com/serroba/shortlink/internal/messaging"
	"github.com/serroba/shortlink/internal/shortener"
	"github.com/serroba/shortlink/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const (
	testURL    = "https://example.com/very/long/path"
	testOrigin = "http://localhost:8888"
)

var errMock = errors.New("store unavailable")

// failingStore fails every call with err.
type failingStore struct {
	err error
}

func (f failingStore) TryClaim(context.Context, shortener.Mapping) (shortener.Mapping, bool, error) {
	return shortener.Mapping{}, false, f.err
}

func (f failingStore) Lookup(context.Context, shortener.Code) (shortener.Mapping, error) {
	return shortener.Mapping{}, f.err
}

func errorPublish[T any](err error) messaging.Publish[T] {
	return func(context.Context, *T) error { return err }
}

func newTestHandler(t *testing.T, s shortener.Repository, baseURL string, publish messaging.Publish[audit.MappingClaimedEvent]) *handlers.URLHandler {
	t.Helper()

	gen, err := shortener.NewCodeGenerator(shortener.Alphabet, shortener.CodeLength)
	require.NoError(t, err)

	if publish == nil {
		publish = messaging.NopPublish[audit.MappingClaimedEvent]()
	}

	return handlers.NewURLHandler(
		shortener.NewAllocator(s, gen, zap.NewNop()),
		shortener.NewResolver(s),
		baseURL,
		publish,
		zap.NewNop(),
	)
}

func seed(t *testing.T, s shortener.Repository, code shortener.Code, longURL string) shortener.Mapping {
	t.Helper()

	m, err := shortener.NewMapping(code, longURL, shortener.ShortURL(testOrigin, code))
	require.NoError(t, err)

	_, claimed, err := s.TryClaim(context.Background(), m)
	require.NoError(t, err)
	require.True(t, claimed)

	return m
}

func TestCreateShortURL(t *testing.T) {
	t.Run("creates short url successfully", func(t *testing.T) {
		memStore := store.NewMemoryStore()
		handler := newTestHandler(t, memStore, testOrigin, nil)

		req := &handlers.CreateShortURLRequest{}
		req.Body.URL = testURL

		resp, err := handler.CreateShortURL(context.Background(), req)

		require.NoError(t, err)
		assert.Len(t, resp.Body.Code, shortener.CodeLength)
		assert.Equal(t, testURL, resp.Body.LongURL)
		assert.Equal(t, testOrigin+"/"+resp.Body.Code, resp.Body.ShortURL)
		assert.Equal(t, resp.Body.ShortURL, resp.Location)
		assert.False(t, resp.Body.CreatedAt.IsZero())
		assert.Equal(t, 1, memStore.Len())
	})

	t.Run("same url gets a new code every time", func(t *testing.T) {
		memStore := store.NewMemoryStore()
		handler := newTestHandler(t, memStore, testOrigin, nil)

		req := &handlers.CreateShortURLRequest{}
		req.Body.URL = testURL

		resp1, err1 := handler.CreateShortURL(context.Background(), req)
		resp2, err2 := handler.CreateShortURL(context.Background(), req)

		require.NoError(t, err1)
		require.NoError(t, err2)
		assert.NotEqual(t, resp1.Body.Code, resp2.Body.Code)
	})

	t.Run("rejects relative url", func(t *testing.T) {
		handler := newTestHandler(t, store.NewMemoryStore(), testOrigin, nil)

		req := &handlers.CreateShortURLRequest{}
		req.Body.URL = "/just/a/path"

		resp, err := handler.CreateShortURL(context.Background(), req)

		assert.Nil(t, resp)

		var se huma.StatusError
		require.ErrorAs(t, err, &se)
		assert.Equal(t, http.StatusUnprocessableEntity, se.GetStatus())
	})

	t.Run("uses request origin when no base url is configured", func(t *testing.T) {
		handler := newTestHandler(t, store.NewMemoryStore(), "", nil)
		ctx := handlers.ContextWithRequestMeta(context.Background(), handlers.RequestMeta{
			Origin: "https://sho.rt",
		})

		req := &handlers.CreateShortURLRequest{}
		req.Body.URL = testURL

		resp, err := handler.CreateShortURL(ctx, req)

		require.NoError(t, err)
		assert.True(t, strings.HasPrefix(resp.Body.ShortURL, "https://sho.rt/"))
	})

	t.Run("fails without any origin", func(t *testing.T) {
		handler := newTestHandler(t, store.NewMemoryStore(), "", nil)

		req := &handlers.CreateShortURLRequest{}
		req.Body.URL = testURL

		resp, err := handler.CreateShortURL(context.Background(), req)

		assert.Nil(t, resp)
		assert.Error(t, err)
	})

	t.Run("returns 500 when store fails", func(t *testing.T) {
		handler := newTestHandler(t, failingStore{err: errMock}, testOrigin, nil)

		req := &handlers.CreateShortURLRequest{}
		req.Body.URL = testURL

		resp, err := handler.CreateShortURL(context.Background(), req)

		assert.Nil(t, resp)

		var se huma.StatusError
		require.ErrorAs(t, err, &se)
		assert.Equal(t, http.StatusInternalServerError, se.GetStatus())
	})

	t.Run("publishes claimed event with request metadata", func(t *testing.T) {
		var got *audit.MappingClaimedEvent

		publish := func(_ context.Context, e *audit.MappingClaimedEvent) error {
			got = e

			return nil
		}
		handler := newTestHandler(t, store.NewMemoryStore(), testOrigin, publish)
		ctx := handlers.ContextWithRequestMeta(context.Background(), handlers.RequestMeta{
			ClientIP:  "192.168.1.1",
			UserAgent: "TestAgent/1.0",
		})

		req := &handlers.CreateShortURLRequest{}
		req.Body.URL = testURL

		resp, err := handler.CreateShortURL(ctx, req)

		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, resp.Body.Code, got.Code)
		assert.Equal(t, "192.168.1.1", got.ClientIP)
		assert.Equal(t, "TestAgent/1.0", got.UserAgent)
	})

	t.Run("succeeds even when publish fails", func(t *testing.T) {
		handler := newTestHandler(t, store.NewMemoryStore(), testOrigin,
			errorPublish[audit.MappingClaimedEvent](errors.New("publish error")))

		req := &handlers.CreateShortURLRequest{}
		req.Body.URL = testURL

		resp, err := handler.CreateShortURL(context.Background(), req)

		require.NoError(t, err)
		assert.NotEmpty(t, resp.Body.Code)
	})
}

func TestRedirectToURL(t *testing.T) {
	t.Run("redirects to original url", func(t *testing.T) {
		memStore := store.NewMemoryStore()
		seed(t, memStore, "abc1234", testURL)
		handler := newTestHandler(t, memStore, testOrigin, nil)

		resp, err := handler.RedirectToURL(context.Background(), &handlers.RedirectRequest{Code: "abc1234"})

		require.NoError(t, err)
		assert.Equal(t, http.StatusMovedPermanently, resp.Status)
		assert.Equal(t, testURL, resp.Location)
	})

	t.Run("returns 404 when code not found", func(t *testing.T) {
		handler := newTestHandler(t, store.NewMemoryStore(), testOrigin, nil)

		resp, err := handler.RedirectToURL(context.Background(), &handlers.RedirectRequest{Code: "ZZZZZZZ"})

		assert.Nil(t, resp)

		var se huma.StatusError
		require.ErrorAs(t, err, &se)
		assert.Equal(t, http.StatusNotFound, se.GetStatus())
	})

	t.Run("returns 500 on store error", func(t *testing.T) {
		handler := newTestHandler(t, failingStore{err: errMock}, testOrigin, nil)

		resp, err := handler.RedirectToURL(context.Background(), &handlers.RedirectRequest{Code: "abc1234"})

		assert.Nil(t, resp)

		var se huma.StatusError
		require.ErrorAs(t, err, &se)
		assert.Equal(t, http.StatusInternalServerError, se.GetStatus())
	})
}

func TestGetMapping(t *testing.T) {
	t.Run("returns stored mapping", func(t *testing.T) {
		memStore := store.NewMemoryStore()
		m := seed(t, memStore, "abc1234", testURL)
		handler := newTestHandler(t, memStore, testOrigin, nil)

		resp, err := handler.GetMapping(context.Background(), &handlers.GetMappingRequest{Code: "abc1234"})

		require.NoError(t, err)
		assert.Equal(t, "abc1234", resp.Body.Code)
		assert.Equal(t, m.ShortURL(), resp.Body.ShortURL)
		assert.Equal(t, testURL, resp.Body.LongURL)
		assert.Equal(t, m.CreatedAt(), resp.Body.CreatedAt)
	})

	t.Run("returns 404 when code not found", func(t *testing.T) {
		handler := newTestHandler(t, store.NewMemoryStore(), testOrigin, nil)

		resp, err := handler.GetMapping(context.Background(), &handlers.GetMappingRequest{Code: "nope"})

		assert.Nil(t, resp)

		var se huma.StatusError
		require.ErrorAs(t, err, &se)
		assert.Equal(t, http.StatusNotFound, se.GetStatus())
	})
}

func TestContextWithRequestMeta(t *testing.T) {
	t.Run("adds and retrieves request metadata from context", func(t *testing.T) {
		meta := handlers.RequestMeta{
			ClientIP:  "192.168.1.1",
			UserAgent: "TestAgent/1.0",
			Origin:    "https://sho.rt",
		}
		ctx := handlers.ContextWithRequestMeta(context.Background(), meta)

		assert.Equal(t, meta, handlers.RequestMetaFromContext(ctx))
	})

	t.Run("returns zero value when absent", func(t *testing.T) {
		assert.Equal(t, handlers.RequestMeta{}, handlers.RequestMetaFromContext(context.Background()))
	})
}

func TestRoutes(t *testing.T) {
	_, api := humatest.New(t)
	memStore := store.NewMemoryStore()
	handlers.RegisterRoutes(api, newTestHandler(t, memStore, testOrigin, nil))

	t.Run("create then redirect", func(t *testing.T) {
		created := api.Post("/shorten", map[string]any{"url": testURL})
		require.Equal(t, http.StatusCreated, created.Code)

		location := created.Header().Get("Location")
		require.True(t, strings.HasPrefix(location, testOrigin+"/"))

		code := strings.TrimPrefix(location, testOrigin+"/")

		redirect := api.Get("/" + code)
		assert.Equal(t, http.StatusMovedPermanently, redirect.Code)
		assert.Equal(t, testURL, redirect.Header().Get("Location"))

		details := api.Get("/urls/" + code)
		assert.Equal(t, http.StatusOK, details.Code)
		assert.Contains(t, details.Body.String(), `"code":"`+code+`"`)
	})

	t.Run("rejects non-uri body", func(t *testing.T) {
		resp := api.Post("/shorten", map[string]any{"url": "not a url"})
		assert.Equal(t, http.StatusUnprocessableEntity, resp.Code)
	})

	t.Run("unknown code is 404", func(t *testing.T) {
		resp := api.Get("/ZZZZZZZ")
		assert.Equal(t, http.StatusNotFound, resp.Code)
	})
}
