package handlers

import (
	"context"
	"errors"
	"net/http"
	"net/url"

	"github.com/danielgtaylor/huma/v2"
	"github.com/serroba/shortlink/internal/audit"
	"github.com/serroba/shortlink/internal/messaging"
	"github.com/serroba/shortlink/internal/shortener"
	"go.uber.org/zap"
)

// URLHandler handles URL shortening operations.
type URLHandler struct {
	allocator      *shortener.Allocator
	resolver       *shortener.Resolver
	baseURL        string
	publishClaimed messaging.Publish[audit.MappingClaimedEvent]
	logger         *zap.Logger
}

// NewURLHandler creates a new URL handler. An empty baseURL means short URLs
// are built from the origin of each request.
func NewURLHandler(
	allocator *shortener.Allocator,
	resolver *shortener.Resolver,
	baseURL string,
	publishClaimed messaging.Publish[audit.MappingClaimedEvent],
	logger *zap.Logger,
) *URLHandler {
	return &URLHandler{
		allocator:      allocator,
		resolver:       resolver,
		baseURL:        baseURL,
		publishClaimed: publishClaimed,
		logger:         logger,
	}
}

func (h *URLHandler) CreateShortURL(ctx context.Context, req *CreateShortURLRequest) (*CreateShortURLResponse, error) {
	if !isAbsoluteURL(req.Body.URL) {
		return nil, huma.Error422UnprocessableEntity("url must be absolute, e.g. https://example.com/path")
	}

	meta := RequestMetaFromContext(ctx)

	origin := h.baseURL
	if origin == "" {
		origin = meta.Origin
	}

	if origin == "" {
		h.logger.Error("no base origin for short url")

		return nil, huma.Error500InternalServerError("failed to build short url")
	}

	mapping, err := h.allocator.Allocate(ctx, req.Body.URL, origin)
	if err != nil {
		h.logger.Error("failed to allocate code",
			zap.String("longUrl", req.Body.URL),
			zap.Error(err),
		)

		return nil, huma.Error500InternalServerError("failed to save url")
	}

	event := audit.NewMappingClaimedEvent(mapping, meta.ClientIP, meta.UserAgent)
	if err := h.publishClaimed(ctx, event); err != nil {
		h.logger.Error("failed to publish audit event",
			zap.String("code", event.Code),
			zap.Error(err),
		)
	}

	resp := &CreateShortURLResponse{}
	resp.Location = mapping.ShortURL()
	resp.Body = toBody(mapping)

	return resp, nil
}

func (h *URLHandler) RedirectToURL(ctx context.Context, req *RedirectRequest) (*RedirectResponse, error) {
	longURL, err := h.resolver.Resolve(ctx, shortener.Code(req.Code))
	if err != nil {
		if errors.Is(err, shortener.ErrNotFound) {
			return nil, huma.Error404NotFound("short url not found")
		}

		h.logger.Error("failed to resolve code", zap.String("code", req.Code), zap.Error(err))

		return nil, huma.Error500InternalServerError("failed to get url")
	}

	return &RedirectResponse{
		Status:   http.StatusMovedPermanently,
		Location: longURL,
	}, nil
}

func (h *URLHandler) GetMapping(ctx context.Context, req *GetMappingRequest) (*GetMappingResponse, error) {
	mapping, err := h.resolver.Lookup(ctx, shortener.Code(req.Code))
	if err != nil {
		if errors.Is(err, shortener.ErrNotFound) {
			return nil, huma.Error404NotFound("short url not found")
		}

		h.logger.Error("failed to look up code", zap.String("code", req.Code), zap.Error(err))

		return nil, huma.Error500InternalServerError("failed to get url")
	}

	return &GetMappingResponse{Body: toBody(mapping)}, nil
}

func toBody(m shortener.Mapping) MappingBody {
	return MappingBody{
		Code:      string(m.Code()),
		ShortURL:  m.ShortURL(),
		LongURL:   m.LongURL(),
		CreatedAt: m.CreatedAt(),
	}
}

func isAbsoluteURL(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}

	return u.IsAbs() && u.Host != ""
}
