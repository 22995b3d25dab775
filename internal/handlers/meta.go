package handlers

import "context"

type requestMetaKey struct{}

// RequestMeta holds per-request data the handlers need beyond the body.
type RequestMeta struct {
	ClientIP  string
	UserAgent string
	// Origin is the scheme and host the request arrived on, e.g. "https://short.ly".
	Origin string
}

// ContextWithRequestMeta adds request metadata to context.
func ContextWithRequestMeta(ctx context.Context, meta RequestMeta) context.Context {
	return context.WithValue(ctx, requestMetaKey{}, meta)
}

// RequestMetaFromContext extracts request metadata from context.
func RequestMetaFromContext(ctx context.Context) RequestMeta {
	if v, ok := ctx.Value(requestMetaKey{}).(RequestMeta); ok {
		return v
	}

	return RequestMeta{}
}
