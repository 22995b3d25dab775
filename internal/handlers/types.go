package handlers

import "time"

// CreateShortURLRequest is the request body for creating a short URL.
type CreateShortURLRequest struct {
	Body struct {
		URL string `doc:"The absolute URL to shorten" example:"https://example.com/very/long/path" format:"uri" json:"url" maxLength:"2048" minLength:"1"`
	}
}

// MappingBody describes a stored mapping.
type MappingBody struct {
	Code      string    `doc:"The short code"         example:"aZ3kP9q"                            json:"code"`
	ShortURL  string    `doc:"The full short URL"     example:"https://short.ly/aZ3kP9q"           json:"shortUrl"`
	LongURL   string    `doc:"The original URL"       example:"https://example.com/very/long/path" json:"longUrl"`
	CreatedAt time.Time `doc:"When the code was claimed"                                            json:"createdAt"`
}

// CreateShortURLResponse is the response for a successfully created short URL.
type CreateShortURLResponse struct {
	Location string `doc:"The short URL location" header:"Location"`
	Body     MappingBody
}

// RedirectRequest is the request for redirecting a short URL.
type RedirectRequest struct {
	Code string `doc:"The short code" example:"aZ3kP9q" maxLength:"32" path:"code"`
}

// RedirectResponse redirects the client to the original URL.
type RedirectResponse struct {
	Status   int
	Location string `doc:"The original URL" header:"Location"`
}

// GetMappingRequest is the request for inspecting a short code.
type GetMappingRequest struct {
	Code string `doc:"The short code" example:"aZ3kP9q" maxLength:"32" path:"code"`
}

// GetMappingResponse returns the stored mapping.
type GetMappingResponse struct {
	Body MappingBody
}
