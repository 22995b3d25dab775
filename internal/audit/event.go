package audit

import (
	"time"

	"github.com/serroba/shortlink/internal/shortener"
)

// TopicMappingClaimed carries one event per successfully allocated code.
const TopicMappingClaimed = "mapping.claimed"

// MappingClaimedEvent records who claimed which code.
type MappingClaimedEvent struct {
	ID        string    `json:"id"`
	Code      string    `json:"code"`
	LongURL   string    `json:"longUrl"`
	ShortURL  string    `json:"shortUrl"`
	CreatedAt time.Time `json:"createdAt"`
	ClientIP  string    `json:"clientIp,omitempty"`
	UserAgent string    `json:"userAgent,omitempty"`
}

// NewMappingClaimedEvent builds the event for m.
func NewMappingClaimedEvent(m shortener.Mapping, clientIP, userAgent string) *MappingClaimedEvent {
	return &MappingClaimedEvent{
		ID:        m.ID().String(),
		Code:      string(m.Code()),
		LongURL:   m.LongURL(),
		ShortURL:  m.ShortURL(),
		CreatedAt: m.CreatedAt(),
		ClientIP:  clientIP,
		UserAgent: userAgent,
	}
}
