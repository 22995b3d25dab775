package audit

import (
	"context"

	"go.uber.org/zap"
)

// Recorder writes claimed mappings to the audit log.
type Recorder struct {
	logger *zap.Logger
}

// NewRecorder creates a recorder logging through logger.
func NewRecorder(logger *zap.Logger) *Recorder {
	return &Recorder{logger: logger.Named("audit")}
}

// RecordMappingClaimed is a messaging.Handler for TopicMappingClaimed.
func (r *Recorder) RecordMappingClaimed(_ context.Context, event *MappingClaimedEvent) error {
	r.logger.Info("mapping claimed",
		zap.String("id", event.ID),
		zap.String("code", event.Code),
		zap.String("longUrl", event.LongURL),
		zap.String("shortUrl", event.ShortURL),
		zap.Time("createdAt", event.CreatedAt),
		zap.String("clientIp", event.ClientIP),
		zap.String("userAgent", event.UserAgent),
	)

	return nil
}
