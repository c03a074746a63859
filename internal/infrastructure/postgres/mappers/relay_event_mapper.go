package mappers

import (
	"github.com/LavaJover/shvark-store-proxy/internal/domain"
	"github.com/LavaJover/shvark-store-proxy/internal/infrastructure/postgres/models"
)

// Only a short prefix of the cart token is stored.
const cartTokenPrefixLen = 8

func ToGORMRelayEvent(record *domain.RelayRecord) *models.RelayEventModel {
	return &models.RelayEventModel{
		ID:         record.ID,
		RequestID:  record.RequestID,
		Method:     record.Method,
		Path:       record.Path,
		StatusCode: record.StatusCode,
		DurationMs: record.Duration.Milliseconds(),
		CartToken:  truncateToken(record.CartToken),
		Error:      record.Error,
		CreatedAt:  record.CreatedAt,
	}
}

func truncateToken(token string) string {
	if len(token) <= cartTokenPrefixLen {
		return token
	}
	return token[:cartTokenPrefixLen]
}
