package repository

import (
	"context"

	"github.com/LavaJover/shvark-store-proxy/internal/domain"
	"github.com/LavaJover/shvark-store-proxy/internal/infrastructure/postgres/mappers"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type DefaultRelayEventRepository struct {
	DB *gorm.DB
}

func NewDefaultRelayEventRepository(db *gorm.DB) *DefaultRelayEventRepository {
	return &DefaultRelayEventRepository{
		DB: db,
	}
}

func (r *DefaultRelayEventRepository) Save(ctx context.Context, record *domain.RelayRecord) error {
	if record.ID == "" {
		record.ID = uuid.New().String()
	}
	model := mappers.ToGORMRelayEvent(record)
	return r.DB.WithContext(ctx).Create(model).Error
}
