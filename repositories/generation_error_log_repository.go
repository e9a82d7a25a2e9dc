package repositories

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/vnkhanh/e-flashcard-backend/models"
)

var ErrorLogSortColumns = []string{"created_at", "error_code", "model"}

type GenerationErrorLogRepository interface {
	Create(ctx context.Context, l *models.GenerationErrorLog) error
	List(ctx context.Context, ownerID uuid.UUID, page models.PageRequest) ([]models.GenerationErrorLog, int64, error)
}

type generationErrorLogRepository struct {
	db *gorm.DB
}

func NewGenerationErrorLogRepository(db *gorm.DB) GenerationErrorLogRepository {
	return &generationErrorLogRepository{db: db}
}

func (r *generationErrorLogRepository) Create(ctx context.Context, l *models.GenerationErrorLog) error {
	return r.db.WithContext(ctx).Create(l).Error
}

func (r *generationErrorLogRepository) List(ctx context.Context, ownerID uuid.UUID, page models.PageRequest) ([]models.GenerationErrorLog, int64, error) {
	q := r.db.WithContext(ctx).Model(&models.GenerationErrorLog{}).Where("owner_id = ?", ownerID).Session(&gorm.Session{})

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var rows []models.GenerationErrorLog
	if err := q.Order(page.OrderClause()).Offset(page.Offset()).Limit(page.Limit).Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}
