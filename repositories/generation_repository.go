package repositories

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/vnkhanh/e-flashcard-backend/models"
)

var GenerationSortColumns = []string{"created_at", "updated_at", "generated_count"}

type GenerationRepository interface {
	Create(ctx context.Context, g *models.Generation) error
	GetByID(ctx context.Context, ownerID, id uuid.UUID) (*models.Generation, error)
	// OwnedIDs returns which of ids belong to ownerID.
	OwnedIDs(ctx context.Context, ownerID uuid.UUID, ids []uuid.UUID) (map[uuid.UUID]bool, error)
	IncrementAccepted(ctx context.Context, ownerID, id uuid.UUID, edited, unedited int) error
	List(ctx context.Context, ownerID uuid.UUID, page models.PageRequest) ([]models.Generation, int64, error)
}

type generationRepository struct {
	db *gorm.DB
}

func NewGenerationRepository(db *gorm.DB) GenerationRepository {
	return &generationRepository{db: db}
}

func (r *generationRepository) Create(ctx context.Context, g *models.Generation) error {
	return r.db.WithContext(ctx).Create(g).Error
}

func (r *generationRepository) GetByID(ctx context.Context, ownerID, id uuid.UUID) (*models.Generation, error) {
	var g models.Generation
	err := r.db.WithContext(ctx).Where("id = ? AND owner_id = ?", id, ownerID).Take(&g).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &g, nil
}

func (r *generationRepository) OwnedIDs(ctx context.Context, ownerID uuid.UUID, ids []uuid.UUID) (map[uuid.UUID]bool, error) {
	owned := make(map[uuid.UUID]bool, len(ids))
	if len(ids) == 0 {
		return owned, nil
	}
	var found []uuid.UUID
	err := r.db.WithContext(ctx).Model(&models.Generation{}).
		Where("owner_id = ? AND id IN ?", ownerID, ids).
		Pluck("id", &found).Error
	if err != nil {
		return nil, err
	}
	for _, id := range found {
		owned[id] = true
	}
	return owned, nil
}

func (r *generationRepository) IncrementAccepted(ctx context.Context, ownerID, id uuid.UUID, edited, unedited int) error {
	if edited == 0 && unedited == 0 {
		return nil
	}
	res := r.db.WithContext(ctx).Model(&models.Generation{}).
		Where("id = ? AND owner_id = ?", id, ownerID).
		Updates(map[string]interface{}{
			"accepted_edited_count":   gorm.Expr("accepted_edited_count + ?", edited),
			"accepted_unedited_count": gorm.Expr("accepted_unedited_count + ?", unedited),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *generationRepository) List(ctx context.Context, ownerID uuid.UUID, page models.PageRequest) ([]models.Generation, int64, error) {
	q := r.db.WithContext(ctx).Model(&models.Generation{}).Where("owner_id = ?", ownerID).Session(&gorm.Session{})

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var rows []models.Generation
	if err := q.Order(page.OrderClause()).Offset(page.Offset()).Limit(page.Limit).Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}
