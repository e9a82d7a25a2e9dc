package repositories

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/vnkhanh/e-flashcard-backend/models"
)

var FlashcardSortColumns = []string{"created_at", "updated_at", "front", "back", "source"}

type FlashcardRepository interface {
	// CreateBatch inserts all cards in one statement; either all rows are written or none.
	CreateBatch(ctx context.Context, cards []models.Flashcard) error
	GetByID(ctx context.Context, ownerID, id uuid.UUID) (*models.Flashcard, error)
	List(ctx context.Context, ownerID uuid.UUID, page models.PageRequest) ([]models.Flashcard, int64, error)
	ListAll(ctx context.Context, ownerID uuid.UUID) ([]models.Flashcard, error)
	Update(ctx context.Context, card *models.Flashcard) error
	Delete(ctx context.Context, ownerID, id uuid.UUID) (bool, error)
}

type flashcardRepository struct {
	db *gorm.DB
}

func NewFlashcardRepository(db *gorm.DB) FlashcardRepository {
	return &flashcardRepository{db: db}
}

func (r *flashcardRepository) CreateBatch(ctx context.Context, cards []models.Flashcard) error {
	if len(cards) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Omit("Generation").Create(&cards).Error
}

func (r *flashcardRepository) GetByID(ctx context.Context, ownerID, id uuid.UUID) (*models.Flashcard, error) {
	var card models.Flashcard
	err := r.db.WithContext(ctx).Where("id = ? AND owner_id = ?", id, ownerID).Take(&card).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &card, nil
}

func (r *flashcardRepository) List(ctx context.Context, ownerID uuid.UUID, page models.PageRequest) ([]models.Flashcard, int64, error) {
	q := r.db.WithContext(ctx).Model(&models.Flashcard{}).Where("owner_id = ?", ownerID).Session(&gorm.Session{})

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var rows []models.Flashcard
	if err := q.Order(page.OrderClause()).Offset(page.Offset()).Limit(page.Limit).Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}

func (r *flashcardRepository) ListAll(ctx context.Context, ownerID uuid.UUID) ([]models.Flashcard, error) {
	var rows []models.Flashcard
	err := r.db.WithContext(ctx).Where("owner_id = ?", ownerID).Order("created_at asc").Find(&rows).Error
	return rows, err
}

func (r *flashcardRepository) Update(ctx context.Context, card *models.Flashcard) error {
	res := r.db.WithContext(ctx).Model(&models.Flashcard{}).
		Where("id = ? AND owner_id = ?", card.ID, card.OwnerID).
		Updates(map[string]interface{}{
			"front":  card.Front,
			"back":   card.Back,
			"source": card.Source,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *flashcardRepository) Delete(ctx context.Context, ownerID, id uuid.UUID) (bool, error) {
	res := r.db.WithContext(ctx).Where("id = ? AND owner_id = ?", id, ownerID).Delete(&models.Flashcard{})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}
