package repos

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/darzee/imagehub-backend/internal/logger"
	"github.com/darzee/imagehub-backend/internal/types"
)

type TailorRepo interface {
	Create(ctx context.Context, tx *gorm.DB, tailors []*types.Tailor) ([]*types.Tailor, error)
	GetByID(ctx context.Context, tx *gorm.DB, tailorID uuid.UUID) (*types.Tailor, error)
	GetByUpstreamID(ctx context.Context, tx *gorm.DB, upstreamID string) (*types.Tailor, error)
	GetPage(ctx context.Context, tx *gorm.DB, limit, offset int) ([]*types.Tailor, error)
	UpdateFields(ctx context.Context, tx *gorm.DB, tailorID uuid.UUID, fields map[string]interface{}) error
	MergeExtractedImages(ctx context.Context, tx *gorm.DB, tailorID uuid.UUID, imageIDs []uuid.UUID) error
}

type tailorRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewTailorRepo(db *gorm.DB, baseLog *logger.Logger) TailorRepo {
	repoLog := baseLog.With("repo", "TailorRepo")
	return &tailorRepo{db: db, log: repoLog}
}

func (r *tailorRepo) Create(ctx context.Context, tx *gorm.DB, tailors []*types.Tailor) ([]*types.Tailor, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	if len(tailors) == 0 {
		return []*types.Tailor{}, nil
	}

	if err := transaction.WithContext(ctx).Create(&tailors).Error; err != nil {
		return nil, err
	}
	return tailors, nil
}

func (r *tailorRepo) GetByID(ctx context.Context, tx *gorm.DB, tailorID uuid.UUID) (*types.Tailor, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var result types.Tailor
	if err := transaction.WithContext(ctx).
		Where("id = ?", tailorID).
		First(&result).Error; err != nil {
		return nil, err
	}
	return &result, nil
}

func (r *tailorRepo) GetByUpstreamID(ctx context.Context, tx *gorm.DB, upstreamID string) (*types.Tailor, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var result types.Tailor
	if err := transaction.WithContext(ctx).
		Where("upstream_id = ?", upstreamID).
		First(&result).Error; err != nil {
		return nil, err
	}
	return &result, nil
}

func (r *tailorRepo) GetPage(ctx context.Context, tx *gorm.DB, limit, offset int) ([]*types.Tailor, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	if limit <= 0 {
		limit = 100
	}

	var results []*types.Tailor
	if err := transaction.WithContext(ctx).
		Order("created_at ASC").
		Limit(limit).
		Offset(offset).
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *tailorRepo) UpdateFields(ctx context.Context, tx *gorm.DB, tailorID uuid.UUID, fields map[string]interface{}) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	if len(fields) == 0 {
		return nil
	}

	if err := transaction.WithContext(ctx).
		Model(&types.Tailor{}).
		Where("id = ?", tailorID).
		Updates(fields).Error; err != nil {
		return err
	}
	return nil
}

// MergeExtractedImages unions imageIDs into the tailor's back-reference set.
// Read-merge-write with no optimistic lock; concurrent runs are last-write-wins.
func (r *tailorRepo) MergeExtractedImages(ctx context.Context, tx *gorm.DB, tailorID uuid.UUID, imageIDs []uuid.UUID) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	if len(imageIDs) == 0 {
		return nil
	}

	tailor, err := r.GetByID(ctx, transaction, tailorID)
	if err != nil {
		return fmt.Errorf("load tailor for back-reference merge: %w", err)
	}

	merged := MergeIDSet(tailor.ExtractedImages, imageIDs)
	raw, err := json.Marshal(merged)
	if err != nil {
		return fmt.Errorf("marshal back-reference set: %w", err)
	}

	if err := transaction.WithContext(ctx).
		Model(&types.Tailor{}).
		Where("id = ?", tailorID).
		Update("extracted_images", datatypes.JSON(raw)).Error; err != nil {
		return err
	}
	return nil
}

// MergeIDSet unions newIDs into an existing jsonb array of id strings,
// preserving the existing order and appending unseen ids in input order.
func MergeIDSet(existing datatypes.JSON, newIDs []uuid.UUID) []string {
	var current []string
	if len(existing) > 0 {
		// Tolerate malformed or non-array contents; treat as empty.
		_ = json.Unmarshal(existing, &current)
	}

	seen := make(map[string]bool, len(current)+len(newIDs))
	merged := make([]string, 0, len(current)+len(newIDs))
	for _, id := range current {
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		merged = append(merged, id)
	}
	for _, id := range newIDs {
		s := id.String()
		if seen[s] {
			continue
		}
		seen[s] = true
		merged = append(merged, s)
	}
	return merged
}
