package repos

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/darzee/imagehub-backend/internal/logger"
	"github.com/darzee/imagehub-backend/internal/types"
)

type ImageRepo interface {
	Create(ctx context.Context, tx *gorm.DB, images []*types.Image) ([]*types.Image, error)
	GetByID(ctx context.Context, tx *gorm.DB, imageID uuid.UUID) (*types.Image, error)
	GetPage(ctx context.Context, tx *gorm.DB, limit, offset int) ([]*types.Image, error)
	ExistsBySourceURL(ctx context.Context, tx *gorm.DB, sourceURL string) (bool, error)
	FindDuplicateSourceURLs(ctx context.Context, tx *gorm.DB) ([]DuplicateSourceURL, error)
}

// DuplicateSourceURL reports a source_url that produced more than one managed
// asset (the accepted race between concurrent ingestion runs).
type DuplicateSourceURL struct {
	SourceURL string `json:"source_url"`
	Count     int64  `json:"count"`
}

type imageRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewImageRepo(db *gorm.DB, baseLog *logger.Logger) ImageRepo {
	repoLog := baseLog.With("repo", "ImageRepo")
	return &imageRepo{db: db, log: repoLog}
}

func (r *imageRepo) Create(ctx context.Context, tx *gorm.DB, images []*types.Image) ([]*types.Image, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	if len(images) == 0 {
		return []*types.Image{}, nil
	}

	if err := transaction.WithContext(ctx).Create(&images).Error; err != nil {
		return nil, err
	}
	return images, nil
}

func (r *imageRepo) GetByID(ctx context.Context, tx *gorm.DB, imageID uuid.UUID) (*types.Image, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var result types.Image
	if err := transaction.WithContext(ctx).
		Where("id = ?", imageID).
		First(&result).Error; err != nil {
		return nil, err
	}
	return &result, nil
}

func (r *imageRepo) GetPage(ctx context.Context, tx *gorm.DB, limit, offset int) ([]*types.Image, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	if limit <= 0 {
		limit = 100
	}

	var results []*types.Image
	if err := transaction.WithContext(ctx).
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *imageRepo) ExistsBySourceURL(ctx context.Context, tx *gorm.DB, sourceURL string) (bool, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var count int64
	if err := transaction.WithContext(ctx).
		Model(&types.Image{}).
		Where("source_url = ?", sourceURL).
		Limit(1).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *imageRepo) FindDuplicateSourceURLs(ctx context.Context, tx *gorm.DB) ([]DuplicateSourceURL, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var results []DuplicateSourceURL
	if err := transaction.WithContext(ctx).
		Model(&types.Image{}).
		Select("source_url, COUNT(*) AS count").
		Group("source_url").
		Having("COUNT(*) > 1").
		Order("count DESC").
		Scan(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}
