package services

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/darzee/imagehub-backend/internal/logger"
	"github.com/darzee/imagehub-backend/internal/repos"
	"github.com/darzee/imagehub-backend/internal/types"
	"github.com/darzee/imagehub-backend/internal/upstream"
)

type SyncStats struct {
	Total   int            `json:"total"`
	Created int            `json:"created"`
	Updated int            `json:"updated"`
	Failed  int            `json:"failed"`
	Errors  []ExtractError `json:"errors,omitempty"`
}

type SyncService interface {
	// SyncUpstream pulls rows from the upstream database and upserts them into
	// the local tailors table, keyed by upstream id.
	SyncUpstream(ctx context.Context, limit int) (*SyncStats, error)
}

type syncService struct {
	db         *gorm.DB
	log        *logger.Logger
	tailorRepo repos.TailorRepo
	upstream   upstream.Client
}

func NewSyncService(db *gorm.DB, log *logger.Logger, tailorRepo repos.TailorRepo, upstreamClient upstream.Client) SyncService {
	return &syncService{
		db:         db,
		log:        log.With("service", "SyncService"),
		tailorRepo: tailorRepo,
		upstream:   upstreamClient,
	}
}

func (s *syncService) SyncUpstream(ctx context.Context, limit int) (*SyncStats, error) {
	if s.upstream == nil {
		return nil, fmt.Errorf("upstream client not configured")
	}

	rows, err := s.upstream.FetchTailors(ctx, limit)
	if err != nil {
		return &SyncStats{}, fmt.Errorf("fetch upstream tailors: %w", err)
	}

	stats := &SyncStats{Total: len(rows)}
	for _, row := range rows {
		created, err := s.syncRow(ctx, row)
		if err != nil {
			s.log.Warn("Failed to sync upstream row", "upstream_id", row.ID, "error", err)
			stats.Failed++
			stats.Errors = append(stats.Errors, ExtractError{
				DocumentID: row.ID,
				Error:      err.Error(),
			})
			continue
		}
		if created {
			stats.Created++
		} else {
			stats.Updated++
		}
	}
	return stats, nil
}

func (s *syncService) syncRow(ctx context.Context, row upstream.TailorRow) (bool, error) {
	existing, err := s.tailorRepo.GetByUpstreamID(ctx, nil, row.ID)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return false, fmt.Errorf("lookup local tailor: %w", err)
	}

	if existing != nil {
		fields := map[string]interface{}{
			"name":         row.Name,
			"email":        row.Email,
			"phone_number": row.PhoneNumber,
			"status":       row.Status,
		}
		for _, col := range upstream.JSONFieldColumns {
			if raw, ok := row.JSONFields[col]; ok && len(raw) > 0 {
				fields[col] = datatypes.JSON(raw)
			}
		}
		if err := s.tailorRepo.UpdateFields(ctx, nil, existing.ID, fields); err != nil {
			return false, err
		}
		return false, nil
	}

	tailor := &types.Tailor{
		UpstreamID:  row.ID,
		Name:        row.Name,
		Email:       row.Email,
		PhoneNumber: row.PhoneNumber,
		Status:      row.Status,
	}
	for _, col := range upstream.JSONFieldColumns {
		raw, ok := row.JSONFields[col]
		if !ok || len(raw) == 0 {
			continue
		}
		switch col {
		case "boutique_items":
			tailor.BoutiqueItems = datatypes.JSON(raw)
		case "profile":
			tailor.Profile = datatypes.JSON(raw)
		case "alterations":
			tailor.Alterations = datatypes.JSON(raw)
		case "tailorings":
			tailor.Tailorings = datatypes.JSON(raw)
		case "rents":
			tailor.Rents = datatypes.JSON(raw)
		}
	}

	if _, err := s.tailorRepo.Create(ctx, nil, []*types.Tailor{tailor}); err != nil {
		return false, err
	}
	return true, nil
}
