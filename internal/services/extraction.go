package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/darzee/imagehub-backend/internal/extractor"
	"github.com/darzee/imagehub-backend/internal/logger"
	"github.com/darzee/imagehub-backend/internal/repos"
	"github.com/darzee/imagehub-backend/internal/types"
	"github.com/darzee/imagehub-backend/internal/upstream"
)

// ExtractRunParams selects what a run covers. TailorID narrows the run to a
// single document; Limit caps how many documents are visited (0 = all).
type ExtractRunParams struct {
	Collection string
	TailorID   *uuid.UUID
	Limit      int
}

type ExtractError struct {
	DocumentID string `json:"document_id,omitempty"`
	URL        string `json:"url,omitempty"`
	Error      string `json:"error"`
}

type ExtractStats struct {
	DocumentsProcessed int            `json:"documents_processed"`
	ReferencesFound    int            `json:"references_found"`
	ImagesCreated      int            `json:"images_created"`
	ImagesFailed       int            `json:"images_failed"`
	Errors             []ExtractError `json:"errors,omitempty"`
}

type InspectDocument struct {
	ID         string                           `json:"id"`
	Name       string                           `json:"name,omitempty"`
	References map[string][]extractor.Reference `json:"references"`
}

type InspectReport struct {
	DocumentsInspected int               `json:"documents_inspected"`
	TotalReferences    int               `json:"total_references"`
	ReferencesByField  map[string]int    `json:"references_by_field"`
	Documents          []InspectDocument `json:"documents"`
}

type ExtractionService interface {
	// ExtractCollection runs the full pipeline over local source documents.
	ExtractCollection(ctx context.Context, params ExtractRunParams) (*ExtractStats, error)
	// ExtractUpstream runs the pipeline straight off upstream rows, without a
	// prior sync. No back-references are written (the rows are not local).
	ExtractUpstream(ctx context.Context, limit int) (*ExtractStats, error)
	// Inspect reports discovered references without downloading or creating
	// anything.
	Inspect(ctx context.Context, limit int) (*InspectReport, error)
}

type extractionService struct {
	db         *gorm.DB
	log        *logger.Logger
	tailorRepo repos.TailorRepo
	imageRepo  repos.ImageRepo
	bucket     BucketService
	scanner    *extractor.Scanner
	downloader *extractor.Downloader
	upstream   upstream.Client
	pageSize   int
}

func NewExtractionService(
	db *gorm.DB,
	log *logger.Logger,
	tailorRepo repos.TailorRepo,
	imageRepo repos.ImageRepo,
	bucket BucketService,
	scanner *extractor.Scanner,
	downloader *extractor.Downloader,
	upstreamClient upstream.Client,
) ExtractionService {
	return &extractionService{
		db:         db,
		log:        log.With("service", "ExtractionService"),
		tailorRepo: tailorRepo,
		imageRepo:  imageRepo,
		bucket:     bucket,
		scanner:    scanner,
		downloader: downloader,
		upstream:   upstreamClient,
		pageSize:   200,
	}
}

// sourceDocument is the pipeline's view of one document regardless of where
// it came from. localID is set for rows in the local store and enables the
// back-reference merge.
type sourceDocument struct {
	id      string
	name    string
	fields  []sourceField
	localID *uuid.UUID
}

type sourceField struct {
	name string
	raw  []byte
}

func (s *extractionService) ExtractCollection(ctx context.Context, params ExtractRunParams) (*ExtractStats, error) {
	collection := params.Collection
	if collection == "" {
		collection = "tailors"
	}
	if collection != "tailors" {
		return nil, fmt.Errorf("unknown source collection %q", collection)
	}

	stats := &ExtractStats{}

	if params.TailorID != nil {
		tailor, err := s.tailorRepo.GetByID(ctx, nil, *params.TailorID)
		if err != nil {
			return stats, fmt.Errorf("load tailor %s: %w", params.TailorID, err)
		}
		s.processDocument(ctx, collection, localDocument(tailor), stats)
		return stats, nil
	}

	offset := 0
	for {
		pageSize := s.pageSize
		if params.Limit > 0 && params.Limit-stats.DocumentsProcessed < pageSize {
			pageSize = params.Limit - stats.DocumentsProcessed
			if pageSize <= 0 {
				break
			}
		}

		tailors, err := s.tailorRepo.GetPage(ctx, nil, pageSize, offset)
		if err != nil {
			// Fatal-per-run: the document source is unreachable. Return what
			// was aggregated so far.
			return stats, fmt.Errorf("load tailor page at offset %d: %w", offset, err)
		}
		if len(tailors) == 0 {
			break
		}

		for _, tailor := range tailors {
			s.processDocument(ctx, collection, localDocument(tailor), stats)
		}

		offset += len(tailors)
		if len(tailors) < pageSize {
			break
		}
	}

	return stats, nil
}

func (s *extractionService) ExtractUpstream(ctx context.Context, limit int) (*ExtractStats, error) {
	if s.upstream == nil {
		return nil, fmt.Errorf("upstream client not configured")
	}

	rows, err := s.upstream.FetchTailors(ctx, limit)
	if err != nil {
		return &ExtractStats{}, fmt.Errorf("fetch upstream tailors: %w", err)
	}

	stats := &ExtractStats{}
	for _, row := range rows {
		s.processDocument(ctx, "tailors", upstreamDocument(row), stats)
	}
	return stats, nil
}

func (s *extractionService) Inspect(ctx context.Context, limit int) (*InspectReport, error) {
	if limit <= 0 {
		limit = 5
	}

	tailors, err := s.tailorRepo.GetPage(ctx, nil, limit, 0)
	if err != nil {
		return nil, fmt.Errorf("load tailors for inspection: %w", err)
	}

	report := &InspectReport{
		ReferencesByField: make(map[string]int),
		Documents:         make([]InspectDocument, 0, len(tailors)),
	}

	for _, tailor := range tailors {
		doc := localDocument(tailor)
		entry := InspectDocument{
			ID:         doc.id,
			Name:       doc.name,
			References: make(map[string][]extractor.Reference),
		}
		for _, field := range doc.fields {
			value, err := decodeJSONField(field.raw)
			if err != nil || value == nil {
				continue
			}
			refs := s.scanner.ExtractImageURLs(value, field.name)
			if len(refs) == 0 {
				continue
			}
			entry.References[field.name] = refs
			report.ReferencesByField[field.name] += len(refs)
			report.TotalReferences += len(refs)
		}
		report.DocumentsInspected++
		report.Documents = append(report.Documents, entry)
	}

	return report, nil
}

// processDocument runs the scan/ingest pass for one document. Failures inside
// it never abort the run: they are recorded on stats and the next document
// proceeds.
func (s *extractionService) processDocument(ctx context.Context, collection string, doc sourceDocument, stats *ExtractStats) {
	defer func() {
		if r := recover(); r != nil {
			s.log.Error("Document processing panicked", "document_id", doc.id, "panic", r)
			stats.Errors = append(stats.Errors, ExtractError{
				DocumentID: doc.id,
				Error:      fmt.Sprintf("panic: %v", r),
			})
		}
	}()

	stats.DocumentsProcessed++

	var createdIDs []uuid.UUID
	for _, field := range doc.fields {
		value, err := decodeJSONField(field.raw)
		if err != nil {
			s.log.Warn("Skipping malformed JSON field", "document_id", doc.id, "field", field.name, "error", err)
			stats.Errors = append(stats.Errors, ExtractError{
				DocumentID: doc.id,
				Error:      fmt.Sprintf("field %s: %v", field.name, err),
			})
			continue
		}
		if value == nil {
			continue
		}

		refs := s.scanner.ExtractImageURLs(value, field.name)
		stats.ReferencesFound += len(refs)

		for _, ref := range refs {
			created, err := s.processReference(ctx, collection, doc, field.name, ref)
			if err != nil {
				s.log.Warn("Failed to process reference", "document_id", doc.id, "url", ref.URL, "error", err)
				stats.ImagesFailed++
				stats.Errors = append(stats.Errors, ExtractError{
					DocumentID: doc.id,
					URL:        ref.URL,
					Error:      err.Error(),
				})
				continue
			}
			if created != nil {
				stats.ImagesCreated++
				createdIDs = append(createdIDs, created.ID)
			}
		}
	}

	if len(createdIDs) > 0 && doc.localID != nil {
		if err := s.tailorRepo.MergeExtractedImages(ctx, nil, *doc.localID, createdIDs); err != nil {
			s.log.Warn("Failed to merge back-references", "document_id", doc.id, "error", err)
			stats.Errors = append(stats.Errors, ExtractError{
				DocumentID: doc.id,
				Error:      fmt.Sprintf("back-reference merge: %v", err),
			})
		}
	}
}

// processReference moves one reference through
// Discovered -> {SkippedExists | SkippedDownloadFailed | Created}.
// A nil, nil return means the reference was skipped.
func (s *extractionService) processReference(ctx context.Context, collection string, doc sourceDocument, fieldName string, ref extractor.Reference) (*types.Image, error) {
	exists, err := s.imageRepo.ExistsBySourceURL(ctx, nil, ref.URL)
	if err != nil {
		// Inconclusive check: prefer a possible duplicate over halting.
		s.log.Warn("Existence check failed, proceeding as if absent", "url", ref.URL, "error", err)
	}
	if exists {
		return nil, nil
	}

	downloaded := s.downloader.DownloadImage(ctx, ref.URL)
	if downloaded == nil {
		return nil, fmt.Errorf("download failed")
	}

	storageKey := fmt.Sprintf("extracted/%s/%s/%d_%s", collection, doc.id, time.Now().UnixNano(), downloaded.Filename)
	if err := s.bucket.UploadFile(ctx, storageKey, downloaded.MimeType, bytes.NewReader(downloaded.Data)); err != nil {
		return nil, fmt.Errorf("upload payload: %w", err)
	}

	renditionKeys := s.uploadRenditions(ctx, storageKey, downloaded.Data)

	alt := ref.Context["alt"]
	if alt == "" {
		name := doc.name
		if name == "" {
			name = "Item"
		}
		alt = fmt.Sprintf("%s - %s", name, fieldName)
	}

	img := &types.Image{
		Alt:              alt,
		TailorName:       doc.name,
		SourceURL:        ref.URL,
		SourceCollection: collection,
		SourceDocumentID: doc.id,
		JSONPath:         ref.Path,
		ExtractedAt:      time.Now().UTC(),
		IsAutoExtracted:  true,
		StorageKey:       storageKey,
		FileURL:          s.bucket.GetPublicURL(storageKey),
		MimeType:         downloaded.MimeType,
		Filename:         downloaded.Filename,
		SizeBytes:        int64(len(downloaded.Data)),
	}
	if len(renditionKeys) > 0 {
		if raw, err := json.Marshal(renditionKeys); err == nil {
			img.Renditions = datatypes.JSON(raw)
		}
	}

	created, err := s.imageRepo.Create(ctx, nil, []*types.Image{img})
	if err != nil {
		return nil, fmt.Errorf("create image record: %w", err)
	}
	return created[0], nil
}

// uploadRenditions is best-effort: payloads that do not decode (svg, broken
// bytes) simply get no renditions, and an upload failure drops only that
// rendition.
func (s *extractionService) uploadRenditions(ctx context.Context, storageKey string, raw []byte) map[string]string {
	payloads, err := BuildRenditions(raw, DefaultRenditions)
	if err != nil {
		s.log.Debug("Skipping renditions for non-decodable payload", "storage_key", storageKey, "error", err)
		return nil
	}

	keys := make(map[string]string, len(payloads))
	for _, r := range DefaultRenditions {
		data, ok := payloads[r.Name]
		if !ok {
			continue
		}
		key := fmt.Sprintf("%s.%s.jpg", storageKey, r.Name)
		if err := s.bucket.UploadFile(ctx, key, "image/jpeg", bytes.NewReader(data)); err != nil {
			s.log.Warn("Failed to upload rendition", "storage_key", key, "error", err)
			continue
		}
		keys[r.Name] = key
	}
	return keys
}

func localDocument(tailor *types.Tailor) sourceDocument {
	id := tailor.ID
	doc := sourceDocument{
		id:      tailor.ID.String(),
		name:    tailor.Name,
		localID: &id,
	}
	fields := tailor.JSONFields()
	for _, name := range types.JSONFieldNames {
		raw := fields[name]
		if len(raw) == 0 {
			continue
		}
		doc.fields = append(doc.fields, sourceField{name: name, raw: []byte(raw)})
	}
	return doc
}

func upstreamDocument(row upstream.TailorRow) sourceDocument {
	doc := sourceDocument{
		id:   row.ID,
		name: row.Name,
	}
	for _, name := range upstream.JSONFieldColumns {
		raw, ok := row.JSONFields[name]
		if !ok || len(raw) == 0 {
			continue
		}
		doc.fields = append(doc.fields, sourceField{name: name, raw: []byte(raw)})
	}
	return doc
}

// decodeJSONField tolerates SQL NULL and the empty-object/array payloads that
// upstream rows commonly carry.
func decodeJSONField(raw []byte) (interface{}, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return nil, nil
	}
	var value interface{}
	if err := json.Unmarshal(raw, &value); err != nil {
		return nil, err
	}
	return value, nil
}
