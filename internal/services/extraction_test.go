package services

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/darzee/imagehub-backend/internal/extractor"
	"github.com/darzee/imagehub-backend/internal/logger"
	"github.com/darzee/imagehub-backend/internal/repos"
	"github.com/darzee/imagehub-backend/internal/types"
)

type fakeTailorRepo struct {
	tailors []*types.Tailor
	merges  map[uuid.UUID][]string
}

func newFakeTailorRepo(tailors ...*types.Tailor) *fakeTailorRepo {
	return &fakeTailorRepo{tailors: tailors, merges: map[uuid.UUID][]string{}}
}

func (f *fakeTailorRepo) Create(ctx context.Context, tx *gorm.DB, tailors []*types.Tailor) ([]*types.Tailor, error) {
	f.tailors = append(f.tailors, tailors...)
	return tailors, nil
}

func (f *fakeTailorRepo) GetByID(ctx context.Context, tx *gorm.DB, tailorID uuid.UUID) (*types.Tailor, error) {
	for _, tailor := range f.tailors {
		if tailor.ID == tailorID {
			return tailor, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeTailorRepo) GetByUpstreamID(ctx context.Context, tx *gorm.DB, upstreamID string) (*types.Tailor, error) {
	for _, tailor := range f.tailors {
		if tailor.UpstreamID == upstreamID {
			return tailor, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeTailorRepo) GetPage(ctx context.Context, tx *gorm.DB, limit, offset int) ([]*types.Tailor, error) {
	if offset >= len(f.tailors) {
		return nil, nil
	}
	end := offset + limit
	if end > len(f.tailors) {
		end = len(f.tailors)
	}
	return f.tailors[offset:end], nil
}

func (f *fakeTailorRepo) UpdateFields(ctx context.Context, tx *gorm.DB, tailorID uuid.UUID, fields map[string]interface{}) error {
	return nil
}

func (f *fakeTailorRepo) MergeExtractedImages(ctx context.Context, tx *gorm.DB, tailorID uuid.UUID, imageIDs []uuid.UUID) error {
	tailor, err := f.GetByID(ctx, tx, tailorID)
	if err != nil {
		return err
	}
	merged := repos.MergeIDSet(tailor.ExtractedImages, imageIDs)
	f.merges[tailorID] = merged
	return nil
}

type fakeImageRepo struct {
	images    []*types.Image
	createErr error
}

func (f *fakeImageRepo) Create(ctx context.Context, tx *gorm.DB, images []*types.Image) ([]*types.Image, error) {
	if f.createErr != nil {
		return nil, f.createErr
	}
	for _, img := range images {
		img.ID = uuid.New()
		f.images = append(f.images, img)
	}
	return images, nil
}

func (f *fakeImageRepo) GetByID(ctx context.Context, tx *gorm.DB, imageID uuid.UUID) (*types.Image, error) {
	for _, img := range f.images {
		if img.ID == imageID {
			return img, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeImageRepo) GetPage(ctx context.Context, tx *gorm.DB, limit, offset int) ([]*types.Image, error) {
	return f.images, nil
}

func (f *fakeImageRepo) ExistsBySourceURL(ctx context.Context, tx *gorm.DB, sourceURL string) (bool, error) {
	for _, img := range f.images {
		if img.SourceURL == sourceURL {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeImageRepo) FindDuplicateSourceURLs(ctx context.Context, tx *gorm.DB) ([]repos.DuplicateSourceURL, error) {
	return nil, nil
}

type fakeBucket struct {
	uploads map[string][]byte
}

func newFakeBucket() *fakeBucket {
	return &fakeBucket{uploads: map[string][]byte{}}
}

func (f *fakeBucket) UploadFile(ctx context.Context, key, contentType string, file io.Reader) error {
	data, err := io.ReadAll(file)
	if err != nil {
		return err
	}
	f.uploads[key] = data
	return nil
}

func (f *fakeBucket) DeleteFile(ctx context.Context, key string) error {
	delete(f.uploads, key)
	return nil
}

func (f *fakeBucket) GetPublicURL(key string) string {
	return "https://cdn.test/" + key
}

func extractionLogger(t *testing.T) *logger.Logger {
	t.Helper()
	log, err := logger.New("development")
	if err != nil {
		t.Fatalf("init logger: %v", err)
	}
	return log
}

func imageServer(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/jpeg")
		fmt.Fprintf(w, "payload for %s", r.URL.Path)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func newTestExtractionService(t *testing.T, tailorRepo repos.TailorRepo, imageRepo repos.ImageRepo, bucket BucketService) ExtractionService {
	t.Helper()
	log := extractionLogger(t)
	rules := extractor.DefaultRules()
	return NewExtractionService(
		nil,
		log,
		tailorRepo,
		imageRepo,
		bucket,
		extractor.NewScanner(rules),
		extractor.NewDownloader(log, extractor.DownloaderConfig{}),
		nil,
	)
}

func TestExtractCollectionIngestsAndMergesBackReferences(t *testing.T) {
	srv := imageServer(t)

	priorID := uuid.New()
	priorRaw := fmt.Sprintf(`["%s"]`, priorID)

	tailor := &types.Tailor{
		ID:         uuid.New(),
		UpstreamID: "up-1",
		Name:       "Mira",
		BoutiqueItems: datatypes.JSON([]byte(fmt.Sprintf(
			`[{"name": "Suit", "imageUrl": "%s/uploads/suit.jpg"}, {"name": "Dress", "imageUrl": "%s/uploads/dress.jpg"}]`,
			srv.URL, srv.URL))),
		ExtractedImages: datatypes.JSON([]byte(priorRaw)),
	}

	tailorRepo := newFakeTailorRepo(tailor)
	imageRepo := &fakeImageRepo{}
	bucket := newFakeBucket()
	svc := newTestExtractionService(t, tailorRepo, imageRepo, bucket)

	stats, err := svc.ExtractCollection(context.Background(), ExtractRunParams{})
	if err != nil {
		t.Fatalf("ExtractCollection: %v", err)
	}

	if stats.DocumentsProcessed != 1 {
		t.Fatalf("documents: got %d", stats.DocumentsProcessed)
	}
	if stats.ReferencesFound != 2 {
		t.Fatalf("references: got %d", stats.ReferencesFound)
	}
	if stats.ImagesCreated != 2 {
		t.Fatalf("created: got %d", stats.ImagesCreated)
	}
	if len(bucket.uploads) == 0 {
		t.Fatalf("expected payload uploads")
	}

	merged := tailorRepo.merges[tailor.ID]
	if len(merged) != 3 {
		t.Fatalf("back-reference set: want 3 ids, got %v", merged)
	}
	if merged[0] != priorID.String() {
		t.Fatalf("existing back-reference must be preserved first, got %v", merged)
	}

	for _, img := range imageRepo.images {
		if !img.IsAutoExtracted {
			t.Fatalf("image not marked auto-extracted: %+v", img)
		}
		if img.SourceCollection != "tailors" {
			t.Fatalf("source collection: got %q", img.SourceCollection)
		}
		if img.Alt == "" {
			t.Fatalf("alt must never be empty")
		}
	}
}

func TestExtractCollectionSecondRunCreatesNothing(t *testing.T) {
	srv := imageServer(t)

	tailor := &types.Tailor{
		ID:   uuid.New(),
		Name: "Mira",
		Profile: datatypes.JSON([]byte(fmt.Sprintf(
			`{"avatar": "%s/uploads/avatar.png"}`, srv.URL))),
	}

	tailorRepo := newFakeTailorRepo(tailor)
	imageRepo := &fakeImageRepo{}
	svc := newTestExtractionService(t, tailorRepo, imageRepo, newFakeBucket())

	first, err := svc.ExtractCollection(context.Background(), ExtractRunParams{})
	if err != nil {
		t.Fatalf("first run: %v", err)
	}
	second, err := svc.ExtractCollection(context.Background(), ExtractRunParams{})
	if err != nil {
		t.Fatalf("second run: %v", err)
	}

	if first.ImagesCreated != 1 {
		t.Fatalf("first run created: got %d", first.ImagesCreated)
	}
	if second.ImagesCreated != 0 {
		t.Fatalf("second run must create nothing, got %d", second.ImagesCreated)
	}
	if second.DocumentsProcessed != first.DocumentsProcessed {
		t.Fatalf("document counts differ: %d vs %d", first.DocumentsProcessed, second.DocumentsProcessed)
	}
	if second.ReferencesFound != first.ReferencesFound {
		t.Fatalf("reference counts differ: %d vs %d", first.ReferencesFound, second.ReferencesFound)
	}
}

func TestExtractCollectionFailureIsolation(t *testing.T) {
	srv := imageServer(t)

	broken := &types.Tailor{
		ID:            uuid.New(),
		Name:          "Broken",
		BoutiqueItems: datatypes.JSON([]byte(`{"unterminated": `)),
	}
	healthy := &types.Tailor{
		ID:   uuid.New(),
		Name: "Healthy",
		Profile: datatypes.JSON([]byte(fmt.Sprintf(
			`{"avatar": "%s/uploads/ok.png"}`, srv.URL))),
	}

	tailorRepo := newFakeTailorRepo(broken, healthy)
	imageRepo := &fakeImageRepo{}
	svc := newTestExtractionService(t, tailorRepo, imageRepo, newFakeBucket())

	stats, err := svc.ExtractCollection(context.Background(), ExtractRunParams{})
	if err != nil {
		t.Fatalf("ExtractCollection: %v", err)
	}

	if stats.DocumentsProcessed != 2 {
		t.Fatalf("both documents must be visited, got %d", stats.DocumentsProcessed)
	}
	if stats.ImagesCreated != 1 {
		t.Fatalf("healthy document must still ingest, got %d", stats.ImagesCreated)
	}
	if len(stats.Errors) == 0 {
		t.Fatalf("malformed field must be recorded as an error")
	}
}

func TestExtractCollectionDownloadFailureCountsAsFailed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusGone)
	}))
	t.Cleanup(srv.Close)

	tailor := &types.Tailor{
		ID:   uuid.New(),
		Name: "Mira",
		Profile: datatypes.JSON([]byte(fmt.Sprintf(
			`{"avatar": "%s/uploads/gone.png"}`, srv.URL))),
	}

	tailorRepo := newFakeTailorRepo(tailor)
	imageRepo := &fakeImageRepo{}
	svc := newTestExtractionService(t, tailorRepo, imageRepo, newFakeBucket())

	stats, err := svc.ExtractCollection(context.Background(), ExtractRunParams{})
	if err != nil {
		t.Fatalf("ExtractCollection: %v", err)
	}

	if stats.ImagesFailed != 1 {
		t.Fatalf("failed: got %d", stats.ImagesFailed)
	}
	if stats.ImagesCreated != 0 {
		t.Fatalf("created: got %d", stats.ImagesCreated)
	}
	if len(imageRepo.images) != 0 {
		t.Fatalf("no image row may exist for a failed download")
	}
	if len(tailorRepo.merges) != 0 {
		t.Fatalf("no back-reference merge without created images")
	}
}

func TestExtractCollectionUnknownCollection(t *testing.T) {
	svc := newTestExtractionService(t, newFakeTailorRepo(), &fakeImageRepo{}, newFakeBucket())

	if _, err := svc.ExtractCollection(context.Background(), ExtractRunParams{Collection: "vendors"}); err == nil {
		t.Fatalf("expected error for unknown collection")
	}
}

func TestInspectReportsWithoutIngesting(t *testing.T) {
	tailor := &types.Tailor{
		ID:   uuid.New(),
		Name: "Mira",
		BoutiqueItems: datatypes.JSON([]byte(
			`[{"imageUrl": "https://cdn.shop.io/items/1.jpg"}]`)),
		Rents: datatypes.JSON([]byte(
			`{"gallery": ["https://cdn.shop.io/rents/1.jpg", "https://cdn.shop.io/rents/2.jpg"]}`)),
	}

	tailorRepo := newFakeTailorRepo(tailor)
	imageRepo := &fakeImageRepo{}
	bucket := newFakeBucket()
	svc := newTestExtractionService(t, tailorRepo, imageRepo, bucket)

	report, err := svc.Inspect(context.Background(), 10)
	if err != nil {
		t.Fatalf("Inspect: %v", err)
	}

	if report.DocumentsInspected != 1 {
		t.Fatalf("documents: got %d", report.DocumentsInspected)
	}
	if report.TotalReferences != 3 {
		t.Fatalf("references: got %d", report.TotalReferences)
	}
	if report.ReferencesByField["boutique_items"] != 1 || report.ReferencesByField["rents"] != 2 {
		t.Fatalf("by-field counts: %v", report.ReferencesByField)
	}
	if len(imageRepo.images) != 0 || len(bucket.uploads) != 0 {
		t.Fatalf("inspect must not ingest anything")
	}
}
