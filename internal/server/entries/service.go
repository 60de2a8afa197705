// Package entries is the entry store gateway: the only place the server
// reads and writes yearbook entries. Create validates, uploads the photo and
// inserts the row; List serves newest-first snapshots and never fails.
package entries

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrijs2005/yearbook/internal/common"
	"github.com/dmitrijs2005/yearbook/internal/dbx"
	"github.com/dmitrijs2005/yearbook/internal/feed"
	"github.com/dmitrijs2005/yearbook/internal/logging"
	"github.com/dmitrijs2005/yearbook/internal/models"
	"github.com/dmitrijs2005/yearbook/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/yearbook/internal/server/storage"
)

// User-facing outcomes of Create.
const (
	MsgMissingFields = "Missing required fields"
	MsgUploadFailed  = "Failed to upload image"
	MsgSaveFailed    = "Failed to save entry"
	MsgCreated       = "Entry added successfully!"
	MsgUnexpected    = "An unexpected error occurred"
)

var (
	now     = time.Now
	newUUID = uuid.NewString
)

type Service struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	blobs       storage.BlobStore
	logger      logging.Logger
	cacheTTL    time.Duration

	mu       sync.Mutex
	cached   []models.Entry
	cachedAt time.Time
	valid    bool
	gen      uint64
}

func NewService(db *sql.DB, rm repomanager.RepositoryManager, blobs storage.BlobStore, cacheTTL time.Duration, logger logging.Logger) *Service {
	return &Service{
		db:          db,
		repomanager: rm,
		blobs:       blobs,
		cacheTTL:    cacheTTL,
		logger:      logger.With("module", "entries"),
	}
}

// List returns all entries, newest first. Backend failures are logged and
// yield an empty list. The returned slice is owned by the caller.
func (s *Service) List(ctx context.Context) []models.Entry {
	cached, gen, ok := s.fromCache()
	if ok {
		return cached
	}

	list, err := s.repomanager.Entries(s.db).List(ctx)
	if err != nil {
		s.logger.Error(ctx, "error fetching entries", "error", err)
		return []models.Entry{}
	}

	s.store(list, gen)
	return clone(list)
}

// Create stores a new entry: upload first, then insert. Nothing is inserted
// when validation or the upload fails.
func (s *Service) Create(ctx context.Context, sub models.Submission) (res models.Result) {
	defer func() {
		if p := recover(); p != nil {
			s.logger.Error(ctx, "error in create", "panic", fmt.Sprint(p))
			res = models.Result{Success: false, Message: MsgUnexpected}
		}
	}()

	if err := Validate(sub); err != nil {
		return models.Result{Success: false, Message: MsgMissingFields}
	}

	img := sub.Image
	contentType := img.ContentType
	if contentType == "" {
		contentType = http.DetectContentType(img.Data)
	}
	key := storage.NewKey(now(), img.Filename)

	url, err := s.blobs.Upload(ctx, key, contentType, img.Data)
	if err != nil {
		s.logger.Error(ctx, "error uploading image", "key", key, "error", fmt.Errorf("%w: %w", common.ErrUpload, err))
		return models.Result{Success: false, Message: MsgUploadFailed}
	}

	entry := models.Entry{
		ID:    newUUID(),
		Name:  sub.Name,
		Quote: sub.Quote,
		Image: url,
	}

	err = dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		return s.repomanager.Entries(tx).Create(ctx, &entry)
	})
	if err != nil {
		s.logger.Error(ctx, "error inserting entry", "id", entry.ID, "error", fmt.Errorf("%w: %w", common.ErrInsert, err))
		return models.Result{Success: false, Message: MsgSaveFailed}
	}

	s.Invalidate()
	s.logger.Info(ctx, "entry created", "id", entry.ID, "image", url)
	return models.Result{Success: true, Message: MsgCreated}
}

// Validate reports common.ErrMissingFields when the name, quote or image is
// absent. Whitespace-only text counts as absent.
func Validate(sub models.Submission) error {
	if strings.TrimSpace(sub.Name) == "" || strings.TrimSpace(sub.Quote) == "" || sub.Image.Empty() {
		return common.ErrMissingFields
	}
	return nil
}

// Invalidate drops the cached snapshot so the next List reads the backend.
func (s *Service) Invalidate() {
	s.mu.Lock()
	s.valid = false
	s.cached = nil
	s.gen++
	s.mu.Unlock()
}

// OnEvent is a change feed hook: any row change makes the snapshot stale.
func (s *Service) OnEvent(feed.Event) {
	s.Invalidate()
}

// fromCache also returns the cache generation; a snapshot read under an
// older generation must not be stored.
func (s *Service) fromCache() ([]models.Entry, uint64, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cacheTTL <= 0 || !s.valid || now().Sub(s.cachedAt) >= s.cacheTTL {
		return nil, s.gen, false
	}
	return clone(s.cached), s.gen, true
}

func (s *Service) store(list []models.Entry, gen uint64) {
	if s.cacheTTL <= 0 {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if gen != s.gen {
		return
	}
	s.cached = clone(list)
	s.cachedAt = now()
	s.valid = true
}

func clone(list []models.Entry) []models.Entry {
	out := make([]models.Entry, len(list))
	copy(out, list)
	return out
}
