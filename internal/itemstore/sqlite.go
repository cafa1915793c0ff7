package itemstore

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"time"

	"gorm.io/datatypes"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/InfinitIQFlow/AltDump/internal/model"
	"github.com/InfinitIQFlow/AltDump/internal/vaulterr"
)

// itemRow is the GORM row for vault/items.db. Indexed on id (primary key),
// hash and created_at.
type itemRow struct {
	ID             string         `gorm:"column:id;primaryKey"`
	Kind           string         `gorm:"column:kind;not null"`
	Category       string         `gorm:"column:category;not null;index"`
	Title          string         `gorm:"column:title"`
	Content        *string        `gorm:"column:content"`
	BlobRef        *string        `gorm:"column:blob_ref"`
	Hash           *string        `gorm:"column:hash;index"`
	MimeType       string         `gorm:"column:mime_type"`
	CreatedAt      time.Time      `gorm:"column:created_at;index"`
	UpdatedAt      time.Time      `gorm:"column:updated_at"`
	Metadata       datatypes.JSON `gorm:"column:metadata"`
	SearchableText string         `gorm:"column:searchable_text"`
}

func (itemRow) TableName() string { return "items" }

// SQLiteStore is the primary, durable item index implementation, backed by
// a local sqlite file via GORM. MemoryStore in memory.go is kept alongside
// it for tests that don't need disk durability.
type SQLiteStore struct {
	db *gorm.DB
	mu sync.Mutex // serialises writers
}

// NewSQLiteStore opens (creating if needed) the sqlite database at path.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, vaulterr.Wrap(vaulterr.ErrIOError, err)
	}
	if err := db.AutoMigrate(&itemRow{}); err != nil {
		return nil, vaulterr.Wrap(vaulterr.ErrIOError, err)
	}
	return &SQLiteStore{db: db}, nil
}

func toRow(i model.Item) (itemRow, error) {
	md, err := json.Marshal(i.Metadata)
	if err != nil {
		return itemRow{}, err
	}
	return itemRow{
		ID:             i.ID,
		Kind:           string(i.Kind),
		Category:       string(i.Category),
		Title:          i.Title,
		Content:        i.Content,
		BlobRef:        i.BlobRef,
		Hash:           i.Hash,
		MimeType:       i.MimeType,
		CreatedAt:      i.CreatedAt,
		UpdatedAt:      i.UpdatedAt,
		Metadata:       datatypes.JSON(md),
		SearchableText: i.SearchableText,
	}, nil
}

func fromRow(r itemRow) (model.Item, error) {
	md := model.Metadata{}
	if len(r.Metadata) > 0 {
		if err := json.Unmarshal(r.Metadata, &md); err != nil {
			return model.Item{}, err
		}
	}
	return model.Item{
		ID:             r.ID,
		Kind:           model.Kind(r.Kind),
		Category:       model.Category(r.Category),
		Title:          r.Title,
		Content:        r.Content,
		BlobRef:        r.BlobRef,
		Hash:           r.Hash,
		MimeType:       r.MimeType,
		CreatedAt:      r.CreatedAt,
		UpdatedAt:      r.UpdatedAt,
		Metadata:       md,
		SearchableText: r.SearchableText,
	}, nil
}

func (s *SQLiteStore) Insert(ctx context.Context, item model.Item) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	row, err := toRow(item)
	if err != nil {
		return vaulterr.Wrap(vaulterr.ErrIOError, err)
	}
	if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
		if isUniqueConstraintErr(err) {
			return vaulterr.Wrap(vaulterr.ErrDuplicateID, err)
		}
		return vaulterr.Wrap(vaulterr.ErrIOError, err)
	}
	return nil
}

func (s *SQLiteStore) Get(ctx context.Context, id string) (model.Item, error) {
	var row itemRow
	err := s.db.WithContext(ctx).Where("id = ?", id).Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return model.Item{}, vaulterr.Wrap(vaulterr.ErrNotFound, err)
	}
	if err != nil {
		return model.Item{}, vaulterr.Wrap(vaulterr.ErrIOError, err)
	}
	return fromRow(row)
}

func (s *SQLiteStore) List(ctx context.Context) ([]model.Item, error) {
	var rows []itemRow
	if err := s.db.WithContext(ctx).Order("created_at desc").Find(&rows).Error; err != nil {
		return nil, vaulterr.Wrap(vaulterr.ErrIOError, err)
	}
	out := make([]model.Item, 0, len(rows))
	for _, r := range rows {
		item, err := fromRow(r)
		if err != nil {
			return nil, vaulterr.Wrap(vaulterr.ErrCorruption, err)
		}
		out = append(out, item)
	}
	return out, nil
}

func (s *SQLiteStore) Update(ctx context.Context, id string, patch model.Patch) (model.Item, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var row itemRow
	err := s.db.WithContext(ctx).Where("id = ?", id).Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return model.Item{}, vaulterr.Wrap(vaulterr.ErrNotFound, err)
	}
	if err != nil {
		return model.Item{}, vaulterr.Wrap(vaulterr.ErrIOError, err)
	}

	current, err := fromRow(row)
	if err != nil {
		return model.Item{}, vaulterr.Wrap(vaulterr.ErrCorruption, err)
	}

	if patch.Title != nil {
		current.Title = *patch.Title
	}
	if patch.Category != nil {
		current.Category = *patch.Category
	}
	if patch.Metadata != nil {
		current.Metadata = model.ApplyMetadata(current.Metadata, patch.Metadata)
	}
	if patch.SearchableText != nil {
		current.SearchableText = *patch.SearchableText
	}
	current.UpdatedAt = time.Now().UTC()

	newRow, err := toRow(current)
	if err != nil {
		return model.Item{}, vaulterr.Wrap(vaulterr.ErrIOError, err)
	}
	if err := s.db.WithContext(ctx).Model(&itemRow{}).Where("id = ?", id).Updates(map[string]interface{}{
		"title":           newRow.Title,
		"category":        newRow.Category,
		"metadata":        newRow.Metadata,
		"searchable_text": newRow.SearchableText,
		"updated_at":      newRow.UpdatedAt,
	}).Error; err != nil {
		return model.Item{}, vaulterr.Wrap(vaulterr.ErrIOError, err)
	}
	return current, nil
}

func (s *SQLiteStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.db.WithContext(ctx).Where("id = ?", id).Delete(&itemRow{}).Error; err != nil {
		return vaulterr.Wrap(vaulterr.ErrIOError, err)
	}
	return nil
}

func (s *SQLiteStore) CountReferences(ctx context.Context, hash string) (int, error) {
	var count int64
	if err := s.db.WithContext(ctx).Model(&itemRow{}).Where("hash = ?", hash).Count(&count).Error; err != nil {
		return 0, vaulterr.Wrap(vaulterr.ErrIOError, err)
	}
	return int(count), nil
}

func (s *SQLiteStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return vaulterr.Wrap(vaulterr.ErrIOError, err)
	}
	return sqlDB.Close()
}

func isUniqueConstraintErr(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") || strings.Contains(msg, "constraint failed: UNIQUE")
}

var _ Store = (*SQLiteStore)(nil)
