package localcache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/mmdatafocus/dispatch_forms/config"
	"github.com/mmdatafocus/dispatch_forms/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// DraftEntry is one cached draft row.
type DraftEntry struct {
	Namespace string    `gorm:"primaryKey;size:64"`
	FormKind  string    `gorm:"primaryKey;size:16"`
	Payload   string    `gorm:"type:text;not null"`
	UpdatedAt time.Time `gorm:"not null"`
}

func (DraftEntry) TableName() string { return "dispatch_drafts" }

// SQL keeps drafts in the dispatch_drafts table.
type SQL struct {
	db        *gorm.DB
	namespace string
}

// NewSQL migrates the draft table and returns the store.
func NewSQL(ctx context.Context, db *gorm.DB, namespace string) (*SQL, error) {
	if err := db.WithContext(ctx).AutoMigrate(&DraftEntry{}); err != nil {
		return nil, fmt.Errorf("migrate dispatch_drafts: %w", err)
	}
	return &SQL{db: db, namespace: namespace}, nil
}

func (s *SQL) Load(ctx context.Context, kind models.FormKind) (models.DraftRecord, bool) {
	var entry DraftEntry
	err := s.db.WithContext(ctx).
		Where("namespace = ? AND form_kind = ?", s.namespace, string(kind)).
		Take(&entry).Error
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			config.LogError(config.GetLogger(), "localcache", "SQL.Load", "Take", string(kind), err)
		}
		return models.DraftRecord{}, false
	}
	return decodeRecord(kind, []byte(entry.Payload))
}

func (s *SQL) Save(ctx context.Context, kind models.FormKind, rec models.DraftRecord) error {
	data, err := encodeRecord(kind, rec)
	if err != nil {
		return err
	}
	entry := DraftEntry{
		Namespace: s.namespace,
		FormKind:  string(kind),
		Payload:   string(data),
		UpdatedAt: time.Now().UTC(),
	}
	err = s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "namespace"}, {Name: "form_kind"}},
			DoUpdates: clause.AssignmentColumns([]string{"payload", "updated_at"}),
		}).
		Create(&entry).Error
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrSaveFailed, kind, err)
	}
	return nil
}

func (s *SQL) Delete(ctx context.Context, kind models.FormKind) error {
	return s.db.WithContext(ctx).
		Where("namespace = ? AND form_kind = ?", s.namespace, string(kind)).
		Delete(&DraftEntry{}).Error
}
