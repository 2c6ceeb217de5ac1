package storage

import (
	"context"
	"errors"
	"fmt"
	"mapshare/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type DBStore struct {
	db *gorm.DB
}

var _ Store = (*DBStore)(nil)

func NewDBStore(db *gorm.DB) *DBStore {
	return &DBStore{db: db}
}

func (s *DBStore) Get(ctx context.Context, key string) (string, error) {
	var item model.StorageItem
	err := s.db.WithContext(ctx).
		Where("storage_key = ?", key).
		First(&item).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", ErrNotFound
	}

	if err != nil {
		return "", fmt.Errorf("failed to read %s: %w", key, err)
	}

	return item.Value, nil
}

func (s *DBStore) Set(ctx context.Context, key, value string) error {
	item := model.StorageItem{Key: key, Value: value}

	err := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "storage_key"}},
			DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
		}).
		Create(&item).Error
	if err != nil {
		return fmt.Errorf("failed to write %s: %w", key, err)
	}

	return nil
}

func (s *DBStore) Delete(ctx context.Context, key string) error {
	err := s.db.WithContext(ctx).
		Where("storage_key = ?", key).
		Delete(&model.StorageItem{}).Error
	if err != nil {
		return fmt.Errorf("failed to delete %s: %w", key, err)
	}

	return nil
}
