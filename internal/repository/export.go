package repository

import (
	"mapshare/internal/model"

	"gorm.io/gorm"
)

type ExportRepository struct {
	db *gorm.DB
}

func NewExportRepository(db *gorm.DB) *ExportRepository {
	return &ExportRepository{db: db}
}

func (r *ExportRepository) Save(export *model.Export) error {
	return r.db.Create(export).Error
}

func (r *ExportRepository) GetRecent(limit int) ([]model.Export, error) {
	var exports []model.Export
	result := r.db.
		Order("exported_at desc").
		Limit(limit).
		Find(&exports)

	return exports, result.Error
}

func (r *ExportRepository) GetByUUID(id string) (model.Export, error) {
	var export model.Export
	return export, r.db.Where("uuid = ?", id).First(&export).Error
}

func (r *ExportRepository) GetLatestSuccess(handler, name string) (model.Export, error) {
	var export model.Export
	result := r.db.
		Where("handler = ? AND name = ? AND status = ?", handler, name, model.ExportSuccess).
		Order("exported_at desc").
		First(&export)

	return export, result.Error
}
