package model

import (
	"time"

	"gorm.io/gorm"
)

type ExportStatus string

const (
	ExportSuccess ExportStatus = "SUCCESS"
	ExportFailed  ExportStatus = "FAILED"
)

type Export struct {
	gorm.Model
	UUID       string       `gorm:"uniqueIndex;not null" json:"uuid"`
	Handler    string       `gorm:"not null" json:"handler"`
	Name       string       `gorm:"not null" json:"name"`
	Path       string       `json:"path"`
	URL        string       `json:"url"`
	Status     ExportStatus `gorm:"not null" json:"status"`
	ErrMsg     string       `json:"err_msg,omitempty"`
	ExportedAt time.Time    `gorm:"not null" json:"exported_at"`
}
