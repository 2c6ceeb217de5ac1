package model

import "time"

// StorageItem is one key/value pair of the durable local store.
type StorageItem struct {
	Key       string `gorm:"column:storage_key;primaryKey"`
	Value     string `gorm:"not null"`
	UpdatedAt time.Time
}
