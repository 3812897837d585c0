package models

import "time"

// CollectionRecord is one persisted collection snapshot keyed by
// "<namespace>:<session>:<collection>".
type CollectionRecord struct {
	Key       string    `gorm:"column:record_key;primaryKey"`
	Payload   string    `gorm:"column:payload;not null"`
	UpdatedAt time.Time `gorm:"column:updated_at;not null"`
}

func (CollectionRecord) TableName() string {
	return "collection_records"
}
