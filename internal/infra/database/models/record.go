package models

import (
	"time"
)

// Record is the persisted form of a gallery record. Tags, childImageIds, and
// aiSettings are JSON text columns so the stored field names stay exactly
// those of the collection's wire format. Position preserves collection order
// across load/save.
type Record struct {
	ID            string    `json:"id" gorm:"primaryKey;type:text"`
	Position      int64     `json:"position" gorm:"index;not null"`
	URL           string    `json:"url" gorm:"type:text"`
	Title         string    `json:"title" gorm:"type:text"`
	Description   string    `json:"description" gorm:"type:text"`
	Tags          string    `json:"tags" gorm:"type:text;not null;default:'[]'"`
	AIPrompt      string    `json:"aiPrompt" gorm:"type:text"`
	AIModel       string    `json:"aiModel" gorm:"type:text"`
	AISettings    *string   `json:"aiSettings" gorm:"type:text"`
	UploadDate    time.Time `json:"uploadDate" gorm:"type:timestamp with time zone;not null"`
	Likes         int       `json:"likes" gorm:"not null;default:0"`
	UserID        string    `json:"userId" gorm:"type:text;index"`
	ParentImageID *string   `json:"parentImageId" gorm:"type:text;index"`
	ChildImageIDs string    `json:"childImageIds" gorm:"type:text;not null;default:'[]'"`
	IsPlaceholder bool      `json:"isPlaceholder" gorm:"not null;default:false"`
}

// SchemaMeta carries collection-level metadata, currently only the snapshot
// schema version.
type SchemaMeta struct {
	Key   string `json:"key" gorm:"primaryKey;type:text"`
	Value string `json:"value" gorm:"type:text"`
}
