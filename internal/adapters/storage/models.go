package storage

import "time"

// CredentialModel is the GORM model for the credentials table.
// One row per fixed credential key.
type CredentialModel struct {
	CreatedAt time.Time
	Key       string `gorm:"primaryKey;column:key"`
	UpdatedAt time.Time
	Value     string `gorm:"not null;default:''"`
}

// TableName specifies the table name for GORM
func (CredentialModel) TableName() string { return "credentials" }
