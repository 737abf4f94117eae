package models

import "time"

// Token is one third-party account credential together with its check-in schedule.
type Token struct {
	ID                uint       `gorm:"primaryKey" json:"id"`
	AccountName       string     `gorm:"size:128;not null" json:"account_name"`
	Token             string     `gorm:"size:512;not null;uniqueIndex:idx_tokens_token" json:"token"`
	NextExecutionTime time.Time  `gorm:"index;not null" json:"next_execution_time"`
	LastExecutionTime *time.Time `json:"last_execution_time"`
	LastResult        *Outcome   `gorm:"type:text;serializer:json" json:"last_result"`
	CreatedAt         time.Time  `json:"created_at"`
	UpdatedAt         time.Time  `json:"updated_at"`
}

// TableName keeps the table name stable regardless of naming strategy.
func (Token) TableName() string { return "tokens" }

// IsDue reports whether the record should be picked up by a scheduler pass at asOf.
func (t *Token) IsDue(asOf time.Time) bool {
	return !t.NextExecutionTime.After(asOf)
}
