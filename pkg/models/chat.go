package models

import (
	"time"
)

// ChatTranscript is one assistant exchange, kept in MySQL.
type ChatTranscript struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    string    `gorm:"type:varchar(24);index" json:"userId,omitempty"`
	ClientIP  string    `gorm:"type:varchar(64)" json:"-"`
	Message   string    `gorm:"type:text;not null" json:"message"`
	Reply     string    `gorm:"type:text" json:"reply"`
	Model     string    `gorm:"type:varchar(64)" json:"model"`
	CreatedAt time.Time `gorm:"index" json:"createdAt"`
}

func (ChatTranscript) TableName() string {
	return "chat_transcripts"
}
