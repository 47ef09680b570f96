package repository

import (
	"context"
	"fmt"

	"github.com/example/gemora/pkg/config"
	"github.com/example/gemora/pkg/models"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// ChatHistoryRepository keeps assistant transcripts in MySQL.
type ChatHistoryRepository struct {
	db *gorm.DB
}

func NewChatHistoryRepository(cfg *config.MySQLConfig) (*ChatHistoryRepository, error) {
	db, err := gorm.Open(mysql.Open(cfg.DSN()), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mysql: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)

	return NewChatHistoryRepositoryFromDB(db), nil
}

func NewChatHistoryRepositoryFromDB(db *gorm.DB) *ChatHistoryRepository {
	return &ChatHistoryRepository{db: db}
}

func (r *ChatHistoryRepository) AutoMigrate() error {
	return r.db.AutoMigrate(&models.ChatTranscript{})
}

func (r *ChatHistoryRepository) SaveTranscript(ctx context.Context, t *models.ChatTranscript) error {
	return r.db.WithContext(ctx).Create(t).Error
}

func (r *ChatHistoryRepository) RecentTranscripts(ctx context.Context, userID string, limit int) ([]models.ChatTranscript, error) {
	transcripts := []models.ChatTranscript{}
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Limit(limit).
		Find(&transcripts).Error
	return transcripts, err
}

func (r *ChatHistoryRepository) Ping(ctx context.Context) error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func (r *ChatHistoryRepository) Close() error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
