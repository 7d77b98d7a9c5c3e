package store

import (
	"context"
	"fmt"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/dkeye/chatio/internal/domain"
)

// SubscriptionRecord is the durable shape of a push subscription. The unique
// composite index enforces the (endpoint, username, room) invariant at the
// schema level too.
type SubscriptionRecord struct {
	ID        uint   `gorm:"primaryKey"`
	Endpoint  string `gorm:"uniqueIndex:idx_subscription_key;not null"`
	P256DH    string `gorm:"column:p256dh;not null"`
	Auth      string `gorm:"not null"`
	Username  string `gorm:"uniqueIndex:idx_subscription_key;not null"`
	Room      string `gorm:"uniqueIndex:idx_subscription_key;not null"`
	CreatedAt time.Time
}

// MessageRecord is the persisted chat line. Write-only here; history reads
// belong to a different surface.
type MessageRecord struct {
	ID        uint   `gorm:"primaryKey"`
	Username  string `gorm:"not null"`
	Time      string `gorm:"not null"`
	Message   string `gorm:"not null"`
	Room      string `gorm:"index;not null"`
	CreatedAt time.Time
}

// Open opens (or creates) the SQLite database and migrates the schema.
func Open(path string) (*gorm.DB, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}
	if err := db.AutoMigrate(&SubscriptionRecord{}, &MessageRecord{}); err != nil {
		return nil, fmt.Errorf("migrate schema: %w", err)
	}
	return db, nil
}

// SQLiteSubscriptions is the durable subscription backing: entries survive a
// restart and every notify pass queries the current table.
type SQLiteSubscriptions struct {
	db *gorm.DB
}

func NewSQLiteSubscriptions(db *gorm.DB) *SQLiteSubscriptions {
	return &SQLiteSubscriptions{db: db}
}

func (s *SQLiteSubscriptions) Register(ctx context.Context, sub domain.Subscription) (bool, error) {
	var count int64
	err := s.db.WithContext(ctx).
		Model(&SubscriptionRecord{}).
		Where("endpoint = ? AND username = ? AND room = ?", sub.Endpoint, sub.Username, sub.Room).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	if count > 0 {
		return false, nil
	}
	record := SubscriptionRecord{
		Endpoint: sub.Endpoint,
		P256DH:   sub.P256DH,
		Auth:     sub.Auth,
		Username: sub.Username,
		Room:     sub.Room,
	}
	return true, s.db.WithContext(ctx).Create(&record).Error
}

func (s *SQLiteSubscriptions) Deregister(ctx context.Context, key domain.SubscriptionKey) error {
	return s.db.WithContext(ctx).
		Where("endpoint = ? AND username = ? AND room = ?", key.Endpoint, key.Username, key.Room).
		Delete(&SubscriptionRecord{}).Error
}

func (s *SQLiteSubscriptions) DeregisterAll(ctx context.Context, username, room string) error {
	return s.db.WithContext(ctx).
		Where("username = ? AND room = ?", username, room).
		Delete(&SubscriptionRecord{}).Error
}

func (s *SQLiteSubscriptions) All(ctx context.Context) ([]domain.Subscription, error) {
	var records []SubscriptionRecord
	if err := s.db.WithContext(ctx).Find(&records).Error; err != nil {
		return nil, err
	}
	out := make([]domain.Subscription, 0, len(records))
	for _, r := range records {
		out = append(out, domain.Subscription{
			Endpoint: r.Endpoint,
			P256DH:   r.P256DH,
			Auth:     r.Auth,
			Username: r.Username,
			Room:     r.Room,
		})
	}
	return out, nil
}

// SQLiteMessages is the persistence collaborator for chat messages.
type SQLiteMessages struct {
	db *gorm.DB
}

func NewSQLiteMessages(db *gorm.DB) *SQLiteMessages {
	return &SQLiteMessages{db: db}
}

func (s *SQLiteMessages) SaveMessage(ctx context.Context, msg domain.ChatMessage) error {
	record := MessageRecord{
		Username: msg.Username,
		Time:     msg.FormattedAt(),
		Message:  msg.Text,
		Room:     msg.Room,
	}
	return s.db.WithContext(ctx).Create(&record).Error
}
