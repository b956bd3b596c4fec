package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	gormlogger "gorm.io/gorm/logger"
)

type CartSlot struct {
	SlotKey   string `gorm:"primaryKey;size:191"`
	Payload   string `gorm:"type:text;not null"`
	UpdatedAt time.Time
}

func (CartSlot) TableName() string {
	return "cart_slots"
}

// OpenSQL opens a gorm connection for the "postgres" or "mysql" driver.
func OpenSQL(driver, dsn string) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch driver {
	case "postgres":
		dialector = postgres.Open(dsn)
	case "mysql":
		dialector = mysql.Open(dsn)
	default:
		return nil, fmt.Errorf("unsupported sql driver %q", driver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open %s connection: %w", driver, err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get sql handle: %w", err)
	}
	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping %s: %w", driver, err)
	}
	return db, nil
}

// SQLKV stores slots as rows of the cart_slots table.
type SQLKV struct {
	db *gorm.DB
}

func NewSQLKV(db *gorm.DB) (*SQLKV, error) {
	if err := db.AutoMigrate(&CartSlot{}); err != nil {
		return nil, fmt.Errorf("failed to migrate cart_slots: %w", err)
	}
	return &SQLKV{db: db}, nil
}

func (s *SQLKV) Get(ctx context.Context, key string) ([]byte, error) {
	var slot CartSlot
	err := s.db.WithContext(ctx).First(&slot, "slot_key = ?", key).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get slot: %w", err)
	}
	return []byte(slot.Payload), nil
}

func (s *SQLKV) Set(ctx context.Context, key string, value []byte) error {
	slot := CartSlot{
		SlotKey:   key,
		Payload:   string(value),
		UpdatedAt: time.Now(),
	}
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "slot_key"}},
		DoUpdates: clause.AssignmentColumns([]string{"payload", "updated_at"}),
	}).Create(&slot).Error
	if err != nil {
		return fmt.Errorf("failed to upsert slot: %w", err)
	}
	return nil
}

func (s *SQLKV) Delete(ctx context.Context, key string) error {
	if err := s.db.WithContext(ctx).Delete(&CartSlot{}, "slot_key = ?", key).Error; err != nil {
		return fmt.Errorf("failed to delete slot: %w", err)
	}
	return nil
}

func (s *SQLKV) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
