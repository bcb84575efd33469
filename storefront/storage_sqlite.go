package storefront

import (
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
)

type storedCollection struct {
	Key       string `gorm:"primaryKey"`
	Value     []byte
	UpdatedAt time.Time
}

func (storedCollection) TableName() string {
	return "prokolesa_collections"
}

// durable storage backed by a local sqlite database.
// collections stay one JSON blob per key - the database is a durability
// upgrade over flat files, not a relational model of the records.
type SqliteStorage struct {
	db *gorm.DB
}

func NewSqliteStorage(path string) (*SqliteStorage, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, err
	}
	if err := db.AutoMigrate(&storedCollection{}); err != nil {
		return nil, err
	}
	return &SqliteStorage{
		db: db,
	}, nil
}

func (self *SqliteStorage) Read(key string) ([]byte, error) {
	var collection storedCollection
	result := self.db.First(&collection, "key = ?", key)
	if result.Error != nil {
		if result.Error == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, result.Error
	}
	return collection.Value, nil
}

func (self *SqliteStorage) Write(key string, value []byte) error {
	collection := &storedCollection{
		Key:       key,
		Value:     value,
		UpdatedAt: time.Now(),
	}
	result := self.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		UpdateAll: true,
	}).Create(collection)
	return result.Error
}

func (self *SqliteStorage) Remove(key string) error {
	result := self.db.Delete(&storedCollection{}, "key = ?", key)
	return result.Error
}
