package store

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"time"

	"evmwallet/pkg/keys"
	"evmwallet/pkg/models"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// walletDataKey is the fixed slot the single credential lives under.
const walletDataKey = "@wallet_data"

type walletRecord struct {
	gorm.Model
	RecordKey string `gorm:"column:record_key;uniqueIndex"`
	Value     string
}

func (walletRecord) TableName() string { return "wallet_records" }

type transactionRecord struct {
	gorm.Model
	Position    int    `gorm:"index"`
	Hash        string `gorm:"uniqueIndex"`
	FromAddress string
	ToAddress   string
	Value       string
	SentAt      time.Time `gorm:"index"`
	Status      string    `gorm:"index"`
	BlockNumber uint64
	GasUsed     uint64
}

func (transactionRecord) TableName() string { return "transaction_records" }

// SQLiteStore keeps the credential and the transaction history in a local
// SQLite database.
type SQLiteStore struct {
	db *gorm.DB
}

// OpenSQLite opens (creating if needed) the database at path.
func OpenSQLite(path string) (*SQLiteStore, error) {
	dir := filepath.Dir(path)
	if dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return nil, wrap("open", err)
		}
	}

	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, wrap("open", err)
	}
	if err := db.AutoMigrate(&walletRecord{}, &transactionRecord{}); err != nil {
		return nil, wrap("migrate", err)
	}
	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Save(cred keys.Credential) error {
	data, err := json.Marshal(cred)
	if err != nil {
		return wrap("save", err)
	}
	var rec walletRecord
	err = s.db.Where(walletRecord{RecordKey: walletDataKey}).
		Assign(walletRecord{Value: string(data)}).
		FirstOrCreate(&rec).Error
	return wrap("save", err)
}

func (s *SQLiteStore) Load() (*keys.Credential, error) {
	var rec walletRecord
	err := s.db.Where("record_key = ?", walletDataKey).First(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, wrap("load", err)
	}
	var stored keys.Credential
	if err := json.Unmarshal([]byte(rec.Value), &stored); err != nil {
		return nil, wrap("load", ErrCorruptRecord)
	}
	cred, err := decodeCredential(stored)
	if err != nil {
		return nil, wrap("load", err)
	}
	return cred, nil
}

func (s *SQLiteStore) Remove() error {
	err := s.db.Unscoped().Where("record_key = ?", walletDataKey).Delete(&walletRecord{}).Error
	return wrap("remove", err)
}

// SaveHistory replaces the stored history with txs.
func (s *SQLiteStore) SaveHistory(txs []models.Transaction) error {
	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Unscoped().Where("1 = 1").Delete(&transactionRecord{}).Error; err != nil {
			return err
		}
		if len(txs) == 0 {
			return nil
		}
		rows := make([]transactionRecord, len(txs))
		for i, t := range txs {
			rows[i] = transactionRecord{
				Position:    i,
				Hash:        t.Hash,
				FromAddress: t.From,
				ToAddress:   t.To,
				Value:       t.Value,
				SentAt:      t.Timestamp,
				Status:      string(t.Status),
				BlockNumber: t.BlockNumber,
				GasUsed:     t.GasUsed,
			}
		}
		return tx.Create(&rows).Error
	})
	return wrap("save history", err)
}

// LoadHistory returns the stored history, newest first.
func (s *SQLiteStore) LoadHistory() ([]models.Transaction, error) {
	var rows []transactionRecord
	if err := s.db.Order("position asc").Find(&rows).Error; err != nil {
		return nil, wrap("load history", err)
	}
	out := make([]models.Transaction, len(rows))
	for i, r := range rows {
		out[i] = models.Transaction{
			Hash:        r.Hash,
			From:        r.FromAddress,
			To:          r.ToAddress,
			Value:       r.Value,
			Timestamp:   r.SentAt,
			Status:      models.TxStatus(r.Status),
			BlockNumber: r.BlockNumber,
			GasUsed:     r.GasUsed,
		}
	}
	return out, nil
}

func (s *SQLiteStore) ClearHistory() error {
	err := s.db.Unscoped().Where("1 = 1").Delete(&transactionRecord{}).Error
	return wrap("clear history", err)
}

// Close releases the underlying database handle.
func (s *SQLiteStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
