// Package store persists the wallet credential and, for backends that
// support it, the transaction history.
package store

import (
	"errors"
	"fmt"

	"evmwallet/pkg/config"
	"evmwallet/pkg/keys"
	"evmwallet/pkg/models"
)

// ErrCorruptRecord is returned when a stored credential cannot be parsed.
var ErrCorruptRecord = errors.New("stored wallet record is corrupt")

// WalletStore holds at most one credential. Load returns (nil, nil) when
// nothing is stored.
type WalletStore interface {
	Save(cred keys.Credential) error
	Load() (*keys.Credential, error)
	Remove() error
}

// HistoryStore persists the ledger, newest first.
type HistoryStore interface {
	SaveHistory(txs []models.Transaction) error
	LoadHistory() ([]models.Transaction, error)
	ClearHistory() error
}

// StorageError wraps a persistence failure.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

func wrap(op string, err error) error {
	if err == nil {
		return nil
	}
	return &StorageError{Op: op, Err: err}
}

// Open returns the store selected by sc.
func Open(sc config.StoreConfig) (WalletStore, error) {
	path, err := sc.ResolvedPath()
	if err != nil {
		return nil, wrap("open", err)
	}
	switch sc.Backend {
	case "", config.StoreFile:
		return NewFileStore(path), nil
	case config.StoreSQLite:
		s, err := OpenSQLite(path)
		if err != nil {
			return nil, err
		}
		return s, nil
	default:
		return nil, wrap("open", fmt.Errorf("unknown store backend %q", sc.Backend))
	}
}

// decodeCredential re-derives the address from the stored key so a tampered
// address field is never trusted.
func decodeCredential(rec keys.Credential) (*keys.Credential, error) {
	cred, err := keys.ImportFromKey(rec.PrivateKey)
	if err != nil {
		return nil, ErrCorruptRecord
	}
	return &cred, nil
}
