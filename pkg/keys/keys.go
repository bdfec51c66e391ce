// Package keys creates and imports the wallet's single signing credential.
package keys

import (
	"crypto/ecdsa"
	"errors"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/rs/zerolog"
)

var ErrInvalidKeyFormat = errors.New("invalid private key format")

// Credential is an account address and its secp256k1 private key in hex.
type Credential struct {
	Address    string `json:"address"`
	PrivateKey string `json:"privateKey"`
}

// String never includes the private key.
func (c Credential) String() string {
	return fmt.Sprintf("Credential{Address: %s}", c.Address)
}

// MarshalZerologObject logs the address only.
func (c Credential) MarshalZerologObject(e *zerolog.Event) {
	e.Str("address", c.Address)
}

// PrivateKeyECDSA parses the stored key for signing.
func (c Credential) PrivateKeyECDSA() (*ecdsa.PrivateKey, error) {
	key, err := crypto.HexToECDSA(strings.TrimPrefix(c.PrivateKey, "0x"))
	if err != nil {
		return nil, ErrInvalidKeyFormat
	}
	return key, nil
}

// CreateNew generates a fresh random key. Entropy failure is unrecoverable.
func CreateNew() Credential {
	key, err := crypto.GenerateKey()
	if err != nil {
		panic(fmt.Sprintf("failed to generate private key: %v", err))
	}
	return fromECDSA(key)
}

// ImportFromKey parses a hex private key, with or without the 0x prefix.
func ImportFromKey(raw string) (Credential, error) {
	clean := strings.TrimSpace(raw)
	clean = strings.TrimPrefix(strings.TrimPrefix(clean, "0x"), "0X")
	key, err := crypto.HexToECDSA(clean)
	if err != nil {
		return Credential{}, ErrInvalidKeyFormat
	}
	return fromECDSA(key), nil
}

func fromECDSA(key *ecdsa.PrivateKey) Credential {
	return Credential{
		Address:    crypto.PubkeyToAddress(key.PublicKey).Hex(),
		PrivateKey: hexutil.Encode(crypto.FromECDSA(key)),
	}
}
