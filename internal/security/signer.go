// Package security signs adapter responses so consumers can verify which
// node produced them, on or off chain.
package security

import (
	"bytes"
	"crypto/ecdsa"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/accounts"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/sirupsen/logrus"
)

// Algorithm names the signing scheme: EIP-191 personal message over keccak256, secp256k1
const Algorithm = "EIP191-KECCAK256-SECP256K1"

var (
	ErrExpired          = errors.New("signature expired")
	ErrInvalidSignature = errors.New("invalid signature")
)

// Signature is the metadata attached to a signed payload
type Signature struct {
	Signer     string `json:"signer"`
	Hash       string `json:"hash"`
	Signature  string `json:"signature"`
	Algorithm  string `json:"algorithm"`
	Timestamp  int64  `json:"timestamp"`
	ValidUntil int64  `json:"validUntil"`
}

// Signed carries the exact bytes that were signed
type Signed struct {
	Payload   json.RawMessage `json:"payload"`
	Signature Signature       `json:"_signature"`
}

// Signer signs payloads with a secp256k1 key
type Signer struct {
	key      *ecdsa.PrivateKey
	address  common.Address
	validity time.Duration
	now      func() time.Time
}

// NewSigner loads a hex encoded private key. An empty key generates an
// ephemeral one, whose address changes on every start.
func NewSigner(hexKey string, validity time.Duration) (*Signer, error) {
	var (
		key *ecdsa.PrivateKey
		err error
	)
	if hexKey == "" {
		key, err = crypto.GenerateKey()
		if err != nil {
			return nil, fmt.Errorf("failed to generate key: %w", err)
		}
		logrus.Warn("No signing key configured, using an ephemeral key")
	} else {
		key, err = crypto.HexToECDSA(strings.TrimPrefix(hexKey, "0x"))
		if err != nil {
			return nil, fmt.Errorf("failed to parse signing key: %w", err)
		}
	}

	return &Signer{
		key:      key,
		address:  crypto.PubkeyToAddress(key.PublicKey),
		validity: validity,
		now:      time.Now,
	}, nil
}

// Address is the Ethereum address consumers verify against
func (s *Signer) Address() common.Address { return s.address }

// Sign marshals payload and signs the result
func (s *Signer) Sign(payload any) (*Signed, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal payload: %w", err)
	}

	hash := accounts.TextHash(data)
	sig, err := crypto.Sign(hash, s.key)
	if err != nil {
		return nil, fmt.Errorf("failed to sign payload: %w", err)
	}

	now := s.now()
	signed := &Signed{
		Payload: data,
		Signature: Signature{
			Signer:    s.address.Hex(),
			Hash:      hexutil.Encode(hash),
			Signature: hexutil.Encode(sig),
			Algorithm: Algorithm,
			Timestamp: now.Unix(),
		},
	}
	if s.validity > 0 {
		signed.Signature.ValidUntil = now.Add(s.validity).Unix()
	}
	return signed, nil
}

// Verify recovers the signer of signed and checks it against the claimed
// address. A zero ValidUntil never expires.
func Verify(signed *Signed, now time.Time) (common.Address, error) {
	meta := signed.Signature
	if meta.ValidUntil > 0 && now.Unix() > meta.ValidUntil {
		return common.Address{}, fmt.Errorf("%w at %s", ErrExpired, time.Unix(meta.ValidUntil, 0).UTC().Format(time.RFC3339))
	}

	hash := accounts.TextHash(signed.Payload)
	claimed, err := hexutil.Decode(meta.Hash)
	if err != nil || !bytes.Equal(claimed, hash) {
		return common.Address{}, fmt.Errorf("%w: payload hash mismatch", ErrInvalidSignature)
	}

	sig, err := hexutil.Decode(meta.Signature)
	if err != nil || len(sig) != crypto.SignatureLength {
		return common.Address{}, fmt.Errorf("%w: malformed signature", ErrInvalidSignature)
	}

	pub, err := crypto.SigToPub(hash, sig)
	if err != nil {
		return common.Address{}, fmt.Errorf("%w: %v", ErrInvalidSignature, err)
	}

	addr := crypto.PubkeyToAddress(*pub)
	if !common.IsHexAddress(meta.Signer) || common.HexToAddress(meta.Signer) != addr {
		return common.Address{}, fmt.Errorf("%w: signed by %s, claimed %s", ErrInvalidSignature, addr.Hex(), meta.Signer)
	}
	return addr, nil
}
