// Package validation checks caller input before any request is built.
package validation

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/gagliardetto/solana-go"
	"github.com/mr-tron/base58"
	"github.com/shopspring/decimal"
)

// MaxLimit is the largest page size the service accepts
const MaxLimit = 1000

// ErrInvalidInput is matched by every validation failure
var ErrInvalidInput = errors.New("invalid input")

// Error describes a rejected argument
type Error struct {
	Field  string
	Value  any
	Reason string
}

func (e *Error) Error() string {
	return fmt.Sprintf("invalid %s %q: %s", e.Field, fmt.Sprint(e.Value), e.Reason)
}

func (e *Error) Is(target error) bool {
	return target == ErrInvalidInput
}

func fail(field string, value any, reason string) error {
	return &Error{Field: field, Value: value, Reason: reason}
}

// First returns the first non-nil error
func First(errs ...error) error {
	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}

// EVMAddress requires a 0x prefixed 20 byte hex address
func EVMAddress(field, addr string) error {
	if addr == "" {
		return fail(field, addr, "required")
	}
	if !strings.HasPrefix(addr, "0x") && !strings.HasPrefix(addr, "0X") {
		return fail(field, addr, "missing 0x prefix")
	}
	if !common.IsHexAddress(addr) {
		return fail(field, addr, "not a 20 byte hex address")
	}
	return nil
}

// OptionalEVMAddress accepts the empty string
func OptionalEVMAddress(field, addr string) error {
	if addr == "" {
		return nil
	}
	return EVMAddress(field, addr)
}

// TxHash requires a 0x prefixed 32 byte hash. Empty is accepted.
func TxHash(field, hash string) error {
	if hash == "" {
		return nil
	}
	b, err := hexutil.Decode(hash)
	if err != nil {
		return fail(field, hash, err.Error())
	}
	if len(b) != common.HashLength {
		return fail(field, hash, fmt.Sprintf("expected %d bytes, got %d", common.HashLength, len(b)))
	}
	return nil
}

// SolanaAddress requires a base58 encoded 32 byte public key
func SolanaAddress(field, addr string) error {
	if addr == "" {
		return fail(field, addr, "required")
	}
	if _, err := solana.PublicKeyFromBase58(addr); err != nil {
		return fail(field, addr, "not a base58 public key")
	}
	return nil
}

func OptionalSolanaAddress(field, addr string) error {
	if addr == "" {
		return nil
	}
	return SolanaAddress(field, addr)
}

// SolanaSignature requires a base58 encoded 64 byte signature. Empty is accepted.
func SolanaSignature(field, sig string) error {
	if sig == "" {
		return nil
	}
	b, err := base58.Decode(sig)
	if err != nil {
		return fail(field, sig, "not base58")
	}
	if len(b) != 64 {
		return fail(field, sig, fmt.Sprintf("expected 64 bytes, got %d", len(b)))
	}
	return nil
}

// TokenID requires a non-negative decimal integer
func TokenID(field, id string) error {
	if id == "" {
		return fail(field, id, "required")
	}
	d, err := decimal.NewFromString(id)
	if err != nil || !d.IsInteger() || d.IsNegative() || strings.ContainsAny(id, ".eE") {
		return fail(field, id, "not a non-negative integer")
	}
	return nil
}

type enum interface {
	~string
	Valid() bool
}

// Enum rejects values outside the closed set of T
func Enum[T enum](field string, v T) error {
	if !v.Valid() {
		return fail(field, string(v), "unsupported value")
	}
	return nil
}

// OptionalEnum accepts the zero value
func OptionalEnum[T enum](field string, v T) error {
	if v == "" {
		return nil
	}
	return Enum(field, v)
}

// Limit requires 1 <= v <= MaxLimit
func Limit(v int) error {
	if v < 1 || v > MaxLimit {
		return fail("limit", v, fmt.Sprintf("must be between 1 and %d", MaxLimit))
	}
	return nil
}

func Page(v int) error {
	if v < 1 {
		return fail("page", v, "must be 1 or greater")
	}
	return nil
}

// Positive requires v > 0
func Positive(field string, v int) error {
	if v <= 0 {
		return fail(field, v, "must be positive")
	}
	return nil
}

// TimeRange rejects start after end when both are set
func TimeRange(start, end time.Time) error {
	if !start.IsZero() && start.Unix() < 0 {
		return fail("start", start.Unix(), "before unix epoch")
	}
	if !end.IsZero() && end.Unix() < 0 {
		return fail("end", end.Unix(), "before unix epoch")
	}
	if !start.IsZero() && !end.IsZero() && start.After(end) {
		return fail("time range", fmt.Sprintf("%d..%d", start.Unix(), end.Unix()), "start is after end")
	}
	return nil
}
