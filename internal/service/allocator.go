package service

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"

	"github.com/jmoiron/sqlx"
)

const secretAlphabet = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// DefaultStudentNumberBase seeds allocation when no student number exists.
const DefaultStudentNumberBase = 26000001

type allocatorApplicationRepo interface {
	MaxStudentNumberTx(ctx context.Context, tx *sqlx.Tx) (int, error)
}

type allocatorUserRepo interface {
	MaxStudentUsernameTx(ctx context.Context, tx *sqlx.Tx) (int, error)
	ExistsUsernameTx(ctx context.Context, tx *sqlx.Tx, username string) (bool, error)
}

// SequenceCounter is any profile store that can report the highest sequence
// recorded for a (category, year) pair.
type SequenceCounter interface {
	MaxSequenceTx(ctx context.Context, tx *sqlx.Tx, category string, year int) (int, error)
}

// Allocator hands out sequential identifiers and random credential secrets.
// Its reads carry no row reservation: two concurrent allocations may compute
// the same value, and the storage-layer uniqueness constraint plus the
// caller's bounded retry restore correctness.
type Allocator struct {
	applications allocatorApplicationRepo
	users        allocatorUserRepo
	base         int
}

// NewAllocator constructs an Allocator. base seeds student-number
// allocation; zero or negative values fall back to the default.
func NewAllocator(applications allocatorApplicationRepo, users allocatorUserRepo, base int) *Allocator {
	if base <= 0 {
		base = DefaultStudentNumberBase
	}
	return &Allocator{applications: applications, users: users, base: base}
}

// NextSequence returns one greater than the highest sequence recorded for
// (category, year), or 1 when none exists.
func (a *Allocator) NextSequence(ctx context.Context, tx *sqlx.Tx, counter SequenceCounter, category string, year int) (int, error) {
	highest, err := counter.MaxSequenceTx(ctx, tx, category, year)
	if err != nil {
		return 0, err
	}
	return highest + 1, nil
}

// NextStudentNumber returns the next free 8-digit student number, seeded at
// the configured base. The candidate is probed upward until no account
// claims that exact numeric handle.
func (a *Allocator) NextStudentNumber(ctx context.Context, tx *sqlx.Tx) (string, error) {
	fromApplications, err := a.applications.MaxStudentNumberTx(ctx, tx)
	if err != nil {
		return "", err
	}
	fromUsers, err := a.users.MaxStudentUsernameTx(ctx, tx)
	if err != nil {
		return "", err
	}

	candidate := fromApplications
	if fromUsers > candidate {
		candidate = fromUsers
	}
	if candidate < a.base-1 {
		candidate = a.base - 1
	}
	candidate++

	for {
		number := FormatStudentNumber(candidate)
		taken, err := a.users.ExistsUsernameTx(ctx, tx, number)
		if err != nil {
			return "", err
		}
		if !taken {
			return number, nil
		}
		candidate++
	}
}

// GenerateSecret returns a random alphanumeric string for one-time display.
// It is not guaranteed unique.
func (a *Allocator) GenerateSecret(length int) string {
	if length <= 0 {
		length = 10
	}
	out := make([]byte, length)
	alphabetLen := big.NewInt(int64(len(secretAlphabet)))
	for i := range out {
		n, err := rand.Int(rand.Reader, alphabetLen)
		if err != nil {
			// crypto/rand only fails when the OS entropy source is
			// broken; there is no useful recovery.
			panic(fmt.Sprintf("secret generation: %v", err))
		}
		out[i] = secretAlphabet[n.Int64()]
	}
	return string(out)
}

// NewRegNumber returns a REG#### reference code. Collisions with existing
// codes are possible and handled by the caller's probe-and-retry.
func (a *Allocator) NewRegNumber() string {
	n, err := rand.Int(rand.Reader, big.NewInt(10000))
	if err != nil {
		panic(fmt.Sprintf("reference code generation: %v", err))
	}
	return fmt.Sprintf("REG%04d", n.Int64())
}

// FormatStudentNumber renders the fixed 8-digit zero-padded form.
func FormatStudentNumber(n int) string {
	return fmt.Sprintf("%08d", n)
}

// FormatSequencedID renders the {PREFIX}{YY}-{SEQ:03d} handle used for
// staff and lecturer appointments.
func FormatSequencedID(prefix string, year, sequence int) string {
	return fmt.Sprintf("%s%02d-%03d", prefix, year%100, sequence)
}
