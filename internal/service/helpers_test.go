package service

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	appErrors "github.com/uok-ict/portal-api/pkg/errors"
	"github.com/uok-ict/portal-api/pkg/mailer"
)

// fakeTxRunner hands the closure a nil tx; the mocks under test never touch
// the handle.
type fakeTxRunner struct {
	err   error
	calls int
}

func (f *fakeTxRunner) Within(_ context.Context, fn func(tx *sqlx.Tx) error) error {
	f.calls++
	if f.err != nil {
		return f.err
	}
	return fn(nil)
}

// fakeMailer records outbound messages.
type fakeMailer struct {
	sent []mailer.Message
	fail bool
}

func (f *fakeMailer) Send(_ context.Context, msg mailer.Message) bool {
	if f.fail {
		return false
	}
	f.sent = append(f.sent, msg)
	return true
}

// scriptedAllocator hands out canned identifiers and secrets so tests can
// assert exact values and call counts.
type scriptedAllocator struct {
	studentNumbers []string
	regNumbers     []string
	secrets        []string
	studentErr     error

	numberCalls int
	regCalls    int
	secretCalls int
}

func (a *scriptedAllocator) NextStudentNumber(context.Context, *sqlx.Tx) (string, error) {
	a.numberCalls++
	if a.studentErr != nil {
		return "", a.studentErr
	}
	if len(a.studentNumbers) > 0 {
		n := a.studentNumbers[0]
		a.studentNumbers = a.studentNumbers[1:]
		return n, nil
	}
	return "26000001", nil
}

func (a *scriptedAllocator) GenerateSecret(length int) string {
	a.secretCalls++
	if len(a.secrets) > 0 {
		s := a.secrets[0]
		a.secrets = a.secrets[1:]
		return s
	}
	return strings.Repeat("x", length)
}

func (a *scriptedAllocator) NewRegNumber() string {
	a.regCalls++
	if len(a.regNumbers) > 0 {
		n := a.regNumbers[0]
		a.regNumbers = a.regNumbers[1:]
		return n
	}
	return "REG0000"
}

// memoryCacheRepo is an in-process CacheRepository used to exercise the
// stats caching path without redis.
type memoryCacheRepo struct {
	entries map[string][]byte
}

func newMemoryCacheRepo() *memoryCacheRepo {
	return &memoryCacheRepo{entries: map[string][]byte{}}
}

func (m *memoryCacheRepo) Get(_ context.Context, key string, dest interface{}) error {
	raw, ok := m.entries[key]
	if !ok {
		return appErrors.ErrCacheMiss
	}
	return json.Unmarshal(raw, dest)
}

func (m *memoryCacheRepo) Set(_ context.Context, key string, value interface{}, _ time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	m.entries[key] = raw
	return nil
}

func (m *memoryCacheRepo) DeleteByPattern(context.Context, string) error {
	m.entries = map[string][]byte{}
	return nil
}

func strPtr(s string) *string { return &s }

func timePtr(t time.Time) *time.Time { return &t }
