package otp

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/redis/go-redis/v9"
)

var (
	ErrNotFound = errors.New("no pending OTP for this user")
	ErrMismatch = errors.New("OTP code does not match")
)

// Store keeps live verification codes in Redis under a TTL. Keys are
// otp:<userID>:<purpose> so a fresh code always replaces the previous one.
type Store struct {
	client *redis.Client
	ttl    time.Duration
}

func NewStore(client *redis.Client, ttl time.Duration) *Store {
	return &Store{client: client, ttl: ttl}
}

func key(userID, purpose string) string {
	return fmt.Sprintf("otp:%s:%s", userID, purpose)
}

// Generate mints a 6-digit code and stores it with the configured TTL.
func (s *Store) Generate(ctx context.Context, userID, purpose string) (string, error) {
	code, err := randomCode(6)
	if err != nil {
		return "", err
	}
	if err := s.client.Set(ctx, key(userID, purpose), code, s.ttl).Err(); err != nil {
		return "", fmt.Errorf("failed to store OTP: %w", err)
	}
	return code, nil
}

// Verify checks the submitted code and consumes it on success.
func (s *Store) Verify(ctx context.Context, userID, purpose, code string) error {
	k := key(userID, purpose)
	stored, err := s.client.Get(ctx, k).Result()
	if errors.Is(err, redis.Nil) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to read OTP: %w", err)
	}
	if stored != code {
		return ErrMismatch
	}
	return s.client.Del(ctx, k).Err()
}

func randomCode(digits int) (string, error) {
	max := big.NewInt(1)
	for i := 0; i < digits; i++ {
		max.Mul(max, big.NewInt(10))
	}
	n, err := rand.Int(rand.Reader, max)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%0*d", digits, n), nil
}
