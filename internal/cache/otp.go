package cache

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/redis/go-redis/v9"
)

// OTPTTL is how long a login code stays valid after being issued.
const OTPTTL = 5 * time.Minute

// ErrOTPMismatch is returned when the submitted code is absent or wrong.
var ErrOTPMismatch = errors.New("verification code expired or incorrect")

// OTPStore issues and verifies one-time phone login codes.
type OTPStore struct {
	rdb *redis.Client
}

func NewOTPStore(rdb *redis.Client) *OTPStore {
	return &OTPStore{rdb: rdb}
}

func otpKey(phone string) string {
	return "otp:" + phone
}

// Issue generates a 6-digit code for the phone number and stores it with a
// fresh TTL, replacing any previous code.
func (s *OTPStore) Issue(ctx context.Context, phone string) (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1000000))
	if err != nil {
		return "", fmt.Errorf("failed to generate verification code: %w", err)
	}
	code := fmt.Sprintf("%06d", n.Int64())

	if err := s.rdb.Set(ctx, otpKey(phone), code, OTPTTL).Err(); err != nil {
		return "", fmt.Errorf("failed to store verification code: %w", err)
	}
	return code, nil
}

// Verify checks the submitted code and consumes it on success so a code can
// only be used once.
func (s *OTPStore) Verify(ctx context.Context, phone, code string) error {
	stored, err := s.rdb.Get(ctx, otpKey(phone)).Result()
	if errors.Is(err, redis.Nil) {
		return ErrOTPMismatch
	}
	if err != nil {
		return fmt.Errorf("failed to read verification code: %w", err)
	}
	if stored != code {
		return ErrOTPMismatch
	}
	s.rdb.Del(ctx, otpKey(phone))
	return nil
}
