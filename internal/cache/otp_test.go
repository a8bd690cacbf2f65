package cache

import (
	"context"
	"regexp"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newTestOTPStore(t *testing.T) (*OTPStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })
	return NewOTPStore(rdb), mr
}

func TestOTPIssueAndVerify(t *testing.T) {
	store, _ := newTestOTPStore(t)
	ctx := context.Background()

	code, err := store.Issue(ctx, "+12065550100")
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}
	if !regexp.MustCompile(`^\d{6}$`).MatchString(code) {
		t.Fatalf("code %q is not six digits", code)
	}

	if err := store.Verify(ctx, "+12065550100", code); err != nil {
		t.Fatalf("Verify failed: %v", err)
	}

	// codes are single-use
	if err := store.Verify(ctx, "+12065550100", code); err != ErrOTPMismatch {
		t.Fatalf("expected ErrOTPMismatch on reuse, got %v", err)
	}
}

func TestOTPWrongCode(t *testing.T) {
	store, _ := newTestOTPStore(t)
	ctx := context.Background()

	code, err := store.Issue(ctx, "+12065550100")
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}

	wrong := "000000"
	if wrong == code {
		wrong = "000001"
	}
	if err := store.Verify(ctx, "+12065550100", wrong); err != ErrOTPMismatch {
		t.Fatalf("expected ErrOTPMismatch, got %v", err)
	}

	// a failed attempt does not consume the code
	if err := store.Verify(ctx, "+12065550100", code); err != nil {
		t.Fatalf("Verify with correct code failed: %v", err)
	}
}

func TestOTPExpiry(t *testing.T) {
	store, mr := newTestOTPStore(t)
	ctx := context.Background()

	code, err := store.Issue(ctx, "+12065550100")
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}

	mr.FastForward(OTPTTL)

	if err := store.Verify(ctx, "+12065550100", code); err != ErrOTPMismatch {
		t.Fatalf("expected ErrOTPMismatch after expiry, got %v", err)
	}
}

func TestOTPReissueReplaces(t *testing.T) {
	store, _ := newTestOTPStore(t)
	ctx := context.Background()

	first, err := store.Issue(ctx, "+12065550100")
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}
	second, err := store.Issue(ctx, "+12065550100")
	if err != nil {
		t.Fatalf("reissue failed: %v", err)
	}

	if first != second {
		if err := store.Verify(ctx, "+12065550100", first); err != ErrOTPMismatch {
			t.Fatalf("expected stale code to be rejected, got %v", err)
		}
	}
	if err := store.Verify(ctx, "+12065550100", second); err != nil {
		t.Fatalf("Verify with latest code failed: %v", err)
	}
}
