package ratelimit

import (
	"context"
	"testing"
	"time"
)

func TestNewRateLimiterDefaults(t *testing.T) {
	rl := NewRateLimiter(0, 0)

	if rl.Rate() != 5 {
		t.Errorf("expected default rate 5, got %v", rl.Rate())
	}
	if rl.Burst() != 10 {
		t.Errorf("expected default burst 10, got %v", rl.Burst())
	}
}

func TestNewRateLimiterBurstBelowRate(t *testing.T) {
	rl := NewRateLimiter(10, 3)

	// Burst не может быть меньше rate
	if rl.Burst() != 10 {
		t.Errorf("expected burst clamped to rate, got %v", rl.Burst())
	}
}

func TestAllowConsumesTokens(t *testing.T) {
	rl := NewRateLimiter(1, 3)

	// Полное ведро: 3 отправки проходят сразу
	for i := 0; i < 3; i++ {
		if !rl.Allow() {
			t.Fatalf("Allow() #%d = false, expected true", i+1)
		}
	}

	// Ведро пустое
	if rl.Allow() {
		t.Error("Allow() = true with empty bucket")
	}
}

func TestWaitBlocksUntilRefill(t *testing.T) {
	rl := NewRateLimiter(100, 1)

	if !rl.Allow() {
		t.Fatal("first Allow() should succeed")
	}

	// Следующий токен появится через ~10ms
	start := time.Now()
	if err := rl.Wait(context.Background()); err != nil {
		t.Fatalf("Wait failed: %v", err)
	}
	if elapsed := time.Since(start); elapsed > 200*time.Millisecond {
		t.Errorf("Wait took too long: %v", elapsed)
	}
}

func TestWaitCancelled(t *testing.T) {
	rl := NewRateLimiter(0.001, 1)
	rl.Allow() // опустошаем ведро

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	if err := rl.Wait(ctx); err != context.DeadlineExceeded {
		t.Errorf("expected DeadlineExceeded, got %v", err)
	}
}

func TestTokensRefill(t *testing.T) {
	rl := NewRateLimiter(100, 10)

	for i := 0; i < 10; i++ {
		rl.Allow()
	}
	if rl.Allow() {
		t.Fatal("bucket should be empty")
	}

	time.Sleep(50 * time.Millisecond)

	// За 50ms при rate 100/сек должно накопиться ~5 токенов
	if tokens := rl.Tokens(); tokens < 1 {
		t.Errorf("expected refilled tokens, got %v", tokens)
	}
}

func TestSetRate(t *testing.T) {
	rl := NewRateLimiter(5, 10)

	rl.SetRate(20)
	if rl.Rate() != 20 {
		t.Errorf("expected rate 20, got %v", rl.Rate())
	}

	// Невалидный rate игнорируется
	rl.SetRate(-1)
	if rl.Rate() != 20 {
		t.Errorf("negative rate should be ignored, got %v", rl.Rate())
	}
}
