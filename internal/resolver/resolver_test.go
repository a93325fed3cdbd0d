package resolver

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"solana-pool-tracker/internal/solana"
)

// fakeRPC scripts GetTransaction responses per call.
type fakeRPC struct {
	calls atomic.Int32
	fn    func(call int32) (*solana.Transaction, error)
}

func (f *fakeRPC) GetTransaction(ctx context.Context, signature string) (*solana.Transaction, error) {
	return f.fn(f.calls.Add(1))
}

func (f *fakeRPC) GetSlot(ctx context.Context) (int64, error) {
	return 0, nil
}

func testTx(signature string) *solana.Transaction {
	return &solana.Transaction{Signature: signature, Slot: 1}
}

func TestResolver_PrimarySucceeds(t *testing.T) {
	primary := &fakeRPC{fn: func(int32) (*solana.Transaction, error) {
		return testTx("sig"), nil
	}}
	backup := &fakeRPC{fn: func(int32) (*solana.Transaction, error) {
		t.Error("backup must not be called when primary succeeds")
		return nil, nil
	}}

	r := New(primary, []solana.RPCClient{backup}, zerolog.Nop(),
		WithBaseDelay(time.Millisecond))

	tx, err := r.Resolve(context.Background(), "sig")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if tx == nil || tx.Signature != "sig" {
		t.Fatalf("unexpected tx: %+v", tx)
	}
}

func TestResolver_FallsBackAfterPrimaryExhausted(t *testing.T) {
	primary := &fakeRPC{fn: func(int32) (*solana.Transaction, error) {
		return nil, errors.New("boom")
	}}
	backup := &fakeRPC{fn: func(int32) (*solana.Transaction, error) {
		return testTx("sig"), nil
	}}

	r := New(primary, []solana.RPCClient{backup}, zerolog.Nop(),
		WithAttempts(3), WithBaseDelay(time.Millisecond))

	tx, err := r.Resolve(context.Background(), "sig")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if tx == nil {
		t.Fatal("expected tx from backup")
	}
	if primary.calls.Load() != 3 {
		t.Errorf("expected 3 primary attempts, got %d", primary.calls.Load())
	}
	if backup.calls.Load() != 1 {
		t.Errorf("expected 1 backup attempt, got %d", backup.calls.Load())
	}
}

func TestResolver_RetriesOnNotFound(t *testing.T) {
	primary := &fakeRPC{fn: func(call int32) (*solana.Transaction, error) {
		if call < 3 {
			return nil, nil // not indexed yet
		}
		return testTx("sig"), nil
	}}

	r := New(primary, nil, zerolog.Nop(), WithBaseDelay(time.Millisecond))

	tx, err := r.Resolve(context.Background(), "sig")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if tx == nil {
		t.Fatal("expected tx on third attempt")
	}
	if primary.calls.Load() != 3 {
		t.Errorf("expected 3 attempts, got %d", primary.calls.Load())
	}
}

func TestResolver_AllExhaustedIsNotAnError(t *testing.T) {
	failing := func(int32) (*solana.Transaction, error) { return nil, errors.New("down") }
	primary := &fakeRPC{fn: failing}
	backup1 := &fakeRPC{fn: failing}
	backup2 := &fakeRPC{fn: func(int32) (*solana.Transaction, error) { return nil, nil }}

	r := New(primary, []solana.RPCClient{backup1, backup2}, zerolog.Nop(),
		WithAttempts(2), WithBaseDelay(time.Millisecond))

	tx, err := r.Resolve(context.Background(), "sig")
	if err != nil {
		t.Fatalf("exhaustion must not be an error, got %v", err)
	}
	if tx != nil {
		t.Errorf("expected nil tx, got %+v", tx)
	}
	for i, f := range []*fakeRPC{primary, backup1, backup2} {
		if f.calls.Load() != 2 {
			t.Errorf("endpoint %d: expected 2 attempts, got %d", i, f.calls.Load())
		}
	}
}

func TestResolver_RetryCallback(t *testing.T) {
	primary := &fakeRPC{fn: func(int32) (*solana.Transaction, error) {
		return nil, errors.New("down")
	}}

	r := New(primary, nil, zerolog.Nop(),
		WithAttempts(3), WithBaseDelay(time.Millisecond))

	var retries atomic.Int32
	r.OnRetry = func() { retries.Add(1) }

	r.Resolve(context.Background(), "sig")

	if retries.Load() != 2 {
		t.Errorf("expected 2 retries for 3 attempts, got %d", retries.Load())
	}
}

func TestResolver_ContextCancellation(t *testing.T) {
	primary := &fakeRPC{fn: func(int32) (*solana.Transaction, error) {
		return nil, errors.New("down")
	}}

	r := New(primary, nil, zerolog.Nop(),
		WithAttempts(10), WithBaseDelay(time.Hour))

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()

	_, err := r.Resolve(ctx, "sig")
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}
