package kit

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"
)

func TestChain_Order(t *testing.T) {
	var calls []string
	mw := func(name string) Middleware {
		return func(next Endpoint) Endpoint {
			return func(ctx context.Context, req any) (any, error) {
				calls = append(calls, name)
				return next(ctx, req)
			}
		}
	}
	ep := Chain(mw("a"), mw("b"), mw("c"))(func(context.Context, any) (any, error) {
		calls = append(calls, "endpoint")
		return "ok", nil
	})

	resp, err := ep(context.Background(), nil)
	if err != nil || resp != "ok" {
		t.Fatalf("ep = %v, %v", resp, err)
	}
	want := []string{"a", "b", "c", "endpoint"}
	if len(calls) != len(want) {
		t.Fatalf("calls = %v, want %v", calls, want)
	}
	for i := range want {
		if calls[i] != want[i] {
			t.Errorf("calls[%d] = %q, want %q", i, calls[i], want[i])
		}
	}
}

func TestLogging_PassesThrough(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	boom := errors.New("boom")
	ep := Logging(logger, "clean")(func(context.Context, any) (any, error) {
		return nil, boom
	})
	ctx := WithSessionID(WithTransport(context.Background(), "mcp_stdio"), "s1")
	if _, err := ep(ctx, nil); !errors.Is(err, boom) {
		t.Errorf("err = %v, want boom", err)
	}
}

func TestContextKeys(t *testing.T) {
	ctx := context.Background()
	if GetTransport(ctx) != "http" {
		t.Errorf("default transport = %q, want http", GetTransport(ctx))
	}
	ctx = WithRequestID(WithSessionID(ctx, "s1"), "r1")
	if GetSessionID(ctx) != "s1" || GetRequestID(ctx) != "r1" {
		t.Errorf("session=%q request=%q", GetSessionID(ctx), GetRequestID(ctx))
	}
}

func TestTimeout(t *testing.T) {
	var deadline time.Time
	var ok bool
	ep := Timeout(time.Minute)(func(ctx context.Context, _ any) (any, error) {
		deadline, ok = ctx.Deadline()
		return nil, nil
	})
	ep(context.Background(), nil)
	if !ok || time.Until(deadline) > time.Minute {
		t.Errorf("deadline = %v (set %v), want within a minute", deadline, ok)
	}

	ep = Timeout(0)(func(ctx context.Context, _ any) (any, error) {
		_, ok = ctx.Deadline()
		return nil, nil
	})
	ep(context.Background(), nil)
	if ok {
		t.Error("Timeout(0) set a deadline")
	}
}

func TestTimeout_CancelsSlowEndpoint(t *testing.T) {
	ep := Chain(Logging(slog.New(slog.NewTextHandler(io.Discard, nil)), "slow"), Timeout(10*time.Millisecond))(
		func(ctx context.Context, _ any) (any, error) {
			<-ctx.Done()
			return nil, ctx.Err()
		})
	if _, err := ep(context.Background(), nil); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("err = %v, want deadline exceeded", err)
	}
}
