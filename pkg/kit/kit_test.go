package kit

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"
)

func TestChainOrder(t *testing.T) {
	var trace []string
	mw := func(name string) Middleware {
		return func(next Endpoint) Endpoint {
			return func(ctx context.Context, req any) (any, error) {
				trace = append(trace, name)
				return next(ctx, req)
			}
		}
	}
	e := Chain(mw("a"), mw("b"), mw("c"))(func(context.Context, any) (any, error) {
		trace = append(trace, "endpoint")
		return nil, nil
	})
	e(context.Background(), nil)
	if got := strings.Join(trace, ","); got != "a,b,c,endpoint" {
		t.Fatalf("trace = %s", got)
	}
}

func TestRequestIDMiddleware(t *testing.T) {
	var seen string
	e := RequestID()(func(ctx context.Context, _ any) (any, error) {
		seen = GetRequestID(ctx)
		return nil, nil
	})

	e(context.Background(), nil)
	if seen == "" {
		t.Fatal("expected generated request id")
	}
	e(WithRequestID(context.Background(), "fixed"), nil)
	if seen != "fixed" {
		t.Fatalf("request id = %q, want fixed", seen)
	}
}

func TestLoggingMiddleware(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	fail := Logging(logger, "tokenize")(func(context.Context, any) (any, error) {
		return nil, errors.New("boom")
	})
	if _, err := fail(WithRequestID(context.Background(), "r1"), nil); err == nil {
		t.Fatal("expected error")
	}
	out := buf.String()
	for _, want := range []string{"level=WARN", "endpoint=tokenize", "request_id=r1", "error=boom"} {
		if !strings.Contains(out, want) {
			t.Errorf("log %q lacks %q", out, want)
		}
	}
}

func TestLoggingLanguage(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	ok := Logging(logger, "normalize")(func(context.Context, any) (any, error) {
		return "done", nil
	})
	if _, err := ok(context.Background(), nil); err != nil {
		t.Fatal(err)
	}
	if strings.Contains(buf.String(), "language=") {
		t.Errorf("log %q has a language without one set", buf.String())
	}
	buf.Reset()
	if _, err := ok(WithLanguage(context.Background(), "fr"), nil); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), "language=fr") {
		t.Errorf("log %q lacks language=fr", buf.String())
	}
}

func TestTransportDefault(t *testing.T) {
	if got := GetTransport(context.Background()); got != "http" {
		t.Fatalf("default transport = %q", got)
	}
	if got := GetTransport(WithTransport(context.Background(), "mcp")); got != "mcp" {
		t.Fatalf("transport = %q", got)
	}
}

func TestMCPArgs(t *testing.T) {
	args := map[string]any{"text": "hello", "penn": true, "headline": "1", "n": 3}
	if got := StringArg(args, "text"); got != "hello" {
		t.Fatalf("StringArg = %q", got)
	}
	if got := StringArg(args, "n"); got != "" {
		t.Fatalf("StringArg on non-string = %q", got)
	}
	if !BoolArg(args, "penn") || !BoolArg(args, "headline") {
		t.Fatal("expected true flags")
	}
	if BoolArg(args, "missing") {
		t.Fatal("expected missing flag to be false")
	}

	args["protected"] = []any{`\d+`, 7, "x"}
	if got := StringsArg(args, "protected"); len(got) != 2 || got[0] != `\d+` || got[1] != "x" {
		t.Fatalf("StringsArg = %q", got)
	}
	if got := StringsArg(args, "missing"); got != nil {
		t.Fatalf("StringsArg on missing = %q", got)
	}
}
