package kv

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
)

func TestRedisStore(t *testing.T) {
	mr := miniredis.RunT(t)
	ctx := context.Background()

	s, err := DialRedis(ctx, mr.Addr(), "", 0, DefaultRedisPrefix)
	if err != nil {
		t.Fatalf("DialRedis: %v", err)
	}
	defer s.Close()

	storeContract(t, s)

	raw, err := mr.Get("todo:toDos")
	if err != nil {
		t.Fatalf("expected prefixed key in redis: %v", err)
	}
	if raw != `{}` {
		t.Errorf("raw value: got %q", raw)
	}
}

func TestRedisStoreReadsExistingValue(t *testing.T) {
	mr := miniredis.RunT(t)
	if err := mr.Set("app:toDos", "hello"); err != nil {
		t.Fatalf("seed: %v", err)
	}

	s, err := DialRedis(context.Background(), mr.Addr(), "", 0, "app:")
	if err != nil {
		t.Fatalf("DialRedis: %v", err)
	}
	defer s.Close()

	got, ok, err := s.Get(context.Background(), "toDos")
	if err != nil || !ok || got != "hello" {
		t.Errorf("Get: %q ok=%v err=%v", got, ok, err)
	}
}

func TestRedisStoreErrors(t *testing.T) {
	mr := miniredis.RunT(t)
	s, err := DialRedis(context.Background(), mr.Addr(), "", 0, "")
	if err != nil {
		t.Fatalf("DialRedis: %v", err)
	}
	defer s.Close()

	mr.SetError("LOADING server is loading")
	if _, _, err := s.Get(context.Background(), "toDos"); err == nil {
		t.Error("expected Get error")
	}
	if err := s.Set(context.Background(), "toDos", "x"); err == nil {
		t.Error("expected Set error")
	}
}

func TestDialRedisUnreachable(t *testing.T) {
	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()

	if _, err := DialRedis(context.Background(), addr, "", 0, ""); err == nil {
		t.Error("expected error dialing a closed server")
	}
}
