package sturdyc

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestConfigValidate(t *testing.T) {
	good := Config{Capacity: 100, NumShards: 4, TTL: time.Minute, EvictionPercentage: 10}
	if err := good.Validate(); err != nil {
		t.Fatal(err)
	}
	bad := good
	bad.NumShards = 200
	var ce *ConfigError
	if err := bad.Validate(); !errors.As(err, &ce) || ce.Field != "NumShards" {
		t.Fatalf("err = %v", err)
	}
	if _, err := New(Config{}); !errors.As(err, &ce) || ce.Field != "Capacity" {
		t.Fatalf("New err = %v", err)
	}
}

func TestSetGetDel(t *testing.T) {
	ctx := context.Background()
	p, err := New(Config{Capacity: 100, NumShards: 4, TTL: time.Minute, EvictionPercentage: 10})
	if err != nil {
		t.Fatal(err)
	}
	if ok, _ := p.Set(ctx, "k", []byte("v"), 1, 0); !ok {
		t.Fatal("Set declined")
	}
	if v, ok, _ := p.Get(ctx, "k"); !ok || string(v) != "v" || p.Len() != 1 {
		t.Fatalf("Get = %q, %v", v, ok)
	}
	_ = p.Del(ctx, "k")
	if _, ok, _ := p.Get(ctx, "k"); ok {
		t.Fatal("Del left entry")
	}
}
