package ratelimit

import (
	"context"
	"os"
	"testing"

	"github.com/arnavshah/allocation-api-go/pkg/database"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"
)

func TestDBLimiter(t *testing.T) {
	ctx := context.Background()
	db, err := gorm.Open(sqlite.Open("file:ratelimit?mode=memory&cache=shared"), &gorm.Config{
		Logger: gormLogger.Default.LogMode(gormLogger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("sql db: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	defer sqlDB.Close()
	if err := database.Migrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	l := &DBLimiter{DB: db}
	for i := 0; i < 2; i++ {
		ok, err := l.Allow(ctx, 1, 2)
		if err != nil {
			t.Fatalf("Allow: %v", err)
		}
		if !ok {
			t.Fatalf("request %d should be allowed", i)
		}
	}

	ok, err := l.Allow(ctx, 1, 2)
	if err != nil {
		t.Fatalf("Allow: %v", err)
	}
	if ok {
		t.Fatalf("third request should exceed the quota")
	}
	if n, _ := database.RequestsToday(ctx, db, 1); n != 3 {
		t.Fatalf("refused requests still count: want=3 got=%d", n)
	}
	if ok, _ := l.Allow(ctx, 1, 0); !ok {
		t.Fatalf("a zero limit means unlimited")
	}
}

func TestRedisLimiter(t *testing.T) {
	addr := os.Getenv("TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("set TEST_REDIS_ADDR to run redis quota tests")
	}
	ctx := context.Background()
	l, err := NewRedisLimiter(ctx, addr, nil)
	if err != nil {
		t.Fatalf("NewRedisLimiter: %v", err)
	}
	defer l.Close()
	l.prefix = "quota-test-" + t.Name()

	keyID := uint(os.Getpid())
	for i := 0; i < 3; i++ {
		if ok, err := l.Allow(ctx, keyID, 3); err != nil || !ok {
			t.Fatalf("request %d: ok=%v err=%v", i, ok, err)
		}
	}
	if ok, err := l.Allow(ctx, keyID, 3); err != nil || ok {
		t.Fatalf("fourth request: ok=%v err=%v", ok, err)
	}
}
