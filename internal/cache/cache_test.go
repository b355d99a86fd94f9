package cache

import (
	"context"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"quizroom/internal/model"
)

func newTestClient(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	t.Cleanup(mr.Close)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, client
}

func TestRoomCacheReserveCode(t *testing.T) {
	mr, client := newTestClient(t)
	rc := NewRoomCache(client)
	ctx := context.Background()

	ok, err := rc.ReserveCode(ctx, "ABC234")
	if err != nil || !ok {
		t.Fatalf("expected first reservation, ok=%v err=%v", ok, err)
	}
	ok, err = rc.ReserveCode(ctx, "ABC234")
	if err != nil || ok {
		t.Fatalf("expected second reservation to fail, ok=%v err=%v", ok, err)
	}
	if !mr.Exists("room:code:ABC234") {
		t.Fatalf("expected reservation key")
	}

	meta := &model.RoomMeta{RoomID: "r1", CreatorID: "u1", Status: model.RoomWaiting}
	if err := rc.SetMeta(ctx, "ABC234", meta); err != nil {
		t.Fatalf("set meta: %v", err)
	}
	if err := rc.SetStatus(ctx, "ABC234", model.RoomActive); err != nil {
		t.Fatalf("set status: %v", err)
	}
	got, err := rc.GetMeta(ctx, "ABC234")
	if err != nil || got == nil || got.Status != model.RoomActive {
		t.Fatalf("unexpected meta %+v err=%v", got, err)
	}

	if err := rc.Delete(ctx, "ABC234"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if mr.Exists("room:ABC234") || mr.Exists("room:code:ABC234") {
		t.Fatalf("expected keys removed")
	}
	if got, _ := rc.GetMeta(ctx, "ABC234"); got != nil {
		t.Fatalf("expected miss after delete")
	}
}

func TestLeaderboardCacheStoreAndTop(t *testing.T) {
	mr, client := newTestClient(t)
	lb := NewLeaderboardCache(client)
	ctx := context.Background()

	if _, hit, err := lb.Top(ctx, "r1", 10); err != nil || hit {
		t.Fatalf("expected miss on empty cache, hit=%v err=%v", hit, err)
	}

	ranked := []model.ParticipantResult{
		{ParticipantID: "b", UserName: "Bob", Score: 80, Rank: 1},
		{ParticipantID: "a", UserName: "Ann", Score: 80, Rank: 2},
		{ParticipantID: "c", UserName: "Cid", Score: 10, Rank: 3},
	}
	if ok, err := lb.Store(ctx, "r1", 0, ranked); err != nil || !ok {
		t.Fatalf("store: ok=%v err=%v", ok, err)
	}
	if ttl := mr.TTL("room:r1:lb"); ttl != 24*time.Hour {
		t.Fatalf("expected 24h ttl, got %s", ttl)
	}

	top, hit, err := lb.Top(ctx, "r1", 2)
	if err != nil || !hit {
		t.Fatalf("expected hit, err=%v", err)
	}
	if len(top) != 2 || top[0].ParticipantID != "b" || top[1].ParticipantID != "a" {
		t.Fatalf("unexpected top entries %+v", top)
	}

	rank, err := lb.Rank(ctx, "r1", "c")
	if err != nil || rank != 3 {
		t.Fatalf("expected rank 3, got %d err=%v", rank, err)
	}
	if rank, _ := lb.Rank(ctx, "r1", "zzz"); rank != -1 {
		t.Fatalf("expected -1 for unknown participant, got %d", rank)
	}

	if err := lb.Invalidate(ctx, "r1"); err != nil {
		t.Fatalf("invalidate: %v", err)
	}
	if _, hit, _ := lb.Top(ctx, "r1", 0); hit {
		t.Fatalf("expected miss after invalidate")
	}
}

func TestLeaderboardCacheRefusesStaleRanking(t *testing.T) {
	_, client := newTestClient(t)
	lb := NewLeaderboardCache(client)
	ctx := context.Background()
	ranked := []model.ParticipantResult{{ParticipantID: "a", Rank: 1}}

	gen, err := lb.Generation(ctx, "r1")
	if err != nil || gen != 0 {
		t.Fatalf("expected generation 0, got %d err=%v", gen, err)
	}
	// an answer lands between the ledger read and the store
	if err := lb.Invalidate(ctx, "r1"); err != nil {
		t.Fatalf("invalidate: %v", err)
	}
	ok, err := lb.Store(ctx, "r1", gen, ranked)
	if err != nil || ok {
		t.Fatalf("expected the stale ranking to be refused, ok=%v err=%v", ok, err)
	}
	if _, hit, _ := lb.Top(ctx, "r1", 0); hit {
		t.Fatalf("stale ranking must not be served")
	}

	gen, _ = lb.Generation(ctx, "r1")
	if gen != 1 {
		t.Fatalf("expected generation 1, got %d", gen)
	}
	if ok, err := lb.Store(ctx, "r1", gen, ranked); err != nil || !ok {
		t.Fatalf("expected a current ranking to be stored, ok=%v err=%v", ok, err)
	}
	if _, hit, _ := lb.Top(ctx, "r1", 0); !hit {
		t.Fatalf("expected hit after a current store")
	}
}

func TestVerificationCacheIsSingleUse(t *testing.T) {
	_, client := newTestClient(t)
	vc := NewVerificationCache(client)
	ctx := context.Background()

	if err := vc.MarkResetVerified(ctx, "X@Example.com", 10*time.Minute); err != nil {
		t.Fatalf("mark: %v", err)
	}
	ok, err := vc.ConsumeResetVerified(ctx, "x@example.com")
	if err != nil || !ok {
		t.Fatalf("expected flag present, ok=%v err=%v", ok, err)
	}
	ok, _ = vc.ConsumeResetVerified(ctx, "x@example.com")
	if ok {
		t.Fatalf("expected flag consumed")
	}
}

func TestRateLimitCacheFixedWindow(t *testing.T) {
	mr, client := newTestClient(t)
	rl := NewRateLimitCache(client)
	ctx := context.Background()

	for i := 1; i <= 5; i++ {
		res, err := rl.Hit(ctx, "login", "1.2.3.4", 5, 15*time.Minute)
		if err != nil || !res.Allowed {
			t.Fatalf("hit %d should be allowed, res=%+v err=%v", i, res, err)
		}
	}
	res, err := rl.Hit(ctx, "login", "1.2.3.4", 5, 15*time.Minute)
	if err != nil || res.Allowed {
		t.Fatalf("sixth hit should be refused, res=%+v err=%v", res, err)
	}
	if res.RetryAfter <= 0 || res.RetryAfter > 15*time.Minute {
		t.Fatalf("unexpected retry after %s", res.RetryAfter)
	}

	if res, _ := rl.Hit(ctx, "login", "5.6.7.8", 5, 15*time.Minute); !res.Allowed {
		t.Fatalf("other ip must have its own window")
	}

	mr.FastForward(16 * time.Minute)
	if res, _ := rl.Hit(ctx, "login", "1.2.3.4", 5, 15*time.Minute); !res.Allowed {
		t.Fatalf("expected new window after expiry")
	}
}
