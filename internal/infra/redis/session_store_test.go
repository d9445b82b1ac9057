package redis

import (
	"context"
	"sort"
	"testing"
	"time"

	"geoportal-service/internal/domain"
	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func TestSessionStoreSetsAndClearsKeys(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	store := NewSessionStore(client, 16, time.Minute)
	ctx := context.Background()

	if _, created, _ := store.GetOrCreate(ctx, "s1", 4); !created {
		t.Fatalf("expected new session")
	}
	if !mr.Exists("questionnaire:session:s1") {
		t.Fatalf("expected redis key to be set")
	}

	store.Release("s1")
	if mr.Exists("questionnaire:session:s1") {
		t.Fatalf("expected redis key to be removed")
	}
	if _, ok := store.Get("s1"); ok {
		t.Fatalf("expected local session released")
	}
}

func TestSessionStorePersistsAnswers(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	store := NewSessionStore(client, 16, time.Minute)
	ctx := context.Background()

	answers := []domain.UserAnswer{
		{QuestionID: "skills", SelectedOptionID: "programming"},
		{QuestionID: "career", SelectedOptionID: "tech"},
	}
	if err := store.SaveAnswers(ctx, "s1", answers); err != nil {
		t.Fatalf("save answers: %v", err)
	}
	if got := mr.HGet("questionnaire:session:s1:answers", "career"); got != "tech" {
		t.Fatalf("expected career=tech in hash, got %q", got)
	}
	if ttl := mr.TTL("questionnaire:session:s1:answers"); ttl != time.Minute {
		t.Fatalf("expected ttl on answers, got %v", ttl)
	}

	// A second instance sees the same answers.
	other := NewSessionStore(client, 16, time.Minute)
	loaded, err := other.LoadAnswers(ctx, "s1")
	if err != nil {
		t.Fatalf("load answers: %v", err)
	}
	sort.Slice(loaded, func(i, j int) bool { return loaded[i].QuestionID < loaded[j].QuestionID })
	if len(loaded) != 2 || loaded[0].SelectedOptionID != "tech" || loaded[1].SelectedOptionID != "programming" {
		t.Fatalf("unexpected answers %+v", loaded)
	}

	if err := store.SaveAnswers(ctx, "s1", nil); err != nil {
		t.Fatalf("clear answers: %v", err)
	}
	if mr.Exists("questionnaire:session:s1:answers") {
		t.Fatalf("expected empty answer set to remove the hash")
	}

	_ = store.SaveAnswers(ctx, "s1", answers)
	if err := store.Delete(ctx, "s1"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if mr.Exists("questionnaire:session:s1:answers") {
		t.Fatalf("expected answers removed on delete")
	}
}

func TestSessionStoreDropsSessionsWhoseLivenessExpired(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	store := NewSessionStore(client, 16, time.Minute)
	ctx := context.Background()

	first, _, _ := store.GetOrCreate(ctx, "s1", 4)

	// Lookups slide the expiry.
	mr.FastForward(40 * time.Second)
	if _, ok := store.Get("s1"); !ok {
		t.Fatalf("expected session alive before ttl")
	}
	mr.FastForward(40 * time.Second)
	if _, ok := store.Get("s1"); !ok {
		t.Fatalf("expected lookup to refresh liveness")
	}

	mr.FastForward(2 * time.Minute)
	if _, ok := store.Get("s1"); ok {
		t.Fatalf("expected idle session dropped once liveness expired")
	}
	if !first.Closed() {
		t.Fatalf("expected dropped session to be closed")
	}
	if store.Len() != 0 {
		t.Fatalf("expected no local sessions, got %d", store.Len())
	}

	second, created, err := store.GetOrCreate(ctx, "s1", 4)
	if err != nil || !created {
		t.Fatalf("expected a fresh session, created=%v err=%v", created, err)
	}
	if second == first {
		t.Fatalf("expected a new session instance")
	}
	if !mr.Exists("questionnaire:session:s1") {
		t.Fatalf("expected liveness key restored")
	}
}

func TestSessionStoreEvictsLeastRecentlyUsed(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	store := NewSessionStore(client, 2, time.Minute)
	ctx := context.Background()

	oldest, _, _ := store.GetOrCreate(ctx, "a", 4)
	_, _, _ = store.GetOrCreate(ctx, "b", 4)
	_, _, _ = store.GetOrCreate(ctx, "c", 4)

	if store.Len() != 2 {
		t.Fatalf("expected store bounded to 2, got %d", store.Len())
	}
	if _, ok := store.Get("a"); ok {
		t.Fatalf("expected oldest session evicted")
	}
	if !oldest.Closed() {
		t.Fatalf("expected evicted session closed")
	}
}
