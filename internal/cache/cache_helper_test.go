package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newTestHelper(t *testing.T, prefix string) (*CacheHelper, *miniredis.Miniredis) {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping redis-backed cache tests in short mode")
	}

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	return NewCacheHelper(client, prefix), mr
}

type cachedAssessment struct {
	Slug  string `json:"slug"`
	Title string `json:"title"`
}

func TestCacheHelper(t *testing.T) {
	ctx := context.Background()

	t.Run("set and get round trip with prefix", func(t *testing.T) {
		helper, mr := newTestHelper(t, "assessment:")

		in := cachedAssessment{Slug: "math-intro", Title: "Math Intro"}
		if err := helper.Set(ctx, "slug:math-intro", in, time.Minute); err != nil {
			t.Fatalf("Set failed: %v", err)
		}

		if !mr.Exists("assessment:slug:math-intro") {
			t.Error("expected prefixed key in redis")
		}

		var out cachedAssessment
		if err := helper.Get(ctx, "slug:math-intro", &out); err != nil {
			t.Fatalf("Get failed: %v", err)
		}
		if out != in {
			t.Errorf("expected %+v, got %+v", in, out)
		}
	})

	t.Run("miss returns ErrCacheNotFound", func(t *testing.T) {
		helper, _ := newTestHelper(t, "assessment:")

		var out cachedAssessment
		if err := helper.Get(ctx, "slug:missing", &out); !errors.Is(err, ErrCacheNotFound) {
			t.Errorf("expected ErrCacheNotFound, got %v", err)
		}
	})

	t.Run("nil client returns ErrCacheNotAvailable", func(t *testing.T) {
		helper := NewCacheHelper(nil, "")

		var out cachedAssessment
		if err := helper.Get(ctx, "anything", &out); !errors.Is(err, ErrCacheNotAvailable) {
			t.Errorf("expected ErrCacheNotAvailable, got %v", err)
		}
		if _, err := helper.GetString(ctx, "anything"); !errors.Is(err, ErrCacheNotAvailable) {
			t.Errorf("expected ErrCacheNotAvailable, got %v", err)
		}
	})

	t.Run("entries expire with their TTL", func(t *testing.T) {
		helper, mr := newTestHelper(t, "fast:")

		if err := helper.SetString(ctx, "streak:student-1", "3", time.Minute); err != nil {
			t.Fatalf("SetString failed: %v", err)
		}

		mr.FastForward(2 * time.Minute)

		if _, err := helper.GetString(ctx, "streak:student-1"); !errors.Is(err, ErrCacheNotFound) {
			t.Errorf("expected expired key to miss, got %v", err)
		}
	})

	t.Run("delete removes keys", func(t *testing.T) {
		helper, _ := newTestHelper(t, "result:")

		if err := helper.SetString(ctx, "student:s1", "cached", time.Minute); err != nil {
			t.Fatalf("SetString failed: %v", err)
		}
		if err := helper.Delete(ctx, "student:s1"); err != nil {
			t.Fatalf("Delete failed: %v", err)
		}

		exists, err := helper.Exists(ctx, "student:s1")
		if err != nil {
			t.Fatalf("Exists failed: %v", err)
		}
		if exists {
			t.Error("expected key to be deleted")
		}
	})

	t.Run("invalidate pattern clears matching keys only", func(t *testing.T) {
		helper, mr := newTestHelper(t, "stats:")

		_ = helper.SetString(ctx, "dashboard:s1", "a", time.Minute)
		_ = helper.SetString(ctx, "dashboard:s2", "b", time.Minute)

		if err := helper.InvalidatePattern(ctx, "dashboard:s1*"); err != nil {
			t.Fatalf("InvalidatePattern failed: %v", err)
		}

		if mr.Exists("stats:dashboard:s1") {
			t.Error("expected stats:dashboard:s1 to be invalidated")
		}
		if !mr.Exists("stats:dashboard:s2") {
			t.Error("expected stats:dashboard:s2 to survive")
		}
	})

	t.Run("cache or execute returns the fetched value on a miss", func(t *testing.T) {
		helper, _ := newTestHelper(t, "assessment:")

		calls := 0
		fetch := func() (interface{}, error) {
			calls++
			return cachedAssessment{Slug: "algorithms", Title: "Algorithms"}, nil
		}

		var out cachedAssessment
		if err := helper.CacheOrExecute(ctx, "slug:algorithms", &out, time.Minute, fetch); err != nil {
			t.Fatalf("CacheOrExecute failed: %v", err)
		}

		if calls != 1 {
			t.Errorf("expected 1 fetch, got %d", calls)
		}
		if out.Title != "Algorithms" {
			t.Errorf("expected fetched value, got %+v", out)
		}
	})

	t.Run("cache or execute serves a warm cache without fetching", func(t *testing.T) {
		helper, _ := newTestHelper(t, "assessment:")

		seeded := cachedAssessment{Slug: "algorithms", Title: "Algorithms"}
		if err := helper.Set(ctx, "slug:algorithms", seeded, time.Minute); err != nil {
			t.Fatalf("Set failed: %v", err)
		}

		fetch := func() (interface{}, error) {
			t.Error("fetch should not run on a warm cache")
			return nil, nil
		}

		var out cachedAssessment
		if err := helper.CacheOrExecute(ctx, "slug:algorithms", &out, time.Minute, fetch); err != nil {
			t.Fatalf("CacheOrExecute failed: %v", err)
		}
		if out != seeded {
			t.Errorf("expected %+v, got %+v", seeded, out)
		}
	})
}

func TestCacheManager(t *testing.T) {
	ctx := context.Background()

	t.Run("nil client manager degrades instead of failing", func(t *testing.T) {
		cm := NewCacheManager(nil)

		if err := cm.HealthCheck(ctx); !errors.Is(err, ErrCacheNotAvailable) {
			t.Errorf("expected ErrCacheNotAvailable, got %v", err)
		}
		if err := cm.ClearAll(ctx); err != nil {
			t.Errorf("expected ClearAll to be a no-op, got %v", err)
		}
		if err := cm.InvalidateStudentResults(ctx, "s1"); err != nil {
			t.Errorf("expected invalidation to be a no-op, got %v", err)
		}
	})

	t.Run("invalidate assessment clears catalog keys", func(t *testing.T) {
		if testing.Short() {
			t.Skip("skipping redis-backed cache tests in short mode")
		}
		mr := miniredis.RunT(t)
		client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
		t.Cleanup(func() { _ = client.Close() })

		cm := NewCacheManager(client)
		_ = cm.Assessment.SetString(ctx, "id:7", "cached", time.Minute)
		_ = cm.Assessment.SetString(ctx, "slug:math-intro", "cached", time.Minute)
		_ = cm.Assessment.SetString(ctx, "active:all", "cached", time.Minute)
		_ = cm.Result.SetString(ctx, "student:s1", "cached", time.Minute)

		if err := cm.InvalidateAssessment(ctx, 7, "math-intro"); err != nil {
			t.Fatalf("InvalidateAssessment failed: %v", err)
		}

		for _, key := range []string{"assessment:id:7", "assessment:slug:math-intro", "assessment:active:all"} {
			if mr.Exists(key) {
				t.Errorf("expected %s to be invalidated", key)
			}
		}
		if !mr.Exists("result:student:s1") {
			t.Error("expected result cache to be untouched")
		}
	})
}
