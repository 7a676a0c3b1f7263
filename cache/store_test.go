package cache

import (
	"context"
	"database/sql"
	"testing"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/rs/zerolog"

	"github.com/courseforge/courseforge/course"
	"github.com/courseforge/courseforge/migrations"
)

func testStore(t *testing.T, ttl time.Duration) *Store {
	t.Helper()
	db, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("Failed to open database: %v", err)
	}
	// A :memory: database lives in a single connection.
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })

	if err := migrations.RunMigrations(db, "../migrations", zerolog.Nop()); err != nil {
		t.Fatalf("Failed to run migrations: %v", err)
	}
	return NewStore(db, ttl, zerolog.Nop())
}

func testCourse(title string) *course.Course {
	return &course.Course{
		Analysis: &course.TopicAnalysis{
			Query:           "learn OOP in Python",
			NormalizedTopic: "Python OOP",
			Type:            course.TopicProgramming,
			Difficulty:      course.DifficultyBeginner,
			Confidence:      0.8,
		},
		Structure: &course.CourseStructure{
			Title: title,
			Modules: []course.ModuleSpec{
				{ID: "module-01", Order: 1, Name: "Intro"},
				{ID: "module-02", Order: 2, Name: "Classes"},
				{ID: "module-03", Order: 3, Name: "Inheritance"},
			},
			TotalDurationMinutes: 300,
		},
		Modules: []course.GeneratedModule{
			{ModuleID: "module-01", Theory: course.TheoryContent{Body: "## Intro\nText.", WordCount: 3}},
		},
	}
}

func TestNormalizeQuery(t *testing.T) {
	cases := []struct {
		in, want string
	}{
		{"Learn OOP in Python", "learn oop in python"},
		{"  learn   OOP\tin\nPython  ", "learn oop in python"},
		{"", ""},
	}
	for _, tc := range cases {
		if got := NormalizeQuery(tc.in); got != tc.want {
			t.Errorf("NormalizeQuery(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestNormalizeQueryIdempotent(t *testing.T) {
	once := NormalizeQuery("  Learn   OOP in PYTHON ")
	if NormalizeQuery(once) != once {
		t.Errorf("NormalizeQuery is not idempotent: %q -> %q", once, NormalizeQuery(once))
	}
}

func TestQueryHashEquivalentQueries(t *testing.T) {
	a := QueryHash("Learn OOP in Python")
	b := QueryHash("  learn   oop IN python ")
	if a != b {
		t.Errorf("Equivalent queries hash differently: %q vs %q", a, b)
	}
	if QueryHash("something else entirely") == a {
		t.Error("Distinct queries should hash differently")
	}
	if len(a) != 16 {
		t.Errorf("Expected 16 hex chars, got %q", a)
	}
}

func TestSaveAndLookupRoundTrip(t *testing.T) {
	store := testStore(t, time.Hour)
	ctx := context.Background()

	saved, err := store.Save(ctx, "Learn OOP in Python", testCourse("Python OOP"))
	if err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if saved.AccessCount != 0 {
		t.Errorf("Expected fresh entry with access count 0, got %d", saved.AccessCount)
	}

	// Whitespace and case differences hit the same entry.
	cached, err := store.Lookup(ctx, "  learn oop IN python ")
	if err != nil {
		t.Fatalf("Lookup failed: %v", err)
	}
	if cached == nil {
		t.Fatal("Expected cache hit")
	}
	if cached.Course.Structure.Title != "Python OOP" {
		t.Errorf("Round trip lost the title: %q", cached.Course.Structure.Title)
	}
	if len(cached.Course.Structure.Modules) != 3 {
		t.Errorf("Round trip lost modules: %d", len(cached.Course.Structure.Modules))
	}
	if cached.AccessCount != 1 {
		t.Errorf("Expected access count 1 after first hit, got %d", cached.AccessCount)
	}

	// A second hit increments again.
	cached, err = store.Lookup(ctx, "learn oop in python")
	if err != nil {
		t.Fatalf("Second lookup failed: %v", err)
	}
	if cached.AccessCount != 2 {
		t.Errorf("Expected access count 2, got %d", cached.AccessCount)
	}
}

func TestLookupMiss(t *testing.T) {
	store := testStore(t, time.Hour)
	cached, err := store.Lookup(context.Background(), "never stored")
	if err != nil {
		t.Fatalf("Miss must not error: %v", err)
	}
	if cached != nil {
		t.Errorf("Expected nil on miss, got %+v", cached)
	}
}

func TestLookupExpiredIsMissAndRowRetained(t *testing.T) {
	store := testStore(t, time.Hour)
	ctx := context.Background()

	current := time.Now()
	store.now = func() time.Time { return current }

	if _, err := store.Save(ctx, "learn go", testCourse("Go")); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	// Step past the TTL: the entry reads as a miss.
	current = current.Add(time.Hour + time.Minute)
	cached, err := store.Lookup(ctx, "learn go")
	if err != nil {
		t.Fatalf("Lookup failed: %v", err)
	}
	if cached != nil {
		t.Error("Expected expired entry to read as a miss")
	}

	// Expiry is lazy: the row itself is still in the table.
	var count int
	if err := store.db.QueryRow("SELECT COUNT(*) FROM cached_courses").Scan(&count); err != nil {
		t.Fatalf("Count failed: %v", err)
	}
	if count != 1 {
		t.Errorf("Expected expired row retained, found %d rows", count)
	}
}

func TestSaveReplacesExistingEntry(t *testing.T) {
	store := testStore(t, time.Hour)
	ctx := context.Background()

	if _, err := store.Save(ctx, "learn go", testCourse("First")); err != nil {
		t.Fatalf("First save failed: %v", err)
	}
	if _, err := store.Save(ctx, "Learn GO", testCourse("Second")); err != nil {
		t.Fatalf("Second save failed: %v", err)
	}

	cached, err := store.Lookup(ctx, "learn go")
	if err != nil {
		t.Fatalf("Lookup failed: %v", err)
	}
	if cached.Course.Structure.Title != "Second" {
		t.Errorf("Expected replacement to win, got %q", cached.Course.Structure.Title)
	}

	var count int
	if err := store.db.QueryRow("SELECT COUNT(*) FROM cached_courses").Scan(&count); err != nil {
		t.Fatalf("Count failed: %v", err)
	}
	if count != 1 {
		t.Errorf("Expected a single row after replacement, found %d", count)
	}
}

func TestPurgeExpired(t *testing.T) {
	store := testStore(t, time.Hour)
	ctx := context.Background()

	current := time.Now()
	store.now = func() time.Time { return current }

	if _, err := store.Save(ctx, "old query", testCourse("Old")); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	current = current.Add(30 * time.Minute)
	if _, err := store.Save(ctx, "fresh query", testCourse("Fresh")); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	// 70 minutes after the first save: only the first entry is expired.
	current = current.Add(40 * time.Minute)
	deleted, err := store.PurgeExpired(ctx)
	if err != nil {
		t.Fatalf("Purge failed: %v", err)
	}
	if deleted != 1 {
		t.Errorf("Expected 1 purged row, got %d", deleted)
	}

	if cached, _ := store.Lookup(ctx, "fresh query"); cached == nil {
		t.Error("Fresh entry must survive the purge")
	}
	if cached, _ := store.Lookup(ctx, "old query"); cached != nil {
		t.Error("Old entry must be gone")
	}
}

func TestSaveStampsExpiryFromTTL(t *testing.T) {
	store := testStore(t, 48*time.Hour)
	current := time.Now()
	store.now = func() time.Time { return current }

	saved, err := store.Save(context.Background(), "q", testCourse("T"))
	if err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if got, want := saved.ExpiresAt, current.Add(48*time.Hour); !got.Equal(want) {
		t.Errorf("Expected expiry %v, got %v", want, got)
	}
}
