package examprep

import (
	"testing"
	"time"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := OpenStore(":memory:")
	if err != nil {
		t.Fatalf("OpenStore() failed: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	if err := store.CreateTables(); err != nil {
		t.Fatalf("CreateTables() failed: %v", err)
	}
	return store
}

func TestStoreStudentRoundTrip(t *testing.T) {
	store := openTestStore(t)

	created, err := store.CreateStudent("Ash Singh", "ash@example.com", "hash", "")
	if err != nil {
		t.Fatalf("CreateStudent() failed: %v", err)
	}
	if created.Role != "student" {
		t.Errorf("expected default role student, got %q", created.Role)
	}

	byEmail, err := store.GetStudentByEmail("ash@example.com")
	if err != nil {
		t.Fatalf("GetStudentByEmail() failed: %v", err)
	}
	if byEmail.ID != created.ID || byEmail.Name != "Ash Singh" {
		t.Errorf("round trip mismatch: %+v", byEmail)
	}
}

func TestStoreDuplicateEmailRejected(t *testing.T) {
	store := openTestStore(t)
	if _, err := store.CreateStudent("A", "dup@example.com", "h", ""); err != nil {
		t.Fatalf("CreateStudent() failed: %v", err)
	}
	if _, err := store.CreateStudent("B", "dup@example.com", "h", ""); err == nil {
		t.Fatal("duplicate email should be rejected")
	}
}

func TestStoreTestRoundTripAndScoping(t *testing.T) {
	store := openTestStore(t)
	student, _ := store.CreateStudent("A", "a@example.com", "h", "")
	other, _ := store.CreateStudent("B", "b@example.com", "h", "")

	rec := &TestRecord{
		StudentID: student.ID,
		Title:     "Midterm Prep",
		Subject:   "Physics",
		Questions: []AnsweredQuestion{{
			Question: Question{
				QuestionText:  "q",
				Options:       []string{"a", "b", "c", "d"},
				CorrectAnswer: "b",
				Topic:         "Thermodynamics",
			},
			UserAnswer: "b",
			IsCorrect:  true,
		}},
		Score: 4,
		Total: 5,
	}
	if err := store.CreateTest(rec); err != nil {
		t.Fatalf("CreateTest() failed: %v", err)
	}

	got, err := store.GetTest(rec.ID, student.ID)
	if err != nil {
		t.Fatalf("GetTest() failed: %v", err)
	}
	if len(got.Questions) != 1 || got.Questions[0].CorrectAnswer != "b" {
		t.Errorf("question fields not preserved verbatim: %+v", got.Questions)
	}

	// Another student must not be able to read it.
	if _, err := store.GetTest(rec.ID, other.ID); err == nil {
		t.Fatal("cross-student test access should fail")
	}
}

func TestStoreScoreCappedAtTotal(t *testing.T) {
	store := openTestStore(t)
	student, _ := store.CreateStudent("A", "a2@example.com", "h", "")

	rec := &TestRecord{StudentID: student.ID, Title: "t", Subject: "Maths", Score: 9, Total: 5}
	if err := store.CreateTest(rec); err != nil {
		t.Fatalf("CreateTest() failed: %v", err)
	}
	if rec.Score != 5 {
		t.Errorf("score should be capped at total, got %v", rec.Score)
	}
}

func TestStoreStatsAndSummaries(t *testing.T) {
	store := openTestStore(t)
	student, _ := store.CreateStudent("A", "a3@example.com", "h", "")

	base := time.Now().UTC().Add(-time.Hour)
	scores := []float64{2, 3, 5}
	for i, score := range scores {
		rec := &TestRecord{
			StudentID: student.ID,
			Title:     "t",
			Subject:   "Physics",
			Score:     score,
			Total:     5,
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		}
		if err := store.CreateTest(rec); err != nil {
			t.Fatalf("CreateTest() failed: %v", err)
		}
	}

	stats, err := store.Stats(student.ID)
	if err != nil {
		t.Fatalf("Stats() failed: %v", err)
	}
	if stats.TotalTests != 3 {
		t.Errorf("expected 3 tests, got %d", stats.TotalTests)
	}
	if stats.BestPercent != 100 {
		t.Errorf("expected best 100, got %d", stats.BestPercent)
	}
	if stats.AveragePercent != 67 {
		t.Errorf("expected average 67, got %d", stats.AveragePercent)
	}

	summary, err := store.LatestSummary(student.ID, "Physics")
	if err != nil {
		t.Fatalf("LatestSummary() failed: %v", err)
	}
	if summary == nil || summary.Score != 100 {
		t.Errorf("latest summary should be the newest test at 100%%: %+v", summary)
	}

	recent, err := store.RecentScores(student.ID, "Physics", 5)
	if err != nil {
		t.Fatalf("RecentScores() failed: %v", err)
	}
	if len(recent) != 3 || recent[0] != 100 {
		t.Errorf("recent scores should be newest first as percentages: %v", recent)
	}
}

func TestStoreEmptyHistory(t *testing.T) {
	store := openTestStore(t)
	student, _ := store.CreateStudent("A", "a4@example.com", "h", "")

	stats, err := store.Stats(student.ID)
	if err != nil {
		t.Fatalf("Stats() failed: %v", err)
	}
	if stats.TotalTests != 0 || stats.LastTakenAt != nil {
		t.Errorf("expected zero stats, got %+v", stats)
	}

	summary, err := store.LatestSummary(student.ID, "Physics")
	if err != nil {
		t.Fatalf("LatestSummary() failed: %v", err)
	}
	if summary != nil {
		t.Errorf("expected nil summary for empty history, got %+v", summary)
	}
}
