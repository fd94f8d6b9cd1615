package examprep

import (
	"math/rand"
	"strings"
	"testing"
)

func answered(topic string, correct bool) AnsweredQuestion {
	return AnsweredQuestion{
		Question: Question{
			QuestionText:  "q",
			Options:       []string{"a", "b", "c", "d"},
			CorrectAnswer: "a",
			Topic:         topic,
		},
		UserAnswer: "b",
		IsCorrect:  correct,
	}
}

func TestRecommendationsFirstTimeUser(t *testing.T) {
	recs := BuildRecommendations("Physics", nil, rand.New(rand.NewSource(1)))
	if len(recs) != 1 {
		t.Fatalf("first-time user should get exactly 1 recommendation, got %d", len(recs))
	}
	if recs[0].ID != "beginner_foundation" {
		t.Errorf("expected beginner recommendation, got %s", recs[0].ID)
	}
	if recs[0].Request.Course != "Physics" || recs[0].Request.Count != DefaultQuestionCount {
		t.Errorf("unexpected embedded request: %+v", recs[0].Request)
	}
}

func TestRecommendationsWeakTopicsFirst(t *testing.T) {
	tests := []TestRecord{
		{Questions: []AnsweredQuestion{
			answered("Thermodynamics", false),
			answered("Thermodynamics", false),
			answered("Optics", false),
			answered("Kinematics", true),
		}},
		{Questions: []AnsweredQuestion{
			answered("Thermodynamics", false),
			answered("Optics", true),
		}},
	}

	recs := BuildRecommendations("Physics", tests, rand.New(rand.NewSource(2)))
	if len(recs) != 4 {
		t.Fatalf("expected 2 weak-topic + 2 canned recommendations, got %d", len(recs))
	}
	if recs[0].ID != "weak_Thermodynamics" {
		t.Errorf("most-missed topic should rank first, got %s", recs[0].ID)
	}
	if recs[1].ID != "weak_Optics" {
		t.Errorf("expected weak_Optics second, got %s", recs[1].ID)
	}
	if !strings.Contains(recs[0].Description, "3 question(s)") {
		t.Errorf("miss count wrong: %s", recs[0].Description)
	}
}

func TestRecommendationsCapWeakTopics(t *testing.T) {
	tests := []TestRecord{
		{Questions: []AnsweredQuestion{
			answered("T1", false), answered("T1", false), answered("T1", false),
			answered("T2", false), answered("T2", false),
			answered("T3", false),
			answered("T4", false),
		}},
	}

	recs := BuildRecommendations("Maths", tests, rand.New(rand.NewSource(3)))
	weak := 0
	for _, r := range recs {
		if strings.HasPrefix(r.ID, "weak_") {
			weak++
		}
	}
	if weak != maxWeakTopics {
		t.Errorf("expected %d weak-topic recommendations, got %d", maxWeakTopics, weak)
	}
}

func TestRecommendationsUntaggedQuestionsCountAsGeneral(t *testing.T) {
	tests := []TestRecord{
		{Questions: []AnsweredQuestion{answered("", false)}},
	}
	recs := BuildRecommendations("Maths", tests, rand.New(rand.NewSource(4)))
	if recs[0].ID != "weak_General" {
		t.Errorf("untagged misses should group under General, got %s", recs[0].ID)
	}
}
