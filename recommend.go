package examprep

import (
	"fmt"
	"math/rand"
	"sort"
)

// Recommendation is a suggested practice session, carrying a ready-to-run
// generation request.
type Recommendation struct {
	ID          string            `json:"id"`
	Title       string            `json:"title"`
	Description string            `json:"description"`
	Difficulty  string            `json:"difficulty"`
	TopicFocus  string            `json:"topicFocus"`
	Request     GenerationRequest `json:"request"`
}

const maxWeakTopics = 3

// BuildRecommendations derives practice suggestions from a student's recent
// tests in a course. First-time students get a single beginner
// recommendation; returning students get their most-missed topics first,
// then two randomly chosen canned options.
func BuildRecommendations(course string, recent []TestRecord, rng *rand.Rand) []Recommendation {
	if len(recent) == 0 {
		return []Recommendation{{
			ID:          "beginner_foundation",
			Title:       "Beginner Practice: Foundations",
			Description: "Start with fundamental concepts to build a strong base.",
			Difficulty:  "beginner",
			TopicFocus:  "Foundations",
			Request: GenerationRequest{
				Course:     course,
				Topic:      "Foundations",
				Difficulty: DifficultyEasy,
				Count:      DefaultQuestionCount,
			},
		}}
	}

	recs := make([]Recommendation, 0, maxWeakTopics+2)
	for _, wt := range weakTopics(recent) {
		recs = append(recs, Recommendation{
			ID:          "weak_" + wt.topic,
			Title:       fmt.Sprintf("Strengthen: %s", wt.topic),
			Description: fmt.Sprintf("You struggled with this topic in %d question(s). Let's practice!", wt.misses),
			Difficulty:  "intermediate",
			TopicFocus:  wt.topic,
			Request: GenerationRequest{
				Course:     course,
				Topic:      wt.topic,
				Difficulty: DifficultyMedium,
				Count:      DefaultQuestionCount,
			},
		})
	}

	canned := []Recommendation{
		{
			ID:          "intermediate_practice",
			Title:       "Intermediate Practice: Applications",
			Description: "Test your ability to apply concepts in real scenarios.",
			Difficulty:  "intermediate",
			TopicFocus:  "Applications",
			Request: GenerationRequest{
				Course:     course,
				Topic:      "Applications",
				Difficulty: DifficultyMedium,
				Count:      DefaultQuestionCount,
			},
		},
		{
			ID:          "advanced_challenge",
			Title:       "Advanced Challenge: Mastery",
			Description: "Push your limits with challenging questions.",
			Difficulty:  "advanced",
			TopicFocus:  "Advanced Topics",
			Request: GenerationRequest{
				Course:     course,
				Topic:      "Advanced Topics",
				Difficulty: DifficultyHard,
				Count:      DefaultQuestionCount,
			},
		},
		{
			ID:          "revision_practice",
			Title:       "Revision: Mixed Topics",
			Description: "Review multiple topics to consolidate your learning.",
			Difficulty:  "mixed",
			TopicFocus:  "Mixed",
			Request: GenerationRequest{
				Course:     course,
				Topic:      "Mixed Topics",
				Difficulty: DifficultyMedium,
				Count:      DefaultQuestionCount,
			},
		},
	}
	swap := func(i, j int) { canned[i], canned[j] = canned[j], canned[i] }
	if rng != nil {
		rng.Shuffle(len(canned), swap)
	} else {
		rand.Shuffle(len(canned), swap)
	}
	return append(recs, canned[:2]...)
}

type weakTopic struct {
	topic  string
	misses int
}

// weakTopics ranks topics by how often the student answered them wrong
// across the given tests, most-missed first, capped at maxWeakTopics.
func weakTopics(tests []TestRecord) []weakTopic {
	misses := make(map[string]int)
	for _, t := range tests {
		for _, q := range t.Questions {
			if q.IsCorrect {
				continue
			}
			topic := q.Topic
			if topic == "" {
				topic = "General"
			}
			misses[topic]++
		}
	}

	ranked := make([]weakTopic, 0, len(misses))
	for topic, n := range misses {
		ranked = append(ranked, weakTopic{topic: topic, misses: n})
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].misses != ranked[j].misses {
			return ranked[i].misses > ranked[j].misses
		}
		return ranked[i].topic < ranked[j].topic
	})
	if len(ranked) > maxWeakTopics {
		ranked = ranked[:maxWeakTopics]
	}
	return ranked
}
