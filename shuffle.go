package examprep

import "math/rand"

// ShuffleOptions applies a uniform random permutation to a question's
// options in place. Correctness is tracked by value, so no index re-mapping
// happens here or anywhere downstream. If the normalizer could not resolve a
// correct answer, the first pre-shuffle option is assigned before shuffling
// so the answer-in-options invariant holds even for degraded items.
//
// A nil rng uses the shared package source, which is safe for concurrent
// requests; tests inject a seeded *rand.Rand.
func ShuffleOptions(q *Question, rng *rand.Rand) {
	if len(q.Options) == 0 {
		return
	}
	if q.CorrectAnswer == "" {
		q.CorrectAnswer = q.Options[0]
	}

	swap := func(i, j int) {
		q.Options[i], q.Options[j] = q.Options[j], q.Options[i]
	}
	if rng != nil {
		rng.Shuffle(len(q.Options), swap)
	} else {
		rand.Shuffle(len(q.Options), swap)
	}
}
