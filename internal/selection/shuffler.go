package selection

import (
	"math/rand/v2"
	"slices"

	"quiz-engine/internal/domain"
)

// shuffleOptions permutes each question's options uniformly at random and recomputes
// CorrectIndex. CorrectOption itself is never changed. Questions are modified in place.
func shuffleOptions(rng *rand.Rand, questions []domain.Question) {
	for i := range questions {
		q := &questions[i]
		correct := q.CorrectOption
		options := append([]string(nil), q.Options...)
		rng.Shuffle(len(options), func(a, b int) { options[a], options[b] = options[b], options[a] })
		q.Options = options
		q.CorrectOption = correct
		q.CorrectIndex = slices.Index(options, correct)
	}
}
