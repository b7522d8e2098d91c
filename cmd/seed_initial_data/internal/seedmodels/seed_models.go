package seedmodels

import "quiz-engine/internal/bank"

// SeedCorpus is the layout of the embedded normal corpus: an object with a questions list.
type SeedCorpus struct {
	Questions []bank.Record `json:"questions"`
}

// SeedRecovery is the embedded recovery corpus, keyed by discipline and then topic.
type SeedRecovery map[string]map[string][]bank.Record

// Count returns the number of records across all disciplines and topics.
func (r SeedRecovery) Count() int {
	n := 0
	for _, topics := range r {
		for _, records := range topics {
			n += len(records)
		}
	}
	return n
}
