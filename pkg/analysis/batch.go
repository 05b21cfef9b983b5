package analysis

import "unicode/utf8"

const DefaultBudget = 80000

type Batch struct {
	Fragments []string
	Size      int
}

// Batches packs fragments greedily, left to right, into batches whose
// character count stays within budget. A fragment larger than budget on its
// own forms a singleton batch. Order is never changed.
func Batches(fragments []string, budget int) []Batch {
	if budget <= 0 {
		budget = DefaultBudget
	}

	var batches []Batch
	var current Batch
	for _, f := range fragments {
		size := utf8.RuneCountInString(f)
		if len(current.Fragments) > 0 && current.Size+size > budget {
			batches = append(batches, current)
			current = Batch{}
		}
		current.Fragments = append(current.Fragments, f)
		current.Size += size
	}
	if len(current.Fragments) > 0 {
		batches = append(batches, current)
	}
	return batches
}
