package ranking

import (
	"sort"

	"github.com/google/uuid"
)

// Scored pairs a student with the average being ranked.
type Scored struct {
	StudentID uuid.UUID
	Average   float64
}

// Ranked is one entry of a computed ranking: the student, the average
// the rank was assigned on, and the 1-based position.
type Ranked struct {
	StudentID uuid.UUID
	Average   float64
	Position  int
}

// CompetitionRanks sorts the given entries descending by average and
// assigns standard competition ranks: tied averages share the same
// position, and the next distinct average receives a position equal to
// one plus the number of students ranked strictly above it (the classic
// "1,2,2,4" scheme). Ties never compress subsequent positions.
//
// The input slice is not modified. Students with equal averages keep a
// deterministic order (by student ID) so repeated runs over the same
// rows produce identical output.
func CompetitionRanks(entries []Scored) []Ranked {
	if len(entries) == 0 {
		return nil
	}

	sorted := make([]Scored, len(entries))
	copy(sorted, entries)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].Average != sorted[j].Average {
			return sorted[i].Average > sorted[j].Average
		}
		return sorted[i].StudentID.String() < sorted[j].StudentID.String()
	})

	ranked := make([]Ranked, len(sorted))
	for i, entry := range sorted {
		position := i + 1
		if i > 0 && entry.Average == sorted[i-1].Average {
			position = ranked[i-1].Position
		}
		ranked[i] = Ranked{
			StudentID: entry.StudentID,
			Average:   entry.Average,
			Position:  position,
		}
	}

	return ranked
}

// Mean returns the arithmetic mean of the given scores. An empty input
// yields zero; callers decide whether an empty scope is meaningful.
func Mean(scores []float64) float64 {
	if len(scores) == 0 {
		return 0
	}

	var sum float64
	for _, s := range scores {
		sum += s
	}
	return sum / float64(len(scores))
}
