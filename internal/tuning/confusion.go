package tuning

// ConfusionMatrix is a square count table indexed by (true class, predicted
// class).
type ConfusionMatrix struct {
	counts [][]int
}

func NewConfusionMatrix(numClasses int) *ConfusionMatrix {
	counts := make([][]int, numClasses)
	for i := range counts {
		counts[i] = make([]int, numClasses)
	}
	return &ConfusionMatrix{counts: counts}
}

func (m *ConfusionMatrix) Add(trueClass, predicted int) {
	m.counts[trueClass][predicted]++
}

func (m *ConfusionMatrix) Count(trueClass, predicted int) int {
	return m.counts[trueClass][predicted]
}

func (m *ConfusionMatrix) Classes() int {
	return len(m.counts)
}

func (m *ConfusionMatrix) Total() int {
	total := 0
	for _, row := range m.counts {
		for _, count := range row {
			total += count
		}
	}
	return total
}

// Accuracy is the trace over the total. An empty matrix scores zero.
func (m *ConfusionMatrix) Accuracy() float64 {
	total := m.Total()
	if total == 0 {
		return 0
	}
	trace := 0
	for i, row := range m.counts {
		trace += row[i]
	}
	return float64(trace) / float64(total)
}
