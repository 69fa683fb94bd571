package output

import (
	"fmt"
	"os"
	"sort"

	"github.com/gis-hub/landcover-classifier-poc/internal/tuning"
	"github.com/gocarina/gocsv"
)

type resultRow struct {
	Rank      int     `csv:"rank"`
	TreeCount int     `csv:"tree_count"`
	Accuracy  float64 `csv:"accuracy"`
	Selected  bool    `csv:"selected"`
}

// CreateResultTable writes the candidates ranked by accuracy, best first,
// with the winning configuration flagged. Equal accuracies keep sweep order.
func CreateResultTable(candidates []tuning.Candidate, best tuning.Candidate, outputPath string) error {
	ranked := make([]tuning.Candidate, len(candidates))
	copy(ranked, candidates)
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Accuracy > ranked[j].Accuracy
	})

	rows := make([]resultRow, len(ranked))
	for i, candidate := range ranked {
		rows[i] = resultRow{
			Rank:      i + 1,
			TreeCount: candidate.TreeCount,
			Accuracy:  candidate.Accuracy,
			Selected:  candidate.TreeCount == best.TreeCount,
		}
	}

	file, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("error creating result table: %w", err)
	}
	defer file.Close()

	if err := gocsv.MarshalFile(&rows, file); err != nil {
		return fmt.Errorf("error writing result table: %w", err)
	}
	fmt.Println("Result table created successfully at", outputPath)
	return nil
}
