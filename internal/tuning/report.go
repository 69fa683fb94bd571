package tuning

import (
	"fmt"
	"strings"

	"github.com/gis-hub/landcover-classifier-poc/internal/properties"
	"github.com/gis-hub/landcover-classifier-poc/internal/utils"
)

// ClassStats summarizes one class of a confusion matrix: correct hits,
// misses, and what the misses were predicted as instead.
type ClassStats struct {
	Hits          int
	Misses        int
	MissPredicted map[int]int
}

// ClassBreakdown derives per-class stats from a confusion matrix.
func ClassBreakdown(matrix *ConfusionMatrix) map[int]*ClassStats {
	breakdown := make(map[int]*ClassStats)
	for trueClass := 0; trueClass < matrix.Classes(); trueClass++ {
		stats := &ClassStats{MissPredicted: make(map[int]int)}
		for predicted := 0; predicted < matrix.Classes(); predicted++ {
			count := matrix.Count(trueClass, predicted)
			if count == 0 {
				continue
			}
			if predicted == trueClass {
				stats.Hits += count
			} else {
				stats.Misses += count
				stats.MissPredicted[predicted] += count
			}
		}
		if stats.Hits+stats.Misses > 0 {
			breakdown[trueClass] = stats
		}
	}
	return breakdown
}

// FormatSweepReport builds the run summary: the ranked candidate table and
// the winner's per-class breakdown.
func FormatSweepReport(candidates []Candidate, best Candidate) string {
	var sb strings.Builder

	sb.WriteString("**Hyperparameter sweep:**\n")
	for _, candidate := range candidates {
		marker := ""
		if candidate.TreeCount == best.TreeCount {
			marker = "  <- selected"
		}
		sb.WriteString(fmt.Sprintf("- %d trees: accuracy %.4f%s\n", candidate.TreeCount, candidate.Accuracy, marker))
	}

	sb.WriteString(fmt.Sprintf("\n**Best model (%d trees) per-class results:**\n", best.TreeCount))
	breakdown := ClassBreakdown(best.Matrix)
	for class := 0; class < len(properties.ClassNames); class++ {
		stats, ok := breakdown[class]
		if !ok {
			continue
		}
		total := stats.Hits + stats.Misses
		hitPct := float64(stats.Hits) / float64(total) * 100
		sb.WriteString(fmt.Sprintf("- %s: %d/%d correct (%.1f%%)\n", properties.ClassNames[class], stats.Hits, total, hitPct))
		for _, predicted := range utils.SortedKeys(stats.MissPredicted) {
			sb.WriteString(fmt.Sprintf("  • %d misclassified as %s\n", stats.MissPredicted[predicted], properties.ClassNames[predicted]))
		}
	}

	return sb.String()
}

// FormatPartitionStats reports the class distribution of a sampled partition,
// for the run notification.
func FormatPartitionStats(name string, classCounts map[int]int, total int) string {
	if total == 0 {
		return fmt.Sprintf("%s: no examples", name)
	}
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("**%s partition:** %d examples\n", name, total))
	for class := 0; class < len(properties.ClassNames); class++ {
		count, ok := classCounts[class]
		if !ok {
			continue
		}
		pct := float64(count) / float64(total) * 100
		sb.WriteString(fmt.Sprintf("- %s: %d (%.1f%%)\n", properties.ClassNames[class], count, pct))
	}
	return sb.String()
}
