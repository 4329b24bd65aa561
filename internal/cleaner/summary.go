package cleaner

import (
	"github.com/WinnyKing57/WinClean-sub000/internal/types"
)

// Summarize aggregates a batch of proposed actions. An empty batch yields
// zero totals and a nil Largest.
func Summarize(actions []types.CleaningAction) types.CleaningSummary {
	summary := types.CleaningSummary{
		ByCategory: make(map[string]types.BucketStat),
		BySafety:   make(map[types.SafetyLevel]types.BucketStat),
	}

	for _, action := range actions {
		summary.TotalActions++
		summary.TotalBytes += action.EstimatedBytes

		cat := summary.ByCategory[action.Category]
		cat.Count++
		cat.Bytes += action.EstimatedBytes
		summary.ByCategory[action.Category] = cat

		saf := summary.BySafety[action.Safety]
		saf.Count++
		saf.Bytes += action.EstimatedBytes
		summary.BySafety[action.Safety] = saf

		if action.Reversible {
			summary.ReversibleActions++
		}
		if summary.Largest == nil || action.EstimatedBytes > summary.Largest.EstimatedBytes {
			largest := action
			summary.Largest = &largest
		}
	}
	return summary
}

// SummarizeResults folds a batch of execution results into a report with
// the same aggregates Summarize gives for the underlying actions.
func SummarizeResults(results []types.CleaningResult) types.ExecutionReport {
	report := types.ExecutionReport{Results: results}

	actions := make([]types.CleaningAction, 0, len(results))
	for _, r := range results {
		actions = append(actions, r.Action)
		if r.Success {
			report.Succeeded++
		} else {
			report.Failed++
		}
		report.FreedBytes += r.FreedBytes
		report.Duration += r.Duration
	}
	report.Summary = Summarize(actions)
	return report
}
