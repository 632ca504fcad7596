package pipeline

import (
	"sort"

	tcxanalyzer "github.com/lucasjlepore/tcx-analyzer"
)

// Prepare selects the first activity of each document, runs the elevation
// pass over it and orders the results by activity ID. The ordering is a
// stable lexicographic string sort, so equal IDs keep their input order.
// Documents without activities are skipped.
func Prepare(docs []*tcxanalyzer.TrainingCenterDatabase) []*tcxanalyzer.AnalyzedActivity {
	out := make([]*tcxanalyzer.AnalyzedActivity, 0, len(docs))
	for _, doc := range docs {
		if doc == nil {
			continue
		}
		act, ok := doc.ActivityAt(0)
		if !ok {
			continue
		}
		out = append(out, tcxanalyzer.Analyze(act))
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Activity.ID < out[j].Activity.ID
	})
	return out
}

// BuildAll reduces each analyzed activity to its summary, preserving order.
func BuildAll(analyzed []*tcxanalyzer.AnalyzedActivity) []tcxanalyzer.ActivityStats {
	stats := make([]tcxanalyzer.ActivityStats, 0, len(analyzed))
	for _, a := range analyzed {
		stats = append(stats, tcxanalyzer.BuildStats(a))
	}
	return stats
}
