package metrics

import (
	"fmt"
	"sort"
	"strings"
)

// ClassStats holds one class's row of a classification report.
type ClassStats struct {
	Precision float64
	Recall    float64
	F1        float64
	Support   int
}

// Report is a per-class classification report with a macro average.
type Report struct {
	Classes map[string]ClassStats
	Macro   ClassStats
	Total   int
}

// ClassificationReport compares parallel slices of true and predicted
// labels. Slices of different lengths are truncated to the shorter one.
func ClassificationReport(truth, predicted []string) Report {
	n := len(truth)
	if len(predicted) < n {
		n = len(predicted)
	}

	tp := make(map[string]int)
	fp := make(map[string]int)
	fn := make(map[string]int)
	support := make(map[string]int)
	for i := 0; i < n; i++ {
		support[truth[i]]++
		if truth[i] == predicted[i] {
			tp[truth[i]]++
		} else {
			fn[truth[i]]++
			fp[predicted[i]]++
		}
	}

	report := Report{Classes: make(map[string]ClassStats), Total: n}
	labels := make([]string, 0, len(support))
	for label := range support {
		labels = append(labels, label)
	}
	for label := range fp {
		if _, ok := support[label]; !ok {
			labels = append(labels, label)
		}
	}
	sort.Strings(labels)

	for _, label := range labels {
		var stats ClassStats
		stats.Support = support[label]
		if tp[label]+fp[label] > 0 {
			stats.Precision = float64(tp[label]) / float64(tp[label]+fp[label])
		}
		if tp[label]+fn[label] > 0 {
			stats.Recall = float64(tp[label]) / float64(tp[label]+fn[label])
		}
		if stats.Precision+stats.Recall > 0 {
			stats.F1 = 2 * stats.Precision * stats.Recall / (stats.Precision + stats.Recall)
		}
		report.Classes[label] = stats

		report.Macro.Precision += stats.Precision
		report.Macro.Recall += stats.Recall
		report.Macro.F1 += stats.F1
		report.Macro.Support += stats.Support
	}

	if len(labels) > 0 {
		count := float64(len(labels))
		report.Macro.Precision /= count
		report.Macro.Recall /= count
		report.Macro.F1 /= count
	}
	return report
}

// String renders the report as an aligned text table.
func (r Report) String() string {
	labels := make([]string, 0, len(r.Classes))
	width := len("macro avg")
	for label := range r.Classes {
		labels = append(labels, label)
		if len(label) > width {
			width = len(label)
		}
	}
	sort.Strings(labels)

	var b strings.Builder
	fmt.Fprintf(&b, "%*s  precision  recall  f1-score  support\n", width, "")
	for _, label := range labels {
		stats := r.Classes[label]
		fmt.Fprintf(&b, "%*s  %9.2f  %6.2f  %8.2f  %7d\n",
			width, label, stats.Precision, stats.Recall, stats.F1, stats.Support)
	}
	fmt.Fprintf(&b, "%*s  %9.2f  %6.2f  %8.2f  %7d\n",
		width, "macro avg", r.Macro.Precision, r.Macro.Recall, r.Macro.F1, r.Macro.Support)
	return b.String()
}
