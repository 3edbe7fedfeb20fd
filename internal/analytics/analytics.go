// Package analytics computes per-user learning statistics from the
// append-only analysis history. All functions are pure: they operate on
// record slices supplied by the caller (ordered oldest first) and never
// touch storage themselves.
package analytics

import (
	"math"
	"sort"
	"time"

	"github.com/abcode/codelens/internal/models"
)

const monthLabelLayout = "January 2006"

// NoErrorsYet is returned by MostCommonError for users with no history.
const NoErrorsYet = "No errors yet"

// TopError is one entry of a top-K error ranking.
type TopError struct {
	ErrorType  string  `json:"error_type"`
	Count      int     `json:"count"`
	Percentage float64 `json:"percentage"`
}

// MonthBucket aggregates per-category error counts for one calendar month.
type MonthBucket struct {
	Month      string         `json:"month"`
	Categories map[string]int `json:"categories"`
	Total      int            `json:"total"`
}

// MonthProgress is the total error count for one calendar month, keyed by
// a sortable "YYYY-MM" date label.
type MonthProgress struct {
	Date   string `json:"date"`
	Errors int    `json:"errors"`
}

// ProgressMetrics bundles the headline progress numbers for one user.
type ProgressMetrics struct {
	Improvement float64 `json:"improvement"`
	AvgErrors   float64 `json:"avg_errors"`
	BestScore   int     `json:"best_score"`
}

// TopErrors flattens every record's errors, counts occurrences per type and
// returns the k most frequent, ordered by descending count with ties broken
// by first appearance in the history. Percentages are shares of the returned
// ranking, rounded to one decimal. An empty history yields an empty slice.
func TopErrors(records []models.AnalysisRecord, k int) []TopError {
	counts := map[string]int{}
	firstSeen := map[string]int{}
	order := 0

	for _, record := range records {
		for _, entry := range record.Errors {
			if _, seen := counts[entry.Type]; !seen {
				firstSeen[entry.Type] = order
				order++
			}
			counts[entry.Type]++
		}
	}

	ranked := make([]TopError, 0, len(counts))
	for errorType, count := range counts {
		ranked = append(ranked, TopError{ErrorType: errorType, Count: count})
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].Count != ranked[j].Count {
			return ranked[i].Count > ranked[j].Count
		}
		return firstSeen[ranked[i].ErrorType] < firstSeen[ranked[j].ErrorType]
	})

	if k < len(ranked) {
		ranked = ranked[:k]
	}

	total := 0
	for _, entry := range ranked {
		total += entry.Count
	}
	for i := range ranked {
		if total > 0 {
			ranked[i].Percentage = round1(float64(ranked[i].Count) / float64(total) * 100)
		}
	}
	return ranked
}

// MostCommonError returns the single most frequent error type, or a
// placeholder string for users with no recorded errors.
func MostCommonError(records []models.AnalysisRecord) string {
	top := TopErrors(records, 1)
	if len(top) == 0 {
		return NoErrorsYet
	}
	return top[0].ErrorType
}

// MonthlyBreakdown groups records by the calendar month of their creation
// time and tallies error counts per type within each month. Records without
// errors are skipped. Buckets appear in first-occurrence order, so callers
// wanting chronological output must supply chronologically ordered records.
func MonthlyBreakdown(records []models.AnalysisRecord) []MonthBucket {
	buckets := []MonthBucket{}
	index := map[string]int{}

	for _, record := range records {
		if len(record.Errors) == 0 {
			continue
		}

		label := record.CreatedAt.Format(monthLabelLayout)
		i, seen := index[label]
		if !seen {
			buckets = append(buckets, MonthBucket{
				Month:      label,
				Categories: map[string]int{},
			})
			i = len(buckets) - 1
			index[label] = i
		}

		for _, entry := range record.Errors {
			errorType := entry.Type
			if errorType == "" {
				errorType = "Unknown"
			}
			buckets[i].Categories[errorType]++
			buckets[i].Total++
		}
	}
	return buckets
}

// MonthlyProgress sums total_errors per calendar month, returned in
// ascending month order for charting.
func MonthlyProgress(records []models.AnalysisRecord) []MonthProgress {
	totals := map[string]int{}
	for _, record := range records {
		totals[record.CreatedAt.Format("2006-01")] += record.TotalErrors
	}

	months := make([]string, 0, len(totals))
	for month := range totals {
		months = append(months, month)
	}
	sort.Strings(months)

	progress := make([]MonthProgress, 0, len(months))
	for _, month := range months {
		progress = append(progress, MonthProgress{Date: month, Errors: totals[month]})
	}
	return progress
}

// DayStreak counts the consecutive calendar days ending at today that have
// at least one record. A user with no record on today's date has streak 0
// regardless of any earlier run.
func DayStreak(records []models.AnalysisRecord, today time.Time) int {
	if len(records) == 0 {
		return 0
	}

	seen := map[time.Time]struct{}{}
	dates := []time.Time{}
	for _, record := range records {
		day := truncateToDay(record.CreatedAt)
		if _, ok := seen[day]; !ok {
			seen[day] = struct{}{}
			dates = append(dates, day)
		}
	}
	sort.Slice(dates, func(i, j int) bool { return dates[i].After(dates[j]) })

	streak := 0
	expected := truncateToDay(today)
	for _, day := range dates {
		if day.Equal(expected) {
			streak++
			expected = expected.AddDate(0, 0, -1)
		} else if day.Before(expected) {
			break
		}
	}
	return streak
}

// ImprovementRate compares the first month's error total against the last
// month's and reports the reduction as a percentage clamped to [0, 100].
// Fewer than two months of data, or a zero first month, yields 0.
func ImprovementRate(records []models.AnalysisRecord) float64 {
	progress := MonthlyProgress(records)
	if len(progress) < 2 {
		return 0.0
	}

	first := progress[0].Errors
	last := progress[len(progress)-1].Errors
	if first == 0 {
		return 0.0
	}

	improvement := float64(first-last) / float64(first) * 100
	return math.Max(0.0, math.Min(100.0, improvement))
}

// AverageErrors returns the mean total_errors across all records, rounded
// to one decimal. Zero for an empty history.
func AverageErrors(records []models.AnalysisRecord) float64 {
	if len(records) == 0 {
		return 0.0
	}

	sum := 0
	for _, record := range records {
		sum += record.TotalErrors
	}
	return round1(float64(sum) / float64(len(records)))
}

// BestScore returns the lowest total_errors seen across all records. Zero
// for an empty history, which is indistinguishable from a genuine
// zero-error session.
func BestScore(records []models.AnalysisRecord) int {
	if len(records) == 0 {
		return 0
	}

	best := records[0].TotalErrors
	for _, record := range records[1:] {
		if record.TotalErrors < best {
			best = record.TotalErrors
		}
	}
	return best
}

// Metrics bundles improvement rate, average errors and best score into the
// progress payload served to clients.
func Metrics(records []models.AnalysisRecord) ProgressMetrics {
	return ProgressMetrics{
		Improvement: ImprovementRate(records),
		AvgErrors:   AverageErrors(records),
		BestScore:   BestScore(records),
	}
}

func truncateToDay(t time.Time) time.Time {
	year, month, day := t.UTC().Date()
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
