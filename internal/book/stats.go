package book

import (
	"sort"
	"time"
)

// CategoryCount is the number of books sharing a category.
type CategoryCount struct {
	Category string `json:"category"`
	Count    int    `json:"count"`
}

// Stats summarises a collection.
type Stats struct {
	Total            int             `json:"total"`
	ToRead           int             `json:"to_read"`
	Reading          int             `json:"reading"`
	Finished         int             `json:"finished"`
	FinishedThisYear int             `json:"finished_this_year"`
	AverageProgress  float64         `json:"average_progress"`
	Categories       []CategoryCount `json:"categories"`
	LastFinished     *Book           `json:"last_finished,omitempty"`
}

// ComputeStats derives Stats from books. AverageProgress covers books in
// progress only; categories are ordered by count, then name.
func ComputeStats(books []Book, now time.Time) Stats {
	s := Stats{Total: len(books), Categories: []CategoryCount{}}
	year := now.Format("2006")
	counts := make(map[string]int)
	progressSum := 0

	for i := range books {
		b := books[i]
		counts[b.Category]++

		switch b.ReadingStatus {
		case StatusReading:
			s.Reading++
			progressSum += b.ProgressPercentage
		case StatusFinished:
			s.Finished++
			if b.DateFinished != nil && len(*b.DateFinished) >= 4 && (*b.DateFinished)[:4] == year {
				s.FinishedThisYear++
			}
			if s.LastFinished == nil || finishedAfter(b, *s.LastFinished) {
				s.LastFinished = &b
			}
		default:
			s.ToRead++
		}
	}

	if s.Reading > 0 {
		s.AverageProgress = float64(progressSum) / float64(s.Reading)
	}

	for c, n := range counts {
		s.Categories = append(s.Categories, CategoryCount{Category: c, Count: n})
	}
	sort.Slice(s.Categories, func(i, j int) bool {
		if s.Categories[i].Count != s.Categories[j].Count {
			return s.Categories[i].Count > s.Categories[j].Count
		}
		return s.Categories[i].Category < s.Categories[j].Category
	})
	return s
}

// finishedAfter orders by finish date (ISO dates compare lexically), falling
// back to creation time.
func finishedAfter(a, b Book) bool {
	ad, bd := "", ""
	if a.DateFinished != nil {
		ad = *a.DateFinished
	}
	if b.DateFinished != nil {
		bd = *b.DateFinished
	}
	if ad != bd {
		return ad > bd
	}
	return a.CreatedAt.After(b.CreatedAt)
}
