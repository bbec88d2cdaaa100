package study

import (
	"github.com/phrazzld/synth-study/internal/domain"
)

// Entry is one slot of a session's results: either a graded answer or a
// placeholder for a card completed in an earlier, resumed session whose
// grade is not retrievable.
type Entry struct {
	session *domain.StudySession
}

// GradedEntry wraps a graded answer.
func GradedEntry(s *domain.StudySession) Entry {
	return Entry{session: s}
}

// PlaceholderEntry marks a card completed before the session was resumed.
func PlaceholderEntry() Entry {
	return Entry{}
}

// Graded reports whether the entry carries a score.
func (e Entry) Graded() bool {
	return e.session != nil
}

// Session returns the graded answer, or nil for a placeholder.
func (e Entry) Session() *domain.StudySession {
	return e.session
}

// Summary is the end-of-session report.
type Summary struct {
	// Total is the number of entries, placeholders included.
	Total int `json:"total"`
	// Graded is the number of entries with a score.
	Graded int `json:"graded"`
	// Placeholders is the number of resumed, ungraded entries.
	Placeholders int `json:"placeholders"`
	// AverageScore is the mean score of graded entries, 0 when none.
	AverageScore float64 `json:"averageScore"`
	// CorrectCount is the number of graded entries at or above
	// domain.PassThreshold.
	CorrectCount int `json:"correctCount"`
}

// Summarize computes a Summary. Placeholders count toward Total only.
func Summarize(entries []Entry) Summary {
	s := Summary{Total: len(entries)}

	var sum float64
	for _, e := range entries {
		if !e.Graded() {
			s.Placeholders++
			continue
		}
		s.Graded++
		sum += e.session.Score
		if e.session.Passed() {
			s.CorrectCount++
		}
	}

	if s.Graded > 0 {
		s.AverageScore = sum / float64(s.Graded)
	}
	return s
}

// AveragePercent is AverageScore on a 0..100 scale, rounded.
func (s Summary) AveragePercent() int {
	return domain.ScorePercent(s.AverageScore)
}
