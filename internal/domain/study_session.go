package domain

// StudySession is the graded record of a single answer submission.
// It is created by the backend once per submission and never mutated.
type StudySession struct {
	ID         int64     `json:"id"`
	Response   string    `json:"response"`
	Score      float64   `json:"score"`
	Confidence float64   `json:"confidence"`
	Feedback   string    `json:"feedback,omitempty"`
	StudiedAt  Timestamp `json:"studiedAt"`
	Card       *Card     `json:"card,omitempty"`
}

// Validate checks that score and confidence lie in [0, 1].
func (s *StudySession) Validate() error {
	if s.Score < 0 || s.Score > 1 {
		return NewValidationError("score", "must be between 0 and 1", ErrScoreOutOfRange)
	}
	if s.Confidence < 0 || s.Confidence > 1 {
		return NewValidationError("confidence", "must be between 0 and 1", ErrScoreOutOfRange)
	}
	return nil
}

// Passed reports whether the score meets PassThreshold.
func (s *StudySession) Passed() bool {
	return s.Score >= PassThreshold
}

// Band returns the display band for the session's score.
func (s *StudySession) Band() ScoreBand {
	return BandForScore(s.Score)
}

// StudyAnalytics is the backend's rolling summary of a user's answers.
// AverageScore covers the last 30 days only.
type StudyAnalytics struct {
	AverageScore       float64 `json:"averageScore"`
	TotalSessions      int     `json:"totalSessions"`
	SessionsLast30Days int     `json:"sessionsLast30Days"`
}
