package domain

import "math"

// PassThreshold is the minimum score counted as a correct answer in the
// end-of-session summary.
const PassThreshold = 0.6

// CheckmarkThreshold is the score at which the result view shows a check
// rather than a cross. It is cosmetic and deliberately differs from
// PassThreshold.
const CheckmarkThreshold = 0.7

// ScoreBand is the cosmetic bucket a graded score falls into.
type ScoreBand string

// Score bands, best to worst.
const (
	BandExcellent ScoreBand = "excellent"
	BandGood      ScoreBand = "good"
	BandFair      ScoreBand = "fair"
	BandPoor      ScoreBand = "poor"
)

// Score band lower bounds on the 0..1 scale.
const (
	ExcellentScore = 0.8
	GoodScore      = 0.6
	FairScore      = 0.4
)

// BandForScore buckets a 0..1 score.
func BandForScore(score float64) ScoreBand {
	switch {
	case score >= ExcellentScore:
		return BandExcellent
	case score >= GoodScore:
		return BandGood
	case score >= FairScore:
		return BandFair
	default:
		return BandPoor
	}
}

// ScorePercent renders a 0..1 score as a rounded percentage.
func ScorePercent(score float64) int {
	return int(math.Round(score * 100))
}

// MasteryLevel is the label shown next to a deck's mastery score.
type MasteryLevel string

// Mastery levels, best to worst.
const (
	MasteryMastered MasteryLevel = "Mastered"
	MasteryGood     MasteryLevel = "Good"
	MasteryLearning MasteryLevel = "Learning"
	MasteryBeginner MasteryLevel = "Beginner"
)

// MasteryForScore buckets a deck mastery score on the 0..100 scale.
func MasteryForScore(score float64) MasteryLevel {
	switch {
	case score >= 80:
		return MasteryMastered
	case score >= 60:
		return MasteryGood
	case score >= 40:
		return MasteryLearning
	default:
		return MasteryBeginner
	}
}

// BandForMastery maps a 0..100 mastery score onto the score band palette.
func BandForMastery(score float64) ScoreBand {
	return BandForScore(score / 100)
}

// CompletionPercent returns done/total as 0..100, or 0 when total is 0.
func CompletionPercent(done, total int) float64 {
	if total <= 0 {
		return 0
	}
	if done < 0 {
		done = 0
	}
	if done > total {
		done = total
	}
	return float64(done) / float64(total) * 100
}

// PositionPercent is the progress bar value while card index (0-based) of
// total is on screen.
func PositionPercent(index, total int) float64 {
	return CompletionPercent(index+1, total)
}
