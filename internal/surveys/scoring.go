package surveys

import (
	"fmt"
)

// Heterogeneous answer types are normalized onto a 0..5 scale before the
// weighted average: ratings map directly, 1..10 scales are halved, and
// yes/no maps to 5/0.

// AnswerKind identifies how an answer value is interpreted.
type AnswerKind string

const (
	AnswerKindRating AnswerKind = "rating" // 1..5
	AnswerKindScale  AnswerKind = "scale"  // 1..10
	AnswerKindYesNo  AnswerKind = "yes_no"
)

// Answer is one response to a survey question.
type Answer struct {
	QuestionID string
	Kind       AnswerKind
	Value      float64 // rating/scale numeric value; yes/no uses 1 or 0
	Weight     float64 // per-question weight, must be positive
}

// Score is the weighted result across a response's answers.
type Score struct {
	Weighted    float64 // 0..5
	TotalWeight float64
	Answered    int
}

// Normalize maps a single answer onto the 0..5 scale.
func Normalize(answer Answer) (float64, error) {
	switch answer.Kind {
	case AnswerKindRating:
		if answer.Value < 1 || answer.Value > 5 {
			return 0, fmt.Errorf("rating %v out of range 1..5", answer.Value)
		}
		return answer.Value, nil
	case AnswerKindScale:
		if answer.Value < 1 || answer.Value > 10 {
			return 0, fmt.Errorf("scale %v out of range 1..10", answer.Value)
		}
		return answer.Value / 2, nil
	case AnswerKindYesNo:
		if answer.Value != 0 && answer.Value != 1 {
			return 0, fmt.Errorf("yes/no answer %v must be 0 or 1", answer.Value)
		}
		return answer.Value * 5, nil
	default:
		return 0, fmt.Errorf("unknown answer kind %q", answer.Kind)
	}
}

// ComputeScore normalizes each answer and returns the weighted average.
// An empty answer set scores zero.
func ComputeScore(answers []Answer) (Score, error) {
	var score Score
	var weightedSum float64
	for _, answer := range answers {
		if answer.Weight <= 0 {
			return Score{}, fmt.Errorf("question %s: weight must be positive", answer.QuestionID)
		}
		normalized, err := Normalize(answer)
		if err != nil {
			return Score{}, fmt.Errorf("question %s: %w", answer.QuestionID, err)
		}
		weightedSum += normalized * answer.Weight
		score.TotalWeight += answer.Weight
		score.Answered++
	}
	if score.TotalWeight > 0 {
		score.Weighted = weightedSum / score.TotalWeight
	}
	return score, nil
}
