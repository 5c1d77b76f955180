package surveys

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalize(t *testing.T) {
	cases := []struct {
		name   string
		answer Answer
		want   float64
		bad    bool
	}{
		{"rating passes through", Answer{Kind: AnswerKindRating, Value: 4}, 4, false},
		{"rating out of range", Answer{Kind: AnswerKindRating, Value: 6}, 0, true},
		{"scale halves", Answer{Kind: AnswerKindScale, Value: 7}, 3.5, false},
		{"scale out of range", Answer{Kind: AnswerKindScale, Value: 0}, 0, true},
		{"yes maps to five", Answer{Kind: AnswerKindYesNo, Value: 1}, 5, false},
		{"no maps to zero", Answer{Kind: AnswerKindYesNo, Value: 0}, 0, false},
		{"yes/no fraction rejected", Answer{Kind: AnswerKindYesNo, Value: 0.5}, 0, true},
		{"unknown kind", Answer{Kind: "emoji", Value: 1}, 0, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := Normalize(tc.answer)
			if tc.bad {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestComputeScoreWeightedAverage(t *testing.T) {
	answers := []Answer{
		{QuestionID: "q1", Kind: AnswerKindRating, Value: 5, Weight: 2}, // 5.0
		{QuestionID: "q2", Kind: AnswerKindScale, Value: 6, Weight: 1},  // 3.0
		{QuestionID: "q3", Kind: AnswerKindYesNo, Value: 1, Weight: 1},  // 5.0
	}
	score, err := ComputeScore(answers)
	require.NoError(t, err)

	// (5*2 + 3*1 + 5*1) / 4 = 4.5
	assert.InDelta(t, 4.5, score.Weighted, 1e-9)
	assert.Equal(t, 3, score.Answered)
	assert.InDelta(t, 4.0, score.TotalWeight, 1e-9)
}

func TestComputeScoreEmpty(t *testing.T) {
	score, err := ComputeScore(nil)
	require.NoError(t, err)
	assert.Zero(t, score.Weighted)
	assert.Zero(t, score.Answered)
}

func TestComputeScoreRejectsBadInput(t *testing.T) {
	_, err := ComputeScore([]Answer{{QuestionID: "q1", Kind: AnswerKindRating, Value: 3, Weight: 0}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "q1")

	_, err = ComputeScore([]Answer{{QuestionID: "q2", Kind: AnswerKindRating, Value: 9, Weight: 1}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "q2")
}
