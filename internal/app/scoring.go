package app

import (
	"time"

	"esquematiza/internal/domain"
	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// Verdict scores a chosen letter against a question and returns (correct, points).
// The letter is normalised before comparison; letters outside the alternatives are rejected.
func Verdict(q domain.Question, chosen string) (bool, int, error) {
	letter := domain.NormalizeLetter(chosen)
	if !q.HasAlternative(letter) {
		return false, 0, domain.ErrInvalidChoice
	}
	if letter == domain.NormalizeLetter(q.CorrectLetter) {
		return true, q.Weight, nil
	}
	return false, 0, nil
}

// BuildReport summarises a sampled set and its answers. It is a pure function of its inputs.
func BuildReport(questions []domain.Question, answers map[int64]domain.Answer, end time.Time) domain.Report {
	report := domain.Report{
		TotalQuestions: len(questions),
		EndTimestamp:   end,
	}
	for _, q := range questions {
		report.TotalWeight += q.Weight
		answer, ok := answers[q.ID]
		if !ok {
			continue
		}
		report.TotalAnswered++
		if answer.Correct {
			report.TotalCorrect++
		}
		report.PointsObtained += answer.Points
	}
	report.WeightedScorePct = percent(report.PointsObtained, report.TotalWeight)
	report.SimpleAccuracyPct = percent(report.TotalCorrect, report.TotalQuestions)
	return report
}

// percent returns num/den*100 rounded half-even to 2 decimals, clamped to 0..100.
func percent(num, den int) float64 {
	if den <= 0 || num <= 0 {
		return 0
	}
	pct := decimal.NewFromInt(int64(num)).Mul(hundred).Div(decimal.NewFromInt(int64(den))).RoundBank(2)
	if pct.GreaterThan(hundred) {
		pct = hundred
	}
	f, _ := pct.Float64()
	return f
}

// meanPct averages percentages with the same rounding as reports.
func meanPct(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sum := decimal.Zero
	for _, v := range values {
		sum = sum.Add(decimal.NewFromFloat(v))
	}
	f, _ := sum.Div(decimal.NewFromInt(int64(len(values)))).RoundBank(2).Float64()
	return f
}
