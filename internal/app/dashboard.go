package app

import (
	"context"

	"esquematiza/internal/domain"
)

const recentReports = 5

// PromptLister exposes the essay prompt catalogue.
type PromptLister interface {
	ListPrompts(ctx context.Context) ([]domain.EssayPrompt, error)
}

// BankStats sums the bank content.
type BankStats struct {
	TotalQuestions    int `json:"total_questions"`
	TotalSubjects     int `json:"total_subjects"`
	TotalEssayPrompts int `json:"total_essay_prompts"`
}

// UserStats summarises one user's finalized exams.
type UserStats struct {
	TotalExams           int             `json:"total_exams"`
	TotalAnswered        int             `json:"total_answered"`
	MeanWeightedScorePct float64         `json:"mean_weighted_score_pct"`
	MeanAccuracyPct      float64         `json:"mean_accuracy_pct"`
	Recent               []domain.Report `json:"recent"`
}

// DashboardStats is the payload of the dashboard screen.
type DashboardStats struct {
	Bank BankStats `json:"bank"`
	User UserStats `json:"user"`
}

// Dashboard aggregates bank totals and user history.
type Dashboard struct {
	questions QuestionBank
	history   HistoryRepository
	prompts   PromptLister
}

// NewDashboard builds a Dashboard; prompts may be nil when essays are disabled.
func NewDashboard(questions QuestionBank, history HistoryRepository, prompts PromptLister) *Dashboard {
	return &Dashboard{questions: questions, history: history, prompts: prompts}
}

func (d *Dashboard) Stats(ctx context.Context, userID string) (DashboardStats, error) {
	var stats DashboardStats

	subjects, err := d.questions.ListSubjects(ctx)
	if err != nil {
		return stats, err
	}
	stats.Bank.TotalSubjects = len(subjects)
	for _, s := range subjects {
		stats.Bank.TotalQuestions += s.Count
	}

	if d.prompts != nil {
		prompts, err := d.prompts.ListPrompts(ctx)
		if err != nil {
			return stats, err
		}
		stats.Bank.TotalEssayPrompts = len(prompts)
	}

	entries, err := d.history.ListFor(ctx, userID)
	if err != nil {
		return stats, err
	}
	stats.User = summarise(entries)
	return stats, nil
}

func summarise(entries []domain.HistoryEntry) UserStats {
	us := UserStats{
		TotalExams: len(entries),
		Recent:     make([]domain.Report, 0, recentReports),
	}
	weighted := make([]float64, 0, len(entries))
	accuracy := make([]float64, 0, len(entries))
	for i, e := range entries {
		us.TotalAnswered += e.Report.TotalAnswered
		weighted = append(weighted, e.Report.WeightedScorePct)
		accuracy = append(accuracy, e.Report.SimpleAccuracyPct)
		if i < recentReports {
			us.Recent = append(us.Recent, e.Report)
		}
	}
	us.MeanWeightedScorePct = meanPct(weighted)
	us.MeanAccuracyPct = meanPct(accuracy)
	return us
}
