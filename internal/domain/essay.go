package domain

// EssayPrompt is a theme a candidate can write about.
type EssayPrompt struct {
	ID       int64  `json:"id"`
	Title    string `json:"title"`
	Category string `json:"category"`
	Keywords string `json:"keywords,omitempty"`
	Tips     string `json:"tips,omitempty"`
}

// Competency is one graded dimension of an essay (0..20).
type Competency struct {
	Name    string  `json:"name"`
	Score   float64 `json:"score"`
	Comment string  `json:"comment"`
}

// Rubric is the graded result of one essay.
type Rubric struct {
	PromptID     int64        `json:"prompt_id"`
	FinalScore   float64      `json:"final_score"`
	Competencies []Competency `json:"competencies"`
	Strengths    []string     `json:"strengths"`
	Weaknesses   []string     `json:"weaknesses"`
	Suggestions  []string     `json:"suggestions"`
	ExamTips     []string     `json:"exam_tips"`
}
