package essay

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"esquematiza/internal/domain"
	openai "github.com/sashabaranov/go-openai"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

const (
	competencyCount    = 5
	maxCompetencyScore = 20
	maxFinalScore      = 100
)

// PromptRepository is the catalogue of essay prompts.
type PromptRepository interface {
	ListPrompts(ctx context.Context) ([]domain.EssayPrompt, error)
	GetPrompt(ctx context.Context, id int64) (domain.EssayPrompt, error)
}

type Config struct {
	BaseURL   string
	APIKey    string
	Model     string
	MinLength int
	Timeout   time.Duration
}

// Grader grades essays through an OpenAI-compatible chat completion API.
type Grader struct {
	api       *openai.Client
	model     string
	minLength int
	timeout   time.Duration
	prompts   PromptRepository
	log       logrus.FieldLogger
}

// New builds a grader; without an API key every Grade call fails with ErrGraderUnavailable.
func New(cfg Config, prompts PromptRepository, log logrus.FieldLogger) *Grader {
	g := &Grader{
		model:     cfg.Model,
		minLength: cfg.MinLength,
		timeout:   cfg.Timeout,
		prompts:   prompts,
		log:       log,
	}
	if cfg.APIKey != "" {
		config := openai.DefaultConfig(cfg.APIKey)
		if cfg.BaseURL != "" {
			config.BaseURL = cfg.BaseURL
		}
		g.api = openai.NewClientWithConfig(config)
	}
	return g
}

// Prompts lists the available essay prompts.
func (g *Grader) Prompts(ctx context.Context) ([]domain.EssayPrompt, error) {
	return g.prompts.ListPrompts(ctx)
}

// Grade scores text written for the prompt with the given id.
func (g *Grader) Grade(ctx context.Context, promptID int64, text string) (domain.Rubric, error) {
	if g.api == nil {
		return domain.Rubric{}, domain.ErrGraderUnavailable
	}
	text = strings.TrimSpace(text)
	if utf8.RuneCountInString(text) < g.minLength {
		return domain.Rubric{}, domain.ErrEssayTooShort
	}
	prompt, err := g.prompts.GetPrompt(ctx, promptID)
	if err != nil {
		return domain.Rubric{}, err
	}

	if g.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}

	resp, err := g.api.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: g.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: buildSystemPrompt(prompt)},
			{Role: openai.ChatMessageRoleUser, Content: text},
		},
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
		Temperature: 0.2,
	})
	if err != nil {
		return domain.Rubric{}, fmt.Errorf("%w: api call: %v", domain.ErrGraderFailed, err)
	}
	if len(resp.Choices) == 0 {
		return domain.Rubric{}, fmt.Errorf("%w: no choices returned", domain.ErrGraderFailed)
	}

	raw := resp.Choices[0].Message.Content
	g.log.WithField("prompt_id", promptID).Debug("essay grader responded")

	rubric, err := parseRubric(raw)
	if err != nil {
		return domain.Rubric{}, err
	}
	rubric.PromptID = prompt.ID
	return rubric, nil
}

type rawRubric struct {
	FinalScore   float64             `json:"final_score"`
	Competencies []domain.Competency `json:"competencies"`
	Strengths    []string            `json:"strengths"`
	Weaknesses   []string            `json:"weaknesses"`
	Suggestions  []string            `json:"suggestions"`
	ExamTips     []string            `json:"exam_tips"`
}

// parseRubric decodes the model output and recomputes the final score from the competencies.
func parseRubric(raw string) (domain.Rubric, error) {
	var parsed rawRubric
	if err := json.Unmarshal([]byte(stripFences(raw)), &parsed); err != nil {
		return domain.Rubric{}, fmt.Errorf("%w: parse response: %v", domain.ErrGraderFailed, err)
	}
	if len(parsed.Competencies) != competencyCount {
		return domain.Rubric{}, fmt.Errorf("%w: expected %d competencies, got %d",
			domain.ErrGraderFailed, competencyCount, len(parsed.Competencies))
	}

	total := decimal.Zero
	for i := range parsed.Competencies {
		parsed.Competencies[i].Score = clamp(parsed.Competencies[i].Score, 0, maxCompetencyScore)
		total = total.Add(decimal.NewFromFloat(parsed.Competencies[i].Score))
	}
	final, _ := total.RoundBank(2).Float64()

	return domain.Rubric{
		FinalScore:   clamp(final, 0, maxFinalScore),
		Competencies: parsed.Competencies,
		Strengths:    nonNil(parsed.Strengths),
		Weaknesses:   nonNil(parsed.Weaknesses),
		Suggestions:  nonNil(parsed.Suggestions),
		ExamTips:     nonNil(parsed.ExamTips),
	}, nil
}

// stripFences unwraps a ```json ... ``` block some models emit despite JSON mode.
func stripFences(raw string) string {
	s := strings.TrimSpace(raw)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

func buildSystemPrompt(p domain.EssayPrompt) string {
	var sb strings.Builder
	sb.WriteString("Você é um corretor de redações de concursos públicos brasileiros.\n")
	sb.WriteString("TEMA: " + p.Title + "\n")
	if p.Category != "" {
		sb.WriteString("CATEGORIA: " + p.Category + "\n")
	}
	if p.Keywords != "" {
		sb.WriteString("PALAVRAS-CHAVE: " + p.Keywords + "\n")
	}
	sb.WriteString("\nAvalie o texto do candidato em cinco competências, cada uma de 0 a 20 pontos:\n")
	for i, name := range CompetencyNames {
		sb.WriteString(fmt.Sprintf("%d. %s\n", i+1, name))
	}
	sb.WriteString("\nResponda SOMENTE com um objeto JSON:\n")
	sb.WriteString(`{"final_score": <0-100>, "competencies": [{"name": "<competência>", "score": <0-20>, "comment": "<análise>"}], `)
	sb.WriteString(`"strengths": ["..."], "weaknesses": ["..."], "suggestions": ["..."], "exam_tips": ["..."]}`)
	sb.WriteString("\n")
	return sb.String()
}

// CompetencyNames are the five graded dimensions, in order.
var CompetencyNames = [competencyCount]string{
	"Estrutura e Formato",
	"Coerência e Coesão",
	"Desenvolvimento do Tema e Fundamentação",
	"Norma Culta",
	"Proposta de Intervenção",
}
