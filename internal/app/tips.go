package app

import "strings"

const (
	tipMathLogic  = "Dica: Estruture os dados. Se for Raciocínio, tente desenhar diagramas. Se for Matemática, identifique a fórmula chave antes de calcular."
	tipLaw        = "Dica: Identifique a base legal (artigo, lei). Questões de Direito costumam ter 'pegadinhas' em palavras como 'pode' vs 'deve'."
	tipPortuguese = "Dica: Volte ao texto para conferir a interpretação. Diferencie 'interpretar' (inferir) de 'compreender' (o que está escrito)."
	tipGeneral    = "Dica: Analise o enunciado e o comando (o que a questão realmente pede). Cuidado com generalizações como 'sempre' ou 'nunca'."
)

// InterpretiveTip returns reading advice for a subject.
func InterpretiveTip(subject string) string {
	s := strings.ToLower(subject)
	switch {
	case strings.Contains(s, "matemática"), strings.Contains(s, "matematica"), strings.Contains(s, "raciocínio"), strings.Contains(s, "raciocinio"):
		return tipMathLogic
	case strings.Contains(s, "direito"):
		return tipLaw
	case strings.Contains(s, "portuguesa"):
		return tipPortuguese
	default:
		return tipGeneral
	}
}
