package domain

import "strings"

// OtherArea groups subjects no rule matches.
const OtherArea = "Outras Matérias"

// AreaRule maps subjects containing Match (case-insensitive) to Area.
type AreaRule struct {
	Match string `yaml:"match" json:"match"`
	Area  string `yaml:"area" json:"area"`
}

// AreaTable is an ordered rule list; the first match wins.
type AreaTable []AreaRule

// DefaultAreas is the built-in classification of concurso subjects.
var DefaultAreas = AreaTable{
	{Match: "Atualidades", Area: "Atualidades"},
	{Match: "Mercado Financeiro", Area: "Conhecimentos Bancários"},
	{Match: "Conhecimentos Bancários", Area: "Conhecimentos Bancários"},
	{Match: "Direito Administrativo", Area: "Direito (Admin. e Const.)"},
	{Match: "Direito Constitucional", Area: "Direito (Admin. e Const.)"},
	{Match: "Informática", Area: "Informática"},
	{Match: "Língua Portuguesa", Area: "Língua Portuguesa"},
	{Match: "Literatura", Area: "Língua Portuguesa"},
	{Match: "Matemática", Area: "Matemática e Raciocínio Lógico"},
	{Match: "Raciocínio Lógico", Area: "Matemática e Raciocínio Lógico"},
	{Match: "Psicologia", Area: "Psicologia e Negociação"},
	{Match: "Vendas", Area: "Psicologia e Negociação"},
	{Match: "Negociação", Area: "Psicologia e Negociação"},
	{Match: "Geografia", Area: "Atualidades"},
	{Match: "História", Area: "Atualidades"},
	{Match: "Economia", Area: "Atualidades"},
	{Match: "Administração", Area: "Conhecimentos Bancários"},
	{Match: "Contabilidade", Area: "Conhecimentos Bancários"},
}

// Classify returns the area of a subject, or OtherArea.
func (t AreaTable) Classify(subject string) string {
	s := strings.ToLower(strings.TrimSpace(subject))
	if s == "" {
		return OtherArea
	}
	for _, rule := range t {
		if strings.Contains(s, strings.ToLower(rule.Match)) {
			return rule.Area
		}
	}
	return OtherArea
}
