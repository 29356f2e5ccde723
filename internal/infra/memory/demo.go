package memory

import "esquematiza/internal/domain"

// DemoQuestions is the built-in bank served when no bank location is configured.
func DemoQuestions() []domain.Question {
	return []domain.Question{
		{
			ID: 1, Subject: "Matemática", Discipline: "Matemática e Raciocínio Lógico",
			Prompt:        "Um capital de R$ 1.000,00 aplicado a juros simples de 2% ao mês rende quanto em 6 meses?",
			Alternatives:  map[string]string{"A": "R$ 100,00", "B": "R$ 120,00", "C": "R$ 126,16", "D": "R$ 200,00"},
			CorrectLetter: "B", Difficulty: domain.DifficultyEasy,
			Rationale: "J = C·i·t = 1000 · 0,02 · 6 = 120.",
			Formula:   "J = C·i·t",
		},
		{
			ID: 2, Subject: "Matemática", Discipline: "Matemática e Raciocínio Lógico",
			Prompt:        "Qual é 15% de 240?",
			Alternatives:  map[string]string{"A": "24", "B": "30", "C": "36", "D": "40"},
			CorrectLetter: "C", Difficulty: domain.DifficultyEasy,
			Rationale: "0,15 · 240 = 36.",
		},
		{
			ID: 3, Subject: "Raciocínio Lógico", Discipline: "Matemática e Raciocínio Lógico",
			Prompt:        "A negação de \"Todo servidor é pontual\" é:",
			Alternatives:  map[string]string{"A": "Nenhum servidor é pontual", "B": "Algum servidor não é pontual", "C": "Todo servidor é impontual", "D": "Algum servidor é pontual"},
			CorrectLetter: "B", Difficulty: domain.DifficultyMedium,
			Rationale: "A negação de um quantificador universal é um existencial com a negação do predicado.",
			Hint:      "Negue o quantificador e o predicado.",
		},
		{
			ID: 4, Subject: "Direito Constitucional", Discipline: "Direito (Admin. e Const.)",
			Prompt:        "São Poderes da União, independentes e harmônicos entre si:",
			Alternatives:  map[string]string{"A": "Legislativo, Executivo e Judiciário", "B": "Legislativo, Executivo e Ministério Público", "C": "Executivo, Judiciário e Tribunal de Contas", "D": "Legislativo e Executivo"},
			CorrectLetter: "A", Difficulty: domain.DifficultyEasy,
			Rationale: "Art. 2º da Constituição Federal.",
		},
		{
			ID: 5, Subject: "Direito Administrativo", Discipline: "Direito (Admin. e Const.)",
			Prompt:        "Qual princípio NÃO está expresso no caput do art. 37 da Constituição?",
			Alternatives:  map[string]string{"A": "Legalidade", "B": "Moralidade", "C": "Eficiência", "D": "Razoabilidade", "E": "Publicidade"},
			CorrectLetter: "D", Difficulty: domain.DifficultyMedium,
			Rationale: "O caput traz LIMPE: legalidade, impessoalidade, moralidade, publicidade e eficiência.",
			Hint:      "Lembre do mnemônico LIMPE.",
		},
		{
			ID: 6, Subject: "Direito Administrativo", Discipline: "Direito (Admin. e Const.)",
			Prompt:        "A anulação de ato administrativo ilegal pela própria Administração decorre do princípio da:",
			Alternatives:  map[string]string{"A": "Autotutela", "B": "Tutela", "C": "Especialidade", "D": "Continuidade"},
			CorrectLetter: "A", Difficulty: domain.DifficultyHard,
			Rationale: "Súmula 473 do STF: a Administração pode anular seus próprios atos quando eivados de vícios.",
		},
		{
			ID: 7, Subject: "Língua Portuguesa", Discipline: "Língua Portuguesa",
			Prompt:        "Assinale a alternativa com crase correta.",
			Alternatives:  map[string]string{"A": "Vou à pé.", "B": "Refiro-me à diretora.", "C": "Começou à chover.", "D": "Entreguei à ele."},
			CorrectLetter: "B", Difficulty: domain.DifficultyMedium,
			Rationale: "Referir-se exige preposição \"a\" e \"diretora\" admite artigo feminino.",
		},
		{
			ID: 8, Subject: "Língua Portuguesa", Discipline: "Língua Portuguesa",
			Prompt:        "Em \"Os candidatos estudaram muito\", o termo \"muito\" é:",
			Alternatives:  map[string]string{"A": "Adjetivo", "B": "Pronome", "C": "Advérbio", "D": "Substantivo"},
			CorrectLetter: "C", Difficulty: domain.DifficultyEasy,
			Rationale: "Modifica o verbo \"estudaram\", indicando intensidade.",
		},
		{
			ID: 9, Subject: "Informática", Discipline: "Informática",
			Prompt:        "Qual protocolo é usado para envio de e-mails?",
			Alternatives:  map[string]string{"A": "POP3", "B": "IMAP", "C": "SMTP", "D": "FTP"},
			CorrectLetter: "C", Difficulty: domain.DifficultyEasy,
			Rationale: "SMTP envia; POP3 e IMAP recebem.",
		},
		{
			ID: 10, Subject: "Administração Pública", Discipline: "Administração",
			Prompt:        "O modelo de administração pública focado em resultados e no cidadão é o:",
			Alternatives:  map[string]string{"A": "Patrimonialista", "B": "Burocrático", "C": "Gerencial", "D": "Feudal"},
			CorrectLetter: "C", Difficulty: domain.DifficultyMedium,
			Rationale: "A administração gerencial (reforma de 1995) enfatiza resultados.",
		},
	}
}

// DemoPrompts is the built-in essay prompt catalogue.
func DemoPrompts() []domain.EssayPrompt {
	return []domain.EssayPrompt{
		{
			ID: 1, Title: "Os impactos da inteligência artificial no mercado de trabalho", Category: "Tecnologia e Sociedade",
			Keywords: "IA, automação, emprego, qualificação",
			Tips:     "Aborde tanto os benefícios quanto os desafios. Discuta a necessidade de requalificação profissional.",
		},
		{
			ID: 2, Title: "Desafios da educação pública no Brasil pós-pandemia", Category: "Educação",
			Keywords: "educação pública, desigualdade, tecnologia, evasão escolar",
			Tips:     "Foque nas desigualdades educacionais agravadas pela pandemia e proponha soluções inovadoras.",
		},
		{
			ID: 3, Title: "Sustentabilidade e desenvolvimento econômico: é possível conciliar?", Category: "Meio Ambiente",
			Keywords: "sustentabilidade, desenvolvimento, meio ambiente, economia verde",
			Tips:     "Apresente exemplos concretos de desenvolvimento sustentável e analise políticas públicas eficazes.",
		},
		{
			ID: 4, Title: "A crise habitacional nas grandes cidades brasileiras", Category: "Urbanismo",
			Keywords: "habitação, mobilidade urbana, desigualdade, políticas públicas",
			Tips:     "Discuta causas estruturais e proponha soluções integradas para moradia digna.",
		},
		{
			ID: 5, Title: "Os desafios do sistema de saúde pública no Brasil", Category: "Saúde",
			Keywords: "SUS, saúde pública, acesso, qualidade, financiamento",
			Tips:     "Aborde desde a prevenção até o tratamento, com foco na universalidade e equidade.",
		},
	}
}
