package i18n

var ptBRMessages = map[Code]string{
	CodeDiceInvalidNotation:      "Notação de dados inválida: {{.Input}}. Use o formato {{.Expected}}",
	CodeDiceInvalidExpression:    "Os dados precisam de pelo menos um dado e um lado.",
	CodeDiceLimitExceeded:        "A rolagem {{.Input}} é grande demais: no máximo {{num .MaxCount}} dados com {{num .MaxSides}} lados e modificador dentro de ±{{num .MaxModifier}}.",
	CodeInitiativeNoParticipants: "Adicione pelo menos um participante para rolar iniciativa.",
	CodeTableNotFound:            "Tabela não encontrada: {{.Table}}. Tabelas disponíveis: {{.Available}}",
	CodeLootInvalidTreasureLevel: "Nível de tesouro inválido {{.Level}}. Use 'low', 'medium', 'high' ou 'legendary'",
	CodeInvalidArgument:          "{{.Field}} inválido: {{.Reason}}",
	CodeInvalidFilter:            "Filtro inválido: {{.Filter}}",
	CodeNotFound:                 "{{.Kind}} não encontrado: {{.Name}}",
	CodeAlreadyExists:            "{{.Kind}} já existe: {{.Name}}",
	CodeFetchFailed:              "Falha ao carregar a página {{.URL}}",
}
