package flow

import "github.com/atendo/atendo/pkg/domain"

// Messages are the end-user strings the interpreter speaks when the graph
// itself has nothing to say. Defaults are Portuguese, the product's language;
// deployments can override any of them via WithMessages.
type Messages struct {
	// ConfigError is sent when the flow itself is broken (no active flow,
	// trigger without an exit). Non-technical on purpose.
	ConfigError string

	// DidNotUnderstand is sent when the stage no longer resolves to a node.
	DidNotUnderstand string

	// ChooseOption prefixes the choice list of condition/menu re-prompts.
	ChooseOption string

	// MisconfiguredOption is sent when a matched choice has no labeled edge.
	MisconfiguredOption string

	// Transfer is the fallback hand-off announcement.
	Transfer string

	// DefaultDepartment is the hand-off queue when the node names none.
	DefaultDepartment string

	// Re-prompts per validation kind.
	InvalidText   string
	InvalidEmail  string
	InvalidPhone  string
	InvalidNumber string

	// LegacyMenu is the fixed canned-response table of legacy menu nodes,
	// keyed by the 1-based numeric choice. A product relic; do not extend.
	LegacyMenu map[int]string
}

// DefaultMessages returns the stock Portuguese strings.
func DefaultMessages() Messages {
	return Messages{
		ConfigError:         "Desculpe, estamos com dificuldades técnicas no momento. Por favor, tente novamente mais tarde.",
		DidNotUnderstand:    "Desculpe, não entendi. Pode repetir, por favor?",
		ChooseOption:        "Escolha uma das opções:",
		MisconfiguredOption: "Essa opção ainda não está disponível. Escolha outra, por favor.",
		Transfer:            "Certo! Estou te transferindo para um de nossos atendentes.",
		DefaultDepartment:   "Geral",
		InvalidText:         "Não recebi sua resposta. Pode digitar novamente?",
		InvalidEmail:        "Esse e-mail não parece válido. Pode digitar novamente? (ex: nome@exemplo.com)",
		InvalidPhone:        "Esse telefone não parece válido. Digite com DDD, apenas números.",
		InvalidNumber:       "Preciso de um número. Pode tentar de novo?",
		LegacyMenu: map[int]string{
			1: "Funcionamos de segunda a sexta das 6h às 23h, e aos sábados das 8h às 14h.",
			2: "Nossos planos começam em R$ 89,90/mês. O plano anual sai por R$ 69,90/mês.",
			3: "Estamos na Av. Paulista, 1000 - Bela Vista, São Paulo.",
			4: "Temos aulas de musculação, spinning, funcional e pilates. Consulte a grade na recepção.",
			5: "Um momento, vou chamar um de nossos atendentes para falar com você.",
		},
	}
}

// Reprompt returns the retry message for a failed validation.
func (m Messages) Reprompt(v domain.Validation) string {
	switch v {
	case domain.ValidationEmail:
		return m.InvalidEmail
	case domain.ValidationPhone:
		return m.InvalidPhone
	case domain.ValidationNumber:
		return m.InvalidNumber
	default:
		return m.InvalidText
	}
}
