package flow

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/atendo/atendo/pkg/domain"
)

var emailRe = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// ValidateInput checks text against the given validation kind and returns the
// value to capture. Phone numbers keep the user's formatting; length is
// checked on digits only (10 or 11, Brazilian numbers with DDD).
func ValidateInput(text string, v domain.Validation) (string, bool) {
	trimmed := strings.TrimSpace(text)

	switch v {
	case domain.ValidationEmail:
		return trimmed, emailRe.MatchString(trimmed)

	case domain.ValidationPhone:
		digits := stripNonDigits(trimmed)
		return trimmed, len(digits) >= 10 && len(digits) <= 11

	case domain.ValidationNumber:
		_, err := strconv.ParseFloat(trimmed, 64)
		return trimmed, err == nil

	default:
		return trimmed, trimmed != ""
	}
}

func stripNonDigits(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// CaptureKey determines the userData key an input node stores its reply
// under: the explicit variable name when configured, otherwise a heuristic
// over the node's label, falling back to a generic key.
func CaptureKey(cfg *domain.InputConfig) string {
	if cfg == nil {
		return "userInput"
	}
	if cfg.Variable != "" {
		return cfg.Variable
	}

	label := strings.ToLower(cfg.Label)
	switch {
	case strings.Contains(label, "nome"):
		return "nome"
	case strings.Contains(label, "email"):
		return "email"
	case strings.Contains(label, "telefone"), strings.Contains(label, "phone"):
		return "telefone"
	default:
		return "userInput"
	}
}
