package middleware

import (
	"context"
	"regexp"

	"github.com/atendo/atendo/pkg/domain"
	"github.com/atendo/atendo/pkg/ports"
)

// DefaultPIIPatterns match the variable names the stock flows capture
// personal data under.
var DefaultPIIPatterns = []string{"(?i)email", "(?i)telefone", "(?i)phone", "(?i)cpf"}

type piiMiddleware struct {
	next     ports.ContextStore
	patterns []*regexp.Regexp
}

// NewPIIMiddleware masks captured variables whose name matches one of the
// patterns before they reach the underlying store. Masking is one-way: a
// loaded context carries "***" for masked values, so flows must not branch on
// data configured as PII.
func NewPIIMiddleware(patternStrings []string) Middleware {
	patterns := make([]*regexp.Regexp, len(patternStrings))
	for i, p := range patternStrings {
		patterns[i] = regexp.MustCompile(p)
	}
	return func(next ports.ContextStore) ports.ContextStore {
		return &piiMiddleware{next: next, patterns: patterns}
	}
}

func (m *piiMiddleware) Save(ctx context.Context, conversationID string, conv domain.Context) error {
	masked := conv
	masked.UserData = make(map[string]string, len(conv.UserData))
	for k, v := range conv.UserData {
		masked.UserData[k] = v
		for _, p := range m.patterns {
			if p.MatchString(k) {
				masked.UserData[k] = "***"
				break
			}
		}
	}
	return m.next.Save(ctx, conversationID, masked)
}

func (m *piiMiddleware) Load(ctx context.Context, conversationID string) (domain.Context, error) {
	return m.next.Load(ctx, conversationID)
}

func (m *piiMiddleware) Delete(ctx context.Context, conversationID string) error {
	return m.next.Delete(ctx, conversationID)
}

func (m *piiMiddleware) List(ctx context.Context) ([]string, error) {
	return m.next.List(ctx)
}
