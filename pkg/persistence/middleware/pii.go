package middleware

import (
	"context"
	"fmt"
	"regexp"

	"github.com/aretw0/vmchat/pkg/domain"
	"github.com/aretw0/vmchat/pkg/ports"
)

// Mask replaces every redacted match.
const Mask = "***"

type piiMiddleware struct {
	next     ports.HistoryStore
	patterns []*regexp.Regexp
}

// NewPIIMiddleware creates a middleware that masks every match of the
// patterns in message content before it is stored. Callers keep their
// unmasked copy.
func NewPIIMiddleware(patternStrings []string) (Middleware, error) {
	patterns := make([]*regexp.Regexp, len(patternStrings))
	for i, p := range patternStrings {
		re, err := regexp.Compile(p)
		if err != nil {
			return nil, fmt.Errorf("invalid redact pattern %q: %w", p, err)
		}
		patterns[i] = re
	}
	return func(next ports.HistoryStore) ports.HistoryStore {
		return &piiMiddleware{next: next, patterns: patterns}
	}, nil
}

func (m *piiMiddleware) Append(ctx context.Context, sessionID string, msgs ...domain.Message) error {
	masked := make([]domain.Message, len(msgs))
	for i, msg := range msgs {
		masked[i] = domain.Message{Role: msg.Role, Content: m.mask(msg.Content)}
	}
	return m.next.Append(ctx, sessionID, masked...)
}

func (m *piiMiddleware) mask(s string) string {
	for _, p := range m.patterns {
		s = p.ReplaceAllString(s, Mask)
	}
	return s
}

func (m *piiMiddleware) Load(ctx context.Context, sessionID string) ([]domain.Message, error) {
	return m.next.Load(ctx, sessionID)
}

func (m *piiMiddleware) Delete(ctx context.Context, sessionID string) error {
	return m.next.Delete(ctx, sessionID)
}

func (m *piiMiddleware) List(ctx context.Context) ([]string, error) {
	return m.next.List(ctx)
}
