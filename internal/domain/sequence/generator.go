package sequence

import (
	"context"
	"fmt"
	"time"
)

// Generator turns counter increments into document numbers
type Generator struct {
	now func() time.Time
}

// NewGenerator creates a Generator using the wall clock
func NewGenerator() *Generator {
	return &Generator{now: time.Now}
}

// NewGeneratorWithClock creates a Generator with a fixed clock source
func NewGeneratorWithClock(now func() time.Time) *Generator {
	return &Generator{now: now}
}

// Next increments the counter for the current year and formats the number.
// The repository decides transactional scope; pass a transaction-bound one
// to make the number part of the enclosing workflow.
func (g *Generator) Next(ctx context.Context, repo CounterRepository, docType DocType) (string, error) {
	if !docType.IsValid() {
		return "", fmt.Errorf("unknown document type %q", docType)
	}
	year := g.now().Year()
	n, err := repo.Increment(ctx, docType, year)
	if err != nil {
		return "", fmt.Errorf("failed to increment %s counter: %w", docType, err)
	}
	return Format(docType, year, n), nil
}
