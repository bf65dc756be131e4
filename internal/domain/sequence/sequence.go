// Package sequence issues human-readable document numbers.
package sequence

import (
	"context"
	"fmt"
	"strconv"
	"strings"
)

// DocType is the prefix of a document number
type DocType string

const (
	DocTypeRequest       DocType = "COM"
	DocTypePurchaseOrder DocType = "BC"
	DocTypeAudit         DocType = "AUDIT"
)

// IsValid checks if the document type is known
func (d DocType) IsValid() bool {
	switch d {
	case DocTypeRequest, DocTypePurchaseOrder, DocTypeAudit:
		return true
	}
	return false
}

// String returns the string representation of DocType
func (d DocType) String() string {
	return string(d)
}

// Format renders "{type}-{year}-{n:05d}"
func Format(docType DocType, year, n int) string {
	return fmt.Sprintf("%s-%d-%05d", docType, year, n)
}

// Parse splits a document number back into its parts
func Parse(number string) (DocType, int, int, error) {
	parts := strings.Split(number, "-")
	if len(parts) != 3 {
		return "", 0, 0, fmt.Errorf("malformed document number %q", number)
	}
	year, err := strconv.Atoi(parts[1])
	if err != nil {
		return "", 0, 0, fmt.Errorf("malformed year in %q: %w", number, err)
	}
	n, err := strconv.Atoi(parts[2])
	if err != nil {
		return "", 0, 0, fmt.Errorf("malformed counter in %q: %w", number, err)
	}
	return DocType(parts[0]), year, n, nil
}

// CounterRepository performs the atomic increment-or-create.
// Increment must never be implemented as a read followed by a write.
type CounterRepository interface {
	Increment(ctx context.Context, docType DocType, year int) (int, error)
}
