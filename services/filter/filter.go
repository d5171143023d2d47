// Package filter screens raw recipient rows before they reach a list:
// suppressed addresses are dropped first, then duplicates, then addresses
// that fail a syntax check. Every input row lands in exactly one bucket.
package filter

import (
	"context"
	"strings"

	"github.com/customeros/mailsherpa/mailvalidate"
	"github.com/opentracing/opentracing-go"

	"github.com/sendgrove/blastpipe/internal/logger"
	"github.com/sendgrove/blastpipe/internal/models"
	"github.com/sendgrove/blastpipe/internal/repository"
	"github.com/sendgrove/blastpipe/internal/tracing"
)

// Row is one parsed recipient: an address plus the open-ended
// personalization fields that came with it.
type Row struct {
	Email string
	Data  models.JSONMap
}

// Result partitions the input rows. Valid preserves first-seen order and
// len(Valid)+Invalid+Duplicates+Suppressed always equals the input length.
type Result struct {
	Valid      []Row
	Invalid    int
	Duplicates int
	Suppressed int
}

type Service struct {
	log          logger.Logger
	repositories *repository.Repositories
}

func NewFilterService(log logger.Logger, repositories *repository.Repositories) *Service {
	return &Service{
		log:          log,
		repositories: repositories,
	}
}

// FilterRows loads the user's suppression set and partitions rows against it.
func (s *Service) FilterRows(ctx context.Context, userID string, rows []Row) (*Result, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "FilterService.FilterRows")
	defer span.Finish()
	tracing.SetDefaultServiceSpanTags(ctx, span)
	span.LogKV("rows", len(rows))

	suppressedEmails, err := s.repositories.SuppressionRepository.EmailsForUser(ctx, userID)
	if err != nil {
		tracing.TraceErr(span, err)
		return nil, err
	}

	suppressed := make(map[string]bool, len(suppressedEmails))
	for _, email := range suppressedEmails {
		suppressed[email] = true
	}

	result := Apply(rows, suppressed)
	span.LogKV("valid", len(result.Valid), "invalid", result.Invalid, "duplicates", result.Duplicates, "suppressed", result.Suppressed)
	return &result, nil
}

// Apply partitions rows against a lowercased suppression set. Precedence per
// row: suppressed, then duplicate of an already accepted address, then
// invalid syntax. Comparison is on the trimmed, lowercased address; the
// accepted row keeps that normalized form.
func Apply(rows []Row, suppressed map[string]bool) Result {
	result := Result{Valid: make([]Row, 0, len(rows))}
	seen := make(map[string]bool, len(rows))

	for _, row := range rows {
		email := strings.ToLower(strings.TrimSpace(row.Email))

		if suppressed[email] {
			result.Suppressed++
			continue
		}
		if seen[email] {
			result.Duplicates++
			continue
		}
		if validation := mailvalidate.ValidateEmailSyntax(email); !validation.IsValid {
			result.Invalid++
			continue
		}

		seen[email] = true
		result.Valid = append(result.Valid, Row{Email: email, Data: row.Data})
	}

	return result
}
