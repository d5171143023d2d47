package repository

import (
	"context"
	"strings"

	"github.com/opentracing/opentracing-go"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/sendgrove/blastpipe/interfaces"
	"github.com/sendgrove/blastpipe/internal/models"
	"github.com/sendgrove/blastpipe/internal/tracing"
)

type suppressionRepository struct {
	db *gorm.DB
}

func NewSuppressionRepository(db *gorm.DB) interfaces.SuppressionRepository {
	return &suppressionRepository{db: db}
}

func (r *suppressionRepository) Add(ctx context.Context, entry *models.SuppressionEntry) error {
	span, ctx := opentracing.StartSpanFromContext(ctx, "suppressionRepository.Add")
	defer span.Finish()
	tracing.TagComponentPostgresRepository(span)

	entry.Email = strings.ToLower(strings.TrimSpace(entry.Email))

	// (user, email) is unique; re-adding an existing entry is a no-op
	if err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(entry).Error; err != nil {
		tracing.TraceErr(span, err)
		return err
	}
	return nil
}

func (r *suppressionRepository) EmailsForUser(ctx context.Context, userID string) ([]string, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "suppressionRepository.EmailsForUser")
	defer span.Finish()
	tracing.TagComponentPostgresRepository(span)

	var emails []string
	if err := r.db.WithContext(ctx).
		Model(&models.SuppressionEntry{}).
		Where("user_id = ?", userID).
		Pluck("email", &emails).Error; err != nil {
		tracing.TraceErr(span, err)
		return nil, err
	}
	for i, email := range emails {
		emails[i] = strings.ToLower(email)
	}
	return emails, nil
}
