package repository

import (
	"context"
	"errors"
	"time"

	"github.com/opentracing/opentracing-go"
	"gorm.io/gorm"

	"github.com/sendgrove/blastpipe/interfaces"
	"github.com/sendgrove/blastpipe/internal/models"
	"github.com/sendgrove/blastpipe/internal/tracing"
)

type userRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) interfaces.UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "userRepository.GetByID")
	defer span.Finish()
	tracing.TagComponentPostgresRepository(span)
	tracing.TagUser(span, id)

	var user models.User
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		tracing.TraceErr(span, err)
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) UpdateQuota(ctx context.Context, id string, dailySendCount int, lastSendDate time.Time) error {
	span, ctx := opentracing.StartSpanFromContext(ctx, "userRepository.UpdateQuota")
	defer span.Finish()
	tracing.TagComponentPostgresRepository(span)
	tracing.TagUser(span, id)

	if err := r.db.WithContext(ctx).
		Model(&models.User{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"daily_send_count": dailySendCount,
			"last_send_date":   lastSendDate,
		}).Error; err != nil {
		tracing.TraceErr(span, err)
		return err
	}
	return nil
}
