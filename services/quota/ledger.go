// Package quota tracks per-user daily send counts. Reservations happen at
// campaign admission under a per-user lock, so two campaigns admitted
// concurrently for the same user cannot overrun the daily limit; the unsent
// remainder is released when dispatch completes.
package quota

import (
	"context"
	"sync"

	"github.com/opentracing/opentracing-go"
	"github.com/pkg/errors"

	"github.com/sendgrove/blastpipe/interfaces"
	blastpipe_errors "github.com/sendgrove/blastpipe/internal/errors"
	"github.com/sendgrove/blastpipe/internal/logger"
	"github.com/sendgrove/blastpipe/internal/tracing"
	"github.com/sendgrove/blastpipe/internal/utils"
)

type Ledger struct {
	log   logger.Logger
	users interfaces.UserRepository

	locksMutex sync.Mutex
	userLocks  map[string]*sync.Mutex
}

func NewLedger(log logger.Logger, users interfaces.UserRepository) *Ledger {
	return &Ledger{
		log:       log,
		users:     users,
		userLocks: make(map[string]*sync.Mutex),
	}
}

func (l *Ledger) lockForUser(userID string) *sync.Mutex {
	l.locksMutex.Lock()
	defer l.locksMutex.Unlock()

	lock, ok := l.userLocks[userID]
	if !ok {
		lock = &sync.Mutex{}
		l.userLocks[userID] = lock
	}
	return lock
}

// CheckQuota reports whether requestedCount more sends fit within the user's
// daily limit after day rollover. Read-only; admission uses Reserve.
func (l *Ledger) CheckQuota(ctx context.Context, userID string, requestedCount int) (bool, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "QuotaLedger.CheckQuota")
	defer span.Finish()
	tracing.SetDefaultServiceSpanTags(ctx, span)
	tracing.TagUser(span, userID)

	user, err := l.users.GetByID(ctx, userID)
	if err != nil {
		tracing.TraceErr(span, err)
		return false, err
	}
	if user == nil {
		return false, errors.Errorf("user %s not found", userID)
	}

	count := user.DailySendCount
	if user.LastSendDate == nil || !utils.SameDay(*user.LastSendDate, utils.Today()) {
		count = 0
	}
	return count+requestedCount <= user.SendLimit, nil
}

// Reserve claims requestedCount sends against today's quota and persists the
// new count. It fails with ErrQuotaExceeded when the claim does not fit,
// leaving the stored state untouched.
func (l *Ledger) Reserve(ctx context.Context, userID string, requestedCount int) error {
	span, ctx := opentracing.StartSpanFromContext(ctx, "QuotaLedger.Reserve")
	defer span.Finish()
	tracing.SetDefaultServiceSpanTags(ctx, span)
	tracing.TagUser(span, userID)
	span.LogKV("requestedCount", requestedCount)

	lock := l.lockForUser(userID)
	lock.Lock()
	defer lock.Unlock()

	user, err := l.users.GetByID(ctx, userID)
	if err != nil {
		tracing.TraceErr(span, err)
		return err
	}
	if user == nil {
		return errors.Errorf("user %s not found", userID)
	}

	today := utils.Today()
	count := user.DailySendCount
	if user.LastSendDate == nil || !utils.SameDay(*user.LastSendDate, today) {
		count = 0
	}

	if count+requestedCount > user.SendLimit {
		tracing.TraceErr(span, blastpipe_errors.ErrQuotaExceeded)
		return errors.Wrapf(blastpipe_errors.ErrQuotaExceeded, "%d reserved + %d requested > %d limit", count, requestedCount, user.SendLimit)
	}

	if err := l.users.UpdateQuota(ctx, userID, count+requestedCount, today); err != nil {
		tracing.TraceErr(span, err)
		return err
	}
	return nil
}

// Settle releases the unsent remainder of an earlier reservation once
// dispatch has finished. sentCount of the reservedCount claim was actually
// delivered; the difference is handed back to today's budget.
func (l *Ledger) Settle(ctx context.Context, userID string, reservedCount, sentCount int) error {
	span, ctx := opentracing.StartSpanFromContext(ctx, "QuotaLedger.Settle")
	defer span.Finish()
	tracing.SetDefaultServiceSpanTags(ctx, span)
	tracing.TagUser(span, userID)
	span.LogKV("reservedCount", reservedCount, "sentCount", sentCount)

	remainder := reservedCount - sentCount
	if remainder <= 0 {
		return nil
	}

	lock := l.lockForUser(userID)
	lock.Lock()
	defer lock.Unlock()

	user, err := l.users.GetByID(ctx, userID)
	if err != nil {
		tracing.TraceErr(span, err)
		return err
	}
	if user == nil {
		return errors.Errorf("user %s not found", userID)
	}

	// a dispatch that ran past midnight has nothing to release from the
	// fresh day's budget
	if user.LastSendDate == nil || !utils.SameDay(*user.LastSendDate, utils.Today()) {
		return nil
	}

	count := user.DailySendCount - remainder
	if count < 0 {
		count = 0
	}

	if err := l.users.UpdateQuota(ctx, userID, count, *user.LastSendDate); err != nil {
		tracing.TraceErr(span, err)
		return err
	}
	return nil
}
