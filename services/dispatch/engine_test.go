package dispatch

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sendgrove/blastpipe/interfaces"
	"github.com/sendgrove/blastpipe/internal/crypto"
	"github.com/sendgrove/blastpipe/internal/enum"
	blastpipe_errors "github.com/sendgrove/blastpipe/internal/errors"
	"github.com/sendgrove/blastpipe/internal/logger"
	"github.com/sendgrove/blastpipe/internal/models"
	"github.com/sendgrove/blastpipe/internal/repository"
	"github.com/sendgrove/blastpipe/internal/utils"
	"github.com/sendgrove/blastpipe/services/quota"
)

type fakeCampaignRepo struct {
	mu        sync.Mutex
	campaigns map[string]*models.Campaign
}

func (r *fakeCampaignRepo) Create(ctx context.Context, campaign *models.Campaign) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.campaigns[campaign.ID] = campaign
	return nil
}

func (r *fakeCampaignRepo) GetByID(ctx context.Context, id string) (*models.Campaign, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	campaign, ok := r.campaigns[id]
	if !ok {
		return nil, nil
	}
	copied := *campaign
	return &copied, nil
}

func (r *fakeCampaignRepo) GetForUser(ctx context.Context, id, userID string) (*models.Campaign, error) {
	campaign, _ := r.GetByID(ctx, id)
	if campaign == nil || campaign.UserID != userID {
		return nil, nil
	}
	return campaign, nil
}

func (r *fakeCampaignRepo) ListByUser(ctx context.Context, userID string) ([]*models.Campaign, error) {
	return nil, nil
}

func (r *fakeCampaignRepo) ListScheduledDue(ctx context.Context, now time.Time) ([]*models.Campaign, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var due []*models.Campaign
	for _, campaign := range r.campaigns {
		if campaign.Status == enum.CampaignStatusQueued && campaign.ScheduledAt != nil && !campaign.ScheduledAt.After(now) {
			copied := *campaign
			due = append(due, &copied)
		}
	}
	return due, nil
}

func (r *fakeCampaignRepo) UpdateStatus(ctx context.Context, id string, status enum.CampaignStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.campaigns[id].Status = status
	return nil
}

func (r *fakeCampaignRepo) MarkQueued(ctx context.Context, id string, totalRecipients int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.campaigns[id].Status = enum.CampaignStatusQueued
	r.campaigns[id].TotalRecipients = totalRecipients
	return nil
}

func (r *fakeCampaignRepo) MarkSending(ctx context.Context, id string, startedAt time.Time) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.campaigns[id].Status != enum.CampaignStatusQueued {
		return false, nil
	}
	r.campaigns[id].Status = enum.CampaignStatusSending
	r.campaigns[id].StartedAt = &startedAt
	return true, nil
}

func (r *fakeCampaignRepo) MarkCompleted(ctx context.Context, id string, sent, failed int, completedAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	campaign := r.campaigns[id]
	campaign.Status = enum.CampaignStatusCompleted
	campaign.SentCount = sent
	campaign.FailedCount = failed
	campaign.CompletedAt = &completedAt
	return nil
}

func (r *fakeCampaignRepo) MarkFailed(ctx context.Context, id string) error {
	return r.UpdateStatus(ctx, id, enum.CampaignStatusFailed)
}

type fakeLogRepo struct {
	mu   sync.Mutex
	rows []*models.CampaignLog
}

func (r *fakeLogRepo) Create(ctx context.Context, row *models.CampaignLog) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rows = append(r.rows, row)
	return nil
}

func (r *fakeLogRepo) ListByCampaign(ctx context.Context, campaignID string) ([]*models.CampaignLog, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var rows []*models.CampaignLog
	for _, row := range r.rows {
		if row.CampaignID == campaignID {
			rows = append(rows, row)
		}
	}
	return rows, nil
}

func (r *fakeLogRepo) CountByStatus(ctx context.Context, campaignID string, status enum.DeliveryStatus) (int64, error) {
	rows, _ := r.ListByCampaign(ctx, campaignID)
	var count int64
	for _, row := range rows {
		if row.Status == status {
			count++
		}
	}
	return count, nil
}

type fakeRecipientRepo struct {
	lists      map[string]*models.RecipientList
	recipients map[string][]*models.Recipient
}

func (r *fakeRecipientRepo) GetListForUser(ctx context.Context, id, userID string) (*models.RecipientList, error) {
	list := r.lists[id]
	if list == nil || list.UserID != userID {
		return nil, nil
	}
	return list, nil
}

func (r *fakeRecipientRepo) CreateList(ctx context.Context, list *models.RecipientList, recipients []*models.Recipient) error {
	return errors.New("not implemented")
}

func (r *fakeRecipientRepo) ListByList(ctx context.Context, listID string) ([]*models.Recipient, error) {
	return r.recipients[listID], nil
}

type fakeProviderRepo struct {
	connections map[string]*models.ProviderConnection
}

func (r *fakeProviderRepo) GetByID(ctx context.Context, id string) (*models.ProviderConnection, error) {
	return r.connections[id], nil
}

func (r *fakeProviderRepo) GetForUser(ctx context.Context, id, userID string) (*models.ProviderConnection, error) {
	connection := r.connections[id]
	if connection == nil || connection.UserID != userID {
		return nil, nil
	}
	return connection, nil
}

func (r *fakeProviderRepo) Create(ctx context.Context, connection *models.ProviderConnection) error {
	r.connections[connection.ID] = connection
	return nil
}

func (r *fakeProviderRepo) UpdateVerification(ctx context.Context, id string, status enum.VerificationStatus, health enum.HealthStatus, verifiedAt *time.Time) error {
	return nil
}

type fakeUserRepo struct {
	mu    sync.Mutex
	users map[string]*models.User
}

func (r *fakeUserRepo) GetByID(ctx context.Context, id string) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	user, ok := r.users[id]
	if !ok {
		return nil, nil
	}
	copied := *user
	return &copied, nil
}

func (r *fakeUserRepo) UpdateQuota(ctx context.Context, id string, dailySendCount int, lastSendDate time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.users[id].DailySendCount = dailySendCount
	r.users[id].LastSendDate = &lastSendDate
	return nil
}

type fakeEvents struct {
	mu        sync.Mutex
	completed []string
	failed    []string
}

func (e *fakeEvents) PublishCampaignCompleted(ctx context.Context, campaignID string, sent, failed int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.completed = append(e.completed, campaignID)
}

func (e *fakeEvents) PublishCampaignFailed(ctx context.Context, campaignID string, reason string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.failed = append(e.failed, campaignID)
}

func (e *fakeEvents) Close() error { return nil }

// fakeProvider fails any address listed in failEmails and records send order.
type fakeProvider struct {
	mu         sync.Mutex
	sent       []string
	subjects   []string
	failEmails map[string]bool
	panicOn    string
	rateLimit  int
}

func (p *fakeProvider) Send(ctx context.Context, fromEmail, toEmail, subject, htmlBody, textBody string) interfaces.SendResult {
	if toEmail == p.panicOn {
		panic("provider exploded")
	}
	p.mu.Lock()
	p.sent = append(p.sent, toEmail)
	p.subjects = append(p.subjects, subject)
	p.mu.Unlock()
	if p.failEmails[toEmail] {
		return interfaces.SendResult{Success: false, Error: "mailbox unavailable"}
	}
	return interfaces.SendResult{Success: true, MessageID: "msg-" + toEmail}
}

func (p *fakeProvider) Verify(ctx context.Context) interfaces.VerifyResult {
	return interfaces.VerifyResult{Success: true}
}

func (p *fakeProvider) RateLimit() int {
	if p.rateLimit > 0 {
		return p.rateLimit
	}
	return 100
}

type harness struct {
	engine        *Engine
	campaignRepo  *fakeCampaignRepo
	logRepo       *fakeLogRepo
	recipientRepo *fakeRecipientRepo
	providerRepo  *fakeProviderRepo
	userRepo      *fakeUserRepo
	events        *fakeEvents
	provider      *fakeProvider
	vault         *crypto.Vault
	pauses        []time.Duration
}

func newHarness(t *testing.T) *harness {
	appLogger := logger.NewAppLogger(&logger.Config{DevMode: true})
	appLogger.InitLogger()

	vault, err := crypto.NewVault("test-master-secret")
	require.NoError(t, err)

	h := &harness{
		campaignRepo:  &fakeCampaignRepo{campaigns: make(map[string]*models.Campaign)},
		logRepo:       &fakeLogRepo{},
		recipientRepo: &fakeRecipientRepo{lists: make(map[string]*models.RecipientList), recipients: make(map[string][]*models.Recipient)},
		providerRepo:  &fakeProviderRepo{connections: make(map[string]*models.ProviderConnection)},
		userRepo:      &fakeUserRepo{users: make(map[string]*models.User)},
		events:        &fakeEvents{},
		provider:      &fakeProvider{failEmails: make(map[string]bool)},
		vault:         vault,
	}

	repos := &repository.Repositories{
		CampaignRepository:           h.campaignRepo,
		CampaignLogRepository:        h.logRepo,
		RecipientRepository:          h.recipientRepo,
		ProviderConnectionRepository: h.providerRepo,
		UserRepository:               h.userRepo,
	}
	ledger := quota.NewLedger(appLogger, h.userRepo)

	h.engine = NewEngine(appLogger, repos, vault, ledger, h.events, 1, 8)
	h.engine.newProvider = func(connection *models.ProviderConnection, credentialsJSON string) (interfaces.EmailProvider, error) {
		return h.provider, nil
	}
	h.engine.sleep = func(ctx context.Context, d time.Duration) {
		h.pauses = append(h.pauses, d)
	}
	// accept submissions without a running worker pool; tests drain the
	// queue synchronously unless they call Start themselves
	h.engine.running = true
	return h
}

// seed creates a draft campaign, a verified provider connection, a recipient
// list with the given addresses and a user with the given quota state.
func (h *harness) seed(t *testing.T, emails []string, sendLimit int) *models.Campaign {
	encrypted, err := h.vault.Encrypt(`{"host":"mail.example.com","username":"u","password":"p"}`)
	require.NoError(t, err)

	h.userRepo.users["user_1"] = &models.User{ID: "user_1", SendLimit: sendLimit}
	h.providerRepo.connections["prov_1"] = &models.ProviderConnection{
		ID:                   "prov_1",
		UserID:               "user_1",
		Type:                 enum.ProviderSMTP,
		SenderEmail:          "sender@example.com",
		EncryptedCredentials: encrypted,
		VerificationStatus:   enum.VerificationVerified,
		RateLimit:            100,
	}
	h.recipientRepo.lists["list_1"] = &models.RecipientList{
		ID:             "list_1",
		UserID:         "user_1",
		Name:           "launch",
		RecipientCount: len(emails),
	}
	for i, email := range emails {
		h.recipientRepo.recipients["list_1"] = append(h.recipientRepo.recipients["list_1"], &models.Recipient{
			ID:       email,
			ListID:   "list_1",
			Email:    email,
			Position: i,
			Data:     models.JSONMap{"name": "Recipient " + email},
		})
	}

	campaign := &models.Campaign{
		ID:         "cmp_1",
		UserID:     "user_1",
		ProviderID: "prov_1",
		ListID:     "list_1",
		Name:       "launch",
		Subject:    "Hello [name]",
		HTMLBody:   "<p>Hi [name], this is for [email]</p>",
		Status:     enum.CampaignStatusDraft,
	}
	h.campaignRepo.campaigns[campaign.ID] = campaign
	return campaign
}

func TestDispatch_PartialFailure(t *testing.T) {
	h := newHarness(t)
	h.seed(t, []string{"a@example.com", "b@example.com", "c@example.com", "d@example.com", "e@example.com"}, 100)
	h.provider.failEmails["b@example.com"] = true
	h.provider.failEmails["d@example.com"] = true

	ctx := context.Background()
	require.NoError(t, h.engine.Enqueue(ctx, "cmp_1", "user_1"))
	h.engine.processCampaign(ctx, "cmp_1")

	campaign, _ := h.campaignRepo.GetByID(ctx, "cmp_1")
	assert.Equal(t, enum.CampaignStatusCompleted, campaign.Status)
	assert.Equal(t, 3, campaign.SentCount)
	assert.Equal(t, 2, campaign.FailedCount)
	assert.NotNil(t, campaign.StartedAt)
	assert.NotNil(t, campaign.CompletedAt)

	rows, _ := h.logRepo.ListByCampaign(ctx, "cmp_1")
	require.Len(t, rows, 5)
	sent, _ := h.logRepo.CountByStatus(ctx, "cmp_1", enum.DeliverySent)
	failed, _ := h.logRepo.CountByStatus(ctx, "cmp_1", enum.DeliveryFailed)
	assert.EqualValues(t, 3, sent)
	assert.EqualValues(t, 2, failed)

	// quota settled down to what was actually delivered
	user, _ := h.userRepo.GetByID(ctx, "user_1")
	assert.Equal(t, 3, user.DailySendCount)

	assert.Equal(t, []string{"cmp_1"}, h.events.completed)
}

func TestDispatch_FailedLogRowCarriesError(t *testing.T) {
	h := newHarness(t)
	h.seed(t, []string{"a@example.com"}, 100)
	h.provider.failEmails["a@example.com"] = true

	ctx := context.Background()
	require.NoError(t, h.engine.Enqueue(ctx, "cmp_1", "user_1"))
	h.engine.processCampaign(ctx, "cmp_1")

	rows, _ := h.logRepo.ListByCampaign(ctx, "cmp_1")
	require.Len(t, rows, 1)
	assert.Equal(t, enum.DeliveryFailed, rows[0].Status)
	assert.Equal(t, "mailbox unavailable", rows[0].ErrorMessage)
}

func TestDispatch_SequentialInListOrder(t *testing.T) {
	h := newHarness(t)
	emails := []string{"c@example.com", "a@example.com", "b@example.com"}
	h.seed(t, emails, 100)

	ctx := context.Background()
	require.NoError(t, h.engine.Enqueue(ctx, "cmp_1", "user_1"))
	h.engine.processCampaign(ctx, "cmp_1")

	assert.Equal(t, emails, h.provider.sent)
}

func TestDispatch_RendersPerRecipient(t *testing.T) {
	h := newHarness(t)
	h.seed(t, []string{"a@example.com", "b@example.com"}, 100)

	ctx := context.Background()
	require.NoError(t, h.engine.Enqueue(ctx, "cmp_1", "user_1"))
	h.engine.processCampaign(ctx, "cmp_1")

	require.Len(t, h.provider.subjects, 2)
	assert.Equal(t, "Hello Recipient a@example.com", h.provider.subjects[0])
	assert.Equal(t, "Hello Recipient b@example.com", h.provider.subjects[1])
}

func TestDispatch_PacingBetweenSends(t *testing.T) {
	h := newHarness(t)
	h.seed(t, []string{"a@example.com", "b@example.com", "c@example.com"}, 100)

	ctx := context.Background()
	require.NoError(t, h.engine.Enqueue(ctx, "cmp_1", "user_1"))
	h.engine.processCampaign(ctx, "cmp_1")

	// rate limit 100/min pauses 600ms between sends, none after the last
	require.Len(t, h.pauses, 2)
	assert.Equal(t, time.Minute/100, h.pauses[0])
}

func TestDispatch_PanicIsolatedToRecipient(t *testing.T) {
	h := newHarness(t)
	h.seed(t, []string{"a@example.com", "boom@example.com", "c@example.com"}, 100)
	h.provider.panicOn = "boom@example.com"

	ctx := context.Background()
	require.NoError(t, h.engine.Enqueue(ctx, "cmp_1", "user_1"))
	h.engine.processCampaign(ctx, "cmp_1")

	campaign, _ := h.campaignRepo.GetByID(ctx, "cmp_1")
	assert.Equal(t, enum.CampaignStatusCompleted, campaign.Status)
	assert.Equal(t, 2, campaign.SentCount)
	assert.Equal(t, 1, campaign.FailedCount)

	rows, _ := h.logRepo.ListByCampaign(ctx, "cmp_1")
	require.Len(t, rows, 3)
	assert.Contains(t, rows[1].ErrorMessage, "internal error")
}

func TestDispatch_SetupFailureFailsCampaign(t *testing.T) {
	h := newHarness(t)
	h.seed(t, []string{"a@example.com", "b@example.com"}, 100)
	h.providerRepo.connections["prov_1"].EncryptedCredentials = "garbage-token"

	ctx := context.Background()
	require.NoError(t, h.engine.Enqueue(ctx, "cmp_1", "user_1"))
	h.engine.processCampaign(ctx, "cmp_1")

	campaign, _ := h.campaignRepo.GetByID(ctx, "cmp_1")
	assert.Equal(t, enum.CampaignStatusFailed, campaign.Status)

	rows, _ := h.logRepo.ListByCampaign(ctx, "cmp_1")
	assert.Empty(t, rows)

	// full reservation released
	user, _ := h.userRepo.GetByID(ctx, "user_1")
	assert.Equal(t, 0, user.DailySendCount)

	assert.Equal(t, []string{"cmp_1"}, h.events.failed)
}

func TestDispatch_DuplicateSubmissionSendsOnce(t *testing.T) {
	h := newHarness(t)
	h.seed(t, []string{"a@example.com", "b@example.com", "c@example.com"}, 100)

	ctx := context.Background()
	require.NoError(t, h.engine.Enqueue(ctx, "cmp_1", "user_1"))
	// a scheduler sweep can resubmit a campaign still waiting in the queue
	require.NoError(t, h.engine.Resubmit(ctx, "cmp_1"))
	h.drainQueue(ctx)

	assert.Equal(t, []string{"a@example.com", "b@example.com", "c@example.com"}, h.provider.sent)
	rows, _ := h.logRepo.ListByCampaign(ctx, "cmp_1")
	assert.Len(t, rows, 3)

	campaign, _ := h.campaignRepo.GetByID(ctx, "cmp_1")
	assert.Equal(t, enum.CampaignStatusCompleted, campaign.Status)
	assert.Equal(t, 3, campaign.SentCount)

	user, _ := h.userRepo.GetByID(ctx, "user_1")
	assert.Equal(t, 3, user.DailySendCount)
	assert.Equal(t, []string{"cmp_1"}, h.events.completed)
}

func TestDispatch_ConcurrentWorkersClaimOnce(t *testing.T) {
	h := newHarness(t)
	h.seed(t, []string{"a@example.com", "b@example.com", "c@example.com"}, 100)

	ctx := context.Background()
	require.NoError(t, h.engine.Enqueue(ctx, "cmp_1", "user_1"))
	<-h.engine.queue

	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			h.engine.processCampaign(ctx, "cmp_1")
		}()
	}
	wg.Wait()

	assert.Len(t, h.provider.sent, 3)
	rows, _ := h.logRepo.ListByCampaign(ctx, "cmp_1")
	assert.Len(t, rows, 3)
	user, _ := h.userRepo.GetByID(ctx, "user_1")
	assert.Equal(t, 3, user.DailySendCount)
}

func TestEnqueue_AdmissionRejections(t *testing.T) {
	ctx := context.Background()

	t.Run("unknown campaign", func(t *testing.T) {
		h := newHarness(t)
		h.seed(t, []string{"a@example.com"}, 100)
		err := h.engine.Enqueue(ctx, "cmp_missing", "user_1")
		assert.ErrorIs(t, err, blastpipe_errors.ErrCampaignNotFound)
	})

	t.Run("foreign campaign", func(t *testing.T) {
		h := newHarness(t)
		h.seed(t, []string{"a@example.com"}, 100)
		err := h.engine.Enqueue(ctx, "cmp_1", "user_2")
		assert.ErrorIs(t, err, blastpipe_errors.ErrCampaignNotFound)
	})

	t.Run("not sendable", func(t *testing.T) {
		h := newHarness(t)
		campaign := h.seed(t, []string{"a@example.com"}, 100)
		campaign.Status = enum.CampaignStatusSending
		err := h.engine.Enqueue(ctx, "cmp_1", "user_1")
		assert.True(t, errors.Is(err, blastpipe_errors.ErrCampaignNotSendable))
	})

	t.Run("unverified provider", func(t *testing.T) {
		h := newHarness(t)
		h.seed(t, []string{"a@example.com"}, 100)
		h.providerRepo.connections["prov_1"].VerificationStatus = enum.VerificationPending
		err := h.engine.Enqueue(ctx, "cmp_1", "user_1")
		assert.ErrorIs(t, err, blastpipe_errors.ErrProviderNotVerified)
	})

	t.Run("empty list", func(t *testing.T) {
		h := newHarness(t)
		h.seed(t, nil, 100)
		err := h.engine.Enqueue(ctx, "cmp_1", "user_1")
		assert.ErrorIs(t, err, blastpipe_errors.ErrListEmpty)
	})

	t.Run("quota exceeded", func(t *testing.T) {
		h := newHarness(t)
		h.seed(t, []string{"a@example.com", "b@example.com", "c@example.com"}, 2)
		err := h.engine.Enqueue(ctx, "cmp_1", "user_1")
		assert.True(t, errors.Is(err, blastpipe_errors.ErrQuotaExceeded))

		campaign, _ := h.campaignRepo.GetByID(ctx, "cmp_1")
		assert.Equal(t, enum.CampaignStatusDraft, campaign.Status)
	})
}

func TestEnqueue_SubmitFailureRollsBack(t *testing.T) {
	h := newHarness(t)
	h.seed(t, []string{"a@example.com", "b@example.com"}, 100)
	h.engine.running = false

	ctx := context.Background()
	err := h.engine.Enqueue(ctx, "cmp_1", "user_1")
	assert.ErrorIs(t, err, blastpipe_errors.ErrDispatcherStopped)

	// the reservation was released and the campaign is back in its
	// pre-admission state
	campaign, _ := h.campaignRepo.GetByID(ctx, "cmp_1")
	assert.Equal(t, enum.CampaignStatusDraft, campaign.Status)
	user, _ := h.userRepo.GetByID(ctx, "user_1")
	assert.Equal(t, 0, user.DailySendCount)
	assert.Empty(t, h.provider.sent)
}

func TestEnqueue_QuotaAdmissionCountsCurrentUsage(t *testing.T) {
	h := newHarness(t)
	h.seed(t, []string{"a@example.com", "b@example.com", "c@example.com"}, 100)
	today := utils.Today()
	h.userRepo.users["user_1"].DailySendCount = 98
	h.userRepo.users["user_1"].LastSendDate = &today

	err := h.engine.Enqueue(context.Background(), "cmp_1", "user_1")
	assert.True(t, errors.Is(err, blastpipe_errors.ErrQuotaExceeded))
}

func TestEnqueue_ScheduledCampaignStaysQueued(t *testing.T) {
	h := newHarness(t)
	campaign := h.seed(t, []string{"a@example.com"}, 100)
	future := utils.Now().Add(time.Hour)
	campaign.ScheduledAt = &future

	ctx := context.Background()
	require.NoError(t, h.engine.Enqueue(ctx, "cmp_1", "user_1"))

	stored, _ := h.campaignRepo.GetByID(ctx, "cmp_1")
	assert.Equal(t, enum.CampaignStatusQueued, stored.Status)
	assert.Empty(t, h.provider.sent)

	// the scheduler promotes it later
	require.NoError(t, h.engine.Resubmit(ctx, "cmp_1"))
	h.drainQueue(ctx)
	stored, _ = h.campaignRepo.GetByID(ctx, "cmp_1")
	assert.Equal(t, enum.CampaignStatusCompleted, stored.Status)
}

func TestEnqueue_ImmediateCampaignIsSubmitted(t *testing.T) {
	h := newHarness(t)
	h.seed(t, []string{"a@example.com"}, 100)

	ctx := context.Background()
	require.NoError(t, h.engine.Enqueue(ctx, "cmp_1", "user_1"))
	h.drainQueue(ctx)

	campaign, _ := h.campaignRepo.GetByID(ctx, "cmp_1")
	assert.Equal(t, enum.CampaignStatusCompleted, campaign.Status)
	assert.Equal(t, []string{"a@example.com"}, h.provider.sent)
}

func TestStartStop_WorkersDrainQueue(t *testing.T) {
	h := newHarness(t)
	h.seed(t, []string{"a@example.com", "b@example.com"}, 100)

	ctx := context.Background()
	h.engine.running = false
	h.engine.Start(ctx)
	require.NoError(t, h.engine.Enqueue(ctx, "cmp_1", "user_1"))

	require.Eventually(t, func() bool {
		campaign, _ := h.campaignRepo.GetByID(ctx, "cmp_1")
		return campaign.Status == enum.CampaignStatusCompleted
	}, 2*time.Second, 10*time.Millisecond)

	h.engine.Stop()

	err := h.engine.Enqueue(ctx, "cmp_1", "user_1")
	assert.Error(t, err)
}

// drainQueue processes queued campaign IDs synchronously, for tests that do
// not start the worker pool.
func (h *harness) drainQueue(ctx context.Context) {
	for {
		select {
		case campaignID := <-h.engine.queue:
			h.engine.processCampaign(ctx, campaignID)
		default:
			return
		}
	}
}
