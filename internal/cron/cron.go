package cron

import (
	"os"
	"sync"

	"github.com/caarlos0/env/v6"
	cronv3 "github.com/robfig/cron/v3"

	"github.com/sendgrove/blastpipe/config"
	"github.com/sendgrove/blastpipe/interfaces"
	cron_config "github.com/sendgrove/blastpipe/internal/cron/config"
	"github.com/sendgrove/blastpipe/internal/logger"
	"github.com/sendgrove/blastpipe/internal/tracing"
)

const (
	// GroupScheduler serializes the scheduled-campaign sweep
	GroupScheduler = "scheduler"
)

var jobLocks = struct {
	sync.Mutex
	locks map[string]*sync.Mutex
}{
	locks: map[string]*sync.Mutex{
		GroupScheduler: new(sync.Mutex),
	},
}

// CronManager runs the periodic jobs of the service: a heartbeat and the
// sweep that promotes due scheduled campaigns into dispatch.
type CronManager struct {
	cfg        *config.Config
	log        logger.Logger
	cron       *cronv3.Cron
	stopCh     chan struct{}
	jobIDs     map[string]cronv3.EntryID
	campaigns  interfaces.CampaignRepository
	dispatcher interfaces.Dispatcher
}

func NewCronManager(cfg *config.Config, log logger.Logger, campaigns interfaces.CampaignRepository, dispatcher interfaces.Dispatcher) *CronManager {
	return &CronManager{
		cfg:        cfg,
		log:        log,
		stopCh:     make(chan struct{}),
		jobIDs:     make(map[string]cronv3.EntryID),
		campaigns:  campaigns,
		dispatcher: dispatcher,
	}
}

// Start initializes and starts the cron scheduler.
func (cm *CronManager) Start() {
	cm.log.Info("Starting cron manager")
	// seconds field enabled, panic recovery, overlapping runs skipped
	cronOptions := []cronv3.Option{
		cronv3.WithSeconds(),
		cronv3.WithChain(
			cronv3.SkipIfStillRunning(cronv3.DefaultLogger),
			cronv3.Recover(cronv3.DefaultLogger),
		),
	}
	c := cronv3.New(cronOptions...)
	cm.registerJobs(c)
	c.Start()
	cm.cron = c
}

// Stop gracefully stops the cron manager, waiting for running jobs.
func (cm *CronManager) Stop() {
	if cm.cron != nil {
		cm.log.Info("Stopping cron manager")
		ctx := cm.cron.Stop()
		<-ctx.Done()
	}
	close(cm.stopCh)
}

func (cm *CronManager) registerJobs(c *cronv3.Cron) {
	var cronConfig cron_config.Config
	if err := env.Parse(&cronConfig); err != nil {
		cm.log.Fatalf("Failed to parse cron config from environment: %v", err)
	}

	if cronConfig.CronScheduleHeartbeat != "" {
		podName := os.Getenv("POD_NAME")
		if podName == "" {
			podName = "local"
		}
		id, err := c.AddFunc(cronConfig.CronScheduleHeartbeat, func() {
			defer tracing.RecoverAndLogToJaeger(cm.log)
			cm.log.Infof("Cron heartbeat from pod: %s", podName)
		})
		if err != nil {
			cm.log.Fatalf("Could not add heartbeat cron job: %v", err)
		}
		cm.jobIDs["heartbeat"] = id
		cm.log.Infof("Registered heartbeat job with schedule: %s", cronConfig.CronScheduleHeartbeat)
	}

	if cronConfig.CronScheduleScheduledCampaigns != "" {
		id, err := c.AddFunc(cronConfig.CronScheduleScheduledCampaigns, func() {
			defer tracing.RecoverAndLogToJaeger(cm.log)
			jobLocks.locks[GroupScheduler].Lock()
			defer jobLocks.locks[GroupScheduler].Unlock()
			cm.sweepScheduledCampaigns()
		})
		if err != nil {
			cm.log.Fatalf("Could not add scheduled campaign cron job: %v", err)
		}
		cm.jobIDs["scheduled_campaigns"] = id
		cm.log.Infof("Registered scheduled campaign job with schedule: %s", cronConfig.CronScheduleScheduledCampaigns)
	}
}
