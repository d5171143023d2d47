package cron_config

type Config struct {
	// Heartbeat check, every minute
	CronScheduleHeartbeat string `env:"CRON_SCHEDULE_HEARTBEAT" envDefault:"0 * * * * *"`
	// Scheduled campaign sweep, every 30 seconds
	CronScheduleScheduledCampaigns string `env:"CRON_SCHEDULE_SCHEDULED_CAMPAIGNS" envDefault:"*/30 * * * * *"`
}
