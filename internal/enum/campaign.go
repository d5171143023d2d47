package enum

type CampaignStatus string

const (
	CampaignStatusDraft     CampaignStatus = "draft"
	CampaignStatusQueued    CampaignStatus = "queued"
	CampaignStatusSending   CampaignStatus = "sending"
	CampaignStatusCompleted CampaignStatus = "completed"
	CampaignStatusFailed    CampaignStatus = "failed"
)

func (t CampaignStatus) String() string {
	return string(t)
}

// IsSendable reports whether a campaign in this status may be (re)enqueued.
func (t CampaignStatus) IsSendable() bool {
	return t == CampaignStatusDraft || t == CampaignStatusFailed
}

type DeliveryStatus string

const (
	DeliverySent   DeliveryStatus = "sent"
	DeliveryFailed DeliveryStatus = "failed"
)

func (t DeliveryStatus) String() string {
	return string(t)
}
