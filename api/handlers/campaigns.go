package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/opentracing/opentracing-go"

	"github.com/sendgrove/blastpipe/interfaces"
	"github.com/sendgrove/blastpipe/internal/models"
	"github.com/sendgrove/blastpipe/internal/repository"
	"github.com/sendgrove/blastpipe/internal/tracing"
)

type CampaignsHandler struct {
	repositories *repository.Repositories
	dispatcher   interfaces.Dispatcher
}

func NewCampaignsHandler(repositories *repository.Repositories, dispatcher interfaces.Dispatcher) *CampaignsHandler {
	return &CampaignsHandler{
		repositories: repositories,
		dispatcher:   dispatcher,
	}
}

type CreateCampaignRequest struct {
	Name        string     `json:"name" binding:"required"`
	Subject     string     `json:"subject" binding:"required"`
	HTMLBody    string     `json:"htmlBody"`
	TextBody    string     `json:"textBody"`
	ProviderID  string     `json:"providerId" binding:"required"`
	ListID      string     `json:"listId" binding:"required"`
	TemplateID  string     `json:"templateId"`
	ScheduledAt *time.Time `json:"scheduledAt"`
}

// Create registers a new draft campaign. When a template id is given and no
// body, the template's subject and bodies are copied into the campaign.
func (h *CampaignsHandler) Create() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		span, ctx := opentracing.StartSpanFromContext(ctx, "CampaignsHandler.Create")
		defer span.Finish()
		tracing.SetDefaultRestSpanTags(ctx, span)

		userID := c.GetString("UserId")

		var request CreateCampaignRequest
		if err := c.ShouldBindJSON(&request); err != nil {
			tracing.TraceErr(span, err)
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		campaign := &models.Campaign{
			UserID:      userID,
			ProviderID:  request.ProviderID,
			ListID:      request.ListID,
			TemplateID:  request.TemplateID,
			Name:        request.Name,
			Subject:     request.Subject,
			HTMLBody:    request.HTMLBody,
			TextBody:    request.TextBody,
			ScheduledAt: request.ScheduledAt,
		}

		if request.TemplateID != "" && request.HTMLBody == "" {
			emailTemplate, err := h.repositories.TemplateRepository.GetForUser(ctx, request.TemplateID, userID)
			if err != nil {
				tracing.TraceErr(span, err)
				c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
				return
			}
			if emailTemplate == nil {
				c.JSON(http.StatusNotFound, gin.H{"error": "template not found"})
				return
			}
			campaign.HTMLBody = emailTemplate.HTMLBody
			if campaign.TextBody == "" {
				campaign.TextBody = emailTemplate.TextBody
			}
			if campaign.Subject == "" {
				campaign.Subject = emailTemplate.Subject
			}
		}

		if campaign.HTMLBody == "" && campaign.TextBody == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "campaign needs an html or text body"})
			return
		}

		if err := h.repositories.CampaignRepository.Create(ctx, campaign); err != nil {
			tracing.TraceErr(span, err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}

		c.JSON(http.StatusCreated, campaign)
	}
}

// List returns the caller's campaigns, newest first.
func (h *CampaignsHandler) List() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		span, ctx := opentracing.StartSpanFromContext(ctx, "CampaignsHandler.List")
		defer span.Finish()
		tracing.SetDefaultRestSpanTags(ctx, span)

		campaigns, err := h.repositories.CampaignRepository.ListByUser(ctx, c.GetString("UserId"))
		if err != nil {
			tracing.TraceErr(span, err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}

		c.JSON(http.StatusOK, gin.H{"campaigns": campaigns})
	}
}

// Get returns one campaign with its live counters and status.
func (h *CampaignsHandler) Get() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		span, ctx := opentracing.StartSpanFromContext(ctx, "CampaignsHandler.Get")
		defer span.Finish()
		tracing.SetDefaultRestSpanTags(ctx, span)
		tracing.TagCampaign(span, c.Param("id"))

		campaign, err := h.repositories.CampaignRepository.GetForUser(ctx, c.Param("id"), c.GetString("UserId"))
		if err != nil {
			tracing.TraceErr(span, err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		if campaign == nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "campaign not found"})
			return
		}

		c.JSON(http.StatusOK, campaign)
	}
}

// Send admits the campaign into dispatch. Admission errors surface here
// synchronously; per-recipient outcomes are observable through Get and Logs.
func (h *CampaignsHandler) Send() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		span, ctx := opentracing.StartSpanFromContext(ctx, "CampaignsHandler.Send")
		defer span.Finish()
		tracing.SetDefaultRestSpanTags(ctx, span)
		tracing.TagCampaign(span, c.Param("id"))

		if err := h.dispatcher.Enqueue(ctx, c.Param("id"), c.GetString("UserId")); err != nil {
			tracing.TraceErr(span, err)
			c.JSON(statusForError(err), gin.H{"error": err.Error()})
			return
		}

		c.JSON(http.StatusAccepted, gin.H{"status": "queued", "id": c.Param("id")})
	}
}

// Logs returns the per-recipient delivery log of a campaign.
func (h *CampaignsHandler) Logs() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		span, ctx := opentracing.StartSpanFromContext(ctx, "CampaignsHandler.Logs")
		defer span.Finish()
		tracing.SetDefaultRestSpanTags(ctx, span)
		tracing.TagCampaign(span, c.Param("id"))

		campaign, err := h.repositories.CampaignRepository.GetForUser(ctx, c.Param("id"), c.GetString("UserId"))
		if err != nil {
			tracing.TraceErr(span, err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		if campaign == nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "campaign not found"})
			return
		}

		logs, err := h.repositories.CampaignLogRepository.ListByCampaign(ctx, campaign.ID)
		if err != nil {
			tracing.TraceErr(span, err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}

		c.JSON(http.StatusOK, gin.H{"campaignId": campaign.ID, "logs": logs})
	}
}
