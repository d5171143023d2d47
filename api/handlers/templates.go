package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/opentracing/opentracing-go"

	"github.com/sendgrove/blastpipe/internal/models"
	"github.com/sendgrove/blastpipe/internal/repository"
	"github.com/sendgrove/blastpipe/internal/tracing"
	"github.com/sendgrove/blastpipe/internal/utils"
	"github.com/sendgrove/blastpipe/services/template"
)

type TemplatesHandler struct {
	repositories *repository.Repositories
}

func NewTemplatesHandler(repositories *repository.Repositories) *TemplatesHandler {
	return &TemplatesHandler{repositories: repositories}
}

type SaveTemplateRequest struct {
	ID       string `json:"id"`
	Name     string `json:"name" binding:"required"`
	Subject  string `json:"subject"`
	HTMLBody string `json:"htmlBody" binding:"required"`
	TextBody string `json:"textBody"`
}

// Save creates or updates a template. The placeholder names found in the
// subject and bodies are extracted and stored alongside the template.
func (h *TemplatesHandler) Save() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		span, ctx := opentracing.StartSpanFromContext(ctx, "TemplatesHandler.Save")
		defer span.Finish()
		tracing.SetDefaultRestSpanTags(ctx, span)

		var request SaveTemplateRequest
		if err := c.ShouldBindJSON(&request); err != nil {
			tracing.TraceErr(span, err)
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		userID := c.GetString("UserId")

		// an update must target a template the caller owns
		if request.ID != "" {
			existing, err := h.repositories.TemplateRepository.GetForUser(ctx, request.ID, userID)
			if err != nil {
				tracing.TraceErr(span, err)
				c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
				return
			}
			if existing == nil {
				c.JSON(http.StatusNotFound, gin.H{"error": "template not found"})
				return
			}
		}

		variables := template.ExtractVariables(request.Subject + " " + request.HTMLBody + " " + request.TextBody)

		emailTemplate := &models.EmailTemplate{
			ID:        request.ID,
			UserID:    userID,
			Name:      request.Name,
			Subject:   request.Subject,
			HTMLBody:  request.HTMLBody,
			TextBody:  request.TextBody,
			Variables: variables,
			UpdatedAt: utils.Now(),
		}

		if err := h.repositories.TemplateRepository.Save(ctx, emailTemplate); err != nil {
			tracing.TraceErr(span, err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}

		c.JSON(http.StatusCreated, emailTemplate)
	}
}

type ValidateTemplateRequest struct {
	Template     string   `json:"template" binding:"required"`
	RequiredVars []string `json:"requiredVars"`
}

// Validate reports whether a template contains all required placeholders.
func (h *TemplatesHandler) Validate() gin.HandlerFunc {
	return func(c *gin.Context) {
		var request ValidateTemplateRequest
		if err := c.ShouldBindJSON(&request); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		c.JSON(http.StatusOK, template.ValidateTemplate(request.Template, request.RequiredVars))
	}
}

type PreviewTemplateRequest struct {
	Template  string            `json:"template" binding:"required"`
	Variables map[string]string `json:"variables"`
}

// Preview renders a template against a sample variable mapping.
func (h *TemplatesHandler) Preview() gin.HandlerFunc {
	return func(c *gin.Context) {
		var request PreviewTemplateRequest
		if err := c.ShouldBindJSON(&request); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		rendered := template.Render(request.Template, request.Variables)
		c.JSON(http.StatusOK, gin.H{
			"rendered": rendered,
			"text":     template.HTMLToText(rendered),
		})
	}
}
