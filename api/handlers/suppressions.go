package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/opentracing/opentracing-go"

	"github.com/sendgrove/blastpipe/internal/models"
	"github.com/sendgrove/blastpipe/internal/repository"
	"github.com/sendgrove/blastpipe/internal/tracing"
)

type SuppressionsHandler struct {
	repositories *repository.Repositories
}

func NewSuppressionsHandler(repositories *repository.Repositories) *SuppressionsHandler {
	return &SuppressionsHandler{repositories: repositories}
}

type AddSuppressionRequest struct {
	Email  string `json:"email" binding:"required"`
	Reason string `json:"reason"`
}

// Add puts an address on the caller's suppression list. Re-adding an
// existing address is a no-op.
func (h *SuppressionsHandler) Add() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		span, ctx := opentracing.StartSpanFromContext(ctx, "SuppressionsHandler.Add")
		defer span.Finish()
		tracing.SetDefaultRestSpanTags(ctx, span)

		var request AddSuppressionRequest
		if err := c.ShouldBindJSON(&request); err != nil {
			tracing.TraceErr(span, err)
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		entry := &models.SuppressionEntry{
			UserID: c.GetString("UserId"),
			Email:  request.Email,
			Reason: request.Reason,
		}

		if err := h.repositories.SuppressionRepository.Add(ctx, entry); err != nil {
			tracing.TraceErr(span, err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}

		c.JSON(http.StatusCreated, gin.H{"status": "suppressed", "email": entry.Email})
	}
}

// List returns the caller's suppressed addresses.
func (h *SuppressionsHandler) List() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		span, ctx := opentracing.StartSpanFromContext(ctx, "SuppressionsHandler.List")
		defer span.Finish()
		tracing.SetDefaultRestSpanTags(ctx, span)

		emails, err := h.repositories.SuppressionRepository.EmailsForUser(ctx, c.GetString("UserId"))
		if err != nil {
			tracing.TraceErr(span, err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}

		c.JSON(http.StatusOK, gin.H{"emails": emails})
	}
}
