package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/opentracing/opentracing-go"

	"github.com/sendgrove/blastpipe/internal/crypto"
	"github.com/sendgrove/blastpipe/internal/enum"
	"github.com/sendgrove/blastpipe/internal/models"
	"github.com/sendgrove/blastpipe/internal/repository"
	"github.com/sendgrove/blastpipe/internal/tracing"
	"github.com/sendgrove/blastpipe/internal/utils"
	"github.com/sendgrove/blastpipe/services/provider"
)

type ProvidersHandler struct {
	repositories *repository.Repositories
	vault        *crypto.Vault
}

func NewProvidersHandler(repositories *repository.Repositories, vault *crypto.Vault) *ProvidersHandler {
	return &ProvidersHandler{
		repositories: repositories,
		vault:        vault,
	}
}

type CreateProviderRequest struct {
	ProviderType string                 `json:"providerType" binding:"required"`
	SenderEmail  string                 `json:"senderEmail" binding:"required"`
	SenderName   string                 `json:"senderName"`
	Credentials  map[string]interface{} `json:"credentials" binding:"required"`
}

// Create stores a new provider connection. The credential blob is validated
// against the provider's schema by constructing the backend once, then
// encrypted at rest. The connection starts unverified.
func (h *ProvidersHandler) Create() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		span, ctx := opentracing.StartSpanFromContext(ctx, "ProvidersHandler.Create")
		defer span.Finish()
		tracing.SetDefaultRestSpanTags(ctx, span)

		var request CreateProviderRequest
		if err := c.ShouldBindJSON(&request); err != nil {
			tracing.TraceErr(span, err)
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		providerType, ok := enum.DecodeProviderType(request.ProviderType)
		if !ok {
			c.JSON(http.StatusBadRequest, gin.H{"error": "unknown provider type: " + request.ProviderType})
			return
		}

		credentialsJSON, err := json.Marshal(request.Credentials)
		if err != nil {
			tracing.TraceErr(span, err)
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		emailProvider, err := provider.New(providerType, string(credentialsJSON))
		if err != nil {
			tracing.TraceErr(span, err)
			c.JSON(statusForError(err), gin.H{"error": err.Error()})
			return
		}

		encrypted, err := h.vault.Encrypt(string(credentialsJSON))
		if err != nil {
			tracing.TraceErr(span, err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}

		connection := &models.ProviderConnection{
			UserID:               c.GetString("UserId"),
			Type:                 providerType,
			SenderEmail:          request.SenderEmail,
			SenderName:           request.SenderName,
			EncryptedCredentials: encrypted,
			RateLimit:            emailProvider.RateLimit(),
		}

		if err := h.repositories.ProviderConnectionRepository.Create(ctx, connection); err != nil {
			tracing.TraceErr(span, err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}

		c.JSON(http.StatusCreated, connection)
	}
}

// Verify runs the backend's credential check and records the outcome on the
// connection. Only verified connections can send campaigns.
func (h *ProvidersHandler) Verify() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		span, ctx := opentracing.StartSpanFromContext(ctx, "ProvidersHandler.Verify")
		defer span.Finish()
		tracing.SetDefaultRestSpanTags(ctx, span)
		tracing.TagEntity(span, c.Param("id"))

		connection, err := h.repositories.ProviderConnectionRepository.GetForUser(ctx, c.Param("id"), c.GetString("UserId"))
		if err != nil {
			tracing.TraceErr(span, err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		if connection == nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "provider connection not found"})
			return
		}

		credentialsJSON, err := h.vault.Decrypt(connection.EncryptedCredentials)
		if err != nil {
			tracing.TraceErr(span, err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}

		emailProvider, err := provider.New(connection.Type, credentialsJSON)
		if err != nil {
			tracing.TraceErr(span, err)
			c.JSON(statusForError(err), gin.H{"error": err.Error()})
			return
		}

		result := emailProvider.Verify(ctx)

		status := enum.VerificationVerified
		health := enum.HealthHealthy
		if !result.Success {
			status = enum.VerificationInvalidCredentials
			health = enum.HealthUnhealthy
		}

		if err := h.repositories.ProviderConnectionRepository.UpdateVerification(ctx, connection.ID, status, health, utils.NowPtr()); err != nil {
			tracing.TraceErr(span, err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"id":                 connection.ID,
			"verificationStatus": status,
			"healthStatus":       health,
			"error":              result.Error,
		})
	}
}

// Schemas returns the credential fields every provider type expects, so
// clients know what to collect before calling Create.
func (h *ProvidersHandler) Schemas() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"schemas": provider.CredentialSchemas()})
	}
}
