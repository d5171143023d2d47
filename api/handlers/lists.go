package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/opentracing/opentracing-go"

	"github.com/sendgrove/blastpipe/internal/repository"
	"github.com/sendgrove/blastpipe/internal/tracing"
	"github.com/sendgrove/blastpipe/services/filter"
)

type ListsHandler struct {
	repositories  *repository.Repositories
	filterService *filter.Service
}

func NewListsHandler(repositories *repository.Repositories, filterService *filter.Service) *ListsHandler {
	return &ListsHandler{
		repositories:  repositories,
		filterService: filterService,
	}
}

// Import creates a recipient list from an uploaded CSV file. The file goes
// through the suppression and validation filter; the response reports what
// was dropped.
func (h *ListsHandler) Import() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		span, ctx := opentracing.StartSpanFromContext(ctx, "ListsHandler.Import")
		defer span.Finish()
		tracing.SetDefaultRestSpanTags(ctx, span)

		listName := c.PostForm("name")
		if listName == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "list name is required"})
			return
		}

		fileHeader, err := c.FormFile("file")
		if err != nil {
			tracing.TraceErr(span, err)
			c.JSON(http.StatusBadRequest, gin.H{"error": "CSV file is required"})
			return
		}

		file, err := fileHeader.Open()
		if err != nil {
			tracing.TraceErr(span, err)
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		defer file.Close()

		list, result, err := h.filterService.ImportCSV(ctx, c.GetString("UserId"), listName, file)
		if err != nil {
			tracing.TraceErr(span, err)
			response := gin.H{"error": err.Error()}
			if result != nil {
				response["invalid"] = result.Invalid
				response["duplicates"] = result.Duplicates
				response["suppressed"] = result.Suppressed
			}
			c.JSON(statusForError(err), response)
			return
		}

		c.JSON(http.StatusCreated, gin.H{
			"list":       list,
			"imported":   len(result.Valid),
			"invalid":    result.Invalid,
			"duplicates": result.Duplicates,
			"suppressed": result.Suppressed,
		})
	}
}

// Get returns a recipient list with its recipients.
func (h *ListsHandler) Get() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		span, ctx := opentracing.StartSpanFromContext(ctx, "ListsHandler.Get")
		defer span.Finish()
		tracing.SetDefaultRestSpanTags(ctx, span)
		tracing.TagEntity(span, c.Param("id"))

		list, err := h.repositories.RecipientRepository.GetListForUser(ctx, c.Param("id"), c.GetString("UserId"))
		if err != nil {
			tracing.TraceErr(span, err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		if list == nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "recipient list not found"})
			return
		}

		recipients, err := h.repositories.RecipientRepository.ListByList(ctx, list.ID)
		if err != nil {
			tracing.TraceErr(span, err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}

		c.JSON(http.StatusOK, gin.H{"list": list, "recipients": recipients})
	}
}
