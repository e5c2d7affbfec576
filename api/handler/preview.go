package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/use-agent/linkpeek/models"
)

// Scraper runs the per-URL preview pipeline.
type Scraper interface {
	Run(ctx context.Context, urls []string) ([]models.Record, error)
}

// Preview returns a handler for POST /api/v1/preview (single URL).
// The record comes back as-is: a failed extraction is an inline error
// record, not an HTTP failure.
func Preview(sc Scraper) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req models.PreviewRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{
				"error": models.ErrorDetail{Code: models.ErrCodeInvalidInput, Message: err.Error()},
			})
			return
		}

		records, err := sc.Run(c.Request.Context(), []string{req.URL})
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": errDetail(err)})
			return
		}
		c.JSON(http.StatusOK, records[0])
	}
}

// Previews returns a handler for POST /api/v1/previews (batch).
func Previews(sc Scraper) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req models.PreviewsRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{
				"error": models.ErrorDetail{Code: models.ErrCodeInvalidInput, Message: err.Error()},
			})
			return
		}

		records, err := sc.Run(c.Request.Context(), req.URLs)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": errDetail(err)})
			return
		}
		c.JSON(http.StatusOK, models.PreviewsResponse{Records: records})
	}
}

func errDetail(err error) models.ErrorDetail {
	if se, ok := err.(*models.ScrapeError); ok {
		return *se.ToDetail()
	}
	return models.ErrorDetail{Code: models.ErrCodeInternal, Message: err.Error()}
}
