package logs

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
)

type AuditServiceAPI interface {
	List(ctx context.Context, input AuditFilterInput) ([]AuditEntry, AuditAggregates, int64, int, error)
}

type AuditController struct {
	AuditService AuditServiceAPI
}

func (ac *AuditController) ListAudit(c *gin.Context) {
	var input AuditFilterInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	rows, aggs, total, totalPages, err := ac.AuditService.List(c.Request.Context(), input)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, ErrInvalidDate) {
			status = http.StatusBadRequest
		}
		c.JSON(status, gin.H{"error": err.Error()})
		return
	}

	page, pageSize := input.Page, input.PageSize
	if page <= 0 {
		page = 1
	}
	if pageSize <= 0 || pageSize > 100 {
		pageSize = 20
	}

	c.JSON(http.StatusOK, gin.H{
		"data":        rows,
		"page":        page,
		"page_size":   pageSize,
		"total":       total,
		"total_pages": totalPages,
		"aggregates":  aggs,
	})
}
