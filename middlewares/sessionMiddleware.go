package middlewares

import (
	"context"

	"bitbucket.org/afyadata/medsupply_backend/utils"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// SessionMiddleware copies request-scoped identity headers into the context.
// Authentication itself happens upstream (API gateway); this service only
// needs the tenant scope and a correlation id for log stitching.
func SessionMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()

		if companyId := c.Request.Header.Get("X-Company-Id"); companyId != "" {
			ctx = context.WithValue(ctx, utils.ContextKeyCompanyId, companyId)
		}

		correlationId := c.Request.Header.Get("X-Correlation-Id")
		if correlationId == "" {
			correlationId = uuid.NewString()
		}
		ctx = context.WithValue(ctx, utils.ContextKeyCorrelationId, correlationId)
		c.Writer.Header().Set("X-Correlation-Id", correlationId)

		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}
