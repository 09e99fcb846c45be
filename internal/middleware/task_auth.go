package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/yukikurage/primecode/internal/constants"
	apierrors "github.com/yukikurage/primecode/internal/errors"
)

// RequireTaskID validates the :id path parameter. An id that cannot exist is
// reported as a missing task, the same as one owned by someone else.
func RequireTaskID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := uuid.Parse(c.Param("id"))
		if err != nil {
			apierrors.NotFound(c, "Task not found")
			c.Abort()
			return
		}

		c.Set(constants.ContextKeyTaskID, id.String())
		c.Next()
	}
}

// GetTaskID retrieves the validated task ID from context
func GetTaskID(c *gin.Context) (string, bool) {
	id := c.GetString(constants.ContextKeyTaskID)
	return id, id != ""
}
