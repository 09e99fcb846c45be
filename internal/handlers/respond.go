package handlers

import (
	"github.com/gin-gonic/gin"
	apierrors "github.com/yukikurage/primecode/internal/errors"
	"github.com/yukikurage/primecode/internal/middleware"
	"github.com/yukikurage/primecode/internal/validation"
)

// bindJSON binds the request body and writes the 400/413 response on failure.
func bindJSON(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		if middleware.IsBodyTooLarge(err) {
			apierrors.PayloadTooLarge(c)
			return false
		}
		apierrors.ValidationFailed(c, validation.ToDetails(err))
		return false
	}
	return true
}
