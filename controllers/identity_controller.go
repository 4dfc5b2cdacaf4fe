package controllers

import (
	"net/http"

	apperrors "github.com/lawaid/soulsystem-backend/common/errors"
	"github.com/lawaid/soulsystem-backend/models"
	"github.com/lawaid/soulsystem-backend/services"

	"github.com/gin-gonic/gin"
)

// IdentityController handles username registration and lookups.
type IdentityController struct {
	identityService services.IdentityService
}

// NewIdentityController creates a new IdentityController.
func NewIdentityController(identityService services.IdentityService) *IdentityController {
	return &IdentityController{identityService: identityService}
}

// CheckUsername handles GET /check-username/:username.
func (ic *IdentityController) CheckUsername(ctx *gin.Context) {
	available, err := ic.identityService.CheckUsername(ctx.Request.Context(), ctx.Param("username"))
	if err != nil {
		apperrors.Respond(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, models.UsernameAvailability{Available: available})
}

// RegisterUsername handles POST /register-username.
func (ic *IdentityController) RegisterUsername(ctx *gin.Context) {
	var req models.RegisterUsernameRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		apperrors.Respond(ctx, apperrors.Wrap(apperrors.ErrMissingField, err))
		return
	}

	identity, err := ic.identityService.RegisterUsername(ctx.Request.Context(), req.Email, req.Username, req.SoulMark)
	if err != nil {
		apperrors.Respond(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, identity)
}

// GetProfile handles GET /identities/:username.
func (ic *IdentityController) GetProfile(ctx *gin.Context) {
	profile, err := ic.identityService.GetProfile(ctx.Request.Context(), ctx.Param("username"))
	if err != nil {
		apperrors.Respond(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, profile)
}
