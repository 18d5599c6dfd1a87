package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/cspring/microblog/services"
	"github.com/cspring/microblog/utils"
)

// AvatarController serves generated letter avatars.
type AvatarController struct {
	identity *services.IdentityService
}

// NewAvatarController creates an AvatarController.
func NewAvatarController(identity *services.IdentityService) *AvatarController {
	return &AvatarController{identity: identity}
}

// GetAvatar returns the PNG tile for an existing user's initial. Unknown
// usernames land on the error page; the tile itself is regenerated on every
// request.
func (a *AvatarController) GetAvatar(c *gin.Context) {
	username := c.Param("username")
	if _, err := a.identity.UserByUsername(username); err != nil {
		c.Redirect(http.StatusFound, "/error")
		return
	}
	img, err := services.GenerateAvatar(username)
	if err != nil {
		utils.Sugar.Errorf("avatar generation failed for %q: %v", username, err)
		c.Redirect(http.StatusFound, "/error")
		return
	}
	c.Data(http.StatusOK, "image/png", img)
}
