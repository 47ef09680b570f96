package gateway

import (
	"net/http"

	"github.com/example/gemora/pkg/apperr"
	"github.com/example/gemora/pkg/service"
	"github.com/example/gemora/pkg/storage"
	"github.com/gin-gonic/gin"
)

// register godoc
// @Summary Create an account
// @Tags auth
// @Accept json
// @Produce json
// @Param user body service.RegisterInput true "Registration"
// @Success 201 {object} service.AuthResult
// @Failure 400 {object} map[string]string
// @Router /api/auth/register [post]
func (g *Gateway) register(c *gin.Context) {
	var in service.RegisterInput
	if err := c.ShouldBindJSON(&in); err != nil {
		g.respondError(c, apperr.InvalidInput("Invalid request body"))
		return
	}
	res, err := g.services.Users.Register(c.Request.Context(), in)
	if err != nil {
		g.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, res)
}

// login godoc
// @Summary Exchange credentials for a token
// @Tags auth
// @Accept json
// @Produce json
// @Param credentials body service.LoginInput true "Credentials"
// @Success 200 {object} service.AuthResult
// @Failure 401 {object} map[string]string
// @Router /api/auth/login [post]
func (g *Gateway) login(c *gin.Context) {
	var in service.LoginInput
	if err := c.ShouldBindJSON(&in); err != nil {
		g.respondError(c, apperr.InvalidInput("Invalid request body"))
		return
	}
	res, err := g.services.Users.Login(c.Request.Context(), in)
	if err != nil {
		g.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (g *Gateway) me(c *gin.Context) {
	user, err := g.services.Users.Profile(c.Request.Context(), mustPrincipal(c))
	if err != nil {
		g.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, service.NewUserView(user))
}

type profileRequest struct {
	Name *string `json:"name" form:"name"`
}

// updateProfile takes JSON or multipart with an optional "profileImage" file.
func (g *Gateway) updateProfile(c *gin.Context) {
	var req profileRequest
	if err := c.ShouldBind(&req); err != nil {
		g.respondError(c, apperr.InvalidInput("Invalid request body"))
		return
	}
	files, err := g.formFiles(c, "profileImage")
	if err != nil {
		g.respondError(c, err)
		return
	}
	if req.Name == nil && len(files) == 0 {
		g.respondError(c, apperr.InvalidInput("Nothing to update"))
		return
	}

	var image *storage.File
	if len(files) > 0 {
		image = &files[0]
	}
	user, err := g.services.Users.UpdateProfile(c.Request.Context(), mustPrincipal(c), req.Name, image)
	if err != nil {
		g.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, service.NewUserView(user))
}

type passwordRequest struct {
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
}

func (g *Gateway) changePassword(c *gin.Context) {
	var req passwordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		g.respondError(c, apperr.InvalidInput("Invalid request body"))
		return
	}
	if err := g.services.Users.ChangePassword(c.Request.Context(), mustPrincipal(c), req.CurrentPassword, req.NewPassword); err != nil {
		g.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Password updated"})
}

func (g *Gateway) listUsers(c *gin.Context) {
	users, err := g.services.Users.List(c.Request.Context(), mustPrincipal(c))
	if err != nil {
		g.respondError(c, err)
		return
	}
	views := make([]service.UserView, len(users))
	for i, u := range users {
		views[i] = service.NewUserView(u)
	}
	c.JSON(http.StatusOK, views)
}

type roleRequest struct {
	Role string `json:"role"`
}

func (g *Gateway) setRole(c *gin.Context) {
	var req roleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		g.respondError(c, apperr.InvalidInput("Invalid role"))
		return
	}
	p := mustPrincipal(c)
	user, err := g.services.Users.SetRole(c.Request.Context(), &p, c.Param("id"), req.Role)
	if err != nil {
		g.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, service.NewUserView(user))
}
