package controllers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"trip/internal/config"
	"trip/internal/models/db_models"
	"trip/internal/models/request_models"
	"trip/internal/repositories"
	"trip/internal/services"
	"trip/pkg/handlerfactory"
	"trip/pkg/utils"
)

type UserController struct {
	userService services.UserServiceInterface
	crud        *handlerfactory.Factory[db_models.User]
}

func NewUserController(userService services.UserServiceInterface, userRepo repositories.UserRepository, cfg *config.Config) *UserController {
	return &UserController{
		userService: userService,
		crud: handlerfactory.New[db_models.User](userRepo, handlerfactory.Options[db_models.User]{
			MaxLimit: cfg.QueryMaxLimit,
			Protect: func(stored, patched *db_models.User) {
				patched.PasswordChangedAt = stored.PasswordChangedAt
			},
		}),
	}
}

// GetMe godoc
// @Summary Current user
// @Tags Users
// @Produce json
// @Success 200 {object} utils.APIResponse
// @Security BearerAuth
// @Router /users/me [get]
func (u *UserController) GetMe(c *gin.Context) {
	utils.RespondSuccess(c, currentUser(c), "")
}

// UpdateMe godoc
// @Summary Update own profile
// @Description Updates name and email; a multipart "photo" replaces the profile picture. Password fields are rejected.
// @Tags Users
// @Accept json,mpfd
// @Produce json
// @Param request body request_models.UpdateMeRequest true "Profile fields"
// @Success 200 {object} utils.APIResponse
// @Failure 400 {object} utils.APIResponse
// @Security BearerAuth
// @Router /users/update-me [patch]
func (u *UserController) UpdateMe(c *gin.Context) {
	var req request_models.UpdateMeRequest
	var err error
	if isMultipart(c) {
		err = c.ShouldBind(&req)
	} else {
		err = c.ShouldBindJSON(&req)
	}
	if err != nil {
		_ = c.Error(err)
		return
	}

	photo, err := c.FormFile("photo")
	if err != nil && !errors.Is(err, http.ErrMissingFile) && !errors.Is(err, http.ErrNotMultipart) {
		_ = c.Error(err)
		return
	}

	user, err := u.userService.UpdateMe(c.Request.Context(), currentUser(c).ID, req, photo)
	if err != nil {
		_ = c.Error(err)
		return
	}
	utils.RespondSuccess(c, gin.H{"user": user}, "")
}

// DeleteMe godoc
// @Summary Deactivate own account
// @Tags Users
// @Success 204
// @Security BearerAuth
// @Router /users/delete-me [delete]
func (u *UserController) DeleteMe(c *gin.Context) {
	if err := u.userService.DeleteMe(c.Request.Context(), currentUser(c).ID); err != nil {
		_ = c.Error(err)
		return
	}
	utils.RespondNoContent(c)
}

// CreateUser godoc
// @Summary Not available
// @Description Accounts are created through /users/signup
// @Tags Users
// @Failure 500 {object} utils.APIResponse
// @Security BearerAuth
// @Router /users [post]
func (u *UserController) CreateUser(c *gin.Context) {
	_ = c.Error(utils.ErrUseSignup)
}

// GetAllUsers godoc
// @Summary List users
// @Tags Users
// @Produce json
// @Param sort query string false "Sort fields, e.g. -createdAt"
// @Param fields query string false "Projection"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} utils.APIResponse
// @Security BearerAuth
// @Router /users [get]
func (u *UserController) GetAllUsers() gin.HandlerFunc { return u.crud.GetAll() }

// GetUser godoc
// @Summary Get a user
// @Tags Users
// @Produce json
// @Param id path string true "User id"
// @Success 200 {object} utils.APIResponse
// @Failure 404 {object} utils.APIResponse
// @Security BearerAuth
// @Router /users/{id} [get]
func (u *UserController) GetUser() gin.HandlerFunc { return u.crud.GetOne() }

// UpdateUser godoc
// @Summary Update a user
// @Description Passwords cannot be changed here
// @Tags Users
// @Accept json
// @Produce json
// @Param id path string true "User id"
// @Success 200 {object} utils.APIResponse
// @Security BearerAuth
// @Router /users/{id} [patch]
func (u *UserController) UpdateUser() gin.HandlerFunc { return u.crud.UpdateOne() }

// DeleteUser godoc
// @Summary Delete a user
// @Description Also removes the user's reviews and bookings and recomputes tour ratings
// @Tags Users
// @Param id path string true "User id"
// @Success 204
// @Security BearerAuth
// @Router /users/{id} [delete]
func (u *UserController) DeleteUser() gin.HandlerFunc { return u.crud.DeleteOne() }

func isMultipart(c *gin.Context) bool {
	return strings.HasPrefix(c.ContentType(), "multipart/")
}
