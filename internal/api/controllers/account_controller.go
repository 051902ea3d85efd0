package controllers

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"trip/internal/config"
	"trip/internal/models/db_models"
	"trip/internal/models/request_models"
	"trip/internal/services"
	"trip/pkg/middleware"
	"trip/pkg/utils"
)

type AccountController struct {
	accountService services.AccountServiceInterface
	cookieDays     int
	clientBaseURL  string
}

func NewAccountController(accountService services.AccountServiceInterface, cfg *config.Config) *AccountController {
	return &AccountController{
		accountService: accountService,
		cookieDays:     cfg.JWTCookieExpiresIn,
		clientBaseURL:  cfg.ClientBaseURL,
	}
}

// Authenticate adapts the account service to the protect middleware.
func (a *AccountController) Authenticate(ctx context.Context, token string) (middleware.Principal, error) {
	user, err := a.accountService.Authenticate(ctx, token)
	if err != nil {
		return nil, err
	}
	return user, nil
}

// Signup godoc
// @Summary Register a new account
// @Description Creates a user with role "user", sends a welcome mail and logs the user in
// @Tags Auth
// @Accept json
// @Produce json
// @Param request body request_models.SignUpRequest true "Signup payload"
// @Success 201 {object} utils.APIResponse
// @Failure 400 {object} utils.APIResponse
// @Router /users/signup [post]
func (a *AccountController) Signup(c *gin.Context) {
	var req request_models.SignUpRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(err)
		return
	}

	user, token, err := a.accountService.Signup(c.Request.Context(), req, a.clientBaseURL+"/me")
	if err != nil {
		_ = c.Error(err)
		return
	}
	a.sendToken(c, http.StatusCreated, user, token)
}

// Login godoc
// @Summary Log in
// @Description Authenticates with email and password; the token is returned and set as the jwt cookie
// @Tags Auth
// @Accept json
// @Produce json
// @Param request body request_models.LoginRequest true "Login payload"
// @Success 200 {object} utils.APIResponse
// @Failure 400 {object} utils.APIResponse
// @Failure 401 {object} utils.APIResponse
// @Router /users/login [post]
func (a *AccountController) Login(c *gin.Context) {
	var req request_models.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(err)
		return
	}

	user, token, err := a.accountService.Login(c.Request.Context(), req)
	if err != nil {
		_ = c.Error(err)
		return
	}
	a.sendToken(c, http.StatusOK, user, token)
}

// Logout godoc
// @Summary Log out
// @Description Overwrites the jwt cookie with a short-lived placeholder
// @Tags Auth
// @Produce json
// @Success 200 {object} utils.APIResponse
// @Router /users/logout [get]
func (a *AccountController) Logout(c *gin.Context) {
	middleware.ClearTokenCookie(c)
	utils.RespondSuccess(c, nil, "")
}

// ForgotPassword godoc
// @Summary Request a password reset
// @Description Mails a reset link valid for 10 minutes
// @Tags Auth
// @Accept json
// @Produce json
// @Param request body request_models.RequestForgotPassword true "Forgot password payload"
// @Success 200 {object} utils.APIResponse
// @Failure 404 {object} utils.APIResponse
// @Router /users/forgotPassword [post]
func (a *AccountController) ForgotPassword(c *gin.Context) {
	var req request_models.RequestForgotPassword
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(err)
		return
	}

	resetURL := func(token string) string {
		return fmt.Sprintf("%s://%s/api/v1/users/resetPassword/%s", middleware.Scheme(c), c.Request.Host, token)
	}
	if err := a.accountService.ForgotPassword(c.Request.Context(), req.Email, resetURL); err != nil {
		_ = c.Error(err)
		return
	}
	utils.RespondSuccess(c, nil, "Token sent to email!")
}

// ResetPassword godoc
// @Summary Reset the password
// @Description Sets a new password with a reset token and logs the user in
// @Tags Auth
// @Accept json
// @Produce json
// @Param token path string true "Reset token"
// @Param request body request_models.ResetPasswordRequest true "New password"
// @Success 200 {object} utils.APIResponse
// @Failure 400 {object} utils.APIResponse
// @Router /users/resetPassword/{token} [patch]
func (a *AccountController) ResetPassword(c *gin.Context) {
	var req request_models.ResetPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(err)
		return
	}

	user, token, err := a.accountService.ResetPassword(c.Request.Context(), c.Param("token"), req)
	if err != nil {
		_ = c.Error(err)
		return
	}
	a.sendToken(c, http.StatusOK, user, token)
}

// UpdatePassword godoc
// @Summary Change the password
// @Description Requires the current password; tokens issued before the change stop working
// @Tags Auth
// @Accept json
// @Produce json
// @Param request body request_models.UpdatePasswordRequest true "Password change"
// @Success 200 {object} utils.APIResponse
// @Failure 401 {object} utils.APIResponse
// @Failure 403 {object} utils.APIResponse
// @Security BearerAuth
// @Router /users/update-password [patch]
func (a *AccountController) UpdatePassword(c *gin.Context) {
	var req request_models.UpdatePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(err)
		return
	}

	me := currentUser(c)
	user, token, err := a.accountService.UpdatePassword(c.Request.Context(), me.ID, req)
	if err != nil {
		_ = c.Error(err)
		return
	}
	a.sendToken(c, http.StatusOK, user, token)
}

func (a *AccountController) sendToken(c *gin.Context, code int, user *db_models.User, token string) {
	middleware.SetTokenCookie(c, token, a.cookieDays)
	utils.RespondToken(c, code, token, gin.H{"user": user})
}

// currentUser is only valid behind the protect middleware.
func currentUser(c *gin.Context) *db_models.User {
	user, _ := middleware.Current[*db_models.User](c)
	return user
}
