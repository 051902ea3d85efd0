package request_models

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type SignUpRequest struct {
	Name            string `json:"name" binding:"required"`
	Email           string `json:"email" binding:"required,email"`
	Password        string `json:"password" binding:"required,min=8"`
	PasswordConfirm string `json:"passwordConfirm" binding:"required,eqfield=Password"`
}

type RequestForgotPassword struct {
	Email string `json:"email" binding:"required,email"`
}

type ResetPasswordRequest struct {
	Password        string `json:"password" binding:"required,min=8"`
	PasswordConfirm string `json:"passwordConfirm" binding:"required,eqfield=Password"`
}

type UpdatePasswordRequest struct {
	PasswordCurrent    string `json:"passwordCurrent" binding:"required"`
	NewPassword        string `json:"newPassword" binding:"required,min=8"`
	NewPasswordConfirm string `json:"newPasswordConfirm" binding:"required,eqfield=NewPassword"`
}
