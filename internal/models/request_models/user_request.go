package request_models

// UpdateMeRequest carries the self-service profile fields. Password fields are
// only read so the request can be rejected.
type UpdateMeRequest struct {
	Name            *string `json:"name" form:"name"`
	Email           *string `json:"email" form:"email"`
	Password        string  `json:"password" form:"password"`
	PasswordConfirm string  `json:"passwordConfirm" form:"passwordConfirm"`
}
