package services

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"trip/internal/models/db_models"
	"trip/internal/models/request_models"
	"trip/internal/repositories"
	"trip/pkg/utils"
)

type AccountServiceInterface interface {
	Signup(ctx context.Context, req request_models.SignUpRequest, welcomeURL string) (*db_models.User, string, error)
	Login(ctx context.Context, req request_models.LoginRequest) (*db_models.User, string, error)
	// Authenticate resolves a session token to its active user.
	Authenticate(ctx context.Context, token string) (*db_models.User, error)
	ForgotPassword(ctx context.Context, email string, resetURL func(token string) string) error
	ResetPassword(ctx context.Context, token string, req request_models.ResetPasswordRequest) (*db_models.User, string, error)
	UpdatePassword(ctx context.Context, userID uuid.UUID, req request_models.UpdatePasswordRequest) (*db_models.User, string, error)
}

type AccountService struct {
	userRepo repositories.UserRepository
	mail     IMailService
	tokens   *utils.TokenManager
	logger   *zap.Logger
	now      utils.Clock
}

func NewAccountService(
	userRepo repositories.UserRepository,
	mail IMailService,
	tokens *utils.TokenManager,
	logger *zap.Logger,
	now utils.Clock,
) AccountServiceInterface {
	return &AccountService{
		userRepo: userRepo,
		mail:     mail,
		tokens:   tokens,
		logger:   logger,
		now:      now.OrSystem(),
	}
}

// dummyHash is compared against when the email is unknown so both login
// failures cost one bcrypt comparison.
var dummyHash = sync.OnceValue(func() string {
	hash, _ := utils.HashPassword("dummy-password-for-timing")
	return hash
})

func (a *AccountService) Signup(ctx context.Context, req request_models.SignUpRequest, welcomeURL string) (*db_models.User, string, error) {
	hashedPassword, err := utils.HashPassword(req.Password)
	if err != nil {
		return nil, "", err
	}

	user := &db_models.User{
		Name:     req.Name,
		Email:    req.Email,
		Password: hashedPassword,
	}
	user.ApplyDefaults()

	if err := a.userRepo.Create(ctx, user); err != nil {
		return nil, "", err
	}

	if err := a.mail.SendWelcome(ctx, recipient(user), welcomeURL); err != nil {
		a.logger.Warn("welcome mail not sent", zap.String("user_id", user.ID.String()), zap.Error(err))
	}

	token, err := a.tokens.CreateToken(user.ID)
	if err != nil {
		return nil, "", err
	}
	return user, token, nil
}

func (a *AccountService) Login(ctx context.Context, req request_models.LoginRequest) (*db_models.User, string, error) {
	email := normalizeEmail(req.Email)
	if email == "" || req.Password == "" {
		return nil, "", utils.ErrMissingCredentials
	}

	user, err := a.userRepo.FindByEmail(ctx, email)
	if err != nil {
		return nil, "", err
	}

	if user == nil {
		_ = utils.ComparePasswords(dummyHash(), req.Password)
		return nil, "", utils.ErrInvalidCredentials
	}
	if err := utils.ComparePasswords(user.Password, req.Password); err != nil {
		return nil, "", utils.ErrInvalidCredentials
	}

	token, err := a.tokens.CreateToken(user.ID)
	if err != nil {
		return nil, "", err
	}
	return user, token, nil
}

func (a *AccountService) Authenticate(ctx context.Context, token string) (*db_models.User, error) {
	claims, err := a.tokens.ValidateToken(token)
	if err != nil {
		return nil, err
	}

	userID, err := uuid.Parse(claims.UserID)
	if err != nil {
		return nil, err
	}
	user, err := a.userRepo.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, utils.ErrUserGone
	}
	if user.ChangedPasswordAfter(claims.IssuedAt.Time) {
		return nil, utils.ErrPasswordChanged
	}
	return user, nil
}

func (a *AccountService) ForgotPassword(ctx context.Context, email string, resetURL func(token string) string) error {
	user, err := a.userRepo.FindByEmail(ctx, normalizeEmail(email))
	if err != nil {
		return err
	}
	if user == nil {
		return utils.ErrNoUserWithEmail
	}

	rawToken, err := user.CreatePasswordResetToken(a.now())
	if err != nil {
		return err
	}
	if err := a.userRepo.Update(ctx, user); err != nil {
		return err
	}

	if err := a.mail.SendPasswordReset(ctx, recipient(user), resetURL(rawToken)); err != nil {
		a.logger.Error("password reset mail not sent", zap.String("user_id", user.ID.String()), zap.Error(err))
		user.ClearPasswordReset()
		if err := a.userRepo.Update(ctx, user); err != nil {
			return err
		}
		return utils.ErrResetMailFailed
	}
	return nil
}

func (a *AccountService) ResetPassword(ctx context.Context, token string, req request_models.ResetPasswordRequest) (*db_models.User, string, error) {
	user, err := a.userRepo.FindByResetToken(ctx, utils.HashToken(token))
	if err != nil {
		return nil, "", err
	}
	now := a.now()
	if user == nil || !user.ResetTokenValid(now) {
		return nil, "", utils.ErrResetTokenInvalid
	}

	return a.changePassword(ctx, user, req.Password, now)
}

func (a *AccountService) UpdatePassword(ctx context.Context, userID uuid.UUID, req request_models.UpdatePasswordRequest) (*db_models.User, string, error) {
	user, err := a.userRepo.FindByID(ctx, userID)
	if err != nil {
		return nil, "", err
	}
	if user == nil {
		return nil, "", utils.ErrUserGone
	}

	if err := utils.ComparePasswords(user.Password, req.PasswordCurrent); err != nil {
		return nil, "", utils.ErrWrongPassword
	}
	if err := utils.ComparePasswords(user.Password, req.NewPassword); err == nil {
		return nil, "", utils.ErrSamePassword
	}

	return a.changePassword(ctx, user, req.NewPassword, a.now())
}

func (a *AccountService) changePassword(ctx context.Context, user *db_models.User, password string, now time.Time) (*db_models.User, string, error) {
	hashedPassword, err := utils.HashPassword(password)
	if err != nil {
		return nil, "", err
	}
	user.SetPassword(hashedPassword, now)
	if err := a.userRepo.Update(ctx, user); err != nil {
		return nil, "", err
	}

	token, err := a.tokens.CreateToken(user.ID)
	if err != nil {
		return nil, "", err
	}
	return user, token, nil
}

func recipient(user *db_models.User) Recipient {
	return Recipient{Name: user.Name, Email: user.Email}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
