package auth

import (
	"errors"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	apperrors "github.com/chainballot/chainballot/internal/apperrors"
	clock "github.com/chainballot/chainballot/internal/clock"
	repositories "github.com/chainballot/chainballot/internal/database/repositories"
	models "github.com/chainballot/chainballot/internal/models"
)

// Service issues and verifies the bearer tokens the API runs on.
type Service struct {
	users    repositories.UserRepository
	secret   []byte
	tokenTtl time.Duration
	clock    clock.Clock
}

func NewService(users repositories.UserRepository, secret []byte, tokenTtl time.Duration, clk clock.Clock) *Service {
	return &Service{
		users:    users,
		secret:   secret,
		tokenTtl: tokenTtl,
		clock:    clk,
	}
}

type RegisterParams struct {
	Email         string
	Username      string
	Password      string
	Role          models.Role
	WalletAddress string
}

func (service *Service) Register(params RegisterParams) (*models.User, error) {
	if params.Email == "" || params.Username == "" {
		return nil, apperrors.New(apperrors.KindValidation, "email and username are required")
	}

	if len(params.Password) < 8 {
		return nil, apperrors.New(apperrors.KindValidation, "password must be at least 8 characters")
	}

	if params.WalletAddress != "" && !models.ValidWalletAddress(params.WalletAddress) {
		return nil, apperrors.New(apperrors.KindValidation, "wallet address must be 42 characters and 0x-prefixed")
	}

	passwordHash, err := bcrypt.GenerateFromPassword([]byte(params.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	user := &models.User{
		Email:         params.Email,
		Username:      params.Username,
		PasswordHash:  passwordHash,
		Role:          params.Role,
		WalletAddress: params.WalletAddress,
	}

	if err := service.users.Create(user); err != nil {
		if apperrors.IsKind(err, apperrors.KindPreconditionFailed) {
			return nil, apperrors.Wrap(apperrors.KindPreconditionFailed, "email already registered", err)
		}

		return nil, err
	}

	return user, nil
}

func (service *Service) Login(email string, password string) (*models.User, string, error) {
	user, err := service.users.GetByEmail(email)
	if err != nil {
		if apperrors.IsKind(err, apperrors.KindNotFound) {
			return nil, "", apperrors.New(apperrors.KindAuthorization, "invalid credentials")
		}

		return nil, "", err
	}

	if err := bcrypt.CompareHashAndPassword(user.PasswordHash, []byte(password)); err != nil {
		return nil, "", apperrors.New(apperrors.KindAuthorization, "invalid credentials")
	}

	token, err := service.IssueToken(user)
	if err != nil {
		return nil, "", err
	}

	return user, token, nil
}

func (service *Service) IssueToken(user *models.User) (string, error) {
	now := service.clock.Now()

	claims := jwt.MapClaims{
		"sub": strconv.FormatUint(user.Id, 10),
		"iat": now.Unix(),
		"exp": now.Add(service.tokenTtl).Unix(),
	}

	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(service.secret)
}

// VerifyToken returns the user id carried by a valid bearer token.
func (service *Service) VerifyToken(tokenString string) (uint64, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}

		return service.secret, nil
	}, jwt.WithExpirationRequired())

	if err != nil || !token.Valid {
		return 0, apperrors.New(apperrors.KindAuthorization, "invalid or expired token")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return 0, apperrors.New(apperrors.KindAuthorization, "invalid token claims")
	}

	subject, err := claims.GetSubject()
	if err != nil {
		return 0, apperrors.New(apperrors.KindAuthorization, "invalid token claims")
	}

	userId, err := strconv.ParseUint(subject, 10, 64)
	if err != nil {
		return 0, apperrors.New(apperrors.KindAuthorization, "invalid token subject")
	}

	return userId, nil
}
