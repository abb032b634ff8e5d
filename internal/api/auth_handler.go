package api

import (
	"net/http"

	"github.com/rs/zerolog"

	apperrors "github.com/chainballot/chainballot/internal/apperrors"
	auth "github.com/chainballot/chainballot/internal/auth"
	models "github.com/chainballot/chainballot/internal/models"
)

type AuthHandler struct {
	auth   *auth.Service
	logger zerolog.Logger
}

func NewAuthHandler(authService *auth.Service, logger zerolog.Logger) *AuthHandler {
	return &AuthHandler{
		auth:   authService,
		logger: logger.With().Str("component", "api.auth").Logger(),
	}
}

type registerRequest struct {
	Email         string `json:"email"`
	Username      string `json:"username"`
	Password      string `json:"password"`
	Role          string `json:"role"`
	WalletAddress string `json:"wallet_address"`
}

type registerResponse struct {
	UserId uint64 `json:"user_id"`
	Email  string `json:"email"`
	Token  string `json:"token"`
}

func (handler *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := parseJSONBody(r, &req); err != nil {
		writeError(w, err)
		return
	}

	role, err := models.ParseRole(req.Role)
	if err != nil {
		writeError(w, apperrors.Wrap(apperrors.KindValidation, "role must be elector, candidate or none", err))
		return
	}

	user, err := handler.auth.Register(auth.RegisterParams{
		Email:         req.Email,
		Username:      req.Username,
		Password:      req.Password,
		Role:          role,
		WalletAddress: req.WalletAddress,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	token, err := handler.auth.IssueToken(user)
	if err != nil {
		handler.logger.Error().Err(err).Msg("failed to issue token")
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, registerResponse{
		UserId: user.Id,
		Email:  user.Email,
		Token:  token,
	})
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (handler *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := parseJSONBody(r, &req); err != nil {
		writeError(w, err)
		return
	}

	user, token, err := handler.auth.Login(req.Email, req.Password)
	if err != nil {
		if apperrors.IsKind(err, apperrors.KindAuthorization) {
			writeErrorMessage(w, http.StatusUnauthorized, "invalid credentials")
			return
		}

		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, registerResponse{
		UserId: user.Id,
		Email:  user.Email,
		Token:  token,
	})
}
