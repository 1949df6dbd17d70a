package service

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"connectrpc.com/connect"

	"github.com/mmynk/corepadel/internal/auth"
	"github.com/mmynk/corepadel/internal/middleware"
	"github.com/mmynk/corepadel/internal/models"
	"github.com/mmynk/corepadel/pkg/api"
)

// AuthService implements the AuthService RPC interface.
type AuthService struct {
	authenticator auth.Authenticator
	sessions      *auth.Sessions
	users         auth.UserStorage
	logger        *slog.Logger
}

// NewAuthService creates a new authentication service.
func NewAuthService(authenticator auth.Authenticator, sessions *auth.Sessions, users auth.UserStorage, logger *slog.Logger) *AuthService {
	return &AuthService{
		authenticator: authenticator,
		sessions:      sessions,
		users:         users,
		logger:        logger,
	}
}

// NewAuthServiceHandler builds the HTTP handler for s.
func NewAuthServiceHandler(s *AuthService, opts ...connect.HandlerOption) (string, http.Handler) {
	opts = handlerOptions(opts)
	return serviceHandler(api.AuthServiceName, map[string]http.Handler{
		api.AuthRegisterProcedure:       connect.NewUnaryHandler(api.AuthRegisterProcedure, s.Register, opts...),
		api.AuthLoginProcedure:          connect.NewUnaryHandler(api.AuthLoginProcedure, s.Login, opts...),
		api.AuthLogoutProcedure:         connect.NewUnaryHandler(api.AuthLogoutProcedure, s.Logout, opts...),
		api.AuthGetCurrentUserProcedure: connect.NewUnaryHandler(api.AuthGetCurrentUserProcedure, s.GetCurrentUser, opts...),
	})
}

// Register creates a new user account and signs it in.
func (s *AuthService) Register(ctx context.Context, req *connect.Request[api.RegisterRequest]) (*connect.Response[api.RegisterResponse], error) {
	s.logger.Info("Register request", "email", req.Msg.Email)

	if err := auth.ValidateSignUp(req.Msg.Email, req.Msg.Password, req.Msg.DisplayName); err != nil {
		return nil, connect.NewError(connect.CodeInvalidArgument, err)
	}

	user, err := s.authenticator.Register(ctx, req.Msg.Email, req.Msg.DisplayName, req.Msg.Password)
	switch {
	case errors.Is(err, auth.ErrEmailExists):
		return nil, connect.NewError(connect.CodeAlreadyExists, err)
	case errors.Is(err, auth.ErrWeakPassword):
		return nil, connect.NewError(connect.CodeInvalidArgument, err)
	case err != nil:
		return nil, internalError(ctx, s.logger, "Registration", err)
	}

	token, claims, err := s.sessions.Issue(user)
	if err != nil {
		return nil, internalError(ctx, s.logger, "Token generation", err)
	}

	s.logger.Info("User registered successfully", "user_id", user.ID, "email", user.Email)
	return connect.NewResponse(&api.RegisterResponse{
		User:      toAPIUser(user),
		Token:     token,
		ExpiresAt: claims.ExpiresAt.Unix(),
	}), nil
}

// Login authenticates a user and returns a session token.
func (s *AuthService) Login(ctx context.Context, req *connect.Request[api.LoginRequest]) (*connect.Response[api.LoginResponse], error) {
	s.logger.Info("Login request", "email", req.Msg.Email)

	if err := auth.ValidateSignIn(req.Msg.Email, req.Msg.Password); err != nil {
		return nil, connect.NewError(connect.CodeInvalidArgument, err)
	}

	user, err := s.authenticator.Authenticate(ctx, req.Msg.Email, req.Msg.Password)
	if errors.Is(err, auth.ErrInvalidCredentials) {
		s.logger.Warn("Login failed", "email", req.Msg.Email)
		return nil, connect.NewError(connect.CodeUnauthenticated, err)
	}
	if err != nil {
		return nil, internalError(ctx, s.logger, "Login", err)
	}

	token, claims, err := s.sessions.Issue(user)
	if err != nil {
		return nil, internalError(ctx, s.logger, "Token generation", err)
	}

	s.logger.Info("User logged in successfully", "user_id", user.ID)
	return connect.NewResponse(&api.LoginResponse{
		User:      toAPIUser(user),
		Token:     token,
		ExpiresAt: claims.ExpiresAt.Unix(),
	}), nil
}

// Logout revokes the caller's session token.
func (s *AuthService) Logout(ctx context.Context, req *connect.Request[api.LogoutRequest]) (*connect.Response[api.LogoutResponse], error) {
	claims := middleware.GetClaims(ctx)
	if claims == nil {
		return nil, connect.NewError(connect.CodeUnauthenticated, auth.ErrMissingToken)
	}

	if err := s.sessions.Revoke(ctx, claims); err != nil {
		return nil, internalError(ctx, s.logger, "Logout", err)
	}

	s.logger.Info("User logged out", "user_id", claims.UserID)
	return connect.NewResponse(&api.LogoutResponse{}), nil
}

// GetCurrentUser returns the authenticated user's account.
func (s *AuthService) GetCurrentUser(ctx context.Context, req *connect.Request[api.GetCurrentUserRequest]) (*connect.Response[api.GetCurrentUserResponse], error) {
	userID, err := requireUser(ctx)
	if err != nil {
		return nil, err
	}

	user, err := s.currentUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	return connect.NewResponse(&api.GetCurrentUserResponse{User: toAPIUser(user)}), nil
}

// currentUser loads the account behind a valid session. A session whose
// account no longer exists is treated as signed out.
func (s *AuthService) currentUser(ctx context.Context, userID string) (*models.User, error) {
	user, err := s.users.GetUserByID(ctx, userID)
	if err != nil {
		return nil, internalError(ctx, s.logger, "User lookup", err)
	}
	if user == nil {
		return nil, connect.NewError(connect.CodeUnauthenticated, auth.ErrInvalidToken)
	}
	return user, nil
}
