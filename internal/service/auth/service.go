// Package auth handles account registration and token issuance.
package auth

import (
	"klav_chat_server/internal/dao"
	"klav_chat_server/internal/dto/respond"
	"klav_chat_server/internal/model"
	"klav_chat_server/pkg/errorx"
	myjwt "klav_chat_server/pkg/util/jwt"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

const (
	statusCreated = "CREATED"
	statusAlready = "ALREADY"
)

// Service implements register, login and token refresh.
type Service struct {
	users dao.UserRepository
}

func NewService(users dao.UserRepository) *Service {
	return &Service{users: users}
}

// Register creates an account. An empty nickname defaults to the
// username. Re-registering an existing handle reports ALREADY and
// leaves the account untouched.
func (s *Service) Register(username, password, nickname string) (*respond.RegisterRespond, error) {
	if _, err := s.users.FindByUsername(username); err == nil {
		return &respond.RegisterRespond{Status: statusAlready}, nil
	} else if !errorx.IsNotFound(err) {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, errorx.Wrap(err, errorx.CodeServerBusy, "hash password failed")
	}
	if nickname == "" {
		nickname = username
	}
	user := &model.User{
		Username: username,
		Nickname: nickname,
		Password: string(hash),
	}
	if err := s.users.Create(user); err != nil {
		return nil, err
	}
	zap.L().Info("user registered", zap.String("username", username))
	return &respond.RegisterRespond{Status: statusCreated}, nil
}

// Login verifies credentials and mints an access/refresh token pair.
func (s *Service) Login(username, password string) (*respond.LoginRespond, error) {
	user, err := s.users.FindByUsername(username)
	if err != nil {
		if errorx.IsNotFound(err) {
			return nil, errorx.New(errorx.CodeUnauthorized, "invalid username or password")
		}
		return nil, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return nil, errorx.New(errorx.CodeUnauthorized, "invalid username or password")
	}
	return s.issueTokens(user)
}

// Refresh exchanges a valid refresh token for a fresh pair.
func (s *Service) Refresh(refreshToken string) (*respond.LoginRespond, error) {
	claims, err := myjwt.ParseToken(refreshToken)
	if err != nil {
		return nil, errorx.ErrUnauthorized
	}
	if claims.Subject != "refresh_token" {
		return nil, errorx.New(errorx.CodeUnauthorized, "not a refresh token")
	}
	user, err := s.users.FindByUsername(claims.Username)
	if err != nil {
		if errorx.IsNotFound(err) {
			return nil, errorx.ErrUnauthorized
		}
		return nil, err
	}
	return s.issueTokens(user)
}

func (s *Service) issueTokens(user *model.User) (*respond.LoginRespond, error) {
	access, err := myjwt.GenerateAccessToken(user.Username)
	if err != nil {
		return nil, errorx.Wrap(err, errorx.CodeServerBusy, "mint access token failed")
	}
	refresh, _, err := myjwt.GenerateRefreshToken(user.Username)
	if err != nil {
		return nil, errorx.Wrap(err, errorx.CodeServerBusy, "mint refresh token failed")
	}
	nickname := user.Nickname
	if nickname == "" {
		nickname = user.Username
	}
	return &respond.LoginRespond{
		Username:     user.Username,
		Nickname:     nickname,
		AccessToken:  access,
		RefreshToken: refresh,
		TokenType:    "Bearer",
	}, nil
}
