// Package user provides profile lookups with an optional redis-backed
// nickname cache in front of the durable store.
package user

import (
	"context"
	"time"

	"klav_chat_server/internal/dao"
	myredis "klav_chat_server/internal/dao/redis"
	"klav_chat_server/internal/dto/respond"
	"klav_chat_server/pkg/constants"
	"klav_chat_server/pkg/errorx"

	"go.uber.org/zap"
)

// Service resolves user handles to profiles and display names.
type Service struct {
	users dao.UserRepository
	cache myredis.AsyncCacheService // nil when the cache is disabled
}

// NewService wires the service. cache may be nil.
func NewService(users dao.UserRepository, cache myredis.AsyncCacheService) *Service {
	return &Service{users: users, cache: cache}
}

func nicknameKey(username string) string {
	return "nickname_" + username
}

// Nickname returns the user's display name, falling back to the handle
// when the user is unknown or has no nickname. Lookups hit the cache
// first; misses are written back asynchronously.
func (s *Service) Nickname(username string) string {
	if s.cache != nil {
		if val, err := s.cache.Get(context.Background(), nicknameKey(username)); err == nil && val != "" {
			return val
		}
	}

	user, err := s.users.FindByUsername(username)
	if err != nil || user.Nickname == "" {
		return username
	}

	if s.cache != nil {
		nickname := user.Nickname
		s.cache.SubmitTask(func() {
			err := s.cache.Set(context.Background(), nicknameKey(username), nickname,
				time.Minute*constants.NICKNAME_CACHE_TTL)
			if err != nil {
				zap.L().Warn("nickname cache set failed", zap.String("username", username), zap.Error(err))
			}
		})
	}
	return user.Nickname
}

// GetUserInfo returns the authenticated profile view.
func (s *Service) GetUserInfo(username string) (*respond.UserInfoRespond, error) {
	user, err := s.users.FindByUsername(username)
	if err != nil {
		return nil, err
	}
	nickname := user.Nickname
	if nickname == "" {
		nickname = user.Username
	}
	return &respond.UserInfoRespond{
		Username:  user.Username,
		Nickname:  nickname,
		CreatedAt: user.CreatedAt.UTC().Format(time.RFC3339),
	}, nil
}

// UpdateNickname mutates the display name and invalidates the cache.
func (s *Service) UpdateNickname(username, nickname string) error {
	if nickname == "" {
		return errorx.ErrInvalidParam
	}
	if _, err := s.users.FindByUsername(username); err != nil {
		return err
	}
	if err := s.users.UpdateNickname(username, nickname); err != nil {
		return err
	}
	if s.cache != nil {
		if err := s.cache.Delete(context.Background(), nicknameKey(username)); err != nil {
			zap.L().Warn("nickname cache invalidation failed", zap.String("username", username), zap.Error(err))
		}
	}
	return nil
}
