package main

import (
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"klav_chat_server/internal/config"
	"klav_chat_server/internal/dao"
	myredis "klav_chat_server/internal/dao/redis"
	"klav_chat_server/internal/handler"
	"klav_chat_server/internal/http_server"
	"klav_chat_server/internal/infrastructure/logger"
	"klav_chat_server/internal/service/auth"
	"klav_chat_server/internal/service/chat"
	"klav_chat_server/internal/service/user"
	"klav_chat_server/pkg/util/jwt"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func main() {
	conf := config.GetConfig()

	if err := logger.Init(&conf.LogConfig, conf.Mode); err != nil {
		log.Fatalf("init logger failed: %v", err)
	}
	zap.L().Info("logger initialized")

	if conf.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	repos, err := dao.Init(&conf.StorageConfig)
	if err != nil {
		zap.L().Fatal("init storage failed", zap.Error(err))
	}
	zap.L().Info("storage initialized", zap.String("backend", conf.StorageConfig.Backend))

	cache, err := myredis.Init(&conf.RedisConfig)
	if err != nil {
		zap.L().Fatal("init redis failed", zap.Error(err))
	}
	if cache != nil {
		zap.L().Info("redis cache initialized")
	}

	jwt.Init(conf.JWTConfig.Secret, conf.JWTConfig.AccessTokenExpiry, conf.JWTConfig.RefreshTokenExpiry)

	authSvc := auth.NewService(repos.User)
	userSvc := user.NewService(repos.User, cache)

	chatSrv, err := chat.NewServer(&conf.BrokerConfig, repos, userSvc)
	if err != nil {
		zap.L().Fatal("init chat server failed", zap.Error(err))
	}
	go chatSrv.Start()
	zap.L().Info("chat server started", zap.String("message_mode", conf.BrokerConfig.MessageMode))

	handlers := handler.NewHandlers(authSvc, userSvc, chatSrv, repos)
	engine := http_server.Init(&conf.MainConfig, handlers)

	go func() {
		addr := fmt.Sprintf("%s:%d", conf.MainConfig.Host, conf.MainConfig.Port)
		if err := engine.Run(addr); err != nil {
			zap.L().Fatal("http server stopped", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	zap.L().Info("shutting down")
	if err := chatSrv.Close(); err != nil {
		zap.L().Error("close chat server failed", zap.Error(err))
	}
	if err := repos.Close(); err != nil {
		zap.L().Error("close storage failed", zap.Error(err))
	}
	zap.L().Info("server stopped")
}
