package main

import (
	"flag"
	"log/slog"
	"os"

	"smart-inventory/internal/config"
	"smart-inventory/internal/handler"
	"smart-inventory/internal/logger"
	"smart-inventory/internal/middleware"
	"smart-inventory/internal/service"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

func main() {
	configFile := flag.String("config", "", "config file path (e.g. etc/config-dev.yaml)")
	flag.Parse()

	cfg := config.Load(*configFile)
	logger.Init(cfg.Log)
	middleware.JWTSecret = []byte(cfg.Server.JWTSecret)

	db, err := cfg.OpenGormDB()
	if err != nil {
		slog.Error("db connect failed", "err", err)
		os.Exit(1)
	}

	// 审计落库走服务级账号；未配置时回退主连接
	auditDB, err := cfg.OpenAuditDB()
	if err != nil {
		slog.Warn("audit db connect failed, falling back to primary", "err", err)
	}
	if auditDB == nil {
		auditDB = db
	}

	var synth handler.Synthesizer
	if cfg.LLM.APIKey != "" {
		synth = service.NewAIService(cfg.LLM.BaseURL, cfg.LLM.APIKey, cfg.LLM.Model)
	} else {
		slog.Warn("llm api key not configured, intent endpoint disabled")
	}

	roleSvc := service.NewRoleService(db)
	snapSvc := service.NewSnapshotService(db)
	execSvc := service.NewExecService(db)
	auditSvc := service.NewAuditService(auditDB)
	authSvc := service.NewAuthService(db)

	authH := handler.NewAuthHandler(authSvc, roleSvc)
	chatH := handler.NewChatHandler(synth, roleSvc, snapSvc, auditSvc)
	queryH := handler.NewQueryHandler(execSvc, roleSvc)
	roleH := handler.NewRoleHandler(roleSvc)
	alertH := handler.NewAlertHandler(auditSvc, roleSvc)

	r := gin.Default()
	r.Use(middleware.RequestID())
	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		AllowCredentials: true,
	}))

	r.POST("/api/login", authH.Login)
	api := r.Group("/api", middleware.JWTAuth())
	api.POST("/chat", chatH.Chat)
	api.POST("/query/preview", queryH.Preview)
	api.POST("/query/execute", queryH.Execute)
	api.GET("/role/session", roleH.Get)
	api.POST("/role/session", roleH.Set)
	api.GET("/alerts", alertH.List)
	api.POST("/alerts/:id/resolve", alertH.Resolve)
	api.GET("/alerts/export", alertH.Export)

	slog.Info("server starting", "addr", cfg.Addr())
	if err := r.Run(cfg.Addr()); err != nil {
		slog.Error("server failed", "err", err)
	}
}
