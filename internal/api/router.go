package api

import (
	"github.com/gin-gonic/gin"
	"github.com/wfunc/trivia-game/internal/config"
	"github.com/wfunc/trivia-game/internal/middleware"
	"github.com/wfunc/trivia-game/internal/service"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Router API路由器
type Router struct {
	engine       *gin.Engine
	db           *gorm.DB
	services     *service.Services
	slackHandler *SlackHandler
	log          *zap.Logger
}

// NewRouter 创建路由器
func NewRouter(db *gorm.DB, cfg *config.SlackConfig, log *zap.Logger) (*Router, error) {
	// 创建Gin引擎
	engine := gin.New()

	// 全局中间件
	engine.Use(gin.Recovery())
	engine.Use(middleware.RequestID())
	engine.Use(middleware.RequestLogger())

	// 创建服务
	services, err := service.NewServices(db, cfg, log)
	if err != nil {
		return nil, err
	}

	// 创建处理器
	slackHandler := NewSlackHandler(services.SlashCommand, log)

	router := &Router{
		engine:       engine,
		db:           db,
		services:     services,
		slackHandler: slackHandler,
		log:          log,
	}

	// 设置路由
	router.setupRoutes()

	return router, nil
}

// setupRoutes 设置路由
func (r *Router) setupRoutes() {
	// 健康检查
	r.engine.GET("/health", r.healthCheck)

	// Slack斜杠命令入口
	slack := r.engine.Group("/api/slack")
	{
		slack.POST("/slash", r.slackHandler.SlashCommand)
	}

	// 404处理
	r.engine.NoRoute(func(c *gin.Context) {
		c.JSON(404, gin.H{
			"code":    "NOT_FOUND",
			"message": "接口不存在",
		})
	})
}

// healthCheck 健康检查
func (r *Router) healthCheck(c *gin.Context) {
	// 检查数据库连接
	sqlDB, err := r.db.DB()
	if err != nil {
		c.JSON(500, gin.H{
			"status":  "unhealthy",
			"message": "数据库连接失败",
		})
		return
	}

	if err := sqlDB.Ping(); err != nil {
		c.JSON(500, gin.H{
			"status":  "unhealthy",
			"message": "数据库ping失败",
		})
		return
	}

	c.JSON(200, gin.H{
		"status":  "healthy",
		"message": "服务运行正常",
	})
}

// Run 运行服务器
func (r *Router) Run(addr string) error {
	r.log.Info("Starting API server", zap.String("address", addr))
	return r.engine.Run(addr)
}

// GetEngine 获取Gin引擎（用于测试）
func (r *Router) GetEngine() *gin.Engine {
	return r.engine
}
