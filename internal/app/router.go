package app

import (
	"coaching_backend/internal/config"
	"coaching_backend/internal/middleware"
	"coaching_backend/internal/model"
	"coaching_backend/pkg/monitoring"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

func (a *App) registerRoutes(router *gin.Engine, c *controllers, repos *repositories, cfg *config.Config) {
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	router.GET("/metrics", monitoring.PrometheusHandler())

	// 1. 公共路由(无需登录)
	a.registerPublicRoutes(router, c)

	// 2. 需要授权的路由
	authGroup := router.Group("/api")
	authGroup.Use(middleware.AuthMiddleware(cfg), middleware.ActivityMiddleware(repos.user))
	{
		// 学生/通用 授权接口
		a.registerStudentRoutes(authGroup, c)

		// 教师相关接口
		a.registerTeacherRoutes(authGroup, c)
	}
}

func (a *App) registerPublicRoutes(router *gin.Engine, c *controllers) {
	public := router.Group("/api")
	{
		public.GET("/health", c.health.HealthCheck)
		public.POST("/auth/register", c.auth.Register)
		public.POST("/auth/login", c.auth.Login)
	}
}

func (a *App) registerStudentRoutes(rg *gin.RouterGroup, c *controllers) {
	rg.GET("/auth/me", c.auth.Me)

	// 测评作答
	rg.GET("/assessments", c.assessment.ListForStudent)
	rg.POST("/assessments/:id/attempts/start", c.attempt.Start)
	rg.PUT("/attempts/:id/answers/:questionId", c.attempt.SaveAnswer)
	rg.POST("/attempts/:id/submit", c.attempt.Submit)
	rg.GET("/attempts/:id/result", c.attempt.Result)

	// 站内通知
	rg.GET("/notifications", c.notification.List)
	rg.POST("/notifications/:id/read", c.notification.MarkRead)
}

func (a *App) registerTeacherRoutes(rg *gin.RouterGroup, c *controllers) {
	teacher := rg.Group("/teacher")
	teacher.Use(middleware.RoleMiddleware(model.Teacher, model.Admin))
	{
		// 测评管理
		teacher.POST("/assessments", c.assessment.Create)
		teacher.GET("/assessments", c.assessment.ListForTeacher)
		teacher.GET("/assessments/:id", c.assessment.Get)
		teacher.POST("/assessments/:id/publish", c.assessment.Publish)
		teacher.POST("/assessments/:id/close", c.assessment.Close)

		// 题目管理
		teacher.POST("/assessments/:id/questions", c.assessment.AddQuestions)
		teacher.DELETE("/assessments/:id/questions/:qid", c.assessment.DeleteQuestion)

		// 成绩榜单
		teacher.GET("/assessments/:id/attempts", c.assessment.Leaderboard)
	}
}
