package handler

import (
	"studyverse/internal/auth"
	"studyverse/internal/ledger"
	"studyverse/internal/model"

	"github.com/gin-gonic/gin"
)

// SetupRouter 配置路由
//
// imageDir 是预览图目录，对外公开；笔记文件不走静态路由
func SetupRouter(h *Handler, tokens *auth.TokenManager, imageDir string, maxUploadMB int64) *gin.Engine {
	// 设置 gin 为发布模式（减少日志输出）
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()
	r.MaxMultipartMemory = maxUploadMB << 20

	// 注册中间件
	r.Use(RequestIDMiddleware())
	r.Use(RecoveryMiddleware())
	r.Use(LoggerMiddleware())
	r.Use(CORSMiddleware())

	// 笔记预览图
	r.Static("/uploads", imageDir)

	api := r.Group("/api/v1")
	authed := api.Group("", AuthMiddleware(tokens))

	// 认证
	api.POST("/auth/register", h.Register)
	api.POST("/auth/login", h.Login)
	authed.GET("/auth/me", h.Me)

	// 报名 / 购买
	authed.POST("/items/courses/:id/enroll", h.Enroll)
	authed.POST("/items/notes/:id/purchase", h.PurchaseNote)

	// 课程
	api.GET("/courses", h.ListCourses)
	api.GET("/courses/:id", h.GetCourse)
	api.GET("/courses/:id/lessons", h.ListLessons)
	api.GET("/courses/:id/notes", h.ListCourseNotes)
	api.GET("/courses/:id/reviews", h.Reviews(ledger.KindCourse))
	api.GET("/courses/:id/comments", h.Comments(ledger.KindCourse))
	authed.POST("/courses", RequireRole(model.RoleEducator), h.CreateCourse)
	authed.PUT("/courses/:id", h.UpdateCourse)
	authed.DELETE("/courses/:id", h.DeleteCourse)
	authed.POST("/courses/:id/lessons", h.AddLesson)
	authed.GET("/courses/:id/progress", h.CourseProgress)
	authed.POST("/courses/:id/rate", h.Rate(ledger.KindCourse))
	authed.POST("/courses/:id/comments", h.AddComment(ledger.KindCourse))

	// 课时
	authed.PUT("/lessons/:id", h.UpdateLesson)
	authed.DELETE("/lessons/:id", h.DeleteLesson)
	authed.POST("/lessons/:id/complete", h.CompleteLesson)

	// 笔记
	api.GET("/notes", h.ListNotes)
	api.GET("/notes/:id", h.GetNote)
	api.GET("/notes/:id/reviews", h.Reviews(ledger.KindNote))
	api.GET("/notes/:id/comments", h.Comments(ledger.KindNote))
	authed.POST("/notes", h.UploadNote)
	authed.GET("/notes/:id/file", h.DownloadNote)
	authed.POST("/notes/:id/rate", h.Rate(ledger.KindNote))
	authed.POST("/notes/:id/comments", h.AddComment(ledger.KindNote))

	// 我的
	me := authed.Group("/me")
	{
		me.GET("/courses", RequireRole(model.RoleEducator), h.ListMyCourses)
		me.GET("/enrollments", h.ListEnrollments)
		me.GET("/purchases", h.ListPurchases)
		me.GET("/account", h.GetAccount)
		me.POST("/account/topup", h.TopUp)
		me.GET("/account/transactions", h.ListTransactions)
	}

	// 管理后台
	admin := authed.Group("/admin", RequireRole(model.RoleAdmin))
	{
		admin.PATCH("/courses/:id/status", h.SetCourseStatus)
		admin.DELETE("/courses/:id", h.AdminDeleteCourse)
		admin.DELETE("/notes/:id", h.AdminDeleteNote)
		admin.GET("/users", h.ListUsers)
		admin.GET("/outbox", h.OutboxStats)
	}

	api.GET("/search", h.Search)

	// 健康检查
	r.GET("/health", h.Health)

	return r
}
