package handler

import (
	"strconv"
	"time"

	"studyverse/internal/auth"
	"studyverse/internal/config"
	"studyverse/internal/ledger"
	"studyverse/internal/service"
	"studyverse/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"gorm.io/gorm"
)

// Handler 统一处理器，包含所有服务依赖
type Handler struct {
	authService     *service.AuthService
	purchaseService *service.PurchaseService
	accountService  *service.AccountService
	courseService   *service.CourseService
	lessonService   *service.LessonService
	noteService     *service.NoteService
	feedbackService *service.FeedbackService
	adminService    *service.AdminService
	searchService   *service.SearchService
}

// NewHandler 创建处理器实例，rdb 为 nil 时购买不加 Redis 锁
//
// docs 存笔记文件，images 存预览图，两者分开是因为只有预览图走公开的静态路由。
func NewHandler(db *gorm.DB, l *ledger.Ledger, rdb *redis.Client, docs, images service.FileStore, tokens *auth.TokenManager, cfg *config.Config) *Handler {
	courses := service.NewCourseService(db)
	notes := service.NewNoteService(db, l, docs, images)
	lockTTL := time.Duration(cfg.Business.PurchaseLockSeconds) * time.Second

	return &Handler{
		authService:     service.NewAuthService(db, tokens, cfg),
		purchaseService: service.NewPurchaseService(l, rdb, lockTTL),
		accountService:  service.NewAccountService(db, l),
		courseService:   courses,
		lessonService:   service.NewLessonService(db, l),
		noteService:     notes,
		feedbackService: service.NewFeedbackService(db, l),
		adminService:    service.NewAdminService(db, courses, notes),
		searchService:   service.NewSearchService(db),
	}
}

// pathID 解析路径上的 :id
func pathID(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		response.ParamError(c, name+" 参数错误")
		return 0, false
	}
	return id, true
}

// bindJSON 只做反序列化，字段校验在 service 层
func bindJSON(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		response.ParamError(c, "参数错误: "+err.Error())
		return false
	}
	return true
}

func pagination(c *gin.Context) (int, int) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	return page, pageSize
}

func (h *Handler) Health(c *gin.Context) {
	c.JSON(200, gin.H{"status": "ok"})
}
