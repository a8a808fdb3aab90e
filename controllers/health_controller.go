package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/mkryuchkov/socnet/utils"
)

// HealthController exposes liveness probes for the application and its
// collaborators.
type HealthController struct {
	db  *gorm.DB
	rdb *redis.Client
}

// NewHealthController creates a HealthController.
func NewHealthController(db *gorm.DB, rdb *redis.Client) *HealthController {
	return &HealthController{db: db, rdb: rdb}
}

// Ping reports that the application itself is serving.
func (h *HealthController) Ping(ctx *gin.Context) {
	utils.Success(ctx, gin.H{"status": "ok"})
}

// PingDatabase reports whether the primary store answers.
func (h *HealthController) PingDatabase(ctx *gin.Context) {
	sqlDB, err := h.db.DB()
	if err == nil {
		err = sqlDB.PingContext(ctx.Request.Context())
	}
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50030, "database is not available")
		return
	}
	utils.Success(ctx, gin.H{"status": "ok"})
}

// PingCache reports whether Redis answers. The cache being down is not fatal
// for the service, so this is informational only.
func (h *HealthController) PingCache(ctx *gin.Context) {
	if h.rdb == nil {
		utils.Error(ctx, http.StatusInternalServerError, 50031, "cache is not configured")
		return
	}
	if err := h.rdb.Ping(ctx.Request.Context()).Err(); err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50031, "cache is not available")
		return
	}
	utils.Success(ctx, gin.H{"status": "ok"})
}
