package transport

import (
	"path/filepath"
	"time"

	"github.com/ds124wfegd/promostudio/internal/pkg/storage"
	"github.com/ds124wfegd/promostudio/internal/transport/middleware"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

func InitRoutes(h *Handler, imageDir string, maxUpload int64) *gin.Engine {

	router := gin.New()
	if maxUpload > 0 {
		router.MaxMultipartMemory = maxUpload
	}

	// Middleware
	router.Use(gin.Recovery())
	router.Use(cors.New(cors.Config{
		AllowAllOrigins: true,
		AllowMethods:    []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowHeaders:    []string{"Origin", "Content-Type", "Accept", "Authorization"},
		ExposeHeaders:   []string{"Content-Disposition", "X-Group"},
		MaxAge:          12 * time.Hour,
	}))
	router.Use(middleware.Logger())

	router.GET("/", h.Index)

	// Health check
	router.GET("/health", h.Health)

	// nginx serves the same tree under /images in production
	router.Static("/images/"+storage.FoodDir, filepath.Join(imageDir, storage.FoodDir))
	router.Static("/images/"+storage.StoreDir, filepath.Join(imageDir, storage.StoreDir))

	v1 := router.Group("/v1")
	{
		v1.POST("/generate-promo", h.GeneratePromo)
		v1.POST("/ad-image", h.AdImage)
		v1.POST("/upload-store-images", h.UploadStoreImages)
		v1.POST("/outpaint", h.Outpaint)
		v1.GET("/outpaint/jobs/:id", h.GetOutpaintJob)
		v1.DELETE("/outpaint/jobs/:id", h.DeleteOutpaintJob)
	}
	return router
}
