package endpoints

import (
	"github.com/gin-gonic/gin"
)

// Deps are the collaborators the routes need.
type Deps struct {
	Uploader   Uploader
	Store      Recorder
	Lister     HistoryLister
	FolderID   string
	FolderName string
}

// SetupRoutes configures all API routes
func SetupRoutes(r *gin.Engine, deps Deps) {
	api := r.Group("/api")
	{
		// Health check endpoint
		api.GET("/health", func(c *gin.Context) {
			c.JSON(200, gin.H{
				"status":  "healthy",
				"service": "formdrop",
			})
		})

		api.POST("/upload", HandleUpload(deps.Uploader, deps.Store, deps.FolderID, deps.FolderName))

		if deps.Lister != nil {
			api.GET("/uploads", HandleListUploads(deps.Lister))
		}
	}
}
