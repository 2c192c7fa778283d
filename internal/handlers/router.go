package handlers

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yukikurage/taskflow/internal/middleware"
)

// NewRouter wires middleware and every route. Session middleware must be
// installed by the caller through extra.
func NewRouter(tasks *TaskHandler, prefs *PreferencesHandler, logger *slog.Logger, extra ...gin.HandlerFunc) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), middleware.RequestLogger(logger))
	r.Use(extra...)

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "ok",
			"message": "TaskFlow is running",
		})
	})

	api := r.Group("/api")
	{
		taskRoutes := api.Group("/tasks")
		{
			taskRoutes.GET("", tasks.ListTasks)
			taskRoutes.POST("", tasks.CreateTask)
			taskRoutes.GET("/active", tasks.ListActiveTasks)
			taskRoutes.GET("/completed", tasks.ListCompletedTasks)
			taskRoutes.DELETE("/completed", tasks.DeleteCompletedTasks)
			taskRoutes.POST("/drafts", tasks.GenerateDrafts)
			taskRoutes.GET("/:id", middleware.RequireTaskID(), tasks.GetTask)
			taskRoutes.PATCH("/:id", middleware.RequireTaskID(), tasks.UpdateTask)
			taskRoutes.DELETE("/:id", middleware.RequireTaskID(), tasks.DeleteTask)
			taskRoutes.POST("/:id/toggle", middleware.RequireTaskID(), tasks.ToggleTask)
		}

		prefRoutes := api.Group("/preferences")
		{
			prefRoutes.GET("/theme", prefs.GetTheme)
			prefRoutes.PUT("/theme", prefs.SetTheme)
			prefRoutes.POST("/theme/toggle", prefs.ToggleTheme)
		}
	}

	return r
}
