// controller/progress_controller.go
package controller

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	logger "github.com/identityops/idassign/logging"
	"github.com/identityops/idassign/progress"
)

// ProgressController exposes persisted progress snapshots over HTTP so any
// process can observe an in-flight bulk operation.
type ProgressController struct {
	store *progress.FileStore
}

func NewProgressController(store *progress.FileStore) *ProgressController {
	return &ProgressController{store: store}
}

// RegisterRoutes registers the API routes
func (pc *ProgressController) RegisterRoutes(r *gin.RouterGroup) {
	operations := r.Group("/operations")
	{
		operations.GET("", pc.ListOperations)
		operations.GET("/:id", pc.GetOperation)
	}
}

// ListOperations endpoint
func (pc *ProgressController) ListOperations(c *gin.Context) {
	snapshots, err := pc.store.List()
	if err != nil {
		respondWithError(c, http.StatusInternalServerError, "Failed to list operations", err)
		return
	}
	c.JSON(http.StatusOK, snapshots)
}

// GetOperation endpoint
func (pc *ProgressController) GetOperation(c *gin.Context) {
	operationID := c.Param("id")

	snapshot, ok, err := pc.store.Load(operationID)
	if err != nil {
		respondWithError(c, http.StatusInternalServerError, "Failed to load operation", err)
		return
	}
	if !ok {
		respondWithError(c, http.StatusNotFound, "Operation not found", nil)
		return
	}
	c.JSON(http.StatusOK, snapshot)
}

func respondWithError(c *gin.Context, code int, message string, err error) {
	logger.Error(message,
		zap.Error(err),
		zap.String("path", c.Request.URL.Path),
		zap.String("method", c.Request.Method))
	c.JSON(code, gin.H{"error": message})
}
