package v1

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/pixelforge-ai/generation-api/internal/domain/task"
	"github.com/pixelforge-ai/generation-api/internal/interfaces/httpserver/handlers"
	"github.com/pixelforge-ai/generation-api/internal/interfaces/httpserver/responses"
	"github.com/pixelforge-ai/generation-api/internal/utils/platformerrors"
)

// RegisterModelRoutes registers the model catalog and backend status routes.
func RegisterModelRoutes(router gin.IRoutes, models *handlers.ModelHandler, backends *handlers.BackendHandler) {
	router.GET("/models", listModels(models))
	router.GET("/models/:id", getModel(models))
	router.POST("/models/refresh", refreshModels(models))
	router.POST("/models/invalidate", invalidateModels(models))
	router.GET("/backends", backendStatus(backends))
}

// listModels serves the ranked model list. ?task= narrows it to the
// available models for one task kind; without it every configured model
// is listed, unavailable ones included.
func listModels(handler *handlers.ModelHandler) gin.HandlerFunc {
	return func(c *gin.Context) {
		snap, err := handler.Snapshot(c.Request.Context())
		if err != nil {
			responses.HandleError(c, err)
			return
		}

		if taskParam := c.Query("task"); taskParam != "" {
			kind, err := task.Parse(taskParam)
			if err != nil {
				responses.HandleNewError(c, platformerrors.ErrorTypeValidation, err.Error())
				return
			}
			c.JSON(http.StatusOK, responses.NewListModelsResponse(snap.ModelsForTask(kind), snap.LastRefresh()))
			return
		}

		c.JSON(http.StatusOK, responses.NewListModelsResponse(snap.Models(), snap.LastRefresh()))
	}
}

func getModel(handler *handlers.ModelHandler) gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.Param("id")

		snap, err := handler.Snapshot(c.Request.Context())
		if err != nil {
			responses.HandleError(c, err)
			return
		}

		model, ok := snap.Model(id)
		if !ok {
			responses.HandleNewError(c, platformerrors.ErrorTypeNotFound, "no model with id "+id)
			return
		}

		c.JSON(http.StatusOK, responses.NewModelResponse(model))
	}
}

func refreshModels(handler *handlers.ModelHandler) gin.HandlerFunc {
	return func(c *gin.Context) {
		snap, err := handler.Refresh(c.Request.Context())
		if err != nil {
			responses.HandleError(c, err)
			return
		}

		c.JSON(http.StatusOK, responses.NewRegistryStatusResponse(snap))
	}
}

func invalidateModels(handler *handlers.ModelHandler) gin.HandlerFunc {
	return func(c *gin.Context) {
		handler.Invalidate()
		c.JSON(http.StatusAccepted, responses.NewInvalidateResponse())
	}
}

func backendStatus(handler *handlers.BackendHandler) gin.HandlerFunc {
	return func(c *gin.Context) {
		snap, err := handler.Status(c.Request.Context())
		if err != nil {
			responses.HandleError(c, err)
			return
		}

		c.JSON(http.StatusOK, responses.NewRegistryStatusResponse(snap))
	}
}
