package v1

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/pixelforge-ai/generation-api/internal/interfaces/httpserver/handlers"
	"github.com/pixelforge-ai/generation-api/internal/interfaces/httpserver/requests"
	"github.com/pixelforge-ai/generation-api/internal/interfaces/httpserver/responses"
	"github.com/pixelforge-ai/generation-api/internal/utils/platformerrors"
)

// RegisterGenerationRoutes registers the generation routes.
func RegisterGenerationRoutes(router gin.IRoutes, handler *handlers.GenerationHandler) {
	router.POST("/generations", createGeneration(handler))
	router.GET("/generations/:id", getGeneration(handler))
}

// createGeneration runs the fallback chain synchronously and returns the
// full record. Chain failures are served in the body with a status
// matching the failure reason, not as error envelopes: the attempt trail
// is the product the dashboard renders.
func createGeneration(handler *handlers.GenerationHandler) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req requests.GenerateRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			responses.HandleNewError(c, platformerrors.ErrorTypeValidation, err.Error())
			return
		}

		rec, err := handler.Generate(c.Request.Context(), req.ToDomain())
		if err != nil {
			responses.HandleError(c, err)
			return
		}

		c.JSON(responses.StatusForResult(rec.Result), responses.NewGenerationResponse(rec))
	}
}

func getGeneration(handler *handlers.GenerationHandler) gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.Param("id")

		rec, ok := handler.Recent(id)
		if !ok {
			responses.HandleNewError(c, platformerrors.ErrorTypeNotFound, "no recent generation with id "+id)
			return
		}

		c.JSON(http.StatusOK, responses.NewGenerationResponse(rec))
	}
}
