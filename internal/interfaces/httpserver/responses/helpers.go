package responses

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/pixelforge-ai/generation-api/internal/domain/chain"
	"github.com/pixelforge-ai/generation-api/internal/infrastructure/logger"
	"github.com/pixelforge-ai/generation-api/internal/utils/platformerrors"
)

// HandleError writes an error response for a failure bubbling out of the
// domain layer, mapping platform error types to HTTP status codes.
func HandleError(c *gin.Context, err error) {
	log := logger.GetLogger().With().Str("path", c.Request.URL.Path).Logger()
	platformerrors.WriteError(c, err, log)
}

// HandleNewError creates and writes a typed error response. Use it for
// route-level failures like validation and missing resources.
func HandleNewError(c *gin.Context, errorType platformerrors.ErrorType, message string) {
	status := platformerrors.ErrorTypeToHTTPStatus(errorType)
	c.JSON(status, platformerrors.HTTPErrorResponse{
		Error: &platformerrors.HTTPErrorDetail{
			Message: message,
			Type:    platformerrors.ErrorTypeToString(errorType),
		},
	})
}

// StatusForResult maps a chain result to the response status. The result
// body is served either way; the status lets dashboard clients branch
// without parsing it.
func StatusForResult(res *chain.Result) int {
	switch {
	case res == nil:
		return http.StatusInternalServerError
	case res.Success:
		return http.StatusOK
	case res.FailureReason == chain.FailureNoCandidates:
		return http.StatusServiceUnavailable
	case res.FailureReason == chain.FailureDeadline:
		return http.StatusGatewayTimeout
	case res.FailureReason == chain.FailureInternal:
		return http.StatusInternalServerError
	default:
		return http.StatusBadGateway
	}
}
