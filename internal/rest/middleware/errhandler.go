package middleware

import (
	"encoding/json"
	"net/http"
	"strings"

	ierr "github.com/RiveraMg/MiaBot/internal/errors"
	"github.com/cockroachdb/errors"
	sentrygin "github.com/getsentry/sentry-go/gin"
	"github.com/gin-gonic/gin"
)

// ErrorHandler middleware handles error responses
func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 || c.Writer.Written() {
			return
		}

		err := c.Errors.Last().Err
		status := ierr.HTTPStatusFromErr(err)

		if status >= http.StatusInternalServerError {
			if hub := sentrygin.GetHubFromContext(c); hub != nil {
				hub.CaptureException(err)
			}
		}

		c.JSON(status, NewErrorResponse(err))
	}
}

// NewErrorResponse builds the envelope for err. The taxonomy code is always present in details.
func NewErrorResponse(err error) ierr.ErrorResponse {
	details := getSafeDetails(err)
	details["code"] = ierr.Code(err)

	return ierr.ErrorResponse{
		Success: false,
		Error: ierr.ErrorDetail{
			Display: getDisplayMessage(err),
			Details: details,
		},
	}
}

// abortWithError renders err with an explicit status, for failures raised before any handler runs
func abortWithError(c *gin.Context, status int, err error) {
	c.AbortWithStatusJSON(status, NewErrorResponse(err))
}

func getDisplayMessage(err error) string {
	if hints := errors.GetAllHints(err); len(hints) > 0 {
		// GetAllHints is post-order traversal
		for _, hint := range hints {
			if hint = strings.TrimSpace(hint); hint != "" {
				return hint
			}
		}
	}

	return "An unexpected error occurred"
}

func getSafeDetails(err error) map[string]any {
	details := make(map[string]any)

	allSafeDetails := errors.GetAllSafeDetails(err)
	for _, sdp := range allSafeDetails {
		if len(sdp.SafeDetails) == 0 {
			continue
		}

		for _, payload := range sdp.SafeDetails {
			if len(payload) > 9 && strings.HasPrefix(payload, "__json__:") {
				var jsonDetails map[string]any
				if err := json.Unmarshal([]byte(payload[9:]), &jsonDetails); err == nil {
					for k, v := range jsonDetails {
						details[k] = v
					}
				}
			}
		}
	}

	return details
}
