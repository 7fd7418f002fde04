package middleware

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"

	"github.com/gin-gonic/gin"
)

// extractUserID pulls the user identifier an ownership rule points at.
func extractUserID(c *gin.Context, source string, paramName string) string {
	switch source {
	case "path":
		return c.Param(paramName)
	case "query":
		return c.Query(paramName)
	case "header":
		return c.GetHeader(paramName)
	case "body":
		// The body must be restored so the handler can still read it.
		bodyBytes, err := io.ReadAll(c.Request.Body)
		if err != nil {
			return ""
		}
		c.Request.Body = io.NopCloser(bytes.NewBuffer(bodyBytes))

		var payload map[string]interface{}
		if err := json.Unmarshal(bodyBytes, &payload); err != nil {
			return ""
		}
		if value, ok := payload[paramName]; ok {
			switch v := value.(type) {
			case string:
				return v
			case float64:
				return fmt.Sprintf("%.0f", v)
			}
		}
		return ""
	default:
		return ""
	}
}
