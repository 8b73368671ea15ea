package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// EditSessionHeader carries the edit session on draft-mutating requests.
const EditSessionHeader = "X-Edit-Session-Id"

// ParseUUIDParam reads a uuid path parameter or writes 400.
func ParseUUIDParam(c *gin.Context, param string) (uuid.UUID, bool) {
	raw := strings.TrimSpace(c.Param(param))
	id, err := uuid.Parse(raw)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid " + param,
			Details: "must be a UUID",
		})
		return uuid.Nil, false
	}
	return id, true
}

// ParseUUIDQuery reads repeated uuid query values (?id=a&id=b or ?id=a,b).
func ParseUUIDQuery(c *gin.Context, key string) ([]uuid.UUID, bool) {
	var ids []uuid.UUID
	for _, raw := range c.QueryArray(key) {
		for _, part := range strings.Split(raw, ",") {
			if part = strings.TrimSpace(part); part == "" {
				continue
			}
			id, err := uuid.Parse(part)
			if err != nil {
				c.JSON(http.StatusBadRequest, ErrorResponse{
					Message: "Invalid " + key,
					Details: part + " is not a UUID",
				})
				return nil, false
			}
			ids = append(ids, id)
		}
	}
	return ids, true
}

// ParseEditSessionHeader returns nil when the header is absent; the service
// decides whether a session is required.
func ParseEditSessionHeader(c *gin.Context) (*uuid.UUID, bool) {
	raw := strings.TrimSpace(c.GetHeader(EditSessionHeader))
	if raw == "" {
		return nil, true
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid " + EditSessionHeader + " header",
			Details: "must be a UUID",
		})
		return nil, false
	}
	return &id, true
}
