package handlers

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/KirillBodin/backend-VideoSDK/internal/apperr"
	"github.com/KirillBodin/backend-VideoSDK/models"
)

// respondError is the single translation point from the error taxonomy to
// HTTP. Internal causes are logged, never returned to the client.
func respondError(c *gin.Context, err error) {
	switch apperr.KindOf(err) {
	case apperr.KindValidation:
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case apperr.KindNotFound:
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case apperr.KindConflict:
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case apperr.KindForbidden:
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
	case apperr.KindUnauthenticated:
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
	default:
		slog.Error("Internal error", "error", err, "path", c.FullPath())
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
	}
}

// paramID parses a numeric path parameter.
func paramID(c *gin.Context, name string) (uint, error) {
	id, err := strconv.ParseUint(c.Param(name), 10, 32)
	if err != nil {
		return 0, apperr.Validation("invalid " + name)
	}
	return uint(id), nil
}

// scopedAdminID resolves the admin scope of a request. A path adminId wins:
// admins may only name their own identity, superadmins may name any admin.
// Without the param, admins fall back to their own identity and superadmins
// are unscoped (nil).
func scopedAdminID(c *gin.Context, actor models.Actor) (*uint, error) {
	if c.Param("adminId") != "" {
		id, err := paramID(c, "adminId")
		if err != nil {
			return nil, err
		}
		if actor.Role == models.RoleAdmin && (actor.AdminID == nil || *actor.AdminID != id) {
			return nil, apperr.Forbidden("Access denied")
		}
		return &id, nil
	}
	if actor.Role == models.RoleAdmin {
		return actor.AdminID, nil
	}
	return nil, nil
}
