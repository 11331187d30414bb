package middleware

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/redis/go-redis/v9"

	"github.com/KirillBodin/backend-VideoSDK/config"
	"github.com/KirillBodin/backend-VideoSDK/models"
)

const actorCacheTTL = 10 * time.Minute

// SessionClaims is the payload of a session token.
type SessionClaims struct {
	UserID    uint        `json:"id"`
	Role      models.Role `json:"role"`
	TeacherID *uint       `json:"teacherId,omitempty"`
	AdminID   *uint       `json:"adminId,omitempty"`
	jwt.RegisteredClaims
}

// cachedActor is what gets stored in Redis between requests.
type cachedActor struct {
	UserID  uint        `json:"user_id"`
	Role    models.Role `json:"role"`
	AdminID *uint       `json:"admin_id,omitempty"`
	Name    string      `json:"name"`
}

// AuthMiddleware authenticates a request from the auth_token cookie or the
// Authorization header, confirms the user still exists (Redis-cached), and
// puts a models.Actor into the context.
func AuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenStr, err := c.Cookie("auth_token")
		if err != nil || tokenStr == "" {
			authHeader := c.GetHeader("Authorization")
			if authHeader == "" {
				handleAuthError(c, "Authorization token not provided")
				return
			}
			parts := strings.Split(authHeader, " ")
			if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
				handleAuthError(c, "Invalid Authorization header format")
				return
			}
			tokenStr = parts[1]
		}

		claims := &SessionClaims{}
		token, err := jwt.ParseWithClaims(tokenStr, claims, func(token *jwt.Token) (interface{}, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
			}
			return config.JwtKey, nil
		})
		if err != nil || !token.Valid {
			c.SetCookie("auth_token", "", -1, "/", "", false, true)
			handleAuthError(c, "Invalid or expired token")
			return
		}

		cacheKey := fmt.Sprintf("actor:%d", claims.UserID)
		if config.RDB != nil {
			cached, err := config.RDB.Get(config.Ctx, cacheKey).Result()
			if err == nil {
				var data cachedActor
				if json.Unmarshal([]byte(cached), &data) == nil {
					setActorAndProceed(c, &data)
					return
				}
				slog.Warn("Failed to unmarshal cached actor", "user_id", claims.UserID)
			} else if err != redis.Nil {
				slog.Error("Redis GET failed", "error", err, "user_id", claims.UserID)
			}
		}

		var dbUser models.User
		if err := config.DB.First(&dbUser, claims.UserID).Error; err != nil {
			c.SetCookie("auth_token", "", -1, "/", "", false, true)
			handleAuthError(c, "User from token not found")
			return
		}

		data := cachedActor{
			UserID:  dbUser.ID,
			Role:    dbUser.Role,
			AdminID: adminIdentity(&dbUser),
			Name:    dbUser.Name,
		}

		if config.RDB != nil {
			if jsonData, err := json.Marshal(data); err == nil {
				if err := config.RDB.Set(config.Ctx, cacheKey, jsonData, actorCacheTTL).Err(); err != nil {
					slog.Error("Failed to cache actor", "error", err, "user_id", dbUser.ID)
				}
			}
		}

		setActorAndProceed(c, &data)
	}
}

// adminIdentity computes the actor's admin identity: admins act as
// themselves, teachers carry their owning admin.
func adminIdentity(u *models.User) *uint {
	if u.Role == models.RoleAdmin {
		id := u.ID
		return &id
	}
	return u.AdminID
}

func setActorAndProceed(c *gin.Context, data *cachedActor) {
	c.Set("actor", models.Actor{ID: data.UserID, Role: data.Role, AdminID: data.AdminID})
	c.Set("userName", data.Name)
	c.Next()
}

// Actor pulls the authenticated actor out of the context. Handlers behind
// AuthMiddleware may call this unconditionally.
func Actor(c *gin.Context) models.Actor {
	v, _ := c.Get("actor")
	actor, _ := v.(models.Actor)
	return actor
}

// RequireRoles rejects requests whose actor has none of the given roles.
// This is only the coarse gate; handlers still run the ownership check.
func RequireRoles(roles ...models.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor := Actor(c)
		for _, role := range roles {
			if actor.Role == role {
				c.Next()
				return
			}
		}
		c.JSON(http.StatusForbidden, gin.H{"error": "Access denied"})
		c.Abort()
	}
}

// InvalidateActorCache drops the cached actor after a user mutation so stale
// roles do not outlive an update or delete.
func InvalidateActorCache(userID uint) {
	if config.RDB == nil {
		return
	}
	if err := config.RDB.Del(config.Ctx, fmt.Sprintf("actor:%d", userID)).Err(); err != nil {
		slog.Error("Failed to invalidate actor cache", "error", err, "user_id", userID)
	}
}

func handleAuthError(c *gin.Context, message string) {
	c.JSON(http.StatusUnauthorized, gin.H{"error": message})
	c.Abort()
}
