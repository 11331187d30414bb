package handlers

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"

	"github.com/KirillBodin/backend-VideoSDK/config"
	"github.com/KirillBodin/backend-VideoSDK/internal/apperr"
	"github.com/KirillBodin/backend-VideoSDK/internal/middleware"
	"github.com/KirillBodin/backend-VideoSDK/models"
)

// Admin rows are managed by superadmins only (routes gate on the role); the
// handlers still run the ownership predicate so the policy lives in one
// place.

type CreateAdminInput struct {
	Name       string `json:"name" binding:"required"`
	Email      string `json:"email" binding:"required,email"`
	Password   string `json:"password" binding:"required"`
	SchoolName string `json:"schoolName" binding:"required"`
}

type UpdateAdminInput struct {
	Name       *string `json:"name"`
	Email      *string `json:"email"`
	Password   *string `json:"password"`
	SchoolName *string `json:"schoolName"`
}

// ListAdminsHandler returns all admins, paginated.
func ListAdminsHandler(c *gin.Context) {
	var admins []models.User
	query := config.DB.Where("role = ?", models.RoleAdmin).Order("id asc")

	if c.Query("all") == "true" {
		if err := query.Find(&admins).Error; err != nil {
			respondError(c, apperr.Internal("failed to list admins", err))
			return
		}
		c.JSON(http.StatusOK, gin.H{"data": admins})
		return
	}

	var totalRows int64
	config.DB.Model(&models.User{}).Where("role = ?", models.RoleAdmin).Count(&totalRows)
	if err := query.Scopes(Paginate(c)).Find(&admins).Error; err != nil {
		respondError(c, apperr.Internal("failed to list admins", err))
		return
	}
	c.JSON(http.StatusOK, CreatePaginatedResponse(c, admins, totalRows))
}

// CreateAdminHandler creates a school admin.
func CreateAdminHandler(c *gin.Context) {
	actor := middleware.Actor(c)
	if !models.IsAuthorized(actor, models.AdminOwnership(nil)) {
		respondError(c, apperr.Forbidden("Only superadmin can create admins"))
		return
	}

	var input CreateAdminInput
	if err := c.ShouldBindJSON(&input); err != nil {
		respondError(c, apperr.Validation("Missing required fields: name, email, password, schoolName"))
		return
	}

	taken, err := models.UserEmailTaken(config.DB, input.Email, 0)
	if err != nil {
		respondError(c, err)
		return
	}
	if taken {
		respondError(c, apperr.Conflict(fmt.Sprintf("School admin with email %q already exists", input.Email)))
		return
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		respondError(c, apperr.Internal("failed to hash password", err))
		return
	}

	admin := models.NewAdmin(input.Name, input.Email, string(hashed), input.SchoolName)
	if err := admin.Validate(); err != nil {
		respondError(c, err)
		return
	}
	if err := config.DB.Create(&admin).Error; err != nil {
		respondError(c, apperr.Internal("failed to create admin", err))
		return
	}

	c.JSON(http.StatusCreated, gin.H{"message": "School admin created successfully", "admin": admin})
}

// GetAdminDetailsHandler returns the admin plus the ids of its teachers.
func GetAdminDetailsHandler(c *gin.Context) {
	id, err := paramID(c, "id")
	if err != nil {
		respondError(c, err)
		return
	}

	var admin models.User
	if err := config.DB.Where("id = ? AND role = ?", id, models.RoleAdmin).First(&admin).Error; err != nil {
		respondError(c, apperr.NotFound("Admin not found"))
		return
	}

	var teacherIDs []uint
	if err := config.DB.Model(&models.User{}).
		Where("admin_id = ? AND role = ?", id, models.RoleTeacher).
		Pluck("id", &teacherIDs).Error; err != nil {
		respondError(c, apperr.Internal("failed to list teachers", err))
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"id":         admin.ID,
		"name":       admin.Name,
		"email":      admin.Email,
		"schoolName": admin.SchoolName,
		"teacherIds": teacherIDs,
	})
}

// UpdateAdminHandler partially updates an admin; absent fields are preserved.
func UpdateAdminHandler(c *gin.Context) {
	actor := middleware.Actor(c)
	if !models.IsAuthorized(actor, models.AdminOwnership(nil)) {
		respondError(c, apperr.Forbidden("Only superadmin can update admins"))
		return
	}

	id, err := paramID(c, "id")
	if err != nil {
		respondError(c, err)
		return
	}

	var input UpdateAdminInput
	if err := c.ShouldBindJSON(&input); err != nil {
		respondError(c, apperr.Validation("invalid request body"))
		return
	}

	var admin models.User
	if err := config.DB.Where("id = ? AND role = ?", id, models.RoleAdmin).First(&admin).Error; err != nil {
		respondError(c, apperr.NotFound(fmt.Sprintf("Admin with id=%d not found", id)))
		return
	}

	if input.Email != nil {
		taken, err := models.UserEmailTaken(config.DB, *input.Email, admin.ID)
		if err != nil {
			respondError(c, err)
			return
		}
		if taken {
			respondError(c, apperr.Conflict(fmt.Sprintf("School admin with email %q already exists", *input.Email)))
			return
		}
		admin.Email = *input.Email
	}
	if input.Name != nil {
		admin.Name = *input.Name
	}
	if input.SchoolName != nil {
		admin.SchoolName = input.SchoolName
	}
	if input.Password != nil && *input.Password != "" {
		hashed, err := bcrypt.GenerateFromPassword([]byte(*input.Password), bcrypt.DefaultCost)
		if err != nil {
			respondError(c, apperr.Internal("failed to hash password", err))
			return
		}
		admin.Password = string(hashed)
	}

	if err := config.DB.Save(&admin).Error; err != nil {
		respondError(c, apperr.Internal("failed to update admin", err))
		return
	}
	middleware.InvalidateActorCache(admin.ID)

	c.JSON(http.StatusOK, gin.H{"message": "School admin updated", "admin": admin})
}

// DeleteAdminHandler removes an admin and cascades to its teachers.
func DeleteAdminHandler(c *gin.Context) {
	actor := middleware.Actor(c)
	if !models.IsAuthorized(actor, models.AdminOwnership(nil)) {
		respondError(c, apperr.Forbidden("Access denied"))
		return
	}

	id, err := paramID(c, "id")
	if err != nil {
		respondError(c, err)
		return
	}

	if err := models.DeleteAdminCascade(config.DB, id); err != nil {
		respondError(c, err)
		return
	}
	middleware.InvalidateActorCache(id)

	c.JSON(http.StatusOK, gin.H{"message": "School admin deleted"})
}
