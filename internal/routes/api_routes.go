package routes

import (
	"github.com/gin-gonic/gin"

	"github.com/KirillBodin/backend-VideoSDK/internal/handlers"
	"github.com/KirillBodin/backend-VideoSDK/internal/middleware"
	"github.com/KirillBodin/backend-VideoSDK/models"
)

// RegisterAPIRoutes mounts the whole API under /api. The meeting surface is
// public: the lobby page has no session until the access check passes.
func RegisterAPIRoutes(r *gin.Engine) {
	api := r.Group("/api")
	{
		// --- AUTH ---
		api.POST("/register", handlers.RegisterHandler)
		api.POST("/auth/login", middleware.LoginRateLimiter(), handlers.LoginHandler)
		api.GET("/google/url", handlers.GetGoogleAuthURLHandler)
		api.GET("/google/callback", handlers.GoogleCallbackHandler)
		api.GET("/verify-session", handlers.VerifySessionHandler)
		api.GET("/logout", handlers.LogoutHandler)

		// --- MEETINGS (public) ---
		api.POST("/savemeeting/new", handlers.SaveMeetingHandler)
		api.GET("/savemeeting/by-meetingid/:meetingId", handlers.GetMeetingByMeetingIDHandler)
		api.GET("/getmeeting/by-classname/:className", handlers.GetMeetingByClassNameHandler)
		api.GET("/meet/:meetingId/:teacherName/:className", handlers.GetMeetingByPathHandler)
		api.POST("/meet/reset", handlers.ResetMeetingHandler)
		api.POST("/users/by-email", handlers.GetUserRoleByEmailHandler)
		api.POST("/student/check-access", handlers.CheckStudentAccessHandler)
		api.POST("/get-token", handlers.GetVideoTokenHandler)

		// --- SUPERADMIN ---
		superAdmin := api.Group("/super-admin",
			middleware.AuthMiddleware(), middleware.RequireRoles(models.RoleSuperadmin))
		{
			superAdmin.GET("/admins", handlers.ListAdminsHandler)
			superAdmin.POST("/admins", handlers.CreateAdminHandler)
			superAdmin.GET("/admins/:id", handlers.GetAdminDetailsHandler)
			superAdmin.PUT("/admins/:id", handlers.UpdateAdminHandler)
			superAdmin.DELETE("/admins/:id", handlers.DeleteAdminHandler)

			superAdmin.GET("/teachers", handlers.ListTeachersHandler)
			superAdmin.POST("/teachers", handlers.CreateTeacherHandler)
			superAdmin.GET("/teachers/:teacherId", handlers.GetTeacherDetailsHandler)
			superAdmin.PUT("/teachers/:teacherId", handlers.UpdateTeacherHandler)
			superAdmin.DELETE("/teachers/:teacherId", handlers.DeleteTeacherHandler)

			superAdmin.GET("/classes", handlers.ListClassesHandler)
			superAdmin.POST("/classes", handlers.CreateClassHandler)
			superAdmin.GET("/classes/:lessonId", handlers.GetClassDetailsHandler)
			superAdmin.PUT("/classes/:lessonId", handlers.UpdateClassHandler)
			superAdmin.DELETE("/classes/:lessonId", handlers.DeleteClassHandler)

			superAdmin.GET("/students", handlers.ListStudentsHandler)
			superAdmin.POST("/students", handlers.CreateStudentHandler)
			superAdmin.GET("/students/:studentId", handlers.GetStudentDetailsHandler)
			superAdmin.PUT("/students/:studentId", handlers.UpdateStudentHandler)
			superAdmin.DELETE("/students/:studentId", handlers.DeleteStudentHandler)
		}

		// --- ADMIN (school-scoped; superadmins pass too) ---
		admin := api.Group("/admin/:adminId",
			middleware.AuthMiddleware(), middleware.RequireRoles(models.RoleAdmin, models.RoleSuperadmin))
		{
			admin.GET("/teachers", handlers.ListTeachersHandler)
			admin.POST("/teachers", handlers.CreateTeacherHandler)
			admin.DELETE("/teachers/:teacherId", handlers.DeleteTeacherHandler)

			admin.GET("/classes", handlers.ListClassesHandler)
			admin.POST("/classes", handlers.CreateClassHandler)
			admin.DELETE("/classes/:lessonId", handlers.DeleteClassHandler)

			admin.GET("/students", handlers.ListStudentsHandler)
			admin.POST("/students", handlers.CreateStudentHandler)
			admin.DELETE("/students/:studentId", handlers.DeleteStudentHandler)
		}

		// --- TEACHERS AND LESSONS (any authenticated role; the ownership
		// predicate inside each handler scopes what is visible) ---
		authed := api.Group("", middleware.AuthMiddleware())
		{
			authed.GET("/teachers", handlers.ListTeachersHandler)
			authed.POST("/teachers", handlers.CreateTeacherHandler)
			authed.GET("/teachers/:teacherId", handlers.GetTeacherHandler)
			authed.GET("/teachers/:teacherId/details", handlers.GetTeacherDetailsHandler)
			authed.PUT("/teachers/:teacherId", handlers.UpdateTeacherHandler)
			authed.DELETE("/teachers/:teacherId", handlers.DeleteTeacherHandler)

			authed.GET("/teacher/:teacherId/lessons", handlers.GetTeacherLessonsHandler)
			authed.GET("/teacher/:teacherId/admin", handlers.GetTeacherAdminHandler)
			authed.GET("/teacher/:teacherId/students", handlers.GetStudentsByTeacherHandler)
			authed.POST("/teacher/:teacherId/students", handlers.CreateStudentForTeacherHandler)
			authed.GET("/teacher/:teacherId/students/:studentId", handlers.GetStudentDetailsHandler)
			authed.PUT("/teacher/:teacherId/students/:studentId", handlers.UpdateStudentHandler)
			authed.DELETE("/teacher/:teacherId/students/:studentId", handlers.DeleteStudentHandler)

			authed.GET("/lessons", handlers.ListClassesHandler)
			authed.POST("/lessons", handlers.CreateClassHandler)
			authed.GET("/lessons/:lessonId", handlers.GetClassDetailsHandler)
			authed.PUT("/lessons/:lessonId", handlers.UpdateClassHandler)
			authed.DELETE("/lessons/:lessonId", handlers.DeleteClassHandler)
			authed.GET("/lessons/:lessonId/students", handlers.GetStudentsByLessonHandler)
			authed.GET("/lessons/:lessonId/teacher", handlers.GetTeacherByLessonHandler)
		}
	}
}
