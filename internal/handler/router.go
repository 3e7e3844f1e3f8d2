package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/noah-isme/scolendar-api/internal/middleware"
	"github.com/noah-isme/scolendar-api/internal/models"
)

// Handlers bundles the API handlers mounted by Register.
type Handlers struct {
	Occupancies *OccupancyHandler
	Classrooms  *ClassroomHandler
	Classes     *ClassHandler
	Teachers    *TeacherHandler
	Subjects    *SubjectHandler
	Students    *StudentHandler
}

// RouteDeps carries the middleware collaborators of the protected routes.
type RouteDeps struct {
	Auth  middleware.TokenValidator
	Audit middleware.AuditRecorder
}

// Register mounts the calendar API on group behind JWT authentication.
func Register(group *gin.RouterGroup, h Handlers, deps RouteDeps) {
	api := group.Group("")
	api.Use(middleware.JWT(deps.Auth))

	admin := middleware.Administrators()
	staff := middleware.Staff()
	audit := func(action, resource string) gin.HandlerFunc {
		return middleware.Audit(deps.Audit, action, resource)
	}

	occupancies := api.Group("/occupancies")
	occupancies.GET("", admin, h.Occupancies.List)
	occupancies.GET("/export", admin, h.Occupancies.Export)
	occupancies.POST("", staff, audit(models.AuditActionOccupancyCreate, "occupancy"), h.Occupancies.Create)
	occupancies.POST("/check", staff, h.Occupancies.Check)
	occupancies.POST("/check/batch", staff, h.Occupancies.CheckBatch)
	occupancies.PUT("/:id", staff, audit(models.AuditActionOccupancyUpdate, "occupancy"), h.Occupancies.Update)
	occupancies.DELETE("/:id", staff, audit(models.AuditActionOccupancyDelete, "occupancy"), h.Occupancies.Delete)
	occupancies.DELETE("", staff, audit(models.AuditActionOccupancyDelete, "occupancy"), h.Occupancies.DeleteBatch)

	classrooms := api.Group("/classrooms")
	classrooms.GET("", staff, h.Classrooms.List)
	classrooms.POST("", admin, audit(models.AuditActionClassroomCreate, "classroom"), h.Classrooms.Create)
	classrooms.DELETE("", admin, audit(models.AuditActionClassroomDelete, "classroom"), h.Classrooms.Delete)
	classrooms.GET("/:id", admin, h.Classrooms.Get)
	classrooms.PUT("/:id", admin, audit(models.AuditActionClassroomUpdate, "classroom"), h.Classrooms.Update)
	classrooms.GET("/:id/occupancies", admin, h.Occupancies.ListFor(models.OccupancyResourceClassroom))

	classes := api.Group("/classes")
	classes.GET("", admin, h.Classes.List)
	classes.POST("", admin, audit(models.AuditActionClassCreate, "class"), h.Classes.Create)
	classes.GET("/:id", admin, h.Classes.Get)
	classes.GET("/:id/occupancies", admin, h.Occupancies.ListFor(models.OccupancyResourceClass))

	adminOrSelf := middleware.RBAC(string(models.RoleSuperAdmin), string(models.RoleAdmin), middleware.RoleSelf)
	teachers := api.Group("/teachers")
	teachers.GET("", admin, h.Teachers.List)
	teachers.POST("", admin, audit(models.AuditActionTeacherCreate, "teacher"), h.Teachers.Create)
	teachers.GET("/:id", adminOrSelf, h.Teachers.Get)
	teachers.GET("/:id/occupancies", adminOrSelf, h.Occupancies.ListFor(models.OccupancyResourceTeacher))

	subjects := api.Group("/subjects")
	subjects.GET("", admin, h.Subjects.List)
	subjects.POST("", admin, audit(models.AuditActionSubjectCreate, "subject"), h.Subjects.Create)
	subjects.DELETE("", admin, audit(models.AuditActionSubjectDelete, "subject"), h.Subjects.Delete)
	subjects.GET("/:id", admin, h.Subjects.Get)
	subjects.PUT("/:id", admin, audit(models.AuditActionSubjectUpdate, "subject"), h.Subjects.Update)
	subjects.POST("/:id/teachers", admin, audit(models.AuditActionSubjectTeachers, "subject"), h.Subjects.AddTeachers)
	subjects.DELETE("/:id/teachers", admin, audit(models.AuditActionSubjectTeachers, "subject"), h.Subjects.RemoveTeachers)
	// Teachers only pass for subjects they are assigned to; the query service checks.
	subjects.GET("/:id/occupancies", staff, h.Occupancies.ListFor(models.OccupancyResourceSubject))
	subjects.POST("/:id/occupancies", staff, audit(models.AuditActionOccupancyCreate, "occupancy"), h.Occupancies.CreateForSubject)
	subjects.POST("/:id/groups/:group/occupancies", staff, audit(models.AuditActionOccupancyCreate, "occupancy"), h.Occupancies.CreateForGroup)

	students := api.Group("/students")
	students.GET("", admin, h.Students.List)
	students.POST("", admin, audit(models.AuditActionStudentCreate, "student"), h.Students.Create)
	students.DELETE("", admin, audit(models.AuditActionStudentDelete, "student"), h.Students.Delete)
	students.GET("/:id", adminOrSelf, h.Students.Get)
	students.PUT("/:id", admin, audit(models.AuditActionStudentUpdate, "student"), h.Students.Update)
	students.GET("/:id/subjects", adminOrSelf, h.Students.Subjects)
	students.GET("/:id/occupancies", adminOrSelf, h.Occupancies.ListFor(models.OccupancyResourceStudent))
}
