package controllers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/bustanapp/bustan/models"
	"github.com/bustanapp/bustan/store"
	"github.com/bustanapp/bustan/utils"
)

// ClassController manages the class → section → student hierarchy. Deletes
// cascade through the hierarchy in one batch so no orphaned profiles or
// completion history survive.
type ClassController struct {
	db       *gorm.DB
	students *store.StudentStore
}

// NewClassController creates a new controller instance.
func NewClassController(db *gorm.DB) *ClassController {
	return &ClassController{db: db, students: store.NewStudentStore(db)}
}

// ListClasses returns all classes with nested sections and students.
func (c *ClassController) ListClasses(ctx *gin.Context) {
	var classes []models.ClassRoom
	err := c.db.Preload("Sections.Students").Order("created_at ASC").Find(&classes).Error
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50050, "failed to list classes")
		return
	}
	utils.Success(ctx, gin.H{"classes": classes})
}

// CreateClass adds a class.
func (c *ClassController) CreateClass(ctx *gin.Context) {
	name, ok := bindName(ctx)
	if !ok {
		return
	}

	class := models.ClassRoom{Name: name}
	if err := c.db.Create(&class).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50051, "failed to create class")
		return
	}
	utils.Success(ctx, gin.H{"class": class})
}

// UpdateClass renames a class.
func (c *ClassController) UpdateClass(ctx *gin.Context) {
	name, ok := bindName(ctx)
	if !ok {
		return
	}

	res := c.db.Model(&models.ClassRoom{}).Where("id = ?", ctx.Param("id")).Update("name", name)
	if res.Error != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50052, "failed to update class")
		return
	}
	if res.RowsAffected == 0 {
		utils.Error(ctx, http.StatusNotFound, 40450, "class not found")
		return
	}
	utils.Success(ctx, gin.H{"message": "class updated"})
}

// DeleteClass removes a class with all of its sections, students and their
// completion history as one atomic batch.
func (c *ClassController) DeleteClass(ctx *gin.Context) {
	if err := c.students.DeleteClass(ctx.Request.Context(), ctx.Param("id")); err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50053, "failed to delete class")
		return
	}
	utils.Success(ctx, gin.H{"message": "class deleted"})
}

// CreateSection adds a section to a class.
func (c *ClassController) CreateSection(ctx *gin.Context) {
	name, ok := bindName(ctx)
	if !ok {
		return
	}

	classID := ctx.Param("id")
	var class models.ClassRoom
	if err := c.db.First(&class, "id = ?", classID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.Error(ctx, http.StatusNotFound, 40450, "class not found")
			return
		}
		utils.Error(ctx, http.StatusInternalServerError, 50050, "failed to load class")
		return
	}

	section := models.Section{ClassID: classID, Name: name}
	if err := c.db.Create(&section).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50054, "failed to create section")
		return
	}
	utils.Success(ctx, gin.H{"section": section})
}

// UpdateSection renames a section.
func (c *ClassController) UpdateSection(ctx *gin.Context) {
	name, ok := bindName(ctx)
	if !ok {
		return
	}

	res := c.db.Model(&models.Section{}).Where("id = ?", ctx.Param("sectionId")).Update("name", name)
	if res.Error != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50055, "failed to update section")
		return
	}
	if res.RowsAffected == 0 {
		utils.Error(ctx, http.StatusNotFound, 40451, "section not found")
		return
	}
	utils.Success(ctx, gin.H{"message": "section updated"})
}

// DeleteSection removes a section with its students and their history.
func (c *ClassController) DeleteSection(ctx *gin.Context) {
	if err := c.students.DeleteSection(ctx.Request.Context(), ctx.Param("sectionId")); err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50056, "failed to delete section")
		return
	}
	utils.Success(ctx, gin.H{"message": "section deleted"})
}

// CreateStudent provisions a student account plus zero-point profile in a
// section. The generated password is returned once so staff can hand it to
// the student; only the bcrypt hash is stored.
func (c *ClassController) CreateStudent(ctx *gin.Context) {
	var req struct {
		Name string `json:"name" binding:"required,min=1"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40052, "invalid request payload")
		return
	}
	name := utils.SanitizePlain(strings.TrimSpace(req.Name))
	if name == "" {
		utils.Error(ctx, http.StatusBadRequest, 40053, "name cannot be empty")
		return
	}

	sectionID := ctx.Param("sectionId")
	var section models.Section
	if err := c.db.First(&section, "id = ?", sectionID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.Error(ctx, http.StatusNotFound, 40451, "section not found")
			return
		}
		utils.Error(ctx, http.StatusInternalServerError, 50055, "failed to load section")
		return
	}

	password := strings.ReplaceAll(name, " ", "") + "123"
	hash, err := utils.HashPassword(password)
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50057, "failed to hash password")
		return
	}

	student, err := c.students.Provision(ctx.Request.Context(), section.ClassID, sectionID, name, hash)
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50058, "failed to create student")
		return
	}

	utils.Success(ctx, gin.H{"student": student, "initial_password": password})
}

// DeleteStudent removes a student profile, account and history.
func (c *ClassController) DeleteStudent(ctx *gin.Context) {
	if err := c.students.DeleteStudent(ctx.Request.Context(), ctx.Param("studentId")); err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50059, "failed to delete student")
		return
	}
	utils.Success(ctx, gin.H{"message": "student deleted"})
}

func bindName(ctx *gin.Context) (string, bool) {
	var req struct {
		Name string `json:"name" binding:"required,min=1"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40052, "invalid request payload")
		return "", false
	}
	name := utils.SanitizePlain(strings.TrimSpace(req.Name))
	if name == "" {
		utils.Error(ctx, http.StatusBadRequest, 40053, "name cannot be empty")
		return "", false
	}
	return name, true
}
