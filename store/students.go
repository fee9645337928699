package store

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"

	"github.com/bustanapp/bustan/models"
)

// StudentInfo is a student profile resolved together with the names of the
// class and section that own it, located from the student id alone.
type StudentInfo struct {
	models.Student
	ClassName   string `json:"class_name"`
	SectionName string `json:"section_name"`
}

// StudentStore handles student provisioning, lookup and the cascading deletes
// that keep the class/section/student hierarchy consistent.
type StudentStore struct {
	db *gorm.DB
}

// NewStudentStore creates a student store backed by the given database.
func NewStudentStore(db *gorm.DB) *StudentStore {
	return &StudentStore{db: db}
}

// FindInfo locates a student by id regardless of which class or section owns
// it and returns the profile with the owning class/section names attached.
func (s *StudentStore) FindInfo(ctx context.Context, studentID string) (*StudentInfo, error) {
	var info StudentInfo
	err := s.db.WithContext(ctx).Model(&models.Student{}).
		Select("students.*, class_rooms.name AS class_name, sections.name AS section_name").
		Joins("JOIN sections ON sections.id = students.section_id").
		Joins("JOIN class_rooms ON class_rooms.id = students.class_id").
		Where("students.id = ?", studentID).
		Take(&info).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrStudentNotFound
		}
		return nil, err
	}
	return &info, nil
}

// Provision creates the auth account and the zero-point profile for a new
// student in one transaction. The generated username is the lowercased name
// with spaces removed, matching how accounts are announced to the class.
func (s *StudentStore) Provision(ctx context.Context, classID, sectionID, name, passwordHash string) (*models.Student, error) {
	username := strings.ToLower(strings.ReplaceAll(name, " ", ""))

	user := models.User{
		Username:     username,
		Email:        username + "@example.com",
		PasswordHash: passwordHash,
		Role:         models.RoleStudent,
	}
	student := models.Student{
		Name:      name,
		Points:    0,
		ClassID:   classID,
		SectionID: sectionID,
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&user).Error; err != nil {
			return err
		}
		student.ID = user.ID
		return tx.Create(&student).Error
	})
	if err != nil {
		return nil, err
	}
	return &student, nil
}

// DeleteStudent removes a student profile, its auth account and all of its
// completion history in one batch.
func (s *StudentStore) DeleteStudent(ctx context.Context, studentID string) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return deleteStudentsLocked(tx, []string{studentID})
	})
}

// DeleteSection removes a section together with its students and their
// history.
func (s *StudentStore) DeleteSection(ctx context.Context, sectionID string) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		ids, err := studentIDsWhere(tx, "section_id = ?", sectionID)
		if err != nil {
			return err
		}
		if err := deleteStudentsLocked(tx, ids); err != nil {
			return err
		}
		return tx.Delete(&models.Section{}, "id = ?", sectionID).Error
	})
}

// DeleteClass removes a class, all of its sections and students, and their
// history, as a single atomic batch.
func (s *StudentStore) DeleteClass(ctx context.Context, classID string) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		ids, err := studentIDsWhere(tx, "class_id = ?", classID)
		if err != nil {
			return err
		}
		if err := deleteStudentsLocked(tx, ids); err != nil {
			return err
		}
		if err := tx.Delete(&models.Section{}, "class_id = ?", classID).Error; err != nil {
			return err
		}
		return tx.Delete(&models.ClassRoom{}, "id = ?", classID).Error
	})
}

func studentIDsWhere(tx *gorm.DB, cond string, arg interface{}) ([]string, error) {
	ids := []string{}
	err := tx.Model(&models.Student{}).Where(cond, arg).Pluck("id", &ids).Error
	return ids, err
}

func deleteStudentsLocked(tx *gorm.DB, studentIDs []string) error {
	if len(studentIDs) == 0 {
		return nil
	}

	completionIDs := []uint{}
	if err := tx.Model(&models.DailyCompletion{}).
		Where("student_id IN ?", studentIDs).
		Pluck("id", &completionIDs).Error; err != nil {
		return err
	}
	if len(completionIDs) > 0 {
		if err := tx.Delete(&models.CompletionEntry{}, "completion_id IN ?", completionIDs).Error; err != nil {
			return err
		}
	}
	if err := tx.Delete(&models.DailyCompletion{}, "student_id IN ?", studentIDs).Error; err != nil {
		return err
	}
	if err := tx.Delete(&models.ActiveDay{}, "student_id IN ?", studentIDs).Error; err != nil {
		return err
	}
	if err := tx.Delete(&models.Student{}, "id IN ?", studentIDs).Error; err != nil {
		return err
	}
	return tx.Unscoped().Delete(&models.User{}, "id IN ?", studentIDs).Error
}
