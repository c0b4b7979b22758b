package course

import (
	"errors"

	"gorm.io/gorm"

	"github.com/openlearn/courseware-server/pkg/types"
	"github.com/openlearn/courseware-server/pkg/validation"
)

// Course represents a course run (or content library) in the catalog.
// Courses are keyed by their external course key rather than a surrogate id
// because every inbound request addresses them that way.
type Course struct {
	types.BaseModel

	CourseKey       string `gorm:"type:varchar(255);not null;uniqueIndex;column:course_key" json:"courseKey"`
	Name            string `gorm:"type:varchar(255);not null" json:"name"`
	DefaultLanguage string `gorm:"type:varchar(10);not null;default:'en';column:default_language" json:"defaultLanguage"`
	StaticAssetPath string `gorm:"type:varchar(255);column:static_asset_path" json:"staticAssetPath,omitempty"`
	Library         bool   `gorm:"type:boolean;not null;default:false;column:is_library" json:"isLibrary"`
}

// TableName overrides the default table name.
func (Course) TableName() string { return "courses" }

// GetByKey retrieves a course by its validated course key.
func GetByKey(db *gorm.DB, courseKey string) (Course, error) {
	key, err := validation.NormalizeCourseKey(courseKey)
	if err != nil {
		return Course{}, ErrInvalidCourseKey
	}

	var crs Course
	if err := db.First(&crs, "course_key = ?", key).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return crs, ErrCourseNotFound
		}
		return crs, err
	}
	return crs, nil
}
