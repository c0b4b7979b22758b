package enrollment

import (
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/openlearn/courseware-server/pkg/types"
)

// ErrEnrollmentNotFound is returned when no enrollment exists for the pair.
var ErrEnrollmentNotFound = errors.New("enrollment not found")

// Enrollment is the (user, course) relation carrying the enrollment mode.
// This service only reads enrollments; they are written by the commerce side.
type Enrollment struct {
	types.BaseModel

	UserID    uuid.UUID            `gorm:"type:uuid;not null;column:user_id;uniqueIndex:idx_enrollment_user_course,priority:1" json:"userId"`
	CourseKey string               `gorm:"type:varchar(255);not null;column:course_key;uniqueIndex:idx_enrollment_user_course,priority:2" json:"courseKey"`
	Mode      types.EnrollmentMode `gorm:"type:varchar(20);not null;default:'audit'" json:"mode"`
	Active    bool                 `gorm:"type:boolean;not null;default:true;column:is_active" json:"isActive"`
}

// TableName overrides the default table name.
func (Enrollment) TableName() string { return "enrollments" }

// Get retrieves the enrollment for a (user, course) pair.
func Get(db *gorm.DB, userID uuid.UUID, courseKey string) (Enrollment, error) {
	var enr Enrollment
	err := db.First(&enr, "user_id = ? AND course_key = ?", userID, courseKey).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return enr, ErrEnrollmentNotFound
		}
		return enr, err
	}
	return enr, nil
}
