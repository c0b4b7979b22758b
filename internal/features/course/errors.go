package course

import "errors"

var (
	ErrCourseNotFound   = errors.New("course not found")
	ErrInvalidCourseKey = errors.New("invalid course key")
)
