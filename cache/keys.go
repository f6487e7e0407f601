package cache

import (
	"fmt"
	"time"
)

// TTLs. Progress data changes as users work through content, so it expires
// quickly; course structure only changes on authoring.
const (
	DynamicTTL = 5 * time.Minute
	StaticTTL  = time.Hour
)

// BulkProgressKey caches a user's progress across all their courses.
func BulkProgressKey(userID uint) string {
	return fmt.Sprintf("bulk_progress_%d", userID)
}

// UserProgressKey caches a user's progress within a single course.
func UserProgressKey(userID, courseID uint) string {
	return fmt.Sprintf("user_progress_%d_%d", userID, courseID)
}

// CourseSequenceKey caches the unified content sequence of a course.
func CourseSequenceKey(courseID uint) string {
	return fmt.Sprintf("course_sequence_%d", courseID)
}

// InvalidateUserProgress drops every progress entry for the user. Call this
// before acknowledging any completion change, so no reader can observe the
// stale entries afterwards.
func InvalidateUserProgress(userID, courseID uint) {
	Default.Delete(BulkProgressKey(userID), UserProgressKey(userID, courseID))
}

// InvalidateCourseSequence drops the cached sequence after authoring changes.
func InvalidateCourseSequence(courseID uint) {
	Default.Delete(CourseSequenceKey(courseID))
}
