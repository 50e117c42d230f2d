package model

// swagger:model Enrollment
type Enrollment struct {
	BaseModel
	UserID   uint `gorm:"index:idx_enrollment_user_course,unique;not null" json:"userId"`
	CourseID uint `gorm:"index:idx_enrollment_user_course,unique;not null" json:"courseId"`

	User   *User   `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Course *Course `gorm:"foreignKey:CourseID" json:"course,omitempty"`
}

func (Enrollment) TableName() string {
	return "enrollments"
}

// CourseProgress is computed on demand from completed quiz assignments, it is
// never persisted.
type CourseProgress struct {
	CourseID           uint   `json:"courseId"`
	CourseTitle        string `json:"courseTitle,omitempty"`
	TotalLessons       int    `json:"totalLessons"`
	CompletedLessons   int    `json:"completedLessons"`
	ProgressPercentage int    `json:"progressPercentage"`
}

type StudentProgressSummary struct {
	Success               bool             `json:"success"`
	Courses               []CourseProgress `json:"courses"`
	TotalEnrolledCourses  int              `json:"totalEnrolledCourses"`
	AverageProgress       int              `json:"averageProgress"`
	TotalLessons          int              `json:"totalLessons"`
	TotalCompletedLessons int              `json:"totalCompletedLessons"`
}
