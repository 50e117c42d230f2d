package model

// Certificate is issued once an agent completes every lesson of a course.
// swagger:model Certificate
type Certificate struct {
	BaseModel
	PublicID string `gorm:"size:36;uniqueIndex;not null" json:"publicId"`
	UserID   uint   `gorm:"index:idx_certificate_user_course,unique;not null" json:"userId"`
	CourseID uint   `gorm:"index:idx_certificate_user_course,unique;not null" json:"courseId"`
	ImageURL string `gorm:"size:512" json:"imageUrl"`

	User   *User   `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Course *Course `gorm:"foreignKey:CourseID" json:"course,omitempty"`
}

func (Certificate) TableName() string {
	return "certificates"
}
