package model

// swagger:model Lesson
type Lesson struct {
	BaseModel
	ModuleID    uint   `gorm:"index;not null" json:"moduleId"`
	Title       string `gorm:"size:255;not null" json:"title"`
	Description string `gorm:"type:text" json:"description"`
	Order       int    `gorm:"default:0" json:"order"`
	VideoID     *uint  `gorm:"index" json:"videoId,omitempty"`

	Video *Video `gorm:"foreignKey:VideoID" json:"video,omitempty"`
	Quiz  *Quiz  `gorm:"foreignKey:LessonID" json:"quiz,omitempty"`
}

func (Lesson) TableName() string {
	return "lessons"
}

// Video is a record of a file hosted on the remote video CDN.
// swagger:model Video
type Video struct {
	BaseModel
	CDNVideoID string  `gorm:"size:64;uniqueIndex;not null" json:"cdnVideoId"`
	Title      string  `gorm:"size:255;not null" json:"title"`
	FileName   string  `gorm:"size:255" json:"fileName"`
	FileSize   int64   `json:"fileSize"`
	Duration   float64 `gorm:"default:0" json:"duration"` // seconds
	Width      int     `gorm:"default:0" json:"width"`
	Height     int     `gorm:"default:0" json:"height"`
	Thumbnail  string  `gorm:"size:512" json:"thumbnail"`
	PlaybackURL string `gorm:"size:512" json:"playbackUrl"`
	UploadedBy uint    `gorm:"index" json:"uploadedBy"`
}

func (Video) TableName() string {
	return "videos"
}
