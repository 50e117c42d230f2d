package model

// swagger:model Quiz
type Quiz struct {
	BaseModel
	LessonID uint   `gorm:"uniqueIndex;not null" json:"lessonId"`
	Title    string `gorm:"size:255;not null" json:"title"`

	Questions []QuizQuestion `gorm:"foreignKey:QuizID" json:"questions,omitempty"`
}

func (Quiz) TableName() string {
	return "quizzes"
}

// swagger:model QuizQuestion
type QuizQuestion struct {
	BaseModel
	QuizID uint   `gorm:"index;not null" json:"quizId"`
	Title  string `gorm:"size:512;not null" json:"title"`
	// Answers holds between 2 and 6 options, validated on create/edit.
	Answers StringList `gorm:"type:text;not null" json:"answers"`
	// CorrectAnswerIndex is zero-based. Replaced with -1 on agent-facing reads.
	CorrectAnswerIndex int `gorm:"not null" json:"correctAnswerIndex"`
	Order              int `gorm:"default:0" json:"order"`
}

func (QuizQuestion) TableName() string {
	return "quiz_questions"
}

// CompletedQuizAssignment records one passing attempt. Failing attempts are
// never persisted.
// swagger:model CompletedQuizAssignment
type CompletedQuizAssignment struct {
	BaseModel
	UserID            uint    `gorm:"index:idx_completed_user_lesson,unique;not null" json:"userId"`
	QuizID            uint    `gorm:"index;not null" json:"quizId"`
	LessonID          uint    `gorm:"index:idx_completed_user_lesson,unique;not null" json:"lessonId"`
	SelectedAnswers   IntList `gorm:"type:text;not null" json:"selectedAnswers"`
	NumberOfQuestions int     `gorm:"not null" json:"numberOfQuestions"`
	NumberCorrect     int     `gorm:"not null" json:"numberCorrect"`
}

func (CompletedQuizAssignment) TableName() string {
	return "completed_quiz_assignments"
}
