package util

const DateFormat = "2006-01-02"

const (
	StorageLocal = "local"
	StorageMinio = "minio"
)

// Quiz grading
const (
	// PassThreshold is the minimum fraction of correct answers for a pass.
	PassThreshold = 0.5

	// SanitizedAnswerIndex replaces the correct-answer index on agent-facing
	// quiz reads so the answer key never reaches the client.
	SanitizedAnswerIndex = -1

	MinAnswersPerQuestion = 2
	MaxAnswersPerQuestion = 6
)

const (
	MimeVideo       = "video/"
	MimeHLS         = "application/x-mpegURL"
	MimeOctetStream = "application/octet-stream"
)

var (
	AllowedVideoExtensions = []string{".mp4", ".mov", ".avi", ".mkv", ".wmv", ".flv", ".webm"}
)
