package service

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"closer_club_backend/internal/config"
	"closer_club_backend/internal/model"
	"closer_club_backend/internal/repository"
	"closer_club_backend/internal/upload"
	"closer_club_backend/internal/util"
	"closer_club_backend/pkg/logger"
	"closer_club_backend/pkg/monitoring"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Upload strategies selectable per request.
const (
	StrategyChunked   = "chunked"
	StrategyStreaming = "streaming"
	StrategyTus       = "tus"
)

var ErrUnknownStrategy = errors.New("unknown upload strategy")

// UploadStarted is returned as soon as a transfer is launched; the caller
// polls status by file ID.
type UploadStarted struct {
	FileID     string `json:"fileId"`
	CDNVideoID string `json:"cdnVideoId"`
	Strategy   string `json:"strategy"`
}

// VideoService registers videos on the CDN and pushes local files to it
// through the resumable upload client.
type VideoService struct {
	VideoRepo *repository.VideoRepository
	CDN       *CDNClient
	Manager   *upload.Manager
	Cfg       *config.Config
}

func NewVideoService(videoRepo *repository.VideoRepository, cdn *CDNClient, manager *upload.Manager, cfg *config.Config) *VideoService {
	return &VideoService{VideoRepo: videoRepo, CDN: cdn, Manager: manager, Cfg: cfg}
}

// StartUpload registers the video on the CDN, launches the chosen transfer
// strategy in the background and returns immediately. When the transfer
// completes the Video row is recorded with probed metadata.
func (s *VideoService) StartUpload(ctx context.Context, localPath, title, strategy string, uploadedBy uint) (*UploadStarted, error) {
	ext := strings.ToLower(filepath.Ext(localPath))
	allowed := false
	for _, e := range util.AllowedVideoExtensions {
		if e == ext {
			allowed = true
			break
		}
	}
	if !allowed {
		return nil, fmt.Errorf("%w: extension %q", util.ErrUnsupportedMedia, ext)
	}
	if err := sniffVideo(localPath); err != nil {
		return nil, err
	}

	file, closer, err := upload.Open(localPath)
	if err != nil {
		return nil, err
	}

	if title == "" {
		title = filepath.Base(localPath)
	}
	cdnVideo, err := s.CDN.CreateVideo(ctx, title)
	if err != nil {
		closer.Close()
		return nil, err
	}

	uploader, err := s.buildUploader(strategy, cdnVideo.GUID, file)
	if err != nil {
		closer.Close()
		return nil, err
	}

	if err := s.Manager.Launch(file.ID(), uploader); err != nil {
		closer.Close()
		return nil, err
	}

	go func() {
		defer closer.Close()
		if err := s.Manager.Wait(file.ID()); err != nil {
			logger.Log.Error("Video upload failed",
				zap.String("fileID", file.ID()),
				zap.String("cdnVideoID", cdnVideo.GUID),
				zap.Error(err))
			return
		}
		s.recordUploaded(localPath, title, cdnVideo.GUID, uploadedBy, file)
	}()

	return &UploadStarted{
		FileID:     file.ID(),
		CDNVideoID: cdnVideo.GUID,
		Strategy:   strategy,
	}, nil
}

// sniffVideo rejects files whose content does not look like video,
// whatever the extension claims. Containers the sniffer cannot name come
// back as octet-stream and are let through.
func sniffVideo(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	mimeType, err := util.ValidateMimeType(f, []string{util.MimeVideo, util.MimeHLS, util.MimeOctetStream})
	if err != nil {
		return fmt.Errorf("%w: %s", util.ErrUnsupportedMedia, mimeType)
	}
	return nil
}

func (s *VideoService) buildUploader(strategy, guid string, file upload.File) (upload.Uploader, error) {
	store := s.Manager.Store()
	endpoint := s.CDN.UploadEndpoint(guid)
	accessKey := s.Cfg.Video.AccessKey

	switch strategy {
	case StrategyChunked, "":
		return upload.NewChunkedUploader(store, endpoint, accessKey, file, upload.ChunkedConfig{
			ChunkSize:  int64(s.Cfg.Upload.ChunkSizeMB) << 20,
			MaxRetries: s.Cfg.Upload.MaxRetries,
			OnChunk: func(index int, size int64) {
				monitoring.UploadedChunks.WithLabelValues("success").Inc()
				monitoring.UploadedBytes.Add(float64(size))
			},
		}), nil
	case StrategyStreaming:
		return upload.NewStreamUploader(store, endpoint, accessKey, file, upload.StreamConfig{}), nil
	case StrategyTus:
		return upload.NewTusUploader(store, s.Cfg.Video.TusEndpoint, accessKey, file, upload.TusConfig{
			ChunkSize: int64(s.Cfg.Upload.ChunkSizeMB) << 20,
		}), nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownStrategy, strategy)
}

// recordUploaded probes the local file and writes the Video row. Probe
// failures degrade to a row without duration metadata.
func (s *VideoService) recordUploaded(localPath, title, guid string, uploadedBy uint, file upload.File) {
	video := &model.Video{
		CDNVideoID:  guid,
		Title:       title,
		FileName:    filepath.Base(localPath),
		FileSize:    file.Size,
		Thumbnail:   s.CDN.ThumbnailURL(guid),
		PlaybackURL: s.CDN.PlaybackURL(guid),
		UploadedBy:  uploadedBy,
	}

	if info, err := util.GetVideoInfo(localPath); err != nil {
		logger.Log.Warn("Video probe failed", zap.String("path", localPath), zap.Error(err))
	} else {
		video.Duration = info.Duration
		video.Width = info.Width
		video.Height = info.Height
	}

	if err := s.VideoRepo.Create(video); err != nil {
		logger.Log.Error("Failed to record uploaded video",
			zap.String("cdnVideoID", guid), zap.Error(err))
		return
	}
	logger.Log.Info("Video uploaded",
		zap.String("cdnVideoID", guid),
		zap.Float64("duration", video.Duration))
}

func (s *VideoService) Status(fileID string) (upload.Progress, error) {
	return s.Manager.Progress(fileID)
}

func (s *VideoService) Pause(fileID string) error  { return s.Manager.Pause(fileID) }
func (s *VideoService) Resume(fileID string) error { return s.Manager.Resume(fileID) }
func (s *VideoService) Abort(fileID string) error  { return s.Manager.Abort(fileID) }

func (s *VideoService) GetByID(id uint) (*model.Video, error) {
	video, err := s.VideoRepo.FindByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrVideoNotFound
		}
		return nil, err
	}
	return video, nil
}

func (s *VideoService) List(page, limit int) ([]model.Video, int64, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}
	return s.VideoRepo.List((page-1)*limit, limit)
}

// Delete removes the video on the CDN first, then the local record.
func (s *VideoService) Delete(ctx context.Context, id uint) error {
	video, err := s.GetByID(id)
	if err != nil {
		return err
	}
	if err := s.CDN.DeleteVideo(ctx, video.CDNVideoID); err != nil {
		logger.Log.Warn("CDN delete failed, removing local record anyway",
			zap.String("cdnVideoID", video.CDNVideoID), zap.Error(err))
	}
	return s.VideoRepo.Delete(id)
}

// CleanupSessions is run on a schedule to drop abandoned upload sessions.
func (s *VideoService) CleanupSessions(ctx context.Context) {
	maxAge := time.Duration(s.Cfg.Upload.SessionTTLHours) * time.Hour
	removed, err := s.Manager.CleanupSessions(ctx, maxAge)
	if err != nil {
		logger.Log.Error("Upload session cleanup failed", zap.Error(err))
		return
	}
	if removed > 0 {
		logger.Log.Info("Removed stale upload sessions", zap.Int("count", removed))
	}
}
