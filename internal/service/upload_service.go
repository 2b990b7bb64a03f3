package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/vibecut/api/internal/client"
	"github.com/vibecut/api/internal/logging"
	"github.com/vibecut/api/internal/model"
)

// ErrNoSourceURL is returned when there is no object storage to stage the
// file and the caller gave no URL either.
var ErrNoSourceURL = errors.New("storage is not configured and no source url was given")

// VideoUploader ingests a video by URL.
type VideoUploader interface {
	Upload(ctx context.Context, sourceURL string) (string, error)
}

// UploadService stages videos in R2 and hands them to VideoDB
type UploadService struct {
	r2Client client.StorageClient
	videos   VideoUploader
	logger   *zap.Logger
}

// NewUploadService creates an upload service. r2Client may be nil.
func NewUploadService(r2Client client.StorageClient, videos VideoUploader, logger *zap.Logger) *UploadService {
	return &UploadService{
		r2Client: r2Client,
		videos:   videos,
		logger:   logging.WithComponent(logger, "upload"),
	}
}

// UploadVideo stores file in R2 and ingests its public URL. Without R2, or
// without a file, the caller-supplied sourceURL is ingested instead.
func (s *UploadService) UploadVideo(ctx context.Context, userID, filename string, file io.Reader, size int64, sourceURL string) (*model.UploadVideoResponse, error) {
	uploadID := uuid.New().String()
	resp := &model.UploadVideoResponse{
		Filename:  filename,
		Size:      size,
		CreatedAt: time.Now(),
	}

	if file != nil && s.storageConfigured() {
		key := client.VideoKey(userID, uploadID, filename)
		contentType := mime.TypeByExtension(filepath.Ext(filename))
		if contentType == "" {
			contentType = "video/mp4"
		}

		fileURL, err := s.r2Client.Upload(ctx, key, file, contentType)
		if err != nil {
			return nil, fmt.Errorf("failed to store video: %w", err)
		}
		resp.Key = key
		resp.FileURL = fileURL

		if sourceURL == "" {
			sourceURL = fileURL
		}
		if sourceURL == "" {
			// private bucket: VideoDB fetches through a presigned link
			sourceURL, err = s.r2Client.GetSignedURL(ctx, key, time.Hour)
			if err != nil {
				return nil, fmt.Errorf("failed to sign video url: %w", err)
			}
		}
	}

	if sourceURL == "" {
		return nil, ErrNoSourceURL
	}

	videoID, err := s.videos.Upload(ctx, sourceURL)
	if err != nil {
		return nil, fmt.Errorf("failed to ingest video: %w", err)
	}
	resp.VideoID = videoID
	if resp.FileURL == "" {
		resp.FileURL = sourceURL
	}

	s.logger.Info("video uploaded",
		zap.String("video_id", videoID),
		zap.String("filename", filename),
		zap.Int64("size", size))

	return resp, nil
}

// DeleteVideoByKey removes a staged video from R2 storage
func (s *UploadService) DeleteVideoByKey(ctx context.Context, key string) error {
	if !s.storageConfigured() {
		return nil
	}
	return s.r2Client.Delete(ctx, key)
}

func (s *UploadService) storageConfigured() bool {
	return s.r2Client != nil && s.r2Client.IsConfigured()
}
