package model

import "time"

// UploadVideoResponse represents the response for a video upload
type UploadVideoResponse struct {
	Key       string    `json:"key"`
	FileURL   string    `json:"fileUrl"`
	VideoID   string    `json:"videoId"`
	Filename  string    `json:"filename"`
	Size      int64     `json:"size"`
	CreatedAt time.Time `json:"createdAt"`
}
