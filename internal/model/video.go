package model

import (
	"fmt"
	"path/filepath"
	"strings"
)

// SupportedVideoExtensions lists the container formats accepted for upload.
var SupportedVideoExtensions = []string{".mp4", ".avi", ".mov", ".mkv", ".webm"}

// IsSupportedVideo reports whether filename has a supported video extension.
func IsSupportedVideo(filename string) bool {
	ext := strings.ToLower(filepath.Ext(filename))
	for _, e := range SupportedVideoExtensions {
		if ext == e {
			return true
		}
	}
	return false
}

// FormatDuration renders seconds as MM:SS.
func FormatDuration(seconds float64) string {
	if seconds < 0 {
		seconds = 0
	}
	total := int(seconds)
	return fmt.Sprintf("%02d:%02d", total/60, total%60)
}

// EstimateProcessingTime is a rough render time in seconds: two seconds per
// clip, one per ten seconds of footage, plus fixed overhead.
func EstimateProcessingTime(clipCount int, totalDuration float64) int {
	return int(float64(clipCount*2) + totalDuration/10 + 10)
}
