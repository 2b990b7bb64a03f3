package model

// ClipCandidate is a time-bounded sub-clip returned by search.
type ClipCandidate struct {
	ClipID         string  `json:"clipId"`
	StartTime      float64 `json:"startTime"`
	EndTime        float64 `json:"endTime"`
	RelevanceScore float64 `json:"relevanceScore"`
	SourceQuery    string  `json:"sourceQuery"`
	Description    string  `json:"description,omitempty"`
}

// Duration is EndTime - StartTime in seconds.
func (c ClipCandidate) Duration() float64 {
	return c.EndTime - c.StartTime
}

// Key returns the identity used for deduplication.
func (c ClipCandidate) Key() ClipKey {
	return ClipKey{ClipID: c.ClipID, StartTime: c.StartTime, EndTime: c.EndTime}
}

// ClipKey identifies the same span of the same video.
type ClipKey struct {
	ClipID    string
	StartTime float64
	EndTime   float64
}

// TotalDuration sums the durations of clips.
func TotalDuration(clips []ClipCandidate) float64 {
	var total float64
	for _, c := range clips {
		total += c.Duration()
	}
	return total
}

// CloneClips returns a copy that shares no backing array with clips.
func CloneClips(clips []ClipCandidate) []ClipCandidate {
	if clips == nil {
		return nil
	}
	out := make([]ClipCandidate, len(clips))
	copy(out, clips)
	return out
}

// VideoScope restricts a search to one video or to a collection.
// When VideoIDs is non-empty a collection search only keeps hits from
// those videos.
type VideoScope struct {
	VideoID    string   `json:"videoId,omitempty"`
	Collection string   `json:"collection,omitempty"`
	VideoIDs   []string `json:"videoIds,omitempty"`
}

// SingleVideo scopes a search to one video.
func SingleVideo(videoID string) VideoScope {
	return VideoScope{VideoID: videoID}
}

// CollectionScope scopes a search to a collection, optionally limited to
// a subset of its videos.
func CollectionScope(collection string, videoIDs ...string) VideoScope {
	return VideoScope{Collection: collection, VideoIDs: videoIDs}
}

// IsSingleVideo reports whether the scope targets exactly one video.
func (s VideoScope) IsSingleVideo() bool {
	return s.VideoID != ""
}
