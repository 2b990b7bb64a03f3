package model

// IndexStartRequest represents the request to batch index videos
type IndexStartRequest struct {
	VideoIDs       []string  `json:"videoIds" validate:"required,min=1,max=200,unique,dive,required,max=128"`
	Kind           IndexKind `json:"kind" validate:"required,oneof=spoken_words scenes both"`
	ScenePrompt    *string   `json:"scenePrompt" validate:"omitempty,max=500"`
	MaxConcurrency int       `json:"maxConcurrency" validate:"omitempty,min=1,max=16"`
}

// IndexResultResponse is the per-video outcome of a batch indexing job
type IndexResultResponse struct {
	JobID     string          `json:"jobId"`
	Results   map[string]bool `json:"results"`
	Succeeded int             `json:"succeeded"`
	Failed    []string        `json:"failed"`
}

// CollectionCreateRequest represents the request to upload and index URLs
type CollectionCreateRequest struct {
	URLs        []string  `json:"urls" validate:"required,min=1,max=100,dive,required,url"`
	Kind        IndexKind `json:"kind" validate:"required,oneof=spoken_words scenes both"`
	ScenePrompt *string   `json:"scenePrompt" validate:"omitempty,max=500"`
}

// CollectionResult summarises an upload-and-index run
type CollectionResult struct {
	CollectionName  string          `json:"collectionName"`
	TotalVideos     int             `json:"totalVideos"`
	UploadedVideos  int             `json:"uploadedVideos"`
	FailedUploads   []string        `json:"failedUploads"`
	IndexingResults map[string]bool `json:"indexingResults"`
	VideoIDs        []string        `json:"videoIds"`
}

// CollectionVideosResponse lists the videos in a collection
type CollectionVideosResponse struct {
	Collection string   `json:"collection"`
	VideoIDs   []string `json:"videoIds"`
	Count      int      `json:"count"`
}

// SearchRequest runs an aggregated multi-query retrieval synchronously
type SearchRequest struct {
	Queries        []string          `json:"queries" validate:"required,min=1,max=20,dive,required,max=300"`
	VideoID        string            `json:"videoId" validate:"omitempty,max=128"`
	VideoIDs       []string          `json:"videoIds" validate:"omitempty,max=50,dive,required,max=128"`
	Limit          int               `json:"limit" validate:"omitempty,min=1,max=50"`
	TargetDuration *float64          `json:"targetDuration" validate:"omitempty,gt=0,lte=600"`
	SearchType     SearchType        `json:"searchType" validate:"omitempty,oneof=semantic keyword"`
	SceneIndexID   string            `json:"sceneIndexId" validate:"omitempty,max=128"`
	Filters        map[string]string `json:"filters" validate:"omitempty,max=10"`
}

// SearchResponse carries the ranked candidates and, when a target duration
// was given, the budgeted selection
type SearchResponse struct {
	Clips            []ClipCandidate `json:"clips"`
	Count            int             `json:"count"`
	Selected         []ClipCandidate `json:"selected,omitempty"`
	SelectedDuration float64         `json:"selectedDuration,omitempty"`
}
