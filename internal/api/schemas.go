package api

type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

type HealthResponse struct {
	Status string `json:"status"`
}

type GenerateRequest struct {
	Topic string `json:"topic,omitempty"`
	Mode  string `json:"mode,omitempty"`
	Voice string `json:"voice,omitempty"`
}

type GenerateResponse struct {
	Status      string `json:"status"`
	Mode        string `json:"mode"`
	Title       string `json:"title,omitempty"`
	VoiceGender string `json:"voice_gender,omitempty"`
	StoryWords  int    `json:"story_words,omitempty"`
	TotalTurns  int    `json:"total_turns,omitempty"`
	TotalWords  int    `json:"total_words,omitempty"`
}

type RenderResponse struct {
	VideoURL        string  `json:"video_url"`
	Duration        float64 `json:"duration"`
	ArchiveLocation string  `json:"archive_location,omitempty"`
}

type UploadRequest struct {
	Topic         string   `json:"topic,omitempty"`
	Title         string   `json:"title,omitempty"`
	Description   string   `json:"description,omitempty"`
	Tags          []string `json:"tags,omitempty"`
	PrivacyStatus string   `json:"privacy_status,omitempty"`
}

type UploadResponse struct {
	Status        string `json:"status"`
	YouTubeURL    string `json:"youtube_url"`
	VideoID       string `json:"video_id"`
	Title         string `json:"title"`
	PrivacyStatus string `json:"privacy_status"`
	ThumbnailSet  bool   `json:"thumbnail_set"`
}

type PublishedVideoResponse struct {
	ID            string `json:"id"`
	VideoID       string `json:"video_id"`
	URL           string `json:"url"`
	Title         string `json:"title"`
	PrivacyStatus string `json:"privacy_status"`
	Topic         string `json:"topic,omitempty"`
	PublishedAt   string `json:"published_at"`
}

type HistoryResponse struct {
	Videos []PublishedVideoResponse `json:"videos"`
}

type ArtifactResponse struct {
	Name      string `json:"name"`
	Location  string `json:"location"`
	Size      int64  `json:"size"`
	UpdatedAt string `json:"updated_at,omitempty"`
}

type ArtifactsResponse struct {
	Artifacts []ArtifactResponse `json:"artifacts"`
}
