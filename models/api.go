package models

// PreviewRequest is the body for POST /api/v1/preview.
type PreviewRequest struct {
	URL string `json:"url" binding:"required"`
}

// PreviewsRequest is the body for POST /api/v1/previews.
type PreviewsRequest struct {
	URLs []string `json:"urls" binding:"required"`
}

// PreviewsResponse wraps a batch of records.
type PreviewsResponse struct {
	Records []Record `json:"records"`
}

// HealthResponse is the body for GET /api/v1/health.
type HealthResponse struct {
	Status         string `json:"status"`
	Uptime         string `json:"uptime"`
	BrowserRunning bool   `json:"browser_running"`
	Version        string `json:"version"`
}
