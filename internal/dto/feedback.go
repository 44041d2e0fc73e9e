package dto

import "time"

// CreateFeedbackRequest - fields of the public submission form. Photos
// arrive as multipart files next to these fields and are handled
// separately by the handler.
type CreateFeedbackRequest struct {
	UserType  string `json:"user_type" form:"user_type"`
	Name      string `json:"name" form:"name"`
	Anonymous bool   `json:"anonymous" form:"anonymous"`
	Email     string `json:"email" form:"email"`
	Rating    *int   `json:"rating,omitempty" form:"rating"`
	Feedback  string `json:"feedback" form:"feedback"`
	Consent   bool   `json:"consent" form:"consent"`
}

// DeleteFeedbackRequest - optional body for admin deletion; when PhotoURLs
// is nil the stored record's URLs are used.
type DeleteFeedbackRequest struct {
	PhotoURLs []string `json:"photo_urls"`
}

type FeedbackResponse struct {
	ID          string    `json:"id"`
	UserType    string    `json:"user_type"`
	Name        string    `json:"name"`
	IsAnonymous bool      `json:"is_anonymous"`
	Email       string    `json:"email"`
	Rating      *int      `json:"rating,omitempty"`
	Feedback    string    `json:"feedback"`
	PhotoURLs   []string  `json:"photo_url,omitempty"`
	Consent     bool      `json:"consent"`
	CreatedAt   time.Time `json:"created_at"`
}

// FeedbackStats - dashboard counters
type FeedbackStats struct {
	Total         int64    `json:"total"`
	Attendees     int64    `json:"attendees"`
	Brands        int64    `json:"brands"`
	WithPhotos    int64    `json:"with_photos"`
	AverageRating *float64 `json:"average_rating,omitempty"`
}
