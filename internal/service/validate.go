package service

import (
	"net/mail"
	"strings"
	"unicode/utf8"

	"github.com/Philip-857-bit/feedback/internal/domain"
	"github.com/Philip-857-bit/feedback/internal/dto"
)

const minFeedbackLength = 10

// Submission is the normalized form of a validated request. Name and email
// are trimmed, email lowercased; downstream stages never re-check fields.
type Submission struct {
	UserType  domain.UserType
	Name      string
	Anonymous bool
	Email     string
	Rating    *int
	Feedback  string
	Consent   bool
}

// ValidateSubmission checks the raw request and returns its normalized
// form. Pure function: no side effects, no I/O.
func ValidateSubmission(req *dto.CreateFeedbackRequest) (*Submission, error) {
	userType := domain.UserType(strings.TrimSpace(req.UserType))
	if !userType.Valid() {
		return nil, domain.NewValidationError("userType", "must be attendee or brand")
	}

	name := strings.TrimSpace(req.Name)
	if !req.Anonymous && name == "" {
		return nil, domain.NewValidationError("name", "name is required unless submitting anonymously")
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))
	if email == "" {
		return nil, domain.NewValidationError("email", "email is required")
	}
	// ParseAddress also accepts "Name <addr>" forms; only a bare address
	// may be stored.
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return nil, domain.NewValidationError("email", "email address is not valid")
	}

	feedback := strings.TrimSpace(req.Feedback)
	if utf8.RuneCountInString(feedback) < minFeedbackLength {
		return nil, domain.NewValidationError("feedback", "feedback must be at least 10 characters")
	}

	if req.Rating != nil && (*req.Rating < 0 || *req.Rating > 5) {
		return nil, domain.NewValidationError("rating", "rating must be between 0 and 5")
	}

	if !req.Consent {
		return nil, domain.NewValidationError("consent", "consent is required to submit feedback")
	}

	return &Submission{
		UserType:  userType,
		Name:      name,
		Anonymous: req.Anonymous,
		Email:     email,
		Rating:    req.Rating,
		Feedback:  feedback,
		Consent:   req.Consent,
	}, nil
}
