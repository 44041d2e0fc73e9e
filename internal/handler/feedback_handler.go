package handler

import (
	"errors"
	"fmt"
	"io"
	"log"
	"mime/multipart"
	"strconv"
	"time"

	"github.com/Philip-857-bit/feedback/internal/config"
	"github.com/Philip-857-bit/feedback/internal/domain"
	"github.com/Philip-857-bit/feedback/internal/dto"
	"github.com/Philip-857-bit/feedback/internal/repository"
	"github.com/Philip-857-bit/feedback/internal/service"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type FeedbackHandler struct {
	feedbackSvc  *service.FeedbackService
	feedbackRepo *repository.FeedbackRepository
	maxPhotoSize int64
}

func NewFeedbackHandler(feedbackSvc *service.FeedbackService, feedbackRepo *repository.FeedbackRepository, cfg *config.Config) *FeedbackHandler {
	return &FeedbackHandler{
		feedbackSvc:  feedbackSvc,
		feedbackRepo: feedbackRepo,
		maxPhotoSize: cfg.Upload.MaxPhotoSize,
	}
}

// Submit - POST /feedback (public)
func (h *FeedbackHandler) Submit(c *fiber.Ctx) error {
	req := &dto.CreateFeedbackRequest{
		UserType:  c.FormValue("user_type"),
		Name:      c.FormValue("name"),
		Anonymous: c.FormValue("anonymous") == "true",
		Email:     c.FormValue("email"),
		Feedback:  c.FormValue("feedback"),
		Consent:   c.FormValue("consent") == "true",
	}

	if v := c.FormValue("rating"); v != "" {
		rating, err := strconv.Atoi(v)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(dto.FieldErrorResponse(
				"VALIDATION_ERROR", "rating must be a number", "rating",
			))
		}
		req.Rating = &rating
	}

	photos, err := h.collectPhotos(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.FieldErrorResponse(
			"VALIDATION_ERROR", err.Error(), "photos",
		))
	}

	record, err := h.feedbackSvc.Submit(c.UserContext(), req, photos)
	if err != nil {
		return h.submitError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(dto.SuccessResponse(
		toResponse(record), "Feedback submitted successfully",
	))
}

func (h *FeedbackHandler) collectPhotos(c *fiber.Ctx) ([]service.PhotoInput, error) {
	form, err := c.MultipartForm()
	if err != nil {
		// Not a multipart request; photos are simply absent.
		return nil, nil
	}

	files := form.File["photos"]
	if len(files) == 0 {
		files = form.File["photo"]
	}

	var photos []service.PhotoInput
	for _, fh := range files {
		if fh.Size > h.maxPhotoSize {
			return nil, fmt.Errorf("photo %s exceeds the maximum size of %dMB", fh.Filename, h.maxPhotoSize/(1024*1024))
		}
		photos = append(photos, photoInput(fh))
	}
	return photos, nil
}

func photoInput(fh *multipart.FileHeader) service.PhotoInput {
	return service.PhotoInput{
		Filename:    fh.Filename,
		Size:        fh.Size,
		ContentType: fh.Header.Get("Content-Type"),
		Open:        func() (io.ReadCloser, error) { return fh.Open() },
	}
}

func (h *FeedbackHandler) submitError(c *fiber.Ctx, err error) error {
	var ve *domain.ValidationError
	switch {
	case errors.As(err, &ve):
		return c.Status(fiber.StatusBadRequest).JSON(dto.FieldErrorResponse(
			"VALIDATION_ERROR", ve.Message, ve.Field,
		))
	case errors.Is(err, domain.ErrDuplicateEmail):
		return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse(
			"DUPLICATE_EMAIL", "A feedback entry with this email address already exists.",
		))
	case errors.Is(err, domain.ErrPhotoUpload):
		log.Printf("[Feedback] photo upload failed: %v", err)
		return c.Status(fiber.StatusBadGateway).JSON(dto.ErrorResponse(
			"PHOTO_UPLOAD_FAILED", "Failed to process photos. Please try again.",
		))
	case errors.Is(err, domain.ErrStoreUnavailable):
		log.Printf("[Feedback] store unavailable: %v", err)
		return c.Status(fiber.StatusServiceUnavailable).JSON(dto.ErrorResponse(
			"STORE_UNAVAILABLE", "An error occurred while checking for duplicates.",
		))
	case errors.Is(err, domain.ErrStoreWrite):
		log.Printf("[Feedback] insert failed: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse(
			"CREATE_FAILED", "Failed to save feedback. Please try again.",
		))
	default:
		log.Printf("[Feedback] unexpected submit error: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse(
			"INTERNAL_ERROR", "An unexpected error occurred. Please try again.",
		))
	}
}

// AdminList - GET /admin/feedback (admin only)
func (h *FeedbackHandler) AdminList(c *fiber.Ctx) error {
	userType := c.Query("user_type")
	search := c.Query("search")
	page := c.QueryInt("page", 1)
	limit := c.QueryInt("limit", 20)

	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}

	var rating *int
	if v := c.Query("rating"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(dto.FieldErrorResponse(
				"VALIDATION_ERROR", "rating must be a number", "rating",
			))
		}
		rating = &n
	}

	feedbacks, total, err := h.feedbackRepo.List(userType, search, rating, page, limit)
	if err != nil {
		log.Printf("[Feedback] list failed: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse(
			"FETCH_FAILED", "Failed to fetch feedback entries",
		))
	}

	responses := make([]dto.FeedbackResponse, 0, len(feedbacks))
	for i := range feedbacks {
		responses = append(responses, toResponse(&feedbacks[i]))
	}

	return c.JSON(dto.PaginatedResponse(responses, page, limit, total))
}

// AdminGet - GET /admin/feedback/:id (admin only)
func (h *FeedbackHandler) AdminGet(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse("INVALID_ID", "ID is not valid"))
	}

	feedback, err := h.feedbackRepo.FindByID(id)
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse("NOT_FOUND", "Feedback not found"))
	}

	return c.JSON(dto.SuccessResponse(toResponse(feedback), ""))
}

// AdminDelete - DELETE /admin/feedback/:id (admin only)
func (h *FeedbackHandler) AdminDelete(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse("INVALID_ID", "ID is not valid"))
	}

	var req dto.DeleteFeedbackRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse("INVALID_REQUEST", "Request body is not valid"))
		}
	}

	if err := h.feedbackSvc.Delete(c.UserContext(), id, req.PhotoURLs); err != nil {
		switch {
		case errors.Is(err, domain.ErrNotFound):
			return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse("NOT_FOUND", "Feedback not found"))
		case errors.Is(err, domain.ErrBlobDelete):
			log.Printf("[Feedback] blob delete failed for %s: %v", id, err)
			return c.Status(fiber.StatusBadGateway).JSON(dto.ErrorResponse(
				"BLOB_DELETE_FAILED", "Failed to remove photos; the feedback entry was left intact.",
			))
		default:
			log.Printf("[Feedback] delete failed for %s: %v", id, err)
			return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse(
				"DELETE_FAILED", "Failed to delete feedback",
			))
		}
	}

	return c.JSON(dto.SuccessResponse(nil, "Feedback deleted successfully"))
}

// AdminStats - GET /admin/feedback/stats (admin only)
func (h *FeedbackHandler) AdminStats(c *fiber.Ctx) error {
	total, attendees, brands, withPhotos, avgRating, err := h.feedbackRepo.GetStats()
	if err != nil {
		log.Printf("[Feedback] stats failed: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse(
			"FETCH_FAILED", "Failed to fetch statistics",
		))
	}

	return c.JSON(dto.SuccessResponse(dto.FeedbackStats{
		Total:         total,
		Attendees:     attendees,
		Brands:        brands,
		WithPhotos:    withPhotos,
		AverageRating: avgRating,
	}, ""))
}

// AdminExport - GET /admin/feedback/export?format=xlsx|csv (admin only)
func (h *FeedbackHandler) AdminExport(c *fiber.Ctx) error {
	format := c.Query("format", "xlsx")

	feedbacks, err := h.feedbackRepo.ListAll()
	if err != nil {
		log.Printf("[Feedback] export fetch failed: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse(
			"FETCH_FAILED", "Failed to fetch feedback entries",
		))
	}

	filename := "feedback-submissions-" + time.Now().Format("2006-01-02")

	switch format {
	case "xlsx":
		data, err := service.ExportXLSX(feedbacks)
		if err != nil {
			log.Printf("[Feedback] xlsx export failed: %v", err)
			return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse(
				"EXPORT_FAILED", "Failed to generate spreadsheet",
			))
		}
		c.Set(fiber.HeaderContentType, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
		c.Set(fiber.HeaderContentDisposition, `attachment; filename="`+filename+`.xlsx"`)
		return c.Send(data)
	case "csv":
		data, err := service.ExportCSV(feedbacks)
		if err != nil {
			log.Printf("[Feedback] csv export failed: %v", err)
			return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse(
				"EXPORT_FAILED", "Failed to generate CSV",
			))
		}
		c.Set(fiber.HeaderContentType, "text/csv; charset=utf-8")
		c.Set(fiber.HeaderContentDisposition, `attachment; filename="`+filename+`.csv"`)
		return c.Send(data)
	default:
		return c.Status(fiber.StatusBadRequest).JSON(dto.FieldErrorResponse(
			"VALIDATION_ERROR", "format must be xlsx or csv", "format",
		))
	}
}

func toResponse(f *domain.Feedback) dto.FeedbackResponse {
	return dto.FeedbackResponse{
		ID:          f.ID.String(),
		UserType:    string(f.UserType),
		Name:        f.Name,
		IsAnonymous: f.IsAnonymous,
		Email:       f.Email,
		Rating:      f.Rating,
		Feedback:    f.Feedback,
		PhotoURLs:   f.PhotoURLs,
		Consent:     f.Consent,
		CreatedAt:   f.CreatedAt,
	}
}
