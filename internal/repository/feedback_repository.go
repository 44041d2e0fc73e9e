package repository

import (
	"database/sql"

	"github.com/Philip-857-bit/feedback/internal/domain"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type FeedbackRepository struct {
	db *gorm.DB
}

func NewFeedbackRepository(db *gorm.DB) *FeedbackRepository {
	return &FeedbackRepository{db: db}
}

func (r *FeedbackRepository) Create(feedback *domain.Feedback) error {
	return r.db.Create(feedback).Error
}

func (r *FeedbackRepository) FindByID(id uuid.UUID) (*domain.Feedback, error) {
	var feedback domain.Feedback
	err := r.db.Where("id = ?", id).First(&feedback).Error
	if err != nil {
		return nil, err
	}
	return &feedback, nil
}

func (r *FeedbackRepository) FindByEmail(email string) ([]domain.Feedback, error) {
	var feedbacks []domain.Feedback
	err := r.db.Where("email = ?", email).Order("created_at DESC").Find(&feedbacks).Error
	if err != nil {
		return nil, err
	}
	return feedbacks, nil
}

// CountByEmail backs the duplicate guard: any stored entry with the email
// counts, anonymous or not.
func (r *FeedbackRepository) CountByEmail(email string) (int64, error) {
	var count int64
	err := r.db.Model(&domain.Feedback{}).
		Where("email = ?", email).
		Count(&count).Error
	return count, err
}

// Delete removes a single record. Deleting an id that does not exist is an
// error so that repeated admin deletes surface instead of silently passing.
func (r *FeedbackRepository) Delete(id uuid.UUID) error {
	res := r.db.Where("id = ?", id).Delete(&domain.Feedback{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *FeedbackRepository) List(userType, search string, rating *int, page, limit int) ([]domain.Feedback, int64, error) {
	var feedbacks []domain.Feedback
	var total int64

	query := r.db.Model(&domain.Feedback{})

	if userType != "" {
		query = query.Where("user_type = ?", userType)
	}

	if search != "" {
		// LOWER(...) LIKE instead of ILIKE so the in-memory sqlite used in
		// tests matches production Postgres behavior.
		pattern := "%" + search + "%"
		query = query.Where(
			"LOWER(feedback) LIKE LOWER(?) OR LOWER(name) LIKE LOWER(?) OR LOWER(email) LIKE LOWER(?)",
			pattern, pattern, pattern,
		)
	}

	if rating != nil {
		query = query.Where("rating = ?", *rating)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * limit
	err := query.
		Order("created_at DESC").
		Offset(offset).
		Limit(limit).
		Find(&feedbacks).Error

	if err != nil {
		return nil, 0, err
	}

	return feedbacks, total, nil
}

// ListAll returns every record, newest first. Used by the exporters.
func (r *FeedbackRepository) ListAll() ([]domain.Feedback, error) {
	var feedbacks []domain.Feedback
	err := r.db.Order("created_at DESC").Find(&feedbacks).Error
	if err != nil {
		return nil, err
	}
	return feedbacks, nil
}

func (r *FeedbackRepository) GetStats() (total, attendees, brands, withPhotos int64, avgRating *float64, err error) {
	err = r.db.Model(&domain.Feedback{}).Count(&total).Error
	if err != nil {
		return
	}

	err = r.db.Model(&domain.Feedback{}).Where("user_type = ?", domain.UserTypeAttendee).Count(&attendees).Error
	if err != nil {
		return
	}

	err = r.db.Model(&domain.Feedback{}).Where("user_type = ?", domain.UserTypeBrand).Count(&brands).Error
	if err != nil {
		return
	}

	err = r.db.Model(&domain.Feedback{}).Where("photo_url IS NOT NULL").Count(&withPhotos).Error
	if err != nil {
		return
	}

	var avg sql.NullFloat64
	row := r.db.Model(&domain.Feedback{}).Select("AVG(rating)").Where("rating IS NOT NULL").Row()
	if err = row.Scan(&avg); err != nil {
		return
	}
	if avg.Valid {
		avgRating = &avg.Float64
	}

	return
}
