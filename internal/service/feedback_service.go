package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net/url"
	"path"
	"path/filepath"
	"strings"

	"github.com/Philip-857-bit/feedback/internal/domain"
	"github.com/Philip-857-bit/feedback/internal/dto"
	"github.com/Philip-857-bit/feedback/internal/repository"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"
)

// ObjectStore is the narrow slice of blob storage the pipeline consumes.
// The returned URL must carry the object key as its last path segment.
type ObjectStore interface {
	Upload(ctx context.Context, objectKey string, r io.Reader, size int64, contentType string) (string, error)
	Remove(ctx context.Context, objectKeys []string) error
}

// Mailer sends the best-effort confirmation message.
type Mailer interface {
	Send(to, subject, body string) error
}

// PhotoInput is one uploaded file from the form. Open is called at upload
// time; zero-length entries are skipped without being opened.
type PhotoInput struct {
	Filename    string
	Size        int64
	ContentType string
	Open        func() (io.ReadCloser, error)
}

type FeedbackService struct {
	repo   *repository.FeedbackRepository
	store  ObjectStore
	mailer Mailer // nil disables confirmation mail
	// failOpen applies to multi-photo submissions only: failed uploads are
	// dropped from the stored URL list instead of aborting. A submission
	// with exactly one photo always aborts on upload failure.
	failOpen bool
}

func NewFeedbackService(repo *repository.FeedbackRepository, store ObjectStore, mailer Mailer, failOpen bool) *FeedbackService {
	return &FeedbackService{
		repo:     repo,
		store:    store,
		mailer:   mailer,
		failOpen: failOpen,
	}
}

// Submit runs the submission pipeline: validate, duplicate guard, photo
// uploads, insert, confirmation mail. It stops at the first failure and
// never retries.
//
// The guard's check-then-insert is not transactional: two concurrent
// submissions with the same email can both pass and both insert. Known
// weak guarantee, accepted for this workload.
func (s *FeedbackService) Submit(ctx context.Context, req *dto.CreateFeedbackRequest, photos []PhotoInput) (*domain.Feedback, error) {
	sub, err := ValidateSubmission(req)
	if err != nil {
		return nil, err
	}

	if !sub.Anonymous {
		count, err := s.repo.CountByEmail(sub.Email)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", domain.ErrStoreUnavailable, err)
		}
		if count > 0 {
			return nil, domain.ErrDuplicateEmail
		}
	}

	photoURLs, err := s.uploadPhotos(ctx, photos)
	if err != nil {
		return nil, err
	}

	name := sub.Name
	if sub.Anonymous {
		name = "Anonymous"
	}

	record := &domain.Feedback{
		UserType:    sub.UserType,
		Name:        name,
		IsAnonymous: sub.Anonymous,
		Email:       sub.Email,
		Rating:      sub.Rating,
		Feedback:    sub.Feedback,
		PhotoURLs:   photoURLs,
		Consent:     sub.Consent,
	}

	if err := s.repo.Create(record); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrStoreWrite, err)
	}

	if s.mailer != nil {
		// Fire-and-forget: at-most-once, failures logged only.
		go s.sendConfirmation(record.Email, record.Name, record.IsAnonymous)
	}

	return record, nil
}

// uploadPhotos uploads every non-empty photo concurrently and returns the
// public URLs in input order.
func (s *FeedbackService) uploadPhotos(ctx context.Context, photos []PhotoInput) (domain.StringList, error) {
	var active []PhotoInput
	for _, p := range photos {
		if p.Size > 0 {
			active = append(active, p)
		}
	}
	if len(active) == 0 {
		return nil, nil
	}

	urls := make([]string, len(active))
	uploadErrs := make([]error, len(active))

	g, gctx := errgroup.WithContext(ctx)
	for i, p := range active {
		i, p := i, p
		g.Go(func() error {
			u, err := s.uploadOne(gctx, p)
			if err != nil {
				uploadErrs[i] = err
				return nil
			}
			urls[i] = u
			return nil
		})
	}
	_ = g.Wait()

	failClosed := len(active) == 1 || !s.failOpen

	result := make(domain.StringList, 0, len(active))
	for i := range active {
		if uploadErrs[i] != nil {
			if failClosed {
				return nil, fmt.Errorf("%w: %v", domain.ErrPhotoUpload, uploadErrs[i])
			}
			log.Printf("[Photos] dropping failed upload %s: %v", active[i].Filename, uploadErrs[i])
			continue
		}
		result = append(result, urls[i])
	}
	return result, nil
}

func (s *FeedbackService) uploadOne(ctx context.Context, p PhotoInput) (string, error) {
	f, err := p.Open()
	if err != nil {
		return "", fmt.Errorf("opening %s: %w", p.Filename, err)
	}
	defer f.Close()

	ext := strings.ToLower(filepath.Ext(p.Filename))
	objectKey := uuid.New().String() + ext

	return s.store.Upload(ctx, objectKey, f, p.Size, p.ContentType)
}

func (s *FeedbackService) sendConfirmation(email, name string, anonymous bool) {
	greeting := name
	if anonymous {
		greeting = "there"
	}
	body := fmt.Sprintf(
		"Hi %s,\n\nThanks for sharing your feedback with us. We read every submission.\n\nThe Events Team",
		greeting,
	)
	if err := s.mailer.Send(email, "Thanks for your feedback", body); err != nil {
		log.Printf("[Notifier] failed to send confirmation to %s: %v", email, err)
	}
}

// Delete removes a record and its photos. Blobs go first: if they cannot
// be removed the record stays, so no blob ever outlives its index. A
// missing id returns domain.ErrNotFound with no side effects.
func (s *FeedbackService) Delete(ctx context.Context, id uuid.UUID, photoURLs []string) error {
	record, err := s.repo.FindByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.ErrNotFound
		}
		return fmt.Errorf("%w: %v", domain.ErrStoreUnavailable, err)
	}

	urls := photoURLs
	if urls == nil {
		urls = record.PhotoURLs
	}

	if keys := objectKeysFromURLs(urls); len(keys) > 0 {
		if err := s.store.Remove(ctx, keys); err != nil {
			return fmt.Errorf("%w: %v", domain.ErrBlobDelete, err)
		}
	}

	if err := s.repo.Delete(id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.ErrNotFound
		}
		return fmt.Errorf("%w: %v", domain.ErrStoreWrite, err)
	}
	return nil
}

// objectKeysFromURLs derives object names from public URLs. The object key
// is always the last path segment of the URL.
func objectKeysFromURLs(urls []string) []string {
	var keys []string
	for _, raw := range urls {
		if strings.TrimSpace(raw) == "" {
			continue
		}
		u, err := url.Parse(raw)
		if err != nil {
			continue
		}
		key := path.Base(u.Path)
		if key != "." && key != "/" {
			keys = append(keys, key)
		}
	}
	return keys
}
