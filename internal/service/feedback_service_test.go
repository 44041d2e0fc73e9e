package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/Philip-857-bit/feedback/internal/domain"
	"github.com/Philip-857-bit/feedback/internal/dto"
	"github.com/Philip-857-bit/feedback/internal/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// fakeStore is an in-memory ObjectStore. An upload whose content contains
// failMarker fails, which lets tests target individual photos.
const failMarker = "FAIL-THIS-UPLOAD"

type fakeStore struct {
	mu        sync.Mutex
	objects   map[string][]byte
	removed   []string
	removeErr error
	uploads   int
}

func newFakeStore() *fakeStore {
	return &fakeStore{objects: map[string][]byte{}}
}

func (f *fakeStore) Upload(_ context.Context, objectKey string, r io.Reader, _ int64, _ string) (string, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.uploads++
	if strings.Contains(string(data), failMarker) {
		return "", errors.New("storage rejected object")
	}
	f.objects[objectKey] = data
	return "https://store.example.com/feedback-photos/" + objectKey, nil
}

func (f *fakeStore) Remove(_ context.Context, objectKeys []string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.removeErr != nil {
		return f.removeErr
	}
	for _, key := range objectKeys {
		delete(f.objects, key)
		f.removed = append(f.removed, key)
	}
	return nil
}

// contentOf resolves a public URL back to the uploaded bytes.
func (f *fakeStore) contentOf(url string) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	key := url[strings.LastIndex(url, "/")+1:]
	return string(f.objects[key])
}

type fakeMailer struct {
	mu    sync.Mutex
	sent  []string
	fail  bool
	calls int
}

func (m *fakeMailer) Send(to, _, _ string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if m.fail {
		return errors.New("smtp connection refused")
	}
	m.sent = append(m.sent, to)
	return nil
}

func (m *fakeMailer) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

func setupService(t *testing.T, mailer Mailer, failOpen bool) (*FeedbackService, *repository.FeedbackRepository, *fakeStore) {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&domain.Feedback{}))

	repo := repository.NewFeedbackRepository(db)
	store := newFakeStore()
	return NewFeedbackService(repo, store, mailer, failOpen), repo, store
}

func validRequest(email string) *dto.CreateFeedbackRequest {
	return &dto.CreateFeedbackRequest{
		UserType: "attendee",
		Name:     "Jane Visitor",
		Email:    email,
		Feedback: "The workshops were hands-on and well paced.",
		Consent:  true,
	}
}

func photo(name, content string) PhotoInput {
	return PhotoInput{
		Filename:    name,
		Size:        int64(len(content)),
		ContentType: "image/jpeg",
		Open: func() (io.ReadCloser, error) {
			return io.NopCloser(bytes.NewReader([]byte(content))), nil
		},
	}
}

func TestSubmit_FreshEmailStoresExactlyOneRecord(t *testing.T) {
	svc, repo, _ := setupService(t, nil, true)

	record, err := svc.Submit(context.Background(), validRequest("fresh@example.com"), nil)
	require.NoError(t, err)
	assert.Equal(t, "Jane Visitor", record.Name)

	stored, err := repo.FindByEmail("fresh@example.com")
	require.NoError(t, err)
	assert.Len(t, stored, 1)
}

func TestSubmit_SecondNonAnonymousSameEmailRejected(t *testing.T) {
	svc, repo, _ := setupService(t, nil, true)

	_, err := svc.Submit(context.Background(), validRequest("taken@example.com"), nil)
	require.NoError(t, err)

	_, err = svc.Submit(context.Background(), validRequest("taken@example.com"), nil)
	assert.ErrorIs(t, err, domain.ErrDuplicateEmail)
	assert.Contains(t, err.Error(), "already exists")

	stored, err := repo.FindByEmail("taken@example.com")
	require.NoError(t, err)
	assert.Len(t, stored, 1, "failed submission must not leave a second record")
}

func TestSubmit_AnonymousDuplicateEmailsBothSucceed(t *testing.T) {
	svc, repo, _ := setupService(t, nil, true)

	for i := 0; i < 2; i++ {
		req := validRequest("shared@example.com")
		req.Anonymous = true
		req.Name = ""
		_, err := svc.Submit(context.Background(), req, nil)
		require.NoError(t, err, "anonymous submission %d should pass the guard", i+1)
	}

	stored, err := repo.FindByEmail("shared@example.com")
	require.NoError(t, err)
	assert.Len(t, stored, 2)
	for _, f := range stored {
		assert.Equal(t, "Anonymous", f.Name)
		assert.True(t, f.IsAnonymous)
	}
}

func TestSubmit_NamedSubmissionBlockedByExistingAnonymousRecord(t *testing.T) {
	svc, repo, _ := setupService(t, nil, true)

	anon := validRequest("mixed@example.com")
	anon.Anonymous = true
	anon.Name = ""
	_, err := svc.Submit(context.Background(), anon, nil)
	require.NoError(t, err)

	_, err = svc.Submit(context.Background(), validRequest("mixed@example.com"), nil)
	assert.ErrorIs(t, err, domain.ErrDuplicateEmail,
		"any existing record with the email blocks a named submission")

	stored, err := repo.FindByEmail("mixed@example.com")
	require.NoError(t, err)
	assert.Len(t, stored, 1)
}

func TestSubmit_EmailNormalizedBeforeGuard(t *testing.T) {
	svc, _, _ := setupService(t, nil, true)

	_, err := svc.Submit(context.Background(), validRequest("Case@Example.com"), nil)
	require.NoError(t, err)

	_, err = svc.Submit(context.Background(), validRequest("  case@example.com "), nil)
	assert.ErrorIs(t, err, domain.ErrDuplicateEmail)
}

func TestSubmit_SingleFailedPhotoAbortsWithNoRecord(t *testing.T) {
	svc, repo, _ := setupService(t, nil, true)

	_, err := svc.Submit(context.Background(),
		validRequest("photo@example.com"),
		[]PhotoInput{photo("broken.jpg", failMarker)},
	)
	assert.ErrorIs(t, err, domain.ErrPhotoUpload)

	stored, err := repo.FindByEmail("photo@example.com")
	require.NoError(t, err)
	assert.Empty(t, stored, "fail-closed: nothing may be persisted")
}

func TestSubmit_MultiPhotoFailOpenDropsOnlyFailedUpload(t *testing.T) {
	svc, _, store := setupService(t, nil, true)

	record, err := svc.Submit(context.Background(),
		validRequest("gallery@example.com"),
		[]PhotoInput{
			photo("one.jpg", "first photo"),
			photo("two.jpg", failMarker),
			photo("three.png", "third photo"),
		},
	)
	require.NoError(t, err)
	require.Len(t, record.PhotoURLs, 2)
	assert.Equal(t, "first photo", store.contentOf(record.PhotoURLs[0]))
	assert.Equal(t, "third photo", store.contentOf(record.PhotoURLs[1]))
}

func TestSubmit_MultiPhotoFailClosedAborts(t *testing.T) {
	svc, repo, _ := setupService(t, nil, false)

	_, err := svc.Submit(context.Background(),
		validRequest("strict@example.com"),
		[]PhotoInput{
			photo("one.jpg", "first photo"),
			photo("two.jpg", failMarker),
		},
	)
	assert.ErrorIs(t, err, domain.ErrPhotoUpload)

	stored, err := repo.FindByEmail("strict@example.com")
	require.NoError(t, err)
	assert.Empty(t, stored)
}

func TestSubmit_PhotoURLOrderMatchesInput(t *testing.T) {
	svc, _, store := setupService(t, nil, true)

	contents := []string{"alpha", "bravo", "charlie", "delta"}
	var photos []PhotoInput
	for i, c := range contents {
		photos = append(photos, photo(fmt.Sprintf("p%d.jpg", i), c))
	}

	record, err := svc.Submit(context.Background(), validRequest("ordered@example.com"), photos)
	require.NoError(t, err)
	require.Len(t, record.PhotoURLs, len(contents))
	for i, url := range record.PhotoURLs {
		assert.Equal(t, contents[i], store.contentOf(url), "URL %d must map to photo %d", i, i)
	}
}

func TestSubmit_ZeroLengthPhotosAreSkipped(t *testing.T) {
	svc, _, store := setupService(t, nil, true)

	record, err := svc.Submit(context.Background(),
		validRequest("empty@example.com"),
		[]PhotoInput{photo("empty.jpg", "")},
	)
	require.NoError(t, err)
	assert.Empty(t, record.PhotoURLs)
	assert.Equal(t, 0, store.uploads, "zero-length entries must not reach the store")
}

func TestSubmit_MailerFailureDoesNotFailSubmission(t *testing.T) {
	mailer := &fakeMailer{fail: true}
	svc, repo, _ := setupService(t, mailer, true)

	_, err := svc.Submit(context.Background(), validRequest("mail@example.com"), nil)
	require.NoError(t, err)

	stored, err := repo.FindByEmail("mail@example.com")
	require.NoError(t, err)
	assert.Len(t, stored, 1)

	assert.Eventually(t, func() bool { return mailer.callCount() == 1 },
		time.Second, 10*time.Millisecond, "notifier should be attempted exactly once")
}

func TestSubmit_ConfirmationSentToSubmitter(t *testing.T) {
	mailer := &fakeMailer{}
	svc, _, _ := setupService(t, mailer, true)

	_, err := svc.Submit(context.Background(), validRequest("confirm@example.com"), nil)
	require.NoError(t, err)

	assert.Eventually(t, func() bool {
		mailer.mu.Lock()
		defer mailer.mu.Unlock()
		return len(mailer.sent) == 1 && mailer.sent[0] == "confirm@example.com"
	}, time.Second, 10*time.Millisecond)
}

func TestSubmit_ValidationFailureHasNoSideEffects(t *testing.T) {
	mailer := &fakeMailer{}
	svc, repo, store := setupService(t, mailer, true)

	req := validRequest("invalid@example.com")
	req.Consent = false

	_, err := svc.Submit(context.Background(), req, []PhotoInput{photo("p.jpg", "data")})

	var ve *domain.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "consent", ve.Field)

	stored, err := repo.FindByEmail("invalid@example.com")
	require.NoError(t, err)
	assert.Empty(t, stored)
	assert.Equal(t, 0, store.uploads)
	assert.Equal(t, 0, mailer.callCount())
}

func TestDelete_RemovesBlobsThenRecord(t *testing.T) {
	svc, repo, store := setupService(t, nil, true)

	record, err := svc.Submit(context.Background(),
		validRequest("del@example.com"),
		[]PhotoInput{photo("keep.jpg", "photo bytes")},
	)
	require.NoError(t, err)
	require.Len(t, record.PhotoURLs, 1)

	require.NoError(t, svc.Delete(context.Background(), record.ID, nil))

	require.Len(t, store.removed, 1)
	assert.True(t, strings.HasSuffix(record.PhotoURLs[0], store.removed[0]),
		"removed object name must be the URL's last path segment")

	_, err = repo.FindByID(record.ID)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestDelete_UsesSuppliedURLs(t *testing.T) {
	svc, _, store := setupService(t, nil, true)

	record, err := svc.Submit(context.Background(), validRequest("supplied@example.com"), nil)
	require.NoError(t, err)

	err = svc.Delete(context.Background(), record.ID, []string{"https://store.example.com/feedback-photos/abc.jpg"})
	require.NoError(t, err)
	assert.Equal(t, []string{"abc.jpg"}, store.removed)
}

func TestDelete_BlobFailureLeavesRecordIntact(t *testing.T) {
	svc, repo, store := setupService(t, nil, true)

	record, err := svc.Submit(context.Background(),
		validRequest("safe@example.com"),
		[]PhotoInput{photo("keep.jpg", "photo bytes")},
	)
	require.NoError(t, err)

	store.removeErr = errors.New("storage offline")

	err = svc.Delete(context.Background(), record.ID, nil)
	assert.ErrorIs(t, err, domain.ErrBlobDelete)

	stored, err := repo.FindByID(record.ID)
	require.NoError(t, err, "record must survive a failed blob removal")
	assert.Equal(t, record.ID, stored.ID)
}

func TestDelete_SecondCallErrorsWithoutSideEffects(t *testing.T) {
	svc, _, store := setupService(t, nil, true)

	record, err := svc.Submit(context.Background(),
		validRequest("twice@example.com"),
		[]PhotoInput{photo("p.jpg", "photo bytes")},
	)
	require.NoError(t, err)

	require.NoError(t, svc.Delete(context.Background(), record.ID, nil))
	removedAfterFirst := len(store.removed)

	err = svc.Delete(context.Background(), record.ID, nil)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.Equal(t, removedAfterFirst, len(store.removed), "second delete must not touch the store")
}
