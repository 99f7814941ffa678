package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image/color"
	"io"
	"mime/multipart"
	"net/textproto"
	"path"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/disintegration/imaging"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/noah-isme/art-exam-api/internal/models"
	"github.com/noah-isme/art-exam-api/internal/repository"
	"github.com/noah-isme/art-exam-api/pkg/storage"
)

func testLogger() zerolog.Logger {
	return zerolog.Nop()
}

func testValidator() *validator.Validate {
	return validator.New(validator.WithRequiredStructEnabled())
}

type studentRepoStub struct {
	students     map[uint]models.Student
	userStatuses map[uint]string
	nextID       uint
}

func newStudentRepoStub(students ...models.Student) *studentRepoStub {
	repo := &studentRepoStub{students: map[uint]models.Student{}, userStatuses: map[uint]string{}}
	for _, student := range students {
		repo.students[student.ID] = student
		if student.ID > repo.nextID {
			repo.nextID = student.ID
		}
	}
	return repo
}

func (r *studentRepoStub) GetByID(ctx context.Context, id uint) (models.Student, error) {
	student, ok := r.students[id]
	if !ok {
		return models.Student{}, gorm.ErrRecordNotFound
	}
	return student, nil
}

func (r *studentRepoStub) GetByUserID(ctx context.Context, userID uint) (models.Student, error) {
	for _, student := range r.students {
		if student.UserID == userID {
			return student, nil
		}
	}
	return models.Student{}, gorm.ErrRecordNotFound
}

func (r *studentRepoStub) Create(ctx context.Context, student *models.Student, userStatus string) error {
	r.nextID++
	student.ID = r.nextID
	student.CreatedAt = time.Now()
	student.UpdatedAt = student.CreatedAt
	r.students[student.ID] = *student
	r.userStatuses[student.UserID] = userStatus
	return nil
}

func (r *studentRepoStub) Update(ctx context.Context, id uint, updates map[string]interface{}) (models.Student, error) {
	student, ok := r.students[id]
	if !ok {
		return models.Student{}, gorm.ErrRecordNotFound
	}
	for key, value := range updates {
		switch key {
		case "full_name":
			student.FullName = value.(string)
		case "photo_path":
			student.PhotoPath = value.(string)
		}
	}
	r.students[id] = student
	return student, nil
}

func (r *studentRepoStub) FindConflicts(ctx context.Context, fields repository.StudentUniqueFields, excludeID uint) ([]string, error) {
	var conflicts []string
	seen := map[string]bool{}
	for _, student := range r.students {
		if student.ID == excludeID {
			continue
		}
		if fields.NationalID != "" && student.NationalID == fields.NationalID {
			seen["national_id"] = true
		}
		if fields.SeatNumber != 0 && student.SeatNumber == fields.SeatNumber {
			seen["seat_number"] = true
		}
		if fields.PhoneNumber != "" && student.PhoneNumber == fields.PhoneNumber {
			seen["phone_number"] = true
		}
	}
	for _, field := range []string{"national_id", "seat_number", "phone_number"} {
		if seen[field] {
			conflicts = append(conflicts, field)
		}
	}
	return conflicts, nil
}

type examItemRepoStub struct {
	items     map[uint]models.ExamItem
	listCalls int
	nextID    uint
}

func newExamItemRepoStub(items ...models.ExamItem) *examItemRepoStub {
	repo := &examItemRepoStub{items: map[uint]models.ExamItem{}}
	for _, item := range items {
		repo.items[item.ID] = item
		if item.ID > repo.nextID {
			repo.nextID = item.ID
		}
	}
	return repo
}

func (r *examItemRepoStub) List(ctx context.Context, filter repository.ExamItemFilter) ([]models.ExamItem, int64, error) {
	r.listCalls++
	var items []models.ExamItem
	for _, item := range r.items {
		if filter.CollegeID != nil && item.CollegeID != *filter.CollegeID {
			continue
		}
		if filter.Kind != "" && item.Kind != filter.Kind {
			continue
		}
		items = append(items, item)
	}
	sort.Slice(items, func(i, j int) bool { return items[i].ID < items[j].ID })
	return items, int64(len(items)), nil
}

func (r *examItemRepoStub) GetByID(ctx context.Context, id uint) (models.ExamItem, error) {
	item, ok := r.items[id]
	if !ok {
		return models.ExamItem{}, gorm.ErrRecordNotFound
	}
	return item, nil
}

func (r *examItemRepoStub) Create(ctx context.Context, item *models.ExamItem) error {
	r.nextID++
	item.ID = r.nextID
	r.items[item.ID] = *item
	return nil
}

func (r *examItemRepoStub) Delete(ctx context.Context, id uint) (models.ExamItem, error) {
	item, ok := r.items[id]
	if !ok {
		return models.ExamItem{}, gorm.ErrRecordNotFound
	}
	delete(r.items, id)
	return item, nil
}

type answerRepoStub struct {
	mu      sync.Mutex
	answers []models.Answer
}

func (r *answerRepoStub) Upsert(ctx context.Context, key repository.AnswerKey, apply repository.AnswerApplyFunc) (models.Answer, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i := range r.answers {
		if r.answers[i].StudentID == key.StudentID && r.answers[i].ExamItemID == key.ExamItemID {
			updated := r.answers[i]
			if err := apply(&updated, true); err != nil {
				return models.Answer{}, false, err
			}
			updated.UpdatedAt = time.Now()
			r.answers[i] = updated
			return updated, false, nil
		}
	}

	answer := models.Answer{StudentID: key.StudentID, ExamItemID: key.ExamItemID, Kind: key.Kind}
	if err := apply(&answer, false); err != nil {
		return models.Answer{}, false, err
	}
	answer.ID = uint(len(r.answers) + 1)
	answer.CreatedAt = time.Now()
	answer.UpdatedAt = answer.CreatedAt
	r.answers = append(r.answers, answer)
	return answer, true, nil
}

func (r *answerRepoStub) GetByID(ctx context.Context, id uint) (models.Answer, error) {
	for _, answer := range r.answers {
		if answer.ID == id {
			return answer, nil
		}
	}
	return models.Answer{}, gorm.ErrRecordNotFound
}

func (r *answerRepoStub) List(ctx context.Context, filter repository.AnswerFilter) ([]models.Answer, int64, error) {
	var answers []models.Answer
	for _, answer := range r.answers {
		if filter.StudentID != nil && answer.StudentID != *filter.StudentID {
			continue
		}
		if filter.Kind != "" && answer.Kind != filter.Kind {
			continue
		}
		answers = append(answers, answer)
	}
	return answers, int64(len(answers)), nil
}

func (r *answerRepoStub) UpdateScore(ctx context.Context, id uint, score int) (models.Answer, error) {
	for i := range r.answers {
		if r.answers[i].ID == id {
			r.answers[i].Score = score
			return r.answers[i], nil
		}
	}
	return models.Answer{}, gorm.ErrRecordNotFound
}

func (r *answerRepoStub) SumScoresByKind(ctx context.Context, studentID uint) (models.ScoreTotals, error) {
	totals := models.ScoreTotals{}
	for _, kind := range models.ExamKinds {
		totals[kind] = 0
	}
	for _, answer := range r.answers {
		if answer.StudentID == studentID {
			totals[answer.Kind] += answer.Score
		}
	}
	return totals, nil
}

type resultsRepoStub struct {
	answers  *answerRepoStub
	students *studentRepoStub
	stored   map[uint]models.StudentResults
}

func (r *resultsRepoStub) Recalculate(ctx context.Context, studentID uint, rule repository.LevelRule) (models.StudentResults, error) {
	if r.students != nil {
		if _, ok := r.students.students[studentID]; !ok {
			return models.StudentResults{}, gorm.ErrRecordNotFound
		}
	}

	totals, _ := r.answers.SumScoresByKind(ctx, studentID)
	results := models.StudentResults{
		StudentID:         studentID,
		MCQResult:         totals[models.ExamKindMCQ],
		HandDrawingResult: totals[models.ExamKindHand],
		DigitalArtResult:  totals[models.ExamKindDigital],
		TrialResult:       totals[models.ExamKindPractice],
	}
	results.UpToLevel = rule(results.Total())

	if r.stored == nil {
		r.stored = map[uint]models.StudentResults{}
	}
	r.stored[studentID] = results
	if r.students != nil {
		student := r.students.students[studentID]
		student.UpToLevel = results.UpToLevel
		r.students.students[studentID] = student
	}
	return results, nil
}

func (r *resultsRepoStub) GetByStudentID(ctx context.Context, studentID uint) (models.StudentResults, error) {
	results, ok := r.stored[studentID]
	if !ok {
		return models.StudentResults{}, gorm.ErrRecordNotFound
	}
	return results, nil
}

type collegeRepoStub struct {
	colleges map[uint]models.College
}

func newCollegeRepoStub(colleges ...models.College) *collegeRepoStub {
	repo := &collegeRepoStub{colleges: map[uint]models.College{}}
	for _, college := range colleges {
		repo.colleges[college.ID] = college
	}
	return repo
}

func (r *collegeRepoStub) List(ctx context.Context) ([]models.College, error) {
	var colleges []models.College
	for _, college := range r.colleges {
		colleges = append(colleges, college)
	}
	sort.Slice(colleges, func(i, j int) bool { return colleges[i].Name < colleges[j].Name })
	return colleges, nil
}

func (r *collegeRepoStub) GetByID(ctx context.Context, id uint) (models.College, error) {
	college, ok := r.colleges[id]
	if !ok {
		return models.College{}, gorm.ErrRecordNotFound
	}
	return college, nil
}

func (r *collegeRepoStub) Create(ctx context.Context, college *models.College) error {
	for _, existing := range r.colleges {
		if existing.Name == college.Name {
			return gorm.ErrDuplicatedKey
		}
	}
	college.ID = uint(len(r.colleges) + 1)
	r.colleges[college.ID] = *college
	return nil
}

func (r *collegeRepoStub) Delete(ctx context.Context, id uint) error {
	if _, ok := r.colleges[id]; !ok {
		return gorm.ErrRecordNotFound
	}
	delete(r.colleges, id)
	return nil
}

// memoryFileStore mimics the dated layout of the local store.
type memoryFileStore struct {
	mu    sync.Mutex
	files map[string][]byte
	day   string
}

func newMemoryFileStore() *memoryFileStore {
	return &memoryFileStore{files: map[string][]byte{}, day: "2024/05/01"}
}

func (m *memoryFileStore) key(category, name string) string {
	return path.Join(category, m.day, name)
}

func (m *memoryFileStore) Exists(ctx context.Context, category, name string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.files[m.key(category, name)]
	return ok, nil
}

func (m *memoryFileStore) Save(ctx context.Context, category, name string, reader io.Reader) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := m.key(category, name)
	if _, ok := m.files[key]; ok {
		return "", storage.ErrFileExists
	}
	payload, err := io.ReadAll(reader)
	if err != nil {
		return "", err
	}
	m.files[key] = payload
	return key, nil
}

type recordingPublisher struct {
	events []string
}

func (p *recordingPublisher) Publish(ctx context.Context, eventType string, payload interface{}) error {
	p.events = append(p.events, eventType)
	return nil
}

func pngBytes(t *testing.T, width, height int) []byte {
	t.Helper()
	img := imaging.New(width, height, color.NRGBA{R: 200, G: 100, B: 50, A: 255})
	buf := bytes.NewBuffer(nil)
	require.NoError(t, imaging.Encode(buf, img, imaging.PNG))
	return buf.Bytes()
}

func buildFileHeader(t *testing.T, filename string, content []byte) *multipart.FileHeader {
	t.Helper()
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	part, err := writer.CreatePart(textproto.MIMEHeader{
		"Content-Disposition": {fmt.Sprintf("form-data; name=\"file\"; filename=\"%s\"", filename)},
		"Content-Type":        {"application/octet-stream"},
	})
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	reader := multipart.NewReader(body, writer.Boundary())
	form, err := reader.ReadForm(int64(len(content)) + 1024)
	require.NoError(t, err)
	t.Cleanup(func() { _ = form.RemoveAll() })

	files := form.File["file"]
	require.Len(t, files, 1)
	return files[0]
}

func isValidationErr(err error) bool {
	var validationErrors validator.ValidationErrors
	return errors.As(err, &validationErrors)
}
