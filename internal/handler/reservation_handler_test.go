package handler

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tunecraft/tunecraft-api/internal/middleware"
	"github.com/tunecraft/tunecraft-api/internal/models"
	"github.com/tunecraft/tunecraft-api/internal/repository"
	"github.com/tunecraft/tunecraft-api/internal/service"
)

type fakeReservationStore struct {
	mu          sync.Mutex
	selections  map[string]models.Selection
	enrollments []models.Enrollment
	seats       map[string]int
	nextID      int
}

func (f *fakeReservationStore) CreateSelection(ctx context.Context, selection *models.Selection) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.selections == nil {
		f.selections = make(map[string]models.Selection)
	}
	f.nextID++
	selection.ID = "sel-" + strconv.Itoa(f.nextID)
	f.selections[selection.ID] = *selection
	return nil
}

func (f *fakeReservationStore) FindSelectionByID(ctx context.Context, id string) (*models.Selection, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if s, ok := f.selections[id]; ok {
		return &s, nil
	}
	return nil, sql.ErrNoRows
}

func (f *fakeReservationStore) DeleteSelection(ctx context.Context, id, studentEmail string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.selections[id]
	if !ok || s.StudentEmail != studentEmail {
		return false, nil
	}
	delete(f.selections, id)
	return true, nil
}

func (f *fakeReservationStore) ListSelectionsByStudent(ctx context.Context, studentEmail string) ([]models.Selection, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var list []models.Selection
	for _, s := range f.selections {
		if s.StudentEmail == studentEmail {
			list = append(list, s)
		}
	}
	return list, nil
}

func (f *fakeReservationStore) ListEnrollmentsByStudent(ctx context.Context, studentEmail string) ([]models.Enrollment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var list []models.Enrollment
	for _, e := range f.enrollments {
		if e.StudentEmail == studentEmail {
			list = append(list, e)
		}
	}
	return list, nil
}

func (f *fakeReservationStore) ExistsEnrollment(ctx context.Context, studentEmail, classID string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, e := range f.enrollments {
		if e.StudentEmail == studentEmail && e.ClassID == classID {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeReservationStore) Confirm(ctx context.Context, selectionID, studentEmail string) (*models.Enrollment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.selections[selectionID]
	if !ok || s.StudentEmail != studentEmail {
		return nil, repository.ErrSelectionNotFound
	}
	if f.seats[s.ClassID] <= 0 {
		return nil, repository.ErrNoSeats
	}
	delete(f.selections, selectionID)
	f.seats[s.ClassID]--
	enrollment := models.Enrollment{
		ID:           "enr-" + selectionID,
		ClassID:      s.ClassID,
		StudentEmail: s.StudentEmail,
		ClassName:    s.ClassName,
	}
	f.enrollments = append(f.enrollments, enrollment)
	return &enrollment, nil
}

type fakeCatalog struct {
	classes map[string]models.Class
}

func (f *fakeCatalog) FindByID(ctx context.Context, id string) (*models.Class, error) {
	if c, ok := f.classes[id]; ok {
		return &c, nil
	}
	return nil, sql.ErrNoRows
}

func newReservationRouter(store *fakeReservationStore, catalog *fakeCatalog, email string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	svc := service.NewReservationService(store, catalog, nil, nil, nil)
	h := NewReservationHandler(svc)

	router := gin.New()
	router.Use(func(c *gin.Context) {
		c.Set(middleware.ContextUserKey, &models.JWTClaims{Email: email})
	})
	router.POST("/selections", h.Select)
	router.GET("/selections", h.ListSelections)
	router.DELETE("/selections/:id", h.Cancel)
	router.POST("/selections/:id/confirm", h.Confirm)
	router.GET("/enrollments", h.ListEnrollments)
	return router
}

func TestSelectThenConfirmFlow(t *testing.T) {
	store := &fakeReservationStore{seats: map[string]int{"c1": 1}}
	catalog := &fakeCatalog{classes: map[string]models.Class{
		"c1": {ID: "c1", Name: "Guitar 101", Status: models.ClassStatusApproved, Price: 4900},
	}}
	router := newReservationRouter(store, catalog, "student@example.com")

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodPost, "/selections", bytes.NewBufferString(`{"class_id":"c1"}`))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusCreated, w.Code)

	var created struct {
		Data models.Selection `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	assert.Equal(t, "Guitar 101", created.Data.ClassName)

	w = httptest.NewRecorder()
	req, _ = http.NewRequest(http.MethodPost, "/selections/"+created.Data.ID+"/confirm", nil)
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusCreated, w.Code)

	w = httptest.NewRecorder()
	req, _ = http.NewRequest(http.MethodGet, "/enrollments", nil)
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	var enrollments struct {
		Data []models.Enrollment `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &enrollments))
	require.Len(t, enrollments.Data, 1)
	assert.Equal(t, "c1", enrollments.Data[0].ClassID)
	assert.Equal(t, 0, store.seats["c1"])
}

func TestSelectUnapprovedClassConflicts(t *testing.T) {
	catalog := &fakeCatalog{classes: map[string]models.Class{
		"c1": {ID: "c1", Status: models.ClassStatusPending},
	}}
	router := newReservationRouter(&fakeReservationStore{}, catalog, "student@example.com")

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodPost, "/selections", bytes.NewBufferString(`{"class_id":"c1"}`))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusConflict, w.Code)
}

func TestConfirmSoldOutClassConflicts(t *testing.T) {
	store := &fakeReservationStore{
		selections: map[string]models.Selection{
			"sel-1": {ID: "sel-1", ClassID: "c1", StudentEmail: "student@example.com"},
		},
		seats: map[string]int{"c1": 0},
	}
	router := newReservationRouter(store, &fakeCatalog{}, "student@example.com")

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodPost, "/selections/sel-1/confirm", nil)
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusConflict, w.Code)

	var resp struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "SOLD_OUT", resp.Error.Code)
}

func TestCancelOtherStudentsSelection(t *testing.T) {
	store := &fakeReservationStore{
		selections: map[string]models.Selection{
			"sel-1": {ID: "sel-1", ClassID: "c1", StudentEmail: "owner@example.com"},
		},
		seats: map[string]int{"c1": 5},
	}
	router := newReservationRouter(store, &fakeCatalog{}, "intruder@example.com")

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodDelete, "/selections/sel-1", nil)
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusForbidden, w.Code)
}
