package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"

	"github.com/promptloom/promptloom/internal/domain"
	"github.com/promptloom/promptloom/internal/infra/content"
	"github.com/promptloom/promptloom/internal/present/rest/middleware"
	"github.com/promptloom/promptloom/internal/service"
	"github.com/promptloom/promptloom/internal/store"
	"github.com/promptloom/promptloom/internal/usecase"
)

const testSecret = "handler-test-secret"

// --- mocks ---

type mockSnapshotRepo struct {
	saves   int
	failing bool
}

func (m *mockSnapshotRepo) Load(ctx context.Context) ([]domain.Record, error) {
	return nil, nil
}

func (m *mockSnapshotRepo) Save(ctx context.Context, records []domain.Record) error {
	if m.failing {
		return errors.New("disk on fire")
	}
	m.saves++
	return nil
}

type env struct {
	e       *echo.Echo
	gallery *usecase.GalleryUsecase
	repo    *mockSnapshotRepo
}

func newEnv(t *testing.T) *env {
	t.Helper()

	blobs, err := content.NewBlobStore(t.TempDir())
	if err != nil {
		t.Fatalf("blob store: %v", err)
	}

	repo := &mockSnapshotRepo{}
	gallery := usecase.NewGalleryUsecase(store.New(nil), repo, blobs, nil)

	e := echo.New()
	auth := middleware.NewAuthMiddleware(service.NewAuthService(testSecret, nil))
	e.Use(auth.IdentifyActor)

	h := NewHandler(gallery, nil, blobs)
	h.RegisterRoutes(e)

	return &env{e: e, gallery: gallery, repo: repo}
}

func token(t *testing.T, userID string) string {
	t.Helper()
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": userID,
		"exp": time.Now().Add(time.Hour).Unix(),
	}).SignedString([]byte(testSecret))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return signed
}

func (v *env) do(t *testing.T, method, path, bearer string, body io.Reader, contentType string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, body)
	if contentType != "" {
		req.Header.Set(echo.HeaderContentType, contentType)
	}
	if bearer != "" {
		req.Header.Set("authorization", "Bearer "+bearer)
	}
	res := httptest.NewRecorder()
	v.e.ServeHTTP(res, req)
	return res
}

func (v *env) doJSON(t *testing.T, method, path, bearer string, payload any) *httptest.ResponseRecorder {
	t.Helper()
	body, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal payload: %v", err)
	}
	return v.do(t, method, path, bearer, bytes.NewReader(body), echo.MIMEApplicationJSON)
}

func multipartFile(t *testing.T, filename string, data []byte) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	part, err := w.CreateFormFile("file", filename)
	if err != nil {
		t.Fatalf("create form file: %v", err)
	}
	if _, err := part.Write(data); err != nil {
		t.Fatalf("write form file: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("close form: %v", err)
	}
	return &buf, w.FormDataContentType()
}

func decodeRecord(t *testing.T, res *httptest.ResponseRecorder) domain.Record {
	t.Helper()
	var record domain.Record
	if err := json.Unmarshal(res.Body.Bytes(), &record); err != nil {
		t.Fatalf("decode record: %v (body %s)", err, res.Body.String())
	}
	return record
}

// --- tests ---

func TestCreatePromptRequiresAuth(t *testing.T) {
	v := newEnv(t)

	res := v.doJSON(t, http.MethodPost, "/api/v1/prompts", "", map[string]any{"title": "x"})
	if res.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", res.Code)
	}
}

func TestCreatePromptAndFetch(t *testing.T) {
	v := newEnv(t)
	bearer := token(t, "u1")

	res := v.doJSON(t, http.MethodPost, "/api/v1/prompts", bearer, map[string]any{
		"title":    "misty forest",
		"aiPrompt": "a misty forest at dawn",
		"aiModel":  "sd-xl",
		"tags":     []string{"forest"},
	})
	if res.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", res.Code, res.Body.String())
	}

	created := decodeRecord(t, res)
	if !created.IsPlaceholder || created.URL != domain.PlaceholderURL {
		t.Fatalf("expected placeholder record, got %+v", created)
	}
	if created.UserID != "u1" {
		t.Fatalf("expected owner stamped from token, got %s", created.UserID)
	}

	res = v.do(t, http.MethodGet, "/api/v1/images/"+created.ID, "", nil, "")
	if res.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", res.Code)
	}
}

func TestUploadStoresContentAndServesIt(t *testing.T) {
	v := newEnv(t)
	bearer := token(t, "u1")

	body, contentType := multipartFile(t, "sunset.png", []byte("fake png bytes"))
	res := v.do(t, http.MethodPost, "/api/v1/images", bearer, body, contentType)
	if res.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", res.Code, res.Body.String())
	}

	record := decodeRecord(t, res)
	if record.Title != "sunset" {
		t.Fatalf("expected title from filename, got %s", record.Title)
	}
	if len(record.URL) < 6 || record.URL[:5] != "blob:" {
		t.Fatalf("expected blob reference, got %s", record.URL)
	}

	res = v.do(t, http.MethodGet, "/content/"+record.URL[5:], "", nil, "")
	if res.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", res.Code)
	}
	if res.Body.String() != "fake png bytes" {
		t.Fatalf("served content mismatch")
	}
}

func TestUpdateByNonOwnerForbidden(t *testing.T) {
	v := newEnv(t)
	ctx := context.Background()

	owner := &domain.Actor{ID: "u1"}
	rec, err := v.gallery.Create(ctx, owner, usecase.CreateInput{Title: "mine"})
	if err != nil {
		t.Fatalf("seed create failed: %v", err)
	}

	res := v.doJSON(t, http.MethodPut, "/api/v1/images/"+rec.ID, token(t, "u2"), map[string]any{
		"title": "stolen",
	})
	if res.Code != http.StatusForbidden {
		t.Fatalf("expected 403 got %d", res.Code)
	}
}

func TestLikeIncrements(t *testing.T) {
	v := newEnv(t)
	bearer := token(t, "u1")

	res := v.doJSON(t, http.MethodPost, "/api/v1/prompts", bearer, map[string]any{"title": "likeable"})
	created := decodeRecord(t, res)

	res = v.do(t, http.MethodPost, "/api/v1/images/"+created.ID+"/like", bearer, nil, "")
	if res.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", res.Code)
	}
	if decodeRecord(t, res).Likes != 1 {
		t.Fatalf("expected 1 like")
	}

	res = v.do(t, http.MethodPost, "/api/v1/images/"+created.ID+"/like", bearer, nil, "")
	if decodeRecord(t, res).Likes != 2 {
		t.Fatalf("expected 2 likes")
	}
}

func TestRealizePlaceholder(t *testing.T) {
	v := newEnv(t)
	bearer := token(t, "u1")

	res := v.doJSON(t, http.MethodPost, "/api/v1/prompts", bearer, map[string]any{"title": "prompt"})
	created := decodeRecord(t, res)

	body, contentType := multipartFile(t, "result.png", []byte("generated"))
	res = v.do(t, http.MethodPost, "/api/v1/images/"+created.ID+"/realize", bearer, body, contentType)
	if res.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", res.Code, res.Body.String())
	}

	realized := decodeRecord(t, res)
	if realized.ID != created.ID {
		t.Fatalf("realize must keep the id")
	}
	if realized.IsPlaceholder {
		t.Fatalf("record still a placeholder")
	}
}

func TestDeleteRemovesRecord(t *testing.T) {
	v := newEnv(t)
	bearer := token(t, "u1")

	res := v.doJSON(t, http.MethodPost, "/api/v1/prompts", bearer, map[string]any{"title": "doomed"})
	created := decodeRecord(t, res)

	res = v.do(t, http.MethodDelete, "/api/v1/images/"+created.ID, bearer, nil, "")
	if res.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", res.Code)
	}

	res = v.do(t, http.MethodGet, "/api/v1/images/"+created.ID, "", nil, "")
	if res.Code != http.StatusNotFound {
		t.Fatalf("expected 404 after delete got %d", res.Code)
	}
}

func TestLineageEndpoint(t *testing.T) {
	v := newEnv(t)
	ctx := context.Background()
	owner := &domain.Actor{ID: "u1"}

	parent, _ := v.gallery.Create(ctx, owner, usecase.CreateInput{Title: "parent"})
	child, _ := v.gallery.Create(ctx, owner, usecase.CreateInput{Title: "child", ParentImageID: parent.ID})

	res := v.do(t, http.MethodGet, "/api/v1/images/"+child.ID+"/lineage", "", nil, "")
	if res.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", res.Code)
	}

	var lineage domain.Lineage
	if err := json.Unmarshal(res.Body.Bytes(), &lineage); err != nil {
		t.Fatalf("decode lineage: %v", err)
	}
	if lineage.Parent == nil || lineage.Parent.ID != parent.ID {
		t.Fatalf("expected parent in lineage view")
	}

	res = v.do(t, http.MethodGet, "/api/v1/images/missing/lineage", "", nil, "")
	if res.Code != http.StatusNotFound {
		t.Fatalf("expected 404 got %d", res.Code)
	}
}

func TestListWithSearchAndPlaceholderFilter(t *testing.T) {
	v := newEnv(t)
	ctx := context.Background()
	owner := &domain.Actor{ID: "u1"}

	_, _ = v.gallery.Create(ctx, owner, usecase.CreateInput{Title: "Cat nap"})
	_, _ = v.gallery.CreatePrompt(ctx, owner, usecase.CreateInput{Title: "cat prompt"})

	res := v.do(t, http.MethodGet, "/api/v1/images?search=CAT&placeholder=true", "", nil, "")
	if res.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", res.Code)
	}
	var records []domain.Record
	if err := json.Unmarshal(res.Body.Bytes(), &records); err != nil {
		t.Fatalf("decode list: %v", err)
	}
	if len(records) != 1 || records[0].Title != "cat prompt" {
		t.Fatalf("unexpected filter result %+v", records)
	}

	res = v.do(t, http.MethodGet, "/api/v1/images?placeholder=maybe", "", nil, "")
	if res.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", res.Code)
	}
}

func TestPersistenceFailureSurfacesWarning(t *testing.T) {
	v := newEnv(t)
	v.repo.failing = true
	bearer := token(t, "u1")

	res := v.doJSON(t, http.MethodPost, "/api/v1/prompts", bearer, map[string]any{"title": "volatile"})
	if res.Code != http.StatusOK {
		t.Fatalf("persistence failure must not fail the mutation, got %d", res.Code)
	}

	var body map[string]any
	if err := json.Unmarshal(res.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if _, ok := body["warning"]; !ok {
		t.Fatalf("expected warning field, got %s", res.Body.String())
	}
}

func TestMeEndpoint(t *testing.T) {
	v := newEnv(t)

	res := v.do(t, http.MethodGet, "/api/v1/me", "", nil, "")
	if res.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", res.Code)
	}

	res = v.do(t, http.MethodGet, "/api/v1/me", token(t, "u1"), nil, "")
	if res.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", res.Code)
	}
	var actor domain.Actor
	if err := json.Unmarshal(res.Body.Bytes(), &actor); err != nil {
		t.Fatalf("decode actor: %v", err)
	}
	if actor.ID != "u1" {
		t.Fatalf("unexpected actor %+v", actor)
	}
}

func TestTagsEndpointCountsInFirstSeenOrder(t *testing.T) {
	v := newEnv(t)
	ctx := context.Background()
	owner := &domain.Actor{ID: "u1"}

	_, _ = v.gallery.Create(ctx, owner, usecase.CreateInput{Title: "b", Tags: []string{"forest"}})
	_, _ = v.gallery.Create(ctx, owner, usecase.CreateInput{Title: "a", Tags: []string{"sunset", "Forest"}})

	res := v.do(t, http.MethodGet, "/api/v1/tags", "", nil, "")
	if res.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", res.Code)
	}

	// Records are newest-first, so "sunset" is seen before "forest".
	want := `{"sunset":1,"Forest":2}`
	if res.Body.String() != want+"\n" && res.Body.String() != want {
		t.Fatalf("expected %s got %s", want, res.Body.String())
	}
}
