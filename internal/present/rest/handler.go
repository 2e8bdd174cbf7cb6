package rest

import (
	"errors"
	"io"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/promptloom/promptloom/internal/domain"
	"github.com/promptloom/promptloom/internal/infra/content"
	"github.com/promptloom/promptloom/internal/present/rest/middleware"
	"github.com/promptloom/promptloom/internal/present/rest/presenter"
	"github.com/promptloom/promptloom/internal/service"
	"github.com/promptloom/promptloom/internal/usecase"
)

// maxUploadBytes bounds a single image upload.
const maxUploadBytes = 32 << 20

type Handler struct {
	gallery *usecase.GalleryUsecase
	signal  *service.SignalService
	blobs   *content.BlobStore
}

func NewHandler(
	gallery *usecase.GalleryUsecase,
	signal *service.SignalService,
	blobs *content.BlobStore,
) *Handler {
	return &Handler{
		gallery: gallery,
		signal:  signal,
		blobs:   blobs,
	}
}

func (h *Handler) RegisterRoutes(e *echo.Echo) {
	e.GET("/api/v1/images", h.handleList)
	e.POST("/api/v1/images", h.handleUpload)
	e.GET("/api/v1/images/:id", h.handleGet)
	e.PUT("/api/v1/images/:id", h.handleUpdate)
	e.DELETE("/api/v1/images/:id", h.handleDelete)
	e.POST("/api/v1/images/:id/like", h.handleLike)
	e.POST("/api/v1/images/:id/realize", h.handleRealize)
	e.GET("/api/v1/images/:id/lineage", h.handleLineage)
	e.POST("/api/v1/prompts", h.handleCreatePrompt)
	e.GET("/api/v1/tags", h.handleTags)
	e.GET("/api/v1/me", h.handleMe)
	e.GET("/content/:ref", h.handleContent)
	e.GET("/realtime", h.handleRealtime)
}

// recordPayload mirrors the collection's wire format for create and update
// requests.
type recordPayload struct {
	URL           string             `json:"url"`
	Title         string             `json:"title"`
	Description   string             `json:"description"`
	Tags          []string           `json:"tags"`
	AIPrompt      string             `json:"aiPrompt"`
	AIModel       string             `json:"aiModel"`
	AISettings    *domain.AISettings `json:"aiSettings"`
	ParentImageID string             `json:"parentImageId"`
	Likes         int                `json:"likes"`
	IsPlaceholder bool               `json:"isPlaceholder"`
}

func (h *Handler) handleList(c echo.Context) error {
	ctx := c.Request().Context()

	records := h.gallery.Search(ctx, c.QueryParam("search"))

	switch c.QueryParam("placeholder") {
	case "":
	case "true":
		records = filterPlaceholder(records, true)
	case "false":
		records = filterPlaceholder(records, false)
	default:
		return presenter.BadRequestMessage(c, "invalid placeholder parameter")
	}

	return presenter.OK(c, records)
}

func filterPlaceholder(records []domain.Record, placeholder bool) []domain.Record {
	out := make([]domain.Record, 0, len(records))
	for _, r := range records {
		if r.IsPlaceholder == placeholder {
			out = append(out, r)
		}
	}
	return out
}

func (h *Handler) handleGet(c echo.Context) error {
	record, err := h.gallery.Get(c.Request().Context(), c.Param("id"))
	if err != nil {
		return respondDomainError(c, err)
	}
	return presenter.OK(c, record)
}

func (h *Handler) handleLineage(c echo.Context) error {
	lineage, err := h.gallery.Lineage(c.Request().Context(), c.Param("id"))
	if err != nil {
		return respondDomainError(c, err)
	}
	return presenter.OK(c, lineage)
}

func (h *Handler) handleUpload(c echo.Context) error {
	ctx := c.Request().Context()
	actor := middleware.ActorFromContext(ctx)

	file, err := c.FormFile("file")
	if err != nil {
		return presenter.BadRequestMessage(c, "file is required")
	}
	if file.Size > maxUploadBytes {
		return presenter.BadRequestMessage(c, "file too large")
	}

	src, err := file.Open()
	if err != nil {
		return presenter.InternalError(c, err)
	}
	defer src.Close()

	data, err := io.ReadAll(io.LimitReader(src, maxUploadBytes))
	if err != nil {
		return presenter.InternalError(c, err)
	}

	record, err := h.gallery.Upload(ctx, actor, file.Filename, data)
	return respondMutation(c, record, err)
}

func (h *Handler) handleCreatePrompt(c echo.Context) error {
	ctx := c.Request().Context()
	actor := middleware.ActorFromContext(ctx)

	var payload recordPayload
	if err := c.Bind(&payload); err != nil {
		return presenter.BadRequest(c, err)
	}

	record, err := h.gallery.CreatePrompt(ctx, actor, usecase.CreateInput{
		Title:         payload.Title,
		Description:   payload.Description,
		Tags:          payload.Tags,
		AIPrompt:      payload.AIPrompt,
		AIModel:       payload.AIModel,
		AISettings:    payload.AISettings,
		ParentImageID: payload.ParentImageID,
	})
	return respondMutation(c, record, err)
}

func (h *Handler) handleUpdate(c echo.Context) error {
	ctx := c.Request().Context()
	actor := middleware.ActorFromContext(ctx)

	var payload recordPayload
	if err := c.Bind(&payload); err != nil {
		return presenter.BadRequest(c, err)
	}

	record, err := h.gallery.Update(ctx, actor, c.Param("id"), usecase.UpdateInput{
		URL:           payload.URL,
		Title:         payload.Title,
		Description:   payload.Description,
		Tags:          payload.Tags,
		AIPrompt:      payload.AIPrompt,
		AIModel:       payload.AIModel,
		AISettings:    payload.AISettings,
		ParentImageID: payload.ParentImageID,
		Likes:         payload.Likes,
		IsPlaceholder: payload.IsPlaceholder,
	})
	return respondMutation(c, record, err)
}

func (h *Handler) handleDelete(c echo.Context) error {
	ctx := c.Request().Context()
	actor := middleware.ActorFromContext(ctx)

	err := h.gallery.Delete(ctx, actor, c.Param("id"))
	if errors.Is(err, domain.ErrPersistence) {
		return presenter.OKWithWarning(c, echo.Map{"status": "ok"}, err)
	}
	if err != nil {
		return respondDomainError(c, err)
	}
	return presenter.OK(c, echo.Map{"status": "ok"})
}

func (h *Handler) handleLike(c echo.Context) error {
	ctx := c.Request().Context()
	actor := middleware.ActorFromContext(ctx)

	record, err := h.gallery.Like(ctx, actor, c.Param("id"))
	return respondMutation(c, record, err)
}

func (h *Handler) handleRealize(c echo.Context) error {
	ctx := c.Request().Context()
	actor := middleware.ActorFromContext(ctx)

	file, err := c.FormFile("file")
	if err != nil {
		return presenter.BadRequestMessage(c, "file is required")
	}
	if file.Size > maxUploadBytes {
		return presenter.BadRequestMessage(c, "file too large")
	}

	src, err := file.Open()
	if err != nil {
		return presenter.InternalError(c, err)
	}
	defer src.Close()

	data, err := io.ReadAll(io.LimitReader(src, maxUploadBytes))
	if err != nil {
		return presenter.InternalError(c, err)
	}

	record, err := h.gallery.Realize(ctx, actor, c.Param("id"), data)
	return respondMutation(c, record, err)
}

func (h *Handler) handleTags(c echo.Context) error {
	return presenter.OK(c, h.gallery.TagCounts(c.Request().Context()))
}

func (h *Handler) handleMe(c echo.Context) error {
	actor := middleware.ActorFromContext(c.Request().Context())
	if actor == nil {
		return presenter.Unauthorized(c, "not authenticated")
	}
	return presenter.OK(c, actor)
}

func (h *Handler) handleContent(c echo.Context) error {
	data, err := h.blobs.Open("blob:" + c.Param("ref"))
	if err != nil {
		return presenter.NotFound(c, "content not found")
	}
	return c.Blob(http.StatusOK, http.DetectContentType(data), data)
}

// respondMutation maps a mutation result to the wire: a persistence failure
// is a success with a warning (the in-memory state was updated), everything
// else follows the domain error taxonomy.
func respondMutation(c echo.Context, record domain.Record, err error) error {
	if errors.Is(err, domain.ErrPersistence) {
		return presenter.OKWithWarning(c, record, err)
	}
	if err != nil {
		return respondDomainError(c, err)
	}
	return presenter.OK(c, record)
}

func respondDomainError(c echo.Context, err error) error {
	switch {
	case errors.Is(err, domain.ErrNotAuthenticated):
		return presenter.Unauthorized(c, "not authenticated")
	case errors.Is(err, domain.ErrNotAuthorized):
		return presenter.Forbidden(c, "not authorized")
	case errors.Is(err, domain.ErrNotFound):
		return presenter.NotFound(c, err.Error())
	case errors.Is(err, domain.ErrCycle):
		return presenter.BadRequest(c, err)
	default:
		return presenter.InternalError(c, err)
	}
}
