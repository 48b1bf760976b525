package api

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/messagebroker/users-api/pkg/config"
	"github.com/messagebroker/users-api/pkg/observability/logger"
	"github.com/messagebroker/users-api/pkg/observability/metrics"
	"github.com/messagebroker/users-api/pkg/users"
)

// UserService is the domain contract the handlers depend on. The concrete
// implementation is users.Repository; tests substitute a stub.
type UserService interface {
	GetByEmail(ctx context.Context, email string) (*users.User, error)
	GetByDrupalUID(ctx context.Context, uid int64) (*users.User, error)
	Upsert(ctx context.Context, patch users.Patch) error
	SetBanned(ctx context.Context, email, reason, source string) error
	Delete(ctx context.Context, email string) (bool, error)
	List(ctx context.Context, filters users.ListFilters, page users.OffsetPage) ([]users.User, error)
	ListByDate(ctx context.Context, field users.DateField, spec users.DateSpec, filters users.ListFilters) ([]users.DateMatchResult, error)
	ListCursor(ctx context.Context, q users.CursorQuery) (*users.CursorResult, error)
}

// Handler serves the /user and /users routes.
type Handler struct {
	service  UserService
	logger   logger.Logger
	defaults users.OffsetDefaults
}

// NewHandler creates a Handler with pagination defaults from config.
func NewHandler(service UserService, log logger.Logger, pagination config.PaginationConfig) *Handler {
	return &Handler{
		service: service,
		logger:  log,
		defaults: users.OffsetDefaults{
			Limit:    pagination.DefaultLimit,
			PageSize: pagination.DefaultPageSize,
		},
	}
}

// Register mounts the handler's routes.
func (h *Handler) Register(r gin.IRoutes) {
	r.GET("/user", h.GetUser)
	r.POST("/user", h.PostUser)
	r.POST("/user/banned", h.PostUserBanned)
	r.DELETE("/user", h.DeleteUser)
	r.GET("/users", h.GetUsers)
}

// GetUser looks a user up by email or drupal_uid. Responds 200 with the
// document, 204 with an empty object when nothing matches, and 400 when
// neither key is supplied.
func (h *Handler) GetUser(c *gin.Context) {
	ctx := c.Request.Context()
	email := c.Query("email")
	rawUID := c.Query("drupal_uid")

	var (
		user *users.User
		err  error
	)
	switch {
	case email != "":
		user, err = h.service.GetByEmail(ctx, email)
	case rawUID != "":
		uid, parseErr := strconv.ParseInt(rawUID, 10, 64)
		if parseErr != nil {
			respondError(c, h.logger, users.NewClientError("invalid drupal_uid %q", rawUID))
			return
		}
		user, err = h.service.GetByDrupalUID(ctx, uid)
	default:
		respondError(c, h.logger, users.NewClientError("no email or drupal_uid specified"))
		return
	}

	if errors.Is(err, users.ErrNotFound) {
		c.JSON(http.StatusNoContent, gin.H{})
		return
	}
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

// PostUser creates or updates a user by email. Body keys outside the
// allow-list are logged and dropped.
func (h *Handler) PostUser(c *gin.Context) {
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		respondError(c, h.logger, users.NewClientError("unable to read request body"))
		return
	}

	patch, unknown, err := users.DecodePatch(body)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	if len(unknown) > 0 {
		h.logger.WithContext(c.Request.Context()).Warn("dropping unknown fields from user update",
			"fields", unknown, "email", patch.Email)
	}
	if patch.Email == "" {
		respondError(c, h.logger, users.NewClientError("no email specified"))
		return
	}

	if err := h.service.Upsert(c.Request.Context(), patch); err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, true)
}

// banRequest is the POST /user/banned body.
type banRequest struct {
	Email  string `json:"email"`
	Reason string `json:"reason"`
	Source string `json:"source"`
}

// PostUserBanned stamps the ban sub-record on a user, upserting if needed.
func (h *Handler) PostUserBanned(c *gin.Context) {
	var req banRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, h.logger, users.NewClientError("invalid request body: %v", err))
		return
	}
	if req.Email == "" {
		respondError(c, h.logger, users.NewClientError("no email specified"))
		return
	}

	if err := h.service.SetBanned(c.Request.Context(), req.Email, req.Reason, req.Source); err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, true)
}

// DeleteUser hard-deletes a user by email. Responds 304 when no document
// matched.
func (h *Handler) DeleteUser(c *gin.Context) {
	email := c.Query("email")
	if email == "" {
		respondError(c, h.logger, users.NewClientError("no email specified"))
		return
	}

	deleted, err := h.service.Delete(c.Request.Context(), email)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	if !deleted {
		c.Status(http.StatusNotModified)
		return
	}
	c.JSON(http.StatusOK, true)
}

// GetUsers dispatches bulk queries: cursor pages when type=cursor, a
// date-component lookup when birthdate or drupal_register_date is present,
// and an offset-paginated list otherwise.
func (h *Handler) GetUsers(c *gin.Context) {
	values := c.Request.URL.Query()
	filters := users.ParseListFilters(values)

	switch {
	case values.Get("type") == "cursor":
		h.listCursor(c, filters)
	case values.Get("birthdate") != "":
		h.listByDate(c, users.FieldBirthdate, values.Get("birthdate"), filters)
	case values.Get("drupal_register_date") != "":
		h.listByDate(c, users.FieldDrupalRegisterDate, values.Get("drupal_register_date"), filters)
	default:
		h.listOffset(c, filters)
	}
}

// offsetListResponse is the offset-paginated list body.
type offsetListResponse struct {
	Page     int          `json:"page"`
	PageSize int          `json:"pageSize"`
	Limit    int          `json:"limit"`
	Results  []users.User `json:"results"`
}

func (h *Handler) listOffset(c *gin.Context, filters users.ListFilters) {
	page, err := users.ResolveOffsetPage(c.Request.URL.Query(), h.defaults)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	start := time.Now()
	results, err := h.service.List(c.Request.Context(), filters, page)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	metrics.RecordBulkQuery("offset", time.Since(start))

	c.JSON(http.StatusOK, offsetListResponse{
		Page:     page.Page,
		PageSize: page.PageSize,
		Limit:    page.Limit,
		Results:  results,
	})
}

func (h *Handler) listByDate(c *gin.Context, field users.DateField, rawSpec string, filters users.ListFilters) {
	spec, err := users.ParseDateSpec(rawSpec)
	if err != nil {
		// Malformed specs get a 400 with an empty result set; the store
		// is never queried.
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "bad_request",
			"message": err.Error(),
			"results": []users.DateMatchResult{},
		})
		return
	}

	start := time.Now()
	results, err := h.service.ListByDate(c.Request.Context(), field, spec, filters)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	metrics.RecordBulkQuery("date", time.Since(start))

	c.JSON(http.StatusOK, results)
}

// cursorListResponse is the cursor-paginated list body.
type cursorListResponse struct {
	Results []users.User     `json:"results"`
	Meta    users.CursorMeta `json:"meta"`
}

func (h *Handler) listCursor(c *gin.Context, filters users.ListFilters) {
	q, err := users.ResolveCursorQuery(c.Request.URL.Query(), filters)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	result, err := h.service.ListCursor(c.Request.Context(), q)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	metrics.RecordBulkQuery("cursor", result.Elapsed)

	c.JSON(http.StatusOK, cursorListResponse{
		Results: result.Users,
		Meta:    users.BuildCursorMeta(q, result, c.Request.URL.Path),
	})
}
