package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/sonvt1710/graylog2-server/internal/services"
	"github.com/sonvt1710/graylog2-server/internal/shares"
	apperrors "github.com/sonvt1710/graylog2-server/pkg/errors"
	"github.com/sonvt1710/graylog2-server/pkg/logger"
	"github.com/sonvt1710/graylog2-server/pkg/response"
)

// EntityShareHandler serves the prepare and update endpoints of the sharing dialog.
type EntityShareHandler struct {
	svc *services.EntityShareService
}

// shareRequest is the body of prepare and update. A missing or null selection asks prepare
// for the persisted one.
type shareRequest struct {
	SelectedGranteeCapabilities *shares.GranteeCapabilities `json:"selected_grantee_capabilities"`
	Expirations                 map[string]time.Time        `json:"expirations,omitempty" validate:"omitempty,dive,keys,grn,endkeys,required"`
}

func (r shareRequest) toService() services.ShareRequest {
	return services.ShareRequest{
		Selection:   r.SelectedGranteeCapabilities,
		Expirations: r.Expirations,
	}
}

func NewEntityShareHandler(svc *services.EntityShareService) *EntityShareHandler {
	return &EntityShareHandler{svc: svc}
}

// shareFailure renders client faults as they are and replaces storage failures with message.
func shareFailure(c *gin.Context, err error, message string) {
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		response.Error(c, err)
		return
	}

	logger.Error(message,
		zap.String("entity", c.Param("grn")),
		zap.String("user_id", currentUserID(c)),
		zap.Error(err),
	)
	response.Error(c, apperrors.Wrap(err, message))
}

// POST /api/authz/shares/entities/:grn/prepare
func (h *EntityShareHandler) Prepare(c *gin.Context) {
	var body shareRequest
	if !bindOptional(c, &body) {
		return
	}

	state, err := h.svc.Prepare(requestContext(c), currentUserID(c), c.Param("grn"), body.toService())
	if err != nil {
		shareFailure(c, err, "Failed to prepare sharing state")
		return
	}
	response.Success(c, http.StatusOK, state)
}

// POST /api/authz/shares/entities/:grn
//
// A rejected selection answers 400 and still carries the state with its validation result.
func (h *EntityShareHandler) Update(c *gin.Context) {
	var body shareRequest
	if !bindAndValidate(c, &body) {
		return
	}

	state, err := h.svc.Update(requestContext(c), currentUserID(c), c.Param("grn"), body.toService())
	if errors.Is(err, services.ErrShareValidationFailed) && state != nil {
		response.ErrorWithData(c, err, state)
		return
	}
	if err != nil {
		shareFailure(c, err, "Failed to update shares")
		return
	}
	response.Success(c, http.StatusOK, state)
}

// GET /api/authz/shares/entities/:grn/history
func (h *EntityShareHandler) History(c *gin.Context) {
	page := parseIntQuery(c, "page", 1)
	perPage := parseIntQuery(c, "per_page", 50)

	audits, total, err := h.svc.History(requestContext(c), currentUserID(c), c.Param("grn"), services.ShareAuditListOptions{
		Page:     page,
		PageSize: perPage,
	})
	if err != nil {
		shareFailure(c, err, "Failed to load sharing history")
		return
	}
	response.SuccessWithMeta(c, http.StatusOK, audits, response.NewMeta(page, perPage, int(total)))
}

// GET /api/authz/shares/grantees
func (h *EntityShareHandler) Grantees(c *gin.Context) {
	grantees, err := h.svc.AvailableGrantees(requestContext(c))
	if err != nil {
		shareFailure(c, err, "Failed to list grantees")
		return
	}
	response.Success(c, http.StatusOK, grantees)
}
