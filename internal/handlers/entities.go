package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/sonvt1710/graylog2-server/internal/services"
	"github.com/sonvt1710/graylog2-server/pkg/response"
)

// EntityHandler registers shareable entities and their dependencies.
type EntityHandler struct {
	svc *services.EntityService
}

type createEntityRequest struct {
	GRN   string `json:"grn" validate:"omitempty,grn"`
	Type  string `json:"type" validate:"omitempty,max=64"`
	Title string `json:"title" validate:"required,max=255"`
}

type addDependencyRequest struct {
	Dependency string `json:"dependency" validate:"required,grn"`
}

func NewEntityHandler(svc *services.EntityService) *EntityHandler {
	return &EntityHandler{svc: svc}
}

// POST /api/entities
func (h *EntityHandler) Create(c *gin.Context) {
	var body createEntityRequest
	if !bindAndValidate(c, &body) {
		return
	}

	entity, err := h.svc.Create(requestContext(c), currentUserID(c), services.CreateEntityInput{
		GRN:   body.GRN,
		Type:  body.Type,
		Title: body.Title,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusCreated, entity)
}

// GET /api/entities
func (h *EntityHandler) List(c *gin.Context) {
	page := parseIntQuery(c, "page", 1)
	perPage := parseIntQuery(c, "per_page", 50)

	entities, total, err := h.svc.List(requestContext(c), currentUserID(c), services.ListEntitiesOptions{
		Page:     page,
		PageSize: perPage,
		Type:     c.Query("type"),
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.SuccessWithMeta(c, http.StatusOK, entities, response.NewMeta(page, perPage, int(total)))
}

// GET /api/entities/:grn
func (h *EntityHandler) Get(c *gin.Context) {
	entity, err := h.svc.Get(requestContext(c), c.Param("grn"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, entity)
}

// POST /api/entities/:grn/dependencies
func (h *EntityHandler) AddDependency(c *gin.Context) {
	var body addDependencyRequest
	if !bindAndValidate(c, &body) {
		return
	}

	dependency, err := h.svc.AddDependency(requestContext(c), currentUserID(c), c.Param("grn"), body.Dependency)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusCreated, dependency)
}

// GET /api/entities/:grn/dependencies
func (h *EntityHandler) Dependencies(c *gin.Context) {
	deps, err := h.svc.Dependencies(requestContext(c), c.Param("grn"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, deps)
}
