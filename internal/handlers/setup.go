package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/sonvt1710/graylog2-server/internal/services"
	"github.com/sonvt1710/graylog2-server/pkg/errors"
	"github.com/sonvt1710/graylog2-server/pkg/response"
)

var errAlreadyInitialized = errors.New("ALREADY_INITIALIZED", "System already initialized", http.StatusConflict)

type SetupHandler struct {
	users *services.UserService
}

func NewSetupHandler(users *services.UserService) *SetupHandler {
	return &SetupHandler{users: users}
}

type initializeRequest struct {
	Username  string `json:"username" validate:"required,min=3,max=64"`
	Email     string `json:"email" validate:"required,email"`
	Password  string `json:"password" validate:"required,min=8"`
	FirstName string `json:"first_name" validate:"omitempty,max=128"`
	LastName  string `json:"last_name" validate:"omitempty,max=128"`
}

// GET /api/setup/status
func (h *SetupHandler) Status(c *gin.Context) {
	count, err := h.users.Count(requestContext(c))
	if err != nil {
		response.Error(c, errors.ErrInternalServer.WithInternal(err))
		return
	}
	response.Success(c, http.StatusOK, gin.H{"initialized": count > 0})
}

// POST /api/setup/initialize creates the first root user.
func (h *SetupHandler) Initialize(c *gin.Context) {
	var body initializeRequest
	if !bindAndValidate(c, &body) {
		return
	}

	count, err := h.users.Count(requestContext(c))
	if err != nil {
		response.Error(c, errors.ErrInternalServer.WithInternal(err))
		return
	}
	if count > 0 {
		response.Error(c, errAlreadyInitialized)
		return
	}

	user, err := h.users.Create(requestContext(c), services.CreateUserInput{
		Username:  body.Username,
		Email:     body.Email,
		Password:  body.Password,
		FirstName: body.FirstName,
		LastName:  body.LastName,
		IsRoot:    true,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusCreated, gin.H{"root_user_id": user.ID})
}
