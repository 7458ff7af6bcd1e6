package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/sonvt1710/graylog2-server/internal/models"
	"github.com/sonvt1710/graylog2-server/internal/permissions"
	apperrors "github.com/sonvt1710/graylog2-server/pkg/errors"
	"github.com/sonvt1710/graylog2-server/pkg/grn"
)

var (
	// ErrEntityNotFound indicates the GRN is not registered.
	ErrEntityNotFound = apperrors.New("ENTITY_NOT_FOUND", "Entity not found", http.StatusNotFound)
	// ErrEntityExists signals a GRN that is already registered.
	ErrEntityExists = apperrors.New("ENTITY_EXISTS", "Entity already registered", http.StatusConflict)
	// ErrDependencyExists signals a dependency that is already declared.
	ErrDependencyExists = apperrors.New("DEPENDENCY_EXISTS", "Dependency already declared", http.StatusConflict)
)

// principalTypes are GRN types that receive grants and cannot be shared themselves.
var principalTypes = map[string]struct{}{
	grn.TypeUser:        {},
	grn.TypeTeam:        {},
	grn.TypeBuiltinTeam: {},
	grn.TypeGrant:       {},
}

// CreateEntityInput registers a shareable entity. Either GRN or Type is required; a missing
// entity id is generated.
type CreateEntityInput struct {
	GRN   string
	Type  string
	Title string
}

// ListEntitiesOptions controls pagination for entity listing.
type ListEntitiesOptions struct {
	Page     int
	PageSize int
	Type     string
}

// EntityService registers shareable entities and their dependencies.
type EntityService struct {
	db      *gorm.DB
	types   *grn.Registry
	checker GrantChecker
	now     func() time.Time
}

// NewEntityService constructs an EntityService.
func NewEntityService(db *gorm.DB, types *grn.Registry, checker GrantChecker) (*EntityService, error) {
	if db == nil {
		return nil, errors.New("entity service: db is required")
	}
	if types == nil {
		return nil, errors.New("entity service: grn registry is required")
	}
	if checker == nil {
		return nil, errors.New("entity service: grant checker is required")
	}
	return &EntityService{db: db, types: types, checker: checker, now: time.Now}, nil
}

// Create registers the entity and makes the creator its owner.
func (s *EntityService) Create(ctx context.Context, creatorID string, input CreateEntityInput) (*models.Entity, error) {
	ctx = ensureContext(ctx)

	creatorID = strings.TrimSpace(creatorID)
	if creatorID == "" {
		return nil, apperrors.ErrUnauthorized
	}

	title := strings.TrimSpace(input.Title)
	if title == "" {
		return nil, apperrors.NewBadRequest("title is required")
	}

	id, err := s.resolveGRN(input)
	if err != nil {
		return nil, err
	}

	entity := &models.Entity{GRN: id.String(), Type: id.Type, Title: title, CreatedBy: creatorID}
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(entity).Error; err != nil {
			return err
		}
		return tx.Create(&models.Grant{
			Grantee:    grn.New(grn.TypeUser, creatorID).String(),
			Capability: permissions.CapabilityOwn,
			Target:     entity.GRN,
			CreatedBy:  creatorID,
		}).Error
	})
	if err != nil {
		if isUniqueConstraintError(err) {
			return nil, ErrEntityExists
		}
		return nil, fmt.Errorf("entity service: create entity: %w", err)
	}
	return entity, nil
}

func (s *EntityService) resolveGRN(input CreateEntityInput) (grn.GRN, error) {
	var (
		id  grn.GRN
		err error
	)
	if value := strings.TrimSpace(input.GRN); value != "" {
		id, err = s.types.Parse(value)
	} else {
		id, err = s.types.New(strings.TrimSpace(input.Type), uuid.NewString())
	}
	if err != nil {
		return grn.GRN{}, apperrors.NewBadRequest(err.Error())
	}
	if _, ok := principalTypes[id.Type]; ok {
		return grn.GRN{}, apperrors.NewBadRequest(fmt.Sprintf("entities of type %q cannot be shared", id.Type))
	}
	return id, nil
}

// Get loads a registered entity.
func (s *EntityService) Get(ctx context.Context, entityGRN string) (*models.Entity, error) {
	ctx = ensureContext(ctx)

	parsed, err := grn.Parse(entityGRN)
	if err != nil {
		return nil, apperrors.NewBadRequest(err.Error())
	}

	var entity models.Entity
	err = s.db.WithContext(ctx).First(&entity, "grn = ?", parsed.String()).Error
	if isNotFound(err) {
		return nil, ErrEntityNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("entity service: get entity: %w", err)
	}
	return &entity, nil
}

// AddDependency declares that entityGRN relies on dependencyGRN. The requester must be able
// to manage the entity.
func (s *EntityService) AddDependency(ctx context.Context, requesterID, entityGRN, dependencyGRN string) (*models.EntityDependency, error) {
	ctx = ensureContext(ctx)

	entity, err := s.Get(ctx, entityGRN)
	if err != nil {
		return nil, err
	}
	dependency, err := s.Get(ctx, dependencyGRN)
	if err != nil {
		return nil, err
	}
	if entity.GRN == dependency.GRN {
		return nil, apperrors.NewBadRequest("an entity cannot depend on itself")
	}

	ok, err := s.checker.Check(ctx, requesterID, entity.GRN, permissions.CapabilityManage)
	if err != nil {
		return nil, fmt.Errorf("entity service: check access: %w", err)
	}
	if !ok {
		return nil, apperrors.ErrForbidden
	}

	record := &models.EntityDependency{EntityGRN: entity.GRN, DependencyGRN: dependency.GRN}
	if err := s.db.WithContext(ctx).Create(record).Error; err != nil {
		if isUniqueConstraintError(err) {
			return nil, ErrDependencyExists
		}
		return nil, fmt.Errorf("entity service: add dependency: %w", err)
	}
	return record, nil
}

// Dependencies returns the registered entities entityGRN depends on, ordered by title.
func (s *EntityService) Dependencies(ctx context.Context, entityGRN string) ([]models.Entity, error) {
	ctx = ensureContext(ctx)

	var deps []models.Entity
	err := s.db.WithContext(ctx).
		Joins("JOIN entity_dependencies ON entity_dependencies.dependency_grn = entities.grn").
		Where("entity_dependencies.entity_grn = ?", entityGRN).
		Order("entities.title ASC").
		Find(&deps).Error
	if err != nil {
		return nil, fmt.Errorf("entity service: load dependencies: %w", err)
	}
	return deps, nil
}

// Owners returns the GRNs of grantees holding an unexpired own grant on target.
func (s *EntityService) Owners(ctx context.Context, target string) ([]string, error) {
	ctx = ensureContext(ctx)

	var owners []string
	err := s.db.WithContext(ctx).
		Model(&models.Grant{}).
		Where("target = ? AND capability = ?", target, permissions.CapabilityOwn).
		Where("(expires_at IS NULL OR expires_at > ?)", s.now().UTC()).
		Order("created_at ASC").
		Pluck("grantee", &owners).Error
	if err != nil {
		return nil, fmt.Errorf("entity service: load owners: %w", err)
	}
	return owners, nil
}

// List returns the entities the user holds any capability on. Root users see every entity.
func (s *EntityService) List(ctx context.Context, userID string, opts ListEntitiesOptions) ([]models.Entity, int64, error) {
	ctx = ensureContext(ctx)
	page, perPage := paginate(opts.Page, opts.PageSize, 200)

	var user models.User
	err := s.db.WithContext(ctx).Preload("Teams").First(&user, "id = ?", strings.TrimSpace(userID)).Error
	if isNotFound(err) {
		return nil, 0, apperrors.ErrUnauthorized
	}
	if err != nil {
		return nil, 0, fmt.Errorf("entity service: load user: %w", err)
	}

	query := s.db.WithContext(ctx).Model(&models.Entity{})
	if !user.IsRoot {
		visible := s.db.Model(&models.Grant{}).
			Select("target").
			Where("grantee IN ?", permissions.Principals(&user)).
			Where("(expires_at IS NULL OR expires_at > ?)", s.now().UTC())
		query = query.Where("grn IN (?)", visible)
	}
	if t := strings.TrimSpace(opts.Type); t != "" {
		query = query.Where("type = ?", t)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("entity service: count entities: %w", err)
	}

	var entities []models.Entity
	if err := query.Order("title ASC").
		Offset((page - 1) * perPage).
		Limit(perPage).
		Find(&entities).Error; err != nil {
		return nil, 0, fmt.Errorf("entity service: list entities: %w", err)
	}
	return entities, total, nil
}
