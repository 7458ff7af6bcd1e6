package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"slices"
	"strings"
	"time"

	"github.com/r3labs/diff/v2"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/sonvt1710/graylog2-server/internal/models"
	"github.com/sonvt1710/graylog2-server/internal/permissions"
	"github.com/sonvt1710/graylog2-server/internal/shares"
	apperrors "github.com/sonvt1710/graylog2-server/pkg/errors"
	"github.com/sonvt1710/graylog2-server/pkg/logger"
	"github.com/sonvt1710/graylog2-server/pkg/metrics"
)

// SelectionField is the validation field that carries selection problems.
const SelectionField = "selected_grantee_capabilities"

// ErrShareValidationFailed is returned with the rejected state when an update does not
// pass validation.
var ErrShareValidationFailed = apperrors.New("SHARE_VALIDATION_FAILED", "Sharing request failed validation", http.StatusBadRequest)

// ShareRequest is the body of a prepare or update call. A nil Selection asks prepare for
// the persisted selection. Expirations optionally bound the grants written by an update.
type ShareRequest struct {
	Selection   *shares.GranteeCapabilities
	Expirations map[string]time.Time
}

// EntityShareService computes sharing states and applies selections as grants.
type EntityShareService struct {
	db           *gorm.DB
	checker      GrantChecker
	capabilities *permissions.Registry
	grantees     *GranteeService
	entities     *EntityService
	audits       *ShareAuditService
	log          *zap.Logger
	now          func() time.Time
}

// NewEntityShareService constructs an EntityShareService.
func NewEntityShareService(
	db *gorm.DB,
	checker GrantChecker,
	capabilities *permissions.Registry,
	grantees *GranteeService,
	entities *EntityService,
	audits *ShareAuditService,
) (*EntityShareService, error) {
	switch {
	case db == nil:
		return nil, errors.New("entity share service: db is required")
	case checker == nil:
		return nil, errors.New("entity share service: grant checker is required")
	case capabilities == nil:
		return nil, errors.New("entity share service: capability registry is required")
	case grantees == nil:
		return nil, errors.New("entity share service: grantee service is required")
	case entities == nil:
		return nil, errors.New("entity share service: entity service is required")
	case audits == nil:
		return nil, errors.New("entity share service: audit service is required")
	}

	return &EntityShareService{
		db:           db,
		checker:      checker,
		capabilities: capabilities,
		grantees:     grantees,
		entities:     entities,
		audits:       audits,
		log:          logger.WithModule("entity_shares"),
		now:          time.Now,
	}, nil
}

// Prepare returns the sharing state of an entity for the user. Only owners and root users
// may share.
func (s *EntityShareService) Prepare(ctx context.Context, userID, entityGRN string, req ShareRequest) (*shares.EntityShareState, error) {
	ctx = ensureContext(ctx)

	entity, err := s.authorize(ctx, userID, entityGRN)
	if err != nil {
		metrics.SharePrepares.WithLabelValues(entityType(entity), outcome(err)).Inc()
		return nil, err
	}

	state, err := s.buildState(ctx, userID, entity, req.Selection)
	if err != nil {
		metrics.SharePrepares.WithLabelValues(entity.Type, outcome(err)).Inc()
		return nil, err
	}

	result := "ok"
	if state.ValidationResult().Failed {
		result = "invalid"
	}
	metrics.SharePrepares.WithLabelValues(entity.Type, result).Inc()
	return state, nil
}

// Update validates the selection and turns it into grants. A failed validation returns the
// rejected state together with ErrShareValidationFailed and changes nothing. On success the
// returned state reflects the persisted grants.
func (s *EntityShareService) Update(ctx context.Context, userID, entityGRN string, req ShareRequest) (*shares.EntityShareState, error) {
	ctx = ensureContext(ctx)

	if req.Selection == nil {
		return nil, apperrors.NewBadRequest(SelectionField + " is required")
	}

	entity, err := s.authorize(ctx, userID, entityGRN)
	if err != nil {
		metrics.ShareUpdates.WithLabelValues(entityType(entity), outcome(err)).Inc()
		return nil, err
	}

	state, err := s.buildState(ctx, userID, entity, req.Selection)
	if err != nil {
		metrics.ShareUpdates.WithLabelValues(entity.Type, outcome(err)).Inc()
		return nil, err
	}
	if state.ValidationResult().Failed {
		metrics.ShareUpdates.WithLabelValues(entity.Type, "invalid").Inc()
		return state, ErrShareValidationFailed
	}

	expirations, err := s.normaliseExpirations(*req.Selection, req.Expirations)
	if err != nil {
		metrics.ShareUpdates.WithLabelValues(entity.Type, outcome(err)).Inc()
		return nil, err
	}

	changelog, err := selectionChanges(state.ActiveShares(), *req.Selection)
	if err != nil {
		metrics.ShareUpdates.WithLabelValues(entity.Type, "error").Inc()
		return nil, err
	}

	if err := s.apply(ctx, userID, entity.GRN, changelog, expirations); err != nil {
		metrics.ShareUpdates.WithLabelValues(entity.Type, "error").Inc()
		return nil, err
	}

	for _, change := range changelog {
		metrics.GrantChanges.WithLabelValues(change.Type).Inc()
	}
	metrics.ShareUpdates.WithLabelValues(entity.Type, "ok").Inc()
	s.log.Info("entity shares updated",
		zap.String("entity", entity.GRN),
		zap.String("user_id", userID),
		zap.Int("changes", len(changelog)),
	)

	return s.buildState(ctx, userID, entity, nil)
}

// History lists the applied sharing updates of an entity, newest first. Only owners and
// root users may read it.
func (s *EntityShareService) History(ctx context.Context, userID, entityGRN string, opts ShareAuditListOptions) ([]models.ShareAudit, int64, error) {
	ctx = ensureContext(ctx)

	entity, err := s.authorize(ctx, userID, entityGRN)
	if err != nil {
		return nil, 0, err
	}
	return s.audits.List(ctx, entity.GRN, opts)
}

// AvailableGrantees returns the grantees an entity can be shared with in display order.
func (s *EntityShareService) AvailableGrantees(ctx context.Context) ([]shares.Grantee, error) {
	available, err := s.grantees.Available(ensureContext(ctx))
	if err != nil {
		return nil, err
	}
	return shares.SortAndOrderGrantees(available, nil), nil
}

func (s *EntityShareService) authorize(ctx context.Context, userID, entityGRN string) (*models.Entity, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, apperrors.ErrUnauthorized
	}

	entity, err := s.entities.Get(ctx, entityGRN)
	if err != nil {
		return nil, err
	}

	ok, err := s.checker.Check(ctx, userID, entity.GRN, permissions.CapabilityOwn)
	if err != nil {
		return entity, fmt.Errorf("entity share service: check access: %w", err)
	}
	if !ok {
		return entity, apperrors.ErrForbidden.WithMessage("Only owners may share this entity")
	}
	return entity, nil
}

// buildState assembles the sharing state. A nil selection stands for the active shares and
// skips validation.
func (s *EntityShareService) buildState(ctx context.Context, sharerID string, entity *models.Entity, selection *shares.GranteeCapabilities) (*shares.EntityShareState, error) {
	if selection != nil {
		for _, e := range selection.Entries() {
			if strings.TrimSpace(e.GranteeID) == "" || strings.TrimSpace(e.CapabilityID) == "" {
				return nil, apperrors.NewBadRequest(SelectionField + " entries need a grantee and a capability")
			}
		}
	}

	available, err := s.grantees.Available(ctx)
	if err != nil {
		return nil, fmt.Errorf("entity share service: %w", err)
	}
	directory := NewGranteeDirectory(available)

	active, err := s.activeShares(ctx, entity.GRN, directory)
	if err != nil {
		return nil, err
	}

	selected := selectionFromShares(active)
	if selection != nil {
		selected = *selection
	}

	missing, err := s.missingDependencies(ctx, sharerID, entity, selected, directory)
	if err != nil {
		return nil, err
	}

	state, err := shares.NewBuilder().
		Entity(entity.GRN).
		AvailableGrantees(available).
		AvailableCapabilities(s.availableCapabilities()).
		ActiveShares(active).
		SelectedGranteeCapabilities(selected).
		MissingDependencies(missing).
		ValidationResult(s.validate(selection, active, directory)).
		Build()
	if err != nil {
		return nil, fmt.Errorf("entity share service: build state: %w", err)
	}
	return state, nil
}

// activeShares returns the unexpired grants on target whose grantee is available, oldest first.
func (s *EntityShareService) activeShares(ctx context.Context, target string, directory GranteeDirectory) ([]shares.ActiveShare, error) {
	var grants []models.Grant
	err := s.db.WithContext(ctx).
		Where("target = ?", target).
		Where("(expires_at IS NULL OR expires_at > ?)", s.now().UTC()).
		Order("created_at ASC").
		Order("id ASC").
		Find(&grants).Error
	if err != nil {
		return nil, fmt.Errorf("entity share service: load grants: %w", err)
	}

	active := make([]shares.ActiveShare, 0, len(grants))
	for i := range grants {
		if _, ok := directory[grants[i].Grantee]; !ok {
			continue
		}
		active = append(active, shares.ActiveShare{
			Grant:      grants[i].GRN(),
			Grantee:    grants[i].Grantee,
			Capability: grants[i].Capability,
		})
	}
	return active, nil
}

func (s *EntityShareService) availableCapabilities() []shares.Capability {
	defs := s.capabilities.All()
	out := make([]shares.Capability, 0, len(defs))
	for _, def := range defs {
		out = append(out, shares.Capability{ID: def.ID, Title: def.Title})
	}
	return out
}

// missingDependencies reports, per selected grantee, the dependencies of the entity that the
// sharer can see but the grantee cannot.
func (s *EntityShareService) missingDependencies(ctx context.Context, sharerID string, entity *models.Entity, selected shares.GranteeCapabilities, directory GranteeDirectory) (shares.MissingDependencies, error) {
	missing := shares.MissingDependencies{}
	if selected.Len() == 0 {
		return missing, nil
	}

	deps, err := s.entities.Dependencies(ctx, entity.GRN)
	if err != nil {
		return nil, fmt.Errorf("entity share service: %w", err)
	}

	var visible []shares.SharedEntity
	for i := range deps {
		ok, err := s.checker.Check(ctx, sharerID, deps[i].GRN, permissions.CapabilityView)
		if err != nil {
			return nil, fmt.Errorf("entity share service: check dependency access: %w", err)
		}
		if !ok {
			continue
		}

		owners, err := s.entities.Owners(ctx, deps[i].GRN)
		if err != nil {
			return nil, fmt.Errorf("entity share service: %w", err)
		}
		ownerGrantees := make([]shares.Grantee, 0, len(owners))
		for _, owner := range owners {
			ownerGrantees = append(ownerGrantees, directory.Resolve(owner))
		}

		visible = append(visible, shares.SharedEntity{
			ID:     deps[i].GRN,
			Type:   deps[i].Type,
			Title:  deps[i].Title,
			Owners: ownerGrantees,
		})
	}
	if len(visible) == 0 {
		return missing, nil
	}

	for _, granteeID := range selected.GranteeIDs() {
		if _, ok := directory[granteeID]; !ok {
			continue
		}
		for _, dep := range visible {
			ok, err := s.checker.GranteeHolds(ctx, granteeID, dep.ID, permissions.CapabilityView)
			if err != nil {
				return nil, fmt.Errorf("entity share service: check grantee access: %w", err)
			}
			if !ok {
				missing[granteeID] = append(missing[granteeID], dep)
			}
		}
	}
	return missing, nil
}

// validate checks a requested selection. Unknown grantees and capabilities are rejected, as
// is any selection that would remove every current owner.
func (s *EntityShareService) validate(selection *shares.GranteeCapabilities, active []shares.ActiveShare, directory GranteeDirectory) shares.ValidationResult {
	result := shares.ValidationResult{}.Clone()
	if selection == nil {
		return result
	}

	for _, e := range selection.Entries() {
		if _, ok := directory[e.GranteeID]; !ok {
			result = result.WithError(SelectionField, fmt.Sprintf("Unknown grantee <%s>.", e.GranteeID))
		}
		if _, ok := s.capabilities.Get(e.CapabilityID); !ok {
			result = result.WithError(SelectionField, fmt.Sprintf("Unknown capability <%s> for grantee <%s>.", e.CapabilityID, e.GranteeID))
		}
	}

	var owners []string
	for _, share := range active {
		if share.Capability == permissions.CapabilityOwn && !slices.Contains(owners, share.Grantee) {
			owners = append(owners, share.Grantee)
		}
	}
	if len(owners) > 0 && !selection.ContainsCapability(permissions.CapabilityOwn) {
		result = result.
			WithError(SelectionField, fmt.Sprintf("Removing the following owners <[%s]> will leave the entity ownerless.", strings.Join(owners, ", "))).
			WithContext(SelectionField, owners...)
	}

	for field, messages := range result.Errors {
		metrics.ValidationFailures.WithLabelValues(field).Add(float64(len(messages)))
	}
	return result
}

func (s *EntityShareService) normaliseExpirations(selection shares.GranteeCapabilities, expirations map[string]time.Time) (map[string]time.Time, error) {
	if len(expirations) == 0 {
		return nil, nil
	}

	now := s.now().UTC()
	out := make(map[string]time.Time, len(expirations))
	for grantee, at := range expirations {
		if !selection.Has(grantee) {
			return nil, apperrors.NewBadRequest(fmt.Sprintf("expiration given for unselected grantee %s", grantee))
		}
		at = at.UTC().Truncate(time.Second)
		if !at.After(now) {
			return nil, apperrors.NewBadRequest(fmt.Sprintf("expiration for %s must be in the future", grantee))
		}
		out[grantee] = at
	}
	return out, nil
}

// apply writes the change set and its audit row in one transaction.
func (s *EntityShareService) apply(ctx context.Context, userID, target string, changelog diff.Changelog, expirations map[string]time.Time) error {
	if len(changelog) == 0 && len(expirations) == 0 {
		return nil
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var user models.User
		if err := tx.First(&user, "id = ?", userID).Error; err != nil {
			return fmt.Errorf("entity share service: load user: %w", err)
		}

		scope := func(grantee string) *gorm.DB {
			return tx.Model(&models.Grant{}).Where("target = ? AND grantee = ?", target, grantee)
		}

		for _, change := range changelog {
			grantee := change.Path[0]
			switch change.Type {
			case diff.CREATE:
				// An expired grant for the same grantee still holds the unique slot.
				if err := scope(grantee).Delete(&models.Grant{}).Error; err != nil {
					return fmt.Errorf("entity share service: clear expired grant: %w", err)
				}
				grant := &models.Grant{
					Grantee:    grantee,
					Capability: fmt.Sprint(change.To),
					Target:     target,
					CreatedBy:  userID,
				}
				if err := tx.Create(grant).Error; err != nil {
					return fmt.Errorf("entity share service: create grant: %w", err)
				}
			case diff.UPDATE:
				if err := scope(grantee).UpdateColumns(map[string]any{
					"capability": fmt.Sprint(change.To),
					"updated_by": userID,
					"updated_at": s.now().UTC(),
				}).Error; err != nil {
					return fmt.Errorf("entity share service: update grant: %w", err)
				}
			case diff.DELETE:
				if err := scope(grantee).Delete(&models.Grant{}).Error; err != nil {
					return fmt.Errorf("entity share service: delete grant: %w", err)
				}
			}
		}

		for grantee, at := range expirations {
			if err := scope(grantee).UpdateColumn("expires_at", at).Error; err != nil {
				return fmt.Errorf("entity share service: set expiration: %w", err)
			}
		}

		if len(changelog) == 0 {
			return nil
		}
		return s.audits.record(ctx, tx, target, &user, changelog)
	})
}

// selectionChanges diffs the active shares against the requested selection, ordered by grantee.
func selectionChanges(active []shares.ActiveShare, selection shares.GranteeCapabilities) (diff.Changelog, error) {
	current := make(map[string]string, len(active))
	for _, share := range active {
		if _, seen := current[share.Grantee]; !seen {
			current[share.Grantee] = share.Capability
		}
	}

	changelog, err := diff.Diff(current, selection.ToMap())
	if err != nil {
		return nil, fmt.Errorf("entity share service: diff selection: %w", err)
	}
	slices.SortFunc(changelog, func(a, b diff.Change) int {
		return strings.Compare(a.Path[0], b.Path[0])
	})
	return changelog, nil
}

func selectionFromShares(active []shares.ActiveShare) shares.GranteeCapabilities {
	entries := make([]shares.GranteeCapability, 0, len(active))
	for _, share := range active {
		entries = append(entries, shares.GranteeCapability{GranteeID: share.Grantee, CapabilityID: share.Capability})
	}
	return shares.NewGranteeCapabilities(entries...)
}

func entityType(entity *models.Entity) string {
	if entity == nil {
		return "unknown"
	}
	return entity.Type
}

func outcome(err error) string {
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		switch appErr.StatusCode {
		case http.StatusForbidden, http.StatusUnauthorized:
			return "denied"
		case http.StatusBadRequest, http.StatusNotFound:
			return "invalid"
		}
	}
	return "error"
}
