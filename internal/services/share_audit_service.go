package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/r3labs/diff/v2"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/sonvt1710/graylog2-server/internal/auditctx"
	"github.com/sonvt1710/graylog2-server/internal/models"
)

// ShareAuditListOptions controls pagination for audit queries.
type ShareAuditListOptions struct {
	Page     int
	PageSize int
}

// ShareAuditService persists and lists the history of sharing updates.
type ShareAuditService struct {
	db *gorm.DB
}

// NewShareAuditService constructs a ShareAuditService.
func NewShareAuditService(db *gorm.DB) (*ShareAuditService, error) {
	if db == nil {
		return nil, errors.New("share audit service: db is required")
	}
	return &ShareAuditService{db: db}, nil
}

// record writes one audit row through tx so it commits with the grants it describes.
// Request metadata is taken from the actor stored in ctx, when present.
func (s *ShareAuditService) record(ctx context.Context, tx *gorm.DB, entityGRN string, user *models.User, changelog diff.Changelog) error {
	counts := map[string]int{}
	for _, change := range changelog {
		counts[change.Type]++
	}

	raw, err := json.Marshal(changelog)
	if err != nil {
		return fmt.Errorf("share audit service: marshal changes: %w", err)
	}

	audit := &models.ShareAudit{
		EntityGRN: entityGRN,
		UserID:    user.ID,
		Username:  user.Username,
		Created:   counts[diff.CREATE],
		Updated:   counts[diff.UPDATE],
		Deleted:   counts[diff.DELETE],
		Changes:   datatypes.JSON(raw),
	}
	if actor, ok := auditctx.FromContext(ctx); ok {
		audit.IPAddress = actor.IPAddress
		audit.UserAgent = actor.UserAgent
		audit.RequestID = actor.RequestID
	}
	if err := tx.Create(audit).Error; err != nil {
		return fmt.Errorf("share audit service: create audit: %w", err)
	}
	return nil
}

// List returns the audit rows of an entity, newest first.
func (s *ShareAuditService) List(ctx context.Context, entityGRN string, opts ShareAuditListOptions) ([]models.ShareAudit, int64, error) {
	ctx = ensureContext(ctx)
	page, perPage := paginate(opts.Page, opts.PageSize, 200)

	query := s.db.WithContext(ctx).Model(&models.ShareAudit{}).Where("entity_grn = ?", entityGRN)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("share audit service: count audits: %w", err)
	}

	var audits []models.ShareAudit
	if err := query.Order("created_at DESC").
		Order("id ASC").
		Offset((page - 1) * perPage).
		Limit(perPage).
		Find(&audits).Error; err != nil {
		return nil, 0, fmt.Errorf("share audit service: list audits: %w", err)
	}
	return audits, total, nil
}

// CleanupBefore removes audit rows created before cutoff.
func (s *ShareAuditService) CleanupBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	ctx = ensureContext(ctx)
	if cutoff.IsZero() {
		return 0, errors.New("share audit service: cutoff is required")
	}

	result := s.db.WithContext(ctx).Where("created_at < ?", cutoff.UTC()).Delete(&models.ShareAudit{})
	if result.Error != nil {
		return 0, fmt.Errorf("share audit service: cleanup audits: %w", result.Error)
	}
	return result.RowsAffected, nil
}
