package service

import (
	"context"
	"database/sql"
	"errors"

	"go.uber.org/zap"

	"github.com/canopyhq/canopy-api/internal/dto"
	"github.com/canopyhq/canopy-api/internal/models"
	"github.com/canopyhq/canopy-api/internal/tree"
	appErrors "github.com/canopyhq/canopy-api/pkg/errors"
)

// MembershipService manages explicit sharing while preserving the minimality
// invariant: a grant inheritance already matches or exceeds is rejected, and
// granting at an ancestor prunes the descendant grants it subsumes.
type MembershipService struct {
	items       itemStore
	memberships membershipStore
	audit       auditLogger
	logger      *zap.Logger
}

// NewMembershipService constructs the service.
func NewMembershipService(items itemStore, memberships membershipStore, audit auditLogger, logger *zap.Logger) *MembershipService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &MembershipService{items: items, memberships: memberships, audit: audit, logger: logger}
}

func (s *MembershipService) adminOn(ctx context.Context, actor string, item *models.Item) error {
	memberships, err := s.memberships.ListCovering(ctx, actor, item.Path)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to resolve permissions")
	}
	if !tree.CanAdmin(actor, item.Path, models.Grants(memberships)) {
		return appErrors.ErrMemberCannotAdmin
	}
	return nil
}

func (s *MembershipService) getItem(ctx context.Context, id string) (*models.Item, error) {
	item, err := s.items.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrItemNotFound
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load item")
	}
	return item, nil
}

// Share grants a subject a permission level over the item's subtree.
func (s *MembershipService) Share(ctx context.Context, itemID string, req dto.ShareItemRequest, actor string) error {
	item, err := s.getItem(ctx, itemID)
	if err != nil {
		return err
	}
	if err := s.adminOn(ctx, actor, item); err != nil {
		return err
	}

	covering, err := s.memberships.ListCovering(ctx, req.Subject, item.Path)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load memberships")
	}
	under, err := s.memberships.ListBySubjectUnderScope(ctx, req.Subject, item.Path)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load memberships")
	}

	seen := make(map[string]struct{}, len(covering)+len(under))
	existing := make([]tree.Grant, 0, len(covering)+len(under))
	for _, m := range append(covering, under...) {
		if _, ok := seen[m.ID]; ok {
			continue
		}
		seen[m.ID] = struct{}{}
		existing = append(existing, m.Grant())
	}

	plan, err := tree.PlanGrant(tree.Grant{
		Subject: req.Subject,
		Scope:   item.Path,
		Level:   tree.ParseLevel(req.Level),
	}, existing)
	if err != nil {
		return mapTreeErr(err)
	}
	if err := s.memberships.ApplyPlan(ctx, plan, actor); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to apply share")
	}
	s.emitAudit(ctx, actor, models.AuditActionItemShare, item, req.Subject)
	return nil
}

// Revoke removes the subject's explicit grant at exactly the item's path.
func (s *MembershipService) Revoke(ctx context.Context, itemID, subject, actor string) error {
	item, err := s.getItem(ctx, itemID)
	if err != nil {
		return err
	}
	if err := s.adminOn(ctx, actor, item); err != nil {
		return err
	}
	if err := s.memberships.Delete(ctx, subject, item.Path); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.ErrGrantNotFound
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to revoke share")
	}
	s.emitAudit(ctx, actor, models.AuditActionItemUnshare, item, subject)
	return nil
}

// List returns the explicit grants on the item and the inherited grants
// covering it. Requires read access.
func (s *MembershipService) List(ctx context.Context, itemID, actor string) ([]models.Membership, error) {
	item, err := s.getItem(ctx, itemID)
	if err != nil {
		return nil, err
	}
	covering, err := s.memberships.ListCovering(ctx, actor, item.Path)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to resolve permissions")
	}
	if !tree.CanRead(actor, item.Path, models.Grants(covering)) && !item.IsPublic {
		return nil, appErrors.ErrMemberCannotAccess
	}
	memberships, err := s.memberships.ListForItem(ctx, item.Path)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list memberships")
	}
	return memberships, nil
}

func (s *MembershipService) emitAudit(ctx context.Context, actor, action string, item *models.Item, subject string) {
	if s.audit == nil {
		return
	}
	entry := &models.AuditLog{
		UserID:     &actor,
		Action:     action,
		Resource:   "item",
		ResourceID: &item.ID,
		NewValues:  []byte(`{"subject":"` + subject + `"}`),
	}
	if err := s.audit.CreateAuditLog(ctx, entry); err != nil {
		s.logger.Warn("failed to write audit log", zap.String("action", action), zap.Error(err))
	}
}
