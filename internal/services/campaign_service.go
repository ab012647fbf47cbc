package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/promoter-dashboard/backend/internal/auth"
	"github.com/promoter-dashboard/backend/internal/events"
	"github.com/promoter-dashboard/backend/internal/models"
	"github.com/promoter-dashboard/backend/internal/repositories"
	"go.uber.org/zap"
)

type campaignStore interface {
	Create(ctx context.Context, c *models.Campaign) error
	UpsertByExternalID(ctx context.Context, c *models.Campaign) (bool, error)
	GetByID(ctx context.Context, id uuid.UUID) (*models.Campaign, error)
	Update(ctx context.Context, c *models.Campaign) error
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, f repositories.CampaignFilter) ([]models.Campaign, error)
	Assign(ctx context.Context, campaignID, promoterID uuid.UUID) (bool, error)
	Unassign(ctx context.Context, campaignID, promoterID uuid.UUID) error
	AssignedPromoterIDs(ctx context.Context, campaignID uuid.UUID) ([]uuid.UUID, error)
	AssigneeUserIDs(ctx context.Context, campaignID uuid.UUID) ([]uuid.UUID, error)
}

type promoterStore interface {
	Create(ctx context.Context, p *models.Promoter) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Promoter, error)
	GetByExternalID(ctx context.Context, externalID string) (*models.Promoter, error)
	List(ctx context.Context, limit, offset int) ([]models.Promoter, error)
	UserID(ctx context.Context, promoterID uuid.UUID) (uuid.UUID, error)
}

type auditStore interface {
	Log(ctx context.Context, entry models.AuditLog) error
	List(ctx context.Context, f models.AuditFilter) ([]models.AuditLog, error)
}

// CampaignService handles campaign administration: CRUD, legacy import and
// promoter assignment.
type CampaignService struct {
	campaigns campaignStore
	promoters promoterStore
	audit     auditStore
	publisher events.Publisher
	loc       *time.Location
	now       func() time.Time
	log       *zap.Logger
}

func NewCampaignService(
	campaigns campaignStore,
	promoters promoterStore,
	audit auditStore,
	publisher events.Publisher,
	loc *time.Location,
	now func() time.Time,
	log *zap.Logger,
) *CampaignService {
	if loc == nil {
		loc = time.Local
	}
	if now == nil {
		now = time.Now
	}
	return &CampaignService{
		campaigns: campaigns,
		promoters: promoters,
		audit:     audit,
		publisher: publisher,
		loc:       loc,
		now:       now,
		log:       log,
	}
}

func (s *CampaignService) logAudit(ctx context.Context, actor uuid.UUID, action string, entityID uuid.UUID, meta any) {
	entry := models.AuditLog{
		ActorUserID: &actor,
		ActorType:   models.AuditActorAdmin,
		Action:      action,
		EntityType:  models.AuditEntityCampaign,
		EntityID:    &entityID,
		Meta:        meta,
	}
	if err := s.audit.Log(ctx, entry); err != nil {
		s.log.Warn("audit log failed", zap.String("action", action), zap.Error(err))
	}
}

func validateCampaign(c *models.Campaign) error {
	c.Name = strings.TrimSpace(c.Name)
	if c.Name == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidInput)
	}
	for _, d := range []*time.Time{c.StartDate, c.EndDate} {
		if d != nil && !models.DateInRange(*d) {
			return fmt.Errorf("%w: dates must fall in years 0 to 9999", ErrInvalidInput)
		}
	}
	if c.StartDate != nil && c.EndDate != nil && c.EndDate.Before(*c.StartDate) {
		return fmt.Errorf("%w: end_date is before start_date", ErrInvalidInput)
	}
	if c.TargetSamplings < 0 || c.TargetScans < 0 || c.Budget < 0 {
		return fmt.Errorf("%w: counters must not be negative", ErrInvalidInput)
	}
	c.ApplyDefaults()
	return nil
}

func (s *CampaignService) Create(ctx context.Context, actor uuid.UUID, c *models.Campaign) error {
	if err := validateCampaign(c); err != nil {
		return err
	}
	if err := s.campaigns.Create(ctx, c); err != nil {
		return fmt.Errorf("create campaign: %w", err)
	}
	s.logAudit(ctx, actor, models.AuditCampaignCreated, c.ID, nil)
	*c = c.WithStatus(s.now())
	return nil
}

func (s *CampaignService) Get(ctx context.Context, id uuid.UUID) (*models.CampaignDetails, error) {
	c, err := s.campaigns.GetByID(ctx, id)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrCampaignNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load campaign: %w", err)
	}
	return campaignDetails(*c, s.now(), s.log), nil
}

func (s *CampaignService) List(ctx context.Context, f repositories.CampaignFilter, status *models.CampaignStatus) ([]models.Campaign, error) {
	campaigns, err := s.campaigns.List(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("list campaigns: %w", err)
	}
	now := s.now()
	if status != nil {
		return models.FilterByStatus(campaigns, *status, now), nil
	}
	for i := range campaigns {
		campaigns[i] = campaigns[i].WithStatus(now)
	}
	return campaigns, nil
}

func (s *CampaignService) Update(ctx context.Context, actor, id uuid.UUID, c *models.Campaign) error {
	if err := validateCampaign(c); err != nil {
		return err
	}
	c.ID = id
	if err := s.campaigns.Update(ctx, c); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrCampaignNotFound
		}
		return fmt.Errorf("update campaign: %w", err)
	}
	s.logAudit(ctx, actor, models.AuditCampaignUpdated, id, nil)
	s.notifyAssignees(ctx, id, events.EventCampaignUpdated, map[string]any{"campaign_id": id.String()})
	return nil
}

func (s *CampaignService) Delete(ctx context.Context, actor, id uuid.UUID) error {
	if err := s.campaigns.Delete(ctx, id); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrCampaignNotFound
		}
		return fmt.Errorf("delete campaign: %w", err)
	}
	s.logAudit(ctx, actor, models.AuditCampaignDeleted, id, nil)
	return nil
}

type ImportFailure struct {
	Index int    `json:"index"`
	Error string `json:"error"`
}

type ImportResult struct {
	Created  int             `json:"created"`
	Updated  int             `json:"updated"`
	Assigned   int             `json:"assigned"`
	Unassigned int             `json:"unassigned"`
	Failed     []ImportFailure `json:"failed"`
}

// Import upserts campaigns exported from the legacy document store. A bad
// document is reported and skipped; the rest of the batch still imports.
// When an updated document carries a promoters field, links to promoters
// no longer listed are removed.
func (s *CampaignService) Import(ctx context.Context, actor uuid.UUID, docs []json.RawMessage) (*ImportResult, error) {
	res := &ImportResult{Failed: make([]ImportFailure, 0)}

	for i, raw := range docs {
		c, promoterRefs, err := decodeCampaignDocument(raw, s.loc)
		if err != nil {
			res.Failed = append(res.Failed, ImportFailure{Index: i, Error: err.Error()})
			continue
		}

		created, err := s.campaigns.UpsertByExternalID(ctx, c)
		if err != nil {
			if ctx.Err() != nil {
				return res, ctx.Err()
			}
			s.log.Error("import upsert failed", zap.String("external_id", *c.ExternalID), zap.Error(err))
			res.Failed = append(res.Failed, ImportFailure{Index: i, Error: "storage error"})
			continue
		}
		if created {
			res.Created++
		} else {
			res.Updated++
		}
		s.logAudit(ctx, actor, models.AuditCampaignImported, c.ID, map[string]any{"external_id": *c.ExternalID})

		wanted := make(map[uuid.UUID]bool, len(promoterRefs))
		lookupFailed := false
		for _, ref := range promoterRefs {
			p, err := s.resolvePromoter(ctx, ref)
			if err != nil {
				if !errors.Is(err, ErrPromoterNotFound) {
					lookupFailed = true
				}
				s.log.Warn("import: unresolved promoter",
					zap.String("external_id", *c.ExternalID),
					zap.String("promoter_ref", ref),
					zap.Error(err),
				)
				continue
			}
			wanted[p.ID] = true
			ok, err := s.assign(ctx, actor, c.ID, p.ID)
			if err != nil {
				s.log.Error("import assign failed", zap.Error(err))
				continue
			}
			if ok {
				res.Assigned++
			}
		}

		// a failed lookup could hide a listed promoter, so keep every link
		if !created && promoterRefs != nil && !lookupFailed {
			res.Unassigned += s.dropStaleAssignments(ctx, actor, c.ID, wanted)
		}
	}

	s.log.Info("campaign import finished",
		zap.Int("documents", len(docs)),
		zap.Int("created", res.Created),
		zap.Int("updated", res.Updated),
		zap.Int("assigned", res.Assigned),
		zap.Int("unassigned", res.Unassigned),
		zap.Int("failed", len(res.Failed)),
	)
	return res, nil
}

// resolvePromoter accepts either our id or the upstream document id.
func (s *CampaignService) resolvePromoter(ctx context.Context, ref string) (*models.Promoter, error) {
	if id, err := uuid.Parse(ref); err == nil {
		p, err := s.promoters.GetByID(ctx, id)
		if err == nil {
			return p, nil
		}
		if !errors.Is(err, pgx.ErrNoRows) {
			return nil, err
		}
	}
	p, err := s.promoters.GetByExternalID(ctx, ref)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrPromoterNotFound
	}
	return p, err
}

func (s *CampaignService) CreatePromoter(ctx context.Context, actor uuid.UUID, p *models.Promoter) error {
	phone, err := auth.NormalizePhone(p.Phone)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	p.Phone = phone
	p.Name = strings.TrimSpace(p.Name)
	if p.Name == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidInput)
	}
	if err := s.promoters.Create(ctx, p); err != nil {
		return fmt.Errorf("create promoter: %w", err)
	}

	entry := models.AuditLog{
		ActorUserID: &actor,
		ActorType:   models.AuditActorAdmin,
		Action:      models.AuditPromoterCreated,
		EntityType:  models.AuditEntityPromoter,
		EntityID:    &p.ID,
	}
	if err := s.audit.Log(ctx, entry); err != nil {
		s.log.Warn("audit log failed", zap.Error(err))
	}
	return nil
}

func (s *CampaignService) ListPromoters(ctx context.Context, limit, offset int) ([]models.Promoter, error) {
	out, err := s.promoters.List(ctx, limit, offset)
	if err != nil {
		return nil, err
	}
	if out == nil {
		out = []models.Promoter{}
	}
	return out, nil
}

// Assign links a promoter to a campaign and notifies them.
func (s *CampaignService) Assign(ctx context.Context, actor, campaignID, promoterID uuid.UUID) error {
	if _, err := s.campaigns.GetByID(ctx, campaignID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrCampaignNotFound
		}
		return err
	}
	if _, err := s.promoters.GetByID(ctx, promoterID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrPromoterNotFound
		}
		return err
	}
	_, err := s.assign(ctx, actor, campaignID, promoterID)
	return err
}

func (s *CampaignService) assign(ctx context.Context, actor, campaignID, promoterID uuid.UUID) (bool, error) {
	created, err := s.campaigns.Assign(ctx, campaignID, promoterID)
	if err != nil {
		return false, fmt.Errorf("assign promoter: %w", err)
	}
	if !created {
		return false, nil
	}

	s.logAudit(ctx, actor, models.AuditPromoterAssigned, campaignID, map[string]any{"promoter_id": promoterID.String()})
	s.notifyPromoter(ctx, promoterID, events.EventCampaignAssigned, map[string]any{
		"campaign_id": campaignID.String(),
		"promoter_id": promoterID.String(),
	})
	return true, nil
}

// dropStaleAssignments unlinks promoters not in keep and returns how many
// links were removed.
func (s *CampaignService) dropStaleAssignments(ctx context.Context, actor, campaignID uuid.UUID, keep map[uuid.UUID]bool) int {
	current, err := s.campaigns.AssignedPromoterIDs(ctx, campaignID)
	if err != nil {
		s.log.Error("import: list assignments failed", zap.String("campaign_id", campaignID.String()), zap.Error(err))
		return 0
	}
	removed := 0
	for _, pid := range current {
		if keep[pid] {
			continue
		}
		if err := s.Unassign(ctx, actor, campaignID, pid); err != nil && !errors.Is(err, ErrNotFound) {
			s.log.Error("import unassign failed", zap.String("promoter_id", pid.String()), zap.Error(err))
			continue
		}
		removed++
	}
	return removed
}

func (s *CampaignService) Unassign(ctx context.Context, actor, campaignID, promoterID uuid.UUID) error {
	if err := s.campaigns.Unassign(ctx, campaignID, promoterID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrNotFound
		}
		return fmt.Errorf("unassign promoter: %w", err)
	}

	s.logAudit(ctx, actor, models.AuditPromoterUnassigned, campaignID, map[string]any{"promoter_id": promoterID.String()})
	s.notifyPromoter(ctx, promoterID, events.EventCampaignUnassigned, map[string]any{
		"campaign_id": campaignID.String(),
		"promoter_id": promoterID.String(),
	})
	return nil
}

// AuditTrail lists admin actions on a campaign, optionally only one action.
func (s *CampaignService) AuditTrail(ctx context.Context, campaignID uuid.UUID, action string, limit, offset int) ([]models.AuditLog, error) {
	return s.audit.List(ctx, models.AuditFilter{
		EntityType: models.AuditEntityCampaign,
		EntityID:   &campaignID,
		Action:     action,
		Limit:      limit,
		Offset:     offset,
	})
}

func (s *CampaignService) notifyAssignees(ctx context.Context, campaignID uuid.UUID, eventType string, payload map[string]any) {
	userIDs, err := s.campaigns.AssigneeUserIDs(ctx, campaignID)
	if err != nil {
		s.log.Warn("failed to resolve assignees", zap.String("campaign_id", campaignID.String()), zap.Error(err))
		return
	}
	event := events.Event{Type: eventType, Payload: payload}
	if err := events.Fanout(ctx, s.publisher, events.StreamCampaign, event, userIDs); err != nil {
		s.log.Warn("notify assignees failed", zap.String("campaign_id", campaignID.String()), zap.Error(err))
	}
}

// notifyPromoter is a no-op for promoters who never signed in.
func (s *CampaignService) notifyPromoter(ctx context.Context, promoterID uuid.UUID, eventType string, payload map[string]any) {
	uid, err := s.promoters.UserID(ctx, promoterID)
	if err != nil {
		if !errors.Is(err, pgx.ErrNoRows) {
			s.log.Warn("failed to resolve promoter user", zap.String("promoter_id", promoterID.String()), zap.Error(err))
		}
		return
	}
	s.publish(ctx, uid, eventType, payload)
}

func (s *CampaignService) publish(ctx context.Context, userID uuid.UUID, eventType string, payload map[string]any) {
	if s.publisher == nil {
		return
	}
	_ = s.publisher.Publish(ctx, events.StreamCampaign, events.Event{
		Type:    eventType,
		UserID:  userID.String(),
		Payload: payload,
	})
}
