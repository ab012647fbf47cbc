package services

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/promoter-dashboard/backend/internal/events"
	"github.com/promoter-dashboard/backend/internal/models"
	"github.com/promoter-dashboard/backend/internal/repositories"
)

type fakeUsers struct {
	byID      map[uuid.UUID]*models.User
	lastLogin map[uuid.UUID]bool
}

func newFakeUsers() *fakeUsers {
	return &fakeUsers{byID: map[uuid.UUID]*models.User{}, lastLogin: map[uuid.UUID]bool{}}
}

func (f *fakeUsers) UpsertByPhone(_ context.Context, phone string) (*models.User, bool, error) {
	for _, u := range f.byID {
		if u.Phone == phone {
			return u, false, nil
		}
	}
	u := &models.User{ID: uuid.New(), Phone: phone, CreatedAt: time.Now()}
	f.byID[u.ID] = u
	return u, true, nil
}

func (f *fakeUsers) GetByID(_ context.Context, id uuid.UUID) (*models.User, error) {
	u, ok := f.byID[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return u, nil
}

func (f *fakeUsers) UpdateLastLogin(_ context.Context, id uuid.UUID) error {
	f.lastLogin[id] = true
	return nil
}

type fakePromoters struct {
	byID    map[uuid.UUID]*models.Promoter
	userIDs map[uuid.UUID]uuid.UUID
}

func newFakePromoters(ps ...*models.Promoter) *fakePromoters {
	f := &fakePromoters{byID: map[uuid.UUID]*models.Promoter{}, userIDs: map[uuid.UUID]uuid.UUID{}}
	for _, p := range ps {
		f.byID[p.ID] = p
	}
	return f
}

func (f *fakePromoters) Create(_ context.Context, p *models.Promoter) error {
	p.ID = uuid.New()
	f.byID[p.ID] = p
	return nil
}

func (f *fakePromoters) GetByID(_ context.Context, id uuid.UUID) (*models.Promoter, error) {
	p, ok := f.byID[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return p, nil
}

func (f *fakePromoters) GetByPhone(_ context.Context, phone string) (*models.Promoter, error) {
	for _, p := range f.byID {
		if p.Phone == phone {
			return p, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (f *fakePromoters) GetByExternalID(_ context.Context, ext string) (*models.Promoter, error) {
	for _, p := range f.byID {
		if p.ExternalID != nil && *p.ExternalID == ext {
			return p, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (f *fakePromoters) List(_ context.Context, _, _ int) ([]models.Promoter, error) {
	var out []models.Promoter
	for _, p := range f.byID {
		out = append(out, *p)
	}
	return out, nil
}

func (f *fakePromoters) UserID(_ context.Context, promoterID uuid.UUID) (uuid.UUID, error) {
	uid, ok := f.userIDs[promoterID]
	if !ok {
		return uuid.Nil, pgx.ErrNoRows
	}
	return uid, nil
}

type fakeSessions struct {
	m map[string]uuid.UUID
}

func (f *fakeSessions) Save(_ context.Context, id string, userID uuid.UUID) error {
	f.m[id] = userID
	return nil
}

func (f *fakeSessions) Get(_ context.Context, id string) (uuid.UUID, error) {
	uid, ok := f.m[id]
	if !ok {
		return uuid.Nil, repositories.ErrSessionNotFound
	}
	return uid, nil
}

func (f *fakeSessions) Delete(_ context.Context, id string) error {
	delete(f.m, id)
	return nil
}

type fakeOTP struct {
	sessionID string
	sendErr   error
	code      string
	sent      []string
}

func (f *fakeOTP) SendOTP(_ context.Context, phone string) (string, error) {
	if f.sendErr != nil {
		return "", f.sendErr
	}
	f.sent = append(f.sent, phone)
	return f.sessionID, nil
}

func (f *fakeOTP) VerifyOTP(_ context.Context, _ string, otp string) error {
	if otp != f.code {
		return ErrInvalidOTP
	}
	return nil
}

type fakeCampaigns struct {
	mu        sync.Mutex
	byID      map[uuid.UUID]*models.Campaign
	order     []uuid.UUID
	assigned  map[uuid.UUID][]uuid.UUID // promoter -> campaigns
	assignees map[uuid.UUID][]uuid.UUID // campaign -> users
	listErr   error
}

func newFakeCampaigns(cs ...models.Campaign) *fakeCampaigns {
	f := &fakeCampaigns{
		byID:      map[uuid.UUID]*models.Campaign{},
		assigned:  map[uuid.UUID][]uuid.UUID{},
		assignees: map[uuid.UUID][]uuid.UUID{},
	}
	for i := range cs {
		c := cs[i]
		if c.ID == uuid.Nil {
			c.ID = uuid.New()
		}
		f.byID[c.ID] = &c
		f.order = append(f.order, c.ID)
	}
	return f
}

func (f *fakeCampaigns) Create(_ context.Context, c *models.Campaign) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	c.ID = uuid.New()
	cp := *c
	f.byID[c.ID] = &cp
	f.order = append(f.order, c.ID)
	return nil
}

func (f *fakeCampaigns) UpsertByExternalID(_ context.Context, c *models.Campaign) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, id := range f.order {
		existing := f.byID[id]
		if existing.ExternalID != nil && *existing.ExternalID == *c.ExternalID {
			c.ID = id
			cp := *c
			f.byID[id] = &cp
			return false, nil
		}
	}
	c.ID = uuid.New()
	cp := *c
	f.byID[c.ID] = &cp
	f.order = append(f.order, c.ID)
	return true, nil
}

func (f *fakeCampaigns) GetByID(_ context.Context, id uuid.UUID) (*models.Campaign, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.byID[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	cp := *c
	return &cp, nil
}

func (f *fakeCampaigns) Update(_ context.Context, c *models.Campaign) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.byID[c.ID]; !ok {
		return pgx.ErrNoRows
	}
	cp := *c
	f.byID[c.ID] = &cp
	return nil
}

func (f *fakeCampaigns) Delete(_ context.Context, id uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.byID[id]; !ok {
		return pgx.ErrNoRows
	}
	delete(f.byID, id)
	return nil
}

func (f *fakeCampaigns) List(_ context.Context, _ repositories.CampaignFilter) ([]models.Campaign, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]models.Campaign, 0)
	for _, id := range f.order {
		if c, ok := f.byID[id]; ok {
			out = append(out, *c)
		}
	}
	return out, nil
}

func (f *fakeCampaigns) ListDated(ctx context.Context) ([]models.Campaign, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	all, _ := f.List(ctx, repositories.CampaignFilter{})
	out := make([]models.Campaign, 0, len(all))
	for _, c := range all {
		if c.StartDate != nil && c.EndDate != nil {
			out = append(out, c)
		}
	}
	return out, nil
}

func (f *fakeCampaigns) ListByPromoter(_ context.Context, promoterID uuid.UUID) ([]models.Campaign, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.listErr != nil {
		return nil, f.listErr
	}
	out := make([]models.Campaign, 0)
	for _, id := range f.assigned[promoterID] {
		out = append(out, *f.byID[id])
	}
	return out, nil
}

func (f *fakeCampaigns) GetForPromoter(_ context.Context, id, promoterID uuid.UUID) (*models.Campaign, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, cid := range f.assigned[promoterID] {
		if cid == id {
			cp := *f.byID[id]
			return &cp, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (f *fakeCampaigns) Assign(_ context.Context, campaignID, promoterID uuid.UUID) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, cid := range f.assigned[promoterID] {
		if cid == campaignID {
			return false, nil
		}
	}
	f.assigned[promoterID] = append(f.assigned[promoterID], campaignID)
	return true, nil
}

func (f *fakeCampaigns) AssignedPromoterIDs(_ context.Context, campaignID uuid.UUID) ([]uuid.UUID, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []uuid.UUID
	for pid, cids := range f.assigned {
		for _, cid := range cids {
			if cid == campaignID {
				out = append(out, pid)
			}
		}
	}
	return out, nil
}

func (f *fakeCampaigns) Unassign(_ context.Context, campaignID, promoterID uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	list := f.assigned[promoterID]
	for i, cid := range list {
		if cid == campaignID {
			f.assigned[promoterID] = append(list[:i], list[i+1:]...)
			return nil
		}
	}
	return pgx.ErrNoRows
}

func (f *fakeCampaigns) AssigneeUserIDs(_ context.Context, campaignID uuid.UUID) ([]uuid.UUID, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.assignees[campaignID], nil
}

type fakeAudit struct {
	entries []models.AuditLog
}

func (f *fakeAudit) Log(_ context.Context, e models.AuditLog) error {
	f.entries = append(f.entries, e)
	return nil
}

func (f *fakeAudit) List(_ context.Context, q models.AuditFilter) ([]models.AuditLog, error) {
	out := make([]models.AuditLog, 0)
	for _, e := range f.entries {
		if q.EntityType != "" && e.EntityType != q.EntityType {
			continue
		}
		if q.EntityID != nil && (e.EntityID == nil || *e.EntityID != *q.EntityID) {
			continue
		}
		if q.Action != "" && e.Action != q.Action {
			continue
		}
		out = append(out, e)
	}
	return out, nil
}

func (f *fakeAudit) actions() []string {
	out := make([]string, 0, len(f.entries))
	for _, e := range f.entries {
		out = append(out, e.Action)
	}
	return out
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []events.Event
}

func (p *recordingPublisher) Publish(_ context.Context, _ string, e events.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
	return nil
}

func (p *recordingPublisher) snapshot() []events.Event {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]events.Event(nil), p.events...)
}

type memoryCare struct {
	boards map[uuid.UUID]*models.CareBoard
}

func (m *memoryCare) Get(_ context.Context, userID uuid.UUID) (*models.CareBoard, error) {
	if b, ok := m.boards[userID]; ok {
		return b, nil
	}
	return models.NewCareBoard(), nil
}

func (m *memoryCare) Update(ctx context.Context, userID uuid.UUID, fn func(*models.CareBoard) error) (*models.CareBoard, error) {
	b, _ := m.Get(ctx, userID)
	cp := *b
	if err := fn(&cp); err != nil {
		return nil, err
	}
	m.boards[userID] = &cp
	return &cp, nil
}

func ptr[T any](v T) *T { return &v }

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
