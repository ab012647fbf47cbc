package services

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/promoter-dashboard/backend/internal/events"
	"github.com/promoter-dashboard/backend/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type campaignFixture struct {
	svc       *CampaignService
	campaigns *fakeCampaigns
	promoters *fakePromoters
	audit     *fakeAudit
	pub       *recordingPublisher
}

func newCampaignFixture(promoters ...*models.Promoter) campaignFixture {
	f := campaignFixture{
		campaigns: newFakeCampaigns(),
		promoters: newFakePromoters(promoters...),
		audit:     &fakeAudit{},
		pub:       &recordingPublisher{},
	}
	ist := time.FixedZone("IST", 5*3600+1800)
	now := func() time.Time { return time.Date(2025, 3, 15, 12, 0, 0, 0, ist) }
	f.svc = NewCampaignService(f.campaigns, f.promoters, f.audit, f.pub, ist, now, zap.NewNop())
	return f
}

func TestDecodeCampaignDocument(t *testing.T) {
	ist := time.FixedZone("IST", 5*3600+1800)
	raw := json.RawMessage(`{
		"id": "cmp-1",
		"campaignName": "  Summer Sampling ",
		"description": "<p>Hand out <b>samples</b></p><script>x()</script>",
		"campaignCategries": ["Beverages", "Retail"],
		"campaignBudget": "25,000",
		"reward": 150,
		"targetSamplings": "1.2K",
		"targetScans": 300,
		"startDate": {"seconds": 1740787200, "nanoseconds": 0},
		"endDate": "2025-03-31",
		"promoters": [{"promoterId": "p-1"}, {"promoterId": " "}]
	}`)

	c, refs, err := decodeCampaignDocument(raw, ist)
	require.NoError(t, err)

	assert.Equal(t, "cmp-1", *c.ExternalID)
	assert.Equal(t, "Summer Sampling", c.Name)
	assert.Equal(t, "Hand out samples", c.Description)
	assert.Equal(t, "Beverages", c.Category)
	assert.Equal(t, models.NotAvailable, c.Format)
	assert.Equal(t, models.NotAvailable, c.Objective)
	assert.Equal(t, "150", c.Reward)
	assert.Equal(t, 25000.0, c.Budget)
	assert.Equal(t, int64(1200), c.TargetSamplings)
	assert.Equal(t, int64(300), c.TargetScans)
	require.NotNil(t, c.StartDate)
	assert.Equal(t, int64(1740787200), c.StartDate.Unix())
	require.NotNil(t, c.EndDate)
	assert.Equal(t, time.Date(2025, 3, 31, 0, 0, 0, 0, ist).Unix(), c.EndDate.Unix())
	assert.Equal(t, []string{"p-1"}, refs)
	assert.Equal(t, "cmp-1", c.FullData["id"])
}

func TestDecodeCampaignDocumentDefaults(t *testing.T) {
	c, refs, err := decodeCampaignDocument(json.RawMessage(`{"docId":"x","startDate":"garbage"}`), time.UTC)
	require.NoError(t, err)
	assert.Equal(t, models.NotAvailable, c.Name)
	assert.Equal(t, "", c.Description)
	assert.Nil(t, c.StartDate)
	assert.Nil(t, c.EndDate)
	assert.Nil(t, refs, "absent promoters field")

	_, refs, err = decodeCampaignDocument(json.RawMessage(`{"docId":"x","promoters":[]}`), time.UTC)
	require.NoError(t, err)
	assert.NotNil(t, refs)
	assert.Empty(t, refs)

	_, _, err = decodeCampaignDocument(json.RawMessage(`{"campaignName":"no id"}`), time.UTC)
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestDecodeCampaignDocumentOutOfRange(t *testing.T) {
	raw := json.RawMessage(`{
		"docId": "x",
		"campaignBudget": "Infinity",
		"targetSamplings": 1e300,
		"targetScans": "99999999999999999999M",
		"startDate": 1e300,
		"endDate": {"seconds": 253402300800}
	}`)
	c, _, err := decodeCampaignDocument(raw, time.UTC)
	require.NoError(t, err)

	assert.Nil(t, c.StartDate)
	assert.Nil(t, c.EndDate)
	assert.Zero(t, c.Budget)
	assert.Zero(t, c.TargetSamplings)
	assert.Zero(t, c.TargetScans)

	c.Status = models.ClassifyCampaign(c.StartDate, c.EndDate, time.Now())
	assert.Equal(t, models.CampaignStatusUnknown, c.Status)
	_, err = json.Marshal(c)
	assert.NoError(t, err)
}

func TestImportUpsertsAndAssigns(t *testing.T) {
	ext := "p-1"
	promoter := &models.Promoter{ID: uuid.New(), ExternalID: &ext, Phone: "9876543210"}
	f := newCampaignFixture(promoter)
	userID := uuid.New()
	f.promoters.userIDs[promoter.ID] = userID
	ctx := context.Background()
	actor := uuid.New()

	docs := []json.RawMessage{
		json.RawMessage(`{"id":"a","campaignName":"A","promoters":[{"promoterId":"p-1"},{"promoterId":"ghost"}]}`),
		json.RawMessage(`{"id":"b","campaignName":"B","promoters":[{"promoterId":"` + promoter.ID.String() + `"}]}`),
		json.RawMessage(`not json`),
	}

	res, err := f.svc.Import(ctx, actor, docs)
	require.NoError(t, err)
	assert.Equal(t, 2, res.Created)
	assert.Equal(t, 0, res.Updated)
	assert.Equal(t, 2, res.Assigned)
	require.Len(t, res.Failed, 1)
	assert.Equal(t, 2, res.Failed[0].Index)

	published := f.pub.snapshot()
	require.Len(t, published, 2)
	for _, e := range published {
		assert.Equal(t, events.EventCampaignAssigned, e.Type)
		assert.Equal(t, userID.String(), e.UserID)
	}

	// re-import updates in place and does not re-assign
	res, err = f.svc.Import(ctx, actor, docs[:1])
	require.NoError(t, err)
	assert.Equal(t, 0, res.Created)
	assert.Equal(t, 1, res.Updated)
	assert.Equal(t, 0, res.Assigned)
	assert.Len(t, f.pub.snapshot(), 2)
}

func TestImportDropsStaleAssignments(t *testing.T) {
	ext1, ext2 := "p-1", "p-2"
	keep := &models.Promoter{ID: uuid.New(), ExternalID: &ext1, Phone: "9876543210"}
	stale := &models.Promoter{ID: uuid.New(), ExternalID: &ext2, Phone: "9876543211"}
	f := newCampaignFixture(keep, stale)
	staleUser := uuid.New()
	f.promoters.userIDs[stale.ID] = staleUser
	ctx := context.Background()
	actor := uuid.New()

	both := json.RawMessage(`{"id":"a","campaignName":"A","promoters":[{"promoterId":"p-1"},{"promoterId":"p-2"}]}`)
	res, err := f.svc.Import(ctx, actor, []json.RawMessage{both})
	require.NoError(t, err)
	require.Equal(t, 2, res.Assigned)

	// no promoters field leaves links alone
	res, err = f.svc.Import(ctx, actor, []json.RawMessage{json.RawMessage(`{"id":"a","campaignName":"A"}`)})
	require.NoError(t, err)
	assert.Equal(t, 0, res.Unassigned)

	res, err = f.svc.Import(ctx, actor, []json.RawMessage{
		json.RawMessage(`{"id":"a","campaignName":"A","promoters":[{"promoterId":"p-1"}]}`),
	})
	require.NoError(t, err)
	assert.Equal(t, 1, res.Updated)
	assert.Equal(t, 0, res.Assigned)
	assert.Equal(t, 1, res.Unassigned)

	campaignID := f.campaigns.order[0]
	linked, err := f.campaigns.AssignedPromoterIDs(ctx, campaignID)
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{keep.ID}, linked)

	var unassigned int
	for _, e := range f.pub.snapshot() {
		if e.Type == events.EventCampaignUnassigned {
			unassigned++
			assert.Equal(t, staleUser.String(), e.UserID)
		}
	}
	assert.Equal(t, 1, unassigned)

	trail, err := f.svc.AuditTrail(ctx, campaignID, models.AuditPromoterUnassigned, 10, 0)
	require.NoError(t, err)
	require.Len(t, trail, 1)
}

func TestCreateCampaignValidation(t *testing.T) {
	f := newCampaignFixture()
	ctx := context.Background()

	err := f.svc.Create(ctx, uuid.New(), &models.Campaign{Name: "  "})
	assert.ErrorIs(t, err, ErrInvalidInput)

	err = f.svc.Create(ctx, uuid.New(), &models.Campaign{
		Name:      "Backwards",
		StartDate: ptr(day(2025, 3, 10)),
		EndDate:   ptr(day(2025, 3, 1)),
	})
	assert.ErrorIs(t, err, ErrInvalidInput)

	err = f.svc.Create(ctx, uuid.New(), &models.Campaign{
		Name:    "Far future",
		EndDate: ptr(time.Date(10000, 1, 1, 0, 0, 0, 0, time.UTC)),
	})
	assert.ErrorIs(t, err, ErrInvalidInput)

	c := &models.Campaign{Name: "Ok", StartDate: ptr(day(2025, 3, 1)), EndDate: ptr(day(2025, 3, 31))}
	require.NoError(t, f.svc.Create(ctx, uuid.New(), c))
	assert.Equal(t, models.CampaignStatusActive, c.Status)
	assert.Equal(t, models.NotAvailable, c.Category)
	assert.Equal(t, []string{models.AuditCampaignCreated}, f.audit.actions())
}

func TestUpdateDeleteMissingCampaign(t *testing.T) {
	f := newCampaignFixture()
	ctx := context.Background()

	err := f.svc.Update(ctx, uuid.New(), uuid.New(), &models.Campaign{Name: "x"})
	assert.ErrorIs(t, err, ErrCampaignNotFound)
	assert.ErrorIs(t, f.svc.Delete(ctx, uuid.New(), uuid.New()), ErrCampaignNotFound)

	_, err = f.svc.Get(ctx, uuid.New())
	assert.ErrorIs(t, err, ErrCampaignNotFound)
}

func TestAssignUnassign(t *testing.T) {
	promoter := &models.Promoter{ID: uuid.New(), Phone: "9876543210"}
	f := newCampaignFixture(promoter)
	ctx := context.Background()
	actor := uuid.New()

	c := &models.Campaign{Name: "A"}
	require.NoError(t, f.svc.Create(ctx, actor, c))

	assert.ErrorIs(t, f.svc.Assign(ctx, actor, uuid.New(), promoter.ID), ErrCampaignNotFound)
	assert.ErrorIs(t, f.svc.Assign(ctx, actor, c.ID, uuid.New()), ErrPromoterNotFound)

	require.NoError(t, f.svc.Assign(ctx, actor, c.ID, promoter.ID))
	require.NoError(t, f.svc.Assign(ctx, actor, c.ID, promoter.ID), "assigning twice is idempotent")
	assert.Empty(t, f.pub.snapshot(), "promoter never signed in, nobody to notify")

	require.NoError(t, f.svc.Unassign(ctx, actor, c.ID, promoter.ID))
	assert.ErrorIs(t, f.svc.Unassign(ctx, actor, c.ID, promoter.ID), ErrNotFound)

	assert.Equal(t, []string{
		models.AuditCampaignCreated,
		models.AuditPromoterAssigned,
		models.AuditPromoterUnassigned,
	}, f.audit.actions())

	trail, err := f.svc.AuditTrail(ctx, c.ID, "", 10, 0)
	require.NoError(t, err)
	assert.Len(t, trail, 3)

	trail, err = f.svc.AuditTrail(ctx, c.ID, models.AuditPromoterAssigned, 10, 0)
	require.NoError(t, err)
	require.Len(t, trail, 1)
	assert.Equal(t, models.AuditActorAdmin, trail[0].ActorType)
}

func TestCreatePromoterNormalizesPhone(t *testing.T) {
	f := newCampaignFixture()
	ctx := context.Background()

	p := &models.Promoter{Name: "Ravi", Phone: "98765-43210"}
	require.NoError(t, f.svc.CreatePromoter(ctx, uuid.New(), p))
	assert.Equal(t, "9876543210", p.Phone)

	assert.ErrorIs(t, f.svc.CreatePromoter(ctx, uuid.New(), &models.Promoter{Name: "x", Phone: "1"}), ErrInvalidInput)

	list, err := f.svc.ListPromoters(ctx, 10, 0)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}
