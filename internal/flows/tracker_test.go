package flows

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/honeynil/BrrowMarketplace/internal/client"
	"github.com/honeynil/BrrowMarketplace/internal/lifecycle"
	"github.com/honeynil/BrrowMarketplace/internal/models"
	pkgerrors "github.com/honeynil/BrrowMarketplace/pkg/errors"
)

type fakePurchaseAPI struct {
	details     []*models.PurchaseDetail
	detailErr   error
	detailCalls int

	meetupErr   error
	meetupCalls int

	actionMsg   string
	actionErr   error
	calls       []string
	beforeReply func()
}

func (f *fakePurchaseAPI) GetPurchaseDetails(_ context.Context, id string) (*models.PurchaseDetail, error) {
	f.detailCalls++
	if f.beforeReply != nil {
		f.beforeReply()
	}
	if f.detailErr != nil {
		return nil, f.detailErr
	}
	i := f.detailCalls - 1
	if i >= len(f.details) {
		i = len(f.details) - 1
	}
	return f.details[i], nil
}

func (f *fakePurchaseAPI) GetMeetup(_ context.Context, id string) (*models.Meetup, error) {
	f.meetupCalls++
	if f.meetupErr != nil {
		return nil, f.meetupErr
	}
	return &models.Meetup{ID: id, Status: models.MeetupScheduled}, nil
}

func (f *fakePurchaseAPI) record(call string) (string, error) {
	f.calls = append(f.calls, call)
	return f.actionMsg, f.actionErr
}

func (f *fakePurchaseAPI) AcceptPurchase(_ context.Context, id string) (string, error) {
	return f.record("accept " + id)
}

func (f *fakePurchaseAPI) DeclinePurchase(_ context.Context, id, reason string) (string, error) {
	return f.record("decline " + id + " " + reason)
}

func (f *fakePurchaseAPI) CancelPurchase(_ context.Context, id, reason string) (string, error) {
	return f.record("cancel " + id + " " + reason)
}

func (f *fakePurchaseAPI) CancelMeetup(_ context.Context, id string) (string, error) {
	return f.record("cancel-meetup " + id)
}

var scheduledAt = time.Date(2026, 11, 1, 15, 0, 0, 0, time.UTC)

func buyerDetail() *models.PurchaseDetail {
	d := &models.PurchaseDetail{IsBuyer: true}
	d.ID = "p-1"
	d.PaymentStatus = models.PaymentHeld
	d.Stage = models.StageMeetupScheduled
	d.SellerConfirmed = true
	d.Meetup = &models.MeetupSummary{ID: "m-1", Status: models.MeetupScheduled, ScheduledTime: &scheduledAt}
	return d
}

func sellerPending() *models.PurchaseDetail {
	d := &models.PurchaseDetail{IsBuyer: false}
	d.ID = "p-1"
	d.PaymentStatus = models.PaymentHeld
	d.Stage = models.StagePendingSellerConfirmation
	return d
}

func cancelledDetail() *models.PurchaseDetail {
	d := buyerDetail()
	d.PaymentStatus = models.PaymentCancelled
	d.Stage = models.StageCancelled
	return d
}

func notFound() error {
	return &client.APIError{Status: http.StatusNotFound, Kind: pkgerrors.KindNotFound, Message: "meetup not found"}
}

func TestRefresh_ValidMeetupIsTracked(t *testing.T) {
	api := &fakePurchaseAPI{details: []*models.PurchaseDetail{buyerDetail()}}
	tr := NewTransactionTracker(api, "p-1")

	require.NoError(t, tr.Refresh(context.Background()))

	st := tr.State()
	assert.False(t, st.MeetupInvalid)
	assert.Equal(t, lifecycle.BranchTracking, st.Presentation.MeetupBranch)
	assert.True(t, st.Presentation.Cancel)
	assert.True(t, st.Presentation.CancelMeetup)
	assert.False(t, st.Presentation.AcceptDecline)
	assert.Equal(t, 1, api.meetupCalls)
}

func TestRefresh_MeetupProbe(t *testing.T) {
	tests := []struct {
		name        string
		err         error
		wantInvalid bool
		wantBranch  lifecycle.MeetupBranch
	}{
		{"not found", notFound(), true, lifecycle.BranchScheduling},
		{"malformed", fmt.Errorf("%w: missing data", client.ErrMalformedResponse), true, lifecycle.BranchScheduling},
		{"server error ignored", &client.APIError{Status: 500, Kind: pkgerrors.KindServer, Message: "boom"}, false, lifecycle.BranchTracking},
		{"transport error ignored", fmt.Errorf("%w: dial", client.ErrTransport), false, lifecycle.BranchTracking},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			api := &fakePurchaseAPI{details: []*models.PurchaseDetail{buyerDetail()}, meetupErr: tt.err}
			tr := NewTransactionTracker(api, "p-1")

			require.NoError(t, tr.Refresh(context.Background()))

			st := tr.State()
			assert.Equal(t, tt.wantInvalid, st.MeetupInvalid)
			assert.Equal(t, tt.wantBranch, st.Presentation.MeetupBranch)
			assert.Empty(t, st.Error)
		})
	}
}

func TestRefresh_NoMeetupSkipsProbe(t *testing.T) {
	d := buyerDetail()
	d.Meetup = nil
	api := &fakePurchaseAPI{details: []*models.PurchaseDetail{d}}
	tr := NewTransactionTracker(api, "p-1")

	require.NoError(t, tr.Refresh(context.Background()))

	assert.Equal(t, 0, api.meetupCalls)
	assert.Equal(t, lifecycle.BranchScheduling, tr.State().Presentation.MeetupBranch)
}

func TestRefresh_ExpiredMeetupWinsOverInvalid(t *testing.T) {
	d := buyerDetail()
	d.Meetup.Status = models.MeetupExpired
	api := &fakePurchaseAPI{details: []*models.PurchaseDetail{d}, meetupErr: notFound()}
	tr := NewTransactionTracker(api, "p-1")

	require.NoError(t, tr.Refresh(context.Background()))

	st := tr.State()
	assert.True(t, st.MeetupInvalid)
	assert.Equal(t, lifecycle.BranchExpired, st.Presentation.MeetupBranch)
}

func TestRefresh_CancelledHidesSections(t *testing.T) {
	api := &fakePurchaseAPI{details: []*models.PurchaseDetail{cancelledDetail()}}
	tr := NewTransactionTracker(api, "p-1")

	require.NoError(t, tr.Refresh(context.Background()))

	p := tr.State().Presentation
	assert.True(t, p.Sections.CancelledNotice)
	assert.False(t, p.Sections.Timeline)
	assert.False(t, p.Sections.Receipt)
	assert.False(t, p.Sections.Meetup)
	assert.False(t, p.Cancel)
	assert.False(t, p.CancelMeetup)
}

func TestRefresh_FailureKeepsState(t *testing.T) {
	api := &fakePurchaseAPI{details: []*models.PurchaseDetail{buyerDetail()}}
	tr := NewTransactionTracker(api, "p-1")
	require.NoError(t, tr.Refresh(context.Background()))
	before := tr.State()

	api.detailErr = fmt.Errorf("%w: dial tcp", client.ErrTransport)
	err := tr.Refresh(context.Background())

	require.Error(t, err)
	after := tr.State()
	assert.Same(t, before.Detail, after.Detail)
	assert.Equal(t, before.Presentation, after.Presentation)
	assert.Equal(t, "Network error. Please check your connection and try again.", after.Error)
}

func TestRefresh_Idempotent(t *testing.T) {
	api := &fakePurchaseAPI{details: []*models.PurchaseDetail{buyerDetail()}}
	tr := NewTransactionTracker(api, "p-1")

	require.NoError(t, tr.Refresh(context.Background()))
	first := tr.State()
	require.NoError(t, tr.Refresh(context.Background()))

	assert.Equal(t, first, tr.State())
}

func TestRefresh_CancelledContextDropsResult(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	api := &fakePurchaseAPI{details: []*models.PurchaseDetail{buyerDetail()}, beforeReply: cancel}
	tr := NewTransactionTracker(api, "p-1")

	err := tr.Refresh(ctx)

	assert.ErrorIs(t, err, context.Canceled)
	assert.Nil(t, tr.State().Detail)
	select {
	case <-tr.Updates():
		t.Fatal("no update expected")
	default:
	}
}

func TestUpdates_LatestWins(t *testing.T) {
	api := &fakePurchaseAPI{details: []*models.PurchaseDetail{buyerDetail()}, meetupErr: notFound()}
	tr := NewTransactionTracker(api, "p-1")

	require.NoError(t, tr.Refresh(context.Background()))

	st := <-tr.Updates()
	assert.True(t, st.MeetupInvalid)
	select {
	case <-tr.Updates():
		t.Fatal("only the latest snapshot should be buffered")
	default:
	}
}

func TestAccept(t *testing.T) {
	accepted := sellerPending()
	accepted.SellerConfirmed = true
	accepted.Stage = models.StageAccepted
	api := &fakePurchaseAPI{
		details:   []*models.PurchaseDetail{sellerPending(), accepted},
		actionMsg: "Purchase accepted",
	}
	tr := NewTransactionTracker(api, "p-1")
	require.NoError(t, tr.Refresh(context.Background()))
	require.True(t, tr.State().Presentation.AcceptDecline)

	require.NoError(t, tr.Accept(context.Background()))

	st := tr.State()
	assert.Equal(t, []string{"accept p-1"}, api.calls)
	assert.Equal(t, "Purchase accepted", st.Notice)
	assert.False(t, st.Presentation.AcceptDecline)
	assert.Equal(t, 2, api.detailCalls)
}

func TestAccept_NotOfferedToBuyer(t *testing.T) {
	api := &fakePurchaseAPI{details: []*models.PurchaseDetail{buyerDetail()}}
	tr := NewTransactionTracker(api, "p-1")
	require.NoError(t, tr.Refresh(context.Background()))

	err := tr.Accept(context.Background())

	assert.ErrorIs(t, err, ErrActionNotOffered)
	assert.Empty(t, api.calls)
}

func TestActions_BeforeLoad(t *testing.T) {
	tr := NewTransactionTracker(&fakePurchaseAPI{}, "p-1")

	assert.ErrorIs(t, tr.Accept(context.Background()), ErrActionNotOffered)
	assert.ErrorIs(t, tr.Cancel(context.Background(), ""), ErrActionNotOffered)
	assert.ErrorIs(t, tr.CancelMeetup(context.Background(), func() bool { return true }), ErrActionNotOffered)
}

func TestDecline_FailureSetsError(t *testing.T) {
	api := &fakePurchaseAPI{
		details:   []*models.PurchaseDetail{sellerPending()},
		actionErr: &client.APIError{Status: 409, Kind: pkgerrors.KindConflict, Message: "transition not allowed from current state"},
	}
	tr := NewTransactionTracker(api, "p-1")
	require.NoError(t, tr.Refresh(context.Background()))

	err := tr.Decline(context.Background(), "sold elsewhere")

	assert.ErrorIs(t, err, pkgerrors.ErrConflict)
	st := tr.State()
	assert.Equal(t, "transition not allowed from current state", st.Error)
	assert.Equal(t, models.StagePendingSellerConfirmation, st.Detail.Stage)
	assert.Equal(t, 1, api.detailCalls)
}

func TestCancel(t *testing.T) {
	api := &fakePurchaseAPI{
		details:   []*models.PurchaseDetail{buyerDetail(), cancelledDetail()},
		actionMsg: "Purchase cancelled. Your payment hold has been released.",
	}
	tr := NewTransactionTracker(api, "p-1")
	require.NoError(t, tr.Refresh(context.Background()))

	require.NoError(t, tr.Cancel(context.Background(), "changed my mind"))

	st := tr.State()
	assert.Equal(t, []string{"cancel p-1 changed my mind"}, api.calls)
	assert.True(t, st.Presentation.Sections.CancelledNotice)
	assert.Equal(t, "Purchase cancelled. Your payment hold has been released.", st.Notice)
}

func TestCancel_BlockedOnceCaptured(t *testing.T) {
	d := buyerDetail()
	d.PaymentStatus = models.PaymentCaptured
	api := &fakePurchaseAPI{details: []*models.PurchaseDetail{d}}
	tr := NewTransactionTracker(api, "p-1")
	require.NoError(t, tr.Refresh(context.Background()))

	assert.ErrorIs(t, tr.Cancel(context.Background(), ""), ErrActionNotOffered)
}

func TestCancelMeetup(t *testing.T) {
	rescheduling := buyerDetail()
	rescheduling.Stage = models.StageAwaitingMeetup
	rescheduling.Meetup = nil
	api := &fakePurchaseAPI{
		details:   []*models.PurchaseDetail{buyerDetail(), rescheduling},
		actionMsg: "Meetup cancelled. You can schedule a new one.",
	}
	tr := NewTransactionTracker(api, "p-1")
	require.NoError(t, tr.Refresh(context.Background()))

	require.NoError(t, tr.CancelMeetup(context.Background(), func() bool { return true }))

	st := tr.State()
	assert.Equal(t, []string{"cancel-meetup m-1"}, api.calls)
	assert.Equal(t, "Meetup cancelled. You can schedule a new one.", st.Notice)
	assert.Equal(t, lifecycle.BranchScheduling, st.Presentation.MeetupBranch)
}

func TestCancelMeetup_NotConfirmed(t *testing.T) {
	api := &fakePurchaseAPI{details: []*models.PurchaseDetail{buyerDetail()}}
	tr := NewTransactionTracker(api, "p-1")
	require.NoError(t, tr.Refresh(context.Background()))

	err := tr.CancelMeetup(context.Background(), func() bool { return false })

	assert.ErrorIs(t, err, ErrNotConfirmed)
	assert.Empty(t, api.calls)
}

func TestCancelMeetup_FailureNoRetry(t *testing.T) {
	api := &fakePurchaseAPI{
		details:   []*models.PurchaseDetail{buyerDetail()},
		actionErr: &client.APIError{Status: 409, Kind: pkgerrors.KindConflict, Message: "meetup is not active"},
	}
	tr := NewTransactionTracker(api, "p-1")
	require.NoError(t, tr.Refresh(context.Background()))

	err := tr.CancelMeetup(context.Background(), func() bool { return true })

	require.Error(t, err)
	assert.True(t, errors.Is(err, pkgerrors.ErrConflict))
	assert.Len(t, api.calls, 1)
	st := tr.State()
	assert.Equal(t, "meetup is not active", st.Error)
	assert.Equal(t, lifecycle.BranchTracking, st.Presentation.MeetupBranch)
}
