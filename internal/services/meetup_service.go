package service

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"fmt"
	"log/slog"
	"math/big"
	"time"

	stderrors "errors"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/honeynil/BrrowMarketplace/internal/infrastructure/kafka"
	"github.com/honeynil/BrrowMarketplace/internal/infrastructure/payments"
	"github.com/honeynil/BrrowMarketplace/internal/infrastructure/redis"
	"github.com/honeynil/BrrowMarketplace/internal/lifecycle"
	"github.com/honeynil/BrrowMarketplace/internal/models"
	"github.com/honeynil/BrrowMarketplace/internal/repository"
	pkgerrors "github.com/honeynil/BrrowMarketplace/pkg/errors"
)

type MeetupService interface {
	Schedule(ctx context.Context, userID string, in models.ScheduleMeetupInput) (*models.Meetup, error)
	Get(ctx context.Context, userID, meetupID string) (*models.Meetup, error)
	ListMine(ctx context.Context, userID string) ([]models.Meetup, error)
	Cancel(ctx context.Context, userID, meetupID string) (*models.Meetup, error)
	Arrive(ctx context.Context, userID, meetupID string) (*models.Meetup, error)
	GenerateCode(ctx context.Context, userID, meetupID string) (*models.VerificationCode, error)
	Verify(ctx context.Context, userID, meetupID, code string) (*models.VerificationResult, error)
}

type MeetupOptions struct {
	// ExpiryWindow is added to the scheduled time to get expires_at. Zero
	// disables expiry.
	ExpiryWindow time.Duration
	CodeTTL      time.Duration
}

type meetupService struct {
	meetups   repository.MeetupRepository
	purchases repository.PurchaseRepository
	redis     redis.RedisClient
	gateway   payments.Gateway
	producer  kafka.KafkaProducer
	opts      MeetupOptions
	now       func() time.Time
}

func NewMeetupService(
	meetups repository.MeetupRepository,
	purchases repository.PurchaseRepository,
	redisClient redis.RedisClient,
	gateway payments.Gateway,
	producer kafka.KafkaProducer,
	opts MeetupOptions,
) *meetupService {
	return &meetupService{
		meetups:   meetups,
		purchases: purchases,
		redis:     redisClient,
		gateway:   gateway,
		producer:  producer,
		opts:      opts,
		now:       time.Now,
	}
}

func meetupEvent(t models.EventType, m *models.Meetup, actorID string) models.Event {
	return models.Event{
		Type:        t,
		AggregateID: m.ID,
		ActorID:     actorID,
		BuyerID:     m.BuyerID,
		SellerID:    m.SellerID,
		Status:      string(m.Status),
		OccurredAt:  m.UpdatedAt,
	}
}

func isParty(m *models.Meetup, userID string) bool {
	return userID == m.BuyerID || userID == m.SellerID
}

func (s *meetupService) load(ctx context.Context, userID, meetupID string) (*models.Meetup, error) {
	m, err := s.meetups.GetByID(ctx, meetupID)
	if err != nil {
		return nil, err
	}
	if !isParty(m, userID) {
		slog.Warn("meetup accessed by outsider", "meetup_id", meetupID, "user_id", userID)
		return nil, fmt.Errorf("%w: not a party to meetup %s", pkgerrors.ErrForbidden, meetupID)
	}
	return m, nil
}

func (s *meetupService) Schedule(ctx context.Context, userID string, in models.ScheduleMeetupInput) (*models.Meetup, error) {
	ctx, span := otel.Tracer("meetup-service").Start(ctx, "ScheduleMeetup")
	span.SetAttributes(attribute.String("purchase_id", in.PurchaseID))
	defer span.End()

	if in.PurchaseID == "" || (in.Location == nil && in.ScheduledTime == nil) {
		err := fmt.Errorf("%w: purchase and a location or time are required", pkgerrors.ErrInvalidInput)
		fail(span, err, "invalid meetup")
		return nil, err
	}

	p, err := s.purchases.GetByID(ctx, in.PurchaseID)
	if err != nil {
		fail(span, err, "purchase lookup failed")
		return nil, err
	}
	if _, err := role(p, userID); err != nil {
		fail(span, err, "not a party")
		return nil, err
	}

	now := s.now().UTC()
	u, err := lifecycle.Plan(p, lifecycle.EventScheduleMeetup, now, "")
	if err != nil {
		fail(span, err, "purchase cannot schedule")
		slog.Warn("meetup scheduling refused", "purchase_id", p.ID, "stage", p.Stage, "error", err)
		return nil, err
	}

	m := &models.Meetup{
		ID:            uuid.NewString(),
		PurchaseID:    p.ID,
		BuyerID:       p.BuyerID,
		SellerID:      p.SellerID,
		Location:      in.Location,
		ScheduledTime: in.ScheduledTime,
		Status:        models.MeetupScheduled,
		Notes:         in.Notes,
	}
	if s.opts.ExpiryWindow > 0 {
		base := now
		if in.ScheduledTime != nil {
			base = *in.ScheduledTime
		}
		expires := base.Add(s.opts.ExpiryWindow)
		m.ExpiresAt = &expires
	}
	if err := s.meetups.Create(ctx, m); err != nil {
		fail(span, err, "meetup creation failed")
		return nil, err
	}

	u.MeetupID = &m.ID
	if _, err := s.purchases.Transition(ctx, p.ID, u); err != nil {
		fail(span, err, "purchase transition failed")
		slog.Error("failed to attach meetup to purchase", "purchase_id", p.ID, "meetup_id", m.ID, "error", err)
		m.Status = models.MeetupCancelled
		m.UpdatedAt = now
		if uerr := s.meetups.Update(ctx, m, models.MeetupScheduled); uerr != nil {
			slog.Error("failed to cancel orphaned meetup", "meetup_id", m.ID, "error", uerr)
		}
		return nil, err
	}

	publish(ctx, s.producer, models.TopicMeetups, meetupEvent(models.EventMeetupScheduled, m, userID))
	slog.Info("meetup scheduled", "meetup_id", m.ID, "purchase_id", p.ID, "user_id", userID)
	return m, nil
}

func (s *meetupService) Get(ctx context.Context, userID, meetupID string) (*models.Meetup, error) {
	ctx, span := otel.Tracer("meetup-service").Start(ctx, "GetMeetup")
	span.SetAttributes(attribute.String("meetup_id", meetupID))
	defer span.End()

	m, err := s.load(ctx, userID, meetupID)
	if err != nil {
		fail(span, err, "meetup lookup failed")
		return nil, err
	}
	return m, nil
}

func (s *meetupService) ListMine(ctx context.Context, userID string) ([]models.Meetup, error) {
	ctx, span := otel.Tracer("meetup-service").Start(ctx, "ListMeetups")
	defer span.End()

	meetups, err := s.meetups.ListByUser(ctx, userID)
	if err != nil {
		fail(span, err, "list meetups failed")
		return nil, err
	}
	return meetups, nil
}

// Cancel cancels an active meetup and returns its purchase to awaiting a new
// meetup.
func (s *meetupService) Cancel(ctx context.Context, userID, meetupID string) (*models.Meetup, error) {
	ctx, span := otel.Tracer("meetup-service").Start(ctx, "CancelMeetup")
	span.SetAttributes(attribute.String("meetup_id", meetupID))
	defer span.End()

	m, err := s.load(ctx, userID, meetupID)
	if err != nil {
		fail(span, err, "meetup lookup failed")
		return nil, err
	}
	if err := lifecycle.NextMeetupStatus(m.Status, models.MeetupCancelled); err != nil {
		fail(span, err, "meetup not cancellable")
		return nil, err
	}

	from := m.Status
	m.Status = models.MeetupCancelled
	m.UpdatedAt = s.now().UTC()
	if err := s.meetups.Update(ctx, m, from); err != nil {
		fail(span, err, "meetup update failed")
		return nil, err
	}

	if err := s.release(ctx, m, lifecycle.EventMeetupCancelled); err != nil {
		fail(span, err, "purchase transition failed")
		s.restoreMeetup(ctx, m, from)
		return nil, err
	}

	publish(ctx, s.producer, models.TopicMeetups, meetupEvent(models.EventMeetupCancelled, m, userID))
	slog.Info("meetup cancelled", "meetup_id", m.ID, "purchase_id", m.PurchaseID, "user_id", userID)
	return m, nil
}

// release moves the purchase of m back to AWAITING_MEETUP if m is still its
// current meetup.
func (s *meetupService) release(ctx context.Context, m *models.Meetup, ev lifecycle.Event) error {
	p, err := s.purchases.GetByID(ctx, m.PurchaseID)
	if err != nil {
		if stderrors.Is(err, pkgerrors.ErrPurchaseNotFound) {
			return nil
		}
		return err
	}
	if p.Stage != models.StageMeetupScheduled || p.MeetupID == nil || *p.MeetupID != m.ID {
		return nil
	}
	u, err := lifecycle.Plan(p, ev, m.UpdatedAt, "")
	if err != nil {
		return err
	}
	if _, err := s.purchases.Transition(ctx, p.ID, u); err != nil {
		slog.Error("failed to release purchase from meetup", "purchase_id", p.ID, "meetup_id", m.ID, "error", err)
		return err
	}
	return nil
}

func (s *meetupService) Arrive(ctx context.Context, userID, meetupID string) (*models.Meetup, error) {
	ctx, span := otel.Tracer("meetup-service").Start(ctx, "ArriveAtMeetup")
	span.SetAttributes(attribute.String("meetup_id", meetupID))
	defer span.End()

	m, err := s.load(ctx, userID, meetupID)
	if err != nil {
		fail(span, err, "meetup lookup failed")
		return nil, err
	}
	if !m.Status.Active() {
		err = fmt.Errorf("%w: meetup is %s", pkgerrors.ErrMeetupNotActive, m.Status)
		fail(span, err, "meetup not active")
		return nil, err
	}

	now := s.now().UTC()
	if userID == m.BuyerID && m.BuyerArrivedAt == nil {
		m.BuyerArrivedAt = &now
	}
	if userID == m.SellerID && m.SellerArrivedAt == nil {
		m.SellerArrivedAt = &now
	}
	to := lifecycle.ArrivalStatus(m.BuyerArrivedAt != nil, m.SellerArrivedAt != nil)
	if to == m.Status {
		return m, nil
	}
	if err := lifecycle.NextMeetupStatus(m.Status, to); err != nil {
		fail(span, err, "invalid arrival")
		return nil, err
	}

	from := m.Status
	m.Status = to
	m.UpdatedAt = now
	if err := s.meetups.Update(ctx, m, from); err != nil {
		fail(span, err, "meetup update failed")
		return nil, err
	}
	slog.Info("meetup arrival recorded", "meetup_id", m.ID, "user_id", userID, "status", m.Status)
	return m, nil
}

func newPIN() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1_000_000))
	if err != nil {
		return "", fmt.Errorf("failed to generate verification code: %w", err)
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}

// GenerateCode issues the PIN the seller shows the buyer at the handoff.
func (s *meetupService) GenerateCode(ctx context.Context, userID, meetupID string) (*models.VerificationCode, error) {
	ctx, span := otel.Tracer("meetup-service").Start(ctx, "GenerateVerificationCode")
	span.SetAttributes(attribute.String("meetup_id", meetupID))
	defer span.End()

	m, err := s.load(ctx, userID, meetupID)
	if err != nil {
		fail(span, err, "meetup lookup failed")
		return nil, err
	}
	if userID != m.SellerID {
		err = fmt.Errorf("%w: only the seller can issue a verification code", pkgerrors.ErrForbidden)
		fail(span, err, "not the seller")
		return nil, err
	}
	if !m.Status.Active() {
		err = fmt.Errorf("%w: meetup is %s", pkgerrors.ErrMeetupNotActive, m.Status)
		fail(span, err, "meetup not active")
		return nil, err
	}

	code, err := newPIN()
	if err != nil {
		fail(span, err, "code generation failed")
		return nil, err
	}
	if err := s.redis.Set(ctx, redis.VerificationCodeKey(m.ID), code, s.opts.CodeTTL); err != nil {
		fail(span, err, "code store failed")
		slog.Error("failed to store verification code", "meetup_id", m.ID, "error", err)
		return nil, fmt.Errorf("failed to store verification code: %w", err)
	}

	slog.Info("verification code issued", "meetup_id", m.ID, "seller_id", userID)
	return &models.VerificationCode{MeetupID: m.ID, Code: code, ExpiresAt: s.now().UTC().Add(s.opts.CodeTTL)}, nil
}

// Verify checks the buyer's PIN, marks the meetup verified and captures the
// held payment, completing the purchase. The purchase is moved first; if the
// meetup update or the capture fails, both are put back and the PIN stays
// valid so the buyer can try again.
func (s *meetupService) Verify(ctx context.Context, userID, meetupID, code string) (*models.VerificationResult, error) {
	ctx, span := otel.Tracer("meetup-service").Start(ctx, "VerifyMeetup")
	span.SetAttributes(attribute.String("meetup_id", meetupID))
	defer span.End()

	m, err := s.load(ctx, userID, meetupID)
	if err != nil {
		fail(span, err, "meetup lookup failed")
		return nil, err
	}
	if userID != m.BuyerID {
		err = fmt.Errorf("%w: only the buyer can verify", pkgerrors.ErrForbidden)
		fail(span, err, "not the buyer")
		return nil, err
	}
	if err := lifecycle.NextMeetupStatus(m.Status, models.MeetupVerified); err != nil {
		fail(span, err, "meetup not verifiable")
		return nil, err
	}

	key := redis.VerificationCodeKey(m.ID)
	stored, err := s.redis.Get(ctx, key)
	if err != nil && !stderrors.Is(err, redis.ErrKeyNotFound) {
		fail(span, err, "code lookup failed")
		return nil, fmt.Errorf("failed to read verification code: %w", err)
	}
	if err != nil || subtle.ConstantTimeCompare([]byte(stored), []byte(code)) != 1 {
		slog.Warn("verification code rejected", "meetup_id", m.ID, "buyer_id", userID)
		return nil, pkgerrors.ErrInvalidVerificationCode
	}

	now := s.now().UTC()
	p, err := s.purchases.GetByID(ctx, m.PurchaseID)
	if err != nil {
		fail(span, err, "purchase lookup failed")
		return nil, err
	}
	u, err := lifecycle.Plan(p, lifecycle.EventVerify, now, "")
	if err != nil {
		fail(span, err, "purchase not verifiable")
		return nil, err
	}
	if p, err = s.purchases.Transition(ctx, p.ID, u); err != nil {
		fail(span, err, "purchase transition failed")
		return nil, err
	}

	from := m.Status
	m.Status = models.MeetupVerified
	m.VerifiedAt = &now
	m.UpdatedAt = now
	if err := s.meetups.Update(ctx, m, from); err != nil {
		fail(span, err, "meetup update failed")
		s.revertVerify(ctx, p, now)
		return nil, err
	}

	if err := s.gateway.Capture(ctx, p.PaymentIntentID); err != nil {
		fail(span, err, "capture failed")
		slog.Error("failed to capture payment", "purchase_id", p.ID, "payment_intent_id", p.PaymentIntentID, "error", err)
		s.restoreMeetup(ctx, m, from)
		s.revertVerify(ctx, p, now)
		return nil, fmt.Errorf("failed to capture payment: %w", err)
	}
	if u, err = lifecycle.Plan(p, lifecycle.EventCapture, now, ""); err != nil {
		fail(span, err, "purchase not capturable")
		return nil, err
	}
	completed, err := s.purchases.Transition(ctx, p.ID, u)
	if err != nil {
		fail(span, err, "purchase transition failed")
		slog.Error("captured payment not recorded", "purchase_id", p.ID, "payment_intent_id", p.PaymentIntentID, "error", err)
		return nil, err
	}
	p = completed

	if err := s.redis.Del(ctx, key); err != nil {
		slog.Warn("failed to delete verification code", "meetup_id", m.ID, "error", err)
	}

	publish(ctx, s.producer, models.TopicMeetups, meetupEvent(models.EventMeetupVerified, m, userID))
	publish(ctx, s.producer, models.TopicPurchases, purchaseEvent(models.EventPurchaseCompleted, p, userID, now))
	slog.Info("meetup verified", "meetup_id", m.ID, "purchase_id", p.ID, "amount", p.Amount.StringFixed(2))
	return &models.VerificationResult{
		Verified:        true,
		MeetupStatus:    m.Status,
		PurchaseStage:   p.Stage,
		PaymentCaptured: p.PaymentStatus == models.PaymentCaptured,
	}, nil
}

// revertVerify returns a verified purchase to MEETUP_SCHEDULED.
func (s *meetupService) revertVerify(ctx context.Context, p *models.Purchase, now time.Time) {
	u, err := lifecycle.Plan(p, lifecycle.EventVerifyReverted, now, "")
	if err == nil {
		_, err = s.purchases.Transition(ctx, p.ID, u)
	}
	if err != nil {
		slog.Error("failed to revert purchase verification", "purchase_id", p.ID, "error", err)
	}
}

// restoreMeetup writes m back with status to, undoing an update that the
// purchase could not follow.
func (s *meetupService) restoreMeetup(ctx context.Context, m *models.Meetup, to models.MeetupStatus) {
	current := m.Status
	m.Status = to
	if current == models.MeetupVerified {
		m.VerifiedAt = nil
	}
	if err := s.meetups.Update(ctx, m, current); err != nil {
		slog.Error("failed to restore meetup", "meetup_id", m.ID, "status", to, "error", err)
	}
}
