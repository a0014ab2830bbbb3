// Package workflow owns the appointment lifecycle: booking validation, the
// status state machine and the notifications that follow a committed change.
//
//	PENDING ──► APPROVED ──► COMPLETED
//	   │            │
//	   └──► CANCELLED ◄┘      (reason required)
//
// COMPLETED and CANCELLED are terminal.
package workflow

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"

	"nursehub-api/internal/auth"
	"nursehub-api/internal/model"
	"nursehub-api/internal/notify"
	"nursehub-api/internal/store"
)

var (
	submittedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "nursehub_appointments_submitted_total",
		Help: "Appointments accepted from the public booking form",
	})
	transitionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "nursehub_appointment_transitions_total",
		Help: "Committed status transitions by target status",
	}, []string{"to"})
)

var transitions = map[model.Status][]model.Status{
	model.StatusPending:  {model.StatusApproved, model.StatusCancelled},
	model.StatusApproved: {model.StatusCompleted, model.StatusCancelled},
}

// CanTransition reports whether the graph has an edge from -> to. Terminal
// statuses have none.
func CanTransition(from, to model.Status) bool {
	if from.Terminal() {
		return false
	}
	for _, s := range transitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// Repository is the durable appointment store.
type Repository interface {
	CreateAppointment(ctx context.Context, a *model.Appointment) error
	GetAppointment(ctx context.Context, id string) (*model.Appointment, error)
	ListAppointments(ctx context.Context, status *model.Status) ([]model.Appointment, error)
	UpdateStatus(ctx context.Context, id string, from, to model.Status, reason *string) (*model.Appointment, error)
	DeleteAppointment(ctx context.Context, id string) error
	CountByStatus(ctx context.Context) (model.Stats, error)
}

// Notifier delivers email and SMS; failures are logged, never returned.
type Notifier interface {
	SendConfirmation(ctx context.Context, to string, status model.Status, name, cancellationReason string) error
	SendTextMessage(ctx context.Context, to, body string) error
}

type Options struct {
	// OperatorPhone receives a summary of every new booking; empty disables.
	OperatorPhone string
	// CountryCode is the required phone prefix, e.g. "+216".
	CountryCode   string
	NotifyTimeout time.Duration
}

type Service struct {
	repo      Repository
	notifier  Notifier
	validator *bookingValidator
	opts      Options
	log       *zap.Logger
}

func New(repo Repository, notifier Notifier, opts Options, log *zap.Logger) *Service {
	if opts.CountryCode == "" {
		opts.CountryCode = "+216"
	}
	if opts.NotifyTimeout <= 0 {
		opts.NotifyTimeout = 10 * time.Second
	}
	return &Service{
		repo:      repo,
		notifier:  notifier,
		validator: newBookingValidator(opts.CountryCode),
		opts:      opts,
		log:       log.Named("workflow"),
	}
}

// Submit validates a public booking and stores it as PENDING.
func (s *Service) Submit(ctx context.Context, in BookingInput) (*model.Appointment, error) {
	if err := s.validator.check(&in); err != nil {
		return nil, err
	}

	a := &model.Appointment{
		Name:    in.Name,
		Email:   in.Email,
		Phone:   in.Phone,
		Address: in.Address,
		Reason:  in.Reason,
		Message: in.Message,
		Status:  model.StatusPending,
	}
	if err := s.repo.CreateAppointment(ctx, a); err != nil {
		return nil, fmt.Errorf("create appointment: %w", err)
	}
	submittedTotal.Inc()
	s.log.Info("appointment submitted", zap.String("id", a.ID))

	nctx, cancel := s.notifyContext(ctx)
	defer cancel()
	s.warn(a.ID, "email", s.notifier.SendConfirmation(nctx, a.Email, model.StatusPending, a.Name, ""))
	if s.opts.OperatorPhone != "" {
		s.warn(a.ID, "operator sms", s.notifier.SendTextMessage(nctx, s.opts.OperatorPhone, notify.OperatorText(a)))
	}
	return a, nil
}

// Transition moves an appointment along the status graph. A move to
// CANCELLED needs a non-empty reason, which is stored verbatim.
func (s *Service) Transition(ctx context.Context, id string, target model.Status, cancellationReason string) (*model.Appointment, error) {
	if err := requireAdmin(ctx); err != nil {
		return nil, err
	}
	if !target.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidStatus, target)
	}

	cur, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !CanTransition(cur.Status, target) {
		return nil, fmt.Errorf("%w: %s to %s", ErrInvalidTransition, cur.Status, target)
	}
	var reason *string
	if target == model.StatusCancelled {
		if strings.TrimSpace(cancellationReason) == "" {
			return nil, fmt.Errorf("%w: cancellation requires a reason", ErrInvalidTransition)
		}
		reason = &cancellationReason
	}

	updated, err := s.repo.UpdateStatus(ctx, id, cur.Status, target, reason)
	switch {
	case errors.Is(err, store.ErrNotFound):
		return nil, ErrNotFound
	case errors.Is(err, store.ErrStatusChanged):
		return nil, fmt.Errorf("%w: status changed concurrently", ErrInvalidTransition)
	case err != nil:
		return nil, fmt.Errorf("update status: %w", err)
	}
	transitionsTotal.WithLabelValues(string(target)).Inc()
	s.log.Info("appointment status changed",
		zap.String("id", id), zap.String("from", string(cur.Status)), zap.String("to", string(target)))

	nctx, cancel := s.notifyContext(ctx)
	defer cancel()
	s.warn(id, "email", s.notifier.SendConfirmation(nctx, updated.Email, target, updated.Name, cancellationReason))
	if (target == model.StatusApproved || target == model.StatusCancelled) && updated.Phone != "" {
		s.warn(id, "customer sms", s.notifier.SendTextMessage(nctx, updated.Phone, notify.CustomerText(target, updated.Name, cancellationReason)))
	}
	return updated, nil
}

func (s *Service) Get(ctx context.Context, id string) (*model.Appointment, error) {
	if err := requireAdmin(ctx); err != nil {
		return nil, err
	}
	return s.get(ctx, id)
}

// List returns appointments newest first; nil means no status filter.
func (s *Service) List(ctx context.Context, filter *model.Status) ([]model.Appointment, error) {
	if err := requireAdmin(ctx); err != nil {
		return nil, err
	}
	out, err := s.repo.ListAppointments(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("list appointments: %w", err)
	}
	return out, nil
}

// Remove permanently deletes an appointment. Nobody is notified.
func (s *Service) Remove(ctx context.Context, id string) error {
	if err := requireAdmin(ctx); err != nil {
		return err
	}
	err := s.repo.DeleteAppointment(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("delete appointment: %w", err)
	}
	s.log.Info("appointment deleted", zap.String("id", id))
	return nil
}

func (s *Service) Stats(ctx context.Context) (model.Stats, error) {
	if err := requireAdmin(ctx); err != nil {
		return model.Stats{}, err
	}
	st, err := s.repo.CountByStatus(ctx)
	if err != nil {
		return model.Stats{}, fmt.Errorf("count appointments: %w", err)
	}
	return st, nil
}

func (s *Service) get(ctx context.Context, id string) (*model.Appointment, error) {
	a, err := s.repo.GetAppointment(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get appointment: %w", err)
	}
	return a, nil
}

func requireAdmin(ctx context.Context) error {
	if _, ok := auth.FromContext(ctx); !ok {
		return ErrUnauthorized
	}
	return nil
}

// notifyContext outlives the request's cancellation but not the timeout.
func (s *Service) notifyContext(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.WithoutCancel(ctx), s.opts.NotifyTimeout)
}

func (s *Service) warn(id, what string, err error) {
	if err != nil {
		s.log.Warn("notification failed", zap.String("id", id), zap.String("channel", what), zap.Error(err))
	}
}
