package prospect

import (
	"context"
	"fmt"
	"net/http"
	"sort"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/matijepekovic/pricer-api/internal/common"
	"github.com/matijepekovic/pricer-api/internal/events"
	"github.com/matijepekovic/pricer-api/internal/obs"
	"github.com/matijepekovic/pricer-api/internal/store"
)

// Phase tracks where a prospect sits in the sales pipeline.
type Phase string

const (
	PhaseLead       Phase = "lead"
	PhaseQuoted     Phase = "quoted"
	PhaseWon        Phase = "won"
	PhaseInProgress Phase = "in_progress"
	PhaseDone       Phase = "done"
)

func validPhase(p Phase) bool {
	switch p {
	case PhaseLead, PhaseQuoted, PhaseWon, PhaseInProgress, PhaseDone:
		return true
	}
	return false
}

// Reminder is a follow-up note with a due time. FiredAt is set once the
// sweep has emitted its due event, so a reminder fires at most once.
type Reminder struct {
	ID      string     `json:"id"`
	Note    string     `json:"note"`
	DueAt   time.Time  `json:"dueAt"`
	FiredAt *time.Time `json:"firedAt,omitempty"`
}

// Prospect is a potential customer and the quotes prepared for them.
type Prospect struct {
	ID          string     `json:"id"`
	Name        string     `json:"name"`
	Email       string     `json:"email"`
	Phone       string     `json:"phone"`
	CompanyName string     `json:"companyName"`
	Notes       string     `json:"notes"`
	Phase       Phase      `json:"phase"`
	QuoteIDs    []string   `json:"quoteIds"`
	Reminders   []Reminder `json:"reminders"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
}

// Input is the payload for creating or updating a prospect.
type Input struct {
	Name        string `json:"name" validate:"required"`
	Email       string `json:"email" validate:"omitempty,email"`
	Phone       string `json:"phone"`
	CompanyName string `json:"companyName"`
	Notes       string `json:"notes"`
}

// ReminderInput is the payload for adding a reminder.
type ReminderInput struct {
	Note  string    `json:"note" validate:"required"`
	DueAt time.Time `json:"dueAt" validate:"required"`
}

// Service owns the prospect pipeline.
type Service struct {
	store    store.Store
	events   *events.Bus
	validate *validator.Validate
	logger   zerolog.Logger

	// Guards read-modify-write cycles on individual prospects and the sweep.
	mu sync.Mutex
}

// ServiceConfig groups Service dependencies.
type ServiceConfig struct {
	Store  store.Store
	Events *events.Bus
	Logger zerolog.Logger
}

// NewService constructs a Service instance.
func NewService(cfg ServiceConfig) (*Service, error) {
	if cfg.Store == nil {
		return nil, fmt.Errorf("prospect: store is required")
	}
	return &Service{
		store:    cfg.Store,
		events:   cfg.Events,
		validate: validator.New(),
		logger:   cfg.Logger,
	}, nil
}

func prospectKey(id string) string { return "prospects/" + id }

// Create registers a new prospect in the lead phase.
func (s *Service) Create(ctx context.Context, in Input) (Prospect, error) {
	if err := s.validate.Struct(in); err != nil {
		return Prospect{}, validationError("invalid prospect", err)
	}
	now := time.Now().UTC()
	p := Prospect{
		ID:          uuid.NewString(),
		Name:        in.Name,
		Email:       in.Email,
		Phone:       in.Phone,
		CompanyName: in.CompanyName,
		Notes:       in.Notes,
		Phase:       PhaseLead,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.store.Save(ctx, prospectKey(p.ID), p); err != nil {
		return Prospect{}, fmt.Errorf("save prospect: %w", err)
	}
	s.logger.Info().Str("prospect_id", p.ID).Str("name", p.Name).Msg("prospect created")
	return p, nil
}

// Get loads a prospect by id.
func (s *Service) Get(ctx context.Context, id string) (Prospect, error) {
	var p Prospect
	found, err := s.store.Load(ctx, prospectKey(id), &p)
	if err != nil {
		return Prospect{}, err
	}
	if !found {
		return Prospect{}, notFound("prospect not found")
	}
	return p, nil
}

// List returns all prospects sorted by most recent update.
func (s *Service) List(ctx context.Context) ([]Prospect, error) {
	keys, err := s.store.List(ctx, "prospects/")
	if err != nil {
		return nil, err
	}
	prospects := make([]Prospect, 0, len(keys))
	for _, key := range keys {
		var p Prospect
		found, err := s.store.Load(ctx, key, &p)
		if err != nil {
			return nil, err
		}
		if found {
			prospects = append(prospects, p)
		}
	}
	sort.Slice(prospects, func(i, j int) bool { return prospects[i].UpdatedAt.After(prospects[j].UpdatedAt) })
	return prospects, nil
}

// Update replaces a prospect's contact fields.
func (s *Service) Update(ctx context.Context, id string, in Input) (Prospect, error) {
	if err := s.validate.Struct(in); err != nil {
		return Prospect{}, validationError("invalid prospect", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	p, err := s.Get(ctx, id)
	if err != nil {
		return Prospect{}, err
	}
	p.Name = in.Name
	p.Email = in.Email
	p.Phone = in.Phone
	p.CompanyName = in.CompanyName
	p.Notes = in.Notes
	p.UpdatedAt = time.Now().UTC()
	if err := s.store.Save(ctx, prospectKey(id), p); err != nil {
		return Prospect{}, fmt.Errorf("save prospect: %w", err)
	}
	return p, nil
}

// Delete removes a prospect. Quotes it pointed at are left alone.
func (s *Service) Delete(ctx context.Context, id string) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	return s.store.Delete(ctx, prospectKey(id))
}

// SetPhase moves a prospect to a new pipeline phase.
func (s *Service) SetPhase(ctx context.Context, id string, phase Phase) (Prospect, error) {
	if !validPhase(phase) {
		return Prospect{}, validationError("unknown phase", nil)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	p, err := s.Get(ctx, id)
	if err != nil {
		return Prospect{}, err
	}
	if p.Phase == phase {
		return p, nil
	}
	from := p.Phase
	p.Phase = phase
	p.UpdatedAt = time.Now().UTC()
	if err := s.store.Save(ctx, prospectKey(id), p); err != nil {
		return Prospect{}, fmt.Errorf("save prospect: %w", err)
	}
	if obs.ProspectPhaseChanges != nil {
		obs.ProspectPhaseChanges.WithLabelValues(string(phase)).Inc()
	}
	if s.events != nil {
		if _, err := s.events.Emit(ctx, events.TopicProspectPhaseChanged, p.ID, map[string]any{
			"prospectId": p.ID,
			"from":       from,
			"to":         phase,
		}); err != nil {
			s.logger.Warn().Err(err).Str("prospect_id", p.ID).Msg("emit phase changed event")
		}
	}
	return p, nil
}

// AttachQuote links a built quote to a prospect. A lead that receives
// its first quote moves to the quoted phase automatically.
func (s *Service) AttachQuote(ctx context.Context, id, quoteID string) (Prospect, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, err := s.Get(ctx, id)
	if err != nil {
		return Prospect{}, err
	}
	for _, existing := range p.QuoteIDs {
		if existing == quoteID {
			return p, nil
		}
	}
	p.QuoteIDs = append(p.QuoteIDs, quoteID)
	if p.Phase == PhaseLead {
		p.Phase = PhaseQuoted
	}
	p.UpdatedAt = time.Now().UTC()
	if err := s.store.Save(ctx, prospectKey(id), p); err != nil {
		return Prospect{}, fmt.Errorf("save prospect: %w", err)
	}
	return p, nil
}

// AddReminder schedules a follow-up reminder on a prospect.
func (s *Service) AddReminder(ctx context.Context, id string, in ReminderInput) (Prospect, error) {
	if err := s.validate.Struct(in); err != nil {
		return Prospect{}, validationError("invalid reminder", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	p, err := s.Get(ctx, id)
	if err != nil {
		return Prospect{}, err
	}
	p.Reminders = append(p.Reminders, Reminder{
		ID:    uuid.NewString(),
		Note:  in.Note,
		DueAt: in.DueAt.UTC(),
	})
	p.UpdatedAt = time.Now().UTC()
	if err := s.store.Save(ctx, prospectKey(id), p); err != nil {
		return Prospect{}, fmt.Errorf("save prospect: %w", err)
	}
	return p, nil
}

// SweepDueReminders fires an event for every reminder whose due time has
// passed and marks it fired. Returns the number of reminders fired.
func (s *Service) SweepDueReminders(ctx context.Context, now time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	keys, err := s.store.List(ctx, "prospects/")
	if err != nil {
		return 0, err
	}
	fired := 0
	for _, key := range keys {
		var p Prospect
		found, err := s.store.Load(ctx, key, &p)
		if err != nil {
			return fired, err
		}
		if !found {
			continue
		}
		changed := false
		for i := range p.Reminders {
			r := &p.Reminders[i]
			if r.FiredAt != nil || r.DueAt.After(now) {
				continue
			}
			firedAt := now.UTC()
			r.FiredAt = &firedAt
			changed = true
			fired++
			if obs.RemindersDueTotal != nil {
				obs.RemindersDueTotal.Inc()
			}
			if s.events != nil {
				if _, err := s.events.Emit(ctx, events.TopicReminderDue, p.ID, map[string]any{
					"prospectId": p.ID,
					"reminderId": r.ID,
					"note":       r.Note,
					"dueAt":      r.DueAt,
				}); err != nil {
					s.logger.Warn().Err(err).Str("prospect_id", p.ID).Str("reminder_id", r.ID).Msg("emit reminder due event")
				}
			}
		}
		if changed {
			if err := s.store.Save(ctx, prospectKey(p.ID), p); err != nil {
				return fired, fmt.Errorf("save prospect: %w", err)
			}
		}
	}
	return fired, nil
}

func validationError(message string, err error) *common.AppError {
	return &common.AppError{Code: "VALIDATION", Message: message, HTTPStatus: http.StatusUnprocessableEntity, Err: err}
}

func notFound(message string) *common.AppError {
	return &common.AppError{Code: "NOT_FOUND", Message: message, HTTPStatus: http.StatusNotFound}
}
