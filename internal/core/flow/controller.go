package flow

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"github.com/habitup/habitup-engine/internal/core/domain"
	"github.com/habitup/habitup-engine/internal/core/services"
)

// ErrStaleResult marks an async response that resolved after the session
// moved on; the result is discarded instead of being applied to whatever
// state exists at resolution time.
var ErrStaleResult = errors.New("stale async result discarded")

// Syncer receives best-effort persistence jobs. A nil Syncer disables sync.
type Syncer interface {
	Enqueue(profile domain.UserProfile)
}

// Controller drives one session through the screen flow. It owns the
// in-memory profile, which stays the source of truth for the whole session;
// the store only ever sees fire-and-forget snapshots.
type Controller struct {
	mu         sync.Mutex
	state      domain.AppState
	activeTab  domain.Tab
	profile    *domain.UserProfile
	dirty      bool
	generation uint64
	pending    *domain.Diagnosis

	insights *services.InsightService
	syncer   Syncer
}

// Snapshot is a read-only view of the session handed to the HTTP layer.
type Snapshot struct {
	State     domain.AppState    `json:"state"`
	ActiveTab domain.Tab         `json:"active_tab"`
	Profile   domain.UserProfile `json:"profile"`
	Dirty     bool               `json:"-"`
}

func NewController(insights *services.InsightService, syncer Syncer) *Controller {
	profile := domain.NewGuestProfile()
	// The blank initial profile is not a guest-entry profile: no
	// subscription until the paywall or an explicit guest login.
	profile.IsSubscribed = false

	return &Controller{
		state:     domain.StateWelcome,
		activeTab: domain.TabToday,
		profile:   profile,
		insights:  insights,
		syncer:    syncer,
	}
}

// Snapshot copies the session state for the HTTP layer. The task list is
// cloned so marshalling outside the lock never observes an in-place mutation.
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()

	profile := *c.profile
	profile.Tasks = append([]domain.Task(nil), c.profile.Tasks...)
	return Snapshot{
		State:     c.state,
		ActiveTab: c.activeTab,
		Profile:   profile,
		Dirty:     c.dirty,
	}
}

// advance moves the flow forward, bumping the generation so in-flight async
// results against the previous screen get discarded.
func (c *Controller) advance(to domain.AppState) error {
	if !domain.CanTransition(c.state, to) {
		return domain.ErrInvalidTransition
	}
	c.state = to
	c.generation++
	return nil
}

func (c *Controller) Start() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.advance(domain.StateOnboarding)
}

// CompleteOnboarding attaches the accumulated answers and moves on. Answers
// are immutable afterward except for being carried forward across auth.
func (c *Controller) CompleteOnboarding(answers domain.OnboardingAnswers) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.advance(domain.StateWhyDifferent); err != nil {
		return err
	}

	answers.Normalize()
	c.profile.Onboarding = &answers
	return nil
}

func (c *Controller) AcknowledgeWhyDifferent() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.advance(domain.StateAuth)
}

// CompleteAuth replaces the in-memory profile with the authenticated one,
// carrying forward onboarding answers gathered before signup. Branches to
// SOLUTION_REVEAL iff the merged profile still needs a diagnosis, else
// straight to MAIN.
func (c *Controller) CompleteAuth(profile *domain.UserProfile) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if profile.Onboarding == nil {
		profile.Onboarding = c.profile.Onboarding
	}
	profile.Normalize()

	next := domain.StateMain
	if profile.NeedsDiagnosis() {
		next = domain.StateSolutionReveal
	}

	if err := c.advance(next); err != nil {
		return err
	}

	c.profile = profile
	return nil
}

// RestoreSession seeds the controller from a stored profile, as if the user
// had just authenticated. Used on startup with a valid session token.
func (c *Controller) RestoreSession(profile *domain.UserProfile) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	profile.Normalize()

	c.state = domain.StateMain
	if profile.NeedsDiagnosis() {
		c.state = domain.StateSolutionReveal
	}
	c.generation++
	c.profile = profile
	return nil
}

func (c *Controller) BeginDiagnosis() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.advance(domain.StateDiagnosis)
}

// RunDiagnosis calls the generator while the screen shows its loading state.
// The lock is dropped for the remote call; if the session moved on before
// the response landed, the result is discarded.
func (c *Controller) RunDiagnosis(ctx context.Context) (*domain.Diagnosis, error) {
	c.mu.Lock()
	if c.state != domain.StateDiagnosis {
		c.mu.Unlock()
		return nil, domain.ErrInvalidTransition
	}
	if c.profile.Onboarding == nil {
		c.mu.Unlock()
		return nil, domain.ErrOnboardingRequired
	}
	answers := *c.profile.Onboarding
	gen := c.generation
	c.mu.Unlock()

	diagnosis, err := c.insights.Diagnose(ctx, answers)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.generation != gen {
		return nil, ErrStaleResult
	}
	c.pending = diagnosis
	return diagnosis, nil
}

// ConfirmDiagnosis attaches the pending diagnosis, seeds the initial task
// set and moves to the paywall. Persisted best-effort when the profile is
// durable.
func (c *Controller) ConfirmDiagnosis() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.profile.Onboarding == nil {
		return domain.ErrOnboardingRequired
	}
	if c.pending == nil {
		return domain.ErrDiagnosisUnresolved
	}

	if err := c.advance(domain.StatePaywall); err != nil {
		return err
	}

	c.profile.Diagnosis = c.pending
	c.profile.Tasks = services.InitialTasks(c.pending, *c.profile.Onboarding)
	c.pending = nil
	c.markDirtyLocked()
	return nil
}

func (c *Controller) Subscribe() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.advance(domain.StateMain); err != nil {
		return err
	}

	c.profile.IsSubscribed = true
	c.markDirtyLocked()
	return nil
}

func (c *Controller) SetActiveTab(tab domain.Tab) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state != domain.StateMain {
		return domain.ErrNotInMain
	}
	if !domain.ValidTab(tab) {
		return domain.ErrInvalidTransition
	}

	c.activeTab = tab
	c.generation++
	return nil
}

// SignOut resets the session to a fresh WELCOME with a blank profile.
func (c *Controller) SignOut() {
	c.mu.Lock()
	defer c.mu.Unlock()

	profile := domain.NewGuestProfile()
	profile.IsSubscribed = false

	c.state = domain.StateWelcome
	c.activeTab = domain.TabToday
	c.profile = profile
	c.pending = nil
	c.dirty = false
	c.generation++
}

// ToggleTask flips a task's completion state.
func (c *Controller) ToggleTask(id string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state != domain.StateMain {
		return domain.ErrNotInMain
	}

	for i := range c.profile.Tasks {
		if c.profile.Tasks[i].ID == id {
			c.profile.Tasks[i].Completed = !c.profile.Tasks[i].Completed
			c.markDirtyLocked()
			return nil
		}
	}
	return domain.ErrTaskNotFound
}

// SaveRitual updates the ritual with the given id, or prepends a new one
// when id is empty. All three fields must be non-empty.
func (c *Controller) SaveRitual(id, action, place, timeSlot string) (*domain.Task, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state != domain.StateMain {
		return nil, domain.ErrNotInMain
	}

	if id != "" {
		for i := range c.profile.Tasks {
			if c.profile.Tasks[i].ID == id {
				if err := c.profile.Tasks[i].ApplyRitual(action, place, timeSlot); err != nil {
					return nil, err
				}
				c.markDirtyLocked()
				saved := c.profile.Tasks[i]
				return &saved, nil
			}
		}
		return nil, domain.ErrTaskNotFound
	}

	ritual, err := domain.NewRitual(action, place, timeSlot)
	if err != nil {
		return nil, err
	}

	c.profile.Tasks = append([]domain.Task{*ritual}, c.profile.Tasks...)
	c.markDirtyLocked()
	return ritual, nil
}

func (c *Controller) DeleteRitual(id string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state != domain.StateMain {
		return domain.ErrNotInMain
	}

	for i := range c.profile.Tasks {
		if c.profile.Tasks[i].ID == id {
			c.profile.Tasks = append(c.profile.Tasks[:i:i], c.profile.Tasks[i+1:]...)
			c.markDirtyLocked()
			return nil
		}
	}
	return domain.ErrTaskNotFound
}

// BrainDump extracts tasks from free text and appends them. Zero extracted
// drafts is a valid outcome and leaves the list unchanged.
func (c *Controller) BrainDump(ctx context.Context, text string) ([]domain.Task, error) {
	c.mu.Lock()
	if c.state != domain.StateMain {
		c.mu.Unlock()
		return nil, domain.ErrNotInMain
	}
	gen := c.generation
	c.mu.Unlock()

	drafts, err := c.insights.ExtractTasks(ctx, text)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.generation != gen {
		return nil, ErrStaleResult
	}

	added := services.DraftsToTasks(drafts)
	if len(added) > 0 {
		c.profile.Tasks = append(c.profile.Tasks, added...)
		c.markDirtyLocked()
	}
	return added, nil
}

// WeeklyInsights computes the completion rate and fetches the encouragement
// summary. Summary failures degrade to a static sentence, never an error.
func (c *Controller) WeeklyInsights(ctx context.Context) (int, string, error) {
	c.mu.Lock()
	if c.state != domain.StateMain {
		c.mu.Unlock()
		return 0, "", domain.ErrNotInMain
	}
	tasks := append([]domain.Task(nil), c.profile.Tasks...)
	c.mu.Unlock()

	rate := domain.CompletionRate(tasks)
	summary := c.insights.WeeklySummary(ctx, tasks)
	return rate, summary, nil
}

// markDirtyLocked flags the profile for persistence and enqueues a snapshot.
// Guest profiles have no store row and are skipped. Callers hold c.mu.
func (c *Controller) markDirtyLocked() {
	c.dirty = true
	if c.syncer == nil || !c.profile.IsDurable() {
		return
	}

	snapshot := *c.profile
	snapshot.Tasks = append([]domain.Task(nil), c.profile.Tasks...)
	c.syncer.Enqueue(snapshot)
	c.dirty = false
}

const (
	sessionIdleTTL     = 24 * time.Hour
	sessionSweepPeriod = 10 * time.Minute
)

type liveSession struct {
	ctrl     *Controller
	lastSeen time.Time
}

// Registry tracks live sessions by opaque id. Sessions untouched for longer
// than the idle TTL are evicted by a background sweep; anonymous session
// creation must not grow the map forever.
type Registry struct {
	mu       sync.Mutex
	sessions map[string]*liveSession

	insights *services.InsightService
	syncer   Syncer
	idleTTL  time.Duration
}

func NewRegistry(insights *services.InsightService, syncer Syncer) *Registry {
	return &Registry{
		sessions: make(map[string]*liveSession),
		insights: insights,
		syncer:   syncer,
		idleTTL:  sessionIdleTTL,
	}
}

// Start runs the idle sweep until the context is cancelled.
func (r *Registry) Start(ctx context.Context) {
	go func() {
		log.Println("Session Registry sweeper started in background...")
		ticker := time.NewTicker(sessionSweepPeriod)
		defer ticker.Stop()
		for {
			select {
			case now := <-ticker.C:
				r.sweepIdle(now)
			case <-ctx.Done():
				log.Println("Session Registry sweeper shutting down...")
				return
			}
		}
	}()
}

func (r *Registry) sweepIdle(now time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for id, s := range r.sessions {
		if now.Sub(s.lastSeen) > r.idleTTL {
			delete(r.sessions, id)
			log.Printf("flow: evicted idle session %s", id)
		}
	}
}

func (r *Registry) Create(id string) *Controller {
	r.mu.Lock()
	defer r.mu.Unlock()

	ctrl := NewController(r.insights, r.syncer)
	r.sessions[id] = &liveSession{ctrl: ctrl, lastSeen: time.Now()}
	return ctrl
}

func (r *Registry) Get(id string) (*Controller, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.sessions[id]
	if !ok {
		return nil, false
	}
	s.lastSeen = time.Now()
	return s.ctrl, true
}

func (r *Registry) Delete(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.sessions[id]; ok {
		delete(r.sessions, id)
	} else {
		log.Printf("flow: delete of unknown session %s ignored", id)
	}
}
