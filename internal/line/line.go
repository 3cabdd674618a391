package line

import (
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/Agrid-Dev/linerating/internal/ampacity"
)

// Snapshot is the state of a monitored line at one point in time. When the
// heat balance has no solution RatingErr is set and Rating is zero.
type Snapshot struct {
	ID        string
	Profile   ampacity.ConductorProfile
	Condition ampacity.AmbientCondition
	Rating    float64
	RatingErr error
	UpdatedAt time.Time
}

// RatingAvailable reports whether Rating holds a usable current.
func (s Snapshot) RatingAvailable() bool {
	return s.RatingErr == nil
}

// Line rates one conductor against the latest weather reported for it.
// It is safe for concurrent use.
type Line struct {
	mu        sync.RWMutex
	s         Snapshot
	clock     clockwork.Clock
	observers []func(Snapshot)
}

func New(id string, profile ampacity.ConductorProfile, initial ampacity.AmbientCondition, clock clockwork.Clock) (*Line, error) {
	if id == "" {
		return nil, ErrMissingID
	}
	if !profile.Type().Valid() {
		return nil, ErrInvalidProfile
	}
	if err := initial.Validate(); err != nil {
		return nil, err
	}
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	l := &Line{clock: clock}
	l.s = Snapshot{ID: id, Profile: profile}
	l.apply(initial)
	return l, nil
}

func (l *Line) Get() Snapshot {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.s
}

// Observe registers fn to receive every new snapshot, starting with the
// current one. fn runs with the line locked, in update order, and must not
// call back into l.
func (l *Line) Observe(fn func(Snapshot)) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.observers = append(l.observers, fn)
	fn(l.s)
}

// UpdateCondition applies mutate to the current condition as one atomic
// read-modify-write. Fields mutate leaves alone keep their current value.
func (l *Line) UpdateCondition(mutate func(*ampacity.AmbientCondition)) error {
	return l.update(mutate)
}

func (l *Line) SetCondition(c ampacity.AmbientCondition) error {
	return l.update(func(cur *ampacity.AmbientCondition) { *cur = c })
}

func (l *Line) SetAmbientTemperature(v float64) error {
	return l.update(func(c *ampacity.AmbientCondition) { c.AmbientTemperature = v })
}

func (l *Line) SetConductorTemperature(v float64) error {
	return l.update(func(c *ampacity.AmbientCondition) { c.ConductorTemperature = v })
}

func (l *Line) SetWindSpeed(v float64) error {
	return l.update(func(c *ampacity.AmbientCondition) { c.WindSpeed = v })
}

func (l *Line) SetWeathering(w ampacity.Weathering) error {
	return l.update(func(c *ampacity.AmbientCondition) { c.Weathering = w })
}

func (l *Line) SetTimeOfDay(t ampacity.TimeOfDay) error {
	return l.update(func(c *ampacity.AmbientCondition) { c.TimeOfDay = t })
}

// update validates the modified condition before touching the snapshot, so
// a rejected value leaves the previous rating in place.
func (l *Line) update(mutate func(*ampacity.AmbientCondition)) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	next := l.s.Condition
	mutate(&next)
	if err := next.Validate(); err != nil {
		return err
	}
	l.apply(next)
	return nil
}

// Caller holds mu (or owns l exclusively).
func (l *Line) apply(c ampacity.AmbientCondition) {
	rating, err := ampacity.Calculate(l.s.Profile, c)
	l.s.Condition = c
	l.s.Rating = rating
	l.s.RatingErr = err
	l.s.UpdatedAt = l.clock.Now()
	for _, fn := range l.observers {
		fn(l.s)
	}
}
