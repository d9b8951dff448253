package client

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"philosophers-service/internal/domain"
)

// Mode is the screen the player currently sees.
type Mode string

const (
	ModeIntro    Mode = "intro"
	ModeHelp     Mode = "help"
	ModeStats    Mode = "stats"
	ModeLevels   Mode = "levels"
	ModeQuestion Mode = "question"
)

// DefaultTimeout bounds every server call that has no shorter deadline.
const DefaultTimeout = 10 * time.Second

var (
	ErrUnknownMode = errors.New("unknown mode")
	errNoSession   = errors.New("no game session loaded")
	errNoQuestion  = errors.New("no question loaded")
)

func validMode(m Mode) bool {
	switch m {
	case ModeIntro, ModeHelp, ModeStats, ModeLevels, ModeQuestion:
		return true
	}
	return false
}

// Notifier receives every failed server call.
type Notifier interface {
	Notify(err error)
}

type NotifierFunc func(err error)

func (f NotifierFunc) Notify(err error) { f(err) }

type logNotifier struct{}

func (logNotifier) Notify(err error) {
	log.Printf("request failed: %v", err)
}

// State is everything the store knows. Slices and pointers in a State returned by
// Snapshot are copies.
type State struct {
	Initialized     bool
	Lang            string
	Strings         map[string]string
	Game            *domain.GameView
	Levels          []domain.LevelView
	LevelCategories []domain.CategoryBinding
	Session         *domain.GameSession
	Question        *domain.Question
	MdlQuestion     *domain.MdlQuestion
	MdlAnswers      []domain.AnswerView
	MdlCategories   []domain.MdlCategory
	Scores          []domain.ScoreRow
	Mode            Mode
}

type Option func(*Store)

// WithTimeout sets the per-call timeout.
func WithTimeout(d time.Duration) Option {
	return func(s *Store) { s.timeout = d }
}

func WithNotifier(n Notifier) Option {
	return func(s *Store) { s.notifier = n }
}

// WithStringCache shares one translation cache between stores.
func WithStringCache(c *StringCache) Option {
	return func(s *Store) { s.strings = c }
}

// Store mirrors the server state of one game for one player. State only changes
// after the server confirmed a call; failed calls leave it untouched.
type Store struct {
	transport Transport
	gameID    int64
	timeout   time.Duration
	notifier  Notifier
	strings   *StringCache

	mu    sync.RWMutex
	state State
}

func NewStore(transport Transport, gameID int64, opts ...Option) *Store {
	s := &Store{
		transport: transport,
		gameID:    gameID,
		timeout:   DefaultTimeout,
		notifier:  logNotifier{},
		state:     State{Mode: ModeIntro},
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.strings == nil {
		s.strings = NewStringCache()
	}
	return s
}

// Snapshot returns a copy of the current state.
func (s *Store) Snapshot() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st := s.state
	if st.Strings != nil {
		st.Strings = make(map[string]string, len(s.state.Strings))
		for k, v := range s.state.Strings {
			st.Strings[k] = v
		}
	}
	st.Game = clonePtr(s.state.Game)
	st.Session = clonePtr(s.state.Session)
	if st.Session != nil {
		st.Session.LevelsOrder = cloneSlice(s.state.Session.LevelsOrder)
	}
	st.Question = clonePtr(s.state.Question)
	if st.Question != nil {
		st.Question.AnswerOrder = cloneSlice(s.state.Question.AnswerOrder)
	}
	st.MdlQuestion = clonePtr(s.state.MdlQuestion)
	st.Levels = cloneSlice(s.state.Levels)
	st.LevelCategories = cloneSlice(s.state.LevelCategories)
	st.MdlAnswers = cloneSlice(s.state.MdlAnswers)
	st.MdlCategories = cloneSlice(s.state.MdlCategories)
	st.Scores = cloneSlice(s.state.Scores)
	return st
}

// SetMode switches the visible screen.
func (s *Store) SetMode(mode Mode) error {
	if !validMode(mode) {
		return fmt.Errorf("%w: %q", ErrUnknownMode, mode)
	}
	s.update(func(st *State) { st.Mode = mode })
	return nil
}

func (s *Store) update(fn func(*State)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(&s.state)
}

func (s *Store) read(fn func(State)) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	fn(s.state)
}

// call runs one server method for this store's game, bounded by the store timeout.
func (s *Store) call(ctx context.Context, method string, args map[string]any, out any) error {
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}
	if args == nil {
		args = make(map[string]any)
	}
	args["coursemoduleid"] = s.gameID
	if err := s.transport.Call(ctx, method, args, out); err != nil {
		s.notifier.Notify(err)
		return err
	}
	return nil
}

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

func cloneSlice[T any](in []T) []T {
	if in == nil {
		return nil
	}
	out := make([]T, len(in))
	copy(out, in)
	return out
}
