// Package ledger owns the durable collection of users and their budgets and
// expenditures, and tracks which user is logged in.
package ledger

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/theirongolddev/tally/internal/model"
	"github.com/theirongolddev/tally/internal/store"
)

// UsersKey is the storage key the user collection lives under.
const UsersKey = "usersStore"

// UserStore is the single source of truth for user records. The whole
// collection is one JSON document: every mutation reads it, changes one user
// and writes it back.
//
// A UserStore is safe for concurrent use. Mutations are serialized, so
// overlapping calls can't lose each other's writes.
type UserStore struct {
	kv              store.KV
	key             string
	log             *logrus.Entry
	now             func() time.Time
	newID           func() string
	avatar          string
	uniqueUsernames bool

	mu      sync.Mutex
	current *model.User
}

// Option configures a UserStore.
type Option func(*UserStore)

// WithLogger sets the diagnostics logger.
func WithLogger(l *logrus.Entry) Option {
	return func(s *UserStore) { s.log = l }
}

// WithClock sets the time source used to stamp new expenditures.
func WithClock(now func() time.Time) Option {
	return func(s *UserStore) { s.now = now }
}

// WithIDs sets the id generator for users and expenditures.
func WithIDs(gen func() string) Option {
	return func(s *UserStore) { s.newID = gen }
}

// WithDefaultAvatar sets the avatar URL new users start with.
func WithDefaultAvatar(url string) Option {
	return func(s *UserStore) { s.avatar = url }
}

// WithUniqueUsernames makes Register reject any existing username, not
// only an existing username+password pair.
func WithUniqueUsernames(on bool) Option {
	return func(s *UserStore) { s.uniqueUsernames = on }
}

// WithKey overrides the storage key.
func WithKey(key string) Option {
	return func(s *UserStore) { s.key = key }
}

// New returns a UserStore persisting to kv.
func New(kv store.KV, opts ...Option) *UserStore {
	s := &UserStore{
		kv:    kv,
		key:   UsersKey,
		log:   logrus.NewEntry(logrus.StandardLogger()),
		now:   time.Now,
		newID: newTimeOrderedID,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// newTimeOrderedID returns a UUIDv7, which embeds the creation time.
func newTimeOrderedID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}

// Users returns the whole persisted collection.
func (s *UserStore) Users(ctx context.Context) ([]model.User, error) {
	return s.load(ctx)
}

// Register creates a user with default budgets and an empty spending log,
// persists it and makes it the current user. It fails with ErrConflict when a
// user with the same username and password already exists.
func (s *UserStore) Register(ctx context.Context, username, password string) (model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var created model.User
	_, err := s.mutate(ctx, func(users []model.User) ([]model.User, error) {
		for _, u := range users {
			if u.Username != username {
				continue
			}
			if s.uniqueUsernames || u.Password == password {
				return nil, fmt.Errorf("register %q: %w", username, ErrConflict)
			}
		}
		created = model.User{
			ID:           s.newID(),
			Username:     username,
			Password:     password,
			Budgets:      model.Budgets{},
			Expenditures: []model.Expenditure{},
			AvatarURL:    s.avatar,
		}
		return append(users, created), nil
	})
	if err != nil {
		return model.User{}, err
	}

	s.setCurrent(created)
	s.log.WithField("user_id", created.ID).Info("user registered")
	return created.Clone(), nil
}

// Authenticate looks up the exact username+password pair. On a match the user
// becomes current; otherwise ErrNotFound is returned.
func (s *UserStore) Authenticate(ctx context.Context, username, password string) (model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	users, err := s.load(ctx)
	if err != nil {
		return model.User{}, err
	}
	for _, u := range users {
		if u.Username == username && u.Password == password {
			s.setCurrent(u)
			return u.Clone(), nil
		}
	}
	return model.User{}, fmt.Errorf("authenticate %q: %w", username, ErrNotFound)
}

// Resume makes the persisted user with id current, e.g. to restore a
// session saved by an earlier process.
func (s *UserStore) Resume(ctx context.Context, userID string) (model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	users, err := s.load(ctx)
	if err != nil {
		return model.User{}, err
	}
	idx := indexOf(users, userID)
	if idx < 0 {
		return model.User{}, fmt.Errorf("resume user %s: %w", userID, ErrNotFound)
	}
	s.setCurrent(users[idx])
	return users[idx].Clone(), nil
}

// CurrentUser returns the logged-in user, if any.
func (s *UserStore) CurrentUser() (model.User, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current == nil {
		return model.User{}, false
	}
	return s.current.Clone(), true
}

// SetCurrentUser replaces the in-memory current user. Storage is untouched.
func (s *UserStore) SetCurrentUser(u model.User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.setCurrent(u)
}

// Logout clears the current user. Storage is untouched.
func (s *UserStore) Logout() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.current = nil
	s.log.Debug("user logged out")
}

// UpdateBudget sets the limit for one category of userID's budgets.
func (s *UserStore) UpdateBudget(ctx context.Context, userID string, category model.Category, amount string) error {
	if !category.Valid() {
		return fmt.Errorf("update budget %q: %w", category, ErrUnknownCategory)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	users, err := s.mutate(ctx, func(users []model.User) ([]model.User, error) {
		idx := indexOf(users, userID)
		if idx < 0 {
			return nil, fmt.Errorf("update budget for user %s: %w", userID, ErrNotFound)
		}
		users[idx].Budgets.Set(category, amount)
		return users, nil
	})
	if err != nil {
		s.logMiss(err, logrus.Fields{"user_id": userID, "category": category})
		return err
	}

	s.refreshIfCurrent(users, userID)
	s.log.WithFields(logrus.Fields{
		"user_id":  userID,
		"category": category,
		"amount":   amount,
	}).Debug("budget updated")
	return nil
}

// AddExpenditure appends e to the current user's log. An empty ID or DateTime
// is filled in. Without a current user nothing is written and
// ErrNoCurrentUser is returned.
func (s *UserStore) AddExpenditure(ctx context.Context, e model.Expenditure) (model.Expenditure, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.current == nil {
		return model.Expenditure{}, fmt.Errorf("add expenditure: %w", ErrNoCurrentUser)
	}
	userID := s.current.ID

	if e.ID == "" {
		e.ID = s.newID()
	}
	if e.DateTime == "" {
		e.DateTime = model.FormatDateTime(s.now())
	}

	users, err := s.mutate(ctx, func(users []model.User) ([]model.User, error) {
		idx := indexOf(users, userID)
		if idx < 0 {
			return nil, fmt.Errorf("add expenditure for user %s: %w", userID, ErrNotFound)
		}
		if users[idx].ExpenditureIndex(e.ID) >= 0 {
			return nil, fmt.Errorf("add expenditure %s: %w", e.ID, ErrConflict)
		}
		users[idx].Expenditures = append(users[idx].Expenditures, e)
		return users, nil
	})
	if err != nil {
		s.logMiss(err, logrus.Fields{"user_id": userID, "expenditure_id": e.ID})
		return model.Expenditure{}, err
	}

	s.refreshIfCurrent(users, userID)
	s.log.WithFields(logrus.Fields{
		"user_id":        userID,
		"expenditure_id": e.ID,
		"category":       e.Category,
		"amount":         e.Amount,
	}).Debug("expenditure added")
	return e, nil
}

// UpdateExpenditure replaces the expenditure with e.ID in userID's log.
// A missing user or expenditure leaves storage unchanged and returns
// ErrNotFound.
func (s *UserStore) UpdateExpenditure(ctx context.Context, userID string, e model.Expenditure) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	users, err := s.mutate(ctx, func(users []model.User) ([]model.User, error) {
		idx := indexOf(users, userID)
		if idx < 0 {
			return nil, fmt.Errorf("update expenditure for user %s: %w", userID, ErrNotFound)
		}
		ei := users[idx].ExpenditureIndex(e.ID)
		if ei < 0 {
			return nil, fmt.Errorf("update expenditure %s: %w", e.ID, ErrNotFound)
		}
		users[idx].Expenditures[ei] = e
		return users, nil
	})
	if err != nil {
		s.logMiss(err, logrus.Fields{"user_id": userID, "expenditure_id": e.ID})
		return err
	}

	s.refreshIfCurrent(users, userID)
	s.log.WithFields(logrus.Fields{
		"user_id":        userID,
		"expenditure_id": e.ID,
	}).Debug("expenditure updated")
	return nil
}

// DeleteExpenditure removes the expenditure with id from the current user's
// log, keeping the order of the rest.
func (s *UserStore) DeleteExpenditure(ctx context.Context, expenditureID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.current == nil {
		return fmt.Errorf("delete expenditure: %w", ErrNoCurrentUser)
	}
	userID := s.current.ID

	users, err := s.mutate(ctx, func(users []model.User) ([]model.User, error) {
		idx := indexOf(users, userID)
		if idx < 0 {
			return nil, fmt.Errorf("delete expenditure for user %s: %w", userID, ErrNotFound)
		}
		old := users[idx].Expenditures
		kept := make([]model.Expenditure, 0, len(old))
		for _, e := range old {
			if e.ID != expenditureID {
				kept = append(kept, e)
			}
		}
		if len(kept) == len(old) {
			return nil, fmt.Errorf("delete expenditure %s: %w", expenditureID, ErrNotFound)
		}
		users[idx].Expenditures = kept
		return users, nil
	})
	if err != nil {
		s.logMiss(err, logrus.Fields{"user_id": userID, "expenditure_id": expenditureID})
		return err
	}

	s.refreshIfCurrent(users, userID)
	s.log.WithFields(logrus.Fields{
		"user_id":        userID,
		"expenditure_id": expenditureID,
	}).Debug("expenditure deleted")
	return nil
}

// UpdateUserProfile replaces the stored record whose ID matches u.ID.
func (s *UserStore) UpdateUserProfile(ctx context.Context, u model.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	users, err := s.mutate(ctx, func(users []model.User) ([]model.User, error) {
		idx := indexOf(users, u.ID)
		if idx < 0 {
			return nil, fmt.Errorf("update profile for user %s: %w", u.ID, ErrNotFound)
		}
		users[idx] = u.Clone()
		return users, nil
	})
	if err != nil {
		s.logMiss(err, logrus.Fields{"user_id": u.ID})
		return err
	}

	s.refreshIfCurrent(users, u.ID)
	s.log.WithField("user_id", u.ID).Info("profile updated")
	return nil
}

// load reads and decodes the collection. A missing key is an empty collection.
func (s *UserStore) load(ctx context.Context) ([]model.User, error) {
	raw, ok, err := s.kv.Get(ctx, s.key)
	if err != nil {
		return nil, &StorageError{Op: "read", Key: s.key, Err: err}
	}
	return s.decode(raw, ok)
}

func (s *UserStore) decode(raw string, ok bool) ([]model.User, error) {
	if !ok || raw == "" {
		return []model.User{}, nil
	}
	var users []model.User
	if err := json.Unmarshal([]byte(raw), &users); err != nil {
		return nil, &StorageError{Op: "decode", Key: s.key, Err: err}
	}
	if users == nil {
		users = []model.User{}
	}
	return users, nil
}

// mutate runs one full read-modify-write cycle and returns the collection as
// written. Errors from fn are returned as-is and nothing is written.
// Callers must hold s.mu.
func (s *UserStore) mutate(ctx context.Context, fn func([]model.User) ([]model.User, error)) ([]model.User, error) {
	var (
		written []model.User
		abort   error
	)
	err := s.kv.Update(ctx, s.key, func(old string, ok bool) (string, error) {
		users, err := s.decode(old, ok)
		if err != nil {
			abort = err
			return "", err
		}
		users, err = fn(users)
		if err != nil {
			abort = err
			return "", err
		}
		data, err := json.Marshal(users)
		if err != nil {
			abort = &StorageError{Op: "encode", Key: s.key, Err: err}
			return "", abort
		}
		written = users
		return string(data), nil
	})
	if abort != nil {
		return nil, abort
	}
	if err != nil {
		return nil, &StorageError{Op: "write", Key: s.key, Err: err}
	}
	return written, nil
}

func (s *UserStore) setCurrent(u model.User) {
	c := u.Clone()
	s.current = &c
}

// refreshIfCurrent reloads the current user from a freshly written collection
// when it is the user that changed.
func (s *UserStore) refreshIfCurrent(users []model.User, userID string) {
	if s.current == nil || s.current.ID != userID {
		return
	}
	if idx := indexOf(users, userID); idx >= 0 {
		s.setCurrent(users[idx])
	}
}

// logMiss records not-found and conflict misses as warnings; storage failures
// are errors.
func (s *UserStore) logMiss(err error, fields logrus.Fields) {
	entry := s.log.WithFields(fields).WithError(err)
	var se *StorageError
	if errors.As(err, &se) {
		entry.Error("storage failure")
		return
	}
	entry.Warn("ledger operation had no effect")
}

func indexOf(users []model.User, id string) int {
	for i, u := range users {
		if u.ID == id {
			return i
		}
	}
	return -1
}
