package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/SAP-F-2025/tutoring-marketplace/internal/models"
	"github.com/SAP-F-2025/tutoring-marketplace/internal/repositories"
)

// tables is the whole dataset. It is copied wholesale for transaction snapshots.
type tables struct {
	users         map[uint]*models.User
	profiles      map[uint]*models.TutorProfile
	jobs          map[uint]*models.Job
	bids          map[uint]*models.JobBid
	messages      map[uint]*models.Message
	reviews       map[uint]*models.Review
	notifications map[uint]*models.Notification
	sessions      map[string]*models.Session

	userSeq, profileSeq, jobSeq, bidSeq, messageSeq, reviewSeq, notificationSeq uint
}

func newTables() *tables {
	return &tables{
		users:         make(map[uint]*models.User),
		profiles:      make(map[uint]*models.TutorProfile),
		jobs:          make(map[uint]*models.Job),
		bids:          make(map[uint]*models.JobBid),
		messages:      make(map[uint]*models.Message),
		reviews:       make(map[uint]*models.Review),
		notifications: make(map[uint]*models.Notification),
		sessions:      make(map[string]*models.Session),
	}
}

func (t *tables) clone() *tables {
	c := newTables()
	for k, v := range t.users {
		c.users[k] = cloneUser(v)
	}
	for k, v := range t.profiles {
		c.profiles[k] = cloneProfile(v)
	}
	for k, v := range t.jobs {
		c.jobs[k] = cloneJob(v)
	}
	for k, v := range t.bids {
		c.bids[k] = cloneBid(v)
	}
	for k, v := range t.messages {
		c.messages[k] = cloneMessage(v)
	}
	for k, v := range t.reviews {
		c.reviews[k] = cloneReview(v)
	}
	for k, v := range t.notifications {
		c.notifications[k] = cloneNotification(v)
	}
	for k, v := range t.sessions {
		s := *v
		c.sessions[k] = &s
	}
	c.userSeq, c.profileSeq, c.jobSeq, c.bidSeq = t.userSeq, t.profileSeq, t.jobSeq, t.bidSeq
	c.messageSeq, c.reviewSeq, c.notificationSeq = t.messageSeq, t.reviewSeq, t.notificationSeq
	return c
}

// Store is the in-process backend. mu guards the tables; txMu serializes
// writers against running transactions so a rollback never discards a write
// made outside the transaction.
type Store struct {
	mu   sync.RWMutex
	txMu sync.Mutex
	data *tables
	now  func() time.Time
}

func NewStore() *Store {
	return &Store{data: newTables(), now: time.Now}
}

// Repository returns the aggregate repository over this store.
func (s *Store) Repository() repositories.Repository {
	return &repository{s: s}
}

type repository struct {
	s    *Store
	inTx bool
}

func (r *repository) read() func() {
	r.s.mu.RLock()
	return r.s.mu.RUnlock
}

func (r *repository) write() func() {
	if !r.inTx {
		r.s.txMu.Lock()
	}
	r.s.mu.Lock()
	return func() {
		r.s.mu.Unlock()
		if !r.inTx {
			r.s.txMu.Unlock()
		}
	}
}

func (r *repository) db() *tables {
	return r.s.data
}

func (r *repository) User() repositories.UserRepository {
	return &userRepository{r}
}

func (r *repository) TutorProfile() repositories.TutorProfileRepository {
	return &tutorProfileRepository{r}
}

func (r *repository) Job() repositories.JobRepository {
	return &jobRepository{r}
}

func (r *repository) Bid() repositories.BidRepository {
	return &bidRepository{r}
}

func (r *repository) Message() repositories.MessageRepository {
	return &messageRepository{r}
}

func (r *repository) Review() repositories.ReviewRepository {
	return &reviewRepository{r}
}

func (r *repository) Notification() repositories.NotificationRepository {
	return &notificationRepository{r}
}

func (r *repository) Session() repositories.SessionRepository {
	return &sessionRepository{r}
}

func (r *repository) Stats() repositories.StatsRepository {
	return &statsRepository{r}
}

// WithTransaction snapshots the tables, runs fn and restores the snapshot if
// fn fails. Transactions are serialized with each other and with writers.
// A transaction joined from inside another one shares the outer snapshot.
func (r *repository) WithTransaction(ctx context.Context, fn func(repositories.Repository) error) error {
	if r.inTx {
		return fn(r)
	}

	r.s.txMu.Lock()
	defer r.s.txMu.Unlock()

	r.s.mu.RLock()
	snapshot := r.s.data.clone()
	r.s.mu.RUnlock()

	if err := ctx.Err(); err != nil {
		return err
	}

	if err := fn(&repository{s: r.s, inTx: true}); err != nil {
		r.s.mu.Lock()
		r.s.data = snapshot
		r.s.mu.Unlock()
		return err
	}
	return nil
}

func (r *repository) Ping(ctx context.Context) error {
	return ctx.Err()
}

func (r *repository) Close() error {
	return nil
}

// Manager implements repositories.RepositoryManager for the memory backend.
type Manager struct {
	store *Store
	repo  repositories.Repository
}

func NewManager(store *Store) *Manager {
	if store == nil {
		store = NewStore()
	}
	return &Manager{store: store}
}

func (m *Manager) Initialize() error {
	m.repo = m.store.Repository()
	return nil
}

func (m *Manager) GetRepository() repositories.Repository {
	return m.repo
}

func (m *Manager) Store() *Store {
	return m.store
}

func (m *Manager) HealthCheck(ctx context.Context) error {
	return ctx.Err()
}

func (m *Manager) Shutdown(ctx context.Context) error {
	return nil
}

// newestFirst orders by creation time descending, id descending on ties.
func newestFirst[T any](items []T, created func(T) time.Time, id func(T) uint) {
	sort.Slice(items, func(i, j int) bool {
		ci, cj := created(items[i]), created(items[j])
		if !ci.Equal(cj) {
			return ci.After(cj)
		}
		return id(items[i]) > id(items[j])
	})
}

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

func cloneUser(u *models.User) *models.User {
	c := *u
	c.BanReason = clonePtr(u.BanReason)
	return &c
}

func cloneProfile(p *models.TutorProfile) *models.TutorProfile {
	c := *p
	c.HourlyRate = clonePtr(p.HourlyRate)
	c.RejectionReason = clonePtr(p.RejectionReason)
	return &c
}

func cloneJob(j *models.Job) *models.Job {
	c := *j
	c.HoursPerWeek = clonePtr(j.HoursPerWeek)
	return &c
}

func cloneBid(b *models.JobBid) *models.JobBid {
	c := *b
	return &c
}

func cloneMessage(m *models.Message) *models.Message {
	c := *m
	return &c
}

func cloneReview(r *models.Review) *models.Review {
	c := *r
	c.JobID = clonePtr(r.JobID)
	return &c
}

func cloneNotification(n *models.Notification) *models.Notification {
	c := *n
	if n.Payload != nil {
		c.Payload = append([]byte(nil), n.Payload...)
	}
	return &c
}
