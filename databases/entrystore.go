package databases

// go generate: mockery --name EntryStore

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"github.com/linesmerrill/dose-reminder-api/clock"
	"github.com/linesmerrill/dose-reminder-api/models"
)

// EntryKind names the entity a change applies to.
type EntryKind string

// Entry kinds.
const (
	KindDrug      EntryKind = "drug"
	KindSchedule  EntryKind = "schedule"
	KindDoseEvent EntryKind = "dose_event"
)

// Op is the mutation that produced a change.
type Op string

// Ops.
const (
	OpCreate Op = "create"
	OpUpdate Op = "update"
	OpDelete Op = "delete"
)

// Change describes one committed mutation.
type Change struct {
	Kind EntryKind
	ID   string
	Op   Op
}

// ChangeFunc receives changes after they are committed. It runs on the
// mutating goroutine and must not block.
type ChangeFunc func(Change)

// EntryStore persists drugs, their schedules and dose events. Every query
// returns a fresh copy the caller may keep.
type EntryStore interface {
	Drugs(ctx context.Context) ([]models.Drug, error)
	FindDrug(ctx context.Context, id string) (*models.Drug, error)
	CreateDrug(ctx context.Context, drug *models.Drug) error
	UpdateDrug(ctx context.Context, drug *models.Drug) error
	DeleteDrug(ctx context.Context, id string) error

	DoseEvents(ctx context.Context, since time.Time) ([]models.DoseEvent, error)
	DoseEventsForDrug(ctx context.Context, drugID string) ([]models.DoseEvent, error)
	FindDoseEvent(ctx context.Context, id string) (*models.DoseEvent, error)
	CreateDoseEvent(ctx context.Context, event *models.DoseEvent) error
	DeleteDoseEvent(ctx context.Context, id string) error

	FindSchedule(ctx context.Context, id string) (*models.Schedule, error)
	CreateSchedule(ctx context.Context, schedule *models.Schedule) error
	DeleteSchedule(ctx context.Context, id string) error

	Subscribe(fn ChangeFunc) *Subscription
	Reconnect(ctx context.Context) error
}

// Subscription is the handle returned by Subscribe.
type Subscription struct {
	id   int
	hub  *changeHub
	once sync.Once
}

// Unsubscribe stops delivery. It is safe to call more than once.
func (s *Subscription) Unsubscribe() {
	s.once.Do(func() {
		s.hub.remove(s.id)
	})
}

type changeHub struct {
	mu     sync.Mutex
	nextID int
	subs   map[int]ChangeFunc
}

func (h *changeHub) add(fn ChangeFunc) *Subscription {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.subs == nil {
		h.subs = make(map[int]ChangeFunc)
	}
	h.nextID++
	h.subs[h.nextID] = fn
	return &Subscription{id: h.nextID, hub: h}
}

func (h *changeHub) remove(id int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.subs, id)
}

func (h *changeHub) publish(c Change) {
	h.mu.Lock()
	fns := make([]ChangeFunc, 0, len(h.subs))
	for _, fn := range h.subs {
		fns = append(fns, fn)
	}
	h.mu.Unlock()

	for _, fn := range fns {
		fn(c)
	}
}

// Store is the MongoDB EntryStore.
type Store struct {
	db         DatabaseHelper
	drugs      DrugDatabase
	schedules  ScheduleDatabase
	doseEvents DoseEventDatabase
	clock      clock.Clock
	changes    changeHub
}

// NewStore returns a Store over db.
func NewStore(db DatabaseHelper, c clock.Clock) *Store {
	return &Store{
		db:         db,
		drugs:      NewDrugDatabase(db),
		schedules:  NewScheduleDatabase(db),
		doseEvents: NewDoseEventDatabase(db),
		clock:      c,
	}
}

func scheduleOrder() *options.FindOptions {
	return options.Find().SetSort(bson.D{{Key: "begin", Value: 1}, {Key: "createdAt", Value: 1}})
}

// Drugs returns all drugs ordered by name with their schedules attached.
// Schedules are ordered by begin, then creation; the first matching schedule
// of a date is the one that applies.
func (s *Store) Drugs(ctx context.Context) ([]models.Drug, error) {
	drugs, err := s.drugs.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "name", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("while listing drugs: %w", err)
	}
	schedules, err := s.schedules.Find(ctx, bson.M{}, scheduleOrder())
	if err != nil {
		return nil, fmt.Errorf("while listing schedules: %w", err)
	}

	byDrug := make(map[string][]models.Schedule)
	for _, sc := range schedules {
		byDrug[sc.DrugID] = append(byDrug[sc.DrugID], sc)
	}
	for i := range drugs {
		drugs[i].Schedules = byDrug[drugs[i].ID]
	}
	return drugs, nil
}

// FindDrug returns one drug with its schedules.
func (s *Store) FindDrug(ctx context.Context, id string) (*models.Drug, error) {
	drug, err := s.drugs.FindOne(ctx, bson.M{"_id": id})
	if err != nil {
		return nil, fmt.Errorf("while finding drug %s: %w", id, err)
	}
	schedules, err := s.schedules.Find(ctx, bson.M{"drugId": id}, scheduleOrder())
	if err != nil {
		return nil, fmt.Errorf("while finding schedules of drug %s: %w", id, err)
	}
	drug.Schedules = schedules
	return drug, nil
}

// CreateDrug assigns an id and timestamps and inserts drug. Attached
// schedules are stored too.
func (s *Store) CreateDrug(ctx context.Context, drug *models.Drug) error {
	now := s.clock.Now()
	drug.ID = uuid.NewString()
	drug.CreatedAt = now
	drug.UpdatedAt = now
	if err := s.drugs.InsertOne(ctx, drug); err != nil {
		return fmt.Errorf("while creating drug: %w", err)
	}
	for i := range drug.Schedules {
		if err := s.insertSchedule(ctx, drug.ID, &drug.Schedules[i]); err != nil {
			return err
		}
	}
	s.changes.publish(Change{Kind: KindDrug, ID: drug.ID, Op: OpCreate})
	return nil
}

// UpdateDrug replaces the stored drug. Schedules are managed separately.
func (s *Store) UpdateDrug(ctx context.Context, drug *models.Drug) error {
	drug.UpdatedAt = s.clock.Now()
	matched, err := s.drugs.ReplaceOne(ctx, bson.M{"_id": drug.ID}, drug)
	if err != nil {
		return fmt.Errorf("while updating drug %s: %w", drug.ID, err)
	}
	if matched == 0 {
		return fmt.Errorf("drug %s: %w", drug.ID, models.ErrNotFound)
	}
	s.changes.publish(Change{Kind: KindDrug, ID: drug.ID, Op: OpUpdate})
	return nil
}

// DeleteDrug removes a drug together with its schedules and dose events.
func (s *Store) DeleteDrug(ctx context.Context, id string) error {
	if _, err := s.doseEvents.DeleteMany(ctx, bson.M{"drugId": id}); err != nil {
		return fmt.Errorf("while deleting dose events of drug %s: %w", id, err)
	}
	if _, err := s.schedules.DeleteMany(ctx, bson.M{"drugId": id}); err != nil {
		return fmt.Errorf("while deleting schedules of drug %s: %w", id, err)
	}
	deleted, err := s.drugs.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("while deleting drug %s: %w", id, err)
	}
	if deleted == 0 {
		return fmt.Errorf("drug %s: %w", id, models.ErrNotFound)
	}
	s.changes.publish(Change{Kind: KindDrug, ID: id, Op: OpDelete})
	return nil
}

// DoseEvents returns the events scheduled on or after since, oldest first.
func (s *Store) DoseEvents(ctx context.Context, since time.Time) ([]models.DoseEvent, error) {
	filter := bson.M{}
	if !since.IsZero() {
		filter["date"] = bson.M{"$gte": clock.Date(since)}
	}
	events, err := s.doseEvents.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "timestamp", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("while listing dose events: %w", err)
	}
	return events, nil
}

// DoseEventsForDrug returns the events of one drug, newest first.
func (s *Store) DoseEventsForDrug(ctx context.Context, drugID string) ([]models.DoseEvent, error) {
	events, err := s.doseEvents.Find(ctx, bson.M{"drugId": drugID}, options.Find().SetSort(bson.D{{Key: "timestamp", Value: -1}}))
	if err != nil {
		return nil, fmt.Errorf("while listing dose events of drug %s: %w", drugID, err)
	}
	return events, nil
}

// FindDoseEvent returns one event.
func (s *Store) FindDoseEvent(ctx context.Context, id string) (*models.DoseEvent, error) {
	event, err := s.doseEvents.FindOne(ctx, bson.M{"_id": id})
	if err != nil {
		return nil, fmt.Errorf("while finding dose event %s: %w", id, err)
	}
	return event, nil
}

// CreateDoseEvent assigns an id and inserts event. A zero timestamp is set to
// now.
func (s *Store) CreateDoseEvent(ctx context.Context, event *models.DoseEvent) error {
	event.ID = uuid.NewString()
	if event.Timestamp.IsZero() {
		event.Timestamp = s.clock.Now()
	}
	event.Date = clock.Date(event.Date)
	if err := s.doseEvents.InsertOne(ctx, event); err != nil {
		return fmt.Errorf("while creating dose event: %w", err)
	}
	s.changes.publish(Change{Kind: KindDoseEvent, ID: event.ID, Op: OpCreate})
	return nil
}

// DeleteDoseEvent removes one event.
func (s *Store) DeleteDoseEvent(ctx context.Context, id string) error {
	deleted, err := s.doseEvents.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("while deleting dose event %s: %w", id, err)
	}
	if deleted == 0 {
		return fmt.Errorf("dose event %s: %w", id, models.ErrNotFound)
	}
	s.changes.publish(Change{Kind: KindDoseEvent, ID: id, Op: OpDelete})
	return nil
}

// FindSchedule returns one schedule.
func (s *Store) FindSchedule(ctx context.Context, id string) (*models.Schedule, error) {
	schedule, err := s.schedules.FindOne(ctx, bson.M{"_id": id})
	if err != nil {
		return nil, fmt.Errorf("while finding schedule %s: %w", id, err)
	}
	return schedule, nil
}

// CreateSchedule inserts a schedule for schedule.DrugID.
func (s *Store) CreateSchedule(ctx context.Context, schedule *models.Schedule) error {
	if err := s.insertSchedule(ctx, schedule.DrugID, schedule); err != nil {
		return err
	}
	s.changes.publish(Change{Kind: KindSchedule, ID: schedule.ID, Op: OpCreate})
	return nil
}

func (s *Store) insertSchedule(ctx context.Context, drugID string, schedule *models.Schedule) error {
	schedule.ID = uuid.NewString()
	schedule.DrugID = drugID
	schedule.CreatedAt = s.clock.Now()
	if err := s.schedules.InsertOne(ctx, schedule); err != nil {
		return fmt.Errorf("while creating schedule for drug %s: %w", drugID, err)
	}
	return nil
}

// DeleteSchedule removes one schedule.
func (s *Store) DeleteSchedule(ctx context.Context, id string) error {
	deleted, err := s.schedules.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("while deleting schedule %s: %w", id, err)
	}
	if deleted == 0 {
		return fmt.Errorf("schedule %s: %w", id, models.ErrNotFound)
	}
	s.changes.publish(Change{Kind: KindSchedule, ID: id, Op: OpDelete})
	return nil
}

// Subscribe registers fn for every committed change.
func (s *Store) Subscribe(fn ChangeFunc) *Subscription {
	return s.changes.add(fn)
}

// Reconnect waits for the server to answer again. The driver re-dials
// dropped connections by itself, so a successful ping is all that is needed.
func (s *Store) Reconnect(ctx context.Context) error {
	client := s.db.Client()
	err := client.Ping(ctx)
	if err == nil {
		return nil
	}
	zap.S().Warnw("database ping failed, retrying", "error", err)
	if err := client.Ping(ctx); err != nil {
		return fmt.Errorf("while reconnecting: %w", err)
	}
	return nil
}
