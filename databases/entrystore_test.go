package databases_test

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"

	"github.com/linesmerrill/dose-reminder-api/clock"
	"github.com/linesmerrill/dose-reminder-api/config"
	"github.com/linesmerrill/dose-reminder-api/databases"
	"github.com/linesmerrill/dose-reminder-api/databases/mocks"
	"github.com/linesmerrill/dose-reminder-api/fraction"
	"github.com/linesmerrill/dose-reminder-api/models"
)

var now = time.Date(2024, time.June, 10, 8, 30, 0, 0, time.UTC)

type fixture struct {
	db         *mocks.DatabaseHelper
	drugs      *mocks.CollectionHelper
	schedules  *mocks.CollectionHelper
	doseEvents *mocks.CollectionHelper
	store      *databases.Store
}

func newFixture(t *testing.T) *fixture {
	f := &fixture{
		db:         mocks.NewDatabaseHelper(t),
		drugs:      mocks.NewCollectionHelper(t),
		schedules:  mocks.NewCollectionHelper(t),
		doseEvents: mocks.NewCollectionHelper(t),
	}
	f.db.On("Collection", "drugs").Return(f.drugs).Maybe()
	f.db.On("Collection", "schedules").Return(f.schedules).Maybe()
	f.db.On("Collection", "dose_events").Return(f.doseEvents).Maybe()
	f.store = databases.NewStore(f.db, clock.NewManaged(now))
	return f
}

func (f *fixture) record() *[]databases.Change {
	var changes []databases.Change
	f.store.Subscribe(func(c databases.Change) {
		changes = append(changes, c)
	})
	return &changes
}

func TestNewStore(t *testing.T) {
	_ = os.Setenv("DB_URI", "mongodb://127.0.0.1:27017")
	_ = os.Setenv("DB_NAME", "test")
	conf := config.New()

	dbClient, err := databases.NewClient(conf)
	assert.NoError(t, err)

	db := databases.NewDatabase(conf, dbClient)

	assert.NotEmpty(t, databases.NewStore(db, clock.New()))
}

func TestStore_CreateDrug(t *testing.T) {
	f := newFixture(t)
	changes := f.record()

	f.drugs.On("InsertOne", context.Background(), mock.AnythingOfType("*models.Drug")).Return("id", nil)
	f.schedules.On("InsertOne", context.Background(), mock.AnythingOfType("*models.Schedule")).Return("id", nil)

	drug := &models.Drug{Name: "Aspirin", Schedules: []models.Schedule{{Begin: clock.Date(now)}}}
	require.NoError(t, f.store.CreateDrug(context.Background(), drug))

	assert.NotEmpty(t, drug.ID)
	assert.Equal(t, now, drug.CreatedAt)
	assert.Equal(t, drug.ID, drug.Schedules[0].DrugID)
	assert.NotEmpty(t, drug.Schedules[0].ID)
	assert.Equal(t, []databases.Change{{Kind: databases.KindDrug, ID: drug.ID, Op: databases.OpCreate}}, *changes)
}

func TestStore_CreateDrugError(t *testing.T) {
	f := newFixture(t)
	changes := f.record()
	f.drugs.On("InsertOne", context.Background(), mock.Anything).Return(nil, errors.New("mocked-error"))

	err := f.store.CreateDrug(context.Background(), &models.Drug{Name: "Aspirin"})
	assert.EqualError(t, err, "while creating drug: mocked-error")
	assert.Empty(t, *changes)
}

func TestStore_FindDrug(t *testing.T) {
	f := newFixture(t)

	sr := &mocks.SingleResultHelper{}
	sr.On("Decode", mock.Anything).Return(nil).Run(func(args mock.Arguments) {
		arg := args.Get(0).(**models.Drug)
		(*arg).ID = "d1"
		(*arg).Name = "Aspirin"
		(*arg).CurrentSupply = fraction.FromInt(12)
	})
	f.drugs.On("FindOne", context.Background(), bson.M{"_id": "d1"}).Return(sr)

	cursor := &mocks.CursorHelper{}
	cursor.On("All", context.Background(), mock.Anything).Return(nil).Run(func(args mock.Arguments) {
		arg := args.Get(1).(*[]models.Schedule)
		*arg = []models.Schedule{{ID: "s1", DrugID: "d1"}}
	})
	cursor.On("Close", context.Background()).Return(nil)
	f.schedules.On("Find", context.Background(), bson.M{"drugId": "d1"}, mock.Anything).Return(cursor, nil)

	drug, err := f.store.FindDrug(context.Background(), "d1")
	require.NoError(t, err)
	assert.Equal(t, "Aspirin", drug.Name)
	assert.Equal(t, fraction.FromInt(12), drug.CurrentSupply)
	require.Len(t, drug.Schedules, 1)
	assert.Equal(t, "s1", drug.Schedules[0].ID)
}

func TestStore_FindDrugNotFound(t *testing.T) {
	f := newFixture(t)

	sr := &mocks.SingleResultHelper{}
	sr.On("Decode", mock.Anything).Return(models.ErrNotFound)
	f.drugs.On("FindOne", context.Background(), bson.M{"_id": "missing"}).Return(sr)

	_, err := f.store.FindDrug(context.Background(), "missing")
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestStore_Drugs(t *testing.T) {
	f := newFixture(t)

	drugCursor := &mocks.CursorHelper{}
	drugCursor.On("All", context.Background(), mock.Anything).Return(nil).Run(func(args mock.Arguments) {
		*args.Get(1).(*[]models.Drug) = []models.Drug{{ID: "a"}, {ID: "b"}}
	})
	drugCursor.On("Close", context.Background()).Return(nil)
	f.drugs.On("Find", context.Background(), bson.M{}, mock.Anything).Return(drugCursor, nil)

	scheduleCursor := &mocks.CursorHelper{}
	scheduleCursor.On("All", context.Background(), mock.Anything).Return(nil).Run(func(args mock.Arguments) {
		*args.Get(1).(*[]models.Schedule) = []models.Schedule{{ID: "s1", DrugID: "b"}, {ID: "s2", DrugID: "b"}}
	})
	scheduleCursor.On("Close", context.Background()).Return(nil)
	f.schedules.On("Find", context.Background(), bson.M{}, mock.Anything).Return(scheduleCursor, nil)

	drugs, err := f.store.Drugs(context.Background())
	require.NoError(t, err)
	require.Len(t, drugs, 2)
	assert.Empty(t, drugs[0].Schedules)
	require.Len(t, drugs[1].Schedules, 2)
	assert.Equal(t, "s1", drugs[1].Schedules[0].ID)
}

func TestStore_DrugsError(t *testing.T) {
	f := newFixture(t)
	f.drugs.On("Find", context.Background(), bson.M{}, mock.Anything).Return(nil, errors.New("mocked-error"))

	_, err := f.store.Drugs(context.Background())
	assert.EqualError(t, err, "while listing drugs: mocked-error")
}

func TestStore_UpdateDrug(t *testing.T) {
	f := newFixture(t)
	changes := f.record()
	f.drugs.On("ReplaceOne", context.Background(), bson.M{"_id": "d1"}, mock.Anything).Return(int64(1), nil).Once()
	f.drugs.On("ReplaceOne", context.Background(), bson.M{"_id": "d2"}, mock.Anything).Return(int64(0), nil).Once()

	require.NoError(t, f.store.UpdateDrug(context.Background(), &models.Drug{ID: "d1"}))
	assert.ErrorIs(t, f.store.UpdateDrug(context.Background(), &models.Drug{ID: "d2"}), models.ErrNotFound)
	assert.Equal(t, []databases.Change{{Kind: databases.KindDrug, ID: "d1", Op: databases.OpUpdate}}, *changes)
}

func TestStore_DeleteDrugCascades(t *testing.T) {
	f := newFixture(t)
	changes := f.record()

	f.doseEvents.On("DeleteMany", context.Background(), bson.M{"drugId": "d1"}).Return(int64(4), nil)
	f.schedules.On("DeleteMany", context.Background(), bson.M{"drugId": "d1"}).Return(int64(1), nil)
	f.drugs.On("DeleteOne", context.Background(), bson.M{"_id": "d1"}).Return(int64(1), nil)

	require.NoError(t, f.store.DeleteDrug(context.Background(), "d1"))
	assert.Equal(t, []databases.Change{{Kind: databases.KindDrug, ID: "d1", Op: databases.OpDelete}}, *changes)
}

func TestStore_DeleteDrugNotFound(t *testing.T) {
	f := newFixture(t)
	f.doseEvents.On("DeleteMany", context.Background(), mock.Anything).Return(int64(0), nil)
	f.schedules.On("DeleteMany", context.Background(), mock.Anything).Return(int64(0), nil)
	f.drugs.On("DeleteOne", context.Background(), mock.Anything).Return(int64(0), nil)

	assert.ErrorIs(t, f.store.DeleteDrug(context.Background(), "nope"), models.ErrNotFound)
}

func TestStore_CreateDoseEvent(t *testing.T) {
	f := newFixture(t)
	changes := f.record()
	f.doseEvents.On("InsertOne", context.Background(), mock.AnythingOfType("*models.DoseEvent")).Return("id", nil)

	event := &models.DoseEvent{DrugID: "d1", Date: now, DoseTime: models.DoseTimeMorning, Dose: fraction.FromInt(1)}
	require.NoError(t, f.store.CreateDoseEvent(context.Background(), event))
	assert.NotEmpty(t, event.ID)
	assert.Equal(t, now, event.Timestamp)
	assert.Equal(t, clock.Date(now), event.Date)
	assert.Len(t, *changes, 1)
}

func TestStore_DoseEventsSince(t *testing.T) {
	f := newFixture(t)
	cursor := &mocks.CursorHelper{}
	cursor.On("All", context.Background(), mock.Anything).Return(nil)
	cursor.On("Close", context.Background()).Return(nil)
	since := clock.NewDate(2024, time.June, 9)
	f.doseEvents.On("Find", context.Background(), bson.M{"date": bson.M{"$gte": since}}, mock.Anything).Return(cursor, nil)

	events, err := f.store.DoseEvents(context.Background(), since)
	require.NoError(t, err)
	assert.Empty(t, events)
}

func TestStore_DeleteSchedule(t *testing.T) {
	f := newFixture(t)
	changes := f.record()
	f.schedules.On("DeleteOne", context.Background(), bson.M{"_id": "s1"}).Return(int64(1), nil)

	require.NoError(t, f.store.DeleteSchedule(context.Background(), "s1"))
	assert.Equal(t, []databases.Change{{Kind: databases.KindSchedule, ID: "s1", Op: databases.OpDelete}}, *changes)
}

func TestSubscription_Unsubscribe(t *testing.T) {
	f := newFixture(t)
	calls := 0
	sub := f.store.Subscribe(func(databases.Change) { calls++ })
	f.doseEvents.On("DeleteOne", context.Background(), mock.Anything).Return(int64(1), nil)

	require.NoError(t, f.store.DeleteDoseEvent(context.Background(), "e1"))
	sub.Unsubscribe()
	sub.Unsubscribe()
	require.NoError(t, f.store.DeleteDoseEvent(context.Background(), "e2"))
	assert.Equal(t, 1, calls)
}

func TestStore_Reconnect(t *testing.T) {
	f := newFixture(t)
	client := mocks.NewClientHelper(t)
	f.db.On("Client").Return(client)
	client.On("Ping", context.Background()).Return(errors.New("server selection timeout")).Once()
	client.On("Ping", context.Background()).Return(nil).Once()

	assert.NoError(t, f.store.Reconnect(context.Background()))
}

func TestStore_ReconnectFails(t *testing.T) {
	f := newFixture(t)
	client := mocks.NewClientHelper(t)
	f.db.On("Client").Return(client)
	client.On("Ping", context.Background()).Return(errors.New("server selection timeout"))

	assert.EqualError(t, f.store.Reconnect(context.Background()), "while reconnecting: server selection timeout")
}
