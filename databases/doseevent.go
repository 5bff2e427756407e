package databases

// go generate: mockery --name DoseEventDatabase

import (
	"context"

	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/linesmerrill/dose-reminder-api/models"
)

const doseEventName = "dose_events"

// DoseEventDatabase contains the methods to use with the dose event database
type DoseEventDatabase interface {
	FindOne(ctx context.Context, filter interface{}, opts ...*options.FindOneOptions) (*models.DoseEvent, error)
	Find(ctx context.Context, filter interface{}, opts ...*options.FindOptions) ([]models.DoseEvent, error)
	InsertOne(ctx context.Context, event *models.DoseEvent) error
	DeleteOne(ctx context.Context, filter interface{}) (int64, error)
	DeleteMany(ctx context.Context, filter interface{}) (int64, error)
}

type doseEventDatabase struct {
	db DatabaseHelper
}

// NewDoseEventDatabase initializes a new instance of dose event database with the provided db connection
func NewDoseEventDatabase(db DatabaseHelper) DoseEventDatabase {
	return &doseEventDatabase{
		db: db,
	}
}

func (c *doseEventDatabase) FindOne(ctx context.Context, filter interface{}, opts ...*options.FindOneOptions) (*models.DoseEvent, error) {
	event := &models.DoseEvent{}
	err := c.db.Collection(doseEventName).FindOne(ctx, filter, opts...).Decode(&event)
	if err != nil {
		return nil, err
	}
	return event, nil
}

func (c *doseEventDatabase) Find(ctx context.Context, filter interface{}, opts ...*options.FindOptions) ([]models.DoseEvent, error) {
	var events []models.DoseEvent
	curr, err := c.db.Collection(doseEventName).Find(ctx, filter, opts...)
	if err != nil {
		return nil, err
	}
	defer curr.Close(ctx)
	err = curr.All(ctx, &events)
	if err != nil {
		return nil, err
	}
	return events, nil
}

func (c *doseEventDatabase) InsertOne(ctx context.Context, event *models.DoseEvent) error {
	_, err := c.db.Collection(doseEventName).InsertOne(ctx, event)
	return err
}

func (c *doseEventDatabase) DeleteOne(ctx context.Context, filter interface{}) (int64, error) {
	return c.db.Collection(doseEventName).DeleteOne(ctx, filter)
}

func (c *doseEventDatabase) DeleteMany(ctx context.Context, filter interface{}) (int64, error) {
	return c.db.Collection(doseEventName).DeleteMany(ctx, filter)
}
