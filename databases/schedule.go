package databases

// go generate: mockery --name ScheduleDatabase

import (
	"context"

	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/linesmerrill/dose-reminder-api/models"
)

const scheduleName = "schedules"

// ScheduleDatabase contains the methods to use with the schedule database
type ScheduleDatabase interface {
	FindOne(ctx context.Context, filter interface{}, opts ...*options.FindOneOptions) (*models.Schedule, error)
	Find(ctx context.Context, filter interface{}, opts ...*options.FindOptions) ([]models.Schedule, error)
	InsertOne(ctx context.Context, schedule *models.Schedule) error
	DeleteOne(ctx context.Context, filter interface{}) (int64, error)
	DeleteMany(ctx context.Context, filter interface{}) (int64, error)
}

type scheduleDatabase struct {
	db DatabaseHelper
}

// NewScheduleDatabase initializes a new instance of schedule database with the provided db connection
func NewScheduleDatabase(db DatabaseHelper) ScheduleDatabase {
	return &scheduleDatabase{
		db: db,
	}
}

func (c *scheduleDatabase) FindOne(ctx context.Context, filter interface{}, opts ...*options.FindOneOptions) (*models.Schedule, error) {
	schedule := &models.Schedule{}
	err := c.db.Collection(scheduleName).FindOne(ctx, filter, opts...).Decode(&schedule)
	if err != nil {
		return nil, err
	}
	return schedule, nil
}

func (c *scheduleDatabase) Find(ctx context.Context, filter interface{}, opts ...*options.FindOptions) ([]models.Schedule, error) {
	var schedules []models.Schedule
	curr, err := c.db.Collection(scheduleName).Find(ctx, filter, opts...)
	if err != nil {
		return nil, err
	}
	defer curr.Close(ctx)
	err = curr.All(ctx, &schedules)
	if err != nil {
		return nil, err
	}
	return schedules, nil
}

func (c *scheduleDatabase) InsertOne(ctx context.Context, schedule *models.Schedule) error {
	_, err := c.db.Collection(scheduleName).InsertOne(ctx, schedule)
	return err
}

func (c *scheduleDatabase) DeleteOne(ctx context.Context, filter interface{}) (int64, error) {
	return c.db.Collection(scheduleName).DeleteOne(ctx, filter)
}

func (c *scheduleDatabase) DeleteMany(ctx context.Context, filter interface{}) (int64, error) {
	return c.db.Collection(scheduleName).DeleteMany(ctx, filter)
}
