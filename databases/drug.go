package databases

// go generate: mockery --name DrugDatabase

import (
	"context"

	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/linesmerrill/dose-reminder-api/models"
)

const drugName = "drugs"

// DrugDatabase contains the methods to use with the drug database
type DrugDatabase interface {
	FindOne(ctx context.Context, filter interface{}, opts ...*options.FindOneOptions) (*models.Drug, error)
	Find(ctx context.Context, filter interface{}, opts ...*options.FindOptions) ([]models.Drug, error)
	InsertOne(ctx context.Context, drug *models.Drug) error
	ReplaceOne(ctx context.Context, filter interface{}, drug *models.Drug) (int64, error)
	DeleteOne(ctx context.Context, filter interface{}) (int64, error)
}

type drugDatabase struct {
	db DatabaseHelper
}

// NewDrugDatabase initializes a new instance of drug database with the provided db connection
func NewDrugDatabase(db DatabaseHelper) DrugDatabase {
	return &drugDatabase{
		db: db,
	}
}

func (c *drugDatabase) FindOne(ctx context.Context, filter interface{}, opts ...*options.FindOneOptions) (*models.Drug, error) {
	drug := &models.Drug{}
	err := c.db.Collection(drugName).FindOne(ctx, filter, opts...).Decode(&drug)
	if err != nil {
		return nil, err
	}
	return drug, nil
}

func (c *drugDatabase) Find(ctx context.Context, filter interface{}, opts ...*options.FindOptions) ([]models.Drug, error) {
	var drugs []models.Drug
	curr, err := c.db.Collection(drugName).Find(ctx, filter, opts...)
	if err != nil {
		return nil, err
	}
	defer curr.Close(ctx)
	err = curr.All(ctx, &drugs)
	if err != nil {
		return nil, err
	}
	return drugs, nil
}

func (c *drugDatabase) InsertOne(ctx context.Context, drug *models.Drug) error {
	_, err := c.db.Collection(drugName).InsertOne(ctx, drug)
	return err
}

func (c *drugDatabase) ReplaceOne(ctx context.Context, filter interface{}, drug *models.Drug) (int64, error) {
	return c.db.Collection(drugName).ReplaceOne(ctx, filter, drug)
}

func (c *drugDatabase) DeleteOne(ctx context.Context, filter interface{}) (int64, error) {
	return c.db.Collection(drugName).DeleteOne(ctx, filter)
}
