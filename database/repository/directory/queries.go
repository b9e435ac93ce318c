// File: database/repository/directory/queries.go
package directoryRepo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"farberge/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

func findOne(ctx context.Context, coll *mongo.Collection, id string, out interface{}, notFound error) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := coll.FindOne(ctx, bson.M{"id": id}).Decode(out); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return notFound
		}
		return fmt.Errorf("lookup in %s failed: %w", coll.Name(), err)
	}
	return nil
}

func (d *mongoDirectory) GetWorker(ctx context.Context, id string) (*models.Worker, error) {
	var w models.Worker
	if err := findOne(ctx, d.workers, id, &w, ErrWorkerNotFound); err != nil {
		return nil, err
	}
	return &w, nil
}

func (d *mongoDirectory) GetCustomer(ctx context.Context, id string) (*models.Customer, error) {
	var c models.Customer
	if err := findOne(ctx, d.customers, id, &c, ErrCustomerNotFound); err != nil {
		return nil, err
	}
	return &c, nil
}

func (d *mongoDirectory) GetService(ctx context.Context, id string) (*models.Service, error) {
	var s models.Service
	if err := findOne(ctx, d.services, id, &s, ErrServiceNotFound); err != nil {
		return nil, err
	}
	return &s, nil
}
