// File: database/repository/directory/interface.go
package directoryRepo

import (
	"context"
	"errors"

	"farberge/database"
	"farberge/models"

	"go.mongodb.org/mongo-driver/mongo"
)

var (
	ErrWorkerNotFound   = errors.New("worker not found")
	ErrCustomerNotFound = errors.New("customer not found")
	ErrServiceNotFound  = errors.New("service not found")
)

// WorkerDirectory resolves workers and the services they offer.
type WorkerDirectory interface {
	GetWorker(ctx context.Context, id string) (*models.Worker, error)
}

// CustomerDirectory resolves customers.
type CustomerDirectory interface {
	GetCustomer(ctx context.Context, id string) (*models.Customer, error)
}

// ServiceCatalog resolves services and their priced subcategories.
type ServiceCatalog interface {
	GetService(ctx context.Context, id string) (*models.Service, error)
}

type mongoDirectory struct {
	workers   *mongo.Collection
	customers *mongo.Collection
	services  *mongo.Collection
}

// MongoDirectory implements all three lookups over the shared database.
type MongoDirectory interface {
	WorkerDirectory
	CustomerDirectory
	ServiceCatalog
}

// NewMongoDirectory constructs the directory over the workers, customers and
// services collections.
func NewMongoDirectory() MongoDirectory {
	db := database.Database()
	return &mongoDirectory{
		workers:   db.Collection("workers"),
		customers: db.Collection("customers"),
		services:  db.Collection("services"),
	}
}
