// Command seed fills the directory collections with demo workers, customers
// and services and prints bearer tokens for local testing.
package main

import (
	"context"
	"fmt"
	"log"
	"time"

	"farberge/config"
	"farberge/database"
	"farberge/models"
	"farberge/utils"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

func main() {
	config.LoadConfig()
	database.InitDB()
	db := database.Database()

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	services := []models.Service{
		{
			ID: uuid.New().String(), ServiceName: "Haircut", Price: 25,
			Subcategories: []models.Subcategory{
				{ID: uuid.New().String(), Name: "Beard trim", Price: 8},
				{ID: uuid.New().String(), Name: "Wash", Price: 5},
			},
		},
		{
			ID: uuid.New().String(), ServiceName: "Colouring", Price: 60,
			Subcategories: []models.Subcategory{
				{ID: uuid.New().String(), Name: "Highlights", Price: 30},
			},
		},
		{ID: uuid.New().String(), ServiceName: "Manicure", Price: 20},
	}

	workers := []models.Worker{
		{ID: uuid.New().String(), FirstName: "Ada", Email: "ada@example.com",
			Services: []models.WorkerService{{ServiceID: services[0].ID}, {ServiceID: services[1].ID}}},
		{ID: uuid.New().String(), FirstName: "Linus", Email: "linus@example.com",
			Services: []models.WorkerService{{ServiceID: services[2].ID}}},
	}

	customers := []models.Customer{
		{ID: uuid.New().String(), FirstName: "Grace", Email: "grace@example.com"},
		{ID: uuid.New().String(), FirstName: "Ken", Email: "ken@example.com"},
	}

	reseed(ctx, db.Collection("services"), toDocs(services))
	reseed(ctx, db.Collection("workers"), toDocs(workers))
	reseed(ctx, db.Collection("customers"), toDocs(customers))

	for _, s := range services {
		fmt.Printf("service  %-10s %s\n", s.ServiceName, s.ID)
	}
	for _, w := range workers {
		printToken("worker", w.FirstName, w.ID, models.RoleWorker)
	}
	for _, c := range customers {
		printToken("customer", c.FirstName, c.ID, models.RoleCustomer)
	}
	printToken("admin", "admin", "admin", models.RoleAdmin)
}

func toDocs[T any](items []T) []interface{} {
	docs := make([]interface{}, len(items))
	for i := range items {
		docs[i] = items[i]
	}
	return docs
}

func reseed(ctx context.Context, coll *mongo.Collection, docs []interface{}) {
	if _, err := coll.DeleteMany(ctx, bson.M{}); err != nil {
		log.Fatalf("Failed to clear %s: %v", coll.Name(), err)
	}
	if _, err := coll.InsertMany(ctx, docs); err != nil {
		log.Fatalf("Failed to seed %s: %v", coll.Name(), err)
	}
}

func printToken(kind, name, id, role string) {
	token, err := utils.GenerateToken(id, role, 24*time.Hour)
	if err != nil {
		log.Fatalf("Failed to sign token for %s: %v", name, err)
	}
	fmt.Printf("%-8s %-8s %s\n  Bearer %s\n", kind, name, id, token)
}
