package models

// WorkerService links a worker to a catalog service they perform.
type WorkerService struct {
	ServiceID      string   `bson:"serviceId" json:"serviceId"`
	SubcategoryIDs []string `bson:"subcategoryIds,omitempty" json:"subcategoryIds,omitempty"`
}

// Worker is the read-only view of the worker directory.
type Worker struct {
	ID        string          `bson:"id" json:"id"`
	FirstName string          `bson:"firstName" json:"firstName"`
	LastName  string          `bson:"lastName,omitempty" json:"lastName,omitempty"`
	Email     string          `bson:"email" json:"email"`
	IsBlocked bool            `bson:"isBlocked" json:"isBlocked"`
	Services  []WorkerService `bson:"services" json:"services"`
}

// Offers reports whether the worker performs serviceID.
func (w *Worker) Offers(serviceID string) bool {
	for _, s := range w.Services {
		if s.ServiceID == serviceID {
			return true
		}
	}
	return false
}

// Customer is the read-only view of a customer account.
type Customer struct {
	ID        string `bson:"id" json:"id"`
	FirstName string `bson:"firstName" json:"firstName"`
	LastName  string `bson:"lastName,omitempty" json:"lastName,omitempty"`
	Email     string `bson:"email" json:"email"`
	Phone     string `bson:"phone,omitempty" json:"phone,omitempty"`
}

type Subcategory struct {
	ID    string  `bson:"id" json:"id"`
	Name  string  `bson:"subcategoryName" json:"subcategoryName"`
	Price float64 `bson:"subcategoryPrice" json:"subcategoryPrice"`
}

// Service is a catalog entry with optional priced subcategories.
type Service struct {
	ID            string        `bson:"id" json:"id"`
	ServiceName   string        `bson:"serviceName" json:"serviceName"`
	Price         float64       `bson:"price" json:"price"`
	Subcategories []Subcategory `bson:"subcategory,omitempty" json:"subcategory,omitempty"`
}
