package memoryRepo

import (
	"context"
	"sync"

	directoryRepo "farberge/database/repository/directory"
	"farberge/models"
)

// Directory implements the worker, customer and service lookups over maps.
type Directory struct {
	mu        sync.RWMutex
	workers   map[string]models.Worker
	customers map[string]models.Customer
	services  map[string]models.Service
}

func NewDirectory() *Directory {
	return &Directory{
		workers:   make(map[string]models.Worker),
		customers: make(map[string]models.Customer),
		services:  make(map[string]models.Service),
	}
}

func (d *Directory) AddWorker(w models.Worker) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.workers[w.ID] = w
}

func (d *Directory) AddCustomer(c models.Customer) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.customers[c.ID] = c
}

func (d *Directory) AddService(s models.Service) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.services[s.ID] = s
}

func (d *Directory) GetWorker(_ context.Context, id string) (*models.Worker, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	w, ok := d.workers[id]
	if !ok {
		return nil, directoryRepo.ErrWorkerNotFound
	}
	return &w, nil
}

func (d *Directory) GetCustomer(_ context.Context, id string) (*models.Customer, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	c, ok := d.customers[id]
	if !ok {
		return nil, directoryRepo.ErrCustomerNotFound
	}
	return &c, nil
}

func (d *Directory) GetService(_ context.Context, id string) (*models.Service, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	s, ok := d.services[id]
	if !ok {
		return nil, directoryRepo.ErrServiceNotFound
	}
	return &s, nil
}
