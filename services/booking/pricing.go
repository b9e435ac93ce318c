package booking

import (
	"context"
	"math"

	"farberge/models"
	"farberge/utils"
)

// priceServices resolves the selected services against the worker and the
// catalog and returns the booking lines plus the total: each service's base
// price plus the price of every selected subcategory.
func (s *DefaultBookingService) priceServices(ctx context.Context, worker *models.Worker, selections []models.ServiceSelection) ([]models.BookingService, float64, error) {
	lines := make([]models.BookingService, 0, len(selections))
	seen := make(map[string]bool, len(selections))
	total := 0.0

	for _, sel := range selections {
		if sel.ServiceID == "" {
			return nil, 0, utils.NewValidationError("serviceId is required for every service")
		}
		if seen[sel.ServiceID] {
			return nil, 0, utils.NewValidationError("service " + sel.ServiceID + " was selected twice")
		}
		seen[sel.ServiceID] = true

		if !worker.Offers(sel.ServiceID) {
			return nil, 0, utils.NewValidationError("worker does not offer service " + sel.ServiceID).
				WithDetail("serviceId", sel.ServiceID)
		}
		svc, err := s.Catalog.GetService(ctx, sel.ServiceID)
		if err != nil {
			return nil, 0, directoryError(err)
		}

		total += svc.Price
		for _, subID := range sel.ServiceCategories {
			sub := findSubcategory(svc, subID)
			if sub == nil {
				return nil, 0, utils.NewValidationError("unknown subcategory " + subID + " for service " + sel.ServiceID).
					WithDetail("subcategoryId", subID)
			}
			total += sub.Price
		}
		lines = append(lines, models.BookingService{
			ServiceID:      sel.ServiceID,
			SubcategoryIDs: append([]string(nil), sel.ServiceCategories...),
		})
	}
	return lines, math.Round(total*100) / 100, nil
}

func findSubcategory(svc *models.Service, id string) *models.Subcategory {
	for i := range svc.Subcategories {
		if svc.Subcategories[i].ID == id {
			return &svc.Subcategories[i]
		}
	}
	return nil
}
