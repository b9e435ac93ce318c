package booking

import (
	"errors"

	bookingRepo "farberge/database/repository/booking"
	directoryRepo "farberge/database/repository/directory"
	"farberge/utils"
)

func bookingLookupError(err error) error {
	if errors.Is(err, bookingRepo.ErrNotFound) {
		return utils.NewNotFoundError("BOOKING_NOT_FOUND", "Booking not found")
	}
	return utils.NewInternalError("failed to load booking", err)
}

func directoryError(err error) error {
	switch {
	case errors.Is(err, directoryRepo.ErrCustomerNotFound):
		return utils.NewNotFoundError("CUSTOMER_NOT_FOUND", "Customer not found")
	case errors.Is(err, directoryRepo.ErrWorkerNotFound):
		return utils.NewNotFoundError("WORKER_NOT_FOUND", "Worker not found")
	case errors.Is(err, directoryRepo.ErrServiceNotFound):
		return utils.NewNotFoundError("SERVICE_NOT_FOUND", "Service not found")
	}
	return utils.NewExternalError("directory lookup failed", err)
}
