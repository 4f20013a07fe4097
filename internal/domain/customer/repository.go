package customer

import "context"

// Repository defines the interface for customer persistence
type Repository interface {
	Create(ctx context.Context, customer *Customer) error
	// Get retrieves a customer by ID scoped to its owning user
	Get(ctx context.Context, userID, id string) (*Customer, error)
	// GetForUpdate retrieves a customer and locks its row for the duration
	// of the context transaction. Serializes deletes against concurrent
	// invoice creation for the same customer.
	GetForUpdate(ctx context.Context, userID, id string) (*Customer, error)
	Update(ctx context.Context, customer *Customer) error
	Delete(ctx context.Context, userID, id string) error
	List(ctx context.Context, userID string, filter *CustomerFilter) ([]*Customer, error)
	Count(ctx context.Context, userID string, filter *CustomerFilter) (int, error)
}
