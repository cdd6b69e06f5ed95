package db

import (
	"item-service/internal/ports/outbound"
)

// RepositoryFactory creates the repositories backed by one connection
type RepositoryFactory struct {
	conn *Connection
}

// NewRepositoryFactory creates a new repository factory
func NewRepositoryFactory(conn *Connection) *RepositoryFactory {
	return &RepositoryFactory{conn: conn}
}

// GetItemRepository returns the item repository
func (f *RepositoryFactory) GetItemRepository() outbound.ItemRepository {
	return NewItemRepository(f.conn)
}

// GetStoreProber returns the readiness probe of the underlying connection
func (f *RepositoryFactory) GetStoreProber() outbound.StoreProber {
	return f.conn
}
