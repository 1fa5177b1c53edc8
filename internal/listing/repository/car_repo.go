package repository

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/carhive/marketplace/internal/listing/domain"
)

const defaultPageLimit = 100

// ListingCache is an optional read-through cache for single-listing reads.
// Cache failures are never surfaced to callers; the store stays the source
// of truth.
type ListingCache interface {
	GetCar(ctx context.Context, id string) (*domain.Car, error)
	SetCar(ctx context.Context, car domain.Car) error
	DeleteCar(ctx context.Context, id string) error
}

// CarRepository implements listing CRUD over the injected row store and
// owns the mapping between the Car domain type and the car table schema.
type CarRepository struct {
	store  domain.RowStore
	cache  ListingCache
	logger *zap.Logger
}

func NewCarRepository(store domain.RowStore, cache ListingCache, logger *zap.Logger) *CarRepository {
	return &CarRepository{store: store, cache: cache, logger: logger}
}

// Insert validates the listing, stamps the owner and writes it to the
// store. The store must hand the created row back; a reported success with
// zero rows violates the store contract and fails with ErrNotInserted.
func (r *CarRepository) Insert(ctx context.Context, car domain.Car, ownerID string) (domain.Car, error) {
	if ownerID == "" {
		return domain.Car{}, fmt.Errorf("%w: owner id is empty", domain.ErrInvalidArgument)
	}
	if fieldErrs := domain.ValidateCar(car); fieldErrs != nil {
		return domain.Car{}, &domain.ValidationError{Fields: fieldErrs}
	}

	car.UserID = ownerID
	rows, err := r.store.Insert(ctx, TableCar, carToRow(car))
	if err != nil {
		r.logger.Error("failed to insert car", zap.String("owner_id", ownerID), zap.Error(err))
		return domain.Car{}, &domain.StoreError{Op: "insert car", Err: err}
	}
	if len(rows) == 0 {
		return domain.Car{}, domain.ErrNotInserted
	}

	created := rowToCar(rows[0])
	r.logger.Info("car inserted", zap.String("car_id", created.ID), zap.String("owner_id", ownerID))
	if r.cache != nil {
		if err := r.cache.SetCar(ctx, created); err != nil {
			r.logger.Warn("failed to cache inserted car", zap.String("car_id", created.ID), zap.Error(err))
		}
	}
	return created, nil
}

// GetByID fetches a single listing. A missing row is ErrNotFound, which is
// distinct from the empty results the list operations return.
func (r *CarRepository) GetByID(ctx context.Context, id string) (domain.Car, error) {
	if id == "" {
		return domain.Car{}, fmt.Errorf("%w: car id is empty", domain.ErrInvalidArgument)
	}

	if r.cache != nil {
		cached, err := r.cache.GetCar(ctx, id)
		if err != nil {
			r.logger.Warn("listing cache read failed", zap.String("car_id", id), zap.Error(err))
		} else if cached != nil {
			return *cached, nil
		}
	}

	rows, err := r.store.Select(ctx, TableCar, domain.Filter{Eq: map[string]any{"id": id}})
	if err != nil {
		return domain.Car{}, &domain.StoreError{Op: "get car by id", Err: err}
	}
	if len(rows) == 0 {
		return domain.Car{}, domain.ErrNotFound
	}

	car := rowToCar(rows[0])
	if r.cache != nil {
		if err := r.cache.SetCar(ctx, car); err != nil {
			r.logger.Warn("failed to cache car", zap.String("car_id", id), zap.Error(err))
		}
	}
	return car, nil
}

// ListByOwner returns all listings of one account. An owner with no
// listings gets an empty slice, not an error.
func (r *CarRepository) ListByOwner(ctx context.Context, ownerID string) ([]domain.Car, error) {
	if ownerID == "" {
		return nil, fmt.Errorf("%w: owner id is empty", domain.ErrInvalidArgument)
	}
	rows, err := r.store.Select(ctx, TableCar, domain.Filter{Eq: map[string]any{"user_id": ownerID}})
	if err != nil {
		return nil, &domain.StoreError{Op: "list cars by owner", Err: err}
	}
	return rowsToCars(rows), nil
}

// ListAll is the browse query. It is always bounded: a zero page limit
// falls back to defaultPageLimit.
func (r *CarRepository) ListAll(ctx context.Context, page domain.Page) ([]domain.Car, error) {
	if page.Limit <= 0 {
		page.Limit = defaultPageLimit
	}
	rows, err := r.store.Select(ctx, TableCar, domain.Filter{Limit: page.Limit, Offset: page.Offset})
	if err != nil {
		return nil, &domain.StoreError{Op: "list cars", Err: err}
	}
	return rowsToCars(rows), nil
}

// ListByIDs fetches the listings whose id is in the given set, in store
// enumeration order. Unknown ids are silently absent from the result.
func (r *CarRepository) ListByIDs(ctx context.Context, ids []string) ([]domain.Car, error) {
	if len(ids) == 0 {
		return []domain.Car{}, nil
	}
	rows, err := r.store.Select(ctx, TableCar, domain.Filter{In: map[string][]string{"id": ids}})
	if err != nil {
		return nil, &domain.StoreError{Op: "list cars by ids", Err: err}
	}
	return rowsToCars(rows), nil
}

func rowsToCars(rows []domain.Row) []domain.Car {
	cars := make([]domain.Car, 0, len(rows))
	for _, row := range rows {
		cars = append(cars, rowToCar(row))
	}
	return cars
}
