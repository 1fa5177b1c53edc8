package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/carhive/marketplace/internal/listing/domain"
	"github.com/carhive/marketplace/internal/listing/repository"
	"github.com/carhive/marketplace/internal/platform/cache"
)

const (
	favoriteStaleTime     = time.Minute
	favoriteListStaleTime = time.Minute
)

// CarReader is the slice of the listing repository the favorites flow
// needs for its second query.
type CarReader interface {
	ListByIDs(ctx context.Context, ids []string) ([]domain.Car, error)
}

// FavoriteUsecase maintains the user-to-listing favorite relation.
// Toggle is a read-then-write sequence, not an atomic flip; the store's
// unique (user_id, car_id) index is the backstop for concurrent toggles
// of the same pair.
type FavoriteUsecase struct {
	store  domain.RowStore
	cars   CarReader
	cache  *cache.Cache
	logger *zap.Logger
}

func NewFavoriteUsecase(store domain.RowStore, cars CarReader, qc *cache.Cache, logger *zap.Logger) *FavoriteUsecase {
	return &FavoriteUsecase{store: store, cars: cars, cache: qc, logger: logger}
}

// IsFavorite reports whether the relation row for the pair exists.
func (uc *FavoriteUsecase) IsFavorite(ctx context.Context, userID, carID string) (bool, error) {
	if err := checkPairIDs(userID, carID); err != nil {
		return false, err
	}
	rows, err := uc.store.Select(ctx, repository.TableFavorites, pairFilter(userID, carID))
	if err != nil {
		return false, &domain.StoreError{Op: "check favorite", Err: err}
	}
	return len(rows) > 0, nil
}

// Toggle flips the favorite state for the pair: the row is deleted when
// present and inserted when absent. A duplicate-key failure on insert
// means a concurrent toggle won the race and the relation already is in
// the requested state, so it is treated as success.
func (uc *FavoriteUsecase) Toggle(ctx context.Context, carID, userID string) error {
	if err := checkPairIDs(userID, carID); err != nil {
		return err
	}

	rows, err := uc.store.Select(ctx, repository.TableFavorites, pairFilter(userID, carID))
	if err != nil {
		return &domain.StoreError{Op: "check favorite", Err: err}
	}

	if len(rows) > 0 {
		existing := rowToFavoriteID(rows[0])
		if err := uc.store.Delete(ctx, repository.TableFavorites, domain.Filter{Eq: map[string]any{"id": existing}}); err != nil {
			return &domain.StoreError{Op: "remove favorite", Err: err}
		}
		uc.logger.Info("favorite removed", zap.String("user_id", userID), zap.String("car_id", carID))
		return nil
	}

	_, err = uc.store.Insert(ctx, repository.TableFavorites, domain.Row{
		"user_id": userID,
		"car_id":  carID,
	})
	if err != nil {
		if errors.Is(err, domain.ErrDuplicateFavorite) {
			uc.logger.Warn("favorite already exists", zap.String("user_id", userID), zap.String("car_id", carID))
			return nil
		}
		return &domain.StoreError{Op: "add favorite", Err: err}
	}
	uc.logger.Info("favorite added", zap.String("user_id", userID), zap.String("car_id", carID))
	return nil
}

// ListFavorites resolves the user's favorites to full listings in two
// steps: the relation rows first, then an in-set query over the car ids.
// A user with no favorites short-circuits to an empty slice before the
// second query.
func (uc *FavoriteUsecase) ListFavorites(ctx context.Context, userID string) ([]domain.Car, error) {
	if userID == "" {
		return nil, fmt.Errorf("%w: user id is empty", domain.ErrInvalidArgument)
	}

	rows, err := uc.store.Select(ctx, repository.TableFavorites, domain.Filter{Eq: map[string]any{"user_id": userID}})
	if err != nil {
		return nil, &domain.StoreError{Op: "list favorites", Err: err}
	}
	if len(rows) == 0 {
		return []domain.Car{}, nil
	}

	carIDs := make([]string, 0, len(rows))
	for _, row := range rows {
		if id, ok := row["car_id"].(string); ok && id != "" {
			carIDs = append(carIDs, id)
		}
	}
	return uc.cars.ListByIDs(ctx, carIDs)
}

// ToggleCached runs Toggle under the query cache's mutation contract.
// The favorite flag flips in the cache before the store round-trip
// resolves, rolls back to the prior value when the store call fails, and
// the dependent keys are invalidated either way. The cache serializes the
// whole sequence per key, so two concurrent toggles on the same pair
// cannot cross their rollbacks.
func (uc *FavoriteUsecase) ToggleCached(ctx context.Context, carID, userID string) error {
	if err := checkPairIDs(userID, carID); err != nil {
		return err
	}
	flagKey := favoriteFlagKey(userID, carID)
	_, err := uc.cache.Mutate(ctx, flagKey, func(ctx context.Context) (any, error) {
		return nil, uc.Toggle(ctx, carID, userID)
	}, cache.Hooks{
		OnMutate: func(tx *cache.Tx) any {
			previous, _ := tx.Get(flagKey)
			tx.Set(flagKey, !asBool(previous))
			return previous
		},
		OnError: func(tx *cache.Tx, _ error, previous any) {
			tx.Set(flagKey, previous)
		},
		OnSettled: func(tx *cache.Tx) {
			tx.Invalidate(flagKey)
			tx.Invalidate(favoriteListKey(userID))
		},
	})
	return err
}

// IsFavoriteCached is the read-through variant of IsFavorite.
func (uc *FavoriteUsecase) IsFavoriteCached(ctx context.Context, userID, carID string) (bool, error) {
	if err := checkPairIDs(userID, carID); err != nil {
		return false, err
	}
	v, err := uc.cache.Query(ctx, favoriteFlagKey(userID, carID), func(ctx context.Context) (any, error) {
		return uc.IsFavorite(ctx, userID, carID)
	}, favoriteStaleTime)
	if err != nil {
		return false, err
	}
	return asBool(v), nil
}

// ListFavoritesCached is the read-through variant of ListFavorites.
func (uc *FavoriteUsecase) ListFavoritesCached(ctx context.Context, userID string) ([]domain.Car, error) {
	if userID == "" {
		return nil, fmt.Errorf("%w: user id is empty", domain.ErrInvalidArgument)
	}
	v, err := uc.cache.Query(ctx, favoriteListKey(userID), func(ctx context.Context) (any, error) {
		return uc.ListFavorites(ctx, userID)
	}, favoriteListStaleTime)
	if err != nil {
		return nil, err
	}
	return v.([]domain.Car), nil
}

func favoriteFlagKey(userID, carID string) cache.Key {
	return cache.Key{"isCarFavorite", userID, carID}
}

func favoriteListKey(userID string) cache.Key {
	return cache.Key{"userFavorites", userID}
}

func asBool(v any) bool {
	b, _ := v.(bool)
	return b
}

func pairFilter(userID, carID string) domain.Filter {
	return domain.Filter{Eq: map[string]any{"user_id": userID, "car_id": carID}}
}

func rowToFavoriteID(row domain.Row) string {
	id, _ := row["id"].(string)
	return id
}

func checkPairIDs(userID, carID string) error {
	if userID == "" || carID == "" {
		return fmt.Errorf("%w: user id and car id are required", domain.ErrInvalidArgument)
	}
	return nil
}
