package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/carhive/marketplace/internal/listing/domain"
)

// fakeRowStore echoes inserted rows back with an assigned id, the way the
// real store returns created rows.
type fakeRowStore struct {
	selectRows   []domain.Row
	selectErr    error
	insertRows   []domain.Row
	insertErr    error
	echoInserted bool

	selectCalls int
	lastTable   string
	lastFilter  domain.Filter
	inserted    domain.Row
}

func (f *fakeRowStore) Select(_ context.Context, table string, filter domain.Filter) ([]domain.Row, error) {
	f.selectCalls++
	f.lastTable = table
	f.lastFilter = filter
	return f.selectRows, f.selectErr
}

func (f *fakeRowStore) Insert(_ context.Context, table string, row domain.Row) ([]domain.Row, error) {
	f.lastTable = table
	f.inserted = row
	if f.insertErr != nil {
		return nil, f.insertErr
	}
	if f.echoInserted {
		echoed := domain.Row{"id": "car-1", "created_at": time.Now().UTC()}
		for k, v := range row {
			echoed[k] = v
		}
		return []domain.Row{echoed}, nil
	}
	return f.insertRows, nil
}

func (f *fakeRowStore) Delete(context.Context, string, domain.Filter) error { return nil }

func newTestRepo(store *fakeRowStore) *CarRepository {
	return NewCarRepository(store, nil, zap.NewNop())
}

func TestInsert_RoundTrip(t *testing.T) {
	store := &fakeRowStore{echoInserted: true}
	repo := newTestRepo(store)

	car := domain.Car{Brand: "BMW", Model: "320d", Year: 2020, Price: 125000}
	created, err := repo.Insert(context.Background(), car, "u1")
	require.NoError(t, err)

	assert.NotEmpty(t, created.ID)
	assert.Equal(t, "u1", created.UserID)
	assert.Equal(t, float64(125000), created.Price)
	assert.Equal(t, TableCar, store.lastTable)
	assert.Equal(t, "u1", store.inserted["user_id"])

	store.selectRows = []domain.Row{{
		"id": created.ID, "user_id": "u1", "brand": "BMW", "model": "320d",
		"year": 2020, "price": float64(125000),
	}}
	got, err := repo.GetByID(context.Background(), created.ID)
	require.NoError(t, err)
	assert.Equal(t, "BMW", got.Brand)
	assert.Equal(t, "320d", got.Model)
	assert.Equal(t, 2020, got.Year)
	assert.Equal(t, float64(125000), got.Price)
}

func TestInsert_ZeroRowsIsNotInserted(t *testing.T) {
	repo := newTestRepo(&fakeRowStore{insertRows: []domain.Row{}})

	_, err := repo.Insert(context.Background(), domain.Car{Brand: "BMW", Model: "320d"}, "u1")
	assert.ErrorIs(t, err, domain.ErrNotInserted)
}

func TestInsert_InvalidListingNeverReachesStore(t *testing.T) {
	store := &fakeRowStore{echoInserted: true}
	repo := newTestRepo(store)

	_, err := repo.Insert(context.Background(), domain.Car{Model: "320d"}, "u1")

	var validationErr *domain.ValidationError
	require.ErrorAs(t, err, &validationErr)
	assert.Contains(t, validationErr.Fields, "brand")
	assert.ErrorIs(t, err, domain.ErrInvalidArgument)
	assert.Nil(t, store.inserted)
}

func TestInsert_StoreErrorPreservesMessage(t *testing.T) {
	repo := newTestRepo(&fakeRowStore{insertErr: errors.New("connection reset by peer")})

	_, err := repo.Insert(context.Background(), domain.Car{Brand: "BMW", Model: "320d"}, "u1")

	var storeErr *domain.StoreError
	require.ErrorAs(t, err, &storeErr)
	assert.Contains(t, err.Error(), "connection reset by peer")
}

func TestGetByID_EmptyID(t *testing.T) {
	store := &fakeRowStore{}
	repo := newTestRepo(store)

	_, err := repo.GetByID(context.Background(), "")
	assert.ErrorIs(t, err, domain.ErrInvalidArgument)
	assert.Zero(t, store.selectCalls, "must fail before any store call")
}

func TestGetByID_MissingRowIsNotFound(t *testing.T) {
	repo := newTestRepo(&fakeRowStore{selectRows: nil})

	_, err := repo.GetByID(context.Background(), "nope")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestListByOwner_EmptyIsNotAnError(t *testing.T) {
	repo := newTestRepo(&fakeRowStore{selectRows: nil})

	cars, err := repo.ListByOwner(context.Background(), "u1")
	require.NoError(t, err)
	assert.Empty(t, cars)
	assert.NotNil(t, cars)
}

func TestListAll_AppliesDefaultLimit(t *testing.T) {
	store := &fakeRowStore{}
	repo := newTestRepo(store)

	_, err := repo.ListAll(context.Background(), domain.Page{})
	require.NoError(t, err)
	assert.Equal(t, defaultPageLimit, store.lastFilter.Limit)
}

func TestListByIDs_EmptySetShortCircuits(t *testing.T) {
	store := &fakeRowStore{}
	repo := newTestRepo(store)

	cars, err := repo.ListByIDs(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, cars)
	assert.Zero(t, store.selectCalls)
}

func TestListByIDs_UsesInSetFilter(t *testing.T) {
	store := &fakeRowStore{selectRows: []domain.Row{{"id": "a"}, {"id": "b"}}}
	repo := newTestRepo(store)

	cars, err := repo.ListByIDs(context.Background(), []string{"a", "b"})
	require.NoError(t, err)
	assert.Len(t, cars, 2)
	assert.Equal(t, []string{"a", "b"}, store.lastFilter.In["id"])
}
