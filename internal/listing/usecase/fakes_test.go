package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/carhive/marketplace/internal/listing/domain"
)

// fakeRowStore keeps favorites rows in memory so paired toggles exercise
// real state transitions.
type fakeRowStore struct {
	mu        sync.Mutex
	favorites []domain.Row
	nextID    int

	selectErr error
	insertErr error
	deleteErr error

	selectCalls int
	insertCalls int
	deleteCalls int
}

func (f *fakeRowStore) Select(_ context.Context, table string, filter domain.Filter) ([]domain.Row, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.selectCalls++
	if f.selectErr != nil {
		return nil, f.selectErr
	}
	var out []domain.Row
	for _, row := range f.favorites {
		if matches(row, filter) {
			out = append(out, row)
		}
	}
	return out, nil
}

func (f *fakeRowStore) Insert(_ context.Context, table string, row domain.Row) ([]domain.Row, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.insertCalls++
	if f.insertErr != nil {
		return nil, f.insertErr
	}
	for _, existing := range f.favorites {
		if existing["user_id"] == row["user_id"] && existing["car_id"] == row["car_id"] {
			return nil, fmt.Errorf("%w: duplicate key", domain.ErrDuplicateFavorite)
		}
	}
	f.nextID++
	stored := domain.Row{"id": fmt.Sprintf("fav-%d", f.nextID), "created_at": time.Now().UTC()}
	for k, v := range row {
		stored[k] = v
	}
	f.favorites = append(f.favorites, stored)
	return []domain.Row{stored}, nil
}

func (f *fakeRowStore) Delete(_ context.Context, table string, filter domain.Filter) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleteCalls++
	if f.deleteErr != nil {
		return f.deleteErr
	}
	kept := f.favorites[:0]
	for _, row := range f.favorites {
		if !matches(row, filter) {
			kept = append(kept, row)
		}
	}
	f.favorites = kept
	return nil
}

func matches(row domain.Row, filter domain.Filter) bool {
	for k, v := range filter.Eq {
		if row[k] != v {
			return false
		}
	}
	for k, set := range filter.In {
		val, _ := row[k].(string)
		found := false
		for _, candidate := range set {
			if candidate == val {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

type fakeCarReader struct {
	cars   []domain.Car
	calls  int
	gotIDs []string
}

func (f *fakeCarReader) ListByIDs(_ context.Context, ids []string) ([]domain.Car, error) {
	f.calls++
	f.gotIDs = ids
	return f.cars, nil
}

// fakeBlobStore records uploads keyed by path.
type fakeBlobStore struct {
	mu       sync.Mutex
	objects  map[string][]byte
	types    map[string]string
	entries  []domain.BlobEntry
	listErr  error
	public   bool
	signErr  map[string]error
	failPath string
}

func newFakeBlobStore() *fakeBlobStore {
	return &fakeBlobStore{
		objects: make(map[string][]byte),
		types:   make(map[string]string),
		signErr: make(map[string]error),
	}
}

func (f *fakeBlobStore) Upload(_ context.Context, path string, data []byte, opts domain.UploadOptions) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failPath != "" && strings.Contains(path, f.failPath) {
		return errors.New("upload rejected")
	}
	f.objects[path] = data
	f.types[path] = opts.ContentType
	return nil
}

func (f *fakeBlobStore) List(context.Context, string, domain.ListOptions) ([]domain.BlobEntry, error) {
	return f.entries, f.listErr
}

func (f *fakeBlobStore) PublicURL(path string) (string, bool) {
	if !f.public {
		return "", false
	}
	return "https://cdn.example.com/" + path, true
}

func (f *fakeBlobStore) SignedURL(_ context.Context, path string, _ time.Duration) (string, error) {
	if err := f.signErr[path]; err != nil {
		return "", err
	}
	return "https://store.example.com/" + path + "?sig=abc", nil
}

type fakeFiles struct {
	data map[string][]byte
}

func (f *fakeFiles) ReadFile(uri string) ([]byte, error) {
	if data, ok := f.data[uri]; ok {
		return data, nil
	}
	return nil, errors.New("no such file: " + uri)
}

type fakeAuth struct {
	session *domain.Session
}

func (f *fakeAuth) CurrentSession(context.Context) (*domain.Session, error) { return f.session, nil }
func (f *fakeAuth) OnSessionChange(func(*domain.Session)) func()            { return func() {} }
func (f *fakeAuth) SignOut(context.Context) error                           { return nil }

type fakeCarStore struct {
	insertErr    error
	created      domain.Car
	cars         []domain.Car
	insertCalls  int
	listAllCalls int
}

func (f *fakeCarStore) Insert(_ context.Context, car domain.Car, ownerID string) (domain.Car, error) {
	f.insertCalls++
	if f.insertErr != nil {
		return domain.Car{}, f.insertErr
	}
	car.ID = "car-1"
	car.UserID = ownerID
	f.created = car
	return car, nil
}

func (f *fakeCarStore) GetByID(_ context.Context, id string) (domain.Car, error) {
	for _, car := range f.cars {
		if car.ID == id {
			return car, nil
		}
	}
	return domain.Car{}, domain.ErrNotFound
}

func (f *fakeCarStore) ListByOwner(context.Context, string) ([]domain.Car, error) {
	return f.cars, nil
}

func (f *fakeCarStore) ListAll(context.Context, domain.Page) ([]domain.Car, error) {
	f.listAllCalls++
	return f.cars, nil
}

type fakeUploader struct {
	err      error
	calls    int
	gotOwner string
	gotCarID string
	gotURIs  []string
}

func (f *fakeUploader) Upload(_ context.Context, ownerID, carID string, uris []string) ([]domain.UploadResult, error) {
	f.calls++
	f.gotOwner = ownerID
	f.gotCarID = carID
	f.gotURIs = uris
	if f.err != nil {
		return nil, f.err
	}
	return []domain.UploadResult{}, nil
}

type fakePublisher struct {
	subjects []string
	payloads []any
}

func (f *fakePublisher) Publish(_ context.Context, subject string, payload any) error {
	f.subjects = append(f.subjects, subject)
	f.payloads = append(f.payloads, payload)
	return nil
}

type fakeMailer struct {
	to     string
	titles []string
}

func (f *fakeMailer) SendListingCreatedEmail(toEmail, listingTitle string) error {
	f.to = toEmail
	f.titles = append(f.titles, listingTitle)
	return nil
}
