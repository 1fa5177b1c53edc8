package usecase

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/carhive/marketplace/internal/listing/domain"
	"github.com/carhive/marketplace/internal/platform/cache"
)

const (
	subjectListingCreated = "listing.created"

	browseStaleTime   = 30 * time.Second
	userCarsStaleTime = time.Minute
	carByIDStaleTime  = 24 * time.Minute
)

// CarStore is the listing repository surface the orchestrator consumes.
type CarStore interface {
	Insert(ctx context.Context, car domain.Car, ownerID string) (domain.Car, error)
	GetByID(ctx context.Context, id string) (domain.Car, error)
	ListByOwner(ctx context.Context, ownerID string) ([]domain.Car, error)
	ListAll(ctx context.Context, page domain.Page) ([]domain.Car, error)
}

type Uploader interface {
	Upload(ctx context.Context, ownerID, carID string, localURIs []string) ([]domain.UploadResult, error)
}

type EventPublisher interface {
	Publish(ctx context.Context, subject string, payload any) error
}

type Mailer interface {
	SendListingCreatedEmail(toEmail, listingTitle string) error
}

// ListingCreatedEvent is published after a listing row is created,
// whether or not its photo upload succeeded.
type ListingCreatedEvent struct {
	EventID   string    `json:"event_id"`
	CarID     string    `json:"car_id"`
	UserID    string    `json:"user_id"`
	Brand     string    `json:"brand"`
	Model     string    `json:"model"`
	CreatedAt time.Time `json:"created_at"`
}

// ListingUsecase composes the repository and the photo manager into the
// create-listing-with-photos flow and fronts the listing reads with the
// query cache. Events and mailer are optional collaborators.
type ListingUsecase struct {
	repo   CarStore
	photos Uploader
	auth   domain.AuthProvider
	cache  *cache.Cache
	events EventPublisher
	mailer Mailer
	logger *zap.Logger
}

func NewListingUsecase(repo CarStore, photos Uploader, auth domain.AuthProvider, qc *cache.Cache, events EventPublisher, mailer Mailer, logger *zap.Logger) *ListingUsecase {
	return &ListingUsecase{
		repo:   repo,
		photos: photos,
		auth:   auth,
		cache:  qc,
		events: events,
		mailer: mailer,
		logger: logger,
	}
}

// CreateListingWithImages inserts the listing for the signed-in account
// and then uploads its photos. The two steps are explicitly sequenced: an
// insert failure aborts with no side effects, while an upload failure
// leaves the created row without its images. That inconsistency window is
// surfaced to the caller, never hidden: the created listing is returned
// alongside the upload error.
func (uc *ListingUsecase) CreateListingWithImages(ctx context.Context, car domain.Car, localImageURIs []string) (domain.Car, error) {
	session, err := uc.auth.CurrentSession(ctx)
	if err != nil {
		return domain.Car{}, fmt.Errorf("resolve session: %w", err)
	}
	if session == nil {
		return domain.Car{}, domain.ErrUnauthenticated
	}

	created, err := uc.repo.Insert(ctx, car, session.UserID)
	if err != nil {
		return domain.Car{}, err
	}

	uc.invalidateListings(session.UserID)
	uc.announceCreated(ctx, created, session)

	if len(localImageURIs) > 0 {
		if _, err := uc.photos.Upload(ctx, session.UserID, created.ID, localImageURIs); err != nil {
			uc.logger.Error("listing created but photo upload failed",
				zap.String("car_id", created.ID), zap.Error(err))
			return created, fmt.Errorf("listing %s created, photo upload failed: %w", created.ID, err)
		}
	}
	return created, nil
}

// Browse is the unauthenticated discovery read, cached per page.
func (uc *ListingUsecase) Browse(ctx context.Context, page domain.Page) ([]domain.Car, error) {
	key := cache.Key{"cars", strconv.Itoa(page.Limit), strconv.Itoa(page.Offset)}
	v, err := uc.cache.Query(ctx, key, func(ctx context.Context) (any, error) {
		return uc.repo.ListAll(ctx, page)
	}, browseStaleTime)
	if err != nil {
		return nil, err
	}
	return v.([]domain.Car), nil
}

func (uc *ListingUsecase) GetByID(ctx context.Context, id string) (domain.Car, error) {
	if id == "" {
		return domain.Car{}, fmt.Errorf("%w: car id is empty", domain.ErrInvalidArgument)
	}
	v, err := uc.cache.Query(ctx, cache.Key{"carId", id}, func(ctx context.Context) (any, error) {
		return uc.repo.GetByID(ctx, id)
	}, carByIDStaleTime)
	if err != nil {
		return domain.Car{}, err
	}
	return v.(domain.Car), nil
}

func (uc *ListingUsecase) ListByOwner(ctx context.Context, ownerID string) ([]domain.Car, error) {
	if ownerID == "" {
		return nil, fmt.Errorf("%w: owner id is empty", domain.ErrInvalidArgument)
	}
	v, err := uc.cache.Query(ctx, cache.Key{"userCars", ownerID}, func(ctx context.Context) (any, error) {
		return uc.repo.ListByOwner(ctx, ownerID)
	}, userCarsStaleTime)
	if err != nil {
		return nil, err
	}
	return v.([]domain.Car), nil
}

func (uc *ListingUsecase) invalidateListings(ownerID string) {
	if uc.cache == nil {
		return
	}
	uc.cache.InvalidatePrefix(cache.Key{"cars"})
	uc.cache.InvalidatePrefix(cache.Key{"userCars", ownerID})
}

// announceCreated publishes the lifecycle event and mails the seller a
// confirmation. Both are best effort and never fail the create flow.
func (uc *ListingUsecase) announceCreated(ctx context.Context, created domain.Car, session *domain.Session) {
	if uc.events != nil {
		event := ListingCreatedEvent{
			EventID:   uuid.NewString(),
			CarID:     created.ID,
			UserID:    created.UserID,
			Brand:     created.Brand,
			Model:     created.Model,
			CreatedAt: time.Now().UTC(),
		}
		if err := uc.events.Publish(ctx, subjectListingCreated, event); err != nil {
			uc.logger.Warn("failed to publish listing created event",
				zap.String("car_id", created.ID), zap.Error(err))
		}
	}
	if uc.mailer != nil && session.Email != "" {
		title := created.Brand + " " + created.Model
		if err := uc.mailer.SendListingCreatedEmail(session.Email, title); err != nil {
			uc.logger.Warn("failed to send listing created email",
				zap.String("car_id", created.ID), zap.Error(err))
		}
	}
}
