package domain

import "time"

type FuelType string

const (
	FuelPetrol   FuelType = "petrol"
	FuelDiesel   FuelType = "diesel"
	FuelElectric FuelType = "electric"
	FuelHybrid   FuelType = "hybrid"
	FuelOther    FuelType = "other"
)

type Transmission string

const (
	TransmissionManual        Transmission = "manual"
	TransmissionAutomatic     Transmission = "automatic"
	TransmissionCVT           Transmission = "cvt"
	TransmissionSemiAutomatic Transmission = "semi-automatic"
)

type CarStatus string

const (
	StatusAvailable   CarStatus = "available"
	StatusReserved    CarStatus = "reserved"
	StatusSold        CarStatus = "sold"
	StatusMaintenance CarStatus = "maintenance"
	StatusInactive    CarStatus = "inactive"
)

// Car is one vehicle-for-sale listing. ID and CreatedAt are assigned by the
// store on insert; UserID is stamped from the authenticated session and is
// immutable afterward. Optional attributes are zero-valued when unset.
type Car struct {
	ID           string
	UserID       string
	Brand        string
	Model        string
	Year         int
	Price        float64
	Mileage      int
	Fuel         FuelType
	Transmission Transmission
	Color        string
	Location     string
	Description  string
	VIN          string
	Status       CarStatus
	CreatedAt    time.Time
}

// Favorite links a user to a listing. At most one row exists per
// (UserID, CarID) pair; the store's unique index enforces it.
type Favorite struct {
	ID        string
	UserID    string
	CarID     string
	CreatedAt time.Time
}

// ImageRef points at one stored listing photo. Signed URLs are valid for a
// bounded window and must never be persisted.
type ImageRef struct {
	Name   string
	Path   string
	URL    string
	Signed bool
}

type UploadResult struct {
	Path string
}

// Session identifies the authenticated account.
type Session struct {
	UserID string
	Email  string
}

// Page bounds a browse query. A zero Limit means the default page size.
type Page struct {
	Limit  int
	Offset int
}
