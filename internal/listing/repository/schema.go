package repository

import (
	"time"

	"github.com/carhive/marketplace/internal/listing/domain"
)

const (
	TableCar       = "car"
	TableFavorites = "favorites"
)

// carToRow maps a listing onto the car table schema. Unset optional
// attributes are omitted so the store keeps them NULL instead of storing
// zero values.
func carToRow(car domain.Car) domain.Row {
	row := domain.Row{
		"brand": car.Brand,
		"model": car.Model,
	}
	if car.UserID != "" {
		row["user_id"] = car.UserID
	}
	if car.Year != 0 {
		row["year"] = car.Year
	}
	if car.Price != 0 {
		row["price"] = car.Price
	}
	if car.Mileage != 0 {
		row["mileage"] = car.Mileage
	}
	if car.Fuel != "" {
		row["fuel"] = string(car.Fuel)
	}
	if car.Transmission != "" {
		row["transmission"] = string(car.Transmission)
	}
	if car.Color != "" {
		row["color"] = car.Color
	}
	if car.Location != "" {
		row["location"] = car.Location
	}
	if car.Description != "" {
		row["description"] = car.Description
	}
	if car.VIN != "" {
		row["vin"] = car.VIN
	}
	if car.Status != "" {
		row["status"] = string(car.Status)
	}
	return row
}

func rowToCar(row domain.Row) domain.Car {
	return domain.Car{
		ID:           asString(row["id"]),
		UserID:       asString(row["user_id"]),
		Brand:        asString(row["brand"]),
		Model:        asString(row["model"]),
		Year:         asInt(row["year"]),
		Price:        asFloat(row["price"]),
		Mileage:      asInt(row["mileage"]),
		Fuel:         domain.FuelType(asString(row["fuel"])),
		Transmission: domain.Transmission(asString(row["transmission"])),
		Color:        asString(row["color"]),
		Location:     asString(row["location"]),
		Description:  asString(row["description"]),
		VIN:          asString(row["vin"]),
		Status:       domain.CarStatus(asString(row["status"])),
		CreatedAt:    asTime(row["created_at"]),
	}
}

func rowToFavorite(row domain.Row) domain.Favorite {
	return domain.Favorite{
		ID:        asString(row["id"]),
		UserID:    asString(row["user_id"]),
		CarID:     asString(row["car_id"]),
		CreatedAt: asTime(row["created_at"]),
	}
}

// The store hands numeric columns back with driver-dependent width, so the
// converters below accept every width the mongo driver produces.

func asString(v any) string {
	s, _ := v.(string)
	return s
}

func asFloat(v any) float64 {
	switch n := v.(type) {
	case float64:
		return n
	case float32:
		return float64(n)
	case int:
		return float64(n)
	case int32:
		return float64(n)
	case int64:
		return float64(n)
	}
	return 0
}

func asInt(v any) int {
	switch n := v.(type) {
	case int:
		return n
	case int32:
		return int(n)
	case int64:
		return int(n)
	case float64:
		return int(n)
	}
	return 0
}

func asTime(v any) time.Time {
	t, _ := v.(time.Time)
	return t
}
