package domain

import (
	"fmt"
	"regexp"
	"time"
)

// VINs are exactly 17 characters, uppercase alphanumeric with I, O and Q
// excluded.
var vinPattern = regexp.MustCompile(`^[A-HJ-NPR-Z0-9]{17}$`)

const minYear = 1900

var validFuels = map[FuelType]bool{
	FuelPetrol: true, FuelDiesel: true, FuelElectric: true, FuelHybrid: true, FuelOther: true,
}

var validTransmissions = map[Transmission]bool{
	TransmissionManual: true, TransmissionAutomatic: true, TransmissionCVT: true, TransmissionSemiAutomatic: true,
}

var validStatuses = map[CarStatus]bool{
	StatusAvailable: true, StatusReserved: true, StatusSold: true, StatusMaintenance: true, StatusInactive: true,
}

// ValidateCar checks every field of a listing before it is submitted to
// the store and returns a message per failing field, keyed by field name.
// A nil result means the listing is valid. Optional fields are only
// checked when set.
func ValidateCar(car Car) map[string]string {
	errs := make(map[string]string)

	if car.Brand == "" {
		errs["brand"] = "brand is required"
	}
	if car.Model == "" {
		errs["model"] = "model is required"
	}
	if car.Year != 0 {
		if current := time.Now().Year(); car.Year < minYear || car.Year > current {
			errs["year"] = fmt.Sprintf("year must be between %d and %d", minYear, current)
		}
	}
	if car.Price < 0 {
		errs["price"] = "price must not be negative"
	}
	if car.Mileage < 0 {
		errs["mileage"] = "mileage must not be negative"
	}
	if car.Fuel != "" && !validFuels[car.Fuel] {
		errs["fuel"] = "unknown fuel type"
	}
	if car.Transmission != "" && !validTransmissions[car.Transmission] {
		errs["transmission"] = "unknown transmission"
	}
	if car.Status != "" && !validStatuses[car.Status] {
		errs["status"] = "unknown status"
	}
	if car.VIN != "" && !vinPattern.MatchString(car.VIN) {
		errs["vin"] = "VIN must be 17 characters, letters I, O and Q are not allowed"
	}

	if len(errs) == 0 {
		return nil
	}
	return errs
}

// ValidateCarField checks a single field by name; it is a projection of
// ValidateCar, so the two can never disagree. An empty result means the
// field is valid.
func ValidateCarField(car Car, field string) string {
	return ValidateCar(car)[field]
}
