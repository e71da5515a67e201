package domain

import "strings"

// CustomerRef identifies the ordering customer within a tenant.
type CustomerRef struct {
	UserID string
	Name   string
	Phone  string
}

func NewCustomerRef(userID, name, phone string) (CustomerRef, error) {
	if strings.TrimSpace(name) == "" {
		return CustomerRef{}, invalidArgument("customer name is required")
	}
	if strings.TrimSpace(phone) == "" {
		return CustomerRef{}, invalidArgument("customer phone is required")
	}
	return CustomerRef{UserID: userID, Name: name, Phone: phone}, nil
}

// Address is the delivery destination with geo coordinates.
type Address struct {
	Street    string
	City      string
	State     string
	Zip       string
	Latitude  float64
	Longitude float64
}

func NewAddress(street, city, state, zip string, latitude, longitude float64) (Address, error) {
	if latitude < -90 || latitude > 90 {
		return Address{}, invalidArgument("latitude must be within [-90, 90], got %v", latitude)
	}
	if longitude < -180 || longitude > 180 {
		return Address{}, invalidArgument("longitude must be within [-180, 180], got %v", longitude)
	}
	return Address{
		Street:    street,
		City:      city,
		State:     state,
		Zip:       zip,
		Latitude:  latitude,
		Longitude: longitude,
	}, nil
}
