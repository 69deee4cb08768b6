package driver

import (
	"errors"
	"strings"
)

var ErrInvalidCredentials = errors.New("invalid username or password")

// mockPassword is shared by every demo driver account.
const mockPassword = "driver123"

type AssignedRoute struct {
	ID   string `json:"id"`
	From string `json:"from"`
	To   string `json:"to"`
}

type Driver struct {
	ID        string        `json:"id"`
	Username  string        `json:"username"`
	Name      string        `json:"name"`
	BusNumber string        `json:"busNumber"`
	Route     AssignedRoute `json:"route"`
}

// MockDrivers are the demo accounts.
var MockDrivers = []Driver{
	{
		ID:        "driver1",
		Username:  "john_driver",
		Name:      "John Smith",
		BusNumber: "101",
		Route:     AssignedRoute{ID: "BUS001", From: "Central Station", To: "Airport Hub"},
	},
	{
		ID:        "driver2",
		Username:  "sarah_bus",
		Name:      "Sarah Johnson",
		BusNumber: "205",
		Route:     AssignedRoute{ID: "BUS002", From: "Downtown Terminal", To: "University Campus"},
	},
	{
		ID:        "driver3",
		Username:  "mike_transit",
		Name:      "Mike Wilson",
		BusNumber: "150",
		Route:     AssignedRoute{ID: "BUS003", From: "Business District", To: "Shopping Mall"},
	},
}

// Authenticate checks a demo account. This is not a security boundary.
func Authenticate(username, password string) (Driver, error) {
	if password != mockPassword {
		return Driver{}, ErrInvalidCredentials
	}
	username = strings.TrimSpace(username)
	for _, d := range MockDrivers {
		if d.Username == username {
			return d, nil
		}
	}
	return Driver{}, ErrInvalidCredentials
}
