package api

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
)

// LooseString tolerates backends that send a field as either a JSON
// string or a number (route status and some IDs do both).
type LooseString string

func (s *LooseString) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || string(data) == "null" {
		*s = ""
		return nil
	}
	if data[0] == '"' {
		var str string
		if err := json.Unmarshal(data, &str); err != nil {
			return err
		}
		*s = LooseString(str)
		return nil
	}
	*s = LooseString(data)
	return nil
}

// LooseFloat tolerates numbers sent as JSON strings ("-25.43") or null.
type LooseFloat float64

func (f *LooseFloat) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || string(data) == "null" {
		*f = 0
		return nil
	}
	text := string(data)
	if data[0] == '"' {
		if err := json.Unmarshal(data, &text); err != nil {
			return err
		}
		if strings.TrimSpace(text) == "" {
			*f = 0
			return nil
		}
	}
	parsed, err := strconv.ParseFloat(text, 64)
	if err != nil {
		return err
	}
	*f = LooseFloat(parsed)
	return nil
}

type User struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Email     string `json:"email"`
	Role      string `json:"role,omitempty"`
	IsActive  bool   `json:"isActive,omitempty"`
	CreatedAt string `json:"createdAt,omitempty"`
}

// CreateUserInput is the sign-up payload. RegisterNumber carries the
// CPF digits; enterprise linking happens later through a manager.
type CreateUserInput struct {
	Username       string `json:"username"`
	Name           string `json:"name"`
	RegisterNumber string `json:"registerNumber"`
	Password       string `json:"password"`
	Email          string `json:"email"`
}

type UpdateUserInput struct {
	Name  string `json:"name,omitempty"`
	Email string `json:"email,omitempty"`
}

type ManagerUser struct {
	ID        LooseString `json:"id"`
	Name      string      `json:"name"`
	Email     string      `json:"email,omitempty"`
	Role      string      `json:"role,omitempty"`
	IsActive  bool        `json:"isActive,omitempty"`
	CreatedAt string      `json:"createdAt,omitempty"`
}

type Enterprise struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	Email          string `json:"email,omitempty"`
	Phone          string `json:"phone,omitempty"`
	RegisterNumber string `json:"registerNumber,omitempty"`
	IsActive       bool   `json:"isActive,omitempty"`
	CreatedAt      string `json:"createdAt,omitempty"`
}

type EnterpriseInput struct {
	ID             string `json:"id,omitempty"`
	Name           string `json:"name"`
	RegisterNumber string `json:"registerNumber,omitempty"`
}

type Vehicle struct {
	ID                   string     `json:"id"`
	Model                string     `json:"model"`
	Motor                string     `json:"motor"`
	EstimatedConsumption LooseFloat `json:"estimatedConsumption"`
	Year                 int        `json:"year"`
	IsActive             bool       `json:"isActive"`
}

// VehicleInput creates or (with ID set) updates a vehicle.
type VehicleInput struct {
	ID                   string  `json:"id,omitempty"`
	Model                string  `json:"model"`
	Motor                string  `json:"motor"`
	EstimatedConsumption float64 `json:"estimatedConsumption"`
	Year                 int     `json:"year"`
}

// RoutePoint is one entry of the route submission payload.
type RoutePoint struct {
	Latitude       float64 `json:"latitude"`
	Longitude      float64 `json:"longitude"`
	Address        string  `json:"address"`
	IsInitialPoint bool    `json:"isInitialPoint"`
}

// CreateRoutePayload is the shape POSTed to /RoutePoint/process-route-points.
type CreateRoutePayload struct {
	RouteName   string       `json:"routeName"`
	RoutePoints []RoutePoint `json:"routePoints"`
}

type ActiveRoute struct {
	ID        string      `json:"id"`
	RouteName string      `json:"routeName"`
	CreatedAt string      `json:"createdAt"`
	Status    LooseString `json:"status"`
}

type RoutePointDetail struct {
	ID             string     `json:"id"`
	Address        string     `json:"address"`
	Position       int        `json:"position"`
	Distance       LooseFloat `json:"distance"`
	Latitude       LooseFloat `json:"latitude"`
	Longitude      LooseFloat `json:"longitude"`
	IsInitialPoint bool       `json:"isInitialPoint"`
	CreatedAt      string     `json:"createdAt,omitempty"`
}

type RouteDetail struct {
	ID                   string             `json:"id"`
	RouteName            string             `json:"routeName"`
	CreatedAt            string             `json:"createdAt"`
	Status               LooseString        `json:"status"`
	RouteLink            string             `json:"routeLink,omitempty"`
	RoutePoints          []RoutePointDetail `json:"routePoints"`
	EstimatedConsumption LooseFloat         `json:"estimatedConsumption"`
	VehicleModel         string             `json:"vehicleModel"`
}
