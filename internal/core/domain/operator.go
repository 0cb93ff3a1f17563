package domain

import "errors"

const (
	// RoleOperator may drive the whole pipeline: acquisition, reset, mock provider.
	RoleOperator = "operator"
	// RoleDevice may only push position readings.
	RoleDevice = "device"
)

var ErrInvalidCredentials = errors.New("invalid credentials")
var ErrOperatorNotFound = errors.New("operator not found")

// Operator is an account allowed to log in to the HTTP API.
type Operator struct {
	Username     string `json:"username"`
	PasswordHash string `json:"-"`
	Role         string `json:"role"`
}
