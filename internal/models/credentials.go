package models

// Credentials are forwarded to the device API and never stored.
type Credentials struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}
