package models

import "strings"

// Role gates which stores and pages a user may reach.
type Role string

const (
	RoleAdmin   Role = "admin"
	RoleManager Role = "manager"
)

// Store is one restaurant location and the partition key of its records.
type Store struct {
	ID     string `bson:"_id" json:"id"`
	Name   string `bson:"name" json:"name"`
	Email  string `bson:"email" json:"email"`
	Active bool   `bson:"active" json:"active"`
}

// User is an authenticated operator.
type User struct {
	ID           string   `bson:"_id" json:"id"`
	Email        string   `bson:"email" json:"email"`
	Name         string   `bson:"name" json:"name"`
	PasswordHash string   `bson:"passwordHash" json:"-"`
	Role         Role     `bson:"role" json:"role"`
	Stores       []string `bson:"stores" json:"stores"`
}

// NormalizeStoreID folds store ids so comparisons are case-insensitive.
func NormalizeStoreID(id string) string {
	return strings.ToLower(strings.TrimSpace(id))
}
