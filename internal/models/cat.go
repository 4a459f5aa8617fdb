package models

import "time"

type VetInfo struct {
	Name    string `json:"name"`
	Phone   string `json:"phone"`
	Address string `json:"address"`
}

type Cat struct {
	ID        string    `json:"id"`
	OwnerID   int64     `json:"owner_id"`
	Name      string    `json:"name"`
	Breed     string    `json:"breed"`
	Age       int       `json:"age"`
	WeightKg  float64   `json:"weight_kg"`
	Color     string    `json:"color"`
	Microchip string    `json:"microchip"`
	Vet       VetInfo   `json:"vet"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
