package model

import "time"

type Direction struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Course    int       `json:"course"`
	CreatedAt time.Time `json:"created_at"`
}
