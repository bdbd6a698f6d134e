package models

import "time"

// Package is a named resource/pricing tier. Servers copy the resource
// values at creation time, so editing a package never affects servers
// already created from it.
type Package struct {
	ID          string
	Name        string
	Description string

	Ram  int64
	Disk int64
	Cpu  int64

	Databases int
	Backups   int

	PricePerHour  int64
	PricePerDay   int64
	PricePerMonth int64

	IsActive bool

	CreatedAt time.Time
	UpdatedAt time.Time
}
