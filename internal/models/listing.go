package models

import "time"

const (
	ListingTypeSale = "sale"
	ListingTypeRent = "rent"
)

type Listing struct {
	ID              int       `json:"id"`
	Name            string    `json:"name"`
	Description     string    `json:"description"`
	Address         string    `json:"address"`
	RegularPrice    float64   `json:"regularPrice"`
	DiscountedPrice float64   `json:"discountedPrice"`
	Bathrooms       int       `json:"bathrooms"`
	Bedrooms        int       `json:"bedrooms"`
	Furnished       bool      `json:"furnished"`
	Parking         bool      `json:"parking"`
	Type            string    `json:"type"`
	Offer           bool      `json:"offer"`
	ImageURLs       []string  `json:"imageUrls"`
	UserRef         int       `json:"userRef"` // владелец, без обратной ссылки у User
	CreatedAt       time.Time `json:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt"`
}

type ListingInput struct {
	Name            string   `json:"name"`
	Description     string   `json:"description"`
	Address         string   `json:"address"`
	RegularPrice    float64  `json:"regularPrice"`
	DiscountedPrice float64  `json:"discountedPrice"`
	Bathrooms       int      `json:"bathrooms"`
	Bedrooms        int      `json:"bedrooms"`
	Furnished       bool     `json:"furnished"`
	Parking         bool     `json:"parking"`
	Type            string   `json:"type"`
	Offer           bool     `json:"offer"`
	ImageURLs       []string `json:"imageUrls"`
}

type ListingPage struct {
	Listings []Listing `json:"listings"`
	Total    int       `json:"total"`
	Page     int       `json:"page"`
	Limit    int       `json:"limit"`
}
