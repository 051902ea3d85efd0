package response_models

import "github.com/google/uuid"

type TourStats struct {
	Difficulty string  `json:"difficulty"`
	NumTours   int64   `json:"numTours"`
	NumRatings int64   `json:"numRatings"`
	AvgRating  float64 `json:"avgRating"`
	AvgPrice   float64 `json:"avgPrice"`
	MinPrice   float64 `json:"minPrice"`
	MaxPrice   float64 `json:"maxPrice"`
}

type MonthlyPlan struct {
	Month         int      `json:"month"`
	NumTourStarts int      `json:"numTourStarts"`
	Tours         []string `json:"tours"`
}

type TourDistance struct {
	ID       uuid.UUID `json:"id"`
	Name     string    `json:"name"`
	Distance float64   `json:"distance"`
}

type CheckoutSessionResponse struct {
	SessionID  string `json:"sessionId"`
	SessionURL string `json:"sessionUrl"`
}
