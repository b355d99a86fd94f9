package model

import "time"

// RoomRating is one star rating of a room. RaterID is a user ID for
// authenticated raters and a guest participant ID otherwise.
type RoomRating struct {
	ID              string    `json:"id" bson:"_id"`
	RoomID          string    `json:"roomId" bson:"roomId"`
	RaterID         string    `json:"raterId" bson:"raterId"`
	UserName        string    `json:"userName" bson:"userName"`
	Rating          int       `json:"rating" bson:"rating"`
	IsAuthenticated bool      `json:"isAuthenticated" bson:"isAuthenticated"`
	CreatedAt       time.Time `json:"createdAt" bson:"createdAt"`
}

// RatingSummary is the response of GetRatings
type RatingSummary struct {
	Ratings       []RoomRating `json:"ratings"`
	AverageRating float64      `json:"averageRating"`
	TotalRatings  int          `json:"totalRatings"`
	Distribution  map[int]int  `json:"distribution"` // stars 1-5 -> count
}
