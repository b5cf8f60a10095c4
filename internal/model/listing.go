package model

import "time"

type ListingLocation struct {
	Neighborhood string `firestore:"neighborhood" json:"neighborhood"`
	City         string `firestore:"city" json:"city"`
	State        string `firestore:"state" json:"state"`
	ZipCode      string `firestore:"zipCode" json:"zipCode"`
}

type ListingOwner struct {
	UID   string `firestore:"uid" json:"uid"`
	Email string `firestore:"email" json:"email"`
}

// Listing is a service offer in the services collection.
// PricingType is one of "free", "exchange", "fee".
type Listing struct {
	ID             string          `firestore:"-" json:"id"`
	Title          string          `firestore:"title" json:"title"`
	Category       string          `firestore:"category" json:"category"`
	Description    string          `firestore:"description" json:"description"`
	PricingType    string          `firestore:"pricingType" json:"pricingType"`
	PricingDetails string          `firestore:"pricingDetails" json:"pricingDetails"`
	Location       ListingLocation `firestore:"location" json:"location"`
	Availability   string          `firestore:"availability" json:"availability"`
	Images         []string        `firestore:"images" json:"images"`
	Terms          bool            `firestore:"terms" json:"terms"`
	CreatedBy      ListingOwner    `firestore:"createdBy" json:"createdBy"`
	CreatedAt      time.Time       `firestore:"createdAt,serverTimestamp" json:"createdAt"`
}

func (Listing) Collection() string {
	return "services"
}
