package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Parcel — a registered agricultural area with its boundary and crop card.
// GeoJSON always holds a closed single-ring GeoJSON Polygon; closure is
// enforced at ingestion, not left to the caller. Metadata changes only by
// replacing the whole parcel.
type Parcel struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	CropType     string             `bson:"cropType"      json:"cropType"`
	PlantingDate string             `bson:"plantingDate"  json:"plantingDate"`
	HarvestDate  string             `bson:"harvestDate"   json:"harvestDate"`
	GeoJSON      string             `bson:"geoJson"       json:"geoJson"`
	CreatedAt    time.Time          `bson:"createdAt"     json:"createdAt"`
}
