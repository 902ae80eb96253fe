// Package registry owns the set of accepted parcels and enforces the
// non-overlap invariant on insert: no two stored parcels' rings may
// share area or boundary.
package registry

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/paulmach/orb"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"agrideal/geo"
	"agrideal/models"
)

// ErrNotFound is returned by Get for an unknown parcel id.
var ErrNotFound = errors.New("parcel not found")

// OverlapError reports a spatial conflict with an already accepted
// parcel, distinct from a malformed-geometry failure.
type OverlapError struct {
	ConflictID string
}

func (e *OverlapError) Error() string {
	return fmt.Sprintf("polygon overlaps existing parcel %s", e.ConflictID)
}

// Metadata carries the descriptive crop card supplied with a polygon.
type Metadata struct {
	CropType     string
	PlantingDate string
	HarvestDate  string
}

type entry struct {
	parcel models.Parcel
	ring   orb.Ring
}

// Registry keeps every accepted parcel in memory for the pairwise
// overlap check and mirrors inserts into Mongo when a collection is
// configured. Insert is the only mutator; a single mutex makes
// check-then-commit atomic with respect to concurrent inserts, so two
// overlapping candidates can never both slip in.
type Registry struct {
	mu      sync.Mutex
	col     *mongo.Collection // nil keeps the registry memory-only
	entries []entry
}

func New(col *mongo.Collection) *Registry {
	return &Registry{col: col}
}

// Load restores previously accepted parcels in insertion order.
func (r *Registry) Load(ctx context.Context) error {
	if r.col == nil {
		return nil
	}
	cur, err := r.col.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}}))
	if err != nil {
		return err
	}
	defer cur.Close(ctx)

	var stored []models.Parcel
	if err := cur.All(ctx, &stored); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = r.entries[:0]
	for _, p := range stored {
		ring, err := geo.ParsePolygon([]byte(p.GeoJSON))
		if err != nil {
			return fmt.Errorf("stored parcel %s: %w", p.ID.Hex(), err)
		}
		r.entries = append(r.entries, entry{parcel: p, ring: ring})
	}
	return nil
}

// Insert validates the polygon, tests it against every accepted parcel
// and commits it. On any error the whole insert is rejected and registry
// state is unchanged. The stored geoJson is the normalized closed form.
func (r *Registry) Insert(ctx context.Context, geoJSON string, meta Metadata) (models.Parcel, error) {
	ring, err := geo.ParsePolygon([]byte(geoJSON))
	if err != nil {
		return models.Parcel{}, err
	}
	normalized, err := geo.MarshalPolygon(ring)
	if err != nil {
		return models.Parcel{}, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	for _, e := range r.entries {
		if geo.Overlaps(ring, e.ring) {
			return models.Parcel{}, &OverlapError{ConflictID: e.parcel.ID.Hex()}
		}
	}

	p := models.Parcel{
		ID:           primitive.NewObjectID(),
		CropType:     meta.CropType,
		PlantingDate: meta.PlantingDate,
		HarvestDate:  meta.HarvestDate,
		GeoJSON:      string(normalized),
		CreatedAt:    time.Now().UTC(),
	}
	if r.col != nil {
		ictx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		if _, err := r.col.InsertOne(ictx, &p); err != nil {
			return models.Parcel{}, err
		}
	}
	r.entries = append(r.entries, entry{parcel: p, ring: ring})
	return p, nil
}

// Get returns a parcel by its hex id.
func (r *Registry) Get(id string) (models.Parcel, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, e := range r.entries {
		if e.parcel.ID.Hex() == id {
			return e.parcel, nil
		}
	}
	return models.Parcel{}, ErrNotFound
}

// List returns all parcels in insertion order.
func (r *Registry) List() []models.Parcel {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]models.Parcel, len(r.entries))
	for i, e := range r.entries {
		out[i] = e.parcel
	}
	return out
}
