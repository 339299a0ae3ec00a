package docstore

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/mesh-intelligence/tripdeck/pkg/types"
)

// The checklist is a single document in the pre_trip_data collection.
const (
	checklistCollection = "pre_trip_data"
	checklistDocID      = "lists"
)

type checklistDoc struct {
	ID      string                 `bson:"_id"`
	Todo    []types.ChecklistEntry `bson:"todo"`
	Packing []types.ChecklistEntry `bson:"packing"`
}

// Checklist implements types.ChecklistStore on the pre_trip_data collection.
type Checklist struct {
	backend *Backend
}

var _ types.ChecklistStore = (*Checklist)(nil)

// Load reads the lists document. Returns ErrNotFound when it does not exist.
func (s *Checklist) Load(ctx context.Context) (types.Checklist, error) {
	coll, err := s.backend.collection(checklistCollection)
	if err != nil {
		return types.Checklist{}, types.Unavailable("load checklist", err)
	}
	var doc checklistDoc
	err = coll.FindOne(ctx, bson.M{"_id": checklistDocID}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return types.Checklist{}, types.ErrNotFound
	}
	if err != nil {
		return types.Checklist{}, types.Unavailable("load checklist", err)
	}
	return types.Checklist{Todo: doc.Todo, Packing: doc.Packing}.Clone(), nil
}

// Save replaces the lists document, creating it when absent.
func (s *Checklist) Save(ctx context.Context, c types.Checklist) error {
	if err := c.Validate(); err != nil {
		return err
	}
	coll, err := s.backend.collection(checklistCollection)
	if err != nil {
		return types.WriteFailed("save checklist", err)
	}
	c = c.Clone()
	doc := checklistDoc{ID: checklistDocID, Todo: c.Todo, Packing: c.Packing}
	_, err = coll.ReplaceOne(ctx, bson.M{"_id": checklistDocID}, doc, options.Replace().SetUpsert(true))
	if err != nil {
		return types.WriteFailed("save checklist", err)
	}
	return nil
}
