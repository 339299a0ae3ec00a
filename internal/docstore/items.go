package docstore

import (
	"context"
	"errors"
	"sort"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/mesh-intelligence/tripdeck/pkg/types"
)

// Items implements types.ItemStore on the items collection.
type Items struct {
	backend *Backend
}

var (
	_ types.ItemStore    = (*Items)(nil)
	_ types.BulkUpserter = (*Items)(nil)
)

// GetAll returns every item. Read failures wrap ErrStoreUnavailable.
func (s *Items) GetAll(ctx context.Context) ([]types.ItineraryItem, error) {
	coll, err := s.backend.collection(itemsCollection)
	if err != nil {
		return nil, types.Unavailable("get all items", err)
	}
	out, err := findItems(ctx, coll, bson.M{})
	if err != nil {
		return nil, types.Unavailable("get all items", err)
	}
	return out, nil
}

func findItems(ctx context.Context, coll *mongo.Collection, filter bson.M) ([]types.ItineraryItem, error) {
	opts := options.Find().SetSort(bson.D{{Key: "day", Value: 1}, {Key: "sortOrder", Value: 1}, {Key: "_id", Value: 1}})
	cur, err := coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	out := []types.ItineraryItem{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	for i := range out {
		out[i].Details = plainMap(out[i].Details)
	}
	return out, nil
}

// Upsert replaces the document with item's id, inserting it when absent.
func (s *Items) Upsert(ctx context.Context, item types.ItineraryItem) error {
	if item.ID == "" {
		return types.ErrInvalidID
	}
	if item.Day < 1 {
		return types.ErrInvalidDay
	}
	coll, err := s.backend.collection(itemsCollection)
	if err != nil {
		return types.WriteFailed("upsert item", err)
	}
	_, err = coll.ReplaceOne(ctx, bson.M{"_id": item.ID}, item, options.Replace().SetUpsert(true))
	if err != nil {
		return types.WriteFailed("upsert item", err)
	}
	return nil
}

// UpsertAll replaces or inserts every item with one ordered bulk write, in
// a transaction when the deployment supports one.
func (s *Items) UpsertAll(ctx context.Context, items []types.ItineraryItem) error {
	const op = "upsert items"
	models := make([]mongo.WriteModel, 0, len(items))
	for _, it := range items {
		if it.ID == "" {
			return types.ErrInvalidID
		}
		if it.Day < 1 {
			return types.ErrInvalidDay
		}
		models = append(models, mongo.NewReplaceOneModel().
			SetFilter(bson.M{"_id": it.ID}).
			SetReplacement(it).
			SetUpsert(true))
	}
	if len(models) == 0 {
		return nil
	}
	coll, err := s.backend.collection(itemsCollection)
	if err != nil {
		return types.WriteFailed(op, err)
	}
	write := func(ctx context.Context) error {
		_, err := coll.BulkWrite(ctx, models, options.BulkWrite().SetOrdered(true))
		return err
	}
	if err := s.withOptionalTransaction(ctx, write); err != nil {
		return types.WriteFailed(op, err)
	}
	return nil
}

// Delete removes the document. A missing id is not an error.
func (s *Items) Delete(ctx context.Context, id string) error {
	if id == "" {
		return types.ErrInvalidID
	}
	coll, err := s.backend.collection(itemsCollection)
	if err != nil {
		return types.WriteFailed("delete item", err)
	}
	if _, err := coll.DeleteOne(ctx, bson.M{"_id": id}); err != nil {
		return types.WriteFailed("delete item", err)
	}
	return nil
}

// BatchSetSortOrder renumbers day with one ordered bulk write. The read of
// the day and the write share a transaction when the server supports one.
func (s *Items) BatchSetSortOrder(ctx context.Context, day int, orderedIDs []string) error {
	const op = "batch set sort order"
	if day < 1 {
		return types.ErrInvalidDay
	}
	coll, err := s.backend.collection(itemsCollection)
	if err != nil {
		return types.WriteFailed(op, err)
	}

	renumber := func(ctx context.Context) error {
		current, err := findItems(ctx, coll, bson.M{"day": day})
		if err != nil {
			return err
		}
		models := orderModels(day, types.OrderChanges(current, types.MergeOrder(current, orderedIDs)))
		if len(models) == 0 {
			return nil
		}
		_, err = coll.BulkWrite(ctx, models, options.BulkWrite().SetOrdered(true))
		return err
	}

	if err := s.withOptionalTransaction(ctx, renumber); err != nil {
		return types.WriteFailed(op, err)
	}
	return nil
}

// withOptionalTransaction runs fn in a session transaction, or directly once
// the server has refused one.
func (s *Items) withOptionalTransaction(ctx context.Context, fn func(context.Context) error) error {
	if !s.backend.noTxn.Load() {
		err := s.inTransaction(ctx, fn)
		if err == nil || !transactionsUnsupported(err) {
			return err
		}
		s.backend.noTxn.Store(true)
		s.backend.log.Warn("mongo deployment has no transactions; multi-document writes run without one")
	}
	return fn(ctx)
}

func (s *Items) inTransaction(ctx context.Context, fn func(context.Context) error) error {
	sess, err := s.backend.session()
	if err != nil {
		return err
	}
	defer sess.EndSession(ctx)
	_, err = sess.WithTransaction(ctx, func(sc mongo.SessionContext) (any, error) {
		return nil, fn(sc)
	})
	return err
}

// orderModels builds one $set sortOrder update per changed id, in id order.
// The day is part of the filter so an item moved away in the meantime is
// left alone.
func orderModels(day int, changes map[string]int) []mongo.WriteModel {
	ids := make([]string, 0, len(changes))
	for id := range changes {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	models := make([]mongo.WriteModel, 0, len(ids))
	for _, id := range ids {
		models = append(models, mongo.NewUpdateOneModel().
			SetFilter(bson.M{"_id": id, "day": day}).
			SetUpdate(bson.M{"$set": bson.M{"sortOrder": changes[id]}}))
	}
	return models
}

// illegalOperation is the server code for a transaction on a standalone
// mongod.
const illegalOperation = 20

func transactionsUnsupported(err error) bool {
	var se mongo.ServerError
	return errors.As(err, &se) && se.HasErrorCode(illegalOperation)
}

// plainMap turns decoded BSON containers back into the map and slice types
// that JSON decoding produces.
func plainMap(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = plainValue(v)
	}
	return out
}

func plainValue(v any) any {
	switch x := v.(type) {
	case primitive.M:
		return plainMap(x)
	case map[string]any:
		return plainMap(x)
	case primitive.D:
		m := make(map[string]any, len(x))
		for _, e := range x {
			m[e.Key] = plainValue(e.Value)
		}
		return m
	case primitive.A:
		return plainSlice(x)
	case []any:
		return plainSlice(x)
	default:
		return v
	}
}

func plainSlice(x []any) []any {
	out := make([]any, len(x))
	for i := range x {
		out[i] = plainValue(x[i])
	}
	return out
}
