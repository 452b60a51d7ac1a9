package assistant

import (
	"context"
	"fmt"

	"github.com/pocketbase/dbx"
	"github.com/pocketbase/pocketbase/core"
)

const (
	CollectionTrips           = "trips"
	CollectionActivities      = "activities"
	CollectionLodgings        = "lodgings"
	CollectionTransportations = "transportations"
)

// RecordStore is the part of the PocketBase app the assistant reads from and
// writes to. Each call is an independent store operation.
type RecordStore interface {
	FindTripRecords(collection, tripID string) ([]*core.Record, error)
	FindRecord(collection, id string) (*core.Record, error)
	NewRecord(collection string) (*core.Record, error)
	Save(ctx context.Context, record *core.Record) error
	Delete(ctx context.Context, record *core.Record) error
}

type AppRecords struct {
	app core.App
}

func NewAppRecords(app core.App) *AppRecords {
	return &AppRecords{app: app}
}

func (r *AppRecords) FindTripRecords(collection, tripID string) ([]*core.Record, error) {
	return r.app.FindAllRecords(collection, dbx.NewExp("trip = {:tripId}", dbx.Params{"tripId": tripID}))
}

func (r *AppRecords) FindRecord(collection, id string) (*core.Record, error) {
	return r.app.FindRecordById(collection, id)
}

func (r *AppRecords) NewRecord(collection string) (*core.Record, error) {
	c, err := r.app.FindCollectionByNameOrId(collection)
	if err != nil {
		return nil, err
	}
	return core.NewRecord(c), nil
}

func (r *AppRecords) Save(ctx context.Context, record *core.Record) error {
	return r.app.SaveWithContext(ctx, record)
}

func (r *AppRecords) Delete(ctx context.Context, record *core.Record) error {
	return r.app.DeleteWithContext(ctx, record)
}

// findTripRecord loads a record and checks that it hangs off tripID.
func findTripRecord(store RecordStore, collection, recordID, tripID string) (*core.Record, error) {
	if recordID == "" {
		return nil, newValidationError("record_id", "missing record id")
	}
	record, err := store.FindRecord(collection, recordID)
	if err != nil {
		return nil, fmt.Errorf("find %s %q: %w", collection, recordID, err)
	}
	if record.GetString("trip") != tripID {
		return nil, ErrForeignRecord
	}
	return record, nil
}
