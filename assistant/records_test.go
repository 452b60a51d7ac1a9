package assistant

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"log/slog"
	"testing"

	"github.com/pocketbase/pocketbase/core"
	"github.com/stretchr/testify/require"
)

// memoryRecords is an in-memory RecordStore over real collection schemas.
type memoryRecords struct {
	collections map[string]*core.Collection
	order       []string
	records     map[string]*core.Record

	findErr error
	saveErr error
	saves   int
	deletes int
	nextID  int
}

func newMemoryRecords() *memoryRecords {
	return &memoryRecords{
		collections: map[string]*core.Collection{
			CollectionTrips: newTestCollection(CollectionTrips,
				[]string{"name", "description", "notes"},
				[]string{"startDate", "endDate"},
				[]string{"destinations", "participants", "budget"}),
			CollectionActivities: newTestCollection(CollectionActivities,
				[]string{"trip", "name", "description", "address", "notes"},
				[]string{"startDate", "endDate"},
				[]string{"cost", "metadata"}),
			CollectionLodgings: newTestCollection(CollectionLodgings,
				[]string{"trip", "name", "type", "address", "confirmationCode", "reservationName", "notes"},
				[]string{"startDate", "endDate"},
				[]string{"cost", "metadata"}),
			CollectionTransportations: newTestCollection(CollectionTransportations,
				[]string{"trip", "type", "provider", "origin", "destination", "notes"},
				[]string{"departureTime", "arrivalTime"},
				[]string{"cost", "metadata"}),
		},
		records: map[string]*core.Record{},
	}
}

func newTestCollection(name string, text, dates, json []string) *core.Collection {
	c := core.NewBaseCollection(name)
	for _, f := range text {
		c.Fields.Add(&core.TextField{Name: f})
	}
	for _, f := range dates {
		c.Fields.Add(&core.DateField{Name: f})
	}
	for _, f := range json {
		c.Fields.Add(&core.JSONField{Name: f})
	}
	return c
}

func (m *memoryRecords) FindTripRecords(collection, tripID string) ([]*core.Record, error) {
	if m.findErr != nil {
		return nil, m.findErr
	}
	var out []*core.Record
	for _, id := range m.order {
		r, ok := m.records[id]
		if ok && r.Collection().Name == collection && r.GetString("trip") == tripID {
			out = append(out, r)
		}
	}
	return out, nil
}

func (m *memoryRecords) FindRecord(collection, id string) (*core.Record, error) {
	r, ok := m.records[id]
	if !ok || r.Collection().Name != collection {
		return nil, sql.ErrNoRows
	}
	return r, nil
}

func (m *memoryRecords) NewRecord(collection string) (*core.Record, error) {
	c, ok := m.collections[collection]
	if !ok {
		return nil, fmt.Errorf("missing collection %q", collection)
	}
	return core.NewRecord(c), nil
}

func (m *memoryRecords) Save(_ context.Context, record *core.Record) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	if record.Id == "" {
		m.nextID++
		record.Id = fmt.Sprintf("rec%03d", m.nextID)
	}
	if _, ok := m.records[record.Id]; !ok {
		m.order = append(m.order, record.Id)
	}
	m.records[record.Id] = record
	m.saves++
	return nil
}

func (m *memoryRecords) Delete(_ context.Context, record *core.Record) error {
	if _, ok := m.records[record.Id]; !ok {
		return sql.ErrNoRows
	}
	delete(m.records, record.Id)
	m.deletes++
	return nil
}

func (m *memoryRecords) count(collection string) int {
	n := 0
	for _, r := range m.records {
		if r.Collection().Name == collection {
			n++
		}
	}
	return n
}

// seed stores a record with the given id and field values.
func (m *memoryRecords) seed(t *testing.T, collection, id string, fields map[string]any) *core.Record {
	t.Helper()
	record, err := m.NewRecord(collection)
	require.NoError(t, err)
	record.Id = id
	for k, v := range fields {
		record.Set(k, v)
	}
	require.NoError(t, m.Save(context.Background(), record))
	return record
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestFindTripRecord(t *testing.T) {
	records := newMemoryRecords()
	records.seed(t, CollectionActivities, "act1", map[string]any{"trip": "trip1", "name": "Museum"})

	tests := []struct {
		name     string
		recordID string
		tripID   string
		wantErr  func(error) bool
	}{
		{name: "owned", recordID: "act1", tripID: "trip1"},
		{name: "missing id", recordID: "", tripID: "trip1", wantErr: IsValidation},
		{name: "unknown", recordID: "nope", tripID: "trip1", wantErr: func(err error) bool { return err != nil }},
		{name: "other trip", recordID: "act1", tripID: "trip2", wantErr: func(err error) bool { return err == ErrForeignRecord }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			record, err := findTripRecord(records, CollectionActivities, tt.recordID, tt.tripID)
			if tt.wantErr != nil {
				require.Error(t, err)
				require.True(t, tt.wantErr(err), "unexpected error %v", err)
				return
			}
			require.NoError(t, err)
			require.Equal(t, "Museum", record.GetString("name"))
		})
	}
}
