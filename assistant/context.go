package assistant

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/pocketbase/pocketbase/core"
	pbtypes "github.com/pocketbase/pocketbase/tools/types"
	"github.com/samber/lo"
)

// contextTimeLayout is wall-clock time at the location, without a zone.
const contextTimeLayout = "2006-01-02T15:04:05"

// TripContext is the read-only snapshot of a trip handed to the model.
// It is rebuilt for every request.
type TripContext struct {
	Trip            TripInfo              `json:"trip"`
	Notes           string                `json:"notes,omitempty"`
	Destinations    []Destination         `json:"destinations,omitempty"`
	Participants    []Participant         `json:"participants,omitempty"`
	Budget          *Cost                 `json:"budget,omitempty"`
	Transportations []TransportationEntry `json:"transportations,omitempty"`
	Lodgings        []LodgingEntry        `json:"lodgings,omitempty"`
	Activities      []ActivityEntry       `json:"activities,omitempty"`
	GeneratedAt     string                `json:"generatedAt"`
}

type TripInfo struct {
	Id          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	StartDate   string `json:"startDate"`
	EndDate     string `json:"endDate"`
}

type Destination struct {
	Name        string `json:"name"`
	Country     string `json:"country,omitempty"`
	State       string `json:"state,omitempty"`
	Timezone    string `json:"timezone,omitempty"`
	Latitude    string `json:"latitude,omitempty"`
	Longitude   string `json:"longitude,omitempty"`
	Category    string `json:"category,omitempty"`
	Description string `json:"description,omitempty"`
}

type Participant struct {
	Name  string `json:"name"`
	Email string `json:"email,omitempty"`
}

type Cost struct {
	Value    float64 `json:"value"`
	Currency string  `json:"currency"`
}

func (c Cost) IsZero() bool {
	return c.Value == 0 && c.Currency == ""
}

type TransportationEntry struct {
	Id          string         `json:"id"`
	Type        string         `json:"type"`
	Provider    string         `json:"provider,omitempty"`
	Origin      string         `json:"origin"`
	Destination string         `json:"destination"`
	Departure   string         `json:"departure"`
	Arrival     string         `json:"arrival,omitempty"`
	Cost        *Cost          `json:"cost,omitempty"`
	Metadata    map[string]any `json:"metadata,omitempty"`
	Notes       string         `json:"notes,omitempty"`
}

type LodgingEntry struct {
	Id            string         `json:"id"`
	Type          string         `json:"type"`
	Name          string         `json:"name"`
	Address       string         `json:"address,omitempty"`
	CheckIn       string         `json:"checkIn"`
	CheckOut      string         `json:"checkOut"`
	Confirmation  string         `json:"confirmation,omitempty"`
	Cost          *Cost          `json:"cost,omitempty"`
	Metadata      map[string]any `json:"metadata,omitempty"`
	ReservationBy string         `json:"reservationBy,omitempty"`
}

type ActivityEntry struct {
	Id          string         `json:"id"`
	Name        string         `json:"name"`
	Description string         `json:"description,omitempty"`
	Address     string         `json:"address,omitempty"`
	Start       string         `json:"start"`
	End         string         `json:"end,omitempty"`
	Cost        *Cost          `json:"cost,omitempty"`
	Metadata    map[string]any `json:"metadata,omitempty"`
}

type ContextBuilder struct {
	records RecordStore
	logger  *slog.Logger
	now     func() time.Time
}

func NewContextBuilder(records RecordStore, logger *slog.Logger) *ContextBuilder {
	return &ContextBuilder{records: records, logger: logger, now: time.Now}
}

// Build assembles the snapshot. Only failed collection queries are fatal;
// unreadable optional JSON fields are logged and left out.
func (b *ContextBuilder) Build(trip *core.Record) (*TripContext, error) {
	ctx := &TripContext{
		Trip: TripInfo{
			Id:          trip.Id,
			Name:        trip.GetString("name"),
			Description: trip.GetString("description"),
			StartDate:   formatDate(trip.GetDateTime("startDate")),
			EndDate:     formatDate(trip.GetDateTime("endDate")),
		},
		Notes:        trip.GetString("notes"),
		Destinations: b.parseDestinations(trip),
		Participants: b.parseParticipants(trip),
		Budget:       b.decodeCost(trip, "budget"),
		GeneratedAt:  b.now().UTC().Format(time.RFC3339),
	}

	if ctx.Notes == "" {
		ctx.Notes = ctx.Trip.Description
	}

	var err error
	if ctx.Transportations, err = b.collectTransportations(trip.Id); err != nil {
		return nil, err
	}
	if ctx.Lodgings, err = b.collectLodgings(trip.Id); err != nil {
		return nil, err
	}
	if ctx.Activities, err = b.collectActivities(trip.Id); err != nil {
		return nil, err
	}

	return ctx, nil
}

func (b *ContextBuilder) collectTransportations(tripID string) ([]TransportationEntry, error) {
	records, err := b.sortedTripRecords(CollectionTransportations, tripID, "departureTime")
	if err != nil {
		return nil, err
	}

	return lo.Map(records, func(record *core.Record, _ int) TransportationEntry {
		return TransportationEntry{
			Id:          record.Id,
			Type:        record.GetString("type"),
			Provider:    record.GetString("provider"),
			Origin:      record.GetString("origin"),
			Destination: record.GetString("destination"),
			Departure:   formatDate(record.GetDateTime("departureTime")),
			Arrival:     formatDate(record.GetDateTime("arrivalTime")),
			Cost:        b.decodeCost(record, "cost"),
			Metadata:    b.decodeMetadata(record),
			Notes:       record.GetString("notes"),
		}
	}), nil
}

func (b *ContextBuilder) collectLodgings(tripID string) ([]LodgingEntry, error) {
	records, err := b.sortedTripRecords(CollectionLodgings, tripID, "startDate")
	if err != nil {
		return nil, err
	}

	return lo.Map(records, func(record *core.Record, _ int) LodgingEntry {
		return LodgingEntry{
			Id:            record.Id,
			Type:          record.GetString("type"),
			Name:          record.GetString("name"),
			Address:       record.GetString("address"),
			CheckIn:       formatDate(record.GetDateTime("startDate")),
			CheckOut:      formatDate(record.GetDateTime("endDate")),
			Confirmation:  record.GetString("confirmationCode"),
			Cost:          b.decodeCost(record, "cost"),
			Metadata:      b.decodeMetadata(record),
			ReservationBy: record.GetString("reservationName"),
		}
	}), nil
}

func (b *ContextBuilder) collectActivities(tripID string) ([]ActivityEntry, error) {
	records, err := b.sortedTripRecords(CollectionActivities, tripID, "startDate")
	if err != nil {
		return nil, err
	}

	return lo.Map(records, func(record *core.Record, _ int) ActivityEntry {
		return ActivityEntry{
			Id:          record.Id,
			Name:        record.GetString("name"),
			Description: record.GetString("description"),
			Address:     record.GetString("address"),
			Start:       formatDate(record.GetDateTime("startDate")),
			End:         formatDate(record.GetDateTime("endDate")),
			Cost:        b.decodeCost(record, "cost"),
			Metadata:    b.decodeMetadata(record),
		}
	}), nil
}

func (b *ContextBuilder) sortedTripRecords(collection, tripID, timeField string) ([]*core.Record, error) {
	records, err := b.records.FindTripRecords(collection, tripID)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", collection, err)
	}

	slices.SortStableFunc(records, func(a, c *core.Record) int {
		return a.GetDateTime(timeField).Time().Compare(c.GetDateTime(timeField).Time())
	})
	return records, nil
}

func (b *ContextBuilder) decodeCost(record *core.Record, field string) *Cost {
	var cost Cost
	if !b.decodeOptional(record, field, &cost) || cost.IsZero() {
		return nil
	}
	return &cost
}

func (b *ContextBuilder) decodeMetadata(record *core.Record) map[string]any {
	var metadata map[string]any
	if !b.decodeOptional(record, "metadata", &metadata) || len(metadata) == 0 {
		return nil
	}
	return metadata
}

func (b *ContextBuilder) parseDestinations(trip *core.Record) []Destination {
	var raw []map[string]any
	if !b.decodeOptional(trip, "destinations", &raw) {
		return nil
	}

	return lo.Map(raw, func(d map[string]any, _ int) Destination {
		return Destination{
			Name:        stringValue(d["name"]),
			Country:     stringValue(d["countryName"]),
			State:       stringValue(d["stateName"]),
			Timezone:    stringValue(d["timezone"]),
			Latitude:    stringValue(d["latitude"]),
			Longitude:   stringValue(d["longitude"]),
			Category:    stringValue(d["category"]),
			Description: stringValue(d["description"]),
		}
	})
}

func (b *ContextBuilder) parseParticipants(trip *core.Record) []Participant {
	var raw []map[string]any
	if !b.decodeOptional(trip, "participants", &raw) {
		return nil
	}

	return lo.Map(raw, func(p map[string]any, _ int) Participant {
		return Participant{
			Name:  stringValue(p["name"]),
			Email: stringValue(p["email"]),
		}
	})
}

// decodeOptional reports false for empty fields and for fields that fail to
// decode; the latter are logged.
func (b *ContextBuilder) decodeOptional(record *core.Record, field string, dst any) bool {
	data := strings.TrimSpace(record.GetString(field))
	if data == "" || data == "null" {
		return false
	}

	if err := json.Unmarshal([]byte(data), dst); err != nil {
		b.logger.Warn("Unable to parse trip assistant field",
			"error", err,
			"field", field,
			"collection", record.Collection().Name,
			"recordId", record.Id,
		)
		return false
	}
	return true
}

func formatDate(dt pbtypes.DateTime) string {
	if dt.IsZero() {
		return ""
	}
	return dt.Time().Format(contextTimeLayout)
}

func stringValue(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	default:
		return fmt.Sprintf("%v", val)
	}
}
