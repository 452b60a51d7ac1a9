package assistant

import (
	"context"
	"fmt"

	"github.com/pocketbase/pocketbase/core"
	pbtypes "github.com/pocketbase/pocketbase/tools/types"
)

// Mutator applies approved proposals to the trip's records.
type Mutator struct {
	records RecordStore
	tz      TimezoneResolver
}

// NewMutator returns a Mutator. tz may be nil, in which case place
// timezones are stored as given.
func NewMutator(records RecordStore, tz TimezoneResolver) *Mutator {
	return &Mutator{records: records, tz: tz}
}

// Apply performs the single create, update or delete described by input,
// scoped to tripID, and returns a confirmation for the traveler.
func (m *Mutator) Apply(ctx context.Context, tripID string, input ToolInput) (string, error) {
	switch in := input.(type) {
	case *CreateActivity:
		return m.createActivity(ctx, tripID, in)
	case *UpdateActivity:
		return m.updateActivity(ctx, tripID, in)
	case *DeleteActivity:
		return m.deleteRecord(ctx, tripID, CollectionActivities, in.RecordID, func(r *core.Record) string {
			return fmt.Sprintf("Removed activity \"%s\".", r.GetString("name"))
		})
	case *CreateLodging:
		return m.createLodging(ctx, tripID, in)
	case *UpdateLodging:
		return m.updateLodging(ctx, tripID, in)
	case *DeleteLodging:
		return m.deleteRecord(ctx, tripID, CollectionLodgings, in.RecordID, func(r *core.Record) string {
			return fmt.Sprintf("Removed lodging \"%s\".", r.GetString("name"))
		})
	case *CreateTransportation:
		return m.createTransportation(ctx, tripID, in)
	case *UpdateTransportation:
		return m.updateTransportation(ctx, tripID, in)
	case *DeleteTransportation:
		return m.deleteRecord(ctx, tripID, CollectionTransportations, in.RecordID, func(r *core.Record) string {
			return fmt.Sprintf("Removed %s from %s to %s.", r.GetString("type"), r.GetString("origin"), r.GetString("destination"))
		})
	default:
		return "", ErrUnknownTool
	}
}

func (m *Mutator) createActivity(ctx context.Context, tripID string, in *CreateActivity) (string, error) {
	record, err := m.newTripRecord(CollectionActivities, tripID)
	if err != nil {
		return "", err
	}

	record.Set("name", in.Name)
	record.Set("description", in.Description)
	record.Set("address", in.Address)
	record.Set("notes", in.Notes)
	setTime(record, "startDate", in.StartTime)
	setTime(record, "endDate", in.EndTime)
	if cost := in.cost(); cost != nil {
		record.Set("cost", cost)
	}
	if place := placeMetadata(in.Destination, m.tz); place != nil {
		record.Set("metadata", map[string]any{"place": place})
	}

	if err := m.records.Save(ctx, record); err != nil {
		return "", err
	}
	return fmt.Sprintf("Added activity \"%s\" on %s.", in.Name, in.StartTime), nil
}

func (m *Mutator) updateActivity(ctx context.Context, tripID string, in *UpdateActivity) (string, error) {
	record, err := findTripRecord(m.records, CollectionActivities, in.RecordID, tripID)
	if err != nil {
		return "", err
	}

	setIfPresent(record, "name", in.Name)
	setIfPresent(record, "description", in.Description)
	setIfPresent(record, "address", in.Address)
	setIfPresent(record, "notes", in.Notes)
	setTime(record, "startDate", in.StartTime)
	setTime(record, "endDate", in.EndTime)
	if place := placeMetadata(in.Destination, m.tz); place != nil {
		record.Set("metadata", map[string]any{"place": place})
	}
	applyCostUpdate(record, &in.CostFields)

	if err := m.records.Save(ctx, record); err != nil {
		return "", err
	}
	return fmt.Sprintf("Updated activity \"%s\".", record.GetString("name")), nil
}

func (m *Mutator) createLodging(ctx context.Context, tripID string, in *CreateLodging) (string, error) {
	record, err := m.newTripRecord(CollectionLodgings, tripID)
	if err != nil {
		return "", err
	}

	record.Set("name", in.Name)
	record.Set("type", in.Type)
	record.Set("address", in.Address)
	record.Set("confirmationCode", in.Confirmation)
	record.Set("notes", in.Notes)
	setTime(record, "startDate", in.StartTime)
	setTime(record, "endDate", in.EndTime)
	if cost := in.cost(); cost != nil {
		record.Set("cost", cost)
	}

	if err := m.records.Save(ctx, record); err != nil {
		return "", err
	}
	return fmt.Sprintf("Added lodging \"%s\" for %s to %s.", in.Name, in.StartTime, in.EndTime), nil
}

func (m *Mutator) updateLodging(ctx context.Context, tripID string, in *UpdateLodging) (string, error) {
	record, err := findTripRecord(m.records, CollectionLodgings, in.RecordID, tripID)
	if err != nil {
		return "", err
	}

	setIfPresent(record, "name", in.Name)
	setIfPresent(record, "type", in.Type)
	setIfPresent(record, "address", in.Address)
	setIfPresent(record, "confirmationCode", in.Confirmation)
	setIfPresent(record, "notes", in.Notes)
	setTime(record, "startDate", in.StartTime)
	setTime(record, "endDate", in.EndTime)
	applyCostUpdate(record, &in.CostFields)

	if err := m.records.Save(ctx, record); err != nil {
		return "", err
	}
	return fmt.Sprintf("Updated lodging \"%s\".", record.GetString("name")), nil
}

func (m *Mutator) createTransportation(ctx context.Context, tripID string, in *CreateTransportation) (string, error) {
	record, err := m.newTripRecord(CollectionTransportations, tripID)
	if err != nil {
		return "", err
	}

	record.Set("type", in.Type)
	record.Set("provider", in.Provider)
	record.Set("origin", in.Origin)
	record.Set("destination", in.Destination)
	record.Set("notes", in.Notes)
	setTime(record, "departureTime", in.DepartureTime)
	setTime(record, "arrivalTime", in.ArrivalTime)
	if cost := in.cost(); cost != nil {
		record.Set("cost", cost)
	}

	if err := m.records.Save(ctx, record); err != nil {
		return "", err
	}
	return fmt.Sprintf("Added %s from %s to %s departing %s.", in.Type, in.Origin, in.Destination, in.DepartureTime), nil
}

func (m *Mutator) updateTransportation(ctx context.Context, tripID string, in *UpdateTransportation) (string, error) {
	record, err := findTripRecord(m.records, CollectionTransportations, in.RecordID, tripID)
	if err != nil {
		return "", err
	}

	setIfPresent(record, "type", in.Type)
	setIfPresent(record, "provider", in.Provider)
	setIfPresent(record, "origin", in.Origin)
	setIfPresent(record, "destination", in.Destination)
	setIfPresent(record, "notes", in.Notes)
	setTime(record, "departureTime", in.DepartureTime)
	setTime(record, "arrivalTime", in.ArrivalTime)
	applyCostUpdate(record, &in.CostFields)

	if err := m.records.Save(ctx, record); err != nil {
		return "", err
	}
	return fmt.Sprintf("Updated %s on %s.", record.GetString("type"), formatDate(record.GetDateTime("departureTime"))), nil
}

func (m *Mutator) deleteRecord(ctx context.Context, tripID, collection, recordID string, label func(*core.Record) string) (string, error) {
	record, err := findTripRecord(m.records, collection, recordID, tripID)
	if err != nil {
		return "", err
	}

	message := label(record)
	if err := m.records.Delete(ctx, record); err != nil {
		return "", err
	}
	return message, nil
}

func (m *Mutator) newTripRecord(collection, tripID string) (*core.Record, error) {
	record, err := m.records.NewRecord(collection)
	if err != nil {
		return nil, err
	}
	record.Set("trip", tripID)
	return record, nil
}

func setIfPresent(record *core.Record, field, value string) {
	if value != "" {
		record.Set(field, value)
	}
}

// setTime stores a validated argument time; empty values leave the field
// untouched.
func setTime(record *core.Record, field, value string) {
	if value == "" {
		return
	}
	dt, err := pbtypes.ParseDateTime(value)
	if err != nil {
		return
	}
	record.Set(field, dt)
}

// applyCostUpdate replaces the cost when either half is supplied, clearing it
// when the pair no longer describes a positive amount.
func applyCostUpdate(record *core.Record, c *CostFields) {
	if !c.hasCost() {
		return
	}
	if cost := c.cost(); cost != nil {
		record.Set("cost", cost)
		return
	}
	record.Set("cost", nil)
}
