package assistant

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	pbtypes "github.com/pocketbase/pocketbase/tools/types"
	"golang.org/x/text/currency"
)

// ToolInput is the decoded, validated argument set of one tool call. The
// concrete type identifies the tool.
type ToolInput interface {
	Tool() Tool
	Validate() error
	Summary() string
}

// DecodeToolInput decodes raw call arguments into the typed input of tool.
// Unknown tools and unknown argument keys are rejected.
func DecodeToolInput(tool Tool, raw []byte) (ToolInput, error) {
	var input ToolInput
	switch tool {
	case ToolCreateActivity:
		input = &CreateActivity{}
	case ToolUpdateActivity:
		input = &UpdateActivity{}
	case ToolDeleteActivity:
		input = &DeleteActivity{}
	case ToolCreateLodging:
		input = &CreateLodging{}
	case ToolUpdateLodging:
		input = &UpdateLodging{}
	case ToolDeleteLodging:
		input = &DeleteLodging{}
	case ToolCreateTransportation:
		input = &CreateTransportation{}
	case ToolUpdateTransportation:
		input = &UpdateTransportation{}
	case ToolDeleteTransportation:
		input = &DeleteTransportation{}
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownTool, tool)
	}

	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()
	if err := dec.Decode(input); err != nil {
		return nil, newValidationError("", "invalid %s arguments: %v", tool, err)
	}
	if err := input.Validate(); err != nil {
		return nil, err
	}
	return input, nil
}

// looseString accepts JSON strings, numbers and booleans; models are not
// consistent about quoting coordinates.
type looseString string

func (s *looseString) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*s = ""
		return nil
	}
	var str string
	if err := json.Unmarshal(data, &str); err == nil {
		*s = looseString(str)
		return nil
	}
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	switch v.(type) {
	case float64, bool:
		*s = looseString(strings.TrimSpace(string(data)))
		return nil
	}
	return fmt.Errorf("expected a string, got %s", data)
}

// looseNumber accepts JSON numbers and numeric strings.
type looseNumber float64

func (n *looseNumber) UnmarshalJSON(data []byte) error {
	var f float64
	if err := json.Unmarshal(data, &f); err == nil {
		*n = looseNumber(f)
		return nil
	}
	var str string
	if err := json.Unmarshal(data, &str); err != nil {
		return fmt.Errorf("expected a number, got %s", data)
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(str), 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return fmt.Errorf("expected a number, got %q", str)
	}
	*n = looseNumber(f)
	return nil
}

type Place struct {
	Name      string      `json:"name,omitempty"`
	Country   string      `json:"country,omitempty"`
	State     string      `json:"state,omitempty"`
	Latitude  looseString `json:"latitude,omitempty"`
	Longitude looseString `json:"longitude,omitempty"`
	Timezone  string      `json:"timezone,omitempty"`
	Category  string      `json:"category,omitempty"`
	PlaceID   string      `json:"place_id,omitempty"`
}

// CostFields carries the optional cost pair shared by create and update tools.
type CostFields struct {
	CostValue    *looseNumber `json:"cost_value,omitempty"`
	CostCurrency *string      `json:"cost_currency,omitempty"`
}

func (c *CostFields) hasCost() bool {
	return c.CostValue != nil || c.CostCurrency != nil
}

// cost returns the stored representation, or nil when the pair does not
// describe a positive amount in a known currency.
func (c *CostFields) cost() *Cost {
	if c.CostValue == nil || c.CostCurrency == nil {
		return nil
	}
	if *c.CostValue <= 0 || *c.CostCurrency == "" {
		return nil
	}
	return &Cost{Value: float64(*c.CostValue), Currency: *c.CostCurrency}
}

func (c *CostFields) validate() error {
	if c.CostCurrency == nil || *c.CostCurrency == "" {
		return nil
	}
	unit, err := currency.ParseISO(strings.ToUpper(strings.TrimSpace(*c.CostCurrency)))
	if err != nil {
		return newValidationError("cost_currency", "unknown currency %q", *c.CostCurrency)
	}
	normalized := unit.String()
	c.CostCurrency = &normalized
	return nil
}

type ActivityFields struct {
	Name        string `json:"name,omitempty"`
	Description string `json:"description,omitempty"`
	Address     string `json:"address,omitempty"`
	Destination *Place `json:"destination,omitempty"`
	StartTime   string `json:"start_time,omitempty"`
	EndTime     string `json:"end_time,omitempty"`
	Notes       string `json:"notes,omitempty"`
	CostFields
}

func (f *ActivityFields) validate() error {
	if err := validateRange("start_time", f.StartTime, "end_time", f.EndTime); err != nil {
		return err
	}
	return f.CostFields.validate()
}

type LodgingFields struct {
	Name         string `json:"name,omitempty"`
	Type         string `json:"type,omitempty"`
	Address      string `json:"address,omitempty"`
	StartTime    string `json:"start_time,omitempty"`
	EndTime      string `json:"end_time,omitempty"`
	Confirmation string `json:"confirmation,omitempty"`
	Notes        string `json:"notes,omitempty"`
	CostFields
}

func (f *LodgingFields) validate() error {
	if err := validateRange("start_time", f.StartTime, "end_time", f.EndTime); err != nil {
		return err
	}
	return f.CostFields.validate()
}

type TransportationFields struct {
	Type          string `json:"type,omitempty"`
	Provider      string `json:"provider,omitempty"`
	Origin        string `json:"origin,omitempty"`
	Destination   string `json:"destination,omitempty"`
	DepartureTime string `json:"departure_time,omitempty"`
	ArrivalTime   string `json:"arrival_time,omitempty"`
	Notes         string `json:"notes,omitempty"`
	CostFields
}

func (f *TransportationFields) validate() error {
	if err := validateRange("departure_time", f.DepartureTime, "arrival_time", f.ArrivalTime); err != nil {
		return err
	}
	return f.CostFields.validate()
}

type DeleteFields struct {
	RecordID string `json:"record_id"`
	Reason   string `json:"reason,omitempty"`
}

func (f *DeleteFields) validate() error {
	return requireField("record_id", f.RecordID)
}

type CreateActivity struct {
	ActivityFields
}

func (*CreateActivity) Tool() Tool { return ToolCreateActivity }

func (a *CreateActivity) Validate() error {
	if err := requireAll("name", a.Name, "start_time", a.StartTime); err != nil {
		return err
	}
	return a.ActivityFields.validate()
}

func (a *CreateActivity) Summary() string {
	return fmt.Sprintf("I'll add an activity \"%s\" starting %s.", a.Name, a.StartTime)
}

type UpdateActivity struct {
	RecordID string `json:"record_id"`
	ActivityFields
}

func (*UpdateActivity) Tool() Tool { return ToolUpdateActivity }

func (a *UpdateActivity) Validate() error {
	if err := requireField("record_id", a.RecordID); err != nil {
		return err
	}
	return a.ActivityFields.validate()
}

func (a *UpdateActivity) Summary() string {
	return fmt.Sprintf("I'll update activity %s.", a.RecordID)
}

type DeleteActivity struct {
	DeleteFields
}

func (*DeleteActivity) Tool() Tool        { return ToolDeleteActivity }
func (a *DeleteActivity) Validate() error { return a.validate() }
func (a *DeleteActivity) Summary() string {
	return fmt.Sprintf("I'll delete activity %s.", a.RecordID)
}

type CreateLodging struct {
	LodgingFields
}

func (*CreateLodging) Tool() Tool { return ToolCreateLodging }

func (l *CreateLodging) Validate() error {
	if err := requireAll("name", l.Name, "start_time", l.StartTime, "end_time", l.EndTime); err != nil {
		return err
	}
	return l.LodgingFields.validate()
}

func (l *CreateLodging) Summary() string {
	return fmt.Sprintf("I'll add lodging \"%s\" from %s to %s.", l.Name, l.StartTime, l.EndTime)
}

type UpdateLodging struct {
	RecordID string `json:"record_id"`
	LodgingFields
}

func (*UpdateLodging) Tool() Tool { return ToolUpdateLodging }

func (l *UpdateLodging) Validate() error {
	if err := requireField("record_id", l.RecordID); err != nil {
		return err
	}
	return l.LodgingFields.validate()
}

func (l *UpdateLodging) Summary() string {
	return fmt.Sprintf("I'll update lodging %s.", l.RecordID)
}

type DeleteLodging struct {
	DeleteFields
}

func (*DeleteLodging) Tool() Tool        { return ToolDeleteLodging }
func (l *DeleteLodging) Validate() error { return l.validate() }
func (l *DeleteLodging) Summary() string {
	return fmt.Sprintf("I'll delete lodging %s.", l.RecordID)
}

type CreateTransportation struct {
	TransportationFields
}

func (*CreateTransportation) Tool() Tool { return ToolCreateTransportation }

func (t *CreateTransportation) Validate() error {
	if err := requireAll("type", t.Type, "origin", t.Origin, "departure_time", t.DepartureTime); err != nil {
		return err
	}
	return t.TransportationFields.validate()
}

func (t *CreateTransportation) Summary() string {
	return fmt.Sprintf("I'll add %s from %s to %s departing %s.", t.Type, t.Origin, t.Destination, t.DepartureTime)
}

type UpdateTransportation struct {
	RecordID string `json:"record_id"`
	TransportationFields
}

func (*UpdateTransportation) Tool() Tool { return ToolUpdateTransportation }

func (t *UpdateTransportation) Validate() error {
	if err := requireField("record_id", t.RecordID); err != nil {
		return err
	}
	return t.TransportationFields.validate()
}

func (t *UpdateTransportation) Summary() string {
	return fmt.Sprintf("I'll update transportation %s.", t.RecordID)
}

type DeleteTransportation struct {
	DeleteFields
}

func (*DeleteTransportation) Tool() Tool        { return ToolDeleteTransportation }
func (t *DeleteTransportation) Validate() error { return t.validate() }
func (t *DeleteTransportation) Summary() string {
	return fmt.Sprintf("I'll delete transportation %s.", t.RecordID)
}

func requireField(field, value string) error {
	if strings.TrimSpace(value) == "" {
		return newValidationError(field, "is required")
	}
	return nil
}

// requireAll takes alternating field/value pairs.
func requireAll(pairs ...string) error {
	for i := 0; i+1 < len(pairs); i += 2 {
		if err := requireField(pairs[i], pairs[i+1]); err != nil {
			return err
		}
	}
	return nil
}

func parseTime(field, value string) (pbtypes.DateTime, error) {
	dt, err := pbtypes.ParseDateTime(value)
	if err != nil || dt.IsZero() {
		return pbtypes.DateTime{}, newValidationError(field, "invalid time %q", value)
	}
	return dt, nil
}

// validateRange checks both bounds that are present and that end does not
// precede start.
func validateRange(startField, start, endField, end string) error {
	var startAt, endAt pbtypes.DateTime
	var err error
	if start != "" {
		if startAt, err = parseTime(startField, start); err != nil {
			return err
		}
	}
	if end != "" {
		if endAt, err = parseTime(endField, end); err != nil {
			return err
		}
	}
	if !startAt.IsZero() && !endAt.IsZero() && endAt.Time().Before(startAt.Time()) {
		return newValidationError(endField, "must not be before %s", startField)
	}
	return nil
}
