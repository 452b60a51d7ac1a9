package assistant

import (
	"fmt"

	"tripassistant/llm"
)

// Tool names one of the nine mutations the model may propose.
type Tool string

const (
	ToolCreateActivity       Tool = "create_activity"
	ToolCreateLodging        Tool = "create_lodging"
	ToolCreateTransportation Tool = "create_transportation"

	ToolUpdateActivity       Tool = "update_activity"
	ToolUpdateLodging        Tool = "update_lodging"
	ToolUpdateTransportation Tool = "update_transportation"

	ToolDeleteActivity       Tool = "delete_activity"
	ToolDeleteLodging        Tool = "delete_lodging"
	ToolDeleteTransportation Tool = "delete_transportation"
)

var allTools = []Tool{
	ToolCreateActivity, ToolUpdateActivity, ToolDeleteActivity,
	ToolCreateLodging, ToolUpdateLodging, ToolDeleteLodging,
	ToolCreateTransportation, ToolUpdateTransportation, ToolDeleteTransportation,
}

func ParseTool(name string) (Tool, error) {
	for _, t := range allTools {
		if string(t) == name {
			return t, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownTool, name)
}

// Collection returns the record collection the tool mutates.
func (t Tool) Collection() string {
	switch t {
	case ToolCreateActivity, ToolUpdateActivity, ToolDeleteActivity:
		return CollectionActivities
	case ToolCreateLodging, ToolUpdateLodging, ToolDeleteLodging:
		return CollectionLodgings
	case ToolCreateTransportation, ToolUpdateTransportation, ToolDeleteTransportation:
		return CollectionTransportations
	}
	return ""
}

func str(description string) *llm.Schema {
	return &llm.Schema{Type: "string", Description: description}
}

func num(description string) *llm.Schema {
	return &llm.Schema{Type: "number", Description: description}
}

func object(required []string, props map[string]*llm.Schema) *llm.Schema {
	closed := false
	return &llm.Schema{Type: "object", Properties: props, Required: required, AdditionalProperties: &closed}
}

func placeSchema() *llm.Schema {
	return &llm.Schema{
		Type:        "object",
		Description: "Destination/place metadata (matches the Destination picker in the UI)",
		Properties: map[string]*llm.Schema{
			"name":      str(""),
			"country":   str(""),
			"state":     str(""),
			"latitude":  str(""),
			"longitude": str(""),
			"timezone":  str("IANA timezone name"),
			"category":  str(""),
			"place_id":  str(""),
		},
	}
}

func withCost(props map[string]*llm.Schema) map[string]*llm.Schema {
	props["cost_value"] = num("Estimated cost numeric value")
	props["cost_currency"] = str("Currency code for the cost (e.g., USD, EUR)")
	return props
}

func withRecordID(props map[string]*llm.Schema, what string) map[string]*llm.Schema {
	props["record_id"] = str(what + " ID from the trip context")
	return props
}

func activityProps() map[string]*llm.Schema {
	return withCost(map[string]*llm.Schema{
		"name":        str("Activity title"),
		"description": str("Optional notes or details"),
		"address":     str("Location or address"),
		"destination": placeSchema(),
		"start_time":  str("Start time in RFC3339 format (local time of the location)."),
		"end_time":    str("End time in RFC3339 format (local time)."),
		"notes":       str("Internal notes/reminders"),
	})
}

func lodgingProps() map[string]*llm.Schema {
	return withCost(map[string]*llm.Schema{
		"name":         str("Property name"),
		"type":         str("Lodging type (hotel, rental, etc.)"),
		"address":      str("Address or area"),
		"start_time":   str("Check-in time/date in RFC3339"),
		"end_time":     str("Check-out time/date in RFC3339"),
		"confirmation": str("Confirmation number or reservation code"),
		"notes":        str("Extra notes or reminders"),
	})
}

func transportationProps() map[string]*llm.Schema {
	return withCost(map[string]*llm.Schema{
		"type":           str("Transportation type, e.g., flight, train"),
		"provider":       str("Carrier or provider"),
		"origin":         str("Origin city or location"),
		"destination":    str("Destination city or location"),
		"departure_time": str("Departure time in RFC3339"),
		"arrival_time":   str("Arrival time in RFC3339"),
		"notes":          str("Extra notes (confirmation, seats, etc.)"),
	})
}

func deleteParams(what string) *llm.Schema {
	return object([]string{"record_id"}, map[string]*llm.Schema{
		"record_id": str(what + " ID from the trip context"),
		"reason":    str("Optional reason/reminder"),
	})
}

// Tools returns the declarations sent with every streaming request: web
// search plus one function per supported mutation.
func Tools() []llm.Tool {
	return []llm.Tool{
		llm.WebSearchTool(),
		llm.FunctionTool(string(ToolCreateActivity),
			"Propose creating a new activity or itinerary item for this trip. Infer missing details (location, end time, etc.) from the trip context when the user leaves gaps, and clearly mention any assumptions you make.",
			object([]string{"name", "address", "start_time"}, activityProps())),
		llm.FunctionTool(string(ToolUpdateActivity),
			"Update an existing activity. Always include the record_id shown in the trip context and provide only the fields that should change.",
			object([]string{"record_id"}, withRecordID(activityProps(), "Activity"))),
		llm.FunctionTool(string(ToolDeleteActivity),
			"Delete an existing activity by record_id when the traveler asks to remove it.",
			deleteParams("Activity")),
		llm.FunctionTool(string(ToolCreateLodging),
			"Propose adding a lodging or stay (hotel, rental, etc.) to this trip.",
			object([]string{"name", "start_time", "end_time"}, lodgingProps())),
		llm.FunctionTool(string(ToolUpdateLodging),
			"Update an existing lodging entry. Always include record_id.",
			object([]string{"record_id"}, withRecordID(lodgingProps(), "Lodging"))),
		llm.FunctionTool(string(ToolDeleteLodging),
			"Delete an existing lodging entry.",
			deleteParams("Lodging")),
		llm.FunctionTool(string(ToolCreateTransportation),
			"Propose a transportation segment (flight, train, transfer, etc.). Infer missing destination or arrival details from the context when the traveler is vague, and mention assumptions.",
			object([]string{"type", "origin", "departure_time"}, transportationProps())),
		llm.FunctionTool(string(ToolUpdateTransportation),
			"Update an existing transportation entry. Include the record_id and any fields that need to change.",
			object([]string{"record_id"}, withRecordID(transportationProps(), "Transportation"))),
		llm.FunctionTool(string(ToolDeleteTransportation),
			"Delete a transportation entry by record_id.",
			deleteParams("Transportation")),
	}
}
