package assistant

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeToolInput(t *testing.T) {
	tests := []struct {
		name    string
		tool    Tool
		raw     string
		wantErr bool
		check   func(t *testing.T, in ToolInput)
	}{
		{
			name: "create activity",
			tool: ToolCreateActivity,
			raw:  `{"name":"Le Petit","start_time":"2024-06-02T19:00:00","address":""}`,
			check: func(t *testing.T, in ToolInput) {
				a := in.(*CreateActivity)
				assert.Equal(t, "Le Petit", a.Name)
				assert.Equal(t, `I'll add an activity "Le Petit" starting 2024-06-02T19:00:00.`, a.Summary())
			},
		},
		{
			name: "create activity with place and cost",
			tool: ToolCreateActivity,
			raw: `{"name":"Louvre","start_time":"2024-06-02T09:00:00Z","end_time":"2024-06-02T12:00:00Z",
				"cost_value":"22","cost_currency":"eur",
				"destination":{"name":"Louvre","latitude":48.86,"longitude":"2.33"}}`,
			check: func(t *testing.T, in ToolInput) {
				a := in.(*CreateActivity)
				require.NotNil(t, a.cost())
				assert.Equal(t, Cost{Value: 22, Currency: "EUR"}, *a.cost())
				assert.Equal(t, looseString("48.86"), a.Destination.Latitude)
				assert.Equal(t, looseString("2.33"), a.Destination.Longitude)
			},
		},
		{
			name:    "create activity missing name",
			tool:    ToolCreateActivity,
			raw:     `{"start_time":"2024-06-02T19:00:00"}`,
			wantErr: true,
		},
		{
			name:    "end before start",
			tool:    ToolCreateLodging,
			raw:     `{"name":"Hotel","start_time":"2024-06-05T15:00:00Z","end_time":"2024-06-01T11:00:00Z"}`,
			wantErr: true,
		},
		{
			name:    "unparseable time",
			tool:    ToolCreateTransportation,
			raw:     `{"type":"train","origin":"Paris","departure_time":"next tuesday"}`,
			wantErr: true,
		},
		{
			name:    "unknown argument",
			tool:    ToolDeleteLodging,
			raw:     `{"record_id":"lod1","force":true}`,
			wantErr: true,
		},
		{
			name:    "unknown currency",
			tool:    ToolUpdateActivity,
			raw:     `{"record_id":"act1","cost_value":5,"cost_currency":"ZZQ"}`,
			wantErr: true,
		},
		{
			name:    "NaN cost",
			tool:    ToolCreateActivity,
			raw:     `{"name":"Louvre","start_time":"2024-06-02T09:00:00Z","cost_value":"NaN","cost_currency":"EUR"}`,
			wantErr: true,
		},
		{
			name:    "infinite cost",
			tool:    ToolUpdateLodging,
			raw:     `{"record_id":"lod1","cost_value":"Inf","cost_currency":"EUR"}`,
			wantErr: true,
		},
		{
			name:    "update without record id",
			tool:    ToolUpdateTransportation,
			raw:     `{"notes":"window seat"}`,
			wantErr: true,
		},
		{
			name: "update transportation",
			tool: ToolUpdateTransportation,
			raw:  `{"record_id":"tr1","notes":"window seat"}`,
			check: func(t *testing.T, in ToolInput) {
				assert.Equal(t, "I'll update transportation tr1.", in.Summary())
			},
		},
		{
			name: "delete activity",
			tool: ToolDeleteActivity,
			raw:  `{"record_id":"act1","reason":"rain"}`,
			check: func(t *testing.T, in ToolInput) {
				assert.Equal(t, ToolDeleteActivity, in.Tool())
				assert.Equal(t, "I'll delete activity act1.", in.Summary())
			},
		},
		{
			name: "create transportation",
			tool: ToolCreateTransportation,
			raw:  `{"type":"flight","origin":"NYC","destination":"CDG","departure_time":"2024-06-01T06:00:00Z"}`,
			check: func(t *testing.T, in ToolInput) {
				assert.Equal(t, "I'll add flight from NYC to CDG departing 2024-06-01T06:00:00Z.", in.Summary())
			},
		},
		{
			name:    "not json",
			tool:    ToolCreateLodging,
			raw:     `{"name":`,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in, err := DecodeToolInput(tt.tool, []byte(tt.raw))
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, IsValidation(err), "expected validation error, got %v", err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.tool, in.Tool())
			if tt.check != nil {
				tt.check(t, in)
			}
		})
	}
}

func TestDecodeToolInputUnknownTool(t *testing.T) {
	_, err := DecodeToolInput(Tool("rename_trip"), []byte(`{}`))
	assert.True(t, errors.Is(err, ErrUnknownTool))
}

func TestCostFieldsCost(t *testing.T) {
	value := looseNumber(0)
	currency := "USD"
	c := CostFields{CostValue: &value, CostCurrency: &currency}
	assert.True(t, c.hasCost())
	assert.Nil(t, c.cost())

	assert.False(t, (&CostFields{}).hasCost())
}
