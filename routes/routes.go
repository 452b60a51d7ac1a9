package routes

import (
	"log/slog"
	"net/http"

	"github.com/pocketbase/pocketbase/apis"
	"github.com/pocketbase/pocketbase/core"
	"github.com/pocketbase/pocketbase/tools/router"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"tripassistant/assistant"
	"tripassistant/config"
	"tripassistant/llm"
)

// NewAssistant wires the assistant against the app's record store. The
// provider is left unset when no API key is configured, which makes every
// assistant endpoint answer 503.
func NewAssistant(app core.App, cfg *config.Config, reg prometheus.Registerer) *Assistant {
	logger := app.Logger()

	var provider Provider
	if cfg.AssistantEnabled() {
		provider = llm.NewClient(cfg.OpenAIAPIKey,
			llm.WithBaseURL(cfg.OpenAIBaseURL),
			llm.WithCompleteTimeout(cfg.RequestTimeout),
		)
	} else {
		logger.Warn("Trip assistant disabled", "error", assistant.ErrNotConfigured)
	}

	tz, err := assistant.NewTimezoneResolver()
	if err != nil {
		logger.Warn("Timezone lookup unavailable", "error", err)
	}

	store := assistant.NewProposalStore()
	metrics := assistant.NewMetrics(reg, store)
	return newAssistant(cfg, provider, assistant.NewAppRecords(app), store, tz, metrics, logger)
}

func newAssistant(
	cfg *config.Config,
	provider Provider,
	records assistant.RecordStore,
	store *assistant.ProposalStore,
	tz assistant.TimezoneResolver,
	metrics *assistant.Metrics,
	logger *slog.Logger,
) *Assistant {
	return &Assistant{
		cfg:      cfg,
		provider: provider,
		contexts: assistant.NewContextBuilder(records, logger),
		store:    store,
		relay:    assistant.NewRelay(store, logger, assistant.WithRelayMetrics(metrics)),
		decider:  assistant.NewDecider(store, assistant.NewMutator(records, tz), logger, metrics),
	}
}

// Register mounts the assistant endpoints under a trip.
func (a *Assistant) Register(r *router.Router[*core.RequestEvent]) {
	g := r.Group("/api/trips/{tripId}/assistant")
	g.Bind(apis.RequireAuth())
	g.BindFunc(LoadTrip)

	g.POST("/chat", a.TripAssistant)
	g.POST("/stream", a.TripAssistantStream)
	g.POST("/proposals/{proposalId}", a.ProposalDecision)
	g.GET("/itinerary.ics", a.TripCalendar)
}

// RegisterMetrics exposes gatherer for superusers.
func RegisterMetrics(r *router.Router[*core.RequestEvent], gatherer prometheus.Gatherer) {
	r.GET("/api/assistant/metrics", apis.WrapStdHandler(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))).
		Bind(apis.RequireSuperuserAuth())
}

// LoadTrip resolves {tripId}, checks the caller may view it and stores it
// under "trip" for the handlers.
func LoadTrip(e *core.RequestEvent) error {
	trip, err := e.App.FindRecordById(assistant.CollectionTrips, e.Request.PathValue("tripId"))
	if err != nil {
		return e.JSON(http.StatusNotFound, map[string]string{"error": "trip not found"})
	}

	info, err := e.RequestInfo()
	if err != nil {
		return e.JSON(http.StatusBadRequest, map[string]string{"error": "unable to read request info"})
	}

	canAccess, err := e.App.CanAccessRecord(trip, info, trip.Collection().ViewRule)
	if err != nil || !canAccess {
		return e.JSON(http.StatusForbidden, map[string]string{"error": "you are not allowed to access this trip"})
	}

	e.Set("trip", trip)
	return e.Next()
}
