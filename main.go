package main

import (
	"encoding/json"
	"log"

	"github.com/pocketbase/pocketbase"
	"github.com/pocketbase/pocketbase/core"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	"tripassistant/assistant"
	"tripassistant/config"
	"tripassistant/routes"
)

func main() {
	app := pocketbase.New()
	cfg := config.Load()

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	app.RootCmd.AddCommand(newToolsCommand())

	app.OnServe().BindFunc(func(se *core.ServeEvent) error {
		routes.NewAssistant(se.App, cfg, reg).Register(se.Router)
		routes.RegisterMetrics(se.Router, reg)
		return se.Next()
	})

	if err := app.Start(); err != nil {
		log.Fatal(err)
	}
}

// newToolsCommand prints the tool declarations sent with every streamed turn.
func newToolsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "assistant-tools",
		Short: "Print the trip assistant tool declarations as JSON",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(assistant.Tools())
		},
	}
}
