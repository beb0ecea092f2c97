package main

import (
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	relay "github.com/goliatone/go-delivery-relay"
	gocommandadapter "github.com/goliatone/go-delivery-relay/adapters/gocommand"
	"github.com/goliatone/go-delivery-relay/auth"
	relaycommand "github.com/goliatone/go-delivery-relay/command"
	"github.com/goliatone/go-delivery-relay/core"
	relayquery "github.com/goliatone/go-delivery-relay/query"
	sqlstore "github.com/goliatone/go-delivery-relay/store/sql"
	"github.com/goliatone/go-delivery-relay/webhooks"
)

func loadConfig(cmd *cobra.Command) (relay.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	return relay.LoadConfig(cmd.Context(), path)
}

func openRelay(cmd *cobra.Command) (*relay.Relay, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	return relay.New(cmd.Context(), cfg)
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP relay and webhook receiver",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			app, err := openRelay(cmd)
			if err != nil {
				return err
			}
			defer app.Close()
			return app.Run(ctx)
		},
	}
}

func signCmd() *cobra.Command {
	var (
		method string
		path   string
		body   string
		at     int64
	)
	cmd := &cobra.Command{
		Use:   "sign",
		Short: "Print the Authorization header for a provider request",
		Long: `Print the Authorization header the relay would send for a request.

Examples:
  relay sign --method GET --path /v3/orders/123
  relay sign --method POST --path /v3/quotations --body '{"data":{}}'`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			if strings.TrimSpace(cfg.Provider.APIKey) == "" || strings.TrimSpace(cfg.Provider.Secret) == "" {
				return fmt.Errorf("provider api_key and secret are required")
			}
			when := time.Now()
			if at > 0 {
				when = time.UnixMilli(at)
			}
			header := auth.Sign(method, path, []byte(body), cfg.Provider.Secret, cfg.Provider.APIKey, when)
			_, err = fmt.Fprintln(cmd.OutOrStdout(), header)
			return err
		},
	}
	cmd.Flags().StringVar(&method, "method", "GET", "HTTP method")
	cmd.Flags().StringVar(&path, "path", "", "request path, e.g. /v3/quotations")
	cmd.Flags().StringVar(&body, "body", "", "exact request body")
	cmd.Flags().Int64Var(&at, "timestamp", 0, "unix milliseconds to sign at (defaults to now)")
	_ = cmd.MarkFlagRequired("path")
	return cmd
}

func schemaCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "schema",
		Short: "Apply database migrations",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			client, err := sqlstore.Open(cfg.Database)
			if err != nil {
				return err
			}
			defer client.Close()
			if err := sqlstore.Migrate(cmd.Context(), client, cfg.Database.Driver); err != nil {
				return err
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "migrations applied (%s)\n", cfg.Database.Driver)
			return err
		},
	}
}

func reconcileCmd() *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "reconcile",
		Short: "Apply a stored webhook payload to delivery state",
		RunE: func(cmd *cobra.Command, _ []string) error {
			body, err := os.ReadFile(file)
			if err != nil {
				return err
			}
			_, event, err := webhooks.DecodeEnvelope(body)
			if err != nil {
				return err
			}
			app, err := openRelay(cmd)
			if err != nil {
				return err
			}
			defer app.Close()

			outcome, _, err := gocommandadapter.Execute[relaycommand.ReconcileDeliveryMessage, core.ReconcileOutcome](
				cmd.Context(),
				app.Facade().Commands().ReconcileDelivery,
				relaycommand.ReconcileDeliveryMessage{Event: event},
			)
			if err != nil {
				return err
			}
			return writeJSON(cmd, outcome)
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", "webhook JSON payload")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}

func statusCmd() *cobra.Command {
	var orderID, driverID string
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Fetch order or driver status from the provider",
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := openRelay(cmd)
			if err != nil {
				return err
			}
			defer app.Close()

			queries := app.Facade().Queries()
			var res core.TransportResponse
			if strings.TrimSpace(driverID) != "" {
				res, err = queries.DriverStatus.Query(cmd.Context(), relayquery.DriverStatusMessage{OrderID: orderID, DriverID: driverID})
			} else {
				res, err = queries.OrderStatus.Query(cmd.Context(), relayquery.OrderStatusMessage{OrderID: orderID})
			}
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "provider status %d\n", res.StatusCode)
			_, err = cmd.OutOrStdout().Write(append(res.Body, '\n'))
			return err
		},
	}
	cmd.Flags().StringVar(&orderID, "order-id", "", "provider order id")
	cmd.Flags().StringVar(&driverID, "driver-id", "", "driver id for driver status")
	_ = cmd.MarkFlagRequired("order-id")
	return cmd
}

func writeJSON(cmd *cobra.Command, value any) error {
	encoder := json.NewEncoder(cmd.OutOrStdout())
	encoder.SetIndent("", "  ")
	return encoder.Encode(value)
}
