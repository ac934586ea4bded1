package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/matt-steen/project-board/pkg/api"
	"github.com/matt-steen/project-board/pkg/db"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

const shutdownTimeout = 10 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the board API over HTTP",
	Long: `Serve the projects and clients in store.path over HTTP.

Boards on other machines reach it by setting store.url. Requests under /api
need the key in store.api_key when one is set. Metrics are served on /metrics.`,
	RunE: runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	database, err := db.NewDatabase(ctx, cfg.Store.Path)
	if err != nil {
		return err
	}
	defer database.Close()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	e := api.New(database, cfg.Store.APIKey, reg)
	e.HideBanner = true

	errCh := make(chan error, 1)

	go func() {
		log.Info().Str("addr", cfg.Server.Addr).Msg("serving board api")
		fmt.Fprintf(cmd.OutOrStdout(), "serving on %s\n", cfg.Server.Addr)

		errCh <- e.Start(cfg.Server.Addr)
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("error serving api: %w", err)
		}

		return nil
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := e.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("error shutting down api: %w", err)
	}

	return nil
}

var clientCmd = &cobra.Command{
	Use:   "client",
	Short: "Manage clients",
}

var clientAddCmd = &cobra.Command{
	Use:   "add NAME",
	Short: "Add a client",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		flags := cmd.Flags()

		client := db.Client{Name: args[0]}
		client.Company, _ = flags.GetString("company")
		client.Email, _ = flags.GetString("email")
		client.Phone, _ = flags.GetString("phone")

		store, closeStore, err := openStore(cmd.Context())
		if err != nil {
			return err
		}
		defer closeStore()

		client, err = store.CreateClient(cmd.Context(), client)
		if err != nil {
			return err
		}

		fmt.Fprintln(cmd.OutOrStdout(), client.ID)

		return nil
	},
}

var projectCmd = &cobra.Command{
	Use:   "project",
	Short: "Manage projects",
}

var projectAddCmd = &cobra.Command{
	Use:   "add NAME",
	Short: "Add a project to the first column",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		flags := cmd.Flags()

		project := db.Project{Name: args[0]}
		project.Description, _ = flags.GetString("description")
		project.ClientID, _ = flags.GetString("client")
		project.Value, _ = flags.GetFloat64("value")

		payment, _ := flags.GetString("payment")

		paymentStatus, err := db.ParsePaymentStatus(payment)
		if err != nil {
			return err
		}

		project.PaymentStatus = paymentStatus

		store, closeStore, err := openStore(cmd.Context())
		if err != nil {
			return err
		}
		defer closeStore()

		project, err = store.CreateProject(cmd.Context(), project)
		if err != nil {
			return err
		}

		fmt.Fprintln(cmd.OutOrStdout(), project.ID)

		return nil
	},
}

var clientEditCmd = &cobra.Command{
	Use:   "edit ID",
	Short: "Change the details of a client",
	Long:  `Change the details of a client. Only the flags that are given are changed.`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, closeStore, err := openStore(cmd.Context())
		if err != nil {
			return err
		}
		defer closeStore()

		client, err := store.GetClient(cmd.Context(), args[0])
		if err != nil {
			return err
		}

		flags := cmd.Flags()

		for name, field := range map[string]*string{
			"name":    &client.Name,
			"company": &client.Company,
			"email":   &client.Email,
			"phone":   &client.Phone,
		} {
			if flags.Changed(name) {
				*field, _ = flags.GetString(name)
			}
		}

		client, err = store.UpdateClient(cmd.Context(), client)
		if err != nil {
			return err
		}

		fmt.Fprintf(cmd.OutOrStdout(), "updated client '%s'\n", client.Name)

		return nil
	},
}

var projectEditCmd = &cobra.Command{
	Use:   "edit ID",
	Short: "Change a project",
	Long: `Change a project. Only the flags that are given are changed.

Use --paid with a partial amount and --payment to record a partial payment.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		patch, err := projectPatchFromFlags(cmd)
		if err != nil {
			return err
		}

		if patch.Empty() {
			return errors.New("nothing to change")
		}

		store, closeStore, err := openStore(cmd.Context())
		if err != nil {
			return err
		}
		defer closeStore()

		project, err := store.UpdateProject(cmd.Context(), args[0], patch)
		if err != nil {
			return err
		}

		fmt.Fprintf(cmd.OutOrStdout(), "updated '%s': %s, %s %.2f/%.2f\n",
			project.Name, project.Status, project.PaymentStatus, project.PaidValue, project.Value)

		return nil
	},
}

func projectPatchFromFlags(cmd *cobra.Command) (db.ProjectPatch, error) {
	var patch db.ProjectPatch

	flags := cmd.Flags()

	stringFlag := func(name string) *string {
		if !flags.Changed(name) {
			return nil
		}

		value, _ := flags.GetString(name)

		return &value
	}

	floatFlag := func(name string) *float64 {
		if !flags.Changed(name) {
			return nil
		}

		value, _ := flags.GetFloat64(name)

		return &value
	}

	patch.Name = stringFlag("name")
	patch.Description = stringFlag("description")
	patch.ClientID = stringFlag("client")
	patch.Value = floatFlag("value")
	patch.PaidValue = floatFlag("paid")

	if payment := stringFlag("payment"); payment != nil {
		paymentStatus, err := db.ParsePaymentStatus(*payment)
		if err != nil {
			return db.ProjectPatch{}, err
		}

		patch.PaymentStatus = &paymentStatus
	}

	if status := stringFlag("status"); status != nil {
		parsed, err := db.ParseStatus(*status)
		if err != nil {
			return db.ProjectPatch{}, err
		}

		patch.Status = &parsed
	}

	return patch, nil
}

var timeCmd = &cobra.Command{
	Use:   "time",
	Short: "Track time spent on projects",
}

var timeStartCmd = &cobra.Command{
	Use:   "start PROJECT_ID",
	Short: "Start the timer for a project",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, closeStore, err := openStore(cmd.Context())
		if err != nil {
			return err
		}
		defer closeStore()

		entry, err := store.StartTimer(cmd.Context(), args[0])
		if err != nil {
			return err
		}

		fmt.Fprintln(cmd.OutOrStdout(), entry.ID)

		return nil
	},
}

var timeStopCmd = &cobra.Command{
	Use:   "stop",
	Short: "Stop the running timer",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		store, closeStore, err := openStore(cmd.Context())
		if err != nil {
			return err
		}
		defer closeStore()

		entries, err := store.ListTimeEntries(cmd.Context(), db.DefaultTimeEntryLimit)
		if err != nil {
			return err
		}

		running, ok := db.RunningEntry(entries)
		if !ok {
			return errors.New("no timer is running")
		}

		entry, err := store.StopTimer(cmd.Context(), running.ID)
		if err != nil {
			return err
		}

		fmt.Fprintf(cmd.OutOrStdout(), "stopped after %s\n", entry.Duration(time.Now()).Round(time.Second))

		return nil
	},
}

var timeListCmd = &cobra.Command{
	Use:   "list",
	Short: "List the latest time entries",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")

		store, closeStore, err := openStore(cmd.Context())
		if err != nil {
			return err
		}
		defer closeStore()

		entries, err := store.ListTimeEntries(cmd.Context(), limit)
		if err != nil {
			return err
		}

		now := time.Now()

		for _, entry := range entries {
			state := "stopped"
			if entry.Running() {
				state = "running"
			}

			fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\t%s\t%s\t%s\n", entry.ID, entry.ProjectID,
				entry.StartTime.Local().Format(time.DateTime), entry.Duration(now).Round(time.Second), state)
		}

		return nil
	},
}

func init() {
	clientAddCmd.Flags().String("company", "", "company name")
	clientAddCmd.Flags().String("email", "", "contact email")
	clientAddCmd.Flags().String("phone", "", "contact phone")
	clientEditCmd.Flags().String("name", "", "client name")
	clientEditCmd.Flags().String("company", "", "company name")
	clientEditCmd.Flags().String("email", "", "contact email")
	clientEditCmd.Flags().String("phone", "", "contact phone")
	clientCmd.AddCommand(clientAddCmd, clientEditCmd)

	projectAddCmd.Flags().String("description", "", "project description")
	projectAddCmd.Flags().String("client", "", "id of the client the project is for")
	projectAddCmd.Flags().Float64("value", 0, "agreed project value")
	projectAddCmd.Flags().String("payment", db.PaymentPending.String(), "payment status")
	projectEditCmd.Flags().String("name", "", "project name")
	projectEditCmd.Flags().String("description", "", "project description")
	projectEditCmd.Flags().String("client", "", "id of the client the project is for; empty for none")
	projectEditCmd.Flags().Float64("value", 0, "agreed project value")
	projectEditCmd.Flags().Float64("paid", 0, "amount paid so far")
	projectEditCmd.Flags().String("payment", "", "payment status")
	projectEditCmd.Flags().String("status", "", "board column")
	projectCmd.AddCommand(projectAddCmd, projectEditCmd)

	timeListCmd.Flags().Int("limit", db.DefaultTimeEntryLimit, "number of entries to list")
	timeCmd.AddCommand(timeStartCmd, timeStopCmd, timeListCmd)
}
