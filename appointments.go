package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/msomdec/clinic-booking/internal/domain"
	"github.com/msomdec/clinic-booking/internal/remote"
)

// appointmentsCmd groups client commands that work against a running server.
func appointmentsCmd() *cobra.Command {
	var server, email, password string

	cmd := &cobra.Command{
		Use:   "appointments",
		Short: "List, book, and cancel appointments on a running server",
	}
	cmd.PersistentFlags().StringVar(&server, "server", envOr("CLINIC_SERVER", "http://localhost:3333"), "server base URL (env CLINIC_SERVER)")
	cmd.PersistentFlags().StringVar(&email, "email", os.Getenv("CLINIC_EMAIL"), "login email (env CLINIC_EMAIL)")
	cmd.PersistentFlags().StringVar(&password, "password", "", "login password (env CLINIC_PASSWORD)")

	// client logs in when credentials are given.
	client := func(cmd *cobra.Command) (*remote.Client, error) {
		c := remote.New(server)
		if password == "" {
			password = os.Getenv("CLINIC_PASSWORD")
		}
		if email != "" {
			if _, err := c.Login(cmd.Context(), email, password); err != nil {
				return nil, fmt.Errorf("login: %w", err)
			}
		}
		return c, nil
	}

	var userID int64
	list := &cobra.Command{
		Use:   "list",
		Short: "List appointments, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := client(cmd)
			if err != nil {
				return err
			}
			var filter domain.AppointmentFilter
			if cmd.Flags().Changed("user-id") {
				filter.UserID = &userID
			}
			appts, err := c.ListAppointments(cmd.Context(), filter)
			if err != nil {
				return err
			}
			return printJSON(cmd, appts)
		},
	}
	list.Flags().Int64Var(&userID, "user-id", 0, "only this patient's appointments")

	var in domain.AppointmentInput
	var bookFor int64
	book := &cobra.Command{
		Use:   "book",
		Short: "Book a slot",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := client(cmd)
			if err != nil {
				return err
			}
			if bookFor == 0 {
				me, err := c.Me(cmd.Context())
				if err != nil {
					return fmt.Errorf("--user-id or a login is required: %w", err)
				}
				bookFor = me.ID
			}
			appt, err := c.CreateAppointment(cmd.Context(), bookFor, in)
			if err != nil {
				return err
			}
			return printJSON(cmd, appt)
		},
	}
	book.Flags().Int64Var(&bookFor, "user-id", 0, "patient to book for (default: the logged-in user)")
	book.Flags().Int64Var(&in.DoctorID, "doctor-id", 0, "doctor id")
	book.Flags().StringVar(&in.Date, "date", "", "date, YYYY-MM-DD")
	book.Flags().StringVar(&in.Time, "time", "", "time, HH:MM")
	book.Flags().StringVar(&in.Reason, "reason", "", "reason for the visit")

	cancel := &cobra.Command{
		Use:   "cancel ID",
		Short: "Cancel an appointment, freeing its slot",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid appointment id %q", args[0])
			}
			c, err := client(cmd)
			if err != nil {
				return err
			}
			appt, err := c.CancelAppointment(cmd.Context(), id)
			if err != nil {
				return err
			}
			return printJSON(cmd, appt)
		},
	}

	cmd.AddCommand(list, book, cancel)
	return cmd
}

func printJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
