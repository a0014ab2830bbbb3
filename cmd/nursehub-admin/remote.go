package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"nursehub-api/internal/model"
	"nursehub-api/internal/rpc"
)

var (
	serverAddr string
	listStatus string
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show appointment counts per status from a running server",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withClient(cmd.Context(), func(ctx context.Context, c *rpc.Client) error {
			st, err := c.Stats(ctx)
			if err != nil {
				return err
			}
			printStats(cmd.OutOrStdout(), st)
			return nil
		})
	},
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List appointments from a running server, newest first",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withClient(cmd.Context(), func(ctx context.Context, c *rpc.Client) error {
			list, err := c.List(ctx, listStatus)
			if err != nil {
				return err
			}
			printAppointments(cmd.OutOrStdout(), list)
			return nil
		})
	},
}

func init() {
	for _, c := range []*cobra.Command{statsCmd, listCmd} {
		c.Flags().StringVar(&serverAddr, "addr", "localhost:50051", "admin gRPC address")
	}
	listCmd.Flags().StringVar(&listStatus, "status", "", "filter: pending, approved, completed, cancelled or all")
}

// withClient logs in with ADMIN_USERNAME/ADMIN_PASSWORD before running fn.
func withClient(ctx context.Context, fn func(context.Context, *rpc.Client) error) error {
	if ctx == nil {
		ctx = context.Background()
	}
	conn, err := grpc.NewClient(serverAddr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return fmt.Errorf("dial %s: %w", serverAddr, err)
	}
	defer conn.Close()

	c := rpc.NewClient(conn)
	if _, err := c.Login(ctx, os.Getenv("ADMIN_USERNAME"), os.Getenv("ADMIN_PASSWORD")); err != nil {
		return fmt.Errorf("login: %w", err)
	}
	return fn(ctx, c)
}

func printStats(w io.Writer, st model.Stats) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "pending\t%d\n", st.Pending)
	fmt.Fprintf(tw, "approved\t%d\n", st.Approved)
	fmt.Fprintf(tw, "completed\t%d\n", st.Completed)
	fmt.Fprintf(tw, "cancelled\t%d\n", st.Cancelled)
	fmt.Fprintf(tw, "total\t%d\n", st.Total())
	tw.Flush()
}

func printAppointments(w io.Writer, list []model.Appointment) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tSTATUS\tNAME\tPHONE\tCREATED")
	for _, a := range list {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", a.ID, a.Status, a.Name, a.Phone, a.CreatedAt.Format("2006-01-02 15:04"))
	}
	tw.Flush()
}
