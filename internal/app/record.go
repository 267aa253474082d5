package app

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/poyrazK/zonectl/internal/config"
	"github.com/poyrazK/zonectl/internal/core/domain"
)

func newRecordCmd(cfg *config.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "record",
		Short: "Add or delete records without going through the HTTP API",
	}
	cmd.AddCommand(newRecordAddCmd(cfg), newRecordDeleteCmd(cfg), newRecordListCmd(cfg))
	return cmd
}

func newRecordAddCmd(cfg *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:     "add <domain> <type> <name> <value>...",
		Short:   "Append a record, creating the zone if needed",
		Example: `  zonectl record add example.com MX @ 10 mail.example.com.`,
		Args:    cobra.MinimumNArgs(4),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := buildComponents(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer c.Close()

			res, err := c.svc.AddRecord(cmd.Context(), domain.AddRecordRequest{
				Domain: args[0],
				Type:   domain.RecordType(strings.ToUpper(args[1])),
				Name:   args[2],
				Value:  strings.Join(args[3:], " "),
			})
			if err != nil {
				return err
			}
			return printJSON(cmd, res)
		},
	}
}

func newRecordDeleteCmd(cfg *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <domain> <name>",
		Short: "Delete the lines matching name from the zone",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := buildComponents(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer c.Close()

			res, err := c.svc.DeleteRecord(cmd.Context(), domain.DeleteRecordRequest{Domain: args[0], Name: args[1]})
			if err != nil {
				return err
			}
			return printJSON(cmd, res)
		},
	}
}

func newRecordListCmd(cfg *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "list <domain>",
		Short: "List the records of a zone",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := buildComponents(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer c.Close()

			records, err := c.svc.ListRecords(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			for _, r := range records {
				fmt.Fprintf(cmd.OutOrStdout(), "%s\t%d\tIN\t%s\t%s\n", r.Name, r.TTL, r.Type, r.Value)
			}
			return nil
		},
	}
}

func newCheckCmd(cfg *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "check <domain>",
		Short: "Query the name server for the zone",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			zone := domain.NormalizeZoneName(args[0])
			if err := domain.ValidateZoneName(zone); err != nil {
				return err
			}
			out, err := buildLookup(cfg).Query(cmd.Context(), zone)
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), out)
			return nil
		},
	}
}

func printJSON(cmd *cobra.Command, v interface{}) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
