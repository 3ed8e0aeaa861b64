package main

import (
	"fmt"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/vinodismyname/peerxcel/internal/entity"
	"github.com/vinodismyname/peerxcel/internal/metrics"
	"github.com/vinodismyname/peerxcel/internal/pipeline"
)

func newResolveCmd(c *cli) *cobra.Command {
	var byName bool
	cmd := &cobra.Command{
		Use:   "resolve <identifier|name>",
		Short: "Resolve a company to its display name and categories",
		Example: `  peerxcel resolve RL.N
  peerxcel resolve --name "ralph lauren"`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var (
				co  entity.Company
				err error
			)
			if byName {
				co, err = c.app.Resolver.ResolveByName(cmd.Context(), args[0])
			} else {
				co, err = c.app.Resolver.ResolveByIdentifier(cmd.Context(), args[0])
			}
			if err != nil {
				return err
			}
			tw := newTable(cmd, "", table.Row{"Name", "Identifier", "Primary Category", "Secondary Category", "Source"})
			tw.AppendRow(companyRow(co, true))
			tw.Render()
			return nil
		},
	}
	cmd.Flags().BoolVar(&byName, "name", false, "Treat the argument as a company name (at least 4 characters)")
	return cmd
}

func newPeersCmd(c *cli) *cobra.Command {
	var (
		attrName string
		category string
	)
	cmd := &cobra.Command{
		Use:   "peers [identifier]",
		Short: "List companies sharing a category with an origin company",
		Example: `  peerxcel peers RL.N --attribute secondary
  peerxcel peers --category "Consumer Discretionary" --attribute sector`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			attr, err := entity.ParseAttribute(attrName)
			if err != nil {
				return err
			}
			var group *entity.PeerGroup
			switch {
			case len(args) == 1:
				origin, err := c.app.Resolver.ResolveByIdentifier(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				group, err = c.app.Resolver.PeersOf(cmd.Context(), origin, attr)
				if err != nil {
					return err
				}
			case category != "":
				group, err = c.app.Resolver.FindPeers(cmd.Context(), category, attr)
				if err != nil {
					return err
				}
			default:
				return fmt.Errorf("an identifier or --category is required")
			}

			tw := newTable(cmd, fmt.Sprintf("%s = %s (%d)", attr, group.Value, group.Len()),
				table.Row{"Name", "Identifier", "Primary Category", "Secondary Category"})
			for _, co := range group.Companies {
				tw.AppendRow(companyRow(co, false))
			}
			tw.Render()
			return nil
		},
	}
	cmd.Flags().StringVar(&attrName, "attribute", "primary", "primary|secondary|sector")
	cmd.Flags().StringVar(&category, "category", "", "Category value to group by instead of an origin company")
	return cmd
}

func newMetricsCmd(c *cli) *cobra.Command {
	var fields []string
	cmd := &cobra.Command{
		Use:     "metrics <identifier>...",
		Short:   "Read metric cells for companies from the corpus",
		Example: `  peerxcel metrics RL.N TPR.N --fields "P/E,EBIT,ROE"`,
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			fields := metrics.NormalizeFields(fields)
			if len(fields) == 0 {
				return fmt.Errorf("--fields is required")
			}
			values, err := c.app.Extractor.ExtractAll(cmd.Context(), args, fields)
			if err != nil {
				return err
			}
			header := table.Row{"Identifier"}
			for _, f := range fields {
				header = append(header, f)
			}
			tw := newTable(cmd, "", header)
			for _, id := range args {
				row := table.Row{id}
				for _, f := range fields {
					row = append(row, string(values[id][f]))
				}
				tw.AppendRow(row)
			}
			tw.Render()
			return nil
		},
	}
	cmd.Flags().StringSliceVar(&fields, "fields", nil, "Comma-separated metric names")
	return cmd
}

func newRunCmd(c *cli) *cobra.Command {
	var (
		requestPath    string
		names          []string
		fields         []string
		providerFields []string
		attrName       string
		sector         bool
		out            string
	)
	cmd := &cobra.Command{
		Use:   "run [identifier]...",
		Short: "Build peer groups and trimmed averages for each input",
		Long: `Run the full pipeline: resolve every input, build its peer group, extract the
requested fields for every peer and average them with outliers beyond the 5th
and 95th percentiles removed.

Inputs come from a request workbook (--request) or from arguments and flags.`,
		Example: `  peerxcel run --request input.xlsx --out peers.xlsx
  peerxcel run RL.N TPR.N --fields "P/E,EBIT" --sector`,
		RunE: func(cmd *cobra.Command, args []string) error {
			var req pipeline.Request
			if requestPath != "" {
				path, err := c.app.Security.ValidateOpenPath(requestPath)
				if err != nil {
					return fmt.Errorf("request %q: %w", requestPath, err)
				}
				if req, err = pipeline.ReadRequest(path, c.app.Config.Layout); err != nil {
					return err
				}
			}
			for _, id := range args {
				req.Inputs = append(req.Inputs, pipeline.Input{Identifier: id})
			}
			for _, n := range names {
				req.Inputs = append(req.Inputs, pipeline.Input{Name: n})
			}
			req.Fields = append(req.Fields, fields...)
			req.ProviderFields = append(req.ProviderFields, providerFields...)
			if cmd.Flags().Changed("attribute") {
				attr, err := entity.ParseAttribute(attrName)
				if err != nil {
					return err
				}
				req.Attribute = attr
			}
			req.Sector = req.Sector || sector

			if len(req.Inputs) == 0 {
				return fmt.Errorf("no inputs: pass identifiers, --name or --request")
			}
			if len(req.Fields) == 0 && len(req.ProviderFields) == 0 {
				return fmt.Errorf("no fields: pass --fields or list them in the request workbook")
			}

			report, err := c.app.Engine.Run(cmd.Context(), req)
			if err != nil {
				return err
			}

			var sink pipeline.Sink = pipeline.TableSink{Out: cmd.OutOrStdout()}
			if out != "" {
				if !strings.HasSuffix(strings.ToLower(out), ".xlsx") {
					return fmt.Errorf("--out must name an .xlsx file")
				}
				sink = pipeline.WorkbookSink{Path: out}
			}
			if err := sink.Write(report); err != nil {
				return err
			}
			if out != "" {
				fmt.Fprintf(cmd.OutOrStdout(), "wrote %s: %d rows, %d averages, %d not processed\n",
					out, len(report.Rows), len(report.Aggregates), len(report.Missing))
			}
			return nil
		},
	}
	f := cmd.Flags()
	f.StringVar(&requestPath, "request", "", "Request workbook with identifiers and field lists")
	f.StringSliceVar(&names, "name", nil, "Company name input (repeatable)")
	f.StringSliceVar(&fields, "fields", nil, "Comma-separated metric names")
	f.StringSliceVar(&providerFields, "provider-fields", nil, "Comma-separated provider metric names")
	f.StringVar(&attrName, "attribute", "primary", "primary|secondary|sector")
	f.BoolVar(&sector, "sector", false, "Add a sector-wide average row per input")
	f.StringVarP(&out, "out", "o", "", "Write an .xlsx report instead of printing tables")
	return cmd
}

func companyRow(co entity.Company, withSource bool) table.Row {
	row := table.Row{co.DisplayName, co.Identifier, co.CategoryPrimary, co.CategorySecondary}
	if withSource {
		row = append(row, fmt.Sprintf("%s!%s:%d", co.Source, co.Sheet, co.Row))
	}
	return row
}
