package registry

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/rs/zerolog"

	"github.com/vinodismyname/peerxcel/config"
	"github.com/vinodismyname/peerxcel/internal/corpus"
	"github.com/vinodismyname/peerxcel/internal/entity"
	"github.com/vinodismyname/peerxcel/internal/metrics"
	"github.com/vinodismyname/peerxcel/internal/pipeline"
	"github.com/vinodismyname/peerxcel/internal/security"
	"github.com/vinodismyname/peerxcel/pkg/mcperr"
	"github.com/vinodismyname/peerxcel/pkg/pagination"
	"github.com/vinodismyname/peerxcel/pkg/validation"
)

const maxPeerPageSize = 500

// --- Input / Output Schemas (typed for discovery) ---

// ResolveCompanyInput looks a company up by identifier or by name.
type ResolveCompanyInput struct {
	Identifier string `json:"identifier,omitempty" validate:"required_without=Name,omitempty,identifier" jsonschema_description:"Market identifier such as RL.N"`
	Name       string `json:"name,omitempty" validate:"omitempty,min=1" jsonschema_description:"Company name or name fragment (at least 4 characters)"`
}

// FindPeersInput selects a peer group by origin company or by category.
type FindPeersInput struct {
	Identifier string `json:"identifier,omitempty" validate:"omitempty,identifier" jsonschema_description:"Origin company; its category selects the group"`
	Category   string `json:"category,omitempty" jsonschema_description:"Categorical value to group by when no identifier is given"`
	Attribute  string `json:"attribute,omitempty" validate:"attribute" jsonschema_description:"primary (default), secondary or sector"`
	PageSize   int    `json:"page_size,omitempty" validate:"omitempty,min=1,max=500" jsonschema_description:"Members per page (default 50)"`
	Cursor     string `json:"cursor,omitempty" validate:"omitempty,cursor" jsonschema_description:"Opaque cursor from a previous page; takes precedence"`
}

// PageMeta captures paging metadata.
type PageMeta struct {
	Total      int    `json:"total"`
	Returned   int    `json:"returned"`
	Truncated  bool   `json:"truncated"`
	NextCursor string `json:"nextCursor,omitempty"`
}

// FindPeersOutput is one page of a peer group.
type FindPeersOutput struct {
	Value     string           `json:"value"`
	Attribute string           `json:"attribute"`
	Members   []entity.Company `json:"members"`
	Meta      PageMeta         `json:"meta"`
}

// ExtractMetricsInput names companies and fields to read from the corpus.
type ExtractMetricsInput struct {
	Identifiers []string `json:"identifiers" validate:"required,min=1,dive,required" jsonschema_description:"Market identifiers"`
	Fields      []string `json:"fields" validate:"required,min=1,dive,required" jsonschema_description:"Metric names as written in the corpus headers"`
}

// ExtractMetricsOutput maps identifier to field to raw cell text.
type ExtractMetricsOutput struct {
	Values map[string]metrics.Values `json:"values"`
}

// PeerReportInput describes one batch run.
type PeerReportInput struct {
	Identifiers    []string `json:"identifiers,omitempty" jsonschema_description:"Origin companies by identifier"`
	Names          []string `json:"names,omitempty" jsonschema_description:"Origin companies by name"`
	Attribute      string   `json:"attribute,omitempty" validate:"attribute" jsonschema_description:"primary (default), secondary or sector"`
	Fields         []string `json:"fields" validate:"required,min=1" jsonschema_description:"Metric names to extract and average"`
	ProviderFields []string `json:"provider_fields,omitempty" jsonschema_description:"Additional metrics from the external provider"`
	Sector         bool     `json:"sector,omitempty" jsonschema_description:"Add a sector-wide average row per origin"`
}

// ExportReportInput runs a report and writes it to an Excel workbook.
type ExportReportInput struct {
	PeerReportInput
	Output string `json:"output" validate:"required,filepath_ext" jsonschema_description:"Destination .xlsx path inside an allowed directory"`
}

// ExportReportOutput summarizes a written report.
type ExportReportOutput struct {
	RunID   string `json:"run_id"`
	Path    string `json:"path"`
	Rows    int    `json:"rows"`
	Missing int    `json:"missing"`
}

// Deps bundles the components the tools call into.
type Deps struct {
	Resolver  *entity.Resolver
	Extractor *metrics.Extractor
	Engine    *pipeline.Engine
	Security  *security.Manager
	PageSize  int
	Logger    zerolog.Logger

	// AllowWrites enables export_report; discovery hides it otherwise.
	AllowWrites bool
}

// tools holds handler state; handlers are methods so tests can call them
// without a transport.
type tools struct {
	Deps
}

func newTools(d Deps) *tools {
	if d.PageSize <= 0 {
		d.PageSize = config.DefaultPeerPageSize
	}
	return &tools{Deps: d}
}

// RegisterTools adds the peer analysis tools to the server and registry.
func RegisterTools(s *server.MCPServer, reg *Registry, d Deps) {
	t := newTools(d)

	resolveTool := mcp.NewTool(
		"resolve_company",
		mcp.WithDescription("Resolve a company by market identifier or name to its display name and categories. Identifier lookups search files matching the configured priority category first; name lookups match case- and accent-insensitively and need at least 4 characters. Errors: NOT_FOUND, INVALID_QUERY."),
		mcp.WithInputSchema[ResolveCompanyInput](),
		mcp.WithOutputSchema[entity.Company](),
	)
	s.AddTool(resolveTool, mcp.NewTypedToolHandler(t.resolveCompany))
	reg.Register(resolveTool)

	peersTool := mcp.NewTool(
		"find_peers",
		mcp.WithDescription("List companies sharing a categorical value (primary, secondary or sector) with an origin company or a given category. Results are deduplicated by identifier and paged; pass meta.nextCursor to continue."),
		mcp.WithInputSchema[FindPeersInput](),
		mcp.WithOutputSchema[FindPeersOutput](),
	)
	s.AddTool(peersTool, mcp.NewTypedToolHandler(t.findPeers))
	reg.Register(peersTool)

	extractTool := mcp.NewTool(
		"extract_metrics",
		mcp.WithDescription("Read metric cells for companies from the corpus. Header names are matched exactly, then normalized, then by substring; placeholder texts such as N/A are skipped. The first file with a usable value wins."),
		mcp.WithInputSchema[ExtractMetricsInput](),
		mcp.WithOutputSchema[ExtractMetricsOutput](),
	)
	s.AddTool(extractTool, mcp.NewTypedToolHandler(t.extractMetrics))
	reg.Register(extractTool)

	reportTool := mcp.NewTool(
		"peer_report",
		mcp.WithDescription("Resolve each origin, build its peer group, extract the fields for every peer and compute outlier-trimmed averages (5th to 95th percentile). Unresolvable inputs are listed under missing."),
		mcp.WithInputSchema[PeerReportInput](),
		mcp.WithOutputSchema[pipeline.Report](),
	)
	s.AddTool(reportTool, mcp.NewTypedToolHandler(t.peerReport))
	reg.Register(reportTool)

	exportTool := mcp.NewTool(
		"export_report",
		mcp.WithDescription("Run peer_report and write Results, Averages and Missing sheets to an .xlsx file inside an allowed directory. Hidden unless writes are enabled."),
		mcp.WithInputSchema[ExportReportInput](),
		mcp.WithOutputSchema[ExportReportOutput](),
	)
	s.AddTool(exportTool, mcp.NewTypedToolHandler(t.exportReport))
	reg.Register(exportTool)
}

func (t *tools) resolveCompany(ctx context.Context, _ mcp.CallToolRequest, in ResolveCompanyInput) (*mcp.CallToolResult, error) {
	if msg := validation.ValidateStruct(in); msg != "" {
		return mcperr.FromText(msg), nil
	}
	c, err := t.resolve(ctx, in.Identifier, in.Name)
	if err != nil {
		return toolError(err), nil
	}
	summary := fmt.Sprintf("%s (%s) primary=%q secondary=%q", c.DisplayName, c.Identifier, c.CategoryPrimary, c.CategorySecondary)
	return mcp.NewToolResultStructured(c, summary), nil
}

func (t *tools) resolve(ctx context.Context, identifier, name string) (entity.Company, error) {
	if id := strings.TrimSpace(identifier); id != "" {
		return t.Resolver.ResolveByIdentifier(ctx, id)
	}
	return t.Resolver.ResolveByName(ctx, name)
}

func (t *tools) findPeers(ctx context.Context, _ mcp.CallToolRequest, in FindPeersInput) (*mcp.CallToolResult, error) {
	if msg := validation.ValidateStruct(in); msg != "" {
		return mcperr.FromText(msg), nil
	}

	var (
		attrName = in.Attribute
		value    = strings.TrimSpace(in.Category)
		originID = strings.TrimSpace(in.Identifier)
		off      = 0
		size     = in.PageSize
	)
	if in.Cursor != "" {
		cur, err := pagination.DecodeCursor(in.Cursor)
		if err != nil {
			return mcperr.New(mcperr.CursorInvalid, err.Error()), nil
		}
		attrName, value, originID, off, size = cur.A, cur.Q, cur.O, cur.Off, cur.Ps
	}
	if size <= 0 {
		size = t.PageSize
	}
	size = min(size, maxPeerPageSize)

	attr, err := entity.ParseAttribute(attrName)
	if err != nil {
		return toolError(err), nil
	}

	var group *entity.PeerGroup
	switch {
	case originID != "":
		origin, err := t.Resolver.ResolveByIdentifier(ctx, originID)
		if err != nil {
			return toolError(err), nil
		}
		group, err = t.Resolver.PeersOf(ctx, origin, attr)
		if err != nil {
			return toolError(err), nil
		}
		originID = origin.Identifier
	case value != "":
		group, err = t.Resolver.FindPeers(ctx, value, attr)
		if err != nil {
			return toolError(err), nil
		}
	default:
		return mcperr.New(mcperr.Validation, "identifier or category is required"), nil
	}

	if in.Cursor != "" && off > group.Len() {
		return mcperr.New(mcperr.CursorInvalid, "cursor offset beyond the current group"), nil
	}

	start, end, more := pagination.Page(group.Len(), off, size)
	out := FindPeersOutput{
		Value:     group.Value,
		Attribute: attr.String(),
		Members:   append([]entity.Company{}, group.Companies[start:end]...),
		Meta:      PageMeta{Total: group.Len(), Returned: end - start, Truncated: more},
	}
	if more {
		next, err := pagination.EncodeCursor(pagination.Cursor{
			Q: group.Value, A: attr.String(), O: originID,
			Off: pagination.NextOffset(start, end-start), Ps: size, N: group.Len(),
		})
		if err != nil {
			return mcperr.New(mcperr.Internal, err.Error()), nil
		}
		out.Meta.NextCursor = next
	}

	lines := []string{fmt.Sprintf("%s=%q total=%d returned=%d truncated=%v", out.Attribute, out.Value, out.Meta.Total, out.Meta.Returned, out.Meta.Truncated)}
	for _, c := range out.Members {
		lines = append(lines, fmt.Sprintf("- %s (%s)", c.DisplayName, c.Identifier))
	}
	res := mcp.NewToolResultStructured(out, lines[0])
	res.Content = []mcp.Content{mcp.NewTextContent(strings.Join(lines, "\n"))}
	return res, nil
}

func (t *tools) extractMetrics(ctx context.Context, _ mcp.CallToolRequest, in ExtractMetricsInput) (*mcp.CallToolResult, error) {
	if msg := validation.ValidateStruct(in); msg != "" {
		return mcperr.FromText(msg), nil
	}
	values, err := t.Extractor.ExtractAll(ctx, in.Identifiers, in.Fields)
	if err != nil {
		return toolError(err), nil
	}
	found := 0
	for _, v := range values {
		found += len(v)
	}
	summary := fmt.Sprintf("companies=%d values=%d", len(values), found)
	return mcp.NewToolResultStructured(ExtractMetricsOutput{Values: values}, summary), nil
}

func (t *tools) peerReport(ctx context.Context, _ mcp.CallToolRequest, in PeerReportInput) (*mcp.CallToolResult, error) {
	report, res := t.runReport(ctx, in)
	if res != nil {
		return res, nil
	}
	return mcp.NewToolResultStructured(report, reportSummary(report)), nil
}

func (t *tools) exportReport(ctx context.Context, _ mcp.CallToolRequest, in ExportReportInput) (*mcp.CallToolResult, error) {
	if msg := validation.ValidateStruct(in); msg != "" {
		return mcperr.FromText(msg), nil
	}
	if !t.AllowWrites {
		return mcperr.New(mcperr.PermissionDenied, "writes are disabled; set PEERXCEL_ENABLE_WRITES=true"), nil
	}
	if t.Security == nil {
		return mcperr.New(mcperr.PermissionDenied, "no allowed directories configured"), nil
	}
	dir, err := t.Security.ValidateDir(filepath.Dir(in.Output))
	if err != nil {
		return mcperr.New(mcperr.PermissionDenied, err.Error()), nil
	}
	path := filepath.Join(dir, filepath.Base(in.Output))

	report, res := t.runReport(ctx, in.PeerReportInput)
	if res != nil {
		return res, nil
	}
	if err := (pipeline.WorkbookSink{Path: path}).Write(report); err != nil {
		return mcperr.New(mcperr.Internal, err.Error()), nil
	}
	t.Logger.Info().Str("run_id", report.RunID).Str("path", path).Msg("report exported")

	out := ExportReportOutput{RunID: report.RunID, Path: path, Rows: len(report.Rows), Missing: len(report.Missing)}
	return mcp.NewToolResultStructured(out, fmt.Sprintf("wrote %s (%s)", path, reportSummary(report))), nil
}

func (t *tools) runReport(ctx context.Context, in PeerReportInput) (*pipeline.Report, *mcp.CallToolResult) {
	if msg := validation.ValidateStruct(in); msg != "" {
		return nil, mcperr.FromText(msg)
	}
	attr, err := entity.ParseAttribute(in.Attribute)
	if err != nil {
		return nil, toolError(err)
	}
	req := pipeline.Request{
		Attribute:      attr,
		Fields:         in.Fields,
		ProviderFields: in.ProviderFields,
		Sector:         in.Sector,
	}
	for _, id := range in.Identifiers {
		if strings.TrimSpace(id) != "" {
			req.Inputs = append(req.Inputs, pipeline.Input{Identifier: id})
		}
	}
	for _, name := range in.Names {
		if strings.TrimSpace(name) != "" {
			req.Inputs = append(req.Inputs, pipeline.Input{Name: name})
		}
	}
	if len(req.Inputs) == 0 {
		return nil, mcperr.New(mcperr.Validation, "identifiers or names are required")
	}
	report, err := t.Engine.Run(ctx, req)
	if err != nil {
		return nil, toolError(err)
	}
	return report, nil
}

func reportSummary(r *pipeline.Report) string {
	return fmt.Sprintf("run=%s rows=%d aggregates=%d missing=%d", r.RunID, len(r.Rows), len(r.Aggregates), len(r.Missing))
}

// toolError maps domain errors onto catalog codes.
func toolError(err error) *mcp.CallToolResult {
	return mcperr.FromError(err, classifyDomain)
}

func classifyDomain(err error) (mcperr.Code, bool) {
	var readErr *corpus.SourceReadError
	switch {
	case errors.Is(err, entity.ErrNotFound):
		return mcperr.NotFound, true
	case errors.Is(err, entity.ErrInvalidQuery), errors.Is(err, metrics.ErrEmptyIdentifier):
		return mcperr.InvalidQuery, true
	case errors.Is(err, corpus.ErrNotDirectory):
		return mcperr.CorpusUnavailable, true
	case errors.Is(err, security.ErrNotAllowed), errors.Is(err, security.ErrUnsupportedExtension):
		return mcperr.PermissionDenied, true
	case errors.As(err, &readErr):
		return mcperr.SourceReadFailed, true
	}
	return "", false
}
