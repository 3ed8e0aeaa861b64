package pipeline

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/vinodismyname/peerxcel/internal/aggregate"
	"github.com/vinodismyname/peerxcel/internal/entity"
	"github.com/vinodismyname/peerxcel/internal/metrics"
)

// Reasons recorded for inputs that produced no rows.
const (
	ReasonNotFound     = "not_found"
	ReasonInvalidQuery = "invalid_query"
)

// Input names one company to process, by identifier or by name.
type Input struct {
	Identifier string `json:"identifier,omitempty"`
	Name       string `json:"name,omitempty"`
}

func (in Input) String() string {
	if strings.TrimSpace(in.Identifier) != "" {
		return strings.TrimSpace(in.Identifier)
	}
	return strings.TrimSpace(in.Name)
}

// Request is one batch run.
type Request struct {
	Inputs         []Input
	Attribute      entity.Attribute
	Fields         []string
	ProviderFields []string
	// Sector adds a sector-wide average row per input.
	Sector bool
}

// Result is one peer row of the report.
type Result struct {
	Origin  string         `json:"origin"`
	Company entity.Company `json:"company"`
	Values  metrics.Values `json:"values"`
}

// Missing records an input that could not be processed.
type Missing struct {
	Input  string `json:"input"`
	Reason string `json:"reason"`
	Detail string `json:"detail,omitempty"`
}

// Report is the flat output of a run. Fields gives the value column order.
type Report struct {
	RunID      string          `json:"run_id"`
	Fields     []string        `json:"fields"`
	Rows       []Result        `json:"rows"`
	Aggregates []aggregate.Row `json:"aggregates"`
	Missing    []Missing       `json:"missing"`
}

// Engine chains resolution, peer search, extraction and aggregation.
type Engine struct {
	resolver   *entity.Resolver
	extractor  *metrics.Extractor
	aggregator *aggregate.Aggregator
	provider   metrics.Provider
	tag        string
	logger     zerolog.Logger
	clock      func() time.Time
}

// Option customizes an Engine.
type Option func(*Engine)

// WithProvider adds an external metric source for Request.ProviderFields.
func WithProvider(p metrics.Provider, fieldTag string) Option {
	return func(e *Engine) {
		e.provider = p
		e.tag = fieldTag
	}
}

// WithLogger sets the run logger.
func WithLogger(l zerolog.Logger) Option { return func(e *Engine) { e.logger = l } }

// NewEngine wires the core components into a batch runner.
func NewEngine(r *entity.Resolver, x *metrics.Extractor, a *aggregate.Aggregator, opts ...Option) *Engine {
	e := &Engine{
		resolver:   r,
		extractor:  x,
		aggregator: a,
		logger:     zerolog.Nop(),
		clock:      time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// run holds the state of one Engine.Run call.
type run struct {
	*Engine
	logger   zerolog.Logger
	fields   []string
	codes    []string
	values   map[string]metrics.Values
	report   *Report
	seenRows map[string]struct{}
}

// Run processes every input. Inputs that cannot be resolved are reported in
// Missing; only context cancellation and corpus-level failures return an
// error.
func (e *Engine) Run(ctx context.Context, req Request) (*Report, error) {
	start := e.clock()
	fields := metrics.NormalizeFields(req.Fields)
	var codes []string
	if e.provider != nil {
		codes = metrics.ProviderCodes(req.ProviderFields, e.tag)
	}

	columns := append([]string(nil), fields...)
	for _, c := range codes {
		columns = append(columns, metrics.Label(c, e.tag))
	}

	rn := &run{
		Engine:   e,
		fields:   fields,
		codes:    codes,
		values:   make(map[string]metrics.Values),
		seenRows: make(map[string]struct{}),
		report: &Report{
			RunID:  uuid.NewString(),
			Fields: metrics.NormalizeFields(columns),
		},
	}
	rn.logger = e.logger.With().Str("run_id", rn.report.RunID).Logger()

	for _, in := range req.Inputs {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if err := rn.process(ctx, in, req); err != nil {
			return nil, err
		}
	}

	rn.logger.Info().
		Int("inputs", len(req.Inputs)).
		Int("rows", len(rn.report.Rows)).
		Int("aggregates", len(rn.report.Aggregates)).
		Int("missing", len(rn.report.Missing)).
		Dur("elapsed", e.clock().Sub(start)).
		Msg("run complete")
	return rn.report, nil
}

func (rn *run) process(ctx context.Context, in Input, req Request) error {
	origin, err := rn.resolve(ctx, in)
	if err != nil {
		if reason, ok := missingReason(err); ok {
			rn.logger.Warn().Str("input", in.String()).Str("reason", reason).Err(err).Msg("input skipped")
			rn.report.Missing = append(rn.report.Missing, Missing{Input: in.String(), Reason: reason, Detail: err.Error()})
			return nil
		}
		return err
	}

	attr := req.Attribute
	if attr == entity.Secondary && strings.TrimSpace(origin.CategorySecondary) == "" {
		rn.logger.Debug().Str("identifier", origin.Identifier).Msg("no secondary category; grouping by primary")
		attr = entity.Primary
	}

	group, err := rn.resolver.PeersOf(ctx, origin, attr)
	if errors.Is(err, entity.ErrInvalidQuery) {
		group = entity.NewPeerGroup(origin.Category(attr, ""), attr)
		group.Ensure(origin)
	} else if err != nil {
		return err
	}

	samples, err := rn.collect(ctx, group)
	if err != nil {
		return err
	}
	for i, c := range group.Companies {
		key := origin.Key() + "|" + c.Key()
		if _, dup := rn.seenRows[key]; dup {
			continue
		}
		rn.seenRows[key] = struct{}{}
		rn.report.Rows = append(rn.report.Rows, Result{Origin: origin.Identifier, Company: c, Values: samples[i]})
	}
	rn.report.Aggregates = append(rn.report.Aggregates,
		rn.aggregator.Aggregate(group.Value, aggregate.Group, rn.report.Fields, samples))

	if req.Sector {
		sectorGroup, err := rn.resolver.PeersOf(ctx, origin, entity.Sector)
		switch {
		case errors.Is(err, entity.ErrInvalidQuery):
			rn.logger.Debug().Str("identifier", origin.Identifier).Msg("no primary category; sector average skipped")
		case err != nil:
			return err
		default:
			sectorSamples, err := rn.collect(ctx, sectorGroup)
			if err != nil {
				return err
			}
			rn.report.Aggregates = append(rn.report.Aggregates,
				rn.aggregator.Aggregate(sectorGroup.Value, aggregate.Sector, rn.report.Fields, sectorSamples))
		}
	}
	return nil
}

func (rn *run) resolve(ctx context.Context, in Input) (entity.Company, error) {
	if id := strings.TrimSpace(in.Identifier); id != "" {
		return rn.resolver.ResolveByIdentifier(ctx, id)
	}
	return rn.resolver.ResolveByName(ctx, in.Name)
}

// collect returns the values of every group member in member order,
// extracting each company at most once per run.
func (rn *run) collect(ctx context.Context, group *entity.PeerGroup) ([]metrics.Values, error) {
	var pending []entity.Company
	for _, c := range group.Companies {
		if _, ok := rn.values[c.Key()]; !ok {
			pending = append(pending, c)
		}
	}

	ids := make([]string, 0, len(pending))
	for _, c := range pending {
		vals, err := rn.extractor.Extract(ctx, c.Identifier, rn.fields)
		if err != nil {
			return nil, err
		}
		rn.values[c.Key()] = vals
		ids = append(ids, c.Identifier)
	}

	if len(rn.codes) > 0 && len(ids) > 0 {
		fetched := metrics.SafeFetch(ctx, rn.provider, ids, rn.codes, rn.extractor.Resolver(), rn.logger)
		for id, vals := range fetched {
			dst := rn.values[entity.Company{Identifier: id}.Key()]
			if dst == nil {
				continue
			}
			for code, v := range vals {
				label := metrics.Label(code, rn.tag)
				if _, ok := dst[label]; !ok {
					dst[label] = v
				}
			}
		}
	}

	out := make([]metrics.Values, len(group.Companies))
	for i, c := range group.Companies {
		out[i] = rn.values[c.Key()]
	}
	return out, nil
}

func missingReason(err error) (string, bool) {
	switch {
	case errors.Is(err, entity.ErrNotFound):
		return ReasonNotFound, true
	case errors.Is(err, entity.ErrInvalidQuery):
		return ReasonInvalidQuery, true
	}
	return "", false
}
