// Package reducer folds a stream of structural events into a per-day aggregate.
package reducer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/verte-zerg/tally/internal/aggregate"
	"github.com/verte-zerg/tally/internal/events"
	"github.com/verte-zerg/tally/internal/identity"
	"github.com/verte-zerg/tally/internal/logging"
	"github.com/verte-zerg/tally/internal/model"
	"github.com/verte-zerg/tally/internal/span"
	"github.com/verte-zerg/tally/internal/timestamp"
)

const (
	// RecordElement is the element that delimits one record.
	RecordElement = "person"
	// IdentityAttr is the record attribute holding the person's name.
	IdentityAttr = "full_name"
)

// Reasons attached to discarded records in the diagnostics log.
const (
	reasonInvalidIdentity = "invalid identity"
	reasonInvalidTime     = "invalid timestamp"
	reasonIncomplete      = "fewer than two timestamps"
	reasonReversed        = "end precedes start"
	reasonAbandoned       = "record not closed before next record"
)

type state int

const (
	stateIdle state = iota
	stateInRecord
)

// ProgressFunc receives the number of elements opened so far.
type ProgressFunc func(elements int)

// Option configures a Reducer.
type Option func(*Reducer)

// WithLogger sets the diagnostics sink.
func WithLogger(l *slog.Logger) Option {
	return func(r *Reducer) {
		if l != nil {
			r.log = l
		}
	}
}

// WithNormalizer replaces the default identity normalizer.
func WithNormalizer(n identity.Normalizer) Option {
	return func(r *Reducer) {
		r.norm = n
	}
}

// WithProgress calls fn after every `every` opened elements. every <= 0 disables it.
func WithProgress(every int, fn ProgressFunc) Option {
	return func(r *Reducer) {
		r.every = every
		r.progress = fn
	}
}

// Reducer is an Idle/InRecord state machine. It keeps at most one record in memory.
type Reducer struct {
	agg      *aggregate.Aggregate
	norm     identity.Normalizer
	log      *slog.Logger
	every    int
	progress ProgressFunc

	state   state
	ident   string
	line    int
	stamps  [2]time.Time
	nstamps int
	extra   []string
	stats   model.ParseStats
}

// New returns a reducer writing into agg.
func New(agg *aggregate.Aggregate, opts ...Option) *Reducer {
	r := &Reducer{
		agg:  agg,
		norm: identity.Default(),
		log:  logging.Discard(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// InRecord reports whether a record is currently open.
func (r *Reducer) InRecord() bool {
	return r.state == stateInRecord
}

// Stats returns the counters collected so far.
func (r *Reducer) Stats() model.ParseStats {
	return r.stats
}

// Handle applies one event.
func (r *Reducer) Handle(ev events.Event) {
	switch ev.Kind {
	case events.Open:
		r.stats.Elements++
		if r.every > 0 && r.progress != nil && r.stats.Elements%r.every == 0 {
			r.progress(r.stats.Elements)
		}
		if ev.Name == RecordElement {
			r.open(ev)
		}
	case events.Text:
		if r.state == stateInRecord {
			r.text(ev)
		}
	case events.Close:
		if ev.Name == RecordElement && r.state == stateInRecord {
			r.close(ev)
		}
	}
}

func (r *Reducer) open(ev events.Event) {
	r.stats.Records++
	if r.state == stateInRecord {
		r.stats.Abandoned++
		r.discard(reasonAbandoned, "identity", r.ident, "line", r.line)
	}
	raw := ev.Attr(IdentityAttr)
	id, ok := r.norm.Normalize(raw)
	if !ok {
		r.stats.InvalidIdentity++
		var rawValue any
		if raw != "" {
			rawValue = raw
		}
		r.log.Warn("skipping record", "reason", reasonInvalidIdentity, "raw", rawValue, "line", ev.Line)
		return
	}
	r.state = stateInRecord
	r.ident = id
	r.line = ev.Line
	r.nstamps = 0
	r.extra = r.extra[:0]
}

func (r *Reducer) text(ev events.Event) {
	content := strings.TrimSpace(ev.Text)
	if content == "" {
		return
	}
	ts, err := timestamp.Extract(content)
	if err != nil {
		r.stats.InvalidTime++
		r.discard(reasonInvalidTime, "identity", r.ident, "raw", content, "line", ev.Line)
		return
	}
	if r.nstamps < len(r.stamps) {
		r.stamps[r.nstamps] = ts
		r.nstamps++
		return
	}
	r.extra = append(r.extra, content)
}

func (r *Reducer) close(ev events.Event) {
	defer r.reset()
	if r.nstamps < len(r.stamps) {
		r.stats.Incomplete++
		r.log.Warn("skipping record",
			"identity", r.ident,
			"timestamps", r.collected(),
			"reason", reasonIncomplete,
			"line", ev.Line)
		return
	}
	if len(r.extra) > 0 {
		r.stats.ExtraTimestamps += len(r.extra)
		r.log.Warn("suspicious record: extra timestamps ignored",
			"identity", r.ident,
			"extra", r.extra,
			"line", ev.Line)
	}
	parts, err := span.Split(r.stamps[0], r.stamps[1])
	if err != nil {
		r.stats.Reversed++
		r.log.Warn("skipping record",
			"identity", r.ident,
			"timestamps", r.collected(),
			"reason", reasonReversed,
			"line", ev.Line)
		return
	}
	for _, p := range parts {
		r.agg.Set(p.Date, r.ident, p.Duration)
	}
	r.stats.Accepted++
}

func (r *Reducer) discard(reason string, args ...any) {
	r.log.Warn("skipping record", append([]any{"reason", reason}, args...)...)
	r.reset()
}

func (r *Reducer) reset() {
	r.state = stateIdle
	r.ident = ""
	r.line = 0
	r.nstamps = 0
	r.extra = r.extra[:0]
}

func (r *Reducer) collected() []string {
	out := make([]string, 0, r.nstamps)
	for i := 0; i < r.nstamps; i++ {
		out = append(out, timestamp.Format(r.stamps[i]))
	}
	return out
}

// Run drains src into the aggregate. Any source error aborts the pass; the
// aggregate must then be treated as incomplete.
func (r *Reducer) Run(ctx context.Context, src events.Source) (model.ParseStats, error) {
	started := time.Now()
	err := r.drain(ctx, src)
	r.stats.Elapsed = time.Since(started)
	if err != nil {
		return r.stats, err
	}
	r.log.Info("parse finished",
		"records", r.stats.Records,
		"accepted", r.stats.Accepted,
		"discarded", r.stats.Discarded(),
		"elapsed", r.stats.Elapsed)
	return r.stats, nil
}

func (r *Reducer) drain(ctx context.Context, src events.Source) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		ev, err := src.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return err
		}
		r.Handle(ev)
	}
	if r.state == stateInRecord {
		r.stats.Abandoned++
		r.discard(reasonAbandoned, "identity", r.ident, "line", r.line)
	}
	return nil
}

// Parse reads an XML document from rd and returns the aggregate it describes.
func Parse(ctx context.Context, rd io.Reader, opts ...Option) (*aggregate.Aggregate, model.ParseStats, error) {
	agg := aggregate.New()
	stats, err := New(agg, opts...).Run(ctx, events.NewXMLSource(rd))
	if err != nil {
		return nil, stats, fmt.Errorf("parse: %w", err)
	}
	return agg, stats, nil
}
