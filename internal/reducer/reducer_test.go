package reducer

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/verte-zerg/tally/internal/aggregate"
	"github.com/verte-zerg/tally/internal/events"
	"github.com/verte-zerg/tally/internal/logging"
	"github.com/verte-zerg/tally/internal/model"
)

func date(day int) model.Date {
	return model.NewDate(2011, time.December, day)
}

func hms(h, m, s int) time.Duration {
	return time.Duration(h)*time.Hour + time.Duration(m)*time.Minute + time.Duration(s)*time.Second
}

func open(name string) events.Event {
	return events.Event{Kind: events.Open, Name: RecordElement, Attrs: map[string]string{IdentityAttr: name}}
}

func text(s string) events.Event {
	return events.Event{Kind: events.Text, Text: s}
}

func closeRecord() events.Event {
	return events.Event{Kind: events.Close, Name: RecordElement}
}

func run(t *testing.T, evs ...events.Event) (*aggregate.Aggregate, model.ParseStats) {
	t.Helper()
	agg := aggregate.New()
	stats, err := New(agg).Run(context.Background(), events.NewSliceSource(evs...))
	require.NoError(t, err)
	return agg, stats
}

func TestParseFixture(t *testing.T) {
	f, err := os.Open("../../testdata/visits.xml")
	require.NoError(t, err)
	defer f.Close()

	var logBuf bytes.Buffer
	agg, stats, err := Parse(context.Background(), f, WithLogger(logging.New(&logBuf, slog.LevelInfo)))
	require.NoError(t, err)

	want := []model.Entry{
		{Date: date(21), Identity: "i.ivanov", Duration: 31695 * time.Second},
		{Date: date(21), Identity: "a.stepanova", Duration: 3644 * time.Second},
		{Date: date(21), Identity: "v.petrov", Duration: 10844 * time.Second},
		{Date: date(22), Identity: "v.petrov", Duration: 24 * time.Hour},
		{Date: date(22), Identity: "a.stepanova", Duration: 24010 * time.Second},
		{Date: date(23), Identity: "v.petrov", Duration: 24 * time.Hour},
		{Date: date(23), Identity: "v.lomachenkoivanov", Duration: 35624 * time.Second},
		{Date: date(24), Identity: "v.petrov", Duration: 24 * time.Hour},
		{Date: date(25), Identity: "v.petrov", Duration: 34810 * time.Second},
	}
	assert.Equal(t, want, agg.Entries())

	assert.Equal(t, 9, stats.Records)
	assert.Equal(t, 5, stats.Accepted)
	assert.Equal(t, 2, stats.InvalidIdentity)
	assert.Equal(t, 1, stats.InvalidTime)
	assert.Equal(t, 1, stats.Incomplete)
	assert.Equal(t, 27, stats.Elements)

	logs := logBuf.String()
	assert.Contains(t, logs, `raw=12345`)
	assert.Contains(t, logs, `reason="invalid timestamp"`)
	assert.Contains(t, logs, `reason="fewer than two timestamps"`)
	assert.Contains(t, logs, "parse finished")
}

func TestParseLatin1Document(t *testing.T) {
	doc := "<?xml version=\"1.0\" encoding=\"ISO-8859-1\"?>\n" +
		"<people site=\"Caf\xe9 Central\">\n" +
		"<person full_name=\"I.Ivanov\"><start>21-12-2011 09:00:00</start><end>21-12-2011 17:48:15</end></person>\n" +
		"<person full_name=\"A.Stepanova\"><start>21-12-2011 23:00:00</start><end>22-12-2011 01:00:00</end></person>\n" +
		"</people>"
	agg, stats, err := Parse(context.Background(), strings.NewReader(doc))
	require.NoError(t, err)

	assert.Equal(t, []model.Entry{
		{Date: date(21), Identity: "i.ivanov", Duration: hms(8, 48, 15)},
		{Date: date(21), Identity: "a.stepanova", Duration: hms(0, 59, 59)},
		{Date: date(22), Identity: "a.stepanova", Duration: hms(1, 0, 0)},
	}, agg.Entries())
	assert.Equal(t, 2, stats.Accepted)
	assert.Zero(t, stats.Discarded())
}

func TestInvalidTimestampPoisonsRecord(t *testing.T) {
	agg, stats := run(t,
		open("a.b"),
		text("21-12-2011 09:00:00"),
		text("garbage"),
		text("21-12-2011 10:00:00"),
		text("21-12-2011 11:00:00"),
		closeRecord(),
		open("c.d"),
		text("21-12-2011 09:00:00"),
		text("21-12-2011 10:00:00"),
		closeRecord(),
	)
	_, ok := agg.Get(date(21), "a.b")
	assert.False(t, ok)
	got, ok := agg.Get(date(21), "c.d")
	require.True(t, ok)
	assert.Equal(t, time.Hour, got)
	assert.Equal(t, 1, stats.InvalidTime)
	assert.Equal(t, 1, stats.Accepted)
}

func TestTimestampOrderIsDocumentOrder(t *testing.T) {
	agg, stats := run(t,
		open("a.b"),
		text("21-12-2011 10:00:00"),
		text("21-12-2011 09:00:00"),
		closeRecord(),
	)
	assert.Zero(t, agg.Len())
	assert.Equal(t, 1, stats.Reversed)
}

func TestExtraTimestampsUseFirstTwo(t *testing.T) {
	var logBuf bytes.Buffer
	agg := aggregate.New()
	r := New(agg, WithLogger(logging.New(&logBuf, slog.LevelWarn)))
	for _, ev := range []events.Event{
		open("a.b"),
		text("21-12-2011 09:00:00"),
		text("21-12-2011 09:30:00"),
		text("21-12-2011 23:00:00"),
		closeRecord(),
	} {
		r.Handle(ev)
	}
	got, ok := agg.Get(date(21), "a.b")
	require.True(t, ok)
	assert.Equal(t, 30*time.Minute, got)
	assert.Equal(t, 1, r.Stats().ExtraTimestamps)
	assert.Contains(t, logBuf.String(), "suspicious record")
}

func TestLaterRecordOverwrites(t *testing.T) {
	agg, _ := run(t,
		open("a.b"), text("21-12-2011 09:00:00"), text("21-12-2011 17:00:00"), closeRecord(),
		open("A.B"), text("21-12-2011 09:00:00"), text("21-12-2011 10:00:00"), closeRecord(),
	)
	got, _ := agg.Get(date(21), "a.b")
	assert.Equal(t, time.Hour, got)
	assert.Equal(t, 1, agg.Len())
}

func TestStateTransitions(t *testing.T) {
	r := New(aggregate.New())
	assert.False(t, r.InRecord())

	r.Handle(events.Event{Kind: events.Close, Name: RecordElement})
	assert.False(t, r.InRecord())

	r.Handle(open("!!!"))
	assert.False(t, r.InRecord())
	r.Handle(text("21-12-2011 09:00:00"))
	assert.False(t, r.InRecord())

	r.Handle(open("x.y"))
	assert.True(t, r.InRecord())
	r.Handle(events.Event{Kind: events.Open, Name: "start"})
	r.Handle(text("   "))
	r.Handle(events.Event{Kind: events.Close, Name: "start"})
	assert.True(t, r.InRecord())
	r.Handle(closeRecord())
	assert.False(t, r.InRecord())
	assert.Equal(t, 1, r.Stats().Incomplete)
}

func TestUnclosedRecordIsAbandoned(t *testing.T) {
	agg, stats := run(t,
		open("a.b"), text("21-12-2011 09:00:00"),
		open("c.d"), text("21-12-2011 09:00:00"), text("21-12-2011 09:00:05"), closeRecord(),
		open("e.f"), text("21-12-2011 09:00:00"),
	)
	assert.Equal(t, 2, stats.Abandoned)
	assert.Equal(t, 1, agg.Len())
}

func TestProgress(t *testing.T) {
	var calls []int
	r := New(aggregate.New(), WithProgress(2, func(n int) { calls = append(calls, n) }))
	for i := 0; i < 5; i++ {
		r.Handle(events.Event{Kind: events.Open, Name: "item"})
	}
	assert.Equal(t, []int{2, 4}, calls)
}

func TestMalformedDocumentIsFatal(t *testing.T) {
	doc := `<people><person full_name="a.b"><start>21-12-2011 09:00:00</start></people>`
	agg, _, err := Parse(context.Background(), strings.NewReader(doc))
	require.Error(t, err)
	assert.Nil(t, agg)
}

type failingSource struct{ n int }

func (s *failingSource) Next() (events.Event, error) {
	s.n++
	if s.n > 2 {
		return events.Event{}, errors.New("disk on fire")
	}
	return open("a.b"), nil
}

func TestSourceErrorAborts(t *testing.T) {
	_, err := New(aggregate.New()).Run(context.Background(), &failingSource{})
	assert.EqualError(t, err, "disk on fire")
}

func TestCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := New(aggregate.New()).Run(ctx, events.NewSliceSource(open("a.b")))
	assert.ErrorIs(t, err, context.Canceled)
}
