// Package events turns a markup document into a pull stream of structural events.
package events

import (
	"encoding/xml"
	"errors"
	"fmt"
	"io"

	"golang.org/x/net/html/charset"
)

// Kind identifies a structural event.
type Kind int

const (
	// Open is an element start.
	Open Kind = iota + 1
	// Text is character data between tags.
	Text
	// Close is an element end.
	Close
)

func (k Kind) String() string {
	switch k {
	case Open:
		return "open"
	case Text:
		return "text"
	case Close:
		return "close"
	default:
		return "unknown"
	}
}

// Event is one structural notification. Attrs is only set for Open, Text only for Text.
type Event struct {
	Kind  Kind
	Name  string
	Attrs map[string]string
	Text  string
	Line  int
}

// Attr returns the named attribute, or "" when absent.
func (e Event) Attr(name string) string {
	return e.Attrs[name]
}

// Source yields events in document order. Next returns io.EOF after the last event.
type Source interface {
	Next() (Event, error)
}

// XMLSource reads events from an XML document without buffering it.
type XMLSource struct {
	dec *xml.Decoder
}

// NewXMLSource wraps r in a streaming XML decoder. Documents declaring a
// non-UTF-8 encoding (ISO-8859-1, windows-1251, ...) are transcoded on the fly.
func NewXMLSource(r io.Reader) *XMLSource {
	dec := xml.NewDecoder(r)
	dec.Strict = true
	dec.CharsetReader = charset.NewReaderLabel
	return &XMLSource{dec: dec}
}

// Next returns the next open, text or close event. Comments, processing
// instructions and directives are skipped.
func (s *XMLSource) Next() (Event, error) {
	for {
		tok, err := s.dec.Token()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return Event{}, io.EOF
			}
			line, _ := s.dec.InputPos()
			return Event{}, fmt.Errorf("read xml at line %d: %w", line, err)
		}
		line, _ := s.dec.InputPos()
		switch t := tok.(type) {
		case xml.StartElement:
			ev := Event{Kind: Open, Name: t.Name.Local, Line: line}
			if len(t.Attr) > 0 {
				ev.Attrs = make(map[string]string, len(t.Attr))
				for _, a := range t.Attr {
					ev.Attrs[a.Name.Local] = a.Value
				}
			}
			return ev, nil
		case xml.EndElement:
			return Event{Kind: Close, Name: t.Name.Local, Line: line}, nil
		case xml.CharData:
			return Event{Kind: Text, Text: string(t), Line: line}, nil
		}
	}
}

// SliceSource replays a fixed list of events.
type SliceSource struct {
	events []Event
	pos    int
}

// NewSliceSource returns a source over evs.
func NewSliceSource(evs ...Event) *SliceSource {
	return &SliceSource{events: evs}
}

// Next implements Source.
func (s *SliceSource) Next() (Event, error) {
	if s.pos >= len(s.events) {
		return Event{}, io.EOF
	}
	ev := s.events[s.pos]
	s.pos++
	return ev, nil
}
