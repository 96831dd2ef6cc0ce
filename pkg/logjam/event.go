package logjam

import (
	"fmt"
)

// Event is a discriminated entry that carries its own fixed list of
// variables. On the wire it is a single code byte followed by every
// variable, packed in declaration order:
//
//	| code(1) | var0 | var1 | ... |
type Event struct {
	Name   string  `yaml:"name"`
	Code   int     `yaml:"code"`
	Fields []Field `yaml:"fields"`
}

type compiledEvent struct {
	Event
	codec *Codec
}

// EventSet is an immutable collection of events sharing one code space.
// Codes below the configured base are reserved for the generic range and
// rejected.
type EventSet struct {
	base   int
	events []*compiledEvent
	byCode map[int]*compiledEvent
	byName map[string]*compiledEvent
}

// BuildEvents validates events and their variables. Variable codes are
// irrelevant inside an event and are reassigned sequentially.
func BuildEvents(events []Event, cfgs ...Config) (*EventSet, error) {
	opts, err := applyConfig(cfgs)
	if err != nil {
		return nil, err
	}
	lo := initLogger(opts)

	s := &EventSet{
		base:   opts.enumBase,
		events: make([]*compiledEvent, 0, len(events)),
		byCode: make(map[int]*compiledEvent, len(events)),
		byName: make(map[string]*compiledEvent, len(events)),
	}
	for _, e := range events {
		if e.Name == "" {
			return nil, fmt.Errorf("%w: empty event name", ErrInvalidName)
		}
		if e.Code < s.base || e.Code > 0xFF {
			return nil, fmt.Errorf("%w: event %q has code %#x, allowed range is %#x-0xff", ErrInvalidCode, e.Name, e.Code, s.base)
		}
		if _, ok := s.byName[e.Name]; ok {
			return nil, fmt.Errorf("%w: event %q", ErrDuplicateName, e.Name)
		}
		if prev, ok := s.byCode[e.Code]; ok {
			return nil, fmt.Errorf("%w: %#x used by %q and %q", ErrDuplicateEnumCode, e.Code, prev.Name, e.Name)
		}

		cat, err := Build(e.Name, Sequential(0, e.Fields), WithLogger(lo))
		if err != nil {
			return nil, fmt.Errorf("error building event %q: %w", e.Name, err)
		}
		ce := &compiledEvent{
			Event: Event{Name: e.Name, Code: e.Code, Fields: cat.Fields()},
			codec: NewCodec(cat),
		}
		s.events = append(s.events, ce)
		s.byCode[e.Code] = ce
		s.byName[e.Name] = ce
	}
	return s, nil
}

// Base returns the lowest accepted event code.
func (s *EventSet) Base() int {
	return s.base
}

// Events returns the events in declaration order.
func (s *EventSet) Events() []Event {
	out := make([]Event, 0, len(s.events))
	for _, e := range s.events {
		out = append(out, e.Event)
	}
	return out
}

// Size returns the encoded size of the named event including its code byte.
func (s *EventSet) Size(name string) (int, error) {
	e, ok := s.byName[name]
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrUnknownEvent, name)
	}
	return 1 + e.codec.cat.dataBytes, nil
}

// Encode packs the named event. values must hold one Go integer per
// variable, in declaration order.
func (s *EventSet) Encode(name string, values ...any) ([]byte, error) {
	e, ok := s.byName[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownEvent, name)
	}
	if len(values) != len(e.Fields) {
		return nil, fmt.Errorf("%w: event %q takes %d values, got %d", ErrSizeMismatch, name, len(e.Fields), len(values))
	}

	var (
		data   = e.codec.NewData()
		bitmap = e.codec.NewBitmap()
	)
	for i, v := range values {
		raw, signed, err := toRaw(v)
		if err != nil {
			return nil, fmt.Errorf("event %q variable %q: %w", name, e.Fields[i].Name, err)
		}
		if _, err := e.codec.update(data, bitmap, i, raw, signed, false); err != nil {
			return nil, fmt.Errorf("event %q: %w", name, err)
		}
	}

	buf := make([]byte, 1+len(data))
	buf[0] = byte(e.Code)
	copy(buf[1:], data)
	return buf, nil
}

// EventRecord is a decoded event.
type EventRecord struct {
	event *compiledEvent
	data  []byte
}

func (r *EventRecord) Name() string {
	return r.event.Name
}

func (r *EventRecord) Code() int {
	return r.event.Code
}

// Int returns a variable sign-extended according to its declaration.
func (r *EventRecord) Int(name string) (int64, error) {
	f, err := r.event.codec.cat.Lookup(name)
	if err != nil {
		return 0, err
	}
	return r.event.codec.Int(r.data, f.Code)
}

// Uint returns a variable zero-extended.
func (r *EventRecord) Uint(name string) (uint64, error) {
	f, err := r.event.codec.cat.Lookup(name)
	if err != nil {
		return 0, err
	}
	return r.event.codec.Uint(r.data, f.Code)
}

// Decode reads one event from the head of buf and returns it with the number
// of bytes consumed.
func (s *EventSet) Decode(buf []byte) (*EventRecord, int, error) {
	if len(buf) < 1 {
		return nil, 0, fmt.Errorf("%w: missing event code", ErrBufferTooShort)
	}
	e, ok := s.byCode[int(buf[0])]
	if !ok {
		return nil, 0, fmt.Errorf("%w: code %#x", ErrUnknownEvent, buf[0])
	}
	data := e.codec.NewData()
	if err := e.codec.DecodeAll(buf[1:], data); err != nil {
		return nil, 0, fmt.Errorf("event %q: %w", e.Name, err)
	}
	return &EventRecord{event: e, data: data}, 1 + len(data), nil
}

// toRaw returns the 64-bit pattern of an integer and whether it is signed.
func toRaw(v any) (uint64, bool, error) {
	switch x := v.(type) {
	case int:
		return uint64(x), true, nil
	case int8:
		return uint64(x), true, nil
	case int16:
		return uint64(x), true, nil
	case int32:
		return uint64(x), true, nil
	case int64:
		return uint64(x), true, nil
	case uint:
		return uint64(x), false, nil
	case uint8:
		return uint64(x), false, nil
	case uint16:
		return uint64(x), false, nil
	case uint32:
		return uint64(x), false, nil
	case uint64:
		return x, false, nil
	case bool:
		if x {
			return 1, false, nil
		}
		return 0, false, nil
	}
	return 0, false, fmt.Errorf("%w: unsupported value type %T", ErrValueRange, v)
}
