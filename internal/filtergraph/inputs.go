package filtergraph

import (
	"fmt"
	"strconv"
)

// Slot is a resolved reference to one ffmpeg input. Its index is assigned
// by Inputs.Add and never tracked by hand.
type Slot struct {
	name  string
	index int
}

// Name returns the slot name given to Inputs.Add.
func (s Slot) Name() string { return s.name }

// Index returns the ffmpeg input index.
func (s Slot) Index() int { return s.index }

// Video returns the pad selecting the slot's video stream.
func (s Slot) Video() Pad { return Pad(fmt.Sprintf("%d:v", s.index)) }

// Audio returns the pad selecting the slot's audio stream.
func (s Slot) Audio() Pad { return Pad(fmt.Sprintf("%d:a", s.index)) }

// InputOption adjusts how an input is opened.
type InputOption func(*input)

// LoopFor opens a still image as a looping stream lasting seconds.
func LoopFor(seconds float64) InputOption {
	return func(in *input) {
		in.pre = append(in.pre, "-loop", "1", "-t", FormatSeconds(seconds))
	}
}

// SeekTo starts reading the input at seconds. Zero or negative offsets add
// nothing.
func SeekTo(seconds float64) InputOption {
	return func(in *input) {
		if seconds > 0 {
			in.pre = append(in.pre, "-ss", FormatSeconds(seconds))
		}
	}
}

// StreamLoop repeats the input indefinitely; the graph decides when it ends.
func StreamLoop() InputOption {
	return func(in *input) {
		in.pre = append(in.pre, "-stream_loop", "-1")
	}
}

type input struct {
	name string
	path string
	pre  []string
}

// Inputs is the ordered list of ffmpeg inputs addressed by name.
type Inputs struct {
	list   []input
	byName map[string]int
}

// Add appends a named input and returns its slot. Adding a name twice
// returns the existing slot unchanged.
func (in *Inputs) Add(name, path string, opts ...InputOption) Slot {
	if in.byName == nil {
		in.byName = make(map[string]int)
	}
	if idx, ok := in.byName[name]; ok {
		return Slot{name: name, index: idx}
	}
	entry := input{name: name, path: path}
	for _, opt := range opts {
		opt(&entry)
	}
	idx := len(in.list)
	in.list = append(in.list, entry)
	in.byName[name] = idx
	return Slot{name: name, index: idx}
}

// Slot looks up a previously added input.
func (in *Inputs) Slot(name string) (Slot, bool) {
	idx, ok := in.byName[name]
	if !ok {
		return Slot{}, false
	}
	return Slot{name: name, index: idx}, true
}

// Len reports the number of inputs.
func (in *Inputs) Len() int { return len(in.list) }

// Args renders the inputs as ffmpeg arguments in slot order.
func (in *Inputs) Args() []string {
	args := make([]string, 0, len(in.list)*4)
	for _, entry := range in.list {
		args = append(args, entry.pre...)
		args = append(args, "-i", entry.path)
	}
	return args
}

// FormatSeconds renders a duration in seconds with millisecond precision and
// no trailing zeros.
func FormatSeconds(seconds float64) string {
	ms := int64(seconds*1000 + 0.5)
	return strconv.FormatFloat(float64(ms)/1000, 'f', -1, 64)
}
