// Package journal records the simulation's event stream and reads it back
// for analysis. Entries are exported as JSONL, one event per line, so runs
// can be diffed, replayed through tooling, or tailed while a long simulation
// is running.
package journal

import (
	"bufio"
	"io"
	"os"
	"sort"

	json "github.com/goccy/go-json"
	"github.com/pkg/errors"

	"github.com/shopsim-xyz/go-shopsim/clock"
	"github.com/shopsim-xyz/go-shopsim/customer"
	"github.com/shopsim-xyz/go-shopsim/dispatch"
	"github.com/shopsim-xyz/go-shopsim/economy"
	"github.com/shopsim-xyz/go-shopsim/event"
	"github.com/shopsim-xyz/go-shopsim/register"
	"github.com/shopsim-xyz/go-shopsim/shop"
)

// Entry is one recorded event.
type Entry struct {
	Day    int     `json:"day"`
	At     float64 `json:"at"`
	Topic  string  `json:"topic"`
	Source string  `json:"source"`
	Data   any     `json:"data,omitempty"`
}

// DefaultTopics lists every topic the shop's components publish.
func DefaultTopics() []string {
	return []string{
		clock.TopicDayStarted,
		clock.TopicDayEnded,
		clock.TopicPeakStarted,
		clock.TopicPeakEnded,
		clock.TopicAlcoholRestriction,
		economy.TopicVictory,
		economy.TopicGameOver,
		economy.TopicFineApplied,
		economy.TopicDayClosed,
		customer.TopicNeedsHelp,
		customer.TopicAngry,
		customer.TopicServed,
		customer.TopicLeft,
		customer.TopicKicked,
		customer.TopicExitRequested,
		customer.TopicViolation,
		register.TopicNeedsAttention,
		register.TopicBroken,
		register.TopicRepaired,
		register.TopicFreed,
		register.TopicToggledOff,
		register.TopicToggledOn,
		register.TopicUpgraded,
		dispatch.TopicLaneOpened,
		dispatch.TopicLaneClosed,
		shop.TopicLevelUp,
	}
}

// Journal accumulates entries in arrival order.
type Journal struct {
	entries []Entry
}

func New() *Journal { return &Journal{} }

// Attach subscribes the journal to the given topics, or to every known
// topic when none are named.
func (j *Journal) Attach(bus *event.Bus, topics ...string) {
	if len(topics) == 0 {
		topics = DefaultTopics()
	}
	for _, topic := range topics {
		bus.Subscribe("journal", topic, j.record)
	}
}

func (j *Journal) record(sig *event.Signal) {
	j.entries = append(j.entries, Entry{
		Day:    sig.Day,
		At:     sig.At,
		Topic:  sig.Topic,
		Source: sig.Source,
		Data:   sig.Data,
	})
}

// Add appends an entry directly, for callers that construct entries without
// a bus.
func (j *Journal) Add(e Entry) { j.entries = append(j.entries, e) }

// Entries returns the recorded stream in arrival order.
func (j *Journal) Entries() []Entry { return j.entries }

// Len reports the number of recorded entries.
func (j *Journal) Len() int { return len(j.entries) }

// WriteJSONL streams the journal to w, one JSON object per line.
func (j *Journal) WriteJSONL(w io.Writer) error {
	enc := json.NewEncoder(w)
	for i := range j.entries {
		if err := enc.Encode(&j.entries[i]); err != nil {
			return errors.Wrapf(err, "journal: encoding entry %d", i)
		}
	}
	return nil
}

// ExportFile writes the journal to a JSONL file.
func (j *Journal) ExportFile(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrap(err, "journal: creating export file")
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	if err := j.WriteJSONL(w); err != nil {
		return err
	}
	return errors.Wrap(w.Flush(), "journal: flushing export file")
}

// ReadJSONL parses a journal from a JSONL stream. Blank lines are skipped;
// a malformed line aborts with its line number.
func ReadJSONL(r io.Reader) (*Journal, error) {
	j := New()
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	line := 0
	for scanner.Scan() {
		line++
		raw := scanner.Bytes()
		if len(raw) == 0 {
			continue
		}
		var e Entry
		if err := json.Unmarshal(raw, &e); err != nil {
			return nil, errors.Wrapf(err, "journal: line %d", line)
		}
		j.entries = append(j.entries, e)
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.Wrap(err, "journal: reading stream")
	}
	return j, nil
}

// ImportFile reads a journal back from a JSONL file.
func ImportFile(path string) (*Journal, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "journal: opening import file")
	}
	defer f.Close()
	return ReadJSONL(f)
}

// TopicCount is one row of a journal summary.
type TopicCount struct {
	Topic string `json:"topic"`
	Count int    `json:"count"`
}

// Summary aggregates the stream per topic, most frequent first with ties
// broken by name.
func (j *Journal) Summary() []TopicCount {
	counts := make(map[string]int)
	for _, e := range j.entries {
		counts[e.Topic]++
	}
	out := make([]TopicCount, 0, len(counts))
	for topic, n := range counts {
		out = append(out, TopicCount{Topic: topic, Count: n})
	}
	sort.Slice(out, func(a, b int) bool {
		if out[a].Count != out[b].Count {
			return out[a].Count > out[b].Count
		}
		return out[a].Topic < out[b].Topic
	})
	return out
}

// DayEntries filters the stream to one simulated day.
func (j *Journal) DayEntries(day int) []Entry {
	var out []Entry
	for _, e := range j.entries {
		if e.Day == day {
			out = append(out, e)
		}
	}
	return out
}
