package journal

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shopsim-xyz/go-shopsim/customer"
	"github.com/shopsim-xyz/go-shopsim/event"
)

func TestRecordsBusTraffic(t *testing.T) {
	bus := event.NewBus()
	j := New()
	j.Attach(bus, customer.TopicServed, customer.TopicLeft)

	bus.Publish(&event.Signal{Topic: customer.TopicServed, Source: "c1", Day: 1, At: 10})
	bus.Publish(&event.Signal{Topic: customer.TopicLeft, Source: "c2", Day: 1, At: 20})
	bus.Publish(&event.Signal{Topic: customer.TopicAngry, Source: "c3", Day: 1, At: 30})

	require.Equal(t, 2, j.Len(), "unsubscribed topics are not recorded")
	assert.Equal(t, "c1", j.Entries()[0].Source)
	assert.Equal(t, customer.TopicLeft, j.Entries()[1].Topic)
}

func TestJSONLRoundTrip(t *testing.T) {
	j := New()
	j.Add(Entry{Day: 1, At: 5, Topic: customer.TopicServed, Source: "c1", Data: 250.0})
	j.Add(Entry{Day: 2, At: 7.5, Topic: customer.TopicKicked, Source: "c2"})

	var buf bytes.Buffer
	require.NoError(t, j.WriteJSONL(&buf))

	parsed, err := ReadJSONL(&buf)
	require.NoError(t, err)
	require.Equal(t, 2, parsed.Len())
	assert.Equal(t, j.Entries()[0].Topic, parsed.Entries()[0].Topic)
	assert.Equal(t, 2, parsed.Entries()[1].Day)
	assert.InDelta(t, 7.5, parsed.Entries()[1].At, 1e-9)
}

func TestReadJSONLRejectsMalformedLine(t *testing.T) {
	_, err := ReadJSONL(bytes.NewBufferString("{\"day\":1}\nnot json\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "line 2")
}

func TestSummaryOrdersByFrequency(t *testing.T) {
	j := New()
	for i := 0; i < 3; i++ {
		j.Add(Entry{Topic: customer.TopicServed})
	}
	j.Add(Entry{Topic: customer.TopicLeft})
	j.Add(Entry{Topic: customer.TopicAngry})

	summary := j.Summary()
	require.Len(t, summary, 3)
	assert.Equal(t, TopicCount{Topic: customer.TopicServed, Count: 3}, summary[0])
	assert.Equal(t, customer.TopicAngry, summary[1].Topic, "ties break alphabetically")
}

func TestDayEntries(t *testing.T) {
	j := New()
	j.Add(Entry{Day: 1, Topic: "a"})
	j.Add(Entry{Day: 2, Topic: "b"})
	j.Add(Entry{Day: 2, Topic: "c"})

	assert.Len(t, j.DayEntries(2), 2)
	assert.Empty(t, j.DayEntries(3))
}
