package publish

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Agrid-Dev/linerating/internal/ampacity"
	"github.com/Agrid-Dev/linerating/internal/batch"
	"github.com/Agrid-Dev/linerating/internal/catalog"
)

type fakeWriter struct {
	msgs   []kafkago.Message
	err    error
	closed bool
}

func (w *fakeWriter) WriteMessages(_ context.Context, msgs ...kafkago.Message) error {
	if w.err != nil {
		return w.err
	}
	w.msgs = append(w.msgs, msgs...)
	return nil
}

func (w *fakeWriter) Close() error {
	w.closed = true
	return nil
}

var fixedNow = time.Date(2024, 7, 1, 12, 0, 0, 0, time.UTC)

func newTestPublisher(w *fakeWriter) *Publisher {
	return &Publisher{writer: w, now: func() time.Time { return fixedNow }}
}

func sampleTable(t *testing.T) batch.Table {
	p, err := ampacity.NewConductorProfile("Saturn", ampacity.TypeAAC, 21e-3, 0.110e-3, ampacity.LayerNone)
	require.NoError(t, err)
	return batch.Table{
		Conditions: []catalog.Condition{{Description: "summer breeze"}, {Description: "scorching"}},
		Rows: []batch.Row{{
			Entry: catalog.Entry{Manufacturer: "Acme", Codename: "Saturn", Profile: p},
			Cells: []batch.Cell{{Rating: 732.75}, {Err: ampacity.ErrNegativeHeatBalance}},
		}},
	}
}

func TestPublish(t *testing.T) {
	w := &fakeWriter{}
	pub := newTestPublisher(w)

	require.NoError(t, pub.Publish(context.Background(), sampleTable(t)))
	require.Len(t, w.msgs, 1)

	msg := w.msgs[0]
	assert.Equal(t, []byte("Saturn"), msg.Key)
	assert.Equal(t, "published_at", msg.Headers[1].Key)
	assert.Equal(t, []byte(fixedNow.Format(time.RFC3339)), msg.Headers[1].Value)

	var got rowMessage
	require.NoError(t, json.Unmarshal(msg.Value, &got))
	assert.Equal(t, "AAC", got.Type)
	require.Len(t, got.Ratings, 2)
	require.NotNil(t, got.Ratings[0].Rating)
	assert.Equal(t, 732.75, *got.Ratings[0].Rating)
	assert.Nil(t, got.Ratings[1].Rating)
	assert.Equal(t, "domain", got.Ratings[1].Category)
}

func TestPublish_EmptyTableWritesNothing(t *testing.T) {
	w := &fakeWriter{err: errors.New("should not be called")}
	require.NoError(t, newTestPublisher(w).Publish(context.Background(), batch.Table{}))
}

func TestPublish_WriterError(t *testing.T) {
	w := &fakeWriter{err: errors.New("broker down")}
	err := newTestPublisher(w).Publish(context.Background(), sampleTable(t))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "broker down")
}

func TestClose(t *testing.T) {
	w := &fakeWriter{}
	require.NoError(t, newTestPublisher(w).Close())
	assert.True(t, w.closed)
}
