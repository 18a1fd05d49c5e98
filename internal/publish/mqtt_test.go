package publish

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"battery-dispatch/internal/dispatch"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeToken struct {
	err  error
	done chan struct{}
}

func newToken(err error) *fakeToken {
	t := &fakeToken{err: err, done: make(chan struct{})}
	close(t.done)
	return t
}

func (t *fakeToken) Wait() bool                     { <-t.done; return true }
func (t *fakeToken) WaitTimeout(time.Duration) bool { return true }
func (t *fakeToken) Done() <-chan struct{}          { return t.done }
func (t *fakeToken) Error() error                   { return t.err }

type message struct {
	topic   string
	payload []byte
}

type fakeClient struct {
	sent []message
	err  error
}

func (c *fakeClient) Publish(topic string, _ byte, _ bool, payload interface{}) mqtt.Token {
	c.sent = append(c.sent, message{topic: topic, payload: payload.([]byte)})
	return newToken(c.err)
}

func result() *dispatch.Result {
	return &dispatch.Result{
		PredictedCost: 3.5,
		CVaR:          4,
		Periods: []dispatch.Period{
			{Hour: 0, Units: []dispatch.UnitDispatch{{Name: "a", ChargeKW: 5, EnergyKWh: 15}, {Name: "b"}}},
			{Hour: 1, Units: []dispatch.UnitDispatch{{Name: "a", DischargeKW: 5, EnergyKWh: 10}, {Name: "b"}}},
		},
	}
}

func TestPublishSchedule(t *testing.T) {
	c := &fakeClient{}
	p := NewPublisher(c, Options{Topic: "site/"}, nil)
	p.now = func() time.Time { return time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC) }

	require.NoError(t, p.PublishSchedule(context.Background(), "run-1", result()))
	require.Len(t, c.sent, 3)
	assert.Equal(t, "site/schedule", c.sent[0].topic)

	var msg ScheduleMessage
	require.NoError(t, json.Unmarshal(c.sent[0].payload, &msg))
	assert.Equal(t, "run-1", msg.RunID)
	assert.Len(t, msg.Periods, 2)
	assert.Equal(t, 3.5, msg.PredictedCost)

	topics := map[string][]byte{}
	for _, m := range c.sent[1:] {
		topics[m.topic] = m.payload
	}
	require.Contains(t, topics, "site/units/a/setpoints")
	var points []UnitSetpoint
	require.NoError(t, json.Unmarshal(topics["site/units/a/setpoints"], &points))
	assert.Equal(t, []UnitSetpoint{{Hour: 0, PowerKW: 5, EnergyKWh: 15}, {Hour: 1, PowerKW: -5, EnergyKWh: 10}}, points)
}

func TestPublishError(t *testing.T) {
	c := &fakeClient{err: errors.New("broker down")}
	p := NewPublisher(c, Options{}, nil)
	err := p.PublishSchedule(context.Background(), "", result())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "dispatch/schedule")
	assert.Len(t, c.sent, 1)
}
