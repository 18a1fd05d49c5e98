// Package publish sends committed schedules to an MQTT broker.
package publish

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"battery-dispatch/internal/dispatch"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"go.uber.org/zap"
)

// Client is the part of mqtt.Client the publisher needs.
type Client interface {
	Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token
}

// Options configure a broker connection.
type Options struct {
	Broker   string // e.g. tcp://localhost:1883
	ClientID string
	Username string
	Password string
	Topic    string // prefix, e.g. dispatch/site-1
	QoS      byte
	Retain   bool
	Timeout  time.Duration
}

// Connect opens a paho client with auto-reconnect.
func Connect(opts Options, logger *zap.Logger) (mqtt.Client, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	o := mqtt.NewClientOptions()
	o.AddBroker(opts.Broker)
	o.SetClientID(opts.ClientID)
	o.SetUsername(opts.Username)
	o.SetPassword(opts.Password)
	o.SetAutoReconnect(true)
	o.SetConnectRetryInterval(5 * time.Second)
	o.SetConnectionLostHandler(func(_ mqtt.Client, err error) {
		logger.Warn("mqtt connection lost", zap.Error(err))
	})
	o.SetOnConnectHandler(func(mqtt.Client) {
		logger.Info("connected to mqtt broker", zap.String("broker", opts.Broker))
	})

	client := mqtt.NewClient(o)
	token := client.Connect()
	if !token.WaitTimeout(timeoutOrDefault(opts.Timeout)) {
		return nil, fmt.Errorf("connect %s: timed out", opts.Broker)
	}
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("connect %s: %w", opts.Broker, err)
	}
	return client, nil
}

func timeoutOrDefault(d time.Duration) time.Duration {
	if d <= 0 {
		return 10 * time.Second
	}
	return d
}

// UnitSetpoint is one unit's set point for one hour.
type UnitSetpoint struct {
	Hour      int     `json:"hour"`
	PowerKW   float64 `json:"power_kw"` // positive charges
	EnergyKWh float64 `json:"energy_kwh"`
}

// ScheduleMessage is the payload on <topic>/schedule.
type ScheduleMessage struct {
	RunID         string            `json:"run_id,omitempty"`
	PublishedAt   time.Time         `json:"published_at"`
	PredictedCost float64           `json:"predicted_cost"`
	CVaR          float64           `json:"cvar"`
	Periods       []dispatch.Period `json:"periods"`
}

// Publisher writes schedules under a topic prefix.
type Publisher struct {
	client Client
	opts   Options
	logger *zap.Logger
	now    func() time.Time
}

func NewPublisher(client Client, opts Options, logger *zap.Logger) *Publisher {
	if logger == nil {
		logger = zap.NewNop()
	}
	opts.Topic = strings.TrimSuffix(opts.Topic, "/")
	if opts.Topic == "" {
		opts.Topic = "dispatch"
	}
	return &Publisher{client: client, opts: opts, logger: logger, now: time.Now}
}

// PublishSchedule sends the full schedule to <topic>/schedule and each
// unit's set points to <topic>/units/<name>/setpoints.
func (p *Publisher) PublishSchedule(ctx context.Context, runID string, res *dispatch.Result) error {
	msg := ScheduleMessage{
		RunID:         runID,
		PublishedAt:   p.now().UTC(),
		PredictedCost: res.PredictedCost,
		CVaR:          res.CVaR,
		Periods:       res.Periods,
	}
	if err := p.send(ctx, p.opts.Topic+"/schedule", msg); err != nil {
		return err
	}
	for name, points := range setpoints(res) {
		if err := p.send(ctx, fmt.Sprintf("%s/units/%s/setpoints", p.opts.Topic, name), points); err != nil {
			return err
		}
	}
	return nil
}

func setpoints(res *dispatch.Result) map[string][]UnitSetpoint {
	out := map[string][]UnitSetpoint{}
	for _, per := range res.Periods {
		for _, u := range per.Units {
			out[u.Name] = append(out[u.Name], UnitSetpoint{
				Hour:      per.Hour,
				PowerKW:   u.ChargeKW - u.DischargeKW,
				EnergyKWh: u.EnergyKWh,
			})
		}
	}
	return out
}

func (p *Publisher) send(ctx context.Context, topic string, v any) error {
	payload, err := json.Marshal(v)
	if err != nil {
		return err
	}
	token := p.client.Publish(topic, p.opts.QoS, p.opts.Retain, payload)
	select {
	case <-token.Done():
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(timeoutOrDefault(p.opts.Timeout)):
		return fmt.Errorf("publish %s: timed out", topic)
	}
	if err := token.Error(); err != nil {
		p.logger.Warn("mqtt publish failed", zap.String("topic", topic), zap.Error(err))
		return fmt.Errorf("publish %s: %w", topic, err)
	}
	p.logger.Debug("mqtt published", zap.String("topic", topic), zap.Int("bytes", len(payload)))
	return nil
}
