package mqttctrl

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"reflect"
	"strings"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/Agrid-Dev/linerating/internal/ampacity"
	"github.com/Agrid-Dev/linerating/internal/line"
	"github.com/Agrid-Dev/linerating/internal/ports"
)

type Config struct {
	// Identity
	LineID string

	// MQTT connection
	BrokerURL string
	ClientID  string

	// Topics
	BaseTopic string

	// Behavior
	QoS             byte
	RetainSnapshot  bool
	PublishInterval time.Duration

	Username string
	Password string

	Logger *slog.Logger
}

type Controller struct {
	svc ports.LineService
	cfg Config
	log *slog.Logger

	client mqtt.Client
}

func New(svc ports.LineService, cfg Config) (*Controller, error) {
	// ---- defaults ----

	if cfg.BrokerURL == "" {
		cfg.BrokerURL = "tcp://localhost:1883"
	}

	if cfg.LineID == "" {
		return nil, errors.New("mqtt: LineID is required")
	}
	if cfg.BaseTopic == "" {
		cfg.BaseTopic = "linerating/" + cfg.LineID
	}
	if cfg.ClientID == "" {
		cfg.ClientID = "linerating-" + cfg.LineID
	}
	if cfg.PublishInterval <= 0 {
		cfg.PublishInterval = 1 * time.Second
	}
	if cfg.QoS > 1 {
		return nil, errors.New("mqtt: QoS must be 0 or 1")
	}
	log := cfg.Logger
	if log == nil {
		log = slog.Default()
	}
	return &Controller{
		svc: svc,
		cfg: cfg,
		log: log.With("controller", "mqtt", "line", cfg.LineID),
	}, nil
}

func (c *Controller) Run(ctx context.Context) error {
	opts := mqtt.NewClientOptions().
		AddBroker(c.cfg.BrokerURL).
		SetClientID(c.cfg.ClientID).
		SetAutoReconnect(true).
		SetConnectRetry(true).
		SetConnectRetryInterval(2 * time.Second)

	if c.cfg.Username != "" {
		opts.SetUsername(c.cfg.Username)
		opts.SetPassword(c.cfg.Password)
	}

	// Subscribe when connected/reconnected.
	opts.OnConnect = func(cl mqtt.Client) {
		topic := c.topic("set/+")
		token := cl.Subscribe(topic, c.cfg.QoS, c.onMessage)
		token.Wait()
		if err := token.Error(); err != nil {
			c.log.Error("subscribe failed", "topic", topic, "error", err)
		}
	}

	c.client = mqtt.NewClient(opts)
	tok := c.client.Connect()
	tok.Wait()
	if err := tok.Error(); err != nil {
		return fmt.Errorf("mqtt connect: %w", err)
	}
	c.log.Info("connected", "broker", c.cfg.BrokerURL, "base_topic", c.cfg.BaseTopic)

	// Publish loop: publish snapshot on interval, and only when changed.
	ticker := time.NewTicker(c.cfg.PublishInterval)
	defer ticker.Stop()

	last := c.publishSnapshot()

	for {
		select {
		case <-ctx.Done():
			c.client.Disconnect(250)
			return ctx.Err()

		case <-ticker.C:
			cur := c.svc.Get()
			if !reflect.DeepEqual(cur, last) {
				last = c.publishSnapshot()
			}
		}
	}
}

func (c *Controller) publishSnapshot() line.Snapshot {
	s := c.svc.Get()
	dto := snapshotDTO{
		LineID:               s.ID,
		Conductor:            s.Profile.Name(),
		AmbientTemperature:   s.Condition.AmbientTemperature,
		ConductorTemperature: s.Condition.ConductorTemperature,
		WindSpeed:            s.Condition.WindSpeed,
		Weathering:           s.Condition.Weathering.String(),
		TimeOfDay:            s.Condition.TimeOfDay.String(),
		UpdatedAt:            s.UpdatedAt,
	}
	if s.RatingAvailable() {
		r := s.Rating
		dto.Rating = &r
	} else {
		dto.RatingError = s.RatingErr.Error()
	}
	b, _ := json.Marshal(dto)
	c.client.Publish(c.topic("snapshot"), c.cfg.QoS, c.cfg.RetainSnapshot, b)
	return s
}

type snapshotDTO struct {
	LineID               string    `json:"line_id"`
	Conductor            string    `json:"conductor"`
	AmbientTemperature   float64   `json:"ambient_temperature"`
	ConductorTemperature float64   `json:"conductor_temperature"`
	WindSpeed            float64   `json:"wind_speed"`
	Weathering           string    `json:"weathering"`
	TimeOfDay            string    `json:"time_of_day"`
	Rating               *float64  `json:"rating"`
	RatingError          string    `json:"rating_error,omitempty"`
	UpdatedAt            time.Time `json:"updated_at"`
}

type conditionDTO struct {
	AmbientTemperature   *float64 `json:"t_a"`
	ConductorTemperature *float64 `json:"t_c"`
	WindSpeed            *float64 `json:"v"`
	Weathering           *string  `json:"weathering"`
	TimeOfDay            *string  `json:"time_of_day"`
}

// mutator parses the enums in d up front and returns a function overlaying
// the fields present in d on a condition. A weather station usually reports
// only some of them.
func (d conditionDTO) mutator() (func(*ampacity.AmbientCondition), error) {
	var (
		w   ampacity.Weathering
		tod ampacity.TimeOfDay
		err error
	)
	if d.Weathering != nil {
		if w, err = ampacity.ParseWeathering(*d.Weathering); err != nil {
			return nil, err
		}
	}
	if d.TimeOfDay != nil {
		if tod, err = ampacity.ParseTimeOfDay(*d.TimeOfDay); err != nil {
			return nil, err
		}
	}
	return func(cur *ampacity.AmbientCondition) {
		if d.AmbientTemperature != nil {
			cur.AmbientTemperature = *d.AmbientTemperature
		}
		if d.ConductorTemperature != nil {
			cur.ConductorTemperature = *d.ConductorTemperature
		}
		if d.WindSpeed != nil {
			cur.WindSpeed = *d.WindSpeed
		}
		if d.Weathering != nil {
			cur.Weathering = w
		}
		if d.TimeOfDay != nil {
			cur.TimeOfDay = tod
		}
	}, nil
}

// Command payload format: {"value": ...}
type valueReq[T any] struct {
	Value *T `json:"value"`
}

func (c *Controller) onMessage(_ mqtt.Client, msg mqtt.Message) {
	// topic format: <base>/set/<field>
	t := msg.Topic()
	prefix := strings.TrimRight(c.cfg.BaseTopic, "/") + "/set/"
	if !strings.HasPrefix(t, prefix) {
		return
	}
	field := strings.TrimPrefix(t, prefix)

	if err := c.dispatch(field, msg.Payload()); err != nil {
		c.log.Warn("command rejected", "field", field, "error", err)
	}
}

func (c *Controller) dispatch(field string, payload []byte) error {
	switch field {
	case "ambient_temperature":
		v, err := decodeValueStrict[float64](payload)
		if err != nil {
			return err
		}
		return c.svc.SetAmbientTemperature(v)

	case "conductor_temperature":
		v, err := decodeValueStrict[float64](payload)
		if err != nil {
			return err
		}
		return c.svc.SetConductorTemperature(v)

	case "wind_speed":
		v, err := decodeValueStrict[float64](payload)
		if err != nil {
			return err
		}
		return c.svc.SetWindSpeed(v)

	case "weathering":
		s, err := decodeValueStrict[string](payload)
		if err != nil {
			return err
		}
		w, err := ampacity.ParseWeathering(s)
		if err != nil {
			return err
		}
		return c.svc.SetWeathering(w)

	case "time_of_day":
		s, err := decodeValueStrict[string](payload)
		if err != nil {
			return err
		}
		tod, err := ampacity.ParseTimeOfDay(s)
		if err != nil {
			return err
		}
		return c.svc.SetTimeOfDay(tod)

	case "condition":
		d, err := decodeValueStrict[conditionDTO](payload)
		if err != nil {
			return err
		}
		mutate, err := d.mutator()
		if err != nil {
			return err
		}
		return c.svc.UpdateCondition(mutate)

	default:
		return fmt.Errorf("unknown field %q", field)
	}
}

func (c *Controller) topic(suffix string) string {
	return strings.TrimRight(c.cfg.BaseTopic, "/") + "/" + suffix
}

func decodeValueStrict[T any](b []byte) (T, error) {
	var zero T
	dec := json.NewDecoder(bytes.NewReader(b))
	dec.DisallowUnknownFields()
	var req valueReq[T]
	if err := dec.Decode(&req); err != nil {
		return zero, err
	}
	if req.Value == nil {
		return zero, errors.New("missing field 'value'")
	}
	return *req.Value, nil
}
