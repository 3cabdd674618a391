package app

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env/v2"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"

	"github.com/Agrid-Dev/linerating/internal/ampacity"
)

const envPrefix = "LINERATING_"

type Config struct {
	LineID      string            `koanf:"line_id"`
	Log         LogConfig         `koanf:"log"`
	Conductor   ConductorConfig   `koanf:"conductor"`
	Condition   ConditionConfig   `koanf:"condition"`
	Controllers ControllersConfig `koanf:"controllers"`
}

type LogConfig struct {
	Level  string `koanf:"level"`  // "debug" | "info" | "warn" | "error"
	Format string `koanf:"format"` // "text" | "json"
}

// ConductorConfig uses catalog units; Profile converts them to SI.
type ConductorConfig struct {
	Name              string  `koanf:"name"`
	Type              string  `koanf:"type"`
	DiameterMM        float64 `koanf:"diameter_mm"`
	DCResistanceOhmKM float64 `koanf:"dc_resistance_ohm_per_km"`
	LayerConstruction string  `koanf:"layer_construction"`
}

type ConditionConfig struct {
	AmbientTemperature   float64 `koanf:"ambient_temperature"`
	ConductorTemperature float64 `koanf:"conductor_temperature"`
	WindSpeed            float64 `koanf:"wind_speed"`
	Weathering           string  `koanf:"weathering"`  // "rural" | "industrial"
	TimeOfDay            string  `koanf:"time_of_day"` // "summer noon" | "winter night"
}

type ControllersConfig struct {
	HTTP   HTTPConfig   `koanf:"http"`
	MQTT   MQTTConfig   `koanf:"mqtt"`
	Modbus ModbusConfig `koanf:"modbus"`
}

type HTTPConfig struct {
	Enabled bool   `koanf:"enabled"`
	Addr    string `koanf:"addr"`
}

type MQTTConfig struct {
	Enabled         bool          `koanf:"enabled"`
	BrokerURL       string        `koanf:"broker_url"`
	ClientID        string        `koanf:"client_id"`
	BaseTopic       string        `koanf:"base_topic"`
	QoS             byte          `koanf:"qos"`
	RetainSnapshot  bool          `koanf:"retain_snapshot"`
	PublishInterval time.Duration `koanf:"publish_interval"`
	Username        string        `koanf:"username"`
	Password        string        `koanf:"password"`
}

type ModbusConfig struct {
	Enabled bool   `koanf:"enabled"`
	Addr    string `koanf:"addr"`
	UnitID  byte   `koanf:"unit_id"`
}

// Defaults describe the Saturn AAC conductor on a summer noon with a light
// breeze, served over HTTP only.
func Defaults() Config {
	return Config{
		LineID: "default",
		Log:    LogConfig{Level: "info", Format: "text"},
		Conductor: ConductorConfig{
			Name:              "Saturn",
			Type:              "AAC",
			DiameterMM:        21,
			DCResistanceOhmKM: 0.110,
		},
		Condition: ConditionConfig{
			AmbientTemperature:   35,
			ConductorTemperature: 85,
			WindSpeed:            1,
			Weathering:           "industrial",
			TimeOfDay:            "summer noon",
		},
		Controllers: ControllersConfig{
			HTTP: HTTPConfig{Addr: ":8080"},
			MQTT: MQTTConfig{
				BrokerURL:       "tcp://localhost:1883",
				PublishInterval: 1 * time.Second,
			},
			Modbus: ModbusConfig{Addr: "127.0.0.1:1502", UnitID: 1},
		},
	}
}

// LoadConfig layers defaults, the config file at path (yaml or json, optional)
// and LINERATING_* environment variables, in that order.
func LoadConfig(path string) (Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(Defaults(), "koanf"), nil); err != nil {
		return Config{}, fmt.Errorf("load defaults: %w", err)
	}

	if path != "" {
		if err := loadFile(k, path); err != nil {
			return Config{}, err
		}
	}

	if err := k.Load(env.Provider(".", env.Opt{
		Prefix: envPrefix,
		TransformFunc: func(key, value string) (string, any) {
			return envKeyTransform(strings.TrimPrefix(key, envPrefix)), value
		},
	}), nil); err != nil {
		return Config{}, fmt.Errorf("load env: %w", err)
	}

	var cfg Config
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}

	applyPortOverride(&cfg)
	applyDefaults(&cfg)
	return cfg, nil
}

func loadFile(k *koanf.Koanf, path string) error {
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			// Config file missing → use defaults
			return nil
		}
		return fmt.Errorf("read config: %w", err)
	}

	ext := strings.ToLower(filepath.Ext(path))
	var parser koanf.Parser
	switch ext {
	case ".yaml", ".yml":
		parser = yaml.Parser()
	case ".json":
		parser = json.Parser()
	default:
		return fmt.Errorf("unsupported config extension %q", ext)
	}
	if err := k.Load(file.Provider(path), parser); err != nil {
		return fmt.Errorf("parse %s: %w", strings.TrimPrefix(ext, "."), err)
	}
	return nil
}

// envKeyTransform maps an environment key (prefix already stripped) to a
// koanf path. CONTROLLERS_<NAME>_<FIELD> and <SECTION>_<FIELD> become dotted
// paths; anything else is a top-level key.
func envKeyTransform(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return ""
	}

	parts := strings.Split(s, "_")
	if parts[0] == "controllers" {
		if len(parts) < 3 {
			return s
		}
		return "controllers." + parts[1] + "." + strings.Join(parts[2:], "_")
	}

	for _, section := range []string{"log", "conductor", "condition"} {
		if strings.HasPrefix(s, section+"_") {
			return section + "." + strings.TrimPrefix(s, section+"_")
		}
	}
	return s
}

// applyPortOverride supports PORT (common in containers) when no explicit
// HTTP address was given through the environment.
func applyPortOverride(cfg *Config) {
	if os.Getenv(envPrefix+"CONTROLLERS_HTTP_ADDR") != "" {
		return
	}
	if v := os.Getenv("PORT"); v != "" {
		// listen on all interfaces on that port
		cfg.Controllers.HTTP.Addr = ":" + v
	}
}

func applyDefaults(cfg *Config) {
	if cfg.LineID == "" {
		cfg.LineID = "default"
	}
	c := &cfg.Controllers
	if !c.HTTP.Enabled && !c.MQTT.Enabled && !c.Modbus.Enabled {
		c.HTTP.Enabled = true
	}
}

// Profile builds the monitored conductor from catalog units.
func (c Config) Profile() (ampacity.ConductorProfile, error) {
	if !(c.Conductor.DCResistanceOhmKM > 0) {
		return ampacity.ConductorProfile{}, fmt.Errorf("conductor.dc_resistance_ohm_per_km %v: %w", c.Conductor.DCResistanceOhmKM, ampacity.ErrNonPositiveResistance)
	}
	ct, err := ampacity.ParseConductorType(c.Conductor.Type)
	if err != nil {
		return ampacity.ConductorProfile{}, err
	}
	layer, err := ampacity.ParseLayerConstruction(c.Conductor.LayerConstruction)
	if err != nil {
		return ampacity.ConductorProfile{}, err
	}
	return ampacity.NewConductorProfile(
		c.Conductor.Name,
		ct,
		c.Conductor.DiameterMM/1000,
		c.Conductor.DCResistanceOhmKM/1000,
		layer,
	)
}

// AmbientCondition returns the initial weather of the monitored line.
func (c Config) AmbientCondition() (ampacity.AmbientCondition, error) {
	w, err := ampacity.ParseWeathering(c.Condition.Weathering)
	if err != nil {
		return ampacity.AmbientCondition{}, err
	}
	tod, err := ampacity.ParseTimeOfDay(c.Condition.TimeOfDay)
	if err != nil {
		return ampacity.AmbientCondition{}, err
	}
	cond := ampacity.AmbientCondition{
		AmbientTemperature:   c.Condition.AmbientTemperature,
		ConductorTemperature: c.Condition.ConductorTemperature,
		WindSpeed:            c.Condition.WindSpeed,
		Weathering:           w,
		TimeOfDay:            tod,
	}
	if err := cond.Validate(); err != nil {
		return ampacity.AmbientCondition{}, err
	}
	return cond, nil
}
