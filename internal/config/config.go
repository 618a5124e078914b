package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	sharedcfg "github.com/couchcryptid/storm-data-shared/config"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/MackenzieBowal/windwatch/internal/domain"
)

// Config holds all run settings.
type Config struct {
	Region       domain.Region
	GridSize     float64
	BufferRadius float64
	MaxCells     int

	BirdDataPath string
	WindDataPath string
	OutputPath   string

	Coefficients domain.CoefficientSet
	InitialLayer domain.Layer

	HTTPEnabled bool
	HTTPAddr    string

	// KafkaBrokers is empty when the Kafka sink is disabled.
	KafkaBrokers   []string
	KafkaSinkTopic string

	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration
}

var defaults = map[string]string{
	"REGION":            "49.0,52.833333,-114.0,-110.0",
	"GRID_SIZE":         "20000",
	"BUFFER_RADIUS":     "1000",
	"MAX_CELLS":         "1000000",
	"BIRD_DATA_PATH":    "data/proc_bird_sighting_data.jsonl",
	"WIND_DATA_PATH":    "data/proc_wind_speed_data.jsonl",
	"OUTPUT_PATH":       "",
	"BIRD_RISK_WEIGHT":  "50",
	"WIND_SPEED_WEIGHT": "50",
	"INITIAL_LAYER":     "value",
	"HTTP_ENABLED":      "true",
	"HTTP_ADDR":         ":8080",
	"KAFKA_BROKERS":     "",
	"KAFKA_SINK_TOPIC":  "windwatch-grid-cells",
	"LOG_LEVEL":         "info",
	"LOG_FORMAT":        "json",
	"SHUTDOWN_TIMEOUT":  "",
}

// Load reads configuration, applying in increasing priority: built-in
// defaults, the YAML file named by CONFIG_FILE, then environment variables.
// A .env file in the working directory is loaded into the environment first
// if present.
func Load() (*Config, error) {
	_ = godotenv.Load()

	base := make(map[string]string, len(defaults))
	for k, v := range defaults {
		base[k] = v
	}
	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := mergeFile(path, base); err != nil {
			return nil, err
		}
	}
	get := func(key string) string {
		return strings.TrimSpace(sharedcfg.EnvOrDefault(key, base[key]))
	}

	shutdownTimeout, err := sharedcfg.ParseShutdownTimeout()
	if err != nil {
		return nil, err
	}
	if _, set := os.LookupEnv("SHUTDOWN_TIMEOUT"); !set && base["SHUTDOWN_TIMEOUT"] != "" {
		shutdownTimeout, err = time.ParseDuration(base["SHUTDOWN_TIMEOUT"])
		if err != nil || shutdownTimeout <= 0 {
			return nil, errors.New("invalid SHUTDOWN_TIMEOUT")
		}
	}

	region, err := domain.ParseRegion(get("REGION"))
	if err != nil {
		return nil, fmt.Errorf("invalid REGION: %w", err)
	}
	gridSize, err := parsePositiveFloat("GRID_SIZE", get("GRID_SIZE"))
	if err != nil {
		return nil, err
	}
	bufferRadius, err := parsePositiveFloat("BUFFER_RADIUS", get("BUFFER_RADIUS"))
	if err != nil {
		return nil, err
	}
	maxCells, err := strconv.Atoi(get("MAX_CELLS"))
	if err != nil || maxCells < 0 {
		return nil, errors.New("invalid MAX_CELLS")
	}

	birdWeight, err := strconv.Atoi(get("BIRD_RISK_WEIGHT"))
	if err != nil {
		return nil, errors.New("invalid BIRD_RISK_WEIGHT")
	}
	windWeight, err := strconv.Atoi(get("WIND_SPEED_WEIGHT"))
	if err != nil {
		return nil, errors.New("invalid WIND_SPEED_WEIGHT")
	}
	coeffs := domain.CoefficientSet{BirdRiskWeight: birdWeight, WindSpeedWeight: windWeight}
	if err := coeffs.Validate(); err != nil {
		return nil, fmt.Errorf("invalid BIRD_RISK_WEIGHT/WIND_SPEED_WEIGHT: %w", err)
	}

	layer, err := domain.ParseLayer(get("INITIAL_LAYER"))
	if err != nil {
		return nil, fmt.Errorf("invalid INITIAL_LAYER: %w", err)
	}

	httpEnabled, err := strconv.ParseBool(get("HTTP_ENABLED"))
	if err != nil {
		return nil, errors.New("invalid HTTP_ENABLED")
	}

	var brokers []string
	if raw := get("KAFKA_BROKERS"); raw != "" {
		brokers = sharedcfg.ParseBrokers(raw)
	}

	cfg := &Config{
		Region:          region,
		GridSize:        gridSize,
		BufferRadius:    bufferRadius,
		MaxCells:        maxCells,
		BirdDataPath:    get("BIRD_DATA_PATH"),
		WindDataPath:    get("WIND_DATA_PATH"),
		OutputPath:      get("OUTPUT_PATH"),
		Coefficients:    coeffs,
		InitialLayer:    layer,
		HTTPEnabled:     httpEnabled,
		HTTPAddr:        get("HTTP_ADDR"),
		KafkaBrokers:    brokers,
		KafkaSinkTopic:  get("KAFKA_SINK_TOPIC"),
		LogLevel:        get("LOG_LEVEL"),
		LogFormat:       get("LOG_FORMAT"),
		ShutdownTimeout: shutdownTimeout,
	}

	if cfg.BirdDataPath == "" {
		return nil, errors.New("BIRD_DATA_PATH is required")
	}
	if cfg.WindDataPath == "" {
		return nil, errors.New("WIND_DATA_PATH is required")
	}
	if cfg.HTTPEnabled && cfg.HTTPAddr == "" {
		return nil, errors.New("HTTP_ENABLED is true but HTTP_ADDR is not set")
	}
	if len(cfg.KafkaBrokers) > 0 && cfg.KafkaSinkTopic == "" {
		return nil, errors.New("KAFKA_SINK_TOPIC is required when KAFKA_BROKERS is set")
	}

	return cfg, nil
}

// mergeFile overlays a YAML run file onto base. File keys are the lower-case
// variable names, e.g. grid_size or kafka_brokers.
func mergeFile(path string, base map[string]string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read CONFIG_FILE: %w", err)
	}
	var file map[string]any
	if err := yaml.Unmarshal(data, &file); err != nil {
		return fmt.Errorf("parse CONFIG_FILE %s: %w", path, err)
	}
	for k, v := range file {
		key := strings.ToUpper(k)
		if _, ok := defaults[key]; !ok {
			return fmt.Errorf("CONFIG_FILE %s: unknown key %q", path, k)
		}
		base[key] = fileValue(v)
	}
	return nil
}

func fileValue(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case []any:
		parts := make([]string, len(t))
		for i, p := range t {
			parts[i] = fmt.Sprint(p)
		}
		return strings.Join(parts, ",")
	default:
		return fmt.Sprint(t)
	}
}

func parsePositiveFloat(name, s string) (float64, error) {
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || !(f > 0) || f > 1e9 {
		return 0, fmt.Errorf("invalid %s", name)
	}
	return f, nil
}
