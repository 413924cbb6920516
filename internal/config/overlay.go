package config

import (
	"errors"
	"fmt"
	"io/fs"
	"math"
	"os"
	"path/filepath"
	"time"

	"github.com/banshee-data/faceoverlay/internal/placement"
	"github.com/banshee-data/faceoverlay/internal/pose"
	"github.com/banshee-data/faceoverlay/internal/timeutil"
	"github.com/banshee-data/faceoverlay/internal/variants"
	"github.com/joho/godotenv"
	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// OverlayConfig is the startup configuration of an overlay session. Every
// field is optional; the Get* methods fall back to the built-in defaults
// for anything not set.
type OverlayConfig struct {
	// Session
	Mode         *string  `json:"mode,omitempty"`          // "flat" or "mesh"
	Variant      *string  `json:"variant,omitempty"`       // initial variant id
	VariantTable *string  `json:"variant_table,omitempty"` // path to a variant table JSON file
	Capture      *string  `json:"capture,omitempty"`       // "default" or "mobile-front"
	FrameRate    *float64 `json:"frame_rate,omitempty"`
	NudgeStep    *float64 `json:"nudge_step,omitempty"`

	// Pose estimation
	BaseFaceWidth      *float64 `json:"base_face_width,omitempty"`
	BaseEarDistanceSum *float64 `json:"base_ear_distance_sum,omitempty"`
	DepthStrength      *float64 `json:"depth_strength,omitempty"`
	DepthRange         *float64 `json:"depth_range,omitempty"`
	NoseLift           *float64 `json:"nose_lift,omitempty"`
	MinScale           *float64 `json:"min_scale,omitempty"`

	// Outputs
	LogLevel    *string `json:"log_level,omitempty"`
	GRPCListen  *string `json:"grpc_listen,omitempty"`
	DebugListen *string `json:"debug_listen,omitempty"`
	JournalPath *string `json:"journal_path,omitempty"`
}

// LoadOverlayConfig reads and validates an OverlayConfig JSON file.
func LoadOverlayConfig(path string) (*OverlayConfig, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("config file must have .json extension, got %q", ext)
	}

	fileInfo, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	const maxFileSize = 1 * 1024 * 1024 // 1MB
	if fileInfo.Size() > maxFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", fileInfo.Size(), maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := &OverlayConfig{}
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// Validate checks the fields that are set.
func (c *OverlayConfig) Validate() error {
	if c.Mode != nil {
		if _, err := variants.ParseMode(*c.Mode); err != nil {
			return err
		}
	}
	if c.Capture != nil {
		if _, err := placement.ParseCapture(*c.Capture); err != nil {
			return err
		}
	}
	positive := map[string]*float64{
		"frame_rate":            c.FrameRate,
		"nudge_step":            c.NudgeStep,
		"base_face_width":       c.BaseFaceWidth,
		"base_ear_distance_sum": c.BaseEarDistanceSum,
		"depth_strength":        c.DepthStrength,
		"depth_range":           c.DepthRange,
		"min_scale":             c.MinScale,
	}
	for name, v := range positive {
		if v != nil && !(*v > 0 && !math.IsInf(*v, 0)) {
			return fmt.Errorf("%s must be a positive finite number, got %v", name, *v)
		}
	}
	if c.NoseLift != nil && (math.IsNaN(*c.NoseLift) || math.IsInf(*c.NoseLift, 0)) {
		return fmt.Errorf("nose_lift must be finite, got %v", *c.NoseLift)
	}
	return nil
}

func getFloat(p *float64, def float64) float64 {
	if p != nil {
		return *p
	}
	return def
}

func getString(p *string, def string) string {
	if p != nil && *p != "" {
		return *p
	}
	return def
}

// GetMode returns the rendering mode, flat by default.
func (c *OverlayConfig) GetMode() variants.Mode {
	m, err := variants.ParseMode(getString(c.Mode, string(variants.ModeFlat)))
	if err != nil {
		return variants.ModeFlat
	}
	return m
}

// GetVariant returns the initial variant id; empty means the table's
// default.
func (c *OverlayConfig) GetVariant() string { return getString(c.Variant, "") }

// GetVariantTable returns the variant table path; empty means built-in.
func (c *OverlayConfig) GetVariantTable() string { return getString(c.VariantTable, "") }

// GetCapture returns the capture mode.
func (c *OverlayConfig) GetCapture() placement.Capture {
	cp, err := placement.ParseCapture(getString(c.Capture, ""))
	if err != nil {
		return placement.CaptureDefault
	}
	return cp
}

// GetFrameInterval returns the frame loop period.
func (c *OverlayConfig) GetFrameInterval() time.Duration {
	return timeutil.FrameInterval(getFloat(c.FrameRate, 60))
}

// GetNudgeStep returns the per-command nudge distance.
func (c *OverlayConfig) GetNudgeStep() float64 {
	return getFloat(c.NudgeStep, placement.NudgeStep)
}

// GetPoseParams returns the pose estimation parameters.
func (c *OverlayConfig) GetPoseParams() pose.Params {
	d := pose.DefaultParams()
	return pose.Params{
		BaseFaceWidth:      getFloat(c.BaseFaceWidth, d.BaseFaceWidth),
		BaseEarDistanceSum: getFloat(c.BaseEarDistanceSum, d.BaseEarDistanceSum),
		DepthStrength:      getFloat(c.DepthStrength, d.DepthStrength),
		DepthRange:         getFloat(c.DepthRange, d.DepthRange),
		NoseLift:           getFloat(c.NoseLift, d.NoseLift),
		MinScale:           getFloat(c.MinScale, d.MinScale),
	}
}

// GetLogLevel returns the logrus level name.
func (c *OverlayConfig) GetLogLevel() string { return getString(c.LogLevel, "info") }

// GetGRPCListen returns the placement stream address; empty disables it.
func (c *OverlayConfig) GetGRPCListen() string { return getString(c.GRPCListen, "") }

// GetDebugListen returns the debug HTTP address; empty disables it.
func (c *OverlayConfig) GetDebugListen() string { return getString(c.DebugListen, "") }

// GetJournalPath returns the sqlite journal path; empty disables it.
func (c *OverlayConfig) GetJournalPath() string { return getString(c.JournalPath, "") }

// LoadTable returns the configured variant table, or the built-in table
// for the configured mode. A file table must match the configured mode.
func (c *OverlayConfig) LoadTable() (*variants.Table, error) {
	mode := c.GetMode()
	path := c.GetVariantTable()
	if path == "" {
		return variants.Default(mode)
	}
	t, err := variants.LoadTable(path)
	if err != nil {
		return nil, err
	}
	if t.Mode() != mode {
		return nil, fmt.Errorf("variant table %s is for %s mode, session is %s", path, t.Mode(), mode)
	}
	return t, nil
}

// Environment keys read by the overlay command.
const (
	EnvConfig  = "OVERLAY_CONFIG"
	EnvDB      = "OVERLAY_DB"
	EnvLogDir  = "OVERLAY_LOG_DIR"
	EnvAppEnv  = "APP_ENV"
	DefaultEnv = ".env"
)

// Env holds the settings taken from the process environment.
type Env struct {
	ConfigPath string
	DBPath     string
	LogDir     string
	AppEnv     string
}

// LoadEnv loads dotenv files into the process environment, skipping any
// that do not exist, then reads the overlay keys. Variables already set
// in the environment win.
func LoadEnv(files ...string) (Env, error) {
	if len(files) == 0 {
		files = []string{DefaultEnv}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return Env{}, fmt.Errorf("failed to load %s: %w", f, err)
		}
	}
	return Env{
		ConfigPath: os.Getenv(EnvConfig),
		DBPath:     os.Getenv(EnvDB),
		LogDir:     os.Getenv(EnvLogDir),
		AppEnv:     os.Getenv(EnvAppEnv),
	}, nil
}
