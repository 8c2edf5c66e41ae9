package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"rybak/internal/controller"
	"rybak/internal/filter"
)

// Структура для координат с размером
type CoordinatesWithSize struct {
	X      int `mapstructure:"x"`
	Y      int `mapstructure:"y"`
	Width  int `mapstructure:"width"`
	Height int `mapstructure:"height"`
}

// Пути к шаблонам
type Templates struct {
	Fish string `mapstructure:"fish"`
	Box  string `mapstructure:"box"`
}

// Основная структура конфигурации
type Config struct {
	Port     string `mapstructure:"port"`
	BaudRate int    `mapstructure:"baud_rate"`
	Actuator string `mapstructure:"actuator"` // arduino | robotgo
	Key      string `mapstructure:"key"`
	// ожидание ответа скетча на key_down/key_up
	AckTimeoutMs int `mapstructure:"ack_timeout_ms"`

	LogFilePath string `mapstructure:"log_file_path"`
	LogLevel    string `mapstructure:"log_level"`
	LogDir      string `mapstructure:"action_log_dir"`

	Capture          CoordinatesWithSize `mapstructure:"capture"`
	AutoDetectWindow bool                `mapstructure:"auto_detect_window"`
	WindowTopOffset  int                 `mapstructure:"window_top_offset"`
	Templates        Templates           `mapstructure:"templates"`
	Threshold        float64             `mapstructure:"threshold"`

	Tolerance         float64 `mapstructure:"tolerance"`
	PredictionEnabled bool    `mapstructure:"prediction_enabled"`
	MinHoldMs         int     `mapstructure:"min_hold_ms"`
	DebounceMs        int     `mapstructure:"debounce_ms"`
	ReleaseFactor     float64 `mapstructure:"release_factor"`
	HistorySize       int     `mapstructure:"history_size"`
	MaxVelocity       float64 `mapstructure:"max_velocity"`
	LookAheadFrames   float64 `mapstructure:"look_ahead_frames"`
	InvertAxis        bool    `mapstructure:"invert_axis"`

	CaptureIntervalMs  int `mapstructure:"capture_interval_ms"`
	ControlIntervalMs  int `mapstructure:"control_interval_ms"`
	PositionLogEveryMs int `mapstructure:"position_log_every_ms"`

	DBDriver     string `mapstructure:"db_driver"` // mysql | sqlite | none
	DBDSN        string `mapstructure:"db_dsn"`
	RemotePollMs int    `mapstructure:"remote_poll_ms"`

	MetricsAddr string `mapstructure:"metrics_addr"`

	DebugFramesDir         string `mapstructure:"debug_frames_dir"`
	DebugFramesMinDistance int    `mapstructure:"debug_frames_min_distance"`
}

// SetDefaults значения по умолчанию
func SetDefaults(v *viper.Viper) {
	v.SetDefault("port", "COM3")
	v.SetDefault("baud_rate", 9600)
	v.SetDefault("actuator", "arduino")
	v.SetDefault("key", "space")
	v.SetDefault("ack_timeout_ms", 500)
	v.SetDefault("log_file_path", "logs/rybak.log")
	v.SetDefault("log_level", "info")
	v.SetDefault("action_log_dir", ".")
	v.SetDefault("capture.x", 0)
	v.SetDefault("capture.y", 0)
	v.SetDefault("capture.width", 800)
	v.SetDefault("capture.height", 600)
	v.SetDefault("templates.fish", "templates/fish.png")
	v.SetDefault("templates.box", "templates/box.png")
	v.SetDefault("threshold", 0.6)
	v.SetDefault("tolerance", controller.DefaultTolerance)
	v.SetDefault("prediction_enabled", true)
	v.SetDefault("min_hold_ms", controller.DefaultMinHold.Milliseconds())
	v.SetDefault("debounce_ms", controller.DefaultDebounce.Milliseconds())
	v.SetDefault("release_factor", controller.DefaultReleaseFactor)
	v.SetDefault("history_size", filter.DefaultHistorySize)
	v.SetDefault("max_velocity", filter.DefaultMaxVelocity)
	v.SetDefault("look_ahead_frames", filter.DefaultLookAhead)
	v.SetDefault("invert_axis", true)
	v.SetDefault("capture_interval_ms", 50)
	v.SetDefault("control_interval_ms", 50)
	v.SetDefault("position_log_every_ms", 1000)
	v.SetDefault("auto_detect_window", false)
	v.SetDefault("window_top_offset", 0)
	v.SetDefault("db_driver", "none")
	v.SetDefault("db_dsn", "")
	v.SetDefault("remote_poll_ms", 1000)
	v.SetDefault("metrics_addr", "")
	v.SetDefault("debug_frames_dir", "")
	v.SetDefault("debug_frames_min_distance", 6)
}

// Validate проверяет значения, без которых бот работать не может
func (c Config) Validate() error {
	var errs []error
	if c.Tolerance <= 0 {
		errs = append(errs, fmt.Errorf("tolerance должен быть > 0, получено %v", c.Tolerance))
	}
	if c.ReleaseFactor < 1 {
		errs = append(errs, fmt.Errorf("release_factor должен быть >= 1, получено %v", c.ReleaseFactor))
	}
	if c.HistorySize < 3 {
		errs = append(errs, fmt.Errorf("history_size должен быть >= 3, получено %d", c.HistorySize))
	}
	if c.Threshold < 0 || c.Threshold > 1 {
		errs = append(errs, fmt.Errorf("threshold должен быть в [0,1], получено %v", c.Threshold))
	}
	if c.MinHoldMs < 0 || c.DebounceMs < 0 {
		errs = append(errs, errors.New("min_hold_ms и debounce_ms не могут быть отрицательными"))
	}
	if c.AckTimeoutMs <= 0 {
		errs = append(errs, fmt.Errorf("ack_timeout_ms должен быть > 0, получено %d", c.AckTimeoutMs))
	}
	if c.CaptureIntervalMs <= 0 || c.ControlIntervalMs <= 0 {
		errs = append(errs, errors.New("интервалы циклов должны быть > 0"))
	}
	switch c.Actuator {
	case "arduino", "robotgo":
	default:
		errs = append(errs, fmt.Errorf("неизвестный actuator %q", c.Actuator))
	}
	switch c.DBDriver {
	case "mysql", "sqlite", "none", "":
	default:
		errs = append(errs, fmt.Errorf("неизвестный db_driver %q", c.DBDriver))
	}
	return errors.Join(errs...)
}

// ControllerParams параметры контроллера из конфига
func (c Config) ControllerParams() controller.Params {
	return controller.Params{
		Tolerance:     c.Tolerance,
		ReleaseFactor: c.ReleaseFactor,
		MinHold:       time.Duration(c.MinHoldMs) * time.Millisecond,
		Debounce:      time.Duration(c.DebounceMs) * time.Millisecond,
	}
}

// FilterConfig параметры фильтра из конфига
func (c Config) FilterConfig() filter.Config {
	return filter.Config{
		HistorySize: c.HistorySize,
		MaxVelocity: c.MaxVelocity,
		LookAhead:   c.LookAheadFrames,
	}
}

// Load читает config.yaml из dir; переменные окружения RYBAK_* перекрывают файл
func Load(v *viper.Viper, dir string) (Config, error) {
	v.SetConfigName("config") // Имя конфигурационного файла без расширения
	v.AddConfigPath(dir)      // Путь к файлу конфигурации
	v.SetConfigType("yaml")   // Формат файла
	v.SetEnvPrefix("RYBAK")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	SetDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("ошибка чтения файла конфигурации: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return Config{}, fmt.Errorf("ошибка разбора конфигурации: %w", err)
	}
	if err := config.Validate(); err != nil {
		return config, err
	}
	return config, nil
}

// InitConfig читает config.yaml из текущей директории через глобальный viper
var InitConfig = func() (Config, error) {
	return Load(viper.GetViper(), ".")
}
