// Package config holds the display settings, their YAML file and the
// JSON patches accepted by the control plane.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// AppSettings configures one native page.
type AppSettings struct {
	Show     bool   `yaml:"show" json:"show"`
	Position int    `yaml:"position" json:"position"`
	Duration uint16 `yaml:"duration" json:"duration"` // ms, 0 uses app_time
	Color    string `yaml:"color,omitempty" json:"color,omitempty"`
	Icon     string `yaml:"icon,omitempty" json:"icon,omitempty"` // .anim file under icons/
}

// ClockSettings is shared by the time and date pages.
type ClockSettings struct {
	TimeFormat      string `yaml:"time_format" json:"timeFormat"`
	DateFormat      string `yaml:"date_format" json:"dateFormat"`
	ShowWeekday     bool   `yaml:"show_weekday" json:"showWeekday"`
	StartOnMonday   bool   `yaml:"start_on_monday" json:"startOnMonday"`
	WeekdayActive   string `yaml:"weekday_active" json:"weekdayActive"`
	WeekdayInactive string `yaml:"weekday_inactive" json:"weekdayInactive"`
}

type LiveviewSettings struct {
	Enabled  bool `yaml:"enabled" json:"enabled"`
	Interval int  `yaml:"interval_ms" json:"intervalMs"`
}

// Hardware settings are read once at startup.
type Hardware struct {
	SPIPort      string `yaml:"spi_port" json:"spiPort"`
	ButtonDevice string `yaml:"button_device" json:"buttonDevice"`
	PingHost     string `yaml:"ping_host" json:"pingHost"`
	PingInterval int    `yaml:"ping_interval_s" json:"pingIntervalS"`
	SensorKey    string `yaml:"sensor_key" json:"sensorKey"`
	HumidityFile string `yaml:"humidity_file" json:"humidityFile"`
	IconDir      string `yaml:"icon_dir" json:"iconDir"` // parent of icons/
	Listen       string `yaml:"listen" json:"listen"`
}

// Settings is the full configuration. It holds only values, so a copy
// is a consistent snapshot.
type Settings struct {
	Brightness      uint8  `yaml:"brightness" json:"brightness"`
	FPS             uint8  `yaml:"fps" json:"fps"`
	MatrixOff       bool   `yaml:"matrix_off" json:"matrixOff"`
	AutoTransition  bool   `yaml:"auto_transition" json:"autoTransition"`
	Layout          int    `yaml:"layout" json:"layout"`
	AppTime         uint16 `yaml:"app_time" json:"appTime"`
	TransitionTime  uint16 `yaml:"transition_time" json:"transition"`
	TransitionStyle string `yaml:"transition_style" json:"transitionStyle"`
	TextColor       string `yaml:"text_color" json:"textColor"`

	Clock ClockSettings `yaml:"clock" json:"clock"`

	Time     AppSettings `yaml:"time" json:"time"`
	Date     AppSettings `yaml:"date" json:"date"`
	Temp     AppSettings `yaml:"temp" json:"temp"`
	Hum      AppSettings `yaml:"hum" json:"hum"`
	Spectrum bool        `yaml:"spectrum" json:"spectrum"`

	Liveview LiveviewSettings `yaml:"liveview" json:"liveview"`
	Hardware Hardware         `yaml:"hardware" json:"hardware"`
}

// Default returns the factory settings.
func Default() Settings {
	return Settings{
		Brightness:      70,
		FPS:             30,
		AutoTransition:  true,
		Layout:          5,
		AppTime:         5000,
		TransitionTime:  500,
		TransitionStyle: "down",
		TextColor:       "#FFFFFF",
		Clock: ClockSettings{
			TimeFormat:      "%H %M",
			DateFormat:      "%m/%d",
			ShowWeekday:     true,
			StartOnMonday:   true,
			WeekdayActive:   "#f273e1",
			WeekdayInactive: "#00bfff",
		},
		Time:     AppSettings{Show: true, Position: 0, Color: "#FFFFFF"},
		Date:     AppSettings{Show: true, Position: 1, Color: "#FFFFFF"},
		Temp:     AppSettings{Show: true, Position: 2, Color: "#FF6400"},
		Hum:      AppSettings{Show: true, Position: 3, Color: "#0096FF"},
		Spectrum: true,
		Liveview: LiveviewSettings{Enabled: true, Interval: 250},
		Hardware: Hardware{
			SPIPort:      "SPI0.0",
			PingHost:     "8.8.8.8",
			PingInterval: 30,
			SensorKey:    "cpu_thermal",
			IconDir:      "/etc/pixel-matrix",
			Listen:       ":8088",
		},
	}
}

// Normalize fixes values the scheduler cannot run with.
func (s *Settings) Normalize() {
	if s.FPS == 0 {
		s.FPS = 30
	}
	if s.Layout < 0 || s.Layout > 5 {
		s.Layout = 5
	}
	if s.Liveview.Interval <= 0 {
		s.Liveview.Interval = 250
	}
	if s.Hardware.PingInterval <= 0 {
		s.Hardware.PingInterval = 30
	}
}

// Load reads a YAML settings file on top of the defaults. A missing file
// yields the defaults.
func Load(path string) (Settings, error) {
	s := Default()
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return s, nil
	}
	if err != nil {
		return s, fmt.Errorf("read settings: %w", err)
	}
	if err := yaml.Unmarshal(data, &s); err != nil {
		return Default(), fmt.Errorf("parse settings %s: %w", path, err)
	}
	s.Normalize()
	return s, nil
}

// Save writes the settings atomically.
func Save(path string, s Settings) error {
	data, err := yaml.Marshal(s)
	if err != nil {
		return fmt.Errorf("encode settings: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create settings dir: %w", err)
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write settings: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("replace settings: %w", err)
	}
	return nil
}

// settingsPatch is the body of POST /api/settings. Absent keys are left
// alone.
type settingsPatch struct {
	AppTime         *uint16 `json:"appTime"`
	Transition      *uint16 `json:"transition"`
	Brightness      *uint8  `json:"brightness"`
	FPS             *uint8  `json:"fps"`
	AutoTransition  *bool   `json:"autoTransition"`
	MatrixOff       *bool   `json:"matrixOff"`
	TransitionStyle *string `json:"transitionStyle"`
	TextColor       *string `json:"textColor"`
	TimeFormat      *string `json:"timeFormat"`
	DateFormat      *string `json:"dateFormat"`
	ShowWeekday     *bool   `json:"showWeekday"`
}

// ApplyJSON patches s with a settings object.
func (s *Settings) ApplyJSON(data []byte) error {
	var p settingsPatch
	if err := json.Unmarshal(data, &p); err != nil {
		return fmt.Errorf("decode settings patch: %w", err)
	}
	set(&s.AppTime, p.AppTime)
	set(&s.TransitionTime, p.Transition)
	set(&s.Brightness, p.Brightness)
	set(&s.FPS, p.FPS)
	set(&s.AutoTransition, p.AutoTransition)
	set(&s.MatrixOff, p.MatrixOff)
	set(&s.TransitionStyle, p.TransitionStyle)
	set(&s.TextColor, p.TextColor)
	set(&s.Clock.TimeFormat, p.TimeFormat)
	set(&s.Clock.DateFormat, p.DateFormat)
	set(&s.Clock.ShowWeekday, p.ShowWeekday)
	s.Normalize()
	return nil
}

func set[T any](dst *T, v *T) {
	if v != nil {
		*dst = *v
	}
}

// AppToggle is one entry of POST /api/apps.
type AppToggle struct {
	Name string `json:"name"`
	Show *bool  `json:"show"`
}

// ApplyApps applies a list of page toggles. A missing "show" means true;
// unknown names are ignored.
func (s *Settings) ApplyApps(data []byte) error {
	var list []AppToggle
	if err := json.Unmarshal(data, &list); err != nil {
		return fmt.Errorf("decode app list: %w", err)
	}
	for _, a := range list {
		show := a.Show == nil || *a.Show
		switch a.Name {
		case "time":
			s.Time.Show = show
		case "date":
			s.Date.Show = show
		case "temp":
			s.Temp.Show = show
		case "hum":
			s.Hum.Show = show
		case "music", "spectrum":
			s.Spectrum = show
		}
	}
	return nil
}
