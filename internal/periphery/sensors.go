package periphery

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/shirou/gopsutil/v3/host"
)

const thermalZone = "/sys/class/thermal/thermal_zone0/temp"

var errNoSensor = errors.New("no matching temperature sensor")

// Sensors polls the indoor temperature and humidity.
type Sensors struct {
	Key          string // substring of the gopsutil sensor key
	HumidityFile string // sysfs/iio file, empty disables humidity
	Interval     time.Duration

	temperatures func(ctx context.Context) ([]host.TemperatureStat, error)
	readFile     func(name string) ([]byte, error)
}

func NewSensors(key, humidityFile string, interval time.Duration) *Sensors {
	return &Sensors{
		Key:          key,
		HumidityFile: humidityFile,
		Interval:     interval,
		temperatures: host.SensorsTemperaturesWithContext,
		readFile:     os.ReadFile,
	}
}

// Run polls until ctx is done.
func (s *Sensors) Run(ctx context.Context, out *Shared) error {
	t := time.NewTicker(s.Interval)
	defer t.Stop()
	for {
		s.Poll(ctx, out)
		select {
		case <-ctx.Done():
			return nil
		case <-t.C:
		}
	}
}

// Poll takes one reading of each sensor.
func (s *Sensors) Poll(ctx context.Context, out *Shared) {
	if c, err := s.temperature(ctx); err != nil {
		log.Printf("[periphery] temperature: %v", err)
	} else {
		out.SetTemperature(c)
	}
	if s.HumidityFile == "" {
		return
	}
	if h, err := s.humidity(); err != nil {
		log.Printf("[periphery] humidity: %v", err)
	} else {
		out.SetHumidity(h)
	}
}

func (s *Sensors) temperature(ctx context.Context) (float64, error) {
	stats, err := s.temperatures(ctx)
	// gopsutil returns partial results together with warnings
	for _, st := range stats {
		if s.Key == "" || strings.Contains(st.SensorKey, s.Key) {
			return st.Temperature, nil
		}
	}
	v, ferr := s.readNumber(thermalZone)
	if ferr != nil {
		if err != nil {
			return 0, fmt.Errorf("%w: %v", errNoSensor, err)
		}
		return 0, errNoSensor
	}
	return v / 1000, nil
}

// humidity reads a relative humidity value. IIO drivers report milli
// percent.
func (s *Sensors) humidity() (float64, error) {
	v, err := s.readNumber(s.HumidityFile)
	if err != nil {
		return 0, err
	}
	if v > 100 {
		v /= 1000
	}
	return v, nil
}

func (s *Sensors) readNumber(name string) (float64, error) {
	data, err := s.readFile(name)
	if err != nil {
		return 0, err
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(string(data)), 64)
	if err != nil {
		return 0, fmt.Errorf("parse %s: %w", name, err)
	}
	return v, nil
}
