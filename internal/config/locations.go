package config

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"vetagenda/internal/model"
	"vetagenda/internal/schedule"
)

// LocationConfig represents a single work location.
type LocationConfig struct {
	ID       int64  `yaml:"id"`
	VetID    int64  `yaml:"vet_id"`
	Name     string `yaml:"name"`
	Street   string `yaml:"street"`
	Number   string `yaml:"number"`
	District string `yaml:"district"`
	City     string `yaml:"city"`
	State    string `yaml:"state"`
	ZipCode  string `yaml:"zip_code"`
	IsActive bool   `yaml:"is_active"`
	// Hours maps a weekday name to its ranges: {"Segunda": "08:00-12:00, 14:00-18:00"}.
	Hours map[string]string `yaml:"hours,omitempty"`
}

// DefaultsConfig represents global default settings.
type DefaultsConfig struct {
	Hours map[string]string `yaml:"hours"`
}

// LocationsConfig is the root configuration for locations.yaml.
type LocationsConfig struct {
	Locations []LocationConfig `yaml:"locations"`
	Defaults  DefaultsConfig   `yaml:"defaults"`
}

// LoadLocationsConfig loads and validates locations configuration from YAML file.
func LoadLocationsConfig(path string) (*LocationsConfig, error) {
	if path == "" {
		path = "configs/locations.yaml"
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read locations config: %w", err)
	}

	var cfg LocationsConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse locations config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate locations config: %w", err)
	}

	cfg.applyDefaults()

	return &cfg, nil
}

// Validate checks the configuration for errors.
func (c *LocationsConfig) Validate() error {
	if len(c.Locations) == 0 {
		return fmt.Errorf("no locations defined")
	}

	ids := make(map[int64]bool)
	for i, loc := range c.Locations {
		if loc.ID <= 0 {
			return fmt.Errorf("location[%d]: id must be positive, got %d", i, loc.ID)
		}
		if ids[loc.ID] {
			return fmt.Errorf("location[%d]: duplicate id %d", i, loc.ID)
		}
		ids[loc.ID] = true

		if strings.TrimSpace(loc.Name) == "" {
			return fmt.Errorf("location[%d]: name is required", i)
		}
		if err := validateHours(loc.Hours, fmt.Sprintf("location[%d].hours", i)); err != nil {
			return err
		}
	}

	return validateHours(c.Defaults.Hours, "defaults.hours")
}

// validateHours is stricter than the display parser: every day and range must be well formed.
func validateHours(hours map[string]string, prefix string) error {
	for day, value := range hours {
		if _, ok := schedule.DayOfWeek(day); !ok {
			return fmt.Errorf("%s: unknown weekday '%s'", prefix, day)
		}
		if strings.TrimSpace(value) == "" {
			continue
		}
		for _, part := range strings.Split(value, ",") {
			if _, ok := schedule.ParseRange(part); !ok {
				return fmt.Errorf("%s.%s: invalid range '%s', expected HH:MM-HH:MM", prefix, day, strings.TrimSpace(part))
			}
		}
	}
	return nil
}

// applyDefaults applies default values to locations without explicit hours.
func (c *LocationsConfig) applyDefaults() {
	for i := range c.Locations {
		if len(c.Locations[i].Hours) == 0 && len(c.Defaults.Hours) > 0 {
			c.Locations[i].Hours = c.Defaults.Hours
		}
	}
}

// DaySchedules returns the location's hours in display form, Sunday first.
func (l LocationConfig) DaySchedules() []model.DaySchedule {
	type day struct {
		dow   int
		value model.DaySchedule
	}
	var days []day
	for name, hours := range l.Hours {
		dow, ok := schedule.DayOfWeek(name)
		if !ok {
			continue
		}
		days = append(days, day{dow: dow, value: model.DaySchedule{DayName: schedule.WeekdayNames[dow], Hours: hours}})
	}
	sort.Slice(days, func(i, j int) bool { return days[i].dow < days[j].dow })

	result := make([]model.DaySchedule, len(days))
	for i, d := range days {
		result[i] = d.value
	}
	return result
}

// ScheduleEntries expands the location's hours into one entry per range.
func (l LocationConfig) ScheduleEntries() []model.ScheduleEntry {
	return schedule.FromDisplayForm(l.ID, l.DaySchedules())
}

// GetLocationByID returns location config by ID.
func (c *LocationsConfig) GetLocationByID(id int64) *LocationConfig {
	for i := range c.Locations {
		if c.Locations[i].ID == id {
			return &c.Locations[i]
		}
	}
	return nil
}

// IDs returns every configured location id, active or not.
func (c *LocationsConfig) IDs() []int64 {
	ids := make([]int64, len(c.Locations))
	for i, loc := range c.Locations {
		ids[i] = loc.ID
	}
	return ids
}

// String returns a summary of the configuration.
func (c *LocationsConfig) String() string {
	active := 0
	for _, loc := range c.Locations {
		if loc.IsActive {
			active++
		}
	}
	return fmt.Sprintf("LocationsConfig: %d locations (%d active)", len(c.Locations), active)
}
