package config

import "reflect"

// ConfigDiff describes what changed between two configs.
type ConfigDiff struct {
	LogLevelChanged bool
	NewLogLevel     LogLevel

	// TuningChanged is set when any live monitor tunable changed.
	TuningChanged bool

	PersonalityChanged bool
	NewPersonality     string

	RateChanged bool
	NewRate     int

	// RestartRequired names the changed sections that are only read at
	// startup.
	RestartRequired []string
}

// Empty reports whether nothing changed.
func (d ConfigDiff) Empty() bool {
	return !d.LogLevelChanged && !d.TuningChanged && !d.PersonalityChanged &&
		!d.RateChanged && len(d.RestartRequired) == 0
}

// Diff compares old and new configs and returns what changed.
func Diff(old, new *Config) ConfigDiff {
	d := ConfigDiff{}

	if old.Server.LogLevel != new.Server.LogLevel {
		d.LogLevelChanged = true
		d.NewLogLevel = new.Server.LogLevel
	}

	om, nm := old.Monitor, new.Monitor
	d.TuningChanged = om.Interval != nm.Interval ||
		om.ChangeThreshold != nm.ChangeThreshold ||
		om.ShotDeltaYards != nm.ShotDeltaYards ||
		om.WindThresholdMph != nm.WindThresholdMph

	if old.Commentary.Personality != new.Commentary.Personality ||
		old.Commentary.PersonalitiesFile != new.Commentary.PersonalitiesFile {
		d.PersonalityChanged = true
		d.NewPersonality = new.Commentary.Personality
	}

	if old.Speaker.Rate != new.Speaker.Rate {
		d.RateChanged = true
		d.NewRate = new.Speaker.Rate
	}

	oldRest, newRest := *old, *new
	for _, c := range []*Config{&oldRest, &newRest} {
		c.Server.LogLevel = ""
		c.Monitor = MonitorConfig{CycleTimeout: c.Monitor.CycleTimeout}
		c.Commentary.Personality = ""
		c.Commentary.PersonalitiesFile = ""
		c.Speaker.Rate = 0
	}
	sections := []struct {
		name     string
		old, new any
	}{
		{"server", oldRest.Server, newRest.Server},
		{"monitor", oldRest.Monitor, newRest.Monitor},
		{"capture", oldRest.Capture, newRest.Capture},
		{"ocr", oldRest.OCR, newRest.OCR},
		{"commentary", oldRest.Commentary, newRest.Commentary},
		{"providers", oldRest.Providers, newRest.Providers},
		{"speaker", oldRest.Speaker, newRest.Speaker},
		{"debug", oldRest.Debug, newRest.Debug},
	}
	for _, s := range sections {
		if !reflect.DeepEqual(s.old, s.new) {
			d.RestartRequired = append(d.RestartRequired, s.name)
		}
	}
	return d
}
