// Package audio handles device discovery, selection, PCM capture, and level metering.
package audio

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// Device describes one capture source surfaced to murmur.
type Device struct {
	ID          string
	Description string
	State       string
	Available   bool
	Muted       bool
	Default     bool
}

// Selection is the resolved capture source plus optional fallback warning context.
type Selection struct {
	Device   Device
	Warning  string
	Fallback bool
}

// ListDevices returns capture sources with default/availability metadata.
func ListDevices(ctx context.Context) ([]Device, error) {
	return listDevices(ctx)
}

// SelectDevice resolves audio.input/audio.fallback preferences against live devices.
func SelectDevice(ctx context.Context, input string, fallback string) (Selection, error) {
	devices, err := ListDevices(ctx)
	if err != nil {
		return Selection{}, err
	}
	return selectDeviceFromList(devices, input, fallback)
}

func selectDeviceFromList(devices []Device, input string, fallback string) (Selection, error) {
	if len(devices) == 0 {
		return Selection{}, errors.New("no audio input devices found")
	}

	var (
		defaultDevice *Device
		byInput       *Device
		byFallback    *Device
	)

	input = strings.TrimSpace(strings.ToLower(input))
	fallback = strings.TrimSpace(strings.ToLower(fallback))

	for i := range devices {
		dev := &devices[i]
		if dev.Default && defaultDevice == nil {
			defaultDevice = dev
		}
		if byInput == nil && isNamed(input) && deviceMatches(*dev, input) {
			byInput = dev
		}
		if byFallback == nil && isNamed(fallback) && deviceMatches(*dev, fallback) {
			byFallback = dev
		}
	}

	var primary *Device
	switch {
	case !isNamed(input):
		if defaultDevice == nil {
			return Selection{}, errors.New("default audio source is unavailable")
		}
		primary = defaultDevice
	case byInput != nil:
		primary = byInput
	default:
		return Selection{}, fmt.Errorf("audio.input %q did not match any device", input)
	}

	if primary.Available && !primary.Muted {
		return Selection{Device: *primary}, nil
	}

	reason := "unavailable"
	if primary.Muted {
		reason = "muted"
	}

	alt := defaultDevice
	if isNamed(fallback) {
		if byFallback == nil {
			return Selection{}, fmt.Errorf("primary input %q is %s and fallback %q not found", primary.ID, reason, fallback)
		}
		alt = byFallback
	} else if alt == nil {
		return Selection{}, fmt.Errorf("primary input %q is %s and no default source exists", primary.ID, reason)
	}

	if !alt.Available {
		return Selection{}, fmt.Errorf("audio fallback device %q is not available", alt.ID)
	}
	if alt.Muted {
		return Selection{}, fmt.Errorf("audio fallback device %q is muted", alt.ID)
	}

	return Selection{
		Device:   *alt,
		Warning:  fmt.Sprintf("audio.input %q is %s; falling back to %q", primary.ID, reason, alt.ID),
		Fallback: primary.ID != alt.ID,
	}, nil
}

func isNamed(term string) bool {
	return term != "" && term != "default"
}

// deviceMatches reports whether a search term matches a device id or description.
func deviceMatches(device Device, term string) bool {
	if term == "" {
		return false
	}
	id := strings.ToLower(device.ID)
	desc := strings.ToLower(device.Description)
	return strings.Contains(id, term) || strings.Contains(desc, term)
}
