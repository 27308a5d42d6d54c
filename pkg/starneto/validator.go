// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package starneto

import "fmt"

// AnomalyType represents different types of data anomalies in otherwise
// well-formed sentences
type AnomalyType int

const (
	ANOMALY_INVALID_POSITION AnomalyType = iota
	ANOMALY_INVALID_ANGLE
	ANOMALY_SYSTEM_ERROR
	ANOMALY_NO_FIX
	ANOMALY_NO_SATELLITES
	ANOMALY_INVALID_TEMP
	ANOMALY_UNKNOWN_VERB
)

// String returns a lowercase label such as "invalid_position"
func (a AnomalyType) String() string {
	switch a {
	case ANOMALY_INVALID_POSITION:
		return "invalid_position"
	case ANOMALY_INVALID_ANGLE:
		return "invalid_angle"
	case ANOMALY_SYSTEM_ERROR:
		return "system_error"
	case ANOMALY_NO_FIX:
		return "no_fix"
	case ANOMALY_NO_SATELLITES:
		return "no_satellites"
	case ANOMALY_INVALID_TEMP:
		return "invalid_temp"
	case ANOMALY_UNKNOWN_VERB:
		return "unknown_verb"
	}
	return fmt.Sprintf("anomaly_%d", int(a))
}

// IMU temperature plausibility range in tenths of a degree Celsius
const (
	minIMUTemperature = -400
	maxIMUTemperature = 850
)

// ValidationError represents a sentence validation failure
type ValidationError struct {
	Type    AnomalyType
	Message string
	Details map[string]interface{}
}

// Error implements the error interface
func (v *ValidationError) Error() string {
	return v.Message
}

// ValidateMessage checks decoded values for anomalies
// Returns a slice of validation errors (empty if the message is plausible)
func ValidateMessage(m Message) []ValidationError {
	errors := []ValidationError{}

	switch m := m.(type) {
	case *FPD:
		errors = append(errors, validatePosition(m.Latitude, m.Longitude)...)
		errors = append(errors, validateHeading(m.Heading)...)
		if m.Status.System == SysDynamicError {
			errors = append(errors, ValidationError{
				Type:    ANOMALY_SYSTEM_ERROR,
				Message: "System reports dynamic alignment error",
				Details: map[string]interface{}{"status": m.Status.System.String()},
			})
		}
		if positioning(m.Status.System) && m.NSV1 == 0 && m.NSV2 == 0 {
			errors = append(errors, ValidationError{
				Type:    ANOMALY_NO_SATELLITES,
				Message: fmt.Sprintf("No satellites while status is %s", m.Status.System),
				Details: map[string]interface{}{"status": m.Status.System.String(), "nsv1": m.NSV1, "nsv2": m.NSV2},
			})
		}
	case *HPD:
		errors = append(errors, validatePosition(m.Latitude, m.Longitude)...)
		errors = append(errors, validateHeading(m.Heading)...)
		if m.Status != HeadingInitializing && m.NSV1 == 0 && m.NSV2 == 0 {
			errors = append(errors, ValidationError{
				Type:    ANOMALY_NO_SATELLITES,
				Message: fmt.Sprintf("No satellites while status is %s", m.Status),
				Details: map[string]interface{}{"status": m.Status.String(), "nsv1": m.NSV1, "nsv2": m.NSV2},
			})
		}
	case *IMU:
		if m.Temperature < minIMUTemperature || m.Temperature > maxIMUTemperature {
			errors = append(errors, ValidationError{
				Type: ANOMALY_INVALID_TEMP,
				Message: fmt.Sprintf("IMU temperature out of range (%s°C, valid: %s to %s°C)",
					FormatFixed(m.Temperature, TemperaturePlaces),
					FormatFixed(int16(minIMUTemperature), TemperaturePlaces),
					FormatFixed(int16(maxIMUTemperature), TemperaturePlaces)),
				Details: map[string]interface{}{"value": m.Temperature, "min": minIMUTemperature, "max": maxIMUTemperature},
			})
		}
	case *GGA:
		errors = append(errors, validateGGA(m)...)
	case *Command:
		if !m.Verb.Known() {
			errors = append(errors, ValidationError{
				Type:    ANOMALY_UNKNOWN_VERB,
				Message: fmt.Sprintf("Unknown command verb %q", m.Verb),
				Details: map[string]interface{}{"verb": string(m.Verb)},
			})
		}
	}

	return errors
}

// validatePosition checks degrees scaled by 10^LatLonPlaces
func validatePosition(lat, lon int32) []ValidationError {
	const scale = 10_000_000
	errors := []ValidationError{}

	if lat < -90*scale || lat > 90*scale {
		errors = append(errors, ValidationError{
			Type:    ANOMALY_INVALID_POSITION,
			Message: fmt.Sprintf("Latitude out of range (%s°, valid: -90 to 90)", FormatFixed(lat, LatLonPlaces)),
			Details: map[string]interface{}{"latitude": lat},
		})
	}
	if lon < -180*scale || lon > 180*scale {
		errors = append(errors, ValidationError{
			Type:    ANOMALY_INVALID_POSITION,
			Message: fmt.Sprintf("Longitude out of range (%s°, valid: -180 to 180)", FormatFixed(lon, LatLonPlaces)),
			Details: map[string]interface{}{"longitude": lon},
		})
	}

	return errors
}

func validateHeading(heading uint32) []ValidationError {
	if heading < 360_000 {
		return nil
	}
	return []ValidationError{{
		Type:    ANOMALY_INVALID_ANGLE,
		Message: fmt.Sprintf("Heading out of range (%s°, valid: 0 to 360)", FormatFixed(heading, AnglePlaces)),
		Details: map[string]interface{}{"heading": heading},
	}}
}

// validateGGA checks fix quality and the ddmm.mmmm coordinate ranges
func validateGGA(m *GGA) []ValidationError {
	errors := []ValidationError{}

	if m.Quality == FixInvalid {
		errors = append(errors, ValidationError{
			Type:    ANOMALY_NO_FIX,
			Message: "GNSS fix is invalid",
			Details: map[string]interface{}{"quality": m.Quality.String()},
		})
	} else if m.Satellites == 0 {
		errors = append(errors, ValidationError{
			Type:    ANOMALY_NO_SATELLITES,
			Message: fmt.Sprintf("No satellites with fix %s", m.Quality),
			Details: map[string]interface{}{"quality": m.Quality.String()},
		})
	}

	if !coordinateInRange(m.Latitude, 90) {
		errors = append(errors, ValidationError{
			Type:    ANOMALY_INVALID_POSITION,
			Message: fmt.Sprintf("Latitude out of range (%s, valid: 0 to 9000)", m.Latitude),
			Details: map[string]interface{}{"latitude": m.Latitude.String()},
		})
	}
	if !coordinateInRange(m.Longitude, 180) {
		errors = append(errors, ValidationError{
			Type:    ANOMALY_INVALID_POSITION,
			Message: fmt.Sprintf("Longitude out of range (%s, valid: 0 to 18000)", m.Longitude),
			Details: map[string]interface{}{"longitude": m.Longitude.String()},
		})
	}

	return errors
}

// coordinateInRange checks a ddmm.mmmm value: degrees <= maxDegrees and
// minutes < 60
func coordinateInRange(d Decimal[uint64], maxDegrees uint64) bool {
	whole := d.Value
	for i := uint8(0); i < d.Places; i++ {
		whole /= 10
	}
	degrees, minutes := whole/100, whole%100
	if minutes >= 60 {
		return false
	}
	return degrees < maxDegrees || (degrees == maxDegrees && d.Value == whole*pow10(d.Places) && minutes == 0)
}

func pow10(n uint8) uint64 {
	v := uint64(1)
	for i := uint8(0); i < n; i++ {
		v *= 10
	}
	return v
}

func positioning(s SystemStatus) bool {
	switch s {
	case SysGPSPositioning, SysGPSHeading, SysRTK, SysDifferentialHeading:
		return true
	}
	return false
}
