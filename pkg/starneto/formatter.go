// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package starneto

import (
	"fmt"
	"strings"
	"time"
)

// FormatSentence formats a sentence into a human-readable block stamped
// with the time it was received
func FormatSentence(s *Sentence, at time.Time) string {
	timestamp := at.Format("15:04:05.000")
	head := s.Message.Head()

	result := fmt.Sprintf("[%s] %s (%s) cs=0x%02X\n", timestamp, FormatHead(head), head, s.Checksum)
	result += FormatMessage(s.Message)

	return result
}

// FormatHead returns the display name for a sentence head
func FormatHead(head string) string {
	switch head {
	case HeadFPD:
		return "ATTITUDE_POSITION"
	case HeadIMU:
		return "RAW_IMU"
	case HeadHPD:
		return "HEADING_POSITION"
	case HeadGGA:
		return "GNSS_FIX"
	case HeadRMC:
		return "GNSS_RECOMMENDED"
	case HeadCHC:
		return "CHC_NAVIGATION"
	case HeadCommand:
		return "COMMAND"
	default:
		return "UNKNOWN"
	}
}

// FormatMessage formats the fields of a message, one group per line.
// Scaled values are printed exactly as the receiver sent them.
func FormatMessage(m Message) string {
	switch m := m.(type) {
	case *FPD:
		result := fmt.Sprintf("  Week: %d, Time: %s s\n", m.GPSWeek, FormatFixed(m.GPSTime, TimePlaces))
		result += fmt.Sprintf("  Heading: %s°, Pitch: %s°, Roll: %s°\n",
			FormatFixed(m.Heading, AnglePlaces), FormatFixed(m.Pitch, AnglePlaces), FormatFixed(m.Roll, AnglePlaces))
		result += formatPosition(m.Latitude, m.Longitude, m.Altitude)
		result += formatVelocity(m.VelE, m.VelN, m.VelU)
		result += fmt.Sprintf("  Baseline: %s m, Satellites: %d/%d\n", FormatFixed(m.Baseline, BaselinePlaces), m.NSV1, m.NSV2)
		result += fmt.Sprintf("  Status: %s / %s\n", m.Status.System, m.Status.RTK)
		return result

	case *HPD:
		result := fmt.Sprintf("  Week: %d, Time: %s s\n", m.GPSWeek, FormatFixed(m.GPSTime, TimePlaces))
		result += fmt.Sprintf("  Heading: %s°, Pitch: %s°, Track: %s°\n",
			FormatFixed(m.Heading, AnglePlaces), FormatFixed(m.Pitch, AnglePlaces), FormatFixed(m.Track, AnglePlaces))
		result += formatPosition(m.Latitude, m.Longitude, m.Altitude)
		result += formatVelocity(m.VelE, m.VelN, m.VelU)
		result += fmt.Sprintf("  Baseline: %s m, Satellites: %d/%d\n", FormatFixed(m.Baseline, BaselinePlaces), m.NSV1, m.NSV2)
		result += fmt.Sprintf("  Status: %s\n", m.Status)
		return result

	case *IMU:
		result := fmt.Sprintf("  Week: %d, Time: %s s\n", m.GPSWeek, FormatFixed(m.GPSTime, TimePlaces))
		result += fmt.Sprintf("  Gyro: X=%s Y=%s Z=%s deg/s\n",
			FormatFixed(m.GyroX, GyroPlaces), FormatFixed(m.GyroY, GyroPlaces), FormatFixed(m.GyroZ, GyroPlaces))
		result += fmt.Sprintf("  Accel: X=%s Y=%s Z=%s g\n",
			FormatFixed(m.AccX, AccelPlaces), FormatFixed(m.AccY, AccelPlaces), FormatFixed(m.AccZ, AccelPlaces))
		result += fmt.Sprintf("  Temperature: %s°C\n", FormatFixed(m.Temperature, TemperaturePlaces))
		return result

	case *GGA:
		result := fmt.Sprintf("  UTC: %s, Fix: %s, Satellites: %d, HDOP: %s\n",
			formatUTC(m.UTCTime), m.Quality, m.Satellites, m.HDOP)
		result += fmt.Sprintf("  Lat: %s %c, Lon: %s %c\n", m.Latitude, m.NS, m.Longitude, m.EW)
		result += fmt.Sprintf("  Alt: %s %c, Geoid: %s %c\n", m.Altitude, m.AltitudeUnit, m.Separation, m.SeparationUnit)
		if m.DiffAge != nil || m.DiffStation != nil {
			result += fmt.Sprintf("  Differential: age=%s station=%s\n", formatOptional(m.DiffAge), formatOptional(m.DiffStation))
		}
		return result

	case *Command:
		return fmt.Sprintf("  Verb: %s, Payload: %s\n", m.Verb, m.Payload)

	case Tailer:
		return fmt.Sprintf("  Fields: %s\n", m.Tail())
	}
	return ""
}

func formatPosition(lat, lon, alt int32) string {
	return fmt.Sprintf("  Lat: %s°, Lon: %s°, Alt: %s m\n",
		FormatFixed(lat, LatLonPlaces), FormatFixed(lon, LatLonPlaces), FormatFixed(alt, AltitudePlaces))
}

func formatVelocity(e, n, u int32) string {
	return fmt.Sprintf("  Velocity: E=%s N=%s U=%s m/s\n",
		FormatFixed(e, VelocityPlaces), FormatFixed(n, VelocityPlaces), FormatFixed(u, VelocityPlaces))
}

// formatUTC renders hhmmss.ss as hh:mm:ss.ss
func formatUTC(t uint32) string {
	s := FormatFixed(t, UTCTimePlaces)
	if len(s) < 9 {
		s = strings.Repeat("0", 9-len(s)) + s
	}
	return s[0:2] + ":" + s[2:4] + ":" + s[4:]
}

func formatOptional[T Integer](v *T) string {
	if v == nil {
		return "-"
	}
	return fmt.Sprint(*v)
}

func (s SystemStatus) String() string {
	switch s {
	case SysInitializing:
		return "INITIALIZING"
	case SysCoarseAlignment:
		return "COARSE_ALIGNMENT"
	case SysFineAlignment:
		return "FINE_ALIGNMENT"
	case SysGPSPositioning:
		return "GPS_POSITIONING"
	case SysGPSHeading:
		return "GPS_HEADING"
	case SysRTK:
		return "RTK"
	case SysDMICombined:
		return "DMI_COMBINED"
	case SysDMICalibration:
		return "DMI_CALIBRATION"
	case SysInertialOnly:
		return "INERTIAL_ONLY"
	case SysZeroVelocity:
		return "ZERO_VELOCITY"
	case SysVGMode:
		return "VG_MODE"
	case SysDifferentialHeading:
		return "DIFFERENTIAL_HEADING"
	case SysDynamicAlignment:
		return "DYNAMIC_ALIGNMENT"
	case SysDynamicError:
		return "DYNAMIC_ERROR"
	default:
		return fmt.Sprintf("UNKNOWN(0x%X)", uint8(s))
	}
}

func (s RTKStatus) String() string {
	switch s {
	case RTKSingle:
		return "SINGLE"
	case RTKDualMode:
		return "DUAL_MODE"
	case RTKFixed:
		return "RTK_FIXED"
	case RTKFloat:
		return "RTK_FLOAT"
	default:
		return fmt.Sprintf("UNKNOWN(%d)", uint8(s))
	}
}

func (s HeadingStatus) String() string {
	switch s {
	case HeadingInitializing:
		return "INITIALIZING"
	case HeadingGPSPositioning:
		return "GPS_POSITIONING"
	case HeadingGPSHeading:
		return "GPS_HEADING"
	case HeadingRTKPositioning:
		return "RTK_POSITIONING"
	case HeadingRTKHeading:
		return "RTK_HEADING"
	default:
		return fmt.Sprintf("UNKNOWN(%d)", uint8(s))
	}
}

func (q FixQuality) String() string {
	switch q {
	case FixInvalid:
		return "INVALID"
	case FixSinglePoint:
		return "SINGLE_POINT"
	case FixDifferential:
		return "DIFFERENTIAL"
	case FixRTKFixed:
		return "RTK_FIXED"
	case FixRTKFloat:
		return "RTK_FLOAT"
	case FixEstimating:
		return "ESTIMATING"
	case FixManual:
		return "MANUAL"
	case FixDeadReckoning:
		return "DEAD_RECKONING"
	case FixWAAS:
		return "WAAS"
	default:
		return fmt.Sprintf("UNKNOWN(%d)", uint8(q))
	}
}
