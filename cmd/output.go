// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"fmt"
	"io"
	"strconv"

	"gopkg.in/yaml.v3"

	"github.com/Thermoquad/meridian/pkg/starneto"
)

// Output formats accepted by --format
const (
	formatText = "text"
	formatYAML = "yaml"
	formatCBOR = "cbor"
)

// sentenceRecord is the YAML form of one pull result
type sentenceRecord struct {
	Time     string            `yaml:"time"`
	Head     string            `yaml:"head,omitempty"`
	Name     string            `yaml:"name,omitempty"`
	Checksum string            `yaml:"checksum,omitempty"`
	Fields   map[string]string `yaml:"fields,omitempty"`
	Error    string            `yaml:"error,omitempty"`
}

// outputWriter renders pull results in the selected format
type outputWriter struct {
	format string
	w      io.Writer
	enc    *yaml.Encoder
}

func newOutputWriter(format string, w io.Writer) *outputWriter {
	o := &outputWriter{format: format, w: w}
	if format == formatYAML {
		o.enc = yaml.NewEncoder(w)
		o.enc.SetIndent(2)
	}
	return o
}

// write renders one event. CBOR output carries sentences only.
func (o *outputWriter) write(ev sentenceEvent) error {
	switch o.format {
	case formatYAML:
		return o.enc.Encode(recordFor(ev))

	case formatCBOR:
		if ev.sentence == nil {
			return nil
		}
		data, err := starneto.EncodeCBOR(ev.sentence)
		if err != nil {
			return err
		}
		_, err = o.w.Write(data)
		return err

	default:
		if ev.decodeErr != nil {
			_, err := fmt.Fprintf(o.w, "[%s] [ERROR] %v\n", ev.at.Format("15:04:05.000"), ev.decodeErr)
			return err
		}
		_, err := io.WriteString(o.w, starneto.FormatSentence(ev.sentence, ev.at))
		return err
	}
}

func (o *outputWriter) close() error {
	if o.enc != nil {
		return o.enc.Close()
	}
	return nil
}

func recordFor(ev sentenceEvent) sentenceRecord {
	rec := sentenceRecord{Time: ev.at.Format("2006-01-02T15:04:05.000Z07:00")}
	if ev.decodeErr != nil {
		rec.Error = ev.decodeErr.Error()
		return rec
	}
	head := ev.sentence.Message.Head()
	rec.Head = head
	rec.Name = starneto.FormatHead(head)
	rec.Checksum = fmt.Sprintf("%02X", ev.sentence.Checksum)
	rec.Fields = messageFields(ev.sentence.Message)
	return rec
}

// messageFields lists decoded values as exact decimal text
func messageFields(m starneto.Message) map[string]string {
	u := func(v uint64) string { return strconv.FormatUint(v, 10) }

	switch m := m.(type) {
	case *starneto.FPD:
		f := navigationFields(m.GPSWeek, m.GPSTime, m.Heading, m.Pitch, m.Latitude, m.Longitude, m.Altitude,
			m.VelE, m.VelN, m.VelU, m.Baseline, m.NSV1, m.NSV2)
		f["roll"] = starneto.FormatFixed(m.Roll, starneto.AnglePlaces)
		f["system_status"] = m.Status.System.String()
		f["rtk_status"] = m.Status.RTK.String()
		return f

	case *starneto.HPD:
		f := navigationFields(m.GPSWeek, m.GPSTime, m.Heading, m.Pitch, m.Latitude, m.Longitude, m.Altitude,
			m.VelE, m.VelN, m.VelU, m.Baseline, m.NSV1, m.NSV2)
		f["track"] = starneto.FormatFixed(m.Track, starneto.AnglePlaces)
		f["status"] = m.Status.String()
		return f

	case *starneto.IMU:
		return map[string]string{
			"gps_week":    u(uint64(m.GPSWeek)),
			"gps_time":    starneto.FormatFixed(m.GPSTime, starneto.TimePlaces),
			"gyro_x":      starneto.FormatFixed(m.GyroX, starneto.GyroPlaces),
			"gyro_y":      starneto.FormatFixed(m.GyroY, starneto.GyroPlaces),
			"gyro_z":      starneto.FormatFixed(m.GyroZ, starneto.GyroPlaces),
			"acc_x":       starneto.FormatFixed(m.AccX, starneto.AccelPlaces),
			"acc_y":       starneto.FormatFixed(m.AccY, starneto.AccelPlaces),
			"acc_z":       starneto.FormatFixed(m.AccZ, starneto.AccelPlaces),
			"temperature": starneto.FormatFixed(m.Temperature, starneto.TemperaturePlaces),
		}

	case *starneto.GGA:
		f := map[string]string{
			"utc_time":         starneto.FormatFixed(m.UTCTime, starneto.UTCTimePlaces),
			"latitude":         m.Latitude.String() + " " + string(rune(m.NS)),
			"longitude":        m.Longitude.String() + " " + string(rune(m.EW)),
			"fix_quality":      m.Quality.String(),
			"satellites":       u(uint64(m.Satellites)),
			"hdop":             m.HDOP.String(),
			"altitude":         m.Altitude.String() + " " + string(rune(m.AltitudeUnit)),
			"geoid_separation": m.Separation.String() + " " + string(rune(m.SeparationUnit)),
		}
		if m.DiffAge != nil {
			f["diff_age"] = u(uint64(*m.DiffAge))
		}
		if m.DiffStation != nil {
			f["diff_station"] = u(uint64(*m.DiffStation))
		}
		return f

	case *starneto.Command:
		return map[string]string{"verb": string(m.Verb), "payload": m.Payload}

	case starneto.Tailer:
		return map[string]string{"raw": m.Tail()}
	}
	return nil
}

func navigationFields(week uint16, tow, heading uint32, pitch, lat, lon, alt, ve, vn, vu int32, baseline uint16, nsv1, nsv2 uint8) map[string]string {
	return map[string]string{
		"gps_week":  strconv.FormatUint(uint64(week), 10),
		"gps_time":  starneto.FormatFixed(tow, starneto.TimePlaces),
		"heading":   starneto.FormatFixed(heading, starneto.AnglePlaces),
		"pitch":     starneto.FormatFixed(pitch, starneto.AnglePlaces),
		"latitude":  starneto.FormatFixed(lat, starneto.LatLonPlaces),
		"longitude": starneto.FormatFixed(lon, starneto.LatLonPlaces),
		"altitude":  starneto.FormatFixed(alt, starneto.AltitudePlaces),
		"vel_e":     starneto.FormatFixed(ve, starneto.VelocityPlaces),
		"vel_n":     starneto.FormatFixed(vn, starneto.VelocityPlaces),
		"vel_u":     starneto.FormatFixed(vu, starneto.VelocityPlaces),
		"baseline":  starneto.FormatFixed(baseline, starneto.BaselinePlaces),
		"nsv1":      strconv.FormatUint(uint64(nsv1), 10),
		"nsv2":      strconv.FormatUint(uint64(nsv2), 10),
	}
}
