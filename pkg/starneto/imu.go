// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package starneto

// Decimal places of the scaled GTIMU fields
const (
	GyroPlaces        = 4 // deg/s
	AccelPlaces       = 4 // g
	TemperaturePlaces = 1 // degrees Celsius
)

// IMU is a GTIMU raw inertial measurement
type IMU struct {
	GPSWeek     uint16
	GPSTime     uint32
	GyroX       int32
	GyroY       int32
	GyroZ       int32
	AccX        int32
	AccY        int32
	AccZ        int32
	Temperature int16
}

func (*IMU) Head() string { return HeadIMU }
func (*IMU) message()     {}

func (m *IMU) fields() []field {
	return []field{
		plain("GPSWeek", &m.GPSWeek),
		fixed("GPSTime", TimePlaces, &m.GPSTime),
		fixed("GyroX", GyroPlaces, &m.GyroX),
		fixed("GyroY", GyroPlaces, &m.GyroY),
		fixed("GyroZ", GyroPlaces, &m.GyroZ),
		fixed("AccX", AccelPlaces, &m.AccX),
		fixed("AccY", AccelPlaces, &m.AccY),
		fixed("AccZ", AccelPlaces, &m.AccZ),
		fixed("Tpr", TemperaturePlaces, &m.Temperature),
	}
}

func decodeIMU(tail string, present bool) (Message, error) {
	m := &IMU{}
	if err := decodeFields(HeadIMU, splitTail(tail, present), m.fields()); err != nil {
		return nil, err
	}
	return m, nil
}
