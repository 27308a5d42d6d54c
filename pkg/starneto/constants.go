// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

// Package starneto decodes the ASCII sentence stream emitted by Star Neto
// GNSS/INS receivers.
//
// Sentences have the form $HEAD,field1,field2,...*XX where XX is the XOR of
// every byte between '$' and '*' as two hex digits. Operator command
// acknowledgements ($cmd,...) carry the literal checksum "ff" instead.
//
// The Parser owns a fixed-capacity buffer. Callers fill the window returned by
// Buffer, report the byte count with Advance, then pull sentences with Next
// until it returns nil. Numeric fields are decoded as scaled integers so that
// coordinates and velocities survive without floating-point rounding.
package starneto

// Framing bytes
const (
	StartByte    = '$'
	ChecksumByte = '*'
	FieldSep     = ','
)

// Buffer sizing
const (
	DefaultBufferSize = 256
	// MinBufferSize holds one full-width GPFPD, the longest decoded
	// sentence at 118 bytes plus CRLF.
	MinBufferSize = 128
)

// Literal checksum used by the command acknowledgement family
const commandChecksum = "ff"

// Sentence heads
const (
	HeadFPD     = "GPFPD"
	HeadIMU     = "GTIMU"
	HeadHPD     = "GPHPD"
	HeadGGA     = "GPGGA"
	HeadRMC     = "GPRMC"
	HeadCHC     = "GPCHC"
	HeadCommand = "cmd"
)

// SystemStatus is the first status digit of GPFPD
type SystemStatus uint8

// System status values
const (
	SysInitializing        SystemStatus = 0x0
	SysCoarseAlignment     SystemStatus = 0x1
	SysFineAlignment       SystemStatus = 0x2
	SysGPSPositioning      SystemStatus = 0x3
	SysGPSHeading          SystemStatus = 0x4
	SysRTK                 SystemStatus = 0x5
	SysDMICombined         SystemStatus = 0x6
	SysDMICalibration      SystemStatus = 0x7
	SysInertialOnly        SystemStatus = 0x8
	SysZeroVelocity        SystemStatus = 0x9
	SysVGMode              SystemStatus = 0xA
	SysDifferentialHeading SystemStatus = 0xB
	SysDynamicAlignment    SystemStatus = 0xC
	SysDynamicError        SystemStatus = 0xF
)

// RTKStatus is the second status digit of GPFPD
type RTKStatus uint8

// RTK status values
const (
	RTKSingle   RTKStatus = 0
	RTKDualMode RTKStatus = 2
	RTKFixed    RTKStatus = 4
	RTKFloat    RTKStatus = 5
)

// HeadingStatus is the GPHPD status field
type HeadingStatus uint8

// Heading status values
const (
	HeadingInitializing   HeadingStatus = 0x0
	HeadingGPSPositioning HeadingStatus = 0x3
	HeadingGPSHeading     HeadingStatus = 0x4
	HeadingRTKPositioning HeadingStatus = 0x5
	HeadingRTKHeading     HeadingStatus = 0xB
)

// FixQuality is the GPGGA fix status field
type FixQuality uint8

// Fix quality values
const (
	FixInvalid       FixQuality = 0
	FixSinglePoint   FixQuality = 1
	FixDifferential  FixQuality = 2
	FixRTKFixed      FixQuality = 4
	FixRTKFloat      FixQuality = 5
	FixEstimating    FixQuality = 6
	FixManual        FixQuality = 7
	FixDeadReckoning FixQuality = 8
	FixWAAS          FixQuality = 9
)

// Hemisphere letters used by GPGGA
const (
	North = 'N'
	South = 'S'
	East  = 'E'
	West  = 'W'
)

// UnitMeters is the only length unit the receiver reports
const UnitMeters = 'M'

// CommandVerb is the sub-verb of a cmd sentence
type CommandVerb string

// Known command verbs
const (
	VerbGet     CommandVerb = "get"
	VerbSet     CommandVerb = "set"
	VerbThrough CommandVerb = "through"
)
