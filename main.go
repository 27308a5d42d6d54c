// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad
//
// Meridian - Star Neto GNSS/INS Sentence Analyzer
//

package main

import (
	"os"

	"github.com/Thermoquad/meridian/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
