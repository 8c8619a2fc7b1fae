//go:build tinygo

package main

import "machine"

const (
	// Sampling configuration
	SAMPLE_INTERVAL_MS = 10 // ADC read interval in milliseconds
	NUM_SAMPLES        = 20 // Number of samples averaged into one published value

	// ADC configuration
	ADC_REFERENCE_MV = 3300 // Reference voltage in millivolts (3.3V)
	ADC_RESOLUTION   = 12   // ADC resolution in bits (12-bit = 0-4095)

	// GSR electrode divider output
	PIN_GSR_ADC = machine.A0

	// BLE identity. The characteristic UUID is what the reader polls.
	DEVICE_NAME         = "ESP32_GSR"
	SERVICE_UUID        = "4fafc201-1fb5-459e-8fcc-c5c9c331914b"
	CHARACTERISTIC_UUID = "beb5483e-36e1-4688-b7f5-ea07361b26a8"
)
