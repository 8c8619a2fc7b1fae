//go:build tinygo

//go:generate tinygo flash -target=xiao-ble

// Firmware for the GSR sensor: samples the electrode divider, averages
// NUM_SAMPLES readings and publishes the average as an ASCII decimal string
// on a readable BLE characteristic. Every value is also printed on the USB
// serial console, one per line.
package main

import (
	"machine"
	"strconv"
	"time"

	"tinygo.org/x/bluetooth"
)

var (
	adapter = bluetooth.DefaultAdapter
	adcGSR  machine.ADC

	gsrChar bluetooth.Characteristic

	// ADC averaging - running sum and count
	gsrSum   uint32
	gsrCount int

	// Output buffer reused for every published value
	valueBuf [8]byte
)

func main() {
	// Configure ADC pin and set up the ADC with highest resolution
	PIN_GSR_ADC.Configure(machine.PinConfig{Mode: machine.PinInput})
	adcGSR = machine.ADC{Pin: PIN_GSR_ADC}
	adcGSR.Configure(machine.ADCConfig{
		Reference:  ADC_REFERENCE_MV,
		Resolution: ADC_RESOLUTION,
	})

	must("enable BLE stack", adapter.Enable())
	must("add service", adapter.AddService(&bluetooth.Service{
		UUID: mustParseUUID(SERVICE_UUID),
		Characteristics: []bluetooth.CharacteristicConfig{
			{
				Handle: &gsrChar,
				UUID:   mustParseUUID(CHARACTERISTIC_UUID),
				Value:  []byte("0"),
				Flags:  bluetooth.CharacteristicReadPermission | bluetooth.CharacteristicNotifyPermission,
			},
		},
	}))

	adv := adapter.DefaultAdvertisement()
	must("configure advertisement", adv.Configure(bluetooth.AdvertisementOptions{
		LocalName:    DEVICE_NAME,
		ServiceUUIDs: []bluetooth.UUID{mustParseUUID(SERVICE_UUID)},
	}))
	must("start advertisement", adv.Start())

	// Main loop
	for {
		readGSR()

		if gsrCount >= NUM_SAMPLES {
			publish(uint16(gsrSum / uint32(gsrCount)))
			// Reset and start accumulating again
			gsrSum = 0
			gsrCount = 0
		}

		time.Sleep(SAMPLE_INTERVAL_MS * time.Millisecond)
	}
}

// readGSR adds one ADC sample to the running sum. Get returns a 16-bit
// scaled value; it is shifted down to ADC_RESOLUTION bits.
func readGSR() {
	value := adcGSR.Get() >> (16 - ADC_RESOLUTION)
	gsrSum += uint32(value)
	gsrCount++
}

// publish writes the averaged reading, e.g. "2048", to the characteristic
// and the serial console.
func publish(avg uint16) {
	out := strconv.AppendUint(valueBuf[:0], uint64(avg), 10)

	if _, err := gsrChar.Write(out); err != nil {
		println("characteristic write failed:", err.Error())
	}
	println(string(out))
}

func mustParseUUID(s string) bluetooth.UUID {
	uuid, err := bluetooth.ParseUUID(s)
	must("parse UUID "+s, err)
	return uuid
}

func must(action string, err error) {
	if err != nil {
		for {
			println("failed to " + action + ": " + err.Error())
			time.Sleep(time.Second)
		}
	}
}
