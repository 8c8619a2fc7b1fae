package main

import (
	"fmt"
	"strconv"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/widget"
	"github.com/itohio/goeda/pkg/config"
	"github.com/itohio/goeda/pkg/gsr"
)

// showSettingsDialog displays a settings dialog with tabs for all configuration options.
// Changes are saved to the configuration file and take effect on the next start.
func showSettingsDialog(state *appState) {
	tabs := container.NewAppTabs(
		createDeviceTab(state),
		createADCTab(state),
		createImpulseTab(state),
		createRecordingTab(state),
		createOSCTab(state),
		createMockTab(state),
	)

	content := container.NewBorder(nil, widget.NewLabel("Changes apply after restart."), nil, nil, tabs)

	d := dialog.NewCustom("Settings", "Close", content, state.window)
	d.Resize(fyne.NewSize(600, 450))
	d.Show()
}

// saveConfig applies edit to a copy of the saved configuration and writes it
// when valid. Rejected edits leave the saved configuration untouched.
func saveConfig(state *appState, edit func(c *config.Config)) {
	next, err := editConfig(state.saved, edit)
	if err != nil {
		dialog.ShowError(err, state.window)
		return
	}
	if err := next.Save(state.configPath); err != nil {
		dialog.ShowError(fmt.Errorf("failed to save config: %w", err), state.window)
		return
	}
	state.saved = next
}

// editConfig returns an edited, validated copy of saved.
func editConfig(saved *config.Config, edit func(c *config.Config)) (*config.Config, error) {
	next := saved.Clone()
	edit(next)
	if err := next.Validate(); err != nil {
		return nil, err
	}
	return next, nil
}

// createDeviceTab creates the Device configuration tab.
func createDeviceTab(state *appState) *container.TabItem {
	transportSelect := widget.NewSelect([]string{config.TransportBLE, config.TransportSerial, config.TransportMock}, nil)
	transportSelect.SetSelected(state.saved.Device.Transport)

	addressEntry := widget.NewEntry()
	addressEntry.SetText(state.saved.Device.Address)

	characteristicEntry := widget.NewEntry()
	characteristicEntry.SetText(state.saved.Device.Characteristic)

	// Map display name to actual port name
	portOptions, portMap := serialPortOptions(state.saved.Device.SerialPort)
	portSelect := widget.NewSelect(portOptions, nil)
	for display, name := range portMap {
		if name == state.saved.Device.SerialPort {
			portSelect.SetSelected(display)
			break
		}
	}

	baudEntry := widget.NewEntry()
	baudEntry.SetText(strconv.Itoa(state.saved.Device.BaudRate))

	form := &widget.Form{
		Items: []*widget.FormItem{
			{Text: "Transport", Widget: transportSelect},
			{Text: "BLE Address", Widget: addressEntry},
			{Text: "Characteristic UUID", Widget: characteristicEntry},
			{Text: "Serial Port", Widget: portSelect},
			{Text: "Baud Rate", Widget: baudEntry},
		},
		OnSubmit: func() {
			saveConfig(state, func(c *config.Config) {
				if transportSelect.Selected != "" {
					c.Device.Transport = transportSelect.Selected
				}
				c.Device.Address = addressEntry.Text
				c.Device.Characteristic = characteristicEntry.Text
				if name := portMap[portSelect.Selected]; name != "" {
					c.Device.SerialPort = name
				}
				if baud, err := strconv.Atoi(baudEntry.Text); err == nil {
					c.Device.BaudRate = baud
				}
			})
		},
	}

	return container.NewTabItem("Device", form)
}

// serialPortOptions lists serial ports for a select widget, keeping current
// in the list even when it is not plugged in.
func serialPortOptions(current string) ([]string, map[string]string) {
	var options []string
	portMap := make(map[string]string)

	if ports, err := gsr.Ports(); err == nil {
		for _, port := range ports {
			displayName := port.Name
			if port.Description != "" && port.Description != port.Name {
				displayName = fmt.Sprintf("%s (%s)", port.Name, port.Description)
			}
			options = append(options, displayName)
			portMap[displayName] = port.Name
		}
	}

	found := false
	for _, name := range portMap {
		if name == current {
			found = true
			break
		}
	}
	if !found && current != "" {
		options = append(options, current)
		portMap[current] = current
	}

	return options, portMap
}

// createADCTab creates the ADC / voltage divider configuration tab.
func createADCTab(state *appState) *container.TabItem {
	resolutionEntry := widget.NewEntry()
	resolutionEntry.SetText(strconv.Itoa(state.saved.ADC.Resolution))

	vccEntry := widget.NewEntry()
	vccEntry.SetText(fmt.Sprintf("%.2f", state.saved.ADC.VCC))

	rFixedEntry := widget.NewEntry()
	rFixedEntry.SetText(fmt.Sprintf("%.0f", state.saved.ADC.RFixed))

	form := &widget.Form{
		Items: []*widget.FormItem{
			{Text: "Resolution (counts)", Widget: resolutionEntry},
			{Text: "VCC (V)", Widget: vccEntry},
			{Text: "R fixed (Ω)", Widget: rFixedEntry},
		},
		OnSubmit: func() {
			saveConfig(state, func(c *config.Config) {
				if res, err := strconv.Atoi(resolutionEntry.Text); err == nil {
					c.ADC.Resolution = res
				}
				if vcc, err := strconv.ParseFloat(vccEntry.Text, 64); err == nil {
					c.ADC.VCC = vcc
				}
				if r, err := strconv.ParseFloat(rFixedEntry.Text, 64); err == nil {
					c.ADC.RFixed = r
				}
			})
		},
	}

	return container.NewTabItem("ADC", form)
}

// createImpulseTab creates the impulse detector configuration tab.
func createImpulseTab(state *appState) *container.TabItem {
	windowEntry := widget.NewEntry()
	windowEntry.SetText(strconv.Itoa(state.saved.Impulse.Window))

	minEntry := widget.NewEntry()
	minEntry.SetText(fmt.Sprintf("%.3f", state.saved.Impulse.MinThreshold))

	maxEntry := widget.NewEntry()
	maxEntry.SetText(fmt.Sprintf("%.3f", state.saved.Impulse.MaxThreshold))

	intervalEntry := widget.NewEntry()
	intervalEntry.SetText(state.saved.Acquisition.Interval.String())

	form := &widget.Form{
		Items: []*widget.FormItem{
			{Text: "Window (samples)", Widget: windowEntry},
			{Text: "Min Δ (µS)", Widget: minEntry},
			{Text: "Max Δ (µS)", Widget: maxEntry},
			{Text: "Sample Interval", Widget: intervalEntry},
		},
		OnSubmit: func() {
			saveConfig(state, func(c *config.Config) {
				if w, err := strconv.Atoi(windowEntry.Text); err == nil {
					c.Impulse.Window = w
				}
				if v, err := strconv.ParseFloat(minEntry.Text, 64); err == nil {
					c.Impulse.MinThreshold = v
				}
				if v, err := strconv.ParseFloat(maxEntry.Text, 64); err == nil {
					c.Impulse.MaxThreshold = v
				}
				if d, err := time.ParseDuration(intervalEntry.Text); err == nil {
					c.Acquisition.Interval = d
				}
			})
		},
	}

	return container.NewTabItem("Impulse", form)
}

// createRecordingTab creates the CSV recording configuration tab.
func createRecordingTab(state *appState) *container.TabItem {
	dirEntry := widget.NewEntry()
	dirEntry.SetText(state.saved.Recording.Dir)

	startEntry := widget.NewEntry()
	startEntry.SetText(state.saved.Recording.StartKey)

	stopEntry := widget.NewEntry()
	stopEntry.SetText(state.saved.Recording.StopKey)

	globalCheck := widget.NewCheck("", nil)
	globalCheck.SetChecked(state.saved.Recording.GlobalKeys)

	syncCheck := widget.NewCheck("", nil)
	syncCheck.SetChecked(state.saved.Recording.Sync)

	form := &widget.Form{
		Items: []*widget.FormItem{
			{Text: "Directory", Widget: dirEntry},
			{Text: "Start Key", Widget: startEntry},
			{Text: "Stop Key", Widget: stopEntry},
			{Text: "System-wide Keys", Widget: globalCheck},
			{Text: "Sync Every Row", Widget: syncCheck},
		},
		OnSubmit: func() {
			saveConfig(state, func(c *config.Config) {
				if dirEntry.Text != "" {
					c.Recording.Dir = dirEntry.Text
				}
				if startEntry.Text != "" {
					c.Recording.StartKey = startEntry.Text
				}
				if stopEntry.Text != "" {
					c.Recording.StopKey = stopEntry.Text
				}
				c.Recording.GlobalKeys = globalCheck.Checked
				c.Recording.Sync = syncCheck.Checked
			})
		},
	}

	return container.NewTabItem("Recording", form)
}

// createOSCTab creates the OSC forwarding configuration tab.
func createOSCTab(state *appState) *container.TabItem {
	hostEntry := widget.NewEntry()
	hostEntry.SetText(state.saved.OSC.ForwardHost)
	hostEntry.SetPlaceHolder("disabled")

	portEntry := widget.NewEntry()
	portEntry.SetText(strconv.Itoa(state.saved.OSC.ForwardPort))

	addressEntry := widget.NewEntry()
	addressEntry.SetText(state.saved.OSC.ForwardAddress)

	form := &widget.Form{
		Items: []*widget.FormItem{
			{Text: "Forward Host", Widget: hostEntry},
			{Text: "Forward Port", Widget: portEntry},
			{Text: "Forward Address", Widget: addressEntry},
		},
		OnSubmit: func() {
			saveConfig(state, func(c *config.Config) {
				c.OSC.ForwardHost = hostEntry.Text
				if port, err := strconv.Atoi(portEntry.Text); err == nil {
					c.OSC.ForwardPort = port
				}
				if addressEntry.Text != "" {
					c.OSC.ForwardAddress = addressEntry.Text
				}
			})
		},
	}

	return container.NewTabItem("OSC", form)
}

// createMockTab creates the Mock device configuration tab.
func createMockTab(state *appState) *container.TabItem {
	baselineEntry := widget.NewEntry()
	baselineEntry.SetText(strconv.Itoa(state.saved.Mock.BaselineADC))

	noiseLevelEntry := widget.NewEntry()
	noiseLevelEntry.SetText(fmt.Sprintf("%.1f", state.saved.Mock.NoiseLevel))

	responseEntry := widget.NewEntry()
	responseEntry.SetText(fmt.Sprintf("%.1f", state.saved.Mock.ResponseADC))

	periodEntry := widget.NewEntry()
	periodEntry.SetText(state.saved.Mock.ResponsePeriod.String())

	malformedEntry := widget.NewEntry()
	malformedEntry.SetText(fmt.Sprintf("%.3f", state.saved.Mock.MalformedRate))

	form := &widget.Form{
		Items: []*widget.FormItem{
			{Text: "Baseline (ADC)", Widget: baselineEntry},
			{Text: "Noise Level (ADC)", Widget: noiseLevelEntry},
			{Text: "Response Depth (ADC)", Widget: responseEntry},
			{Text: "Response Period", Widget: periodEntry},
			{Text: "Malformed Rate", Widget: malformedEntry},
		},
		OnSubmit: func() {
			saveConfig(state, func(c *config.Config) {
				if b, err := strconv.Atoi(baselineEntry.Text); err == nil {
					c.Mock.BaselineADC = b
				}
				if nl, err := strconv.ParseFloat(noiseLevelEntry.Text, 64); err == nil {
					c.Mock.NoiseLevel = nl
				}
				if r, err := strconv.ParseFloat(responseEntry.Text, 64); err == nil {
					c.Mock.ResponseADC = r
				}
				if p, err := time.ParseDuration(periodEntry.Text); err == nil {
					c.Mock.ResponsePeriod = p
				}
				if mr, err := strconv.ParseFloat(malformedEntry.Text, 64); err == nil {
					c.Mock.MalformedRate = mr
				}
			})
		},
	}

	return container.NewTabItem("Mock", form)
}
