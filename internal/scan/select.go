package scan

import (
	"strings"

	"golang.org/x/text/cases"
)

var rearHints = []string{"back", "rear", "environment"}

// SelectDevice picks the device to open.
//
// The first device whose label contains "back", "rear" or "environment"
// (case-insensitively) wins. Otherwise the last enumerated device is used,
// since rear cameras are usually listed last. ok is false for an empty list.
func SelectDevice(devices []Device) (Device, bool) {
	if len(devices) == 0 {
		return Device{}, false
	}
	fold := cases.Fold()
	for _, d := range devices {
		label := fold.String(d.Label)
		for _, hint := range rearHints {
			if strings.Contains(label, hint) {
				return d, true
			}
		}
	}
	return devices[len(devices)-1], true
}
