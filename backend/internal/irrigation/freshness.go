package irrigation

import "time"

// OfflineThreshold is the maximum age of the latest reading for a device to count as online.
const OfflineThreshold = 300 * time.Second

// DeviceStatus is the derived freshness of the field device.
type DeviceStatus string

const (
	DeviceOnline  DeviceStatus = "Online"
	DeviceOffline DeviceStatus = "Offline"
	DeviceUnknown DeviceStatus = "Unknown"
)

// EvaluateFreshness classifies the device from the age of its latest reading.
// The threshold is inclusive. A nil lastSeen means nothing was ever received.
func EvaluateFreshness(now time.Time, lastSeen *time.Time) DeviceStatus {
	if lastSeen == nil {
		return DeviceUnknown
	}

	if now.Sub(*lastSeen) <= OfflineThreshold {
		return DeviceOnline
	}

	return DeviceOffline
}
