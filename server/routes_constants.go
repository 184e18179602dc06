package server

// Route path constants
// All application routes are defined here to ensure consistency and prevent typos
const (
	RouteRoot = "/"

	// Device registry
	RouteDevices = "/device"
	RouteDevice  = "/device/{device_id}"

	// Device authentication
	RouteDeviceAuth = "/device/{device_id}/auth"

	// Device telemetry
	RouteDeviceLog = "/device/{device_id}/log"
)

// pathDeviceID is the wildcard name used in the device routes.
const pathDeviceID = "device_id"
