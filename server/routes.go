package server

func (s *Server) initRoutes() {
	s.RegisterRouteHandler("GET "+RouteRoot+"{$}", ChainMiddleware(s.IndexHandler(), s.APIMiddleware()...))

	// Device registry (read only)
	s.RegisterRouteHandler("GET "+RouteDevices, ChainMiddleware(s.ListDevicesHandler(), s.APIMiddleware()...))
	s.RegisterRouteHandler("GET "+RouteDevice, ChainMiddleware(s.GetDeviceHandler(), s.APIMiddleware()...))

	// Handshake
	s.RegisterRouteHandler("POST "+RouteDeviceAuth, ChainMiddleware(s.DeviceAuthHandler(), s.APIMiddleware()...))

	// Telemetry
	s.RegisterRouteHandler("GET "+RouteDeviceLog, ChainMiddleware(s.ListDeviceLogsHandler(), s.APIMiddleware()...))
	s.RegisterRouteHandler("POST "+RouteDeviceLog, ChainMiddleware(s.AddDeviceLogHandler(), s.APIMiddleware(s.RequireDeviceToken())...))
}
