package routing

// Response is the part of a calculateRoute response read back from stored
// snapshots. Legs are left to the geometry resolver.
type Response struct {
	FormatVersion string  `json:"formatVersion"`
	Routes        []Route `json:"routes"`
}

// Route is one computed route. Only the first one is used.
type Route struct {
	Summary Summary `json:"summary"`
}

// Summary holds the traffic-aware totals of a route. Fields absent from the
// response stay nil.
type Summary struct {
	LengthInMeters        *int64 `json:"lengthInMeters"`
	TravelTimeInSeconds   *int64 `json:"travelTimeInSeconds"`
	TrafficDelayInSeconds *int64 `json:"trafficDelayInSeconds"`
	DepartureTime         string `json:"departureTime"`
	ArrivalTime           string `json:"arrivalTime"`
}

// ErrorResponse is the body of a non-2xx answer.
type ErrorResponse struct {
	FormatVersion string `json:"formatVersion"`
	DetailedError struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"detailedError"`
}
