package flightsource

// AircraftRecord - строка набора planes.dat
type AircraftRecord struct {
	Name string
	IATA string
	ICAO string
}

// AirlineRecord - строка набора airlines.dat
type AirlineRecord struct {
	Name     string
	Alias    string
	IATA     string
	ICAO     string
	Callsign string
	Country  string
	Active   bool
}

// AirportRecord - строка набора airports.dat
type AirportRecord struct {
	Name      string
	City      string
	Country   string
	IATA      string
	ICAO      string
	Latitude  float64
	Longitude float64
	UTCOffset float64
}

// FlightRecord - рейс из API источника
type FlightRecord struct {
	Departure           MovementRecord  `json:"departure"`
	Arrival             MovementRecord  `json:"arrival"`
	Number              string          `json:"number"`
	CallSign            string          `json:"callSign"`
	Status              string          `json:"status"`
	Aircraft            *AircraftInfo   `json:"aircraft,omitempty"`
	Airline             *AirlineInfo    `json:"airline,omitempty"`
	GreatCircleDistance *DistanceRecord `json:"greatCircleDistance,omitempty"`
}

// MovementRecord - вылет или прилет в ответе API
type MovementRecord struct {
	Airport            AirportInfo `json:"airport"`
	ScheduledTimeLocal string      `json:"scheduledTimeLocal"`
	ScheduledTimeUTC   string      `json:"scheduledTimeUtc"`
	ActualTimeLocal    string      `json:"actualTimeLocal"`
	ActualTimeUTC      string      `json:"actualTimeUtc"`
}

// AirportInfo - ссылка на аэропорт в ответе API
type AirportInfo struct {
	ICAO string `json:"icao"`
	IATA string `json:"iata"`
	Name string `json:"name"`
}

// AircraftInfo - борт в ответе API
type AircraftInfo struct {
	Reg   string `json:"reg"`
	Model string `json:"model"`
}

// AirlineInfo - авиакомпания в ответе API
type AirlineInfo struct {
	Name string `json:"name"`
	IATA string `json:"iata"`
	ICAO string `json:"icao"`
}

// DistanceRecord - расстояние по дуге большого круга
type DistanceRecord struct {
	Meter float64 `json:"meter"`
	Km    float64 `json:"km"`
	Mile  float64 `json:"mile"`
	NM    float64 `json:"nm"`
	Feet  float64 `json:"feet"`
}

type distanceResponse struct {
	GreatCircleDistance *DistanceRecord `json:"greatCircleDistance"`
}
