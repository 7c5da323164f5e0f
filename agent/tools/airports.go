package tools

import "strings"

// defaultOriginIATA is used when no origin city resolves, matching the
// planner's Jakarta-first audience.
const defaultOriginIATA = "CGK"

var airportCodes = map[string]string{
	"jakarta": "CGK", "paris": "CDG", "amsterdam": "AMS", "berlin": "BER", "rome": "FCO",
	"vienna": "VIE", "budapest": "BUD", "athens": "ATH", "barcelona": "BCN", "lisbon": "LIS",
	"london": "LHR", "madrid": "MAD", "zurich": "ZRH", "brussels": "BRU", "oslo": "OSL",
	"stockholm": "ARN", "helsinki": "HEL", "new york": "JFK", "los angeles": "LAX",
	"chicago": "ORD", "san francisco": "SFO", "miami": "MIA", "toronto": "YYZ", "vancouver": "YVR",
	"singapore": "SIN", "kuala lumpur": "KUL", "bangkok": "BKK", "hong kong": "HKG",
	"tokyo": "HND", "seoul": "ICN", "beijing": "PEK", "shanghai": "PVG", "delhi": "DEL", "mumbai": "BOM",
	"cairo": "CAI", "johannesburg": "JNB", "nairobi": "NBO", "lagos": "LOS", "cape town": "CPT",
}

// airportCode resolves a city name to an IATA code. Inputs that already look
// like a code pass through.
func airportCode(city string) string {
	city = strings.TrimSpace(city)
	if city == "" {
		return ""
	}
	if code, ok := airportCodes[strings.ToLower(city)]; ok {
		return code
	}
	if len(city) == 3 && strings.ToUpper(city) == city {
		return city
	}
	return ""
}
