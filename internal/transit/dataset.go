package transit

// Cities offered as search suggestions.
var Cities = []string{
	"New York, NY",
	"Los Angeles, CA",
	"Chicago, IL",
	"Houston, TX",
	"Phoenix, AZ",
	"Philadelphia, PA",
	"San Antonio, TX",
	"San Diego, CA",
	"Dallas, TX",
	"San Jose, CA",
	"Austin, TX",
	"Jacksonville, FL",
	"Fort Worth, TX",
	"Columbus, OH",
	"Charlotte, NC",
	"San Francisco, CA",
	"Indianapolis, IN",
	"Seattle, WA",
	"Denver, CO",
	"Washington, DC",
	"Boston, MA",
	"El Paso, TX",
	"Nashville, TN",
	"Detroit, MI",
	"Oklahoma City, OK",
	"Portland, OR",
	"Las Vegas, NV",
	"Memphis, TN",
	"Louisville, KY",
	"Baltimore, MD",
}

// Stops is the full stop-name list used by the search form.
var Stops = []string{
	"Central Station",
	"Downtown Terminal",
	"Airport Hub",
	"University Campus",
	"Shopping Mall",
	"Business District",
	"Residential Area",
	"Medical Center",
	"Sports Complex",
	"Convention Center",
	"Train Station",
	"Bus Depot",
	"City Hall",
	"Library",
	"Park & Ride",
}

// DefaultRoutes is the built-in sample route table.
func DefaultRoutes() []BusRoute {
	return []BusRoute{
		{
			ID:            "BUS001",
			BusName:       "Express Metro",
			BusNumber:     "101",
			From:          "Central Station",
			To:            "Airport Hub",
			DepartureTime: "08:30 AM",
			ArrivalTime:   "09:15 AM",
			Fare:          12.5,
			Duration:      "45 min",
			Status:        StatusOnTime,
		},
		{
			ID:            "BUS002",
			BusName:       "City Cruiser",
			BusNumber:     "205",
			From:          "Downtown Terminal",
			To:            "University Campus",
			DepartureTime: "09:00 AM",
			ArrivalTime:   "09:35 AM",
			Fare:          8.75,
			Duration:      "35 min",
			Status:        StatusDelayed,
		},
		{
			ID:            "BUS003",
			BusName:       "Rapid Transit",
			BusNumber:     "150",
			From:          "Business District",
			To:            "Shopping Mall",
			DepartureTime: "10:15 AM",
			ArrivalTime:   "10:45 AM",
			Fare:          6.25,
			Duration:      "30 min",
			Status:        StatusOnTime,
		},
		{
			ID:            "BUS004",
			BusName:       "Metro Express",
			BusNumber:     "301",
			From:          "Medical Center",
			To:            "Train Station",
			DepartureTime: "11:30 AM",
			ArrivalTime:   "12:20 PM",
			Fare:          15.0,
			Duration:      "50 min",
			Status:        StatusEarly,
		},
		{
			ID:            "BUS005",
			BusName:       "City Link",
			BusNumber:     "88",
			From:          "Park & Ride",
			To:            "Convention Center",
			DepartureTime: "02:45 PM",
			ArrivalTime:   "03:25 PM",
			Fare:          9.5,
			Duration:      "40 min",
			Status:        StatusOnTime,
		},
	}
}
