package gtfs

// Waypoint represents a geographical coordinate
type Waypoint struct {
	Longitude float64 `json:"longitude"`
	Latitude  float64 `json:"latitude"`
}

// LocationType of a stops.txt entry
type LocationType int

const (
	LocationStop LocationType = iota
	LocationStation
	LocationEntranceExit
	LocationGenericNode
	LocationBoardingArea
)

// RouteType is the basic GTFS route_type enumeration
type RouteType int

const (
	RouteLightRail  RouteType = 0
	RouteSubway     RouteType = 1
	RouteRail       RouteType = 2
	RouteBus        RouteType = 3
	RouteFerry      RouteType = 4
	RouteCableTram  RouteType = 5
	RouteAerialLift RouteType = 6
	RouteFunicular  RouteType = 7
	RouteTrolleybus RouteType = 11
	RouteMonorail   RouteType = 12
)

// Direction of travel for a trip (trips.txt direction_id)
type Direction int

const (
	DirectionOutbound Direction = 0
	DirectionInbound  Direction = 1
)

// PickupDropOff is used by stop_times pickup_type/drop_off_type and the
// continuous_* columns. A nil pointer means the cell was blank.
type PickupDropOff int

const (
	PickupScheduled PickupDropOff = iota
	PickupNone
	PickupPhoneAgency
	PickupCoordinateWithDriver
)

// ExceptionType of a calendar_dates.txt entry
type ExceptionType int

const (
	ServiceAdded   ExceptionType = 1
	ServiceRemoved ExceptionType = 2
)

// Typed rows for the tables the index consumes. Fields map to columns by
// their csv tag; int-or-empty columns are pointers so blank stays distinct
// from zero.

type Agency struct {
	ID       string `csv:"agency_id,omitempty"`
	Name     string `csv:"agency_name"`
	URL      string `csv:"agency_url"`
	Timezone string `csv:"agency_timezone"`
	Lang     string `csv:"agency_lang,omitempty"`
	Phone    string `csv:"agency_phone,omitempty"`
	FareURL  string `csv:"agency_fare_url,omitempty"`
	Email    string `csv:"agency_email,omitempty"`
}

type Stop struct {
	ID                 string       `csv:"stop_id"`
	Code               string       `csv:"stop_code,omitempty"`
	Name               string       `csv:"stop_name,omitempty"`
	Desc               string       `csv:"stop_desc,omitempty"`
	Lat                float64      `csv:"stop_lat,omitempty"`
	Lon                float64      `csv:"stop_lon,omitempty"`
	ZoneID             string       `csv:"zone_id,omitempty"`
	LocationType       LocationType `csv:"location_type,omitempty"`
	ParentStation      string       `csv:"parent_station,omitempty"`
	Timezone           string       `csv:"stop_timezone,omitempty"`
	WheelchairBoarding *int         `csv:"wheelchair_boarding"`
	PlatformCode       string       `csv:"platform_code,omitempty"`
}

type Route struct {
	ID                string         `csv:"route_id"`
	AgencyID          string         `csv:"agency_id,omitempty"`
	ShortName         string         `csv:"route_short_name,omitempty"`
	LongName          string         `csv:"route_long_name,omitempty"`
	Desc              string         `csv:"route_desc,omitempty"`
	Type              RouteType      `csv:"route_type"`
	URL               string         `csv:"route_url,omitempty"`
	Color             string         `csv:"route_color,omitempty"`
	TextColor         string         `csv:"route_text_color,omitempty"`
	SortOrder         *int           `csv:"route_sort_order"`
	ContinuousPickup  *PickupDropOff `csv:"continuous_pickup"`
	ContinuousDropOff *PickupDropOff `csv:"continuous_drop_off"`
	NetworkID         string         `csv:"network_id,omitempty"`
}

type Trip struct {
	RouteID              string     `csv:"route_id"`
	ServiceID            string     `csv:"service_id"`
	ID                   string     `csv:"trip_id"`
	Headsign             string     `csv:"trip_headsign,omitempty"`
	ShortName            string     `csv:"trip_short_name,omitempty"`
	DirectionID          *Direction `csv:"direction_id"`
	BlockID              string     `csv:"block_id,omitempty"`
	ShapeID              string     `csv:"shape_id,omitempty"`
	WheelchairAccessible *int       `csv:"wheelchair_accessible"`
	BikesAllowed         *int       `csv:"bikes_allowed"`
}

type StopTime struct {
	TripID            string         `csv:"trip_id"`
	ArrivalTime       string         `csv:"arrival_time,omitempty"`
	DepartureTime     string         `csv:"departure_time,omitempty"`
	StopID            string         `csv:"stop_id"`
	StopSequence      int            `csv:"stop_sequence"`
	StopHeadsign      string         `csv:"stop_headsign,omitempty"`
	PickupType        *PickupDropOff `csv:"pickup_type"`
	DropOffType       *PickupDropOff `csv:"drop_off_type"`
	ShapeDistTraveled *float64       `csv:"shape_dist_traveled"`
	Timepoint         *int           `csv:"timepoint"`
}

type Calendar struct {
	ServiceID string `csv:"service_id"`
	Monday    int    `csv:"monday"`
	Tuesday   int    `csv:"tuesday"`
	Wednesday int    `csv:"wednesday"`
	Thursday  int    `csv:"thursday"`
	Friday    int    `csv:"friday"`
	Saturday  int    `csv:"saturday"`
	Sunday    int    `csv:"sunday"`
	StartDate string `csv:"start_date"`
	EndDate   string `csv:"end_date"`
}

type CalendarDate struct {
	ServiceID     string        `csv:"service_id"`
	Date          string        `csv:"date"`
	ExceptionType ExceptionType `csv:"exception_type"`
}

type ShapePoint struct {
	ShapeID      string   `csv:"shape_id"`
	Lat          float64  `csv:"shape_pt_lat"`
	Lon          float64  `csv:"shape_pt_lon"`
	Sequence     int      `csv:"shape_pt_sequence"`
	DistTraveled *float64 `csv:"shape_dist_traveled"`
}

type FeedInfo struct {
	PublisherName string `csv:"feed_publisher_name"`
	PublisherURL  string `csv:"feed_publisher_url"`
	Lang          string `csv:"feed_lang"`
	DefaultLang   string `csv:"default_lang,omitempty"`
	StartDate     string `csv:"feed_start_date,omitempty"`
	EndDate       string `csv:"feed_end_date,omitempty"`
	Version       string `csv:"feed_version,omitempty"`
	ContactEmail  string `csv:"feed_contact_email,omitempty"`
	ContactURL    string `csv:"feed_contact_url,omitempty"`
}
