package schema

import (
	"fmt"
	"strings"
)

const (
	Agency            TableName = "agency"
	Stops             TableName = "stops"
	Routes            TableName = "routes"
	Trips             TableName = "trips"
	StopTimes         TableName = "stop_times"
	Calendar          TableName = "calendar"
	CalendarDates     TableName = "calendar_dates"
	FareAttributes    TableName = "fare_attributes"
	FareRules         TableName = "fare_rules"
	Timeframes        TableName = "timeframes"
	FareMedia         TableName = "fare_media"
	FareProducts      TableName = "fare_products"
	FareLegRules      TableName = "fare_leg_rules"
	FareTransferRules TableName = "fare_transfer_rules"
	Areas             TableName = "areas"
	StopAreas         TableName = "stop_areas"
	Networks          TableName = "networks"
	RouteNetworks     TableName = "route_networks"
	Shapes            TableName = "shapes"
	Frequencies       TableName = "frequencies"
	Transfers         TableName = "transfers"
	Pathways          TableName = "pathways"
	Levels            TableName = "levels"
	Translations      TableName = "translations"
	FeedInfo          TableName = "feed_info"
	Attributions      TableName = "attributions"
)

// required tables are always present in a feed, possibly empty
var required = [...]TableName{Agency, Stops, Routes, Trips, StopTimes}

func str(name string) Column { return Column{Name: name, Type: TypeString} }
func num(name string) Column { return Column{Name: name, Type: TypeInt} }
func flt(name string) Column { return Column{Name: name, Type: TypeFloat} }
func ioe(name string) Column { return Column{Name: name, Type: TypeIntOrEmpty} }

// tables is the wire contract, in feed order.
var tables = [...]Table{
	{Name: Agency, Columns: []Column{
		str("agency_id"), str("agency_name"), str("agency_url"), str("agency_timezone"),
		str("agency_lang"), str("agency_phone"), str("agency_fare_url"), str("agency_email"),
	}},
	{Name: Stops, Columns: []Column{
		str("stop_id"), str("stop_code"), str("stop_name"), str("tts_stop_name"), str("stop_desc"),
		flt("stop_lat"), flt("stop_lon"), str("zone_id"), str("stop_url"), num("location_type"),
		str("parent_station"), str("stop_timezone"), ioe("wheelchair_boarding"), str("level_id"),
		str("platform_code"),
	}},
	{Name: Routes, Columns: []Column{
		str("route_id"), str("agency_id"), str("route_short_name"), str("route_long_name"),
		str("route_desc"), num("route_type"), str("route_url"), str("route_color"),
		str("route_text_color"), num("route_sort_order"), ioe("continuous_pickup"),
		ioe("continuous_drop_off"), str("network_id"),
	}},
	{Name: Trips, Columns: []Column{
		str("route_id"), str("service_id"), str("trip_id"), str("trip_headsign"),
		str("trip_short_name"), num("direction_id"), str("block_id"), str("shape_id"),
		ioe("wheelchair_accessible"), ioe("bikes_allowed"),
	}},
	{Name: StopTimes, Columns: []Column{
		str("trip_id"), str("arrival_time"), str("departure_time"), str("stop_id"),
		num("stop_sequence"), str("stop_headsign"), ioe("pickup_type"), ioe("drop_off_type"),
		ioe("continuous_pickup"), ioe("continuous_drop_off"), flt("shape_dist_traveled"),
		ioe("timepoint"),
	}},
	{Name: Calendar, Columns: []Column{
		str("service_id"), num("monday"), num("tuesday"), num("wednesday"), num("thursday"),
		num("friday"), num("saturday"), num("sunday"), str("start_date"), str("end_date"),
	}},
	{Name: CalendarDates, Columns: []Column{
		str("service_id"), str("date"), num("exception_type"),
	}},
	{Name: FareAttributes, Columns: []Column{
		str("fare_id"), flt("price"), str("currency_type"), num("payment_method"),
		ioe("transfers"), str("agency_id"), flt("transfer_duration"),
	}},
	{Name: FareRules, Columns: []Column{
		str("fare_id"), str("route_id"), str("origin_id"), str("destination_id"), str("contains_id"),
	}},
	{Name: Timeframes, Columns: []Column{
		str("timeframe_group_id"), str("start_time"), str("end_time"), str("service_id"),
	}},
	{Name: FareMedia, Columns: []Column{
		str("fare_media_id"), str("fare_media_name"), num("fare_media_type"),
	}},
	{Name: FareProducts, Columns: []Column{
		str("fare_product_id"), str("fare_product_name"), str("fare_media_id"), flt("amount"),
		str("currency"),
	}},
	{Name: FareLegRules, Columns: []Column{
		str("leg_group_id"), str("network_id"), str("from_area_id"), str("to_area_id"),
		str("from_timeframe_group_id"), str("to_timeframe_group_id"), str("fare_product_id"),
	}},
	{Name: FareTransferRules, Columns: []Column{
		str("from_leg_group_id"), str("to_leg_group_id"), num("transfer_count"),
		flt("duration_limit"), num("duration_limit_type"), num("fare_transfer_type"),
		str("fare_product_id"),
	}},
	{Name: Areas, Columns: []Column{str("area_id"), str("area_name")}},
	{Name: StopAreas, Columns: []Column{str("area_id"), str("stop_id")}},
	{Name: Networks, Columns: []Column{str("network_id"), str("network_name")}},
	{Name: RouteNetworks, Columns: []Column{str("network_id"), str("route_id")}},
	{Name: Shapes, Columns: []Column{
		str("shape_id"), flt("shape_pt_lat"), flt("shape_pt_lon"), num("shape_pt_sequence"),
		flt("shape_dist_traveled"),
	}},
	{Name: Frequencies, Columns: []Column{
		str("trip_id"), str("start_time"), str("end_time"), flt("headway_secs"), ioe("exact_times"),
	}},
	{Name: Transfers, Columns: []Column{
		str("from_stop_id"), str("to_stop_id"), str("from_route_id"), str("to_route_id"),
		str("from_trip_id"), str("to_trip_id"), ioe("transfer_type"), flt("min_transfer_time"),
	}},
	{Name: Pathways, Columns: []Column{
		str("pathway_id"), str("from_stop_id"), str("to_stop_id"), num("pathway_mode"),
		num("is_bidirectional"), flt("length"), flt("traversal_time"), flt("stair_count"),
		flt("max_slope"), flt("min_width"), str("signposted_as"), str("reversed_signposted_as"),
	}},
	{Name: Levels, Columns: []Column{str("level_id"), flt("level_index"), str("level_name")}},
	{Name: Translations, Columns: []Column{
		str("table_name"), str("field_name"), str("language"), str("translation"),
		str("record_id"), str("record_sub_id"), str("field_value"),
	}},
	{Name: FeedInfo, Columns: []Column{
		str("feed_publisher_name"), str("feed_publisher_url"), str("feed_lang"),
		str("default_lang"), str("feed_start_date"), str("feed_end_date"), str("feed_version"),
		str("feed_contact_email"), str("feed_contact_url"),
	}},
	{Name: Attributions, Columns: []Column{
		str("attribution_id"), str("agency_id"), str("route_id"), str("trip_id"),
		str("organization_name"), num("is_producer"), num("is_operator"), num("is_authority"),
		str("attribution_url"), str("attribution_email"), str("attribution_phone"),
	}},
}

var (
	byName = make(map[TableName]int, len(tables))
	byFile = make(map[string]int, len(tables))
)

func init() {
	for i := range tables {
		tables[i] = NewTable(tables[i].Name, tables[i].Columns...)
		byName[tables[i].Name] = i
		byFile[tables[i].FileName] = i
	}
}

// Lookup returns the table declaration for name.
func Lookup(name TableName) (Table, error) {
	i, ok := byName[name]
	if !ok {
		return Table{}, fmt.Errorf("%w: %q", ErrUnknownTable, name)
	}
	return tables[i], nil
}

// MustLookup is like Lookup but panics on unknown names. Intended for the
// package-level constants above.
func MustLookup(name TableName) Table {
	t, err := Lookup(name)
	if err != nil {
		panic(err)
	}
	return t
}

// LookupFile resolves a feed file name such as "Stops.txt" (case-insensitive).
func LookupFile(fileName string) (Table, error) {
	i, ok := byFile[strings.ToLower(fileName)]
	if !ok {
		return Table{}, fmt.Errorf("%w: file %q", ErrUnknownTable, fileName)
	}
	return tables[i], nil
}

// All returns every table in feed order.
func All() []Table {
	out := make([]Table, len(tables))
	copy(out, tables[:])
	return out
}

// Names returns every table name in feed order.
func Names() []TableName {
	out := make([]TableName, len(tables))
	for i, t := range tables {
		out[i] = t.Name
	}
	return out
}

// RequiredNames returns the tables that are always present in a feed.
func RequiredNames() []TableName {
	out := make([]TableName, len(required))
	copy(out, required[:])
	return out
}

// IsRequired reports whether name is one of the always-present tables.
func IsRequired(name TableName) bool {
	for _, r := range required {
		if r == name {
			return true
		}
	}
	return false
}

// Order returns the position of name in feed order, or -1.
func Order(name TableName) int {
	i, ok := byName[name]
	if !ok {
		return -1
	}
	return i
}
