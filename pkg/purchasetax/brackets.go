package purchasetax

// Track identifies which bracket table was applied to a buyer.
type Track string

// Tracks, one per eligibility category.
const (
	TrackRegular         Track = "regular"
	TrackFirstHome       Track = "first-home"
	TrackReplacementHome Track = "replacement-home"
	TrackOleh            Track = "oleh"
	TrackDisabled        Track = "disabled"
	TrackBereavedFamily  Track = "bereaved-family"
	TrackLand            Track = "land"
)

// Bracket is one step of a progressive schedule. Rate applies to the slice
// of value between the previous bracket's UpTo and this one. A nil UpTo is
// unbounded and only valid on the last bracket.
type Bracket struct {
	UpTo *float64 `json:"upTo" yaml:"upTo"`
	Rate float64  `json:"rate" yaml:"rate"`
}

// Table is an ordered progressive schedule with strictly increasing UpTo
// thresholds.
type Table []Bracket

// Thresholds from the purchase tax schedule published for 16.1.2024.
const (
	singleHomeExemptUpTo = 1978745
	singleHomeLowUpTo    = 2347040
	midUpTo              = 6055070
	luxuryUpTo           = 20183565
)

func upTo(v float64) *float64 {
	return &v
}

// singleHome is shared by first-home and replacement-home buyers; a
// replacement home sold within the grace period is taxed as a single home.
func singleHome() Table {
	return Table{
		{UpTo: upTo(singleHomeExemptUpTo), Rate: 0},
		{UpTo: upTo(singleHomeLowUpTo), Rate: 0.035},
		{UpTo: upTo(midUpTo), Rate: 0.05},
		{UpTo: upTo(luxuryUpTo), Rate: 0.08},
		{UpTo: nil, Rate: 0.10},
	}
}

func reducedRate() Table {
	return Table{
		{UpTo: upTo(singleHomeLowUpTo), Rate: 0.005},
		{UpTo: upTo(midUpTo), Rate: 0.05},
		{UpTo: upTo(luxuryUpTo), Rate: 0.08},
		{UpTo: nil, Rate: 0.10},
	}
}

func buildTables() map[Track]Table {
	return map[Track]Table{
		TrackRegular: {
			{UpTo: upTo(midUpTo), Rate: 0.08},
			{UpTo: nil, Rate: 0.10},
		},
		TrackFirstHome:       singleHome(),
		TrackReplacementHome: singleHome(),
		TrackOleh: {
			{UpTo: upTo(singleHomeExemptUpTo), Rate: 0},
			{UpTo: upTo(midUpTo), Rate: 0.005},
			{UpTo: upTo(luxuryUpTo), Rate: 0.08},
			{UpTo: nil, Rate: 0.10},
		},
		TrackDisabled:       reducedRate(),
		TrackBereavedFamily: reducedRate(),
		TrackLand: {
			{UpTo: nil, Rate: 0.06},
		},
	}
}

var tables = buildTables()

// trackOrder is the listing order used by Tracks.
var trackOrder = []Track{
	TrackRegular,
	TrackFirstHome,
	TrackReplacementHome,
	TrackOleh,
	TrackDisabled,
	TrackBereavedFamily,
	TrackLand,
}

// Tracks returns every known track.
func Tracks() []Track {
	return append([]Track(nil), trackOrder...)
}

// TableFor returns a copy of the bracket table for a track. Unknown tracks
// get the regular table.
func TableFor(track Track) Table {
	table, ok := tables[track]
	if !ok {
		table = tables[TrackRegular]
	}
	return table.clone()
}

func (t Table) clone() Table {
	out := make(Table, len(t))
	for i, b := range t {
		out[i] = Bracket{Rate: b.Rate}
		if b.UpTo != nil {
			out[i].UpTo = upTo(*b.UpTo)
		}
	}
	return out
}
