package domain

// LocationType classifies the places a trip leg can start or end at.
type LocationType string

const (
	LocationOffice  LocationType = "office"
	LocationHome    LocationType = "home"
	LocationMetro   LocationType = "metro"
	LocationPatient LocationType = "patient"
)

// Location is a resolved place usable for routing.
// A Location without coordinates and without a geocodable address is unusable;
// resolvers return nil instead of constructing one.
type Location struct {
	Type    LocationType
	Coords  *Coordinates
	Address string
	Name    string
	ID      int64
}
