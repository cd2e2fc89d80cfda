package models

type Place struct {
	Title       string `json:"title"`
	Category    string `json:"category"`
	Description string `json:"description"`
}

// PlaceDay holds one tour day: parallel coordinate lists and the stops.
type PlaceDay struct {
	Lat    []float64 `json:"lat"`
	Long   []float64 `json:"long"`
	Places []Place   `json:"places"`
}

// Points returns how many coordinates are usable, i.e. present in both lists.
func (d PlaceDay) Points() int {
	return min(len(d.Lat), len(d.Long))
}
