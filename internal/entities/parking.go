package entities

type ParkingLot struct {
	ID                  int    `json:"id"`
	Name                string `json:"name"`
	Address             string `json:"address"`
	Latitude            string `json:"latitude"`
	Longitude           string `json:"longitude"`
	OperatorName        string `json:"operator_name,omitempty"`
	OpeningHours        string `json:"opening_hours"`
	ClosingHours        string `json:"closing_hours"`
	IsActive            bool   `json:"is_active"`
	AvailableSpotsCount int    `json:"available_spots_count"`
}

type ParkingSpot struct {
	ID          int     `json:"id"`
	SpotNumber  string  `json:"spot_number"`
	SpotType    string  `json:"spot_type"`
	HourlyRate  float64 `json:"hourly_rate"`
	IsAvailable bool    `json:"is_available"`
}
