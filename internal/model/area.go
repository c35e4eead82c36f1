package model

// Area 部門/開放對象
type Area string

const (
	AreaAdministrative Area = "ADMINISTRATIVE"
	AreaEngineering    Area = "ENGINEERING"
	AreaManufacturing  Area = "MANUFACTURING"
	AreaHumanResources Area = "HUMAN_RESOURCES"
	AreaLogistics      Area = "LOGISTICS"
	AreaAll            Area = "ALL"
)

// IsValid 驗證部門是否有效
func (a Area) IsValid() bool {
	switch a {
	case AreaAdministrative, AreaEngineering, AreaManufacturing, AreaHumanResources, AreaLogistics, AreaAll:
		return true
	}
	return false
}

// Place 活動地點
type Place string

const (
	PlaceAuditorium     Place = "AUDITORIUM"
	PlaceCafeteria      Place = "CAFETERIA"
	PlaceMeetingRoom    Place = "MEETING_ROOM"
	PlaceTrainingCenter Place = "TRAINING_CENTER"
	PlaceOutdoorArea    Place = "OUTDOOR_AREA"
)

func (p Place) IsValid() bool {
	switch p {
	case PlaceAuditorium, PlaceCafeteria, PlaceMeetingRoom, PlaceTrainingCenter, PlaceOutdoorArea:
		return true
	}
	return false
}
