package tdx

// Wire types for the TDX Bike API. Every nested field is a pointer so that
// an omitted value can be told apart from a zero one.

type LocalizedText struct {
	ZhTw *string `json:"Zh_tw"`
	En   *string `json:"En"`
}

// Preferred returns the Chinese text, falling back to English, or "".
func (t *LocalizedText) Preferred() string {
	if t == nil {
		return ""
	}
	if t.ZhTw != nil && *t.ZhTw != "" {
		return *t.ZhTw
	}
	if t.En != nil {
		return *t.En
	}
	return ""
}

type Position struct {
	PositionLat *float64 `json:"PositionLat"`
	PositionLon *float64 `json:"PositionLon"`
	GeoHash     *string  `json:"GeoHash"`
}

type RawStation struct {
	StationUID      *string        `json:"StationUID"`
	StationID       *string        `json:"StationID"`
	AuthorityID     *string        `json:"AuthorityID"`
	StationName     *LocalizedText `json:"StationName"`
	StationAddress  *LocalizedText `json:"StationAddress"`
	StationPosition *Position      `json:"StationPosition"`
	BikesCapacity   *int           `json:"BikesCapacity"`
	ServiceType     *int           `json:"ServiceType"`
	SrcUpdateTime   *string        `json:"SrcUpdateTime"`
	UpdateTime      *string        `json:"UpdateTime"`
}

type RentBikesDetail struct {
	GeneralBikes  *int `json:"GeneralBikes"`
	ElectricBikes *int `json:"ElectricBikes"`
}

type RawAvailability struct {
	StationUID               *string          `json:"StationUID"`
	StationID                *string          `json:"StationID"`
	ServiceStatus            *int             `json:"ServiceStatus"`
	ServiceType              *int             `json:"ServiceType"`
	AvailableRentBikes       *int             `json:"AvailableRentBikes"`
	AvailableReturnBikes     *int             `json:"AvailableReturnBikes"`
	AvailableRentBikesDetail *RentBikesDetail `json:"AvailableRentBikesDetail"`
	SrcUpdateTime            *string          `json:"SrcUpdateTime"`
	UpdateTime               *string          `json:"UpdateTime"`
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int64  `json:"expires_in"`
	TokenType   string `json:"token_type"`
}
