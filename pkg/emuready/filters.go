package emuready

// GamesFilter narrows mobile.getGames. Zero fields are not sent.
type GamesFilter struct {
	Search   string
	SystemID string
}

type gamesInput struct {
	Search   string `json:"search,omitempty"`
	SystemID string `json:"systemId,omitempty"`
	Limit    int    `json:"limit"`
	Offset   int    `json:"offset"`
}

func (f GamesFilter) input(offset, limit int) gamesInput {
	return gamesInput{
		Search:   f.Search,
		SystemID: f.SystemID,
		Limit:    limit,
		Offset:   offset,
	}
}

// ListingsFilter narrows mobile.getListings. Zero fields are not sent.
type ListingsFilter struct {
	GameID     string
	SystemID   string
	DeviceID   string
	EmulatorID string
	Search     string
}

type listingsInput struct {
	GameID     string `json:"gameId,omitempty"`
	SystemID   string `json:"systemId,omitempty"`
	DeviceID   string `json:"deviceId,omitempty"`
	EmulatorID string `json:"emulatorId,omitempty"`
	Search     string `json:"search,omitempty"`
	Page       int    `json:"page"`
	Limit      int    `json:"limit"`
}

func (f ListingsFilter) input(page, limit int) listingsInput {
	return listingsInput{
		GameID:     f.GameID,
		SystemID:   f.SystemID,
		DeviceID:   f.DeviceID,
		EmulatorID: f.EmulatorID,
		Search:     f.Search,
		Page:       page,
		Limit:      limit,
	}
}

type byIDInput struct {
	ID string `json:"id"`
}
