// Package emuready adapts the EmuReady mobile procedures to typed pages.
//
// Each adapter documents the pagination convention of its procedure:
//
//	mobile.getGames     offset       (start 0, step limit, ends on a short page)
//	mobile.getListings  page number  (start 1, step 1, ends on an empty page)
//
// Compatibility folds listing rows into one GameSummary per game.
package emuready

import "time"

// System is a console or platform.
type System struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Key  string `json:"key,omitempty"`
}

// Game is a title of one system.
type Game struct {
	ID        string  `json:"id"`
	Title     string  `json:"title"`
	SystemID  string  `json:"systemId"`
	ImageURL  string  `json:"imageUrl,omitempty"`
	BoxartURL string  `json:"boxartUrl,omitempty"`
	System    *System `json:"system,omitempty"`
}

// Brand is a device manufacturer.
type Brand struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Device is a handheld or phone model.
type Device struct {
	ID        string `json:"id"`
	ModelName string `json:"modelName"`
	Brand     *Brand `json:"brand,omitempty"`
}

// Name returns "<brand> <model>" or just the model.
func (d *Device) Name() string {
	if d == nil {
		return ""
	}
	if d.Brand != nil && d.Brand.Name != "" {
		return d.Brand.Name + " " + d.ModelName
	}
	return d.ModelName
}

// Emulator is an emulator application.
type Emulator struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Performance is a rated performance level. Higher ranks are better.
type Performance struct {
	ID    int    `json:"id"`
	Label string `json:"label"`
	Rank  int    `json:"rank"`
}

// Listing is one compatibility report: a game on a device with an emulator.
type Listing struct {
	ID            string       `json:"id"`
	GameID        string       `json:"gameId"`
	DeviceID      string       `json:"deviceId,omitempty"`
	EmulatorID    string       `json:"emulatorId,omitempty"`
	PerformanceID int          `json:"performanceId,omitempty"`
	Notes         string       `json:"notes,omitempty"`
	CreatedAt     time.Time    `json:"createdAt"`
	Game          *Game        `json:"game,omitempty"`
	Device        *Device      `json:"device,omitempty"`
	Emulator      *Emulator    `json:"emulator,omitempty"`
	Performance   *Performance `json:"performance,omitempty"`
}

// gameID is the listing's game id, falling back to the embedded game.
func (l Listing) gameID() string {
	if l.GameID != "" {
		return l.GameID
	}
	if l.Game != nil {
		return l.Game.ID
	}
	return ""
}

// gameOrStub is the embedded game, or a stub carrying only the id.
func (l Listing) gameOrStub() Game {
	if l.Game != nil {
		return *l.Game
	}
	return Game{ID: l.gameID()}
}

// rank is the performance rank. Unrated listings are filtered out before
// folding; rank reports 0 for them.
func (l Listing) rank() float64 {
	if l.Performance == nil {
		return 0
	}
	return float64(l.Performance.Rank)
}

// GameSummary is the compatibility of one game across its rated listings.
type GameSummary struct {
	Game Game

	// Listings counts the rated listings behind Score.
	Listings int

	// Score is the mean performance rank normalized into [0,1].
	Score float64
}
