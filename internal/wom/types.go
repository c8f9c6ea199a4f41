package wom

// Player represents a WOM player object as returned inside group
// responses. The API treats most fields as optional; numeric progress
// fields are pointers so that an untracked player (no stats recorded)
// is distinguishable from a player with zero stats.
type Player struct {
	ID          int64  `json:"id"`
	Username    string `json:"username"`
	DisplayName string `json:"displayName"`
	Type        string `json:"type"`
	Build       string `json:"build"`
	Country     string `json:"country"`
	Status      string `json:"status"`
	Patron      bool   `json:"patron"`

	Exp *int64   `json:"exp"`
	EHP *float64 `json:"ehp"`
	EHB *float64 `json:"ehb"`

	TTM    float64 `json:"ttm"`
	TT200M float64 `json:"tt200m"`

	RegisteredAt   string `json:"registeredAt"`
	UpdatedAt      string `json:"updatedAt"`
	LastChangedAt  string `json:"lastChangedAt"`
	LastImportedAt string `json:"lastImportedAt"`
}

// Untracked reports whether the source system has no numeric progress
// recorded for this player. The API flags some of these explicitly with
// an "untracked" status; others simply carry a null experience value.
func (p Player) Untracked() bool {
	return p.Status == "untracked" || p.Exp == nil
}

// RosterEntry is one member of a group roster snapshot: the player plus
// their clan role and per-metric hiscore data.
type RosterEntry struct {
	Player Player       `json:"player"`
	Role   string       `json:"role"`
	Data   HiscoreValue `json:"data"`
}

// HiscoreValue holds the metric-specific portion of a hiscores entry.
type HiscoreValue struct {
	Rank       int64   `json:"rank"`
	Level      int     `json:"level,omitempty"`
	Experience int64   `json:"experience,omitempty"`
	Kills      int64   `json:"kills,omitempty"`
	Value      float64 `json:"value,omitempty"`
}

// GainsEntry is one member's progress over a period.
type GainsEntry struct {
	Player Player    `json:"player"`
	Data   GainsData `json:"data"`
}

// GainsData holds the gained amount and the window boundaries.
type GainsData struct {
	Gained float64 `json:"gained"`
	Start  float64 `json:"start"`
	End    float64 `json:"end"`
}

// Achievement is a single group achievement event.
type Achievement struct {
	PlayerID  int64   `json:"playerId"`
	Name      string  `json:"name"`
	Metric    string  `json:"metric"`
	Threshold int64   `json:"threshold"`
	Accuracy  float64 `json:"accuracy"`
	CreatedAt string  `json:"createdAt"`
	Player    Player  `json:"player"`
}

// GroupDetails holds group-level metadata.
type GroupDetails struct {
	ID           int64  `json:"id"`
	Name         string `json:"name"`
	ClanChat     string `json:"clanChat"`
	Description  string `json:"description"`
	Homeworld    int    `json:"homeworld"`
	Verified     bool   `json:"verified"`
	Patron       bool   `json:"patron"`
	MemberCount  int    `json:"memberCount"`
	ProfileImage string `json:"profileImage"`
	BannerImage  string `json:"bannerImage"`
	CreatedAt    string `json:"createdAt"`
	UpdatedAt    string `json:"updatedAt"`
}

// Competition is a group competition, past or current.
type Competition struct {
	ID               int64  `json:"id"`
	Title            string `json:"title"`
	Metric           string `json:"metric"`
	Type             string `json:"type"`
	StartsAt         string `json:"startsAt"`
	EndsAt           string `json:"endsAt"`
	GroupID          int64  `json:"groupId"`
	ParticipantCount int    `json:"participantCount"`
}

// ActivityEvent is one entry of the group activity feed (joins, leaves,
// role changes).
type ActivityEvent struct {
	GroupID      int64  `json:"groupId"`
	PlayerID     int64  `json:"playerId"`
	Type         string `json:"type"`
	Role         string `json:"role"`
	PreviousRole string `json:"previousRole"`
	CreatedAt    string `json:"createdAt"`
	Player       Player `json:"player"`
}
