package hypixel

// SkyBlockProfile is the normalized view of one SkyBlock profile, seen from
// the requested member.
type SkyBlockProfile struct {
	ID          string  `json:"id"`
	CuteName    string  `json:"cuteName"`
	Selected    bool    `json:"selected"`
	GameMode    string  `json:"gameMode,omitempty"`
	MemberCount int     `json:"memberCount"`
	Level       float64 `json:"level"`
	Purse       float64 `json:"purse"`
	Bank        float64 `json:"bank,omitempty"`
	FairySouls  int     `json:"fairySouls"`
}

type rawMember struct {
	Currencies struct {
		CoinPurse float64 `json:"coin_purse"`
	} `json:"currencies"`
	Leveling struct {
		Experience float64 `json:"experience"`
	} `json:"leveling"`
	FairySoul struct {
		TotalCollected int `json:"total_collected"`
	} `json:"fairy_soul"`
}

type rawProfile struct {
	ProfileID string               `json:"profile_id"`
	CuteName  string               `json:"cute_name"`
	Selected  bool                 `json:"selected"`
	GameMode  string               `json:"game_mode"`
	Members   map[string]rawMember `json:"members"`
	Banking   *struct {
		Balance float64 `json:"balance"`
	} `json:"banking"`
}

func (r *rawProfile) normalize(uuid string) SkyBlockProfile {
	p := SkyBlockProfile{
		ID:          r.ProfileID,
		CuteName:    r.CuteName,
		Selected:    r.Selected,
		GameMode:    r.GameMode,
		MemberCount: len(r.Members),
	}
	if m, ok := r.Members[uuid]; ok {
		p.Purse = m.Currencies.CoinPurse
		p.Level = m.Leveling.Experience / 100
		p.FairySouls = m.FairySoul.TotalCollected
	}
	if r.Banking != nil {
		p.Bank = r.Banking.Balance
	}
	return p
}
