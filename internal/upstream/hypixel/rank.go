package hypixel

import (
	"regexp"
	"strings"
)

var colorCode = regexp.MustCompile(`§[0-9a-fk-or]`)

// StripColors removes Minecraft formatting codes.
func StripColors(s string) string {
	return colorCode.ReplaceAllString(s, "")
}

var staffRanks = map[string]string{
	"ADMIN":       "ADMIN",
	"GAME_MASTER": "GM",
	"MODERATOR":   "MOD",
	"HELPER":      "HELPER",
	"YOUTUBER":    "YOUTUBE",
}

var packageRanks = map[string]string{
	"MVP_PLUS": "MVP+",
	"MVP":      "MVP",
	"VIP_PLUS": "VIP+",
	"VIP":      "VIP",
}

// rank returns the highest rank a player holds, in display form.
func (r *rawPlayer) rank() string {
	if staff, ok := staffRanks[r.Rank]; ok {
		return staff
	}
	if r.MonthlyPackageRank == "SUPERSTAR" {
		return "MVP++"
	}
	if pkg, ok := packageRanks[r.NewPackageRank]; ok {
		return pkg
	}
	if pkg, ok := packageRanks[r.PackageRank]; ok {
		return pkg
	}
	return ""
}

// Prefix returns the chat prefix of a player. A custom prefix wins over the
// rank. Players without a rank have no prefix.
func Prefix(rank, custom string) string {
	if custom = strings.TrimSpace(StripColors(custom)); custom != "" {
		return custom
	}
	if rank == "" {
		return ""
	}
	return "[" + rank + "]"
}
