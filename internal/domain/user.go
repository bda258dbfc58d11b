package domain

import "time"

// User is a chat account known to the bot.
type User struct {
	ChatID    int64
	TZ        string    // IANA zone name
	CreatedAt time.Time // UTC
}

// Location resolves the user's zone.
func (u User) Location() (*time.Location, error) {
	return LoadLocation(u.TZ)
}
