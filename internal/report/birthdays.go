package report

import (
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/primaverasorvetes810-collab/studio-sub000/internal/models"
)

type Birthday struct {
	UserID     uuid.UUID `json:"user_id"`
	Name       string    `json:"name"`
	Email      string    `json:"email"`
	Phone      string    `json:"phone"`
	BirthDate  string    `json:"birth_date"`
	Day        int       `json:"day"`
	IsToday    bool      `json:"is_today"`
	AgeTurning int       `json:"age_turning"`
}

// Birthdays lists users born in month, by day of month. Ages are the ones
// reached in now's year.
func Birthdays(users []models.User, month time.Month, now time.Time) []Birthday {
	var out []Birthday
	for _, u := range users {
		if u.BirthDate == nil {
			continue
		}
		b := u.BirthDate.UTC()
		if b.Month() != month {
			continue
		}
		out = append(out, Birthday{
			UserID:     u.ID,
			Name:       u.Name,
			Email:      u.Email,
			Phone:      u.Phone,
			BirthDate:  b.Format("2006-01-02"),
			Day:        b.Day(),
			IsToday:    now.Month() == month && now.Day() == b.Day(),
			AgeTurning: now.Year() - b.Year(),
		})
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Day != out[j].Day {
			return out[i].Day < out[j].Day
		}
		return out[i].Name < out[j].Name
	})
	if out == nil {
		out = []Birthday{}
	}
	return out
}
