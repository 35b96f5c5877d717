package gateway

import (
	"encoding/json"
	"errors"

	"github.com/daniellaterapia/visit-tracker/internal/models"
)

// decodeTemplates разбирает документ недельных шаблонов, принимая все
// исторические формы в явном порядке:
//
//  1. текущая: {"templates": {"0": [...], ...}}
//  2. старая:  {"template": {"0": [...], ...}}
//  3. самая старая: голое отображение {"0": [...], ...}
//
// Порядок зафиксирован здесь один раз; ни один другой участок кода не должен
// угадывать форму документа заново.
func decodeTemplates(data []byte) (models.WeeklyTemplates, error) {
	var wrapped struct {
		Templates models.WeeklyTemplates `json:"templates"`
		Template  models.WeeklyTemplates `json:"template"`
	}
	if err := json.Unmarshal(data, &wrapped); err == nil {
		if wrapped.Templates != nil {
			return dropInvalidDays(wrapped.Templates), nil
		}
		if wrapped.Template != nil {
			return dropInvalidDays(wrapped.Template), nil
		}
	}

	var bare models.WeeklyTemplates
	if err := json.Unmarshal(data, &bare); err == nil && bare != nil {
		return dropInvalidDays(bare), nil
	}
	return nil, errors.New("unrecognized templates document shape")
}

// dropInvalidDays отбрасывает ключи вне диапазона дней недели 0-6.
func dropInvalidDays(t models.WeeklyTemplates) models.WeeklyTemplates {
	out := models.WeeklyTemplates{}
	for day, entries := range t {
		if day < 0 || day > 6 {
			continue
		}
		out[day] = entries
	}
	return out
}

// decodeUsers разбирает таблицу пользователей. Текущая форма —
// {"users": {email: User}}; старые документы могли хранить голое отображение
// или массив пользователей, массив переводится в отображение по email.
func decodeUsers(data []byte) (map[string]models.User, error) {
	var wrapped usersDocument
	if err := json.Unmarshal(data, &wrapped); err == nil && wrapped.Users != nil {
		return wrapped.Users, nil
	}

	var bare map[string]models.User
	if err := json.Unmarshal(data, &bare); err == nil && bare != nil {
		return bare, nil
	}

	var list []models.User
	if err := json.Unmarshal(data, &list); err == nil {
		users := make(map[string]models.User, len(list))
		for _, u := range list {
			users[u.Email] = u
		}
		return users, nil
	}
	return nil, errors.New("unrecognized users document shape")
}
