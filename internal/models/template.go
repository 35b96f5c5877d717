// Package models содержит доменные структуры недельного шаблона приёмов.
package models

// TemplateEntry — заготовка приёма в недельном шаблоне. У заготовки нет даты
// приёма и статуса оплаты: они проставляются при материализации шаблона
// (дата — сегодняшняя, статус — pending).
type TemplateEntry struct {
	ID          string  `json:"id"`
	SubjectName string  `json:"subjectName" validate:"required"`
	BillingMode string  `json:"billingMode" validate:"required,oneof=plan private"`
	PlanName    string  `json:"planName,omitempty"`
	Amount      float64 `json:"amount" validate:"min=0"`
	Notes       string  `json:"notes,omitempty"`
}

// WeeklyTemplates — упорядоченные заготовки приёмов по дням недели.
// Ключ — день недели от 0 (воскресенье) до 6 (суббота).
type WeeklyTemplates map[int][]TemplateEntry

// CopyTemplates возвращает независимую копию шаблонов.
func CopyTemplates(t WeeklyTemplates) WeeklyTemplates {
	if t == nil {
		return nil
	}
	out := make(WeeklyTemplates, len(t))
	for day, entries := range t {
		copied := make([]TemplateEntry, len(entries))
		copy(copied, entries)
		out[day] = copied
	}
	return out
}
