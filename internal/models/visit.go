// Package models содержит доменные структуры приёма пациента,
// а также вспомогательные типы для приёма данных из JSON-запросов.
package models

// Возможные значения типа оплаты приёма.
const (
	BillingPlan    = "plan"    // Приём по страховому плану
	BillingPrivate = "private" // Частный приём
)

// Возможные значения статуса оплаты.
const (
	StatusPaid    = "paid"    // Приём оплачен
	StatusPending = "pending" // Оплата ожидается
)

// Visit представляет один приём пациента — основную единицу учёта.
// Даты хранятся строками в формате YYYY-MM-DD, без компоненты времени:
// именно в таком виде они лежат в документе хранилища.
type Visit struct {
	ID            string  `json:"id" validate:"required"`
	SubjectName   string  `json:"subjectName" validate:"required"`
	ServiceDate   string  `json:"serviceDate" validate:"required,datetime=2006-01-02"`
	BillingMode   string  `json:"billingMode" validate:"required,oneof=plan private"`
	PlanName      string  `json:"planName,omitempty"`
	Amount        float64 `json:"amount" validate:"min=0"`
	PaymentStatus string  `json:"paymentStatus" validate:"required,oneof=paid pending"`
	PaymentDate   string  `json:"paymentDate,omitempty"`
	Notes         string  `json:"notes,omitempty"`
}

// Normalize приводит запись к согласованному виду: название плана имеет смысл
// только для приёма по плану, дата оплаты — только для оплаченного приёма.
func (v *Visit) Normalize() {
	if v.BillingMode != BillingPlan {
		v.PlanName = ""
	}
	if v.PaymentStatus != StatusPaid {
		v.PaymentDate = ""
	}
}

// DummyVisit используется для приёма данных приёма из JSON-запроса,
// прежде чем конвертировать их в Visit.
type DummyVisit struct {
	SubjectName   string  `json:"subjectName" validate:"required"`
	ServiceDate   string  `json:"serviceDate" validate:"required,datetime=2006-01-02"`
	BillingMode   string  `json:"billingMode" validate:"required,oneof=plan private"`
	PlanName      string  `json:"planName,omitempty" validate:"omitempty"`
	Amount        float64 `json:"amount" validate:"min=0"`
	PaymentStatus string  `json:"paymentStatus" validate:"required,oneof=paid pending"`
	PaymentDate   string  `json:"paymentDate,omitempty" validate:"omitempty,datetime=2006-01-02"`
	Notes         string  `json:"notes,omitempty"`
}

// ToVisit собирает Visit с заданным идентификатором и нормализует его.
func (d DummyVisit) ToVisit(id string) Visit {
	v := Visit{
		ID:            id,
		SubjectName:   d.SubjectName,
		ServiceDate:   d.ServiceDate,
		BillingMode:   d.BillingMode,
		PlanName:      d.PlanName,
		Amount:        d.Amount,
		PaymentStatus: d.PaymentStatus,
		PaymentDate:   d.PaymentDate,
		Notes:         d.Notes,
	}
	v.Normalize()
	return v
}

// CopyVisits возвращает независимую копию коллекции. Снимки в журнале истории
// и прошлые состояния не должны разделять память с живой коллекцией.
func CopyVisits(visits []Visit) []Visit {
	if visits == nil {
		return nil
	}
	out := make([]Visit, len(visits))
	copy(out, visits)
	return out
}
