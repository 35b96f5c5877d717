// Package models содержит параметры фильтрации коллекции приёмов.
// Здесь определены как структура для внутреннего использования в бизнес-логике,
// так и структуры для приёма данных из JSON-запросов.
package models

// Возможные значения основания даты при фильтрации по месяцу.
const (
	DateBasisService = "service" // Фильтровать по дате приёма
	DateBasisPayment = "payment" // Фильтровать по дате оплаты
)

// Filter представляет активные критерии отбора приёмов.
// Пустое поле означает отсутствие соответствующего предиката;
// все заданные предикаты объединяются через логическое И.
type Filter struct {
	Name          string // Подстрока имени пациента, без учёта регистра
	Month         string // Префикс месяца в формате YYYY-MM
	DateBasis     string // По какой дате сопоставлять месяц: service или payment
	PaymentStatus string // paid или pending
	BillingMode   string // plan или private
}

// DummyFilter используется для приёма критериев фильтра из JSON-запроса
// до их валидации и преобразования в Filter.
type DummyFilter struct {
	Name          string `json:"name,omitempty" validate:"omitempty"`
	Month         string `json:"month,omitempty" validate:"omitempty,datetime=2006-01"`
	DateBasis     string `json:"dateBasis,omitempty" validate:"omitempty,oneof=service payment"`
	PaymentStatus string `json:"paymentStatus,omitempty" validate:"omitempty,oneof=paid pending"`
	BillingMode   string `json:"billingMode,omitempty" validate:"omitempty,oneof=plan private"`
}

// ToFilter преобразует запрос в Filter, подставляя основание даты по умолчанию.
func (d DummyFilter) ToFilter() Filter {
	basis := d.DateBasis
	if basis == "" {
		basis = DateBasisService
	}
	return Filter{
		Name:          d.Name,
		Month:         d.Month,
		DateBasis:     basis,
		PaymentStatus: d.PaymentStatus,
		BillingMode:   d.BillingMode,
	}
}

// DummyBulkPay используется для приёма параметров массовой отметки оплаты
// из JSON-запроса.
type DummyBulkPay struct {
	PlanName string `json:"planName" validate:"required"`
	Month    string `json:"month" validate:"required,datetime=2006-01"`
}

// Summary — агрегаты по отфильтрованному подмножеству приёмов.
type Summary struct {
	Count         int     `json:"count"`
	TotalAmount   float64 `json:"totalAmount"`
	PaidAmount    float64 `json:"paidAmount"`
	PendingAmount float64 `json:"pendingAmount"`
}
