package view

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/daniellaterapia/visit-tracker/internal/models"
)

func sample() []models.Visit {
	return []models.Visit{
		{ID: "1", SubjectName: "Maria Souza", ServiceDate: "2024-03-04", BillingMode: models.BillingPlan, PlanName: "PlanA", Amount: 100, PaymentStatus: models.StatusPending},
		{ID: "2", SubjectName: "Maria Souza", ServiceDate: "2024-03-11", BillingMode: models.BillingPlan, PlanName: "PlanA", Amount: 100, PaymentStatus: models.StatusPending},
		{ID: "3", SubjectName: "Joao Lima", ServiceDate: "2024-03-12", BillingMode: models.BillingPlan, PlanName: "PlanA", Amount: 120, PaymentStatus: models.StatusPending},
		{ID: "4", SubjectName: "Ana Paula", ServiceDate: "2024-03-05", BillingMode: models.BillingPlan, PlanName: "PlanA", Amount: 90, PaymentStatus: models.StatusPaid, PaymentDate: "2024-03-20"},
		{ID: "5", SubjectName: "Ana Paula", ServiceDate: "2024-03-19", BillingMode: models.BillingPlan, PlanName: "PlanA", Amount: 90, PaymentStatus: models.StatusPaid, PaymentDate: "2024-04-02"},
		{ID: "6", SubjectName: "Pedro Alves", ServiceDate: "2024-02-28", BillingMode: models.BillingPrivate, Amount: 200, PaymentStatus: models.StatusPending},
		{ID: "7", SubjectName: "Carla Dias", ServiceDate: "2024-04-01", BillingMode: models.BillingPlan, PlanName: "PlanB", Amount: 80, PaymentStatus: models.StatusPending},
	}
}

func TestFilterPredicatesAreAnded(t *testing.T) {
	tests := []struct {
		name    string
		filter  models.Filter
		wantIDs []string
	}{
		{
			name:    "без фильтров возвращается всё",
			filter:  models.Filter{},
			wantIDs: []string{"1", "2", "3", "4", "5", "6", "7"},
		},
		{
			name:    "подстрока имени без учёта регистра",
			filter:  models.Filter{Name: "maria"},
			wantIDs: []string{"1", "2"},
		},
		{
			name:    "месяц по дате приёма",
			filter:  models.Filter{Month: "2024-03", DateBasis: models.DateBasisService},
			wantIDs: []string{"1", "2", "3", "4", "5"},
		},
		{
			// У записи без даты оплаты основание вырождается в дату приёма,
			// поэтому ожидающая запись 7 за апрель тоже попадает в выборку.
			name:    "месяц по дате оплаты",
			filter:  models.Filter{Month: "2024-04", DateBasis: models.DateBasisPayment},
			wantIDs: []string{"5", "7"},
		},
		{
			name:    "комбинация статуса и типа",
			filter:  models.Filter{PaymentStatus: models.StatusPending, BillingMode: models.BillingPlan},
			wantIDs: []string{"1", "2", "3", "7"},
		},
		{
			name:    "все предикаты вместе",
			filter:  models.Filter{Name: "ana", Month: "2024-03", DateBasis: models.DateBasisService, PaymentStatus: models.StatusPaid, BillingMode: models.BillingPlan},
			wantIDs: []string{"4", "5"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Filter(sample(), tt.filter)
			ids := make([]string, 0, len(got))
			for _, v := range got {
				ids = append(ids, v.ID)
			}
			assert.Equal(t, tt.wantIDs, ids)
		})
	}
}

func TestAggregate(t *testing.T) {
	s := Aggregate(sample())
	assert.Equal(t, 7, s.Count)
	assert.InDelta(t, 780, s.TotalAmount, 1e-9)
	assert.InDelta(t, 180, s.PaidAmount, 1e-9)
	assert.InDelta(t, 600, s.PendingAmount, 1e-9)
}

func TestReceivedInMonth(t *testing.T) {
	assert.InDelta(t, 90, ReceivedInMonth(sample(), "2024-03"), 1e-9)
	assert.InDelta(t, 90, ReceivedInMonth(sample(), "2024-04"), 1e-9)
	// Пустой месяц — за всё время.
	assert.InDelta(t, 180, ReceivedInMonth(sample(), ""), 1e-9)
}

func TestBulkMarkPaid(t *testing.T) {
	visits := sample()
	next, changed := BulkMarkPaid(visits, "PlanA", "2024-03", "2024-03-31")

	// Ровно три ожидающих приёма PlanA за март переведены в paid.
	assert.Equal(t, 3, changed)
	for _, id := range []string{"1", "2", "3"} {
		v := byID(t, next, id)
		assert.Equal(t, models.StatusPaid, v.PaymentStatus)
		assert.Equal(t, "2024-03-31", v.PaymentDate)
	}

	// Уже оплаченные и не подходящие записи прошли без изменений.
	for _, id := range []string{"4", "5", "6", "7"} {
		assert.Equal(t, byID(t, visits, id), byID(t, next, id))
	}

	// Исходная коллекция не тронута.
	assert.Equal(t, models.StatusPending, byID(t, visits, "1").PaymentStatus)
}

func TestClearMonth(t *testing.T) {
	next, removed := ClearMonth(sample(), "2024-03")
	assert.Equal(t, 5, removed)
	assert.Len(t, next, 2)
}

func TestApplyPlanName(t *testing.T) {
	next := ApplyPlanName(sample(), "MARIA SOUZA", "PlanC")
	assert.Equal(t, "PlanC", byID(t, next, "1").PlanName)
	assert.Equal(t, "PlanC", byID(t, next, "2").PlanName)
	// Частный приём и чужие записи не затронуты.
	assert.Equal(t, "", byID(t, next, "6").PlanName)
	assert.Equal(t, "PlanA", byID(t, next, "3").PlanName)
}

func TestSortByServiceDate(t *testing.T) {
	sorted := SortByServiceDate(sample())
	for i := 1; i < len(sorted); i++ {
		assert.GreaterOrEqual(t, sorted[i-1].ServiceDate, sorted[i].ServiceDate)
	}
}

func TestUniquePlansAndNames(t *testing.T) {
	assert.Equal(t, []string{"PlanA", "PlanB"}, UniquePlans(sample()))
	assert.Equal(t,
		[]string{"Ana Paula", "Carla Dias", "Joao Lima", "Maria Souza", "Pedro Alves"},
		UniqueNames(sample()))
}

func byID(t *testing.T, visits []models.Visit, id string) models.Visit {
	t.Helper()
	for _, v := range visits {
		if v.ID == id {
			return v
		}
	}
	t.Fatalf("visit %s not found", id)
	return models.Visit{}
}
