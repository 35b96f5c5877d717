// Package view содержит чистые функции над коллекцией приёмов: фильтрацию,
// агрегаты и массовые преобразования. Результаты нигде не кешируются и
// вычисляются заново на каждый запрос.
package view

import (
	"sort"
	"strings"

	"github.com/daniellaterapia/visit-tracker/internal/models"
)

// Filter возвращает подмножество приёмов, удовлетворяющее всем заданным
// предикатам фильтра. Имя сопоставляется как подстрока без учёта регистра,
// месяц — как префикс даты приёма или даты оплаты в зависимости от основания.
func Filter(visits []models.Visit, f models.Filter) []models.Visit {
	var out []models.Visit
	name := strings.ToLower(f.Name)
	for _, v := range visits {
		if name != "" && !strings.Contains(strings.ToLower(v.SubjectName), name) {
			continue
		}
		if f.Month != "" {
			date := v.ServiceDate
			if f.DateBasis == models.DateBasisPayment && v.PaymentDate != "" {
				date = v.PaymentDate
			}
			if !strings.HasPrefix(date, f.Month) {
				continue
			}
		}
		if f.PaymentStatus != "" && v.PaymentStatus != f.PaymentStatus {
			continue
		}
		if f.BillingMode != "" && v.BillingMode != f.BillingMode {
			continue
		}
		out = append(out, v)
	}
	return out
}

// Aggregate считает количество и суммы по подмножеству приёмов.
func Aggregate(visits []models.Visit) models.Summary {
	var s models.Summary
	for _, v := range visits {
		s.Count++
		s.TotalAmount += v.Amount
		switch v.PaymentStatus {
		case models.StatusPaid:
			s.PaidAmount += v.Amount
		case models.StatusPending:
			s.PendingAmount += v.Amount
		}
	}
	return s
}

// ReceivedInMonth возвращает сумму оплаченных приёмов, у которых дата оплаты
// начинается с заданного месяца. Пустой месяц означает «за всё время».
func ReceivedInMonth(visits []models.Visit, month string) float64 {
	var sum float64
	for _, v := range visits {
		if v.PaymentStatus != models.StatusPaid {
			continue
		}
		if month != "" && !strings.HasPrefix(v.PaymentDate, month) {
			continue
		}
		sum += v.Amount
	}
	return sum
}

// BulkMarkPaid возвращает новую коллекцию, в которой каждый ожидающий оплаты
// приём заданного плана за заданный месяц отмечен оплаченным с датой оплаты
// paymentDate. Остальные записи проходят без изменений. Вторым значением
// возвращается число изменённых записей.
func BulkMarkPaid(visits []models.Visit, planName, month, paymentDate string) ([]models.Visit, int) {
	out := models.CopyVisits(visits)
	changed := 0
	for i := range out {
		if out[i].PlanName != planName {
			continue
		}
		if !strings.HasPrefix(out[i].ServiceDate, month) {
			continue
		}
		if out[i].PaymentStatus != models.StatusPending {
			continue
		}
		out[i].PaymentStatus = models.StatusPaid
		out[i].PaymentDate = paymentDate
		changed++
	}
	return out, changed
}

// ClearMonth возвращает коллекцию без приёмов, дата которых начинается
// с заданного месяца, и число удалённых записей.
func ClearMonth(visits []models.Visit, month string) ([]models.Visit, int) {
	var out []models.Visit
	for _, v := range visits {
		if strings.HasPrefix(v.ServiceDate, month) {
			continue
		}
		out = append(out, v)
	}
	return out, len(visits) - len(out)
}

// ApplyPlanName возвращает коллекцию, в которой всем приёмам по плану
// с тем же именем пациента (без учёта регистра) проставлено название плана.
// Используется при добавлении и редактировании: название плана — ключ
// группировки записей одного пациента.
func ApplyPlanName(visits []models.Visit, subjectName, planName string) []models.Visit {
	out := models.CopyVisits(visits)
	name := strings.ToLower(subjectName)
	for i := range out {
		if out[i].BillingMode == models.BillingPlan && strings.ToLower(out[i].SubjectName) == name {
			out[i].PlanName = planName
		}
	}
	return out
}

// SortByServiceDate возвращает копию, отсортированную по дате приёма
// по убыванию. Формат дат YYYY-MM-DD сортируется лексикографически.
func SortByServiceDate(visits []models.Visit) []models.Visit {
	out := models.CopyVisits(visits)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].ServiceDate > out[j].ServiceDate
	})
	return out
}

// UniquePlans возвращает отсортированный список названий планов,
// встречающихся в коллекции.
func UniquePlans(visits []models.Visit) []string {
	seen := make(map[string]struct{})
	for _, v := range visits {
		if v.BillingMode == models.BillingPlan && v.PlanName != "" {
			seen[v.PlanName] = struct{}{}
		}
	}
	return sortedKeys(seen)
}

// UniqueNames возвращает отсортированный список имён пациентов.
func UniqueNames(visits []models.Visit) []string {
	seen := make(map[string]struct{})
	for _, v := range visits {
		seen[v.SubjectName] = struct{}{}
	}
	return sortedKeys(seen)
}

func sortedKeys(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
