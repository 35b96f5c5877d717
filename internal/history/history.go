// Package history реализует ограниченный журнал снимков коллекции приёмов
// для многошаговой отмены и повтора действий.
//
// Журнал хранит для каждого изменяющего действия полные снимки состояния
// до и после. Полные снимки вместо диффов — осознанный размен памяти на
// простоту: нет логики слияния и нет риска дрейфа при применении диффа.
// Потребление памяти ограничено ёмкостью журнала.
package history

import (
	"time"

	"github.com/daniellaterapia/visit-tracker/internal/models"
)

// MaxEntries — ёмкость журнала. При переполнении вытесняется самая старая
// запись (FIFO).
const MaxEntries = 50

// Виды изменяющих действий, фиксируемых в журнале.
const (
	KindAdd    = "add"
	KindEdit   = "edit"
	KindDelete = "delete"
	KindClear  = "clear"
)

// Entry — одна запись журнала: вид действия, момент фиксации, полные снимки
// коллекции до и после и человекочитаемое описание. Записи после создания
// не изменяются.
type Entry struct {
	Kind        string
	Timestamp   time.Time
	Before      []models.Visit
	After       []models.Visit
	Description string
}

// Log — линейная последовательность записей с курсором. Инвариант курсора:
// -1 <= index < len(entries). Курсор -1 означает, что отменять нечего.
type Log struct {
	entries []Entry
	index   int
}

// New создаёт пустой журнал.
func New() *Log {
	return &Log{index: -1}
}

// Record фиксирует переход состояния. Сначала отбрасывается «хвост» повтора
// за курсором, затем добавляется новая запись с независимыми копиями снимков,
// при переполнении вытесняется самая старая запись, курсор встаёт на новый
// последний индекс.
func (l *Log) Record(kind string, before, after []models.Visit, description string) {
	l.entries = l.entries[:l.index+1]
	l.entries = append(l.entries, Entry{
		Kind:        kind,
		Timestamp:   time.Now(),
		Before:      models.CopyVisits(before),
		After:       models.CopyVisits(after),
		Description: description,
	})
	if len(l.entries) > MaxEntries {
		l.entries = l.entries[1:]
	}
	l.index = len(l.entries) - 1
}

// Undo возвращает снимок состояния до записи под курсором и сдвигает курсор
// назад. Если отменять нечего, возвращает ok=false и ничего не меняет.
func (l *Log) Undo() (snapshot []models.Visit, description string, ok bool) {
	if l.index < 0 {
		return nil, "", false
	}
	entry := l.entries[l.index]
	l.index--
	return models.CopyVisits(entry.Before), entry.Description, true
}

// Redo возвращает снимок состояния после записи за курсором и сдвигает курсор
// вперёд. Если повторять нечего, возвращает ok=false и ничего не меняет.
func (l *Log) Redo() (snapshot []models.Visit, description string, ok bool) {
	if l.index >= len(l.entries)-1 {
		return nil, "", false
	}
	entry := l.entries[l.index+1]
	l.index++
	return models.CopyVisits(entry.After), entry.Description, true
}

// CanUndo сообщает, есть ли записи для отмены.
func (l *Log) CanUndo() bool { return l.index >= 0 }

// CanRedo сообщает, есть ли записи для повтора.
func (l *Log) CanRedo() bool { return l.index < len(l.entries)-1 }

// Len возвращает текущее число записей в журнале.
func (l *Log) Len() int { return len(l.entries) }
