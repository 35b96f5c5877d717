// Package models содержит доменную модель пользователя системы,
// включающую данные учётной записи, хэш пароля и дату создания.
package models

// User представляет зарегистрированного пользователя системы.
// Пароль хранится только в виде bcrypt-хэша; таблица пользователей
// сериализуется в документ users.json как отображение email -> User.
// JSON-ключ "password" сохранён ради совместимости со старым форматом документа.
type User struct {
	UID          string `json:"id"`
	Name         string `json:"name"`
	Email        string `json:"email"`
	PasswordHash string `json:"password"`
	CreatedAt    string `json:"createdAt"`
}
