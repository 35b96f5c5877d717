// Package validation собирает валидатор с дополнительными проверками,
// которых нет в используемой версии библиотеки.
package validation

import (
	"time"

	"github.com/go-playground/validator"
)

// New возвращает валидатор с зарегистрированной проверкой datetime:
// значение поля должно разбираться time.Parse по формату из параметра тега,
// например `validate:"datetime=2006-01-02"`. Библиотека такой проверки
// не содержит и падает на неизвестном теге, поэтому все валидаторы
// в приложении создаются через эту функцию.
func New() *validator.Validate {
	v := validator.New()
	// RegisterValidation возвращает ошибку только для пустого имени тега.
	_ = v.RegisterValidation("datetime", func(fl validator.FieldLevel) bool {
		_, err := time.Parse(fl.Param(), fl.Field().String())
		return err == nil
	})
	return v
}
