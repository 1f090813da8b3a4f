// Package format prints parsed formulas in a canonical spelling.
//
// Назначение: `formula fmt`, сообщения компаратора, дампы.
// Не делает: сохранения комментариев (в формулах их нет) и IO.
// Зависимости: internal/ast, internal/frontend.
package format
