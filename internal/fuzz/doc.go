// Package fuzztests houses Go fuzz harnesses for the formula front end
// (source -> lexer -> parser -> checks). The goal is to catch panics, hangs
// and broken span invariants on arbitrary inputs.
//
// Не делает: генерацию корпусов, запись файлов, выполнение CLI.
package fuzztests
