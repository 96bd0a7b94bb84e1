package game

import (
	"errors"
	"fmt"
	"math/rand"

	"numbers_duel/internal/domain"
)

// Общий родитель всех ошибок валидации кода: errors.Is(err, ErrInvalidCode)
// срабатывает для любой из трех конкретных причин
var (
	ErrInvalidCode   = errors.New("неверный код")
	ErrCodeLength    = fmt.Errorf("%w: неверная длина", ErrInvalidCode)
	ErrCodeFormat    = fmt.Errorf("%w: допустимы только цифры", ErrInvalidCode)
	ErrCodeDuplicate = fmt.Errorf("%w: цифры не должны повторяться", ErrInvalidCode)
)

// ValidateCode проверяет кандидата в секреты или догадки: ровно length
// символов, только цифры, без повторов. Вызывается перед каждым
// SetSecret и SubmitGuess
func ValidateCode(candidate string, length int) error {
	if len(candidate) != length {
		return ErrCodeLength
	}

	var seen [10]bool
	for _, ch := range []byte(candidate) {
		if ch < '0' || ch > '9' {
			return ErrCodeFormat
		}
		d := ch - '0'
		if seen[d] {
			return ErrCodeDuplicate
		}
		seen[d] = true
	}
	return nil
}

// Score считает пару (dig, pos) догадки против секрета. Оба кода
// предполагаются провалидированными и одной длины. Dig считается по
// множеству цифр секрета: даже если наверх просочился код с повтором,
// одна цифра секрета не засчитывается дважды
func Score(guess, secret string) domain.Feedback {
	var fb domain.Feedback
	var inSecret [10]bool
	for _, ch := range []byte(secret) {
		if ch >= '0' && ch <= '9' {
			inSecret[ch-'0'] = true
		}
	}

	var counted [10]bool
	for i := 0; i < len(guess) && i < len(secret); i++ {
		if guess[i] == secret[i] {
			fb.Pos++
		}
	}
	for _, ch := range []byte(guess) {
		if ch < '0' || ch > '9' {
			continue
		}
		d := ch - '0'
		if inSecret[d] && !counted[d] {
			fb.Dig++
			counted[d] = true
		}
	}
	return fb
}

// IsWinningGuess - догадка выигрывает когда совпадает с секретом
func IsWinningGuess(guess, secret string) bool {
	return guess == secret
}

// GenerateCode строит случайный код из length разных цифр выборкой без
// возвращения (Фишер-Йетс по цифрам 0-9)
func GenerateCode(length int, rng *rand.Rand) string {
	digits := [10]byte{'0', '1', '2', '3', '4', '5', '6', '7', '8', '9'}
	for i := len(digits) - 1; i > 0; i-- {
		j := rng.Intn(i + 1)
		digits[i], digits[j] = digits[j], digits[i]
	}
	return string(digits[:length])
}
