package game

import (
	"math/rand"

	"numbers_duel/internal/domain"
)

// Bot - синтетический противник. Играет только по информации, доступной
// живому игроку: собственный секрет, собственные ходы и фидбек на них.
// Секрет противника ему никогда не передается
type Bot struct {
	difficulty domain.BotDifficulty
	rng        *rand.Rand
}

// NewBot создает бота. rng инжектируется ради воспроизводимости в тестах
func NewBot(difficulty domain.BotDifficulty, rng *rand.Rand) *Bot {
	if difficulty == "" {
		difficulty = domain.DifficultyEasy
	}
	return &Bot{difficulty: difficulty, rng: rng}
}

// ChooseSecret возвращает валидный случайный секрет
func (b *Bot) ChooseSecret(length int) string {
	return GenerateCode(length, b.rng)
}

// ChooseGuess возвращает валидную догадку. easy игнорирует историю,
// hard оставляет только кандидатов, согласованных с фидбеком всех
// прошлых ходов, и берет случайного из них. Всегда завершается:
// при пустом множестве кандидатов откатывается на случайный код
func (b *Bot) ChooseGuess(length int, history []domain.Move) string {
	if b.difficulty != domain.DifficultyHard || len(history) == 0 {
		return GenerateCode(length, b.rng)
	}

	candidates := consistentCandidates(length, history)
	if len(candidates) == 0 {
		return GenerateCode(length, b.rng)
	}
	return candidates[b.rng.Intn(len(candidates))]
}

// consistentCandidates перебирает все коды из разных цифр заданной длины
// и оставляет те, что дали бы ровно такой же фидбек на каждый прошлый ход
func consistentCandidates(length int, history []domain.Move) []string {
	var out []string
	code := make([]byte, 0, length)
	var used [10]bool

	var walk func()
	walk = func() {
		if len(code) == length {
			cand := string(code)
			for _, mv := range history {
				if Score(mv.Guess, cand) != mv.Feedback {
					return
				}
			}
			out = append(out, cand)
			return
		}
		for d := 0; d < 10; d++ {
			if used[d] {
				continue
			}
			used[d] = true
			code = append(code, byte('0'+d))
			walk()
			code = code[:len(code)-1]
			used[d] = false
		}
	}
	walk()
	return out
}
