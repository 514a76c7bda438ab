package llm

import (
	"fmt"
	"strings"
)

// BuildPrompt формирует запрос арбитражу.
// Основной вариант (primary) считается языком пользователя по умолчанию.
func BuildPrompt(primary, secondary Candidate, threshold float64) string {
	var b strings.Builder

	b.WriteString("Распознавание одной речи двумя моделями:\n\n")
	writeCandidate(&b, "ОСНОВНАЯ МОДЕЛЬ", primary)
	b.WriteString("\n")
	writeCandidate(&b, "ДОПОЛНИТЕЛЬНАЯ МОДЕЛЬ", secondary)

	fmt.Fprintf(&b, `
Задача: выбрать ОДИН из двух вариантов или скомбинировать их.

ОБЯЗАТЕЛЬНО:
- Используй ТОЛЬКО слова из этих двух вариантов
- НЕ придумывай и НЕ добавляй слов, которых нет ни в одном варианте

Пользователь говорит в основном на языке основной модели (%s).

Правила выбора:
1. Если основная модель дала осмысленную фразу с уверенностью выше %.2f, используй её целиком
2. Если основной вариант бессмысленный, а дополнительный осмысленный, используй дополнительный
3. Если оба варианта бессмысленные, выбери основной
4. Для смешанной речи: если в основном варианте есть транслитерация ("хеллоу"), а в дополнительном оригинал ("hello"), замени только эти слова

Верни ТОЛЬКО итоговый текст без пояснений.`, labelOrDefault(primary.Label), threshold)

	return b.String()
}

func writeCandidate(b *strings.Builder, title string, c Candidate) {
	words := make([]string, 0, len(c.Result.Words))
	details := make([]string, 0, len(c.Result.Words))
	for _, w := range c.Result.Words {
		words = append(words, w.Word)
		details = append(details, fmt.Sprintf("'%s' (%.2f)", w.Word, w.Confidence))
	}

	text := strings.Join(words, " ")
	if text == "" {
		text = c.Result.Text
	}

	fmt.Fprintf(b, "%s (%s): %s\n", title, labelOrDefault(c.Label), text)
	fmt.Fprintf(b, "Уверенность по словам: %s\n", strings.Join(details, ", "))
}

func labelOrDefault(label string) string {
	if label == "" {
		return "?"
	}
	return label
}
