package speech

import (
	"encoding/json"
	"strings"
)

// voskResult структура JSON результата Vosk с включённым SetWords.
type voskResult struct {
	Text   string      `json:"text"`
	Result []WordScore `json:"result"`
}

// ParseVoskResult разбирает JSON от Result()/FinalResult() распознавателя Vosk.
func ParseVoskResult(data string) (Result, error) {
	var vr voskResult
	if err := json.Unmarshal([]byte(data), &vr); err != nil {
		return Result{}, err
	}

	words := make([]WordScore, 0, len(vr.Result))
	for _, w := range vr.Result {
		if strings.TrimSpace(w.Word) == "" {
			continue
		}
		words = append(words, WordScore{Word: w.Word, Confidence: clamp01(w.Confidence)})
	}

	return Result{Text: strings.TrimSpace(vr.Text), Words: words}, nil
}

// Token - токен whisper.cpp с вероятностью.
type Token struct {
	Text string
	P    float32
}

// GroupTokens собирает слова из токенов whisper.
// Токен с ведущим пробелом начинает новое слово, служебные токены
// ([_BEG_], <|en|>) пропускаются. Уверенность слова - средняя вероятность
// его токенов.
func GroupTokens(tokens []Token) []WordScore {
	var words []WordScore
	var cur strings.Builder
	var sum float64
	var n int

	flush := func() {
		word := strings.TrimSpace(cur.String())
		if word != "" && n > 0 {
			words = append(words, WordScore{Word: word, Confidence: clamp01(sum / float64(n))})
		}
		cur.Reset()
		sum, n = 0, 0
	}

	for _, t := range tokens {
		if isSpecialToken(t.Text) || t.Text == "" {
			continue
		}
		if strings.HasPrefix(t.Text, " ") {
			flush()
		}
		cur.WriteString(t.Text)
		sum += float64(t.P)
		n++
	}
	flush()

	return words
}

func isSpecialToken(text string) bool {
	return strings.HasPrefix(text, "[_") || strings.HasPrefix(text, "<|")
}
