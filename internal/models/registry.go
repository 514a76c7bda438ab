// Package models управляет моделями распознавания речи.
package models

// Engine тип движка распознавания.
type Engine string

const (
	EngineWhisper Engine = "whisper"
	EngineVosk    Engine = "vosk"
)

// ModelInfo информация о модели.
type ModelInfo struct {
	ID       string // Уникальный идентификатор: "vosk-ru-small"
	Engine   Engine // Движок: whisper или vosk
	Language string // Язык модели, "" - многоязычная
	Name     string // Отображаемое имя
	Filename string // Имя файла/директории
	URL      string // URL для скачивания
	Size     int64  // Размер в байтах (для прогресса)
	IsZip    bool   // Нужно ли распаковывать
}

const mb = 1024 * 1024

// Registry все доступные модели.
var Registry = []ModelInfo{
	// Vosk
	{
		ID:       "vosk-ru-small",
		Engine:   EngineVosk,
		Language: "ru",
		Name:     "Russian Small",
		Filename: "vosk-model-small-ru-0.22",
		URL:      "https://alphacephei.com/vosk/models/vosk-model-small-ru-0.22.zip",
		Size:     45 * mb,
		IsZip:    true,
	},
	{
		ID:       "vosk-en-small",
		Engine:   EngineVosk,
		Language: "en",
		Name:     "English Small",
		Filename: "vosk-model-small-en-us-0.15",
		URL:      "https://alphacephei.com/vosk/models/vosk-model-small-en-us-0.15.zip",
		Size:     40 * mb,
		IsZip:    true,
	},
	{
		ID:       "vosk-ru",
		Engine:   EngineVosk,
		Language: "ru",
		Name:     "Russian Large",
		Filename: "vosk-model-ru-0.42",
		URL:      "https://alphacephei.com/vosk/models/vosk-model-ru-0.42.zip",
		Size:     1800 * mb,
		IsZip:    true,
	},
	{
		ID:       "vosk-en",
		Engine:   EngineVosk,
		Language: "en",
		Name:     "English Large",
		Filename: "vosk-model-en-us-0.22",
		URL:      "https://alphacephei.com/vosk/models/vosk-model-en-us-0.22.zip",
		Size:     1800 * mb,
		IsZip:    true,
	},
	// Whisper - квантизированные модели (рекомендуется для CPU)
	{
		ID:       "whisper-tiny-q5",
		Engine:   EngineWhisper,
		Name:     "Tiny Q5",
		Filename: "ggml-tiny-q5_1.bin",
		URL:      "https://huggingface.co/ggerganov/whisper.cpp/resolve/main/ggml-tiny-q5_1.bin",
		Size:     32 * mb,
	},
	{
		ID:       "whisper-base-q5",
		Engine:   EngineWhisper,
		Name:     "Base Q5",
		Filename: "ggml-base-q5_1.bin",
		URL:      "https://huggingface.co/ggerganov/whisper.cpp/resolve/main/ggml-base-q5_1.bin",
		Size:     60 * mb,
	},
	{
		ID:       "whisper-small-q5",
		Engine:   EngineWhisper,
		Name:     "Small Q5",
		Filename: "ggml-small-q5_1.bin",
		URL:      "https://huggingface.co/ggerganov/whisper.cpp/resolve/main/ggml-small-q5_1.bin",
		Size:     190 * mb,
	},
	{
		ID:       "whisper-turbo",
		Engine:   EngineWhisper,
		Name:     "Large v3 Turbo",
		Filename: "ggml-large-v3-turbo-q5_0.bin",
		URL:      "https://huggingface.co/ggerganov/whisper.cpp/resolve/main/ggml-large-v3-turbo-q5_0.bin",
		Size:     574 * mb,
	},
}

// Lookup возвращает модель по ID.
func Lookup(id string) (ModelInfo, bool) {
	for _, m := range Registry {
		if m.ID == id {
			return m, true
		}
	}
	return ModelInfo{}, false
}

// ByEngine возвращает модели для указанного движка.
func ByEngine(engine Engine) []ModelInfo {
	var result []ModelInfo
	for _, m := range Registry {
		if m.Engine == engine {
			result = append(result, m)
		}
	}
	return result
}
