package audio

import (
	"fmt"
	"os"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

// wavFormatPCM - audio format 1 (linear PCM) в заголовке RIFF.
const wavFormatPCM = 1

// EncodeWAV упаковывает PCM16 mono в WAV контейнер.
// Энкодеру нужен io.WriteSeeker, поэтому запись идёт через временный файл.
func EncodeWAV(pcm []byte, sampleRate int) ([]byte, error) {
	f, err := os.CreateTemp("", "golos-*.wav")
	if err != nil {
		return nil, fmt.Errorf("создание временного файла: %w", err)
	}
	path := f.Name()
	defer os.Remove(path)

	samples := PCMToInt16(pcm)
	data := make([]int, len(samples))
	for i, s := range samples {
		data[i] = int(s)
	}

	enc := wav.NewEncoder(f, sampleRate, BitDepth, Channels, wavFormatPCM)
	buf := &goaudio.IntBuffer{
		Format: &goaudio.Format{
			NumChannels: Channels,
			SampleRate:  sampleRate,
		},
		Data:           data,
		SourceBitDepth: BitDepth,
	}
	if err := enc.Write(buf); err != nil {
		enc.Close()
		f.Close()
		return nil, fmt.Errorf("запись WAV: %w", err)
	}
	if err := enc.Close(); err != nil {
		f.Close()
		return nil, fmt.Errorf("закрытие WAV: %w", err)
	}
	if err := f.Close(); err != nil {
		return nil, err
	}

	return os.ReadFile(path)
}
