// Package audio содержит общие типы для захвата и хранения PCM аудио.
package audio

import (
	"encoding/binary"
	"math"
)

const (
	// DefaultSampleRate - частота дискретизации по умолчанию.
	DefaultSampleRate = 16000
	// Channels - количество каналов (mono).
	Channels = 1
	// BitDepth - разрядность сэмпла (signed 16-bit little-endian).
	BitDepth = 16
	// FramesPerBuffer - размер чанка, ~64ms при 16kHz.
	FramesPerBuffer = 1024
)

// Source открывает поток захвата с микрофона.
type Source interface {
	// Open открывает поток с указанной частотой дискретизации.
	Open(sampleRate int) (Stream, error)
}

// Stream - открытый поток захвата.
type Stream interface {
	// Read блокируется до готовности следующего чанка и возвращает его
	// как PCM16 little-endian. Возвращаемый срез принадлежит вызывающему.
	Read() ([]byte, error)
	// Close останавливает и закрывает поток.
	Close() error
}

// Buffer - упорядоченная последовательность PCM чанков одной записи.
// Пишет в него только цикл захвата.
type Buffer struct {
	chunks [][]byte
	size   int
}

// Append добавляет чанк в конец буфера.
func (b *Buffer) Append(chunk []byte) {
	if len(chunk) == 0 {
		return
	}
	b.chunks = append(b.chunks, chunk)
	b.size += len(chunk)
}

// Len возвращает суммарный размер в байтах.
func (b *Buffer) Len() int {
	return b.size
}

// Chunks возвращает количество чанков.
func (b *Buffer) Chunks() int {
	return len(b.chunks)
}

// Bytes склеивает чанки в один непрерывный срез.
func (b *Buffer) Bytes() []byte {
	out := make([]byte, 0, b.size)
	for _, c := range b.chunks {
		out = append(out, c...)
	}
	return out
}

// Duration возвращает длительность PCM16 mono аудио в секундах.
func Duration(pcm []byte, sampleRate int) float64 {
	if sampleRate <= 0 {
		return 0
	}
	return float64(len(pcm)/2) / float64(sampleRate)
}

// Int16ToPCM кодирует сэмплы в PCM16 little-endian.
func Int16ToPCM(samples []int16) []byte {
	pcm := make([]byte, len(samples)*2)
	for i, s := range samples {
		binary.LittleEndian.PutUint16(pcm[i*2:], uint16(s))
	}
	return pcm
}

// PCMToInt16 декодирует PCM16 little-endian. Нечётный хвостовой байт отбрасывается.
func PCMToInt16(pcm []byte) []int16 {
	samples := make([]int16, len(pcm)/2)
	for i := range samples {
		samples[i] = int16(binary.LittleEndian.Uint16(pcm[i*2:]))
	}
	return samples
}

// PCM16ToFloat32 конвертирует PCM16 в float32 [-1, 1] (формат whisper.cpp).
func PCM16ToFloat32(pcm []byte) []float32 {
	samples := make([]float32, len(pcm)/2)
	for i := range samples {
		v := int16(binary.LittleEndian.Uint16(pcm[i*2:]))
		samples[i] = float32(v) / math.MaxInt16
		if samples[i] < -1 {
			samples[i] = -1
		}
	}
	return samples
}
