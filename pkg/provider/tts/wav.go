package tts

import (
	"encoding/binary"
	"errors"
)

// WAVInfo is the format metadata found in a RIFF/WAVE header.
type WAVInfo struct {
	// DataOffset is the byte offset of the first PCM sample.
	DataOffset int
	SampleRate int
	Channels   int
}

// ParseWAV walks the RIFF chunks of wav and returns where the PCM data
// starts and what format it has.
func ParseWAV(wav []byte) (WAVInfo, error) {
	if len(wav) < 12 {
		return WAVInfo{}, errors.New("tts: WAV too short to be a RIFF file")
	}
	if string(wav[0:4]) != "RIFF" || string(wav[8:12]) != "WAVE" {
		return WAVInfo{}, errors.New("tts: not a RIFF/WAVE file")
	}

	info := WAVInfo{SampleRate: 22050, Channels: 1}
	offset := 12
	for offset+8 <= len(wav) {
		id := string(wav[offset : offset+4])
		size := int(binary.LittleEndian.Uint32(wav[offset+4 : offset+8]))
		switch id {
		case "fmt ":
			if size >= 16 && offset+8+16 <= len(wav) {
				f := wav[offset+8:]
				info.Channels = int(binary.LittleEndian.Uint16(f[2:4]))
				info.SampleRate = int(binary.LittleEndian.Uint32(f[4:8]))
			}
		case "data":
			info.DataOffset = offset + 8
			return info, nil
		}
		// Chunks are word aligned.
		offset += 8 + size + size%2
	}
	return WAVInfo{}, errors.New("tts: WAV missing data chunk")
}

// EncodeWAV wraps 16-bit PCM in a minimal RIFF/WAVE header.
func EncodeWAV(pcm []byte, f Format) []byte {
	channels := max(f.Channels, 1)
	out := make([]byte, 44+len(pcm))
	copy(out[0:], "RIFF")
	binary.LittleEndian.PutUint32(out[4:], uint32(36+len(pcm)))
	copy(out[8:], "WAVE")
	copy(out[12:], "fmt ")
	binary.LittleEndian.PutUint32(out[16:], 16)
	binary.LittleEndian.PutUint16(out[20:], 1)
	binary.LittleEndian.PutUint16(out[22:], uint16(channels))
	binary.LittleEndian.PutUint32(out[24:], uint32(f.SampleRate))
	binary.LittleEndian.PutUint32(out[28:], uint32(f.SampleRate*channels*2))
	binary.LittleEndian.PutUint16(out[32:], uint16(channels*2))
	binary.LittleEndian.PutUint16(out[34:], 16)
	copy(out[36:], "data")
	binary.LittleEndian.PutUint32(out[40:], uint32(len(pcm)))
	copy(out[44:], pcm)
	return out
}

// ResampleMono16 converts 16-bit mono PCM from srcRate to dstRate with
// linear interpolation.
func ResampleMono16(pcm []byte, srcRate, dstRate int) []byte {
	if srcRate == dstRate || len(pcm) < 2 || srcRate <= 0 || dstRate <= 0 {
		return pcm
	}
	n := len(pcm) / 2
	m := int(int64(n) * int64(dstRate) / int64(srcRate))
	if m == 0 {
		return nil
	}
	sample := func(i int) int16 { return int16(binary.LittleEndian.Uint16(pcm[i*2:])) }

	out := make([]byte, m*2)
	ratio := float64(srcRate) / float64(dstRate)
	for i := range m {
		pos := float64(i) * ratio
		idx := int(pos)
		frac := pos - float64(idx)
		s0 := sample(idx)
		s1 := s0
		if idx+1 < n {
			s1 = sample(idx + 1)
		}
		v := int16(float64(s0)*(1-frac) + float64(s1)*frac)
		binary.LittleEndian.PutUint16(out[i*2:], uint16(v))
	}
	return out
}
