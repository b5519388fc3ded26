// Package codec converts between encoded audio files and buffer.Audio.
//
// WAV is read and written natively; export is always canonical 16-bit PCM
// WAV. MP3, FLAC and Ogg Vorbis are decoded with gopxl/beep. M4A and AAC
// need an external ffmpeg binary, configured with WithFFmpeg.
package codec
