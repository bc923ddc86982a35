package stream

import (
	"context"
	"log"
	"path/filepath"
	"strings"
	"time"
)

// Аудиокодеки, которые плеер не декодирует без перекодирования
// (многоканальные/lossless форматы).
var unsupportedAudioCodecs = map[string]bool{
	"ac3":    true,
	"ac-3":   true,
	"eac3":   true,
	"ec-3":   true,
	"dts":    true,
	"truehd": true,
	"mlp":    true,
	"vorbis": true,
}

type ProbeResult struct {
	NeedsTranscode bool
	Duration       float64 // секунды, 0 — неизвестно
}

// Probe инспектирует поток с ограниченным ожиданием. Если проба не успевает
// за softTimeout, решение принимается по расширению контейнера, а поздний
// ответ пробы всё равно доставляет длительность через onLateDuration.
type Probe struct {
	prober       Prober
	softTimeout  time.Duration
	hardTimeout  time.Duration
	fallbackExts map[string]bool
	// Вызывается, если длительность стала известна уже после фолбэка.
	onLateDuration func(seconds float64)
}

func NewProbe(prober Prober, soft, hard time.Duration, fallbackExts []string, onLateDuration func(float64)) *Probe {
	exts := make(map[string]bool, len(fallbackExts))
	for _, ext := range fallbackExts {
		exts[strings.ToLower(strings.TrimPrefix(ext, "."))] = true
	}

	return &Probe{
		prober:         prober,
		softTimeout:    soft,
		hardTimeout:    hard,
		fallbackExts:   exts,
		onLateDuration: onLateDuration,
	}
}

// Run выполняет пробу. Никогда не возвращает ошибку: недоступная проба
// деградирует до безопасного ответа, чтобы не срывать загрузку.
func (p *Probe) Run(streamURL string) ProbeResult {
	// Жёсткий потолок: после hardTimeout процесс пробы убивается через контекст
	ctx, cancel := context.WithTimeout(context.Background(), p.hardTimeout)

	type outcome struct {
		info MediaInfo
		err  error
	}
	done := make(chan outcome, 1)

	go func() {
		defer cancel()
		info, err := p.prober(ctx, streamURL)
		done <- outcome{info: info, err: err}
	}()

	timer := time.NewTimer(p.softTimeout)
	defer timer.Stop()

	select {
	case out := <-done:
		if out.err != nil {
			// Доступность важнее идеального определения кодека
			log.Printf("[probe] Probe failed: %v", out.err)
			return ProbeResult{}
		}
		return p.resultFromInfo(out.info)

	case <-timer.C:
		log.Printf("[probe] Probe timed out, falling back to container heuristic")
		result := ProbeResult{NeedsTranscode: p.fallbackNeedsTranscode(streamURL)}

		// Медленная проба может ещё ответить — длительность доставим отдельно
		go func() {
			out := <-done
			if out.err == nil && out.info.Duration > 0 && p.onLateDuration != nil {
				p.onLateDuration(out.info.Duration)
			}
		}()

		return result
	}
}

func (p *Probe) resultFromInfo(info MediaInfo) ProbeResult {
	result := ProbeResult{Duration: info.Duration}

	codec := strings.ToLower(info.AudioCodec)
	if codec != "" && unsupportedAudioCodecs[codec] {
		log.Printf("[probe] Transcoding required for audio codec: %s", codec)
		result.NeedsTranscode = true
	}

	return result
}

// fallbackNeedsTranscode — эвристика по расширению контейнера: форматы,
// в которых исторически часто лежит неподдерживаемое аудио.
func (p *Probe) fallbackNeedsTranscode(streamURL string) bool {
	path := streamURL
	if i := strings.IndexByte(path, '?'); i >= 0 {
		path = path[:i]
	}
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(path), "."))
	return p.fallbackExts[ext]
}
