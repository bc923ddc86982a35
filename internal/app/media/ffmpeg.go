package media

import (
	"bufio"
	"fmt"
	"io"
	"log"
	"os/exec"
	"regexp"
	"strconv"
	"strings"
	"sync/atomic"
)

// FFmpeg запускает потоковое транскодирование: видео копируется без
// перекодирования, аудио переводится в AAC стерео, контейнер — matroska.
type FFmpeg struct {
	bin          string
	audioBitrate string
}

func NewFFmpeg() *FFmpeg {
	return &FFmpeg{
		bin:          "ffmpeg",
		audioBitrate: "192k", // стерео-микс многоканального аудио
	}
}

// transcodeArgs формирует аргументы ffmpeg. Сид по входу (-ss до -i) —
// единственная поддерживаемая перемотка.
func transcodeArgs(startTime float64, audioBitrate string) []string {
	args := []string{"-hide_banner"}

	if startTime > 0 {
		args = append(args, "-ss", strconv.FormatFloat(startTime, 'f', -1, 64))
	}

	args = append(args,
		"-i", "pipe:0",
		// --- Настройки видео ---
		"-map", "0:v:0",
		"-c:v", "copy",
		// --- Настройки аудио ---
		"-map", "0:a:0?",
		"-c:a", "aac",
		"-ac", "2",
		"-b:a", audioBitrate,
		// --- Вывод ---
		"-f", "matroska",
		"pipe:1",
	)

	return args
}

// Start запускает процесс. Вход читается из переданного потока,
// результат доступен через Job.Output. onDuration вызывается один раз,
// когда ffmpeg напечатает длительность входа.
func (f *FFmpeg) Start(input io.ReadCloser, startTime float64, onDuration func(seconds float64)) (*Job, error) {
	cmd := exec.Command(f.bin, transcodeArgs(startTime, f.audioBitrate)...)
	cmd.Stdin = input

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("failed to open ffmpeg stdout: %w", err)
	}

	stderr, err := cmd.StderrPipe()
	if err != nil {
		return nil, fmt.Errorf("failed to open ffmpeg stderr: %w", err)
	}

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("failed to start ffmpeg: %w", err)
	}

	job := &Job{cmd: cmd, stdout: stdout}

	go job.watchProgress(stderr, onDuration)
	go job.wait()

	return job, nil
}

// Job — один запущенный процесс ffmpeg.
type Job struct {
	cmd    *exec.Cmd
	stdout io.ReadCloser
	killed atomic.Bool
}

func (j *Job) Output() io.ReadCloser {
	return j.stdout
}

// Kill принудительно завершает процесс. Безопасен при повторных вызовах.
func (j *Job) Kill() {
	if !j.killed.CompareAndSwap(false, true) {
		return
	}
	if j.cmd.Process != nil {
		if err := j.cmd.Process.Kill(); err != nil {
			log.Printf("[ffmpeg] Error killing process: %v", err)
		}
	}
}

var durationRe = regexp.MustCompile(`Duration:\s*(\d+:\d{2}:\d{2}(?:\.\d+)?)`)

// watchProgress читает stderr ffmpeg и извлекает длительность входа
// из строки вида "Duration: 01:42:37.33, start: ...".
func (j *Job) watchProgress(stderr io.Reader, onDuration func(seconds float64)) {
	scanner := bufio.NewScanner(stderr)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)

	reported := false
	for scanner.Scan() {
		if reported || onDuration == nil {
			continue
		}
		if m := durationRe.FindStringSubmatch(scanner.Text()); m != nil {
			if seconds, ok := ParseClock(m[1]); ok && seconds > 0 {
				reported = true
				onDuration(seconds)
			}
		}
	}
}

// wait забирает статус процесса. Завершение из-за отключившегося клиента
// (мы сами убили процесс или у него закрылся вывод) — не ошибка.
func (j *Job) wait() {
	err := j.cmd.Wait()
	if err == nil || j.killed.Load() {
		return
	}

	msg := err.Error()
	if strings.Contains(msg, "broken pipe") || strings.Contains(msg, "signal: killed") {
		return
	}

	log.Printf("[ffmpeg] Transcode error: %v", err)
}

var clockRe = regexp.MustCompile(`^(\d+):([0-5]?\d):([0-5]?\d(?:\.\d+)?)$`)

// ParseClock переводит строку HH:MM:SS[.ss] в секунды.
func ParseClock(clock string) (float64, bool) {
	m := clockRe.FindStringSubmatch(clock)
	if m == nil {
		return 0, false
	}

	hours, _ := strconv.ParseFloat(m[1], 64)
	minutes, _ := strconv.ParseFloat(m[2], 64)
	seconds, _ := strconv.ParseFloat(m[3], 64)

	return hours*3600 + minutes*60 + seconds, true
}
