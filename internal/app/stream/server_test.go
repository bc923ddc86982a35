package stream

import (
	"fmt"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func testFileData(n int) []byte {
	data := make([]byte, n)
	for i := range data {
		data[i] = byte(i % 251)
	}
	return data
}

func newTestServer(file File, transcoder Transcoder) *Server {
	probe := NewProbe(okProber(MediaInfo{AudioCodec: "aac"}), time.Second, 5*time.Second, nil, nil)
	if transcoder == nil {
		transcoder = &fakeTranscoder{}
	}
	return newServer(file, NewBus(), probe, transcoder)
}

func TestServer_FullFileWithoutRange(t *testing.T) {
	data := testFileData(1000)
	file := &fakeFile{name: "movie.mp4", data: data}
	s := newTestServer(file, nil)

	req := httptest.NewRequest(http.MethodGet, "/movie.mp4", nil)
	rec := httptest.NewRecorder()
	s.handleStream(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "1000", rec.Header().Get("Content-Length"))
	require.Equal(t, "bytes", rec.Header().Get("Accept-Ranges"))
	require.Equal(t, "video/mp4", rec.Header().Get("Content-Type"))
	require.Equal(t, data, rec.Body.Bytes())
}

func TestServer_ValidRange(t *testing.T) {
	data := testFileData(1000)
	file := &fakeFile{name: "movie.mkv", data: data}
	s := newTestServer(file, nil)

	req := httptest.NewRequest(http.MethodGet, "/movie.mkv", nil)
	req.Header.Set("Range", "bytes=100-199")
	rec := httptest.NewRecorder()
	s.handleStream(rec, req)

	require.Equal(t, http.StatusPartialContent, rec.Code)
	require.Equal(t, "bytes 100-199/1000", rec.Header().Get("Content-Range"))
	require.Equal(t, "100", rec.Header().Get("Content-Length"))
	require.Equal(t, "video/x-matroska", rec.Header().Get("Content-Type"))
	require.Equal(t, data[100:200], rec.Body.Bytes())
}

func TestServer_OpenEndedRange(t *testing.T) {
	data := testFileData(1000)
	s := newTestServer(&fakeFile{name: "movie.mp4", data: data}, nil)

	req := httptest.NewRequest(http.MethodGet, "/movie.mp4", nil)
	req.Header.Set("Range", "bytes=900-")
	rec := httptest.NewRecorder()
	s.handleStream(rec, req)

	require.Equal(t, http.StatusPartialContent, rec.Code)
	require.Equal(t, "bytes 900-999/1000", rec.Header().Get("Content-Range"))
	require.Equal(t, data[900:], rec.Body.Bytes())
}

func TestServer_SuffixRange(t *testing.T) {
	data := testFileData(1000)
	s := newTestServer(&fakeFile{name: "movie.mp4", data: data}, nil)

	req := httptest.NewRequest(http.MethodGet, "/movie.mp4", nil)
	req.Header.Set("Range", "bytes=-200")
	rec := httptest.NewRecorder()
	s.handleStream(rec, req)

	require.Equal(t, http.StatusPartialContent, rec.Code)
	require.Equal(t, "bytes 800-999/1000", rec.Header().Get("Content-Range"))
	require.Equal(t, data[800:], rec.Body.Bytes())
}

func TestServer_OversizedSuffixClampsToStart(t *testing.T) {
	// bytes=-N при N >= длины файла отдаёт файл целиком, а не уходит в минус
	data := testFileData(1000)
	s := newTestServer(&fakeFile{name: "movie.mp4", data: data}, nil)

	req := httptest.NewRequest(http.MethodGet, "/movie.mp4", nil)
	req.Header.Set("Range", "bytes=-2000")
	rec := httptest.NewRecorder()
	s.handleStream(rec, req)

	require.Equal(t, http.StatusPartialContent, rec.Code)
	require.Equal(t, "bytes 0-999/1000", rec.Header().Get("Content-Range"))
	require.Len(t, rec.Body.Bytes(), 1000)
}

func TestServer_InvalidRanges(t *testing.T) {
	s := newTestServer(&fakeFile{name: "movie.mp4", data: testFileData(1000)}, nil)

	for _, header := range []string{
		"bytes=1000-",     // start за пределами файла
		"bytes=1500-2000", // целиком за пределами
		"bytes=200-100",   // end < start
		"bytes=100-1000",  // end за пределами — отказ, а не обрезка
		"bytes=abc-def",
		"items=0-100",
	} {
		req := httptest.NewRequest(http.MethodGet, "/movie.mp4", nil)
		req.Header.Set("Range", header)
		rec := httptest.NewRecorder()
		s.handleStream(rec, req)

		require.Equal(t, http.StatusRequestedRangeNotSatisfiable, rec.Code, "header %q", header)
		require.Equal(t, "bytes */1000", rec.Header().Get("Content-Range"), "header %q", header)
	}
}

func TestServer_UnknownPath(t *testing.T) {
	s := newTestServer(&fakeFile{name: "movie.mp4", data: testFileData(10)}, nil)

	req := httptest.NewRequest(http.MethodGet, "/other.mp4", nil)
	rec := httptest.NewRecorder()
	s.handleStream(rec, req)

	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestServer_TranscodeMode(t *testing.T) {
	transcoder := &fakeTranscoder{output: []byte("remuxed-bytes"), duration: 3723.5}
	file := &fakeFile{name: "movie.mkv", data: testFileData(100)}
	bus := NewBus()
	probe := NewProbe(okProber(MediaInfo{}), time.Second, 5*time.Second, nil, nil)
	s := newServer(file, bus, probe, transcoder)

	events, cancel := bus.Subscribe()
	defer cancel()

	req := httptest.NewRequest(http.MethodGet, "/movie.mkv?transcode=true&startTime=42.5", nil)
	rec := httptest.NewRecorder()
	s.handleStream(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "video/x-matroska", rec.Header().Get("Content-Type"))
	require.Equal(t, "remuxed-bytes", rec.Body.String())
	require.Equal(t, 42.5, transcoder.lastStartTime())

	// Длительность от транскодера уходит наблюдателям как метаданные
	select {
	case event := <-events:
		require.Equal(t, EventVideoMetadata, event.Type)
		require.NotNil(t, event.Metadata)
		require.Equal(t, 3723.5, event.Metadata.Duration)
	case <-time.After(time.Second):
		t.Fatal("no metadata event from transcoder")
	}

	// Обработчик завершился — процесс должен быть убит
	require.True(t, transcoder.lastJob.killed.Load())
}

func TestServer_TranscodeIgnoresBadStartTime(t *testing.T) {
	transcoder := &fakeTranscoder{output: []byte("x")}
	s := newTestServer(&fakeFile{name: "movie.mkv", data: testFileData(10)}, transcoder)

	req := httptest.NewRequest(http.MethodGet, "/movie.mkv?transcode=true&startTime=-5", nil)
	rec := httptest.NewRecorder()
	s.handleStream(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.Zero(t, transcoder.lastStartTime())
}

func TestServer_AnnouncePublishesTranscodeURLOnce(t *testing.T) {
	bus := NewBus()
	probe := NewProbe(okProber(MediaInfo{AudioCodec: "dts", Duration: 99}), time.Second, 5*time.Second, nil, nil)
	file := &fakeFile{name: "movie.mkv", data: testFileData(64)}
	s := newServer(file, bus, probe, &fakeTranscoder{})

	events, cancel := bus.Subscribe()
	defer cancel()

	require.NoError(t, s.Start())
	defer func() { _ = s.Close() }()

	var sawDuration bool
	var streamURL string
	deadline := time.After(3 * time.Second)
	for streamURL == "" {
		select {
		case event := <-events:
			switch event.Type {
			case EventVideoMetadata:
				require.Equal(t, 99.0, event.Metadata.Duration)
				sawDuration = true
			case EventVideoURL:
				streamURL = event.URL
			}
		case <-deadline:
			t.Fatal("videoUrl event was never published")
		}
	}

	// Флаг транскодирования приклеен к URL до публикации, не после
	require.True(t, strings.HasSuffix(streamURL, "?transcode=true"), "url %s", streamURL)
	require.True(t, sawDuration, "duration must be published before the url")
	require.True(t, file.selected.Load(), "endpoint must hint piece prioritization")

	// Эндпоинт действительно слушает и отдаёт файл
	resp, err := http.Get(s.URL())
	require.NoError(t, err)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.NoError(t, resp.Body.Close())
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Len(t, body, 64)
}

func TestServer_CloseReleasesPort(t *testing.T) {
	s := newTestServer(&fakeFile{name: "movie.mp4", data: testFileData(10)}, nil)
	require.NoError(t, s.Start())

	port := s.port
	require.NoError(t, s.Close())

	require.Eventually(t, func() bool {
		conn, err := net.DialTimeout("tcp", fmt.Sprintf("127.0.0.1:%d", port), 50*time.Millisecond)
		if err == nil {
			_ = conn.Close()
			return false
		}
		return true
	}, 2*time.Second, 20*time.Millisecond, "port must stop accepting connections")
}
