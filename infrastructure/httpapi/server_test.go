package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	appsign "media-assist/application/sign"
	"media-assist/domain/language"
	"media-assist/domain/media"
	"media-assist/domain/sign"
)

// --- Mock services ---

type mockPipeline struct {
	result media.TranscriptionResult
	got    media.PipelineRequest
	called bool
}

func (m *mockPipeline) Run(ctx context.Context, req media.PipelineRequest) media.TranscriptionResult {
	m.called = true
	m.got = req
	return m.result
}

type mockTranslator struct {
	err error
}

func (m *mockTranslator) Translate(ctx context.Context, text, target string) (string, error) {
	if m.err != nil {
		return "", m.err
	}
	return "[" + target + "] " + text, nil
}

func (m *mockTranslator) Languages(ctx context.Context) ([]language.Language, error) {
	return []language.Language{{Code: "fr", Name: "French"}}, m.err
}

type mockSpeaker struct {
	err error
}

func (m *mockSpeaker) Speak(ctx context.Context, text, lang string) ([]byte, error) {
	if m.err != nil {
		return nil, m.err
	}
	return []byte("ID3" + text), nil
}

type mockSpeller struct{}

func (mockSpeller) Spell(word string) ([]appsign.LetterResult, error) {
	if strings.TrimSpace(word) == "" {
		return nil, sign.ErrEmptyWord
	}
	var results []appsign.LetterResult
	for _, l := range sign.Letters(word) {
		img, err := mockSpeller{}.Letter(l)
		results = append(results, appsign.LetterResult{Letter: l, Image: img, Err: err})
	}
	return results, nil
}

func (mockSpeller) Letter(letter rune) (sign.Image, error) {
	if letter == 'A' || letter == 'a' {
		return sign.Image{Letter: 'A', Data: []byte("jpeg"), ContentType: "image/jpeg"}, nil
	}
	if _, err := sign.NormalizeLetter(letter); err != nil {
		return sign.Image{}, err
	}
	return sign.Image{}, fmt.Errorf("%w for letter: %c", sign.ErrNotFound, letter)
}

func newTestServer(services Services, opts Options) http.Handler {
	if opts.MaxUploadBytes == 0 {
		opts.MaxUploadBytes = 1 << 20
	}
	return NewServer(services, opts, nil).Routes()
}

func multipartBody(t *testing.T, filename string, data []byte, fields map[string]string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	if filename != "" {
		part, err := mw.CreateFormFile("file", filename)
		if err != nil {
			t.Fatal(err)
		}
		_, _ = part.Write(data)
	}
	for k, v := range fields {
		_ = mw.WriteField(k, v)
	}
	if err := mw.Close(); err != nil {
		t.Fatal(err)
	}
	return &buf, mw.FormDataContentType()
}

func serve(h http.Handler, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestHealthz(t *testing.T) {
	rec := serve(newTestServer(Services{}, Options{}), httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if rec.Code != http.StatusOK || rec.Body.String() != "ok" {
		t.Errorf("GET /healthz = %d %q", rec.Code, rec.Body.String())
	}
}

func TestTranscriptions(t *testing.T) {
	tests := []struct {
		name       string
		filename   string
		data       []byte
		fields     map[string]string
		result     media.TranscriptionResult
		maxUpload  int64
		wantStatus int
		wantCalled bool
	}{
		{
			name:       "success",
			filename:   "talk.mp4",
			data:       []byte("video"),
			result:     media.Succeeded("id", "hello", time.Second),
			wantStatus: http.StatusOK,
			wantCalled: true,
		},
		{
			name:       "pipeline failure",
			filename:   "silent.mp4",
			data:       []byte("video"),
			result:     media.Failed("id", media.Wrap(media.ErrNoAudioTrack, "extract", "video has no audio track", nil), time.Second),
			wantStatus: http.StatusUnprocessableEntity,
			wantCalled: true,
		},
		{
			name:       "rejected extension",
			filename:   "notes.txt",
			data:       []byte("text"),
			result:     media.Failed("id", media.Wrap(media.ErrInvalidRequest, "validate", "unsupported file type", nil), 0),
			wantStatus: http.StatusBadRequest,
			wantCalled: true,
		},
		{
			name:       "missing file",
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "bad clip",
			filename:   "talk.mp4",
			data:       []byte("video"),
			fields:     map[string]string{"start": "00:01:00", "end": "00:00:10"},
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "too large",
			filename:   "big.mp4",
			data:       bytes.Repeat([]byte("x"), 64),
			maxUpload:  16,
			wantStatus: http.StatusRequestEntityTooLarge,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := &mockPipeline{result: tt.result}
			h := newTestServer(Services{Pipeline: p}, Options{MaxUploadBytes: tt.maxUpload})

			body, contentType := multipartBody(t, tt.filename, tt.data, tt.fields)
			req := httptest.NewRequest(http.MethodPost, "/v1/transcriptions", body)
			req.Header.Set("Content-Type", contentType)
			rec := serve(h, req)

			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d: %s", rec.Code, tt.wantStatus, rec.Body.String())
			}
			if p.called != tt.wantCalled {
				t.Errorf("pipeline called = %v, want %v", p.called, tt.wantCalled)
			}
			if tt.wantCalled {
				var got media.TranscriptionResult
				if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
					t.Fatalf("invalid JSON: %v", err)
				}
				if got.Success != tt.result.Success || got.ErrorKind != tt.result.ErrorKind {
					t.Errorf("body = %+v, want %+v", got, tt.result)
				}
			}
		})
	}
}

func TestTranscriptions_PassesUpload(t *testing.T) {
	p := &mockPipeline{result: media.Succeeded("id", "hi", 0)}
	h := newTestServer(Services{Pipeline: p}, Options{})

	body, contentType := multipartBody(t, "Clip.MOV", []byte("moov"), map[string]string{"start": "00:00:01", "end": "00:00:09"})
	req := httptest.NewRequest(http.MethodPost, "/v1/transcriptions", body)
	req.Header.Set("Content-Type", contentType)
	serve(h, req)

	if string(p.got.Data) != "moov" {
		t.Errorf("Data = %q", p.got.Data)
	}
	if p.got.NormalizedExtension() != "mov" {
		t.Errorf("Extension = %q", p.got.Extension)
	}
	if p.got.Clip == nil || p.got.Clip.Length() != 8*time.Second {
		t.Errorf("Clip = %+v", p.got.Clip)
	}
}

func TestTranslations(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		err        error
		wantStatus int
		wantText   string
	}{
		{"ok", `{"text":"hello","target":"fr"}`, nil, http.StatusOK, "[fr] hello"},
		{"invalid json", `{"text":`, nil, http.StatusBadRequest, ""},
		{"unknown field", `{"text":"hi","lang":"fr"}`, nil, http.StatusBadRequest, ""},
		{"empty text", `{"text":"","target":"fr"}`, language.ErrEmptyText, http.StatusBadRequest, ""},
		{"bad language", `{"text":"hi","target":"zz"}`, language.ErrUnsupportedLanguage, http.StatusBadRequest, ""},
		{"backend", `{"text":"hi","target":"fr"}`, fmt.Errorf("%w: down", language.ErrBackend), http.StatusBadGateway, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newTestServer(Services{Translator: &mockTranslator{err: tt.err}}, Options{})
			rec := serve(h, httptest.NewRequest(http.MethodPost, "/v1/translations", strings.NewReader(tt.body)))

			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d: %s", rec.Code, tt.wantStatus, rec.Body.String())
			}
			if tt.wantText != "" {
				var resp translateResponse
				_ = json.Unmarshal(rec.Body.Bytes(), &resp)
				if resp.Text != tt.wantText {
					t.Errorf("text = %q, want %q", resp.Text, tt.wantText)
				}
			}
		})
	}
}

func TestLanguages(t *testing.T) {
	h := newTestServer(Services{Translator: &mockTranslator{}}, Options{})
	rec := serve(h, httptest.NewRequest(http.MethodGet, "/v1/languages", nil))

	var langs []language.Language
	if err := json.Unmarshal(rec.Body.Bytes(), &langs); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if len(langs) != 1 || langs[0].Name != "French" {
		t.Errorf("languages = %v", langs)
	}
}

func TestSpeech(t *testing.T) {
	h := newTestServer(Services{Speaker: &mockSpeaker{}}, Options{})
	rec := serve(h, httptest.NewRequest(http.MethodPost, "/v1/speech", strings.NewReader(`{"text":"hello","language":"en"}`)))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}
	if ct := rec.Header().Get("Content-Type"); ct != "audio/mpeg" {
		t.Errorf("Content-Type = %q", ct)
	}
	if rec.Body.String() != "ID3hello" {
		t.Errorf("body = %q", rec.Body.String())
	}

	h = newTestServer(Services{Speaker: &mockSpeaker{err: errors.New("quota")}}, Options{})
	rec = serve(h, httptest.NewRequest(http.MethodPost, "/v1/speech", strings.NewReader(`{"text":"hello"}`)))
	if rec.Code != http.StatusBadGateway {
		t.Errorf("backend failure status = %d, want 502", rec.Code)
	}
}

func TestSigns(t *testing.T) {
	h := newTestServer(Services{Speller: mockSpeller{}}, Options{})

	rec := serve(h, httptest.NewRequest(http.MethodGet, "/v1/signs?word=ab", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}
	var resp spellResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if len(resp.Letters) != 2 {
		t.Fatalf("letters = %+v", resp.Letters)
	}
	if !resp.Letters[0].Found || resp.Letters[0].URL != "/v1/signs/A" {
		t.Errorf("letter A = %+v", resp.Letters[0])
	}
	if resp.Letters[1].Found || resp.Letters[1].Error != "no image found for letter: B" {
		t.Errorf("letter B = %+v", resp.Letters[1])
	}

	tests := []struct {
		path       string
		wantStatus int
	}{
		{"/v1/signs?word=", http.StatusBadRequest},
		{"/v1/signs/A", http.StatusOK},
		{"/v1/signs/Q", http.StatusNotFound},
		{"/v1/signs/7", http.StatusBadRequest},
		{"/v1/signs/AB", http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			if rec := serve(h, httptest.NewRequest(http.MethodGet, tt.path, nil)); rec.Code != tt.wantStatus {
				t.Errorf("GET %s = %d, want %d", tt.path, rec.Code, tt.wantStatus)
			}
		})
	}
}

func TestUnconfiguredServices(t *testing.T) {
	h := newTestServer(Services{}, Options{})
	for _, path := range []string{"/v1/languages", "/v1/signs?word=a", "/v1/signs/a"} {
		if rec := serve(h, httptest.NewRequest(http.MethodGet, path, nil)); rec.Code != http.StatusServiceUnavailable {
			t.Errorf("GET %s = %d, want 503", path, rec.Code)
		}
	}
}

func TestRateLimit(t *testing.T) {
	h := newTestServer(Services{Translator: &mockTranslator{}}, Options{RequestsPerMinute: 2})

	var last int
	for i := 0; i < 3; i++ {
		last = serve(h, httptest.NewRequest(http.MethodGet, "/v1/languages", nil)).Code
	}
	if last != http.StatusTooManyRequests {
		t.Errorf("third request status = %d, want 429", last)
	}

	// health checks are not limited
	if rec := serve(h, httptest.NewRequest(http.MethodGet, "/healthz", nil)); rec.Code != http.StatusOK {
		t.Errorf("healthz status = %d", rec.Code)
	}
}

func TestCORS(t *testing.T) {
	h := newTestServer(Services{}, Options{AllowedOrigins: []string{"https://app.example"}})

	req := httptest.NewRequest(http.MethodOptions, "/v1/translations", nil)
	req.Header.Set("Origin", "https://app.example")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec := serve(h, req)

	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "https://app.example" {
		t.Errorf("Access-Control-Allow-Origin = %q", got)
	}
}
