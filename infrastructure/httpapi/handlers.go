package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"media-assist/domain/language"
	"media-assist/domain/media"
	"media-assist/domain/sign"

	"github.com/dustin/go-humanize"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// multipartOverhead is allowed on top of the upload limit for form fields
// and part headers
const multipartOverhead = 1 << 20

type errorResponse struct {
	Error string `json:"error"`
}

type translateRequest struct {
	Text   string `json:"text"`
	Target string `json:"target"`
}

type translateResponse struct {
	Text   string `json:"text"`
	Target string `json:"target"`
}

type speechRequest struct {
	Text     string `json:"text"`
	Language string `json:"language"`
}

type letterResponse struct {
	Letter string `json:"letter"`
	Found  bool   `json:"found"`
	URL    string `json:"url,omitempty"`
	Error  string `json:"error,omitempty"`
}

type spellResponse struct {
	Word    string           `json:"word"`
	Letters []letterResponse `json:"letters"`
}

func (s *Server) handleTranscribe(w http.ResponseWriter, r *http.Request) {
	if s.services.Pipeline == nil {
		writeError(w, http.StatusServiceUnavailable, "transcription is not configured")
		return
	}

	limit := s.opts.MaxUploadBytes
	r.Body = http.MaxBytesReader(w, r.Body, limit+multipartOverhead)
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "upload exceeds "+humanize.IBytes(uint64(limit)))
			return
		}
		writeError(w, http.StatusBadRequest, "invalid multipart form: "+err.Error())
		return
	}
	defer func() { _ = r.MultipartForm.RemoveAll() }()

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "missing file field")
		return
	}
	defer file.Close()

	if header.Size > limit {
		writeError(w, http.StatusRequestEntityTooLarge, "upload exceeds "+humanize.IBytes(uint64(limit)))
		return
	}
	data, err := io.ReadAll(io.LimitReader(file, limit+1))
	if err != nil {
		writeError(w, http.StatusBadRequest, "cannot read upload: "+err.Error())
		return
	}

	req := media.PipelineRequest{
		Data:      data,
		Extension: filepath.Ext(header.Filename),
	}
	start, end := r.FormValue("start"), r.FormValue("end")
	if start != "" || end != "" {
		clip, err := media.ParseClip(start, end)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		req.Clip = &clip
	}

	result := s.services.Pipeline.Run(r.Context(), req)
	status := http.StatusOK
	switch {
	case result.Success:
	case result.ErrorKind == "InvalidRequestError":
		status = http.StatusBadRequest
	default:
		status = http.StatusUnprocessableEntity
	}
	writeJSON(w, status, result)
}

func (s *Server) handleTranslate(w http.ResponseWriter, r *http.Request) {
	if s.services.Translator == nil {
		writeError(w, http.StatusServiceUnavailable, "translation is not configured")
		return
	}

	var req translateRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	text, err := s.services.Translator.Translate(r.Context(), req.Text, req.Target)
	if err != nil {
		s.writeLanguageError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, translateResponse{Text: text, Target: req.Target})
}

func (s *Server) handleLanguages(w http.ResponseWriter, r *http.Request) {
	if s.services.Translator == nil {
		writeError(w, http.StatusServiceUnavailable, "translation is not configured")
		return
	}

	langs, err := s.services.Translator.Languages(r.Context())
	if err != nil {
		s.writeLanguageError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, langs)
}

func (s *Server) handleSpeak(w http.ResponseWriter, r *http.Request) {
	if s.services.Speaker == nil {
		writeError(w, http.StatusServiceUnavailable, "text-to-speech is not configured")
		return
	}

	var req speechRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	audio, err := s.services.Speaker.Speak(r.Context(), req.Text, req.Language)
	if err != nil {
		s.writeLanguageError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "audio/mpeg")
	w.Header().Set("Content-Disposition", `inline; filename="speech.mp3"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(audio)
}

func (s *Server) handleSpell(w http.ResponseWriter, r *http.Request) {
	if s.services.Speller == nil {
		writeError(w, http.StatusServiceUnavailable, "sign images are not configured")
		return
	}

	word := r.URL.Query().Get("word")
	results, err := s.services.Speller.Spell(word)
	switch {
	case errors.Is(err, sign.ErrEmptyWord), errors.Is(err, sign.ErrNotALetter):
		writeError(w, http.StatusBadRequest, err.Error())
		return
	case err != nil:
		s.logger.Error("sign lookup failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "sign lookup failed")
		return
	}

	resp := spellResponse{Word: word, Letters: make([]letterResponse, 0, len(results))}
	for _, res := range results {
		lr := letterResponse{Letter: string(res.Letter), Found: res.Found()}
		if res.Found() {
			lr.URL = "/v1/signs/" + string(res.Letter)
		} else {
			lr.Error = res.Err.Error()
		}
		resp.Letters = append(resp.Letters, lr)
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleLetter(w http.ResponseWriter, r *http.Request) {
	if s.services.Speller == nil {
		writeError(w, http.StatusServiceUnavailable, "sign images are not configured")
		return
	}

	param := chi.URLParam(r, "letter")
	letter, size := utf8.DecodeRuneInString(param)
	if size == 0 || size != len(param) {
		writeError(w, http.StatusBadRequest, "expected a single letter")
		return
	}

	img, err := s.services.Speller.Letter(letter)
	switch {
	case errors.Is(err, sign.ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error())
		return
	case errors.Is(err, sign.ErrNotALetter):
		writeError(w, http.StatusBadRequest, err.Error())
		return
	case err != nil:
		s.logger.Error("sign lookup failed", zap.String("letter", param), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "sign lookup failed")
		return
	}

	w.Header().Set("Content-Type", img.ContentType)
	w.Header().Set("Cache-Control", "public, max-age=3600")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(img.Data)
}

func (s *Server) writeLanguageError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, language.ErrEmptyText), errors.Is(err, language.ErrUnsupportedLanguage):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		s.logger.Error("language backend failed", zap.String("path", r.URL.Path), zap.Error(err))
		writeError(w, http.StatusBadGateway, "language backend failed")
	}
}

func decodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, 1<<20))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("invalid json: %w", err)
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: strings.TrimSpace(msg)})
}
