package web

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"strings"
)

const (
	flashCookieName = "bakery_flash"
	flashSuccess    = "success"
)

// flashMessage - одноразовое уведомление, переживающее редирект.
type flashMessage struct {
	Category string `json:"c"`
	Message  string `json:"m"`
}

// flashStore хранит уведомление в cookie, подписанной HMAC-SHA256.
type flashStore struct {
	key    []byte
	secure bool
}

func newFlashStore(key []byte, secure bool) *flashStore {
	return &flashStore{key: key, secure: secure}
}

func (s *flashStore) set(w http.ResponseWriter, category, message string) {
	payload, err := json.Marshal(flashMessage{Category: category, Message: message})
	if err != nil {
		return
	}

	encoded := base64.RawURLEncoding.EncodeToString(payload)
	http.SetCookie(w, &http.Cookie{
		Name:     flashCookieName,
		Value:    encoded + "." + s.sign(encoded),
		Path:     "/",
		HttpOnly: true,
		Secure:   s.secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// pop читает и сразу удаляет уведомление. Подделанная cookie игнорируется.
func (s *flashStore) pop(w http.ResponseWriter, r *http.Request) *flashMessage {
	cookie, err := r.Cookie(flashCookieName)
	if err != nil {
		return nil
	}

	http.SetCookie(w, &http.Cookie{
		Name:     flashCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   s.secure,
		SameSite: http.SameSiteLaxMode,
	})

	return s.decode(cookie.Value)
}

func (s *flashStore) decode(value string) *flashMessage {
	encoded, signature, ok := strings.Cut(value, ".")
	if !ok || !hmac.Equal([]byte(signature), []byte(s.sign(encoded))) {
		return nil
	}

	payload, err := base64.RawURLEncoding.DecodeString(encoded)
	if err != nil {
		return nil
	}

	var msg flashMessage
	if err := json.Unmarshal(payload, &msg); err != nil || msg.Message == "" {
		return nil
	}
	return &msg
}

func (s *flashStore) sign(encoded string) string {
	mac := hmac.New(sha256.New, s.key)
	mac.Write([]byte(encoded))
	return base64.RawURLEncoding.EncodeToString(mac.Sum(nil))
}
