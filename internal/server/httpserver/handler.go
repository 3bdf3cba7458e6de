package httpserver

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/dmitrijs2005/glueauth/internal/common"
	"github.com/dmitrijs2005/glueauth/internal/server/services"
	"github.com/dmitrijs2005/glueauth/internal/zkp"
)

type keyExchangeRequest struct {
	ClientPublicKey string `json:"clientPublicKey"`
}

type keyExchangeResponse struct {
	ServerPublicKey string `json:"serverPublicKey"`
	SessionID       string `json:"sessionID"`
	BaseKey         string `json:"baseKey"`
}

type registerRequest struct {
	Commitment string `json:"commitment"`
	SessionID  string `json:"sessionID"`
	NonceHex   string `json:"nonceHex"`
}

type proofRequest struct {
	ZKP       *zkp.Proof `json:"zkp"`
	SessionID string     `json:"sessionID"`
}

type messageResponse struct {
	Message string `json:"message"`
}

type membersResponse struct {
	Response []string `json:"response"`
}

type rootResponse struct {
	Root string `json:"root"`
	Size int    `json:"size"`
}

func (s *HTTPServer) handleKeyExchange(w http.ResponseWriter, r *http.Request) {
	var req keyExchangeRequest
	if !s.decode(w, r, &req) {
		return
	}

	res, err := s.kx.Exchange(r.Context(), req.ClientPublicKey)
	if err != nil {
		if errors.Is(err, common.ErrValidation) {
			writeError(w, http.StatusBadRequest, "Invalid client public key")
			return
		}
		s.logger.Error(r.Context(), "key exchange failed", "error", err)
		writeError(w, http.StatusInternalServerError, msgInternal)
		return
	}

	writeJSON(w, http.StatusOK, keyExchangeResponse{
		ServerPublicKey: res.ServerPublicKey,
		SessionID:       res.SessionID,
		BaseKey:         res.BaseKey,
	})
}

func (s *HTTPServer) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if !s.decode(w, r, &req) {
		return
	}

	s.logger.Info(r.Context(), "Registration request")

	_, err := s.auth.Register(r.Context(), &services.RegisterRequest{
		Commitment: req.Commitment,
		SessionID:  req.SessionID,
		NonceHex:   req.NonceHex,
	})
	s.countRegistration(err)

	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, messageResponse{Message: "Commitment registered successfully"})
	case errors.Is(err, common.ErrValidation):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, common.ErrAlreadyExists):
		writeError(w, http.StatusConflict, "Commitment already exists")
	default:
		writeError(w, http.StatusInternalServerError, msgInternal)
	}
}

func (s *HTTPServer) handleProof(w http.ResponseWriter, r *http.Request) {
	_, size, err := s.members.Root(r.Context())
	if err != nil {
		s.logger.Error(r.Context(), "root read failed", "error", err)
		writeError(w, http.StatusInternalServerError, msgInternal)
		return
	}

	var req proofRequest
	if !s.decodeLimited(w, r, &req, s.proofBodyLimit(size)) {
		return
	}

	token, err := s.auth.Login(r.Context(), req.ZKP, req.SessionID)
	s.countLogin(err)

	switch {
	case err == nil:
	case errors.Is(err, common.ErrValidation):
		writeError(w, http.StatusBadRequest, err.Error())
		return
	case errors.Is(err, common.ErrorUnauthorized):
		writeError(w, http.StatusUnauthorized, "Invalid proof")
		return
	default:
		writeError(w, http.StatusInternalServerError, msgInternal)
		return
	}

	validity := s.auth.TokenValidity()
	http.SetCookie(w, &http.Cookie{
		Name:     common.TokenCookieName,
		Value:    token,
		Path:     s.config.CookiePath,
		MaxAge:   int(validity / time.Second),
		Expires:  s.now().Add(validity),
		HttpOnly: true,
		Secure:   s.config.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	})

	writeJSON(w, http.StatusOK, messageResponse{Message: "Authenticated successfully"})
}

func (s *HTTPServer) handleSession(w http.ResponseWriter, r *http.Request) {
	subject, _ := r.Context().Value(subjectKey).(string)
	s.logger.Debug(r.Context(), "session check", "subject", subject)
	writeJSON(w, http.StatusOK, messageResponse{Message: "Ok"})
}

func (s *HTTPServer) handleMembers(w http.ResponseWriter, r *http.Request) {
	members, err := s.members.AllCommitments(r.Context())
	if err != nil {
		s.logger.Error(r.Context(), "members read failed", "error", err)
		writeError(w, http.StatusInternalServerError, msgInternal)
		return
	}
	if members == nil {
		members = []string{}
	}
	writeJSON(w, http.StatusOK, membersResponse{Response: members})
}

func (s *HTTPServer) handleRoot(w http.ResponseWriter, r *http.Request) {
	root, size, err := s.members.Root(r.Context())
	if err != nil {
		s.logger.Error(r.Context(), "root read failed", "error", err)
		writeError(w, http.StatusInternalServerError, msgInternal)
		return
	}
	writeJSON(w, http.StatusOK, rootResponse{Root: root, Size: size})
}

func (s *HTTPServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// proofBodyLimit sizes the login body limit to a group of size members,
// capped by MaxProofBodyBytes when it is set.
func (s *HTTPServer) proofBodyLimit(size int) int64 {
	limit := int64(maxBodyBytes) + int64(size+proofSlackMembers)*proofBytesPerMember
	if ceiling := s.config.MaxProofBodyBytes; ceiling > 0 && limit > ceiling {
		limit = max(ceiling, maxBodyBytes)
	}
	return limit
}

// decode reads a JSON body into v and answers 400 itself on failure.
func (s *HTTPServer) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	return s.decodeLimited(w, r, v, maxBodyBytes)
}

func (s *HTTPServer) decodeLimited(w http.ResponseWriter, r *http.Request, v any, limit int64) bool {
	r.Body = http.MaxBytesReader(w, r.Body, limit)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "Malformed request body")
		return false
	}
	return true
}

func (s *HTTPServer) countRegistration(err error) {
	if s.metrics == nil {
		return
	}
	s.metrics.Registrations.WithLabelValues(resultLabel(err)).Inc()
}

func (s *HTTPServer) countLogin(err error) {
	if s.metrics == nil {
		return
	}
	s.metrics.Logins.WithLabelValues(resultLabel(err)).Inc()
}

func resultLabel(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, common.ErrValidation):
		return "invalid"
	case errors.Is(err, common.ErrAlreadyExists):
		return "conflict"
	case errors.Is(err, common.ErrorUnauthorized):
		return "rejected"
	default:
		return "error"
	}
}
