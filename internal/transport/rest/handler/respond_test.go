package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"quizroom/internal/service"
)

func TestWriteServiceError(t *testing.T) {
	cases := []struct {
		err    error
		status int
		msg    string
	}{
		{service.ErrRoomNotFound, http.StatusNotFound, "room not found"},
		{service.ErrRoomFull, http.StatusConflict, "room is full"},
		{fmt.Errorf("join: %w", service.ErrAlreadyJoined), http.StatusConflict, "already joined this room"},
		{service.ErrExportUnavailable, http.StatusNotImplemented, "export is not yet available"},
		{service.ErrEmailNotVerified, http.StatusForbidden, "email not verified"},
		{service.Validation("bad input"), http.StatusBadRequest, "bad input"},
		{errors.New("mongo: connection reset"), http.StatusInternalServerError, "internal server error"},
	}
	for _, tc := range cases {
		rec := httptest.NewRecorder()
		writeServiceError(rec, httptest.NewRequest("GET", "/api/rooms/x", nil), tc.err)
		if rec.Code != tc.status {
			t.Errorf("%v: expected %d, got %d", tc.err, tc.status, rec.Code)
		}
		var body map[string]interface{}
		if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if body["success"] != false || body["error"] != tc.msg {
			t.Errorf("%v: unexpected body %v", tc.err, body)
		}
	}
}

func TestDecodeValidates(t *testing.T) {
	cases := []struct {
		body string
		ok   bool
		msg  string
	}{
		{`{"email":"a@b.co","password":"x"}`, true, ""},
		{`{"email":"nope","password":"x"}`, false, "email must be a valid email"},
		{`{"email":"a@b.co"}`, false, "password is required"},
		{`{not json`, false, "invalid request body"},
	}
	for _, tc := range cases {
		rec := httptest.NewRecorder()
		var req loginRequest
		ok := decode(rec, httptest.NewRequest("POST", "/api/login", strings.NewReader(tc.body)), &req)
		if ok != tc.ok {
			t.Fatalf("%s: expected ok=%v", tc.body, tc.ok)
		}
		if ok {
			continue
		}
		var body map[string]interface{}
		json.Unmarshal(rec.Body.Bytes(), &body)
		if rec.Code != http.StatusBadRequest || body["error"] != tc.msg {
			t.Errorf("%s: got %d %v", tc.body, rec.Code, body)
		}
	}
}
