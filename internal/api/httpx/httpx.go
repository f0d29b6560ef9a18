// Package httpx writes the JSON envelopes every endpoint shares:
//
//	{"status":"success","data":...}
//	{"status":"success","count":n,"data":[...]}
//	{"status":"error","error":"..."}
//	{"error":{"code":"...","message":"..."}}
package httpx

import (
	"encoding/json"
	"net/http"
)

const (
	statusSuccess = "success"
	statusError   = "error"
)

type envelope struct {
	Status string `json:"status"`
	Data   any    `json:"data,omitempty"`
}

type listEnvelope struct {
	Status string `json:"status"`
	Count  int    `json:"count"`
	Data   any    `json:"data"`
}

type errorEnvelope struct {
	Status string `json:"status"`
	Error  string `json:"error"`
}

type CodedError struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func OK(w http.ResponseWriter, data any) {
	WriteJSON(w, http.StatusOK, envelope{Status: statusSuccess, Data: data})
}

func OKNoData(w http.ResponseWriter) {
	WriteJSON(w, http.StatusOK, envelope{Status: statusSuccess})
}

// Created answers 201 with a Location header pointing at the new resource.
func Created(w http.ResponseWriter, location string, data any) {
	w.Header().Set("Location", location)
	WriteJSON(w, http.StatusCreated, envelope{Status: statusSuccess, Data: data})
}

// List writes a collection with its length. items must be a non-nil slice so
// an empty result encodes as [].
func List[T any](w http.ResponseWriter, items []T) {
	if items == nil {
		items = []T{}
	}
	WriteJSON(w, http.StatusOK, listEnvelope{Status: statusSuccess, Count: len(items), Data: items})
}

func ErrorJSON(w http.ResponseWriter, status int, message string) {
	WriteJSON(w, status, errorEnvelope{Status: statusError, Error: message})
}

func ErrorCode(w http.ResponseWriter, status int, code, msg string) {
	var e CodedError
	e.Error.Code = code
	e.Error.Message = msg
	WriteJSON(w, status, e)
}
