package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/golang/glog"
	"github.com/livepeer/trip-analyzer/loader"
	"github.com/livepeer/trip-analyzer/source"
	"github.com/livepeer/trip-analyzer/trips"
)

type errorResponse struct {
	Errors []string `json:"errors"`
}

func respondError(rw http.ResponseWriter, defaultStatus int, errs ...error) {
	status := defaultStatus
	response := errorResponse{}
	for _, err := range errs {
		response.Errors = append(response.Errors, err.Error())
		switch {
		case errors.Is(err, trips.ErrInvalidInterval):
			status = http.StatusBadRequest
		case errors.Is(err, source.ErrSourceUnavailable):
			status = http.StatusBadGateway
		case errors.Is(err, loader.ErrMalformedSource):
			status = http.StatusUnprocessableEntity
		}
	}
	respondJson(rw, status, response)
}

func respondJson(rw http.ResponseWriter, status int, response interface{}) {
	rw.Header().Set("Content-Type", "application/json; charset=utf-8")
	rw.WriteHeader(status)
	if err := json.NewEncoder(rw).Encode(response); err != nil {
		glog.Errorf("Error writing response. err=%q, response=%+v", err, response)
	}
}
