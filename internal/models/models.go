package models

import (
	"github.com/arx-deidentifier/arx-sub007/internal/history"
	"github.com/arx-deidentifier/arx-sub007/internal/lattice"
)

type CheckRequest struct {
	Levels               []int `json:"levels" validate:"required,min=1,dive,gte=0"`
	ForceInformationLoss bool  `json:"force_information_loss"`
}

type CheckResponse struct {
	Transformation string          `json:"transformation"`
	Levels         []int           `json:"levels"`
	Cached         bool            `json:"cached"`
	Result         *lattice.Result `json:"result"`
	RunID          string          `json:"run_id"`
}

type TransformRequest struct {
	Levels []int `json:"levels" validate:"required,min=1,dive,gte=0"`
}

type TransformResponse struct {
	Transformation string          `json:"transformation"`
	Result         *lattice.Result `json:"result"`
	Header         []string        `json:"header"`
	Rows           [][]string      `json:"rows"`
	Total          int             `json:"total"`
	Limit          int             `json:"limit"`
	Offset         int             `json:"offset"`
}

type HistoryResponse struct {
	Stats           history.Stats `json:"stats"`
	Transformations []string      `json:"transformations"`
}

type ResetResponse struct {
	RunID string `json:"run_id"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}
