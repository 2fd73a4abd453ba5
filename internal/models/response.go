package models

import (
	"net/http"
	"time"
)

// ResponseModel Base response structure that can be reused
type ResponseModel struct {
	Code        int         `json:"code"`
	CurrentTime int64       `json:"currentTime"`
	Data        interface{} `json:"data"`
	Text        string      `json:"text"`
	Version     int         `json:"version"`
}

// ResponseCurrentTime is the envelope timestamp in epoch milliseconds.
func ResponseCurrentTime() int64 {
	return time.Now().UnixMilli()
}

func NewResponse(code int, data interface{}, text string) ResponseModel {
	return ResponseModel{
		Code:        code,
		CurrentTime: ResponseCurrentTime(),
		Data:        data,
		Text:        text,
		Version:     2,
	}
}

func NewOKResponse(data interface{}) ResponseModel {
	return NewResponse(http.StatusOK, data, "OK")
}

func NewEntryResponse(entry interface{}, references ReferencesModel) ResponseModel {
	return NewOKResponse(map[string]interface{}{
		"entry":      entry,
		"references": references,
	})
}

func NewListResponse(list interface{}, references ReferencesModel) ResponseModel {
	return NewListResponseWithRange(list, references, false)
}

func NewListResponseWithRange(list interface{}, references ReferencesModel, limitExceeded bool) ResponseModel {
	return NewOKResponse(map[string]interface{}{
		"limitExceeded": limitExceeded,
		"list":          list,
		"references":    references,
	})
}
