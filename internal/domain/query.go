package domain

import (
	"encoding/json"
	"fmt"
)

// ResponseType tags the QueryResponse union
type ResponseType string

const (
	ResponseText  ResponseType = "text"
	ResponseImage ResponseType = "image"
	ResponseList  ResponseType = "list"
	ResponseTable ResponseType = "table"
	ResponseError ResponseType = "error"
)

// ListPayload is a titled collection of items
type ListPayload struct {
	Title string   `json:"title"`
	Items []string `json:"items"`
}

// TablePayload is tabular data with a header row
type TablePayload struct {
	Headers []string   `json:"headers"`
	Rows    [][]string `json:"rows"`
}

// ErrorPayload carries a user-facing failure
type ErrorPayload struct {
	Message string    `json:"message"`
	Code    ErrorCode `json:"code,omitempty"`
}

// QueryResponse is the tagged union result of a dispatched query.
// Exactly one payload field matching Type is populated; consumers must
// switch over Type.
type QueryResponse struct {
	Type ResponseType

	Text     string
	ImageURL string
	List     *ListPayload
	Table    *TablePayload
	Err      *ErrorPayload
}

// TextResponse builds a plain text response
func TextResponse(text string) QueryResponse {
	return QueryResponse{Type: ResponseText, Text: text}
}

// ImageResponse builds an image URL response
func ImageResponse(url string) QueryResponse {
	return QueryResponse{Type: ResponseImage, ImageURL: url}
}

// ListResponse builds a titled list response
func ListResponse(title string, items []string) QueryResponse {
	return QueryResponse{Type: ResponseList, List: &ListPayload{Title: title, Items: items}}
}

// TableResponse builds a tabular response
func TableResponse(headers []string, rows [][]string) QueryResponse {
	return QueryResponse{Type: ResponseTable, Table: &TablePayload{Headers: headers, Rows: rows}}
}

// ErrorResponse builds an error response from a code and message
func ErrorResponse(code ErrorCode, message string) QueryResponse {
	return QueryResponse{Type: ResponseError, Err: &ErrorPayload{Code: code, Message: message}}
}

// ErrorResponseFrom converts any error into an error-tagged response
func ErrorResponseFrom(err error) QueryResponse {
	return ErrorResponse(CodeOf(err), MessageOf(err))
}

// wireResponse is the {type, payload} JSON envelope used by the gateway
type wireResponse struct {
	Type    ResponseType    `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// MarshalJSON encodes the populated variant as {type, payload}
func (r QueryResponse) MarshalJSON() ([]byte, error) {
	var payload any
	switch r.Type {
	case ResponseText:
		payload = r.Text
	case ResponseImage:
		payload = r.ImageURL
	case ResponseList:
		payload = r.List
	case ResponseTable:
		payload = r.Table
	case ResponseError:
		payload = r.Err
	default:
		return nil, fmt.Errorf("unknown response type %q", r.Type)
	}

	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return json.Marshal(wireResponse{Type: r.Type, Payload: raw})
}

// UnmarshalJSON decodes the {type, payload} envelope into the matching
// variant. Unknown types are kept as a PROCESSING_ERROR so a newer
// gateway never crashes an older client.
func (r *QueryResponse) UnmarshalJSON(data []byte) error {
	var wire wireResponse
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}

	*r = QueryResponse{Type: wire.Type}
	switch wire.Type {
	case ResponseText:
		return json.Unmarshal(wire.Payload, &r.Text)
	case ResponseImage:
		return json.Unmarshal(wire.Payload, &r.ImageURL)
	case ResponseList:
		r.List = &ListPayload{}
		return json.Unmarshal(wire.Payload, r.List)
	case ResponseTable:
		r.Table = &TablePayload{}
		return json.Unmarshal(wire.Payload, r.Table)
	case ResponseError:
		r.Err = &ErrorPayload{}
		return json.Unmarshal(wire.Payload, r.Err)
	default:
		r.Type = ResponseError
		r.Err = &ErrorPayload{
			Code:    CodeProcessingError,
			Message: fmt.Sprintf("unsupported response type %q", wire.Type),
		}
		return nil
	}
}
