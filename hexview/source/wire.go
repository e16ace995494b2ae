package source

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strconv"
)

// RangePath is the route of the JSON range endpoint.
const RangePath = "/api/forensic/hex"

// WireRequest is the JSON body of a range request.
type WireRequest struct {
	ImagePath string `json:"image_path"`
	Offset    int64  `json:"offset"`
	Length    int64  `json:"length"`
}

// WireResponse is the JSON reply. Error is set instead of the other fields
// when the range could not be served.
type WireResponse struct {
	Offset    int64    `json:"offset"`
	Data      ByteList `json:"data"`
	TotalSize int64    `json:"total_size"`
	Error     string   `json:"error,omitempty"`
}

// ByteList encodes bytes as a JSON array of numbers, the shape browser
// clients index directly. Decoding also accepts a base64 string.
type ByteList []byte

// MarshalJSON implements json.Marshaler.
func (b ByteList) MarshalJSON() ([]byte, error) {
	out := make([]byte, 0, 2+len(b)*4)
	out = append(out, '[')
	for i, v := range b {
		if i > 0 {
			out = append(out, ',')
		}
		out = strconv.AppendUint(out, uint64(v), 10)
	}
	return append(out, ']'), nil
}

// UnmarshalJSON implements json.Unmarshaler.
func (b *ByteList) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*b = nil
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		decoded, err := base64.StdEncoding.DecodeString(s)
		if err != nil {
			return fmt.Errorf("%w: data: %v", ErrBadResponse, err)
		}
		*b = decoded
		return nil
	}

	var nums []int
	if err := json.Unmarshal(data, &nums); err != nil {
		return fmt.Errorf("%w: data: %v", ErrBadResponse, err)
	}
	out := make([]byte, len(nums))
	for i, n := range nums {
		if n < 0 || n > 0xFF {
			return fmt.Errorf("%w: data[%d]=%d not a byte", ErrBadResponse, i, n)
		}
		out[i] = byte(n)
	}
	*b = out
	return nil
}
