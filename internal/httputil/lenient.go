package httputil

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// LenientInt accepts JSON numbers and numeric strings. Round and match
// numbers arrive in both shapes from older clients.
type LenientInt int

func (n *LenientInt) UnmarshalJSON(data []byte) error {
	s := strings.TrimSpace(string(data))
	if s == "null" {
		return nil
	}
	if strings.HasPrefix(s, `"`) {
		var str string
		if err := json.Unmarshal(data, &str); err != nil {
			return err
		}
		s = strings.TrimSpace(str)
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return fmt.Errorf("not an integer: %q", s)
	}
	*n = LenientInt(v)
	return nil
}

func (n LenientInt) Int() int {
	return int(n)
}
