package bracket

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// SetList stores a best-of game sequence as a JSON text column.
type SetList []Set

func (l SetList) Value() (driver.Value, error) {
	if len(l) == 0 {
		return "[]", nil
	}
	b, err := json.Marshal(l)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func (l *SetList) Scan(src interface{}) error {
	switch v := src.(type) {
	case nil:
		*l = nil
		return nil
	case string:
		return json.Unmarshal([]byte(v), l)
	case []byte:
		return json.Unmarshal(v, l)
	default:
		return fmt.Errorf("cannot scan %T into SetList", src)
	}
}
