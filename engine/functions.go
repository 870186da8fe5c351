package engine

import (
	"database/sql/driver"
	"fmt"
	"sync"

	sqlite "modernc.org/sqlite"

	"github.com/danbne/velaxios-sub000/row"
)

var registerOnce sync.Once

// RegisterFunctions registers is_temp_id with the driver so it is available
// on connections opened after this call. Existing open connections will not
// see it.
func RegisterFunctions() error {
	var err error
	registerOnce.Do(func() {
		err = sqlite.RegisterDeterministicScalarFunction("is_temp_id", 1, isTempIDImpl)
	})
	return err
}

// isTempIDImpl mirrors row.IsTempID. NULL yields NULL.
func isTempIDImpl(_ *sqlite.FunctionContext, args []driver.Value) (driver.Value, error) {
	if len(args) != 1 {
		return nil, fmt.Errorf("is_temp_id: expected 1 argument, got %d", len(args))
	}
	switch v := args[0].(type) {
	case nil:
		return nil, nil
	case string:
		return boolValue(row.IsTempID(v)), nil
	case []byte:
		return boolValue(row.IsTempID(string(v))), nil
	default:
		return int64(0), nil
	}
}

func boolValue(b bool) int64 {
	if b {
		return 1
	}
	return 0
}
