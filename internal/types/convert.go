package types

import "time"

// NormalizeValue converts a scanned SQL value into a spreadsheet-friendly scalar.
// Drivers return []byte for CHAR/VARCHAR/BLOB text columns; those become strings.
// Sized integers are widened to int64 and float32 to float64. nil stays nil
// and is written as an empty cell.
func NormalizeValue(v interface{}) interface{} {
	switch i := v.(type) {
	case nil:
		return nil
	case []byte:
		return string(i)
	case int:
		return int64(i)
	case int32:
		return int64(i)
	case int16:
		return int64(i)
	case int8:
		return int64(i)
	case uint:
		return int64(i)
	case uint64:
		return int64(i)
	case uint32:
		return int64(i)
	case uint16:
		return int64(i)
	case uint8:
		return int64(i)
	case float32:
		return float64(i)
	case time.Time:
		return i
	default:
		return v
	}
}

// NormalizeRow applies NormalizeValue to every column of a row in place.
func NormalizeRow(row []interface{}) []interface{} {
	for i, v := range row {
		row[i] = NormalizeValue(v)
	}
	return row
}
