package excel

// ExcelConfig holds configuration for spreadsheet inputs
type ExcelConfig struct {
	// Sheet to read from .xlsx files; the first sheet is used when absent
	Sheet string `json:"sheet" toml:"sheet"`
	// MissingMarkers are cell values treated as missing, e.g. R's "NA"
	MissingMarkers []string `json:"missing_markers" toml:"missing_markers"`
}

// DefaultExcelConfig returns sensible defaults for spreadsheet processing
func DefaultExcelConfig() ExcelConfig {
	return ExcelConfig{
		Sheet:          "Sheet1",
		MissingMarkers: []string{"", "NA", "NaN", "NULL"},
	}
}

func (c ExcelConfig) isMissing(value string) bool {
	for _, m := range c.MissingMarkers {
		if value == m {
			return true
		}
	}
	return false
}
