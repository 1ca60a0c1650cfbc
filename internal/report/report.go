package report

import (
	"encoding/json"
	"os"

	"example.com/fhgen/internal/validate"
)

// SaveAcceptanceJSON writes rep as indented JSON to out.
func SaveAcceptanceJSON(rep validate.Report, out string) error {
	b, err := json.MarshalIndent(rep, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(out, b, 0644)
}

// LoadAcceptanceJSON reads back a report previously written by
// SaveAcceptanceJSON.
func LoadAcceptanceJSON(path string) (validate.Report, error) {
	var rep validate.Report
	b, err := os.ReadFile(path)
	if err != nil {
		return rep, err
	}
	err = json.Unmarshal(b, &rep)
	return rep, err
}
