package calendar

import (
	"bytes"
	"os"

	"gopkg.in/yaml.v3"
)

// HolidayFile 추가 휴장일 YAML
//
//	holidays:
//	  - "2027-01-01"
type HolidayFile struct {
	Holidays []string `yaml:"holidays"`
}

// LoadHolidayFile reads extra holidays from YAML
// KnownFields(true)로 오타 필드 즉시 실패
func LoadHolidayFile(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var f HolidayFile
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil {
		return nil, err
	}

	return f.Holidays, nil
}
