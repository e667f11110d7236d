package report

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"example.com/tokencrc/internal/checksum"
)

// Check is one row of a validation report.
type Check struct {
	Type     int    `json:"type"`
	Area     int    `json:"area"`
	Offset   string `json:"offset"`
	Stored   string `json:"stored"`
	Computed string `json:"computed"`
	Match    bool   `json:"match"`
	Written  bool   `json:"written,omitempty"`
}

// Report summarizes a checksum sweep over one token image.
type Report struct {
	File      string    `json:"file"`
	Sha256    string    `json:"sha256"`
	Size      int64     `json:"size"`
	Type4Mode string    `json:"type4Mode"`
	CreatedAt time.Time `json:"createdAt"`
	Overwrite bool      `json:"overwrite"`
	Pass      bool      `json:"pass"`
	Checks    []Check   `json:"checks"`
	Error     string    `json:"error,omitempty"`
}

// Mismatches counts the checks that failed.
func (r Report) Mismatches() int {
	n := 0
	for _, c := range r.Checks {
		if !c.Match {
			n++
		}
	}
	return n
}

// FromSweep converts a checksum sweep into a Report.
func FromSweep(file, sha string, size int64, mode checksum.Type4Mode, rep checksum.Report) Report {
	out := Report{
		File:      file,
		Sha256:    sha,
		Size:      size,
		Type4Mode: string(mode),
		CreatedAt: time.Now().UTC(),
		Overwrite: rep.Overwrite,
		Pass:      rep.Pass,
	}
	for _, res := range rep.Results {
		out.Checks = append(out.Checks, Check{
			Type:     int(res.Type),
			Area:     res.Area,
			Offset:   fmt.Sprintf("0x%04X", res.Offset),
			Stored:   fmt.Sprintf("%04X", res.Stored),
			Computed: fmt.Sprintf("%04X", res.Computed),
			Match:    res.Match,
			Written:  res.Written,
		})
	}
	return out
}

func SaveJSON(rep Report, out string) error {
	b, err := json.MarshalIndent(rep, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(out, b, 0644)
}

func LoadJSON(path string) (Report, error) {
	var rep Report
	b, err := os.ReadFile(path)
	if err != nil {
		return rep, err
	}
	err = json.Unmarshal(b, &rep)
	return rep, err
}
