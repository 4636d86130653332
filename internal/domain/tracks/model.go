package tracks

import (
	"github.com/vitallab/vitallab/internal/normalize"
	"github.com/vitallab/vitallab/internal/series"
)

// Track is the metadata of one recorded signal channel.
type Track struct {
	CaseID int64  `json:"caseid"`
	TName  string `json:"tname"`
	TID    string `json:"tid"`
}

// Series is the response body of a track data read.
type Series struct {
	TID  string         `json:"tid"`
	Data []series.Point `json:"data"`
}

var trackSchema = normalize.NewSchema("tracks", []string{"caseid", "tname", "tid"},
	normalize.Integer("caseid"),
	normalize.Varchar("tname", 100),
	normalize.Varchar("tid", 100),
)

func fromRecord(rec normalize.Record) *Track {
	return &Track{
		CaseID: rec.Int("caseid"),
		TName:  rec.Str("tname"),
		TID:    rec.Str("tid"),
	}
}
