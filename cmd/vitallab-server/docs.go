package main

import (
	"github.com/vitallab/vitallab/internal/platform/openapi"
)

const apiPrefix = "/api/v1"

func bound(v float64) *float64 { return &v }

var (
	pageParams = []openapi.Param{
		{Name: "skip", Type: "integer", Minimum: bound(0), Description: "Rows to skip"},
		{Name: "limit", Type: "integer", Minimum: bound(1), Maximum: bound(1000), Description: "Maximum rows returned (default 100)"},
	}
	windowParams = []openapi.Param{
		{Name: "signals", Type: "string", Repeated: true, Description: "Signal names, repeated or comma separated"},
		{Name: "start_time", Type: "number", Description: "Inclusive lower time bound"},
		{Name: "end_time", Type: "number", Description: "Inclusive upper time bound"},
	}
	caseIDPath = map[string]string{"case_id": "integer"}
)

// apiDocs documents every route under the API prefix.
func apiDocs() *openapi.Generator {
	g := openapi.NewGenerator("VitalLab API", "v1")

	caseFilters := append([]openapi.Param{
		{Name: "department", Type: "string"},
		{Name: "optype", Type: "string"},
		{Name: "approach", Type: "string"},
		{Name: "age_min", Type: "integer", Minimum: bound(0)},
		{Name: "age_max", Type: "integer", Maximum: bound(150)},
		{Name: "asa", Type: "integer", Minimum: bound(1), Maximum: bound(6)},
		{Name: "emop", Type: "integer", Minimum: bound(0), Maximum: bound(1)},
	}, pageParams...)

	g.Add(
		openapi.Operation{Path: apiPrefix + "/cases", Summary: "List cases", Tag: "cases", Params: caseFilters},
		openapi.Operation{Path: apiPrefix + "/cases/stats", Summary: "Case summary statistics", Tag: "cases"},
		openapi.Operation{Path: apiPrefix + "/cases/stats/department", Summary: "Statistics per department", Tag: "cases"},
		openapi.Operation{Path: apiPrefix + "/cases/stats/surgery", Summary: "Statistics per surgery type", Tag: "cases"},
		openapi.Operation{Path: apiPrefix + "/cases/recent", Summary: "Most recent cases", Tag: "cases", Params: pageParams[1:]},
		openapi.Operation{Path: apiPrefix + "/cases/by-department/:department", Summary: "Cases of a department", Tag: "cases", Params: pageParams},
		openapi.Operation{Path: apiPrefix + "/cases/:case_id", Summary: "Get a case", Tag: "cases", PathTypes: caseIDPath, MayNotExist: true},

		openapi.Operation{Path: apiPrefix + "/tracks", Summary: "List tracks", Tag: "tracks", Params: pageParams},
		openapi.Operation{Path: apiPrefix + "/tracks/by-case/:case_id", Summary: "Tracks of a case", Tag: "tracks", PathTypes: caseIDPath, MayNotExist: true},
		openapi.Operation{Path: apiPrefix + "/tracks/:tid", Summary: "Get a track", Tag: "tracks", MayNotExist: true},
		openapi.Operation{
			Path:    apiPrefix + "/tracks/:tid/data",
			Summary: "Samples of a track",
			Tag:     "tracks",
			Params: []openapi.Param{
				{Name: "resolution", Type: "integer", Minimum: bound(1), Description: "Maximum samples returned"},
			},
			MayNotExist: true,
		},

		openapi.Operation{Path: apiPrefix + "/labs/by-case/:case_id", Summary: "Lab results of a case", Tag: "labs", PathTypes: caseIDPath, MayNotExist: true},
		openapi.Operation{Path: apiPrefix + "/labs/by-name/:name", Summary: "Lab results by test name", Tag: "labs", MayNotExist: true},

		openapi.Operation{Path: apiPrefix + "/case/:case_id/signals", Summary: "Signals of a case", Tag: "vitals", PathTypes: caseIDPath, MayNotExist: true},
		openapi.Operation{
			Path:      apiPrefix + "/case/:case_id/data",
			Summary:   "Windowed and downsampled case data",
			Tag:       "vitals",
			PathTypes: caseIDPath,
			Params: append(append([]openapi.Param{}, windowParams...), openapi.Param{
				Name: "resolution", Type: "integer", Minimum: bound(1), Description: "Maximum rows returned (default 500)",
			}),
			MayNotExist: true,
		},
		openapi.Operation{Path: apiPrefix + "/case/:case_id/statistics", Summary: "Signal statistics", Tag: "vitals", PathTypes: caseIDPath, Params: windowParams, MayNotExist: true},
		openapi.Operation{Path: apiPrefix + "/case/:case_id/clinical-info", Summary: "Clinical summary of a case", Tag: "vitals", PathTypes: caseIDPath, MayNotExist: true},
		openapi.Operation{Path: apiPrefix + "/case-ids", Summary: "Cases with viewer data", Tag: "vitals"},
	)
	return g
}
